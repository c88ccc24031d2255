package value

import (
	"encoding/json"
	"fmt"
)

// wireBelief is the on-the-wire JSON shape for a Belief: the CLI/HTTP
// network documents and the repository's persisted belief maps both use
// this shape regardless of Kind, so that a run's uncertainty type is a
// single top-level field rather than repeated per value.
//
// Scalar:   {"p": 0.5}
// Interval: {"lo": 0.4, "hi": 0.6}
// PBox:     {"lo": 0.4, "hi": 0.6} (envelope only — a degenerate p-box
//           built with FromInterval; full CDF round-tripping is not
//           exposed over the wire, only the computed envelope is).
type wireBelief struct {
	P  *float64 `json:"p,omitempty"`
	Lo *float64 `json:"lo,omitempty"`
	Hi *float64 `json:"hi,omitempty"`
}

// Marshal encodes a Belief to its wire representation for the given Kind.
func Marshal(b Belief) ([]byte, error) {
	switch v := b.(type) {
	case Scalar:
		p := float64(v)
		return json.Marshal(wireBelief{P: &p})
	case Interval:
		return json.Marshal(wireBelief{Lo: &v.Lo, Hi: &v.Hi})
	case PBox:
		lo, hi := v.Envelope()
		return json.Marshal(wireBelief{Lo: &lo, Hi: &hi})
	default:
		return nil, fmt.Errorf("value: unsupported belief type %T", b)
	}
}

// Unmarshal decodes a wire belief into the concrete representation for
// the given Kind.
func Unmarshal(data []byte, k Kind) (Belief, error) {
	var w wireBelief
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("value: decode belief: %w", err)
	}
	switch k {
	case KindScalar:
		if w.P == nil {
			return nil, fmt.Errorf("value: scalar belief missing \"p\"")
		}
		return Scalar(*w.P), nil
	case KindInterval:
		if w.Lo == nil || w.Hi == nil {
			return nil, fmt.Errorf("value: interval belief missing \"lo\"/\"hi\"")
		}
		return Interval{Lo: *w.Lo, Hi: *w.Hi}, nil
	case KindPBox:
		if w.Lo == nil || w.Hi == nil {
			return nil, fmt.Errorf("value: pbox belief missing \"lo\"/\"hi\"")
		}
		return FromInterval(*w.Lo, *w.Hi), nil
	default:
		return nil, fmt.Errorf("value: unknown kind %d", k)
	}
}
