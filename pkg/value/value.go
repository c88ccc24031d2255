// Package value implements the uncertainty-type algebra the engine runs
// on: scalar probabilities, interval bounds, and p-boxes. Every belief
// and edge probability in a single run shares one Kind; algorithms above
// this package never branch on which one it is — they call Mul/Add/Sub/
// Complement through the Belief interface.
package value

import "fmt"

// Kind identifies which concrete uncertainty representation a run uses.
type Kind int

const (
	// KindScalar represents beliefs as a single probability in [0,1].
	KindScalar Kind = iota
	// KindInterval represents beliefs as a [lo, hi] bound.
	KindInterval
	// KindPBox represents beliefs as a probability box: bounding lower
	// and upper CDFs over a discretized domain.
	KindPBox
)

// String returns the string representation of a Kind.
func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindInterval:
		return "interval"
	case KindPBox:
		return "pbox"
	default:
		return "unknown"
	}
}

// ParseKind parses a Kind from its string representation.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "scalar":
		return KindScalar, nil
	case "interval":
		return KindInterval, nil
	case "pbox":
		return KindPBox, nil
	default:
		return 0, fmt.Errorf("value: unknown uncertainty kind %q", s)
	}
}

// Belief is a single uncertain value in one of the supported
// representations. Mul/Add/Sub panic if given an operand of a different
// concrete type — mixing uncertainty kinds within one run is a caller
// bug, not a recoverable condition, since a run commits to one Kind at
// construction.
type Belief interface {
	fmt.Stringer

	// Kind reports which uncertainty representation this value uses.
	Kind() Kind

	// Mul returns the product of this value and other, independent.
	Mul(other Belief) Belief

	// Add returns the sum of this value and other, independent.
	Add(other Belief) Belief

	// Sub returns the difference of this value and other, independent.
	Sub(other Belief) Belief

	// Complement returns One() - this value.
	Complement() Belief

	// Validate reports whether the value lies within the valid range
	// for its representation. It performs no clamping.
	Validate() error
}

// Zero returns the additive identity for the given uncertainty kind.
func Zero(k Kind) Belief {
	switch k {
	case KindScalar:
		return Scalar(0)
	case KindInterval:
		return Interval{Lo: 0, Hi: 0}
	case KindPBox:
		return zeroPBox()
	default:
		panic(fmt.Sprintf("value: unknown kind %d", k))
	}
}

// One returns the multiplicative identity (certainty) for the given
// uncertainty kind.
func One(k Kind) Belief {
	switch k {
	case KindScalar:
		return Scalar(1)
	case KindInterval:
		return Interval{Lo: 1, Hi: 1}
	case KindPBox:
		return onePBox()
	default:
		panic(fmt.Sprintf("value: unknown kind %d", k))
	}
}

// ErrOutOfRange is returned by Validate when a belief falls outside the
// valid range for its representation.
type ErrOutOfRange struct {
	Kind   Kind
	Detail string
}

func (e *ErrOutOfRange) Error() string {
	return fmt.Sprintf("value: %s value out of range: %s", e.Kind, e.Detail)
}
