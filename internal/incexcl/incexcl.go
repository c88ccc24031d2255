// Package incexcl implements the inclusion-exclusion kernel used to
// combine independent per-parent signals into a single "received at
// least one signal" probability.
package incexcl

import (
	"github.com/module/reachability/pkg/value"
)

// Union computes P(A1 ∪ A2 ∪ ... ∪ Ak) for a list of beliefs assumed
// independent, via the inclusion-exclusion expansion
//
//	P(∪ Ai) = Σ (-1)^(|T|+1) Π_{i∈T} Ai
//
// over every non-empty subset T of {1..k}. k=1 returns signals[0]
// unchanged. This is O(2^k); callers are expected to keep k small
// (diamond conditioning-set sizes rarely exceed ~20) — a larger k is a
// signal to switch to the SDP evaluator (internal/sdp), not something
// this kernel guards against itself.
func Union(signals []value.Belief) value.Belief {
	if len(signals) == 0 {
		return nil
	}
	k := signals[0].Kind()
	if len(signals) == 1 {
		return signals[0]
	}

	total := value.Zero(k)
	for mask := 1; mask < (1 << len(signals)); mask++ {
		term := value.One(k)
		bits := 0
		for i, s := range signals {
			if mask&(1<<i) != 0 {
				term = term.Mul(s)
				bits++
			}
		}
		if bits%2 == 1 {
			total = total.Add(term)
		} else {
			total = total.Sub(term)
		}
	}
	return total
}
