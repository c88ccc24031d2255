package value

import (
	"fmt"
	"math"
)

// pboxBins is the number of discretization steps used to represent a
// p-box's bounding CDFs over the domain [0,1]. Each array has
// pboxBins+1 entries: CDF[0] is the probability mass at or below 0,
// CDF[pboxBins] is always 1.
const pboxBins = 64

// PBox is a belief represented as a probability box: a pair of bounding
// CDFs (Lower, Upper) over the domain [0,1], discretized into pboxBins
// steps. Lower bounds the CDF from below (less mass at low values),
// Upper bounds it from above. Both are monotonically
// non-decreasing from 0 to 1.
type PBox struct {
	Lower [pboxBins + 1]float64
	Upper [pboxBins + 1]float64
}

// degeneratePBox builds a p-box whose lower and upper CDFs coincide: a
// step function jumping from 0 to 1 at value v. This represents full
// certainty that the quantity equals v, expressed in p-box form.
func degeneratePBox(v float64) PBox {
	var pb PBox
	idx := int(math.Round(v * pboxBins))
	if idx < 0 {
		idx = 0
	}
	if idx > pboxBins {
		idx = pboxBins
	}
	for i := 0; i <= pboxBins; i++ {
		if i >= idx {
			pb.Lower[i] = 1
			pb.Upper[i] = 1
		}
	}
	return pb
}

func zeroPBox() Belief { return degeneratePBox(0) }
func onePBox() Belief  { return degeneratePBox(1) }

// Kind implements Belief.
func (pb PBox) Kind() Kind { return KindPBox }

// pmf returns the probability mass function implied by a CDF array.
func pmf(cdf [pboxBins + 1]float64) [pboxBins]float64 {
	var m [pboxBins]float64
	prev := 0.0
	for i := 0; i < pboxBins; i++ {
		m[i] = cdf[i+1] - prev
		prev = cdf[i+1]
	}
	return m
}

// cdfFromPMF integrates a probability mass function into a CDF array,
// clamping the final value to exactly 1 to absorb rounding error.
func cdfFromPMF(m [pboxBins]float64) [pboxBins + 1]float64 {
	var cdf [pboxBins + 1]float64
	acc := 0.0
	for i := 0; i < pboxBins; i++ {
		acc += m[i]
		cdf[i+1] = acc
	}
	if cdf[pboxBins] != 0 {
		scale := 1 / cdf[pboxBins]
		for i := range cdf {
			cdf[i] *= scale
		}
	}
	return cdf
}

// binValue returns the representative value of bin i: the midpoint of
// the i-th of pboxBins equal-width sub-intervals of [0,1].
func binValue(i int) float64 {
	return (float64(i) + 0.5) / pboxBins
}

// binIndex maps a value back onto a bin index, clamping to the
// representable [0,1] domain. This is the one place the p-box
// representation is lossy: values transiently outside [0,1] (e.g. an
// intermediate sum inside the inclusion-exclusion kernel) are clamped
// to the nearest representable bin rather than rejected, because the
// discretized representation has no other way to hold them. Validate
// still reports genuinely invalid p-boxes (non-monotone or out-of-unit
// CDFs) as errors.
func binIndex(v float64) int {
	idx := int(math.Round(v * pboxBins))
	if idx < 0 {
		idx = 0
	}
	if idx > pboxBins-1 {
		idx = pboxBins - 1
	}
	return idx
}

// convolve computes the bound CDF for op(X, Y) under the assumption
// that X (bound a) and Y (bound b) are stochastically independent,
// by direct O(pboxBins^2) convolution of their probability masses.
func convolve(a, b [pboxBins + 1]float64, op func(x, y float64) float64) [pboxBins + 1]float64 {
	pa := pmf(a)
	pb := pmf(b)
	var out [pboxBins]float64
	for i, wa := range pa {
		if wa == 0 {
			continue
		}
		vi := binValue(i)
		for j, wb := range pb {
			if wb == 0 {
				continue
			}
			v := op(vi, binValue(j))
			out[binIndex(v)] += wa * wb
		}
	}
	return cdfFromPMF(out)
}

// Mul implements Belief: independent convolution of the lower bounds
// with each other and the upper bounds with each other.
func (pb PBox) Mul(other Belief) Belief {
	o := other.(PBox)
	return PBox{
		Lower: convolve(pb.Lower, o.Lower, func(x, y float64) float64 { return x * y }),
		Upper: convolve(pb.Upper, o.Upper, func(x, y float64) float64 { return x * y }),
	}
}

// Add implements Belief.
func (pb PBox) Add(other Belief) Belief {
	o := other.(PBox)
	return PBox{
		Lower: convolve(pb.Lower, o.Lower, func(x, y float64) float64 { return x + y }),
		Upper: convolve(pb.Upper, o.Upper, func(x, y float64) float64 { return x + y }),
	}
}

// Sub implements Belief.
func (pb PBox) Sub(other Belief) Belief {
	o := other.(PBox)
	return PBox{
		Lower: convolve(pb.Lower, o.Upper, func(x, y float64) float64 { return x - y }),
		Upper: convolve(pb.Upper, o.Lower, func(x, y float64) float64 { return x - y }),
	}
}

// Complement implements Belief: 1-X reverses and complements both CDFs,
// and swaps which bound is "lower" since negation flips monotonicity.
func (pb PBox) Complement() Belief {
	var lower, upper [pboxBins + 1]float64
	for i := 0; i < pboxBins; i++ {
		lower[i] = 1 - pb.Upper[pboxBins-1-i]
		upper[i] = 1 - pb.Lower[pboxBins-1-i]
	}
	lower[pboxBins], upper[pboxBins] = 1, 1
	return PBox{Lower: lower, Upper: upper}
}

// Validate implements Belief: both CDFs must be non-decreasing, run
// from 0 to 1, and the lower CDF must not exceed the upper CDF pointwise
// (Lower(x) <= Upper(x) for all x).
func (pb PBox) Validate() error {
	for i := 0; i <= pboxBins; i++ {
		if pb.Lower[i] < -1e-9 || pb.Lower[i] > 1+1e-9 || pb.Upper[i] < -1e-9 || pb.Upper[i] > 1+1e-9 {
			return &ErrOutOfRange{Kind: KindPBox, Detail: "CDF value outside [0,1]"}
		}
		if i > 0 {
			if pb.Lower[i] < pb.Lower[i-1]-1e-9 {
				return &ErrOutOfRange{Kind: KindPBox, Detail: "lower CDF not monotone"}
			}
			if pb.Upper[i] < pb.Upper[i-1]-1e-9 {
				return &ErrOutOfRange{Kind: KindPBox, Detail: "upper CDF not monotone"}
			}
		}
		if pb.Lower[i] > pb.Upper[i]+1e-9 {
			return &ErrOutOfRange{Kind: KindPBox, Detail: "lower CDF above upper CDF"}
		}
	}
	return nil
}

// String implements fmt.Stringer, reporting the envelope of possible
// probability mass (the widest gap between the bounding CDFs).
func (pb PBox) String() string {
	lo, hi := pb.Envelope()
	return fmt.Sprintf("pbox[%.6g, %.6g]", lo, hi)
}

// Envelope returns the overall [lo, hi] probability bound implied by the
// p-box: the smallest value with non-zero upper mass and the smallest
// value at which the lower CDF reaches 1.
func (pb PBox) Envelope() (lo, hi float64) {
	lo, hi = 1, 1
	for i := 0; i <= pboxBins; i++ {
		v := float64(i) / pboxBins
		if pb.Upper[i] > 0 && v < lo {
			lo = v
		}
		if pb.Lower[i] >= 1-1e-9 && v < hi {
			hi = v
		}
	}
	if lo > hi {
		lo, hi = hi, lo
	}
	return lo, hi
}

// FromInterval builds a p-box whose lower and upper CDFs bound exactly
// the interval [lo, hi] with no further internal uncertainty — a
// convenience for call sites that only have interval data but need to
// run under the p-box evaluator.
func FromInterval(lo, hi float64) PBox {
	var pb PBox
	loIdx := int(math.Round(lo * pboxBins))
	hiIdx := int(math.Round(hi * pboxBins))
	for i := 0; i <= pboxBins; i++ {
		if i >= loIdx {
			pb.Upper[i] = 1
		}
		if i >= hiIdx {
			pb.Lower[i] = 1
		}
	}
	return pb
}
