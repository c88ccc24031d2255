package incexcl

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/module/reachability/pkg/value"
)

func TestUnion_SingleSignal(t *testing.T) {
	got := Union([]value.Belief{value.Scalar(0.3)})
	assert.Equal(t, value.Scalar(0.3), got)
}

func TestUnion_TwoIndependentSignals(t *testing.T) {
	// P(A∪B) = P(A) + P(B) - P(A)P(B)
	a := value.Scalar(0.4)
	b := value.Scalar(0.5)
	got := Union([]value.Belief{a, b}).(value.Scalar)
	want := 0.4 + 0.5 - 0.4*0.5
	assert.InDelta(t, want, float64(got), 1e-9)
}

func TestUnion_ThreeIndependentSignals(t *testing.T) {
	a, b, c := 0.2, 0.3, 0.4
	got := Union([]value.Belief{value.Scalar(a), value.Scalar(b), value.Scalar(c)}).(value.Scalar)
	want := 1 - (1-a)*(1-b)*(1-c)
	assert.InDelta(t, want, float64(got), 1e-9)
}

func TestUnion_ZeroSignalsIsNil(t *testing.T) {
	assert.Nil(t, Union(nil))
}
