package sdp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/module/reachability/internal/diamond"
	"github.com/module/reachability/internal/driver"
	"github.com/module/reachability/internal/topology"
	"github.com/module/reachability/pkg/model"
	"github.com/module/reachability/pkg/value"
)

func buildDiamondNetwork(t *testing.T) *model.Network {
	t.Helper()
	edges := []model.Edge{{Src: 1, Dst: 2}, {Src: 1, Dst: 3}, {Src: 2, Dst: 4}, {Src: 3, Dst: 4}}
	priors := map[model.Node]value.Belief{1: value.Scalar(0.6), 2: value.Scalar(1), 3: value.Scalar(1), 4: value.Scalar(1)}
	edgeProbs := map[model.Edge]value.Belief{
		{Src: 1, Dst: 2}: value.Scalar(0.5),
		{Src: 1, Dst: 3}: value.Scalar(0.4),
		{Src: 2, Dst: 4}: value.Scalar(0.7),
		{Src: 3, Dst: 4}: value.Scalar(0.3),
	}
	n, err := topology.Build(topology.BuildInput{Kind: value.KindScalar, Edges: edges, NodePriors: priors, EdgeProbabilities: edgeProbs})
	require.NoError(t, err)
	return n
}

func diamondRecord() *model.Diamond {
	return &model.Diamond{
		JoinNode:      4,
		RelevantNodes: []model.Node{1, 2, 3, 4},
		HighestNodes:  []model.Node{1},
		Edgelist:      []model.Edge{{Src: 1, Dst: 2}, {Src: 1, Dst: 3}, {Src: 2, Dst: 4}, {Src: 3, Dst: 4}},
	}
}

// TestEvaluate_AgreesWithEnumeration checks property P6: SDP and the
// conditional-enumeration evaluator must agree on the same diamond.
func TestEvaluate_AgreesWithEnumeration(t *testing.T) {
	n := buildDiamondNetwork(t)
	d := diamondRecord()

	outer := model.NewBeliefStore()
	outer.Pin(1, value.Scalar(0.6))

	sdpEval := NewEvaluator(n)
	sdpResult, err := sdpEval.Evaluate(d, outer)
	require.NoError(t, err)

	enumEval := diamond.NewEvaluator(n, nil, driver.Run)
	enumResult, err := enumEval.Evaluate(d, outer)
	require.NoError(t, err)

	assert.InDelta(t, float64(enumResult.(value.Scalar)), float64(sdpResult.(value.Scalar)), 1e-9)
}
