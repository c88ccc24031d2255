package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/module/reachability/internal/topology"
	"github.com/module/reachability/pkg/model"
	"github.com/module/reachability/pkg/value"
)

// buildDiamondNetwork: 1 -> 2, 1 -> 3, 2 -> 4, 3 -> 4.
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

func diamondsAtNode4() map[model.Node]*model.DiamondsAtNode {
	d := &model.Diamond{
		JoinNode:      4,
		RelevantNodes: []model.Node{1, 2, 3, 4},
		HighestNodes:  []model.Node{1},
		Edgelist:      []model.Edge{{Src: 1, Dst: 2}, {Src: 1, Dst: 3}, {Src: 2, Dst: 4}, {Src: 3, Dst: 4}},
	}
	return map[model.Node]*model.DiamondsAtNode{
		4: {Node: 4, Diamonds: []*model.Diamond{d}},
	}
}

func TestUpdateBeliefs_DiamondNetworkEnumeration(t *testing.T) {
	n := buildDiamondNetwork(t)
	result, err := UpdateBeliefs(n, diamondsAtNode4())
	require.NoError(t, err)

	// Computed by hand in internal/sdp's agreement test: 0.6 * 0.428.
	assert.InDelta(t, 0.2568, float64(result[4].(value.Scalar)), 1e-9)
	assert.InDelta(t, 0.6, float64(result[1].(value.Scalar)), 1e-9)
}

func TestUpdateBeliefs_SDPMatchesEnumeration(t *testing.T) {
	n := buildDiamondNetwork(t)
	dan := diamondsAtNode4()

	enumResult, err := UpdateBeliefs(n, dan, WithEvaluator(EvaluatorEnumeration))
	require.NoError(t, err)
	sdpResult, err := UpdateBeliefs(n, dan, WithEvaluator(EvaluatorSDP))
	require.NoError(t, err)

	assert.InDelta(t, float64(enumResult[4].(value.Scalar)), float64(sdpResult[4].(value.Scalar)), 1e-9)
}

func TestUpdateBeliefs_PerNodeEvaluatorOverride(t *testing.T) {
	n := buildDiamondNetwork(t)
	dan := diamondsAtNode4()

	result, err := UpdateBeliefs(n, dan, WithEvaluator(EvaluatorEnumeration), WithEvaluatorOverride(4, EvaluatorSDP))
	require.NoError(t, err)
	assert.InDelta(t, 0.2568, float64(result[4].(value.Scalar)), 1e-9)
}

func TestUpdateBeliefs_ParallelModeAgreesWithSequential(t *testing.T) {
	n := buildDiamondNetwork(t)
	dan := diamondsAtNode4()

	sequential, err := UpdateBeliefs(n, dan)
	require.NoError(t, err)
	parallelResult, err := UpdateBeliefs(n, dan, WithParallel())
	require.NoError(t, err)

	assert.InDelta(t, float64(sequential[4].(value.Scalar)), float64(parallelResult[4].(value.Scalar)), 1e-9)
}

func TestUpdateBeliefs_NoDiamondsIsPlainPropagation(t *testing.T) {
	edges := []model.Edge{{Src: 1, Dst: 2}}
	priors := map[model.Node]value.Belief{1: value.Scalar(0.5), 2: value.Scalar(1)}
	edgeProbs := map[model.Edge]value.Belief{{Src: 1, Dst: 2}: value.Scalar(0.8)}
	n, err := topology.Build(topology.BuildInput{Kind: value.KindScalar, Edges: edges, NodePriors: priors, EdgeProbabilities: edgeProbs})
	require.NoError(t, err)

	result, err := UpdateBeliefs(n, nil)
	require.NoError(t, err)
	assert.InDelta(t, 0.4, float64(result[2].(value.Scalar)), 1e-9)
}
