package topology

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/module/reachability/pkg/errors"
	"github.com/module/reachability/pkg/model"
	"github.com/module/reachability/pkg/value"
)

func diamondInput() BuildInput {
	// 1 -> 2, 1 -> 3, 2 -> 4, 3 -> 4
	edges := []model.Edge{
		{Src: 1, Dst: 2},
		{Src: 1, Dst: 3},
		{Src: 2, Dst: 4},
		{Src: 3, Dst: 4},
	}
	priors := map[model.Node]value.Belief{
		1: value.Scalar(0.9),
		2: value.Scalar(1),
		3: value.Scalar(1),
		4: value.Scalar(1),
	}
	edgeProbs := make(map[model.Edge]value.Belief)
	for _, e := range edges {
		edgeProbs[e] = value.Scalar(0.5)
	}
	return BuildInput{Kind: value.KindScalar, Edges: edges, NodePriors: priors, EdgeProbabilities: edgeProbs}
}

func TestBuild_IterationSetsAreLayered(t *testing.T) {
	n, err := Build(diamondInput())
	require.NoError(t, err)

	require.Len(t, n.IterationSets, 3)
	assert.ElementsMatch(t, []model.Node{1}, n.IterationSets[0])
	assert.ElementsMatch(t, []model.Node{2, 3}, n.IterationSets[1])
	assert.ElementsMatch(t, []model.Node{4}, n.IterationSets[2])
	assert.ElementsMatch(t, []model.Node{1}, n.SourceNodes)
}

func TestBuild_CycleIsTopologyError(t *testing.T) {
	in := diamondInput()
	in.Edges = append(in.Edges, model.Edge{Src: 4, Dst: 1})
	in.EdgeProbabilities[model.Edge{Src: 4, Dst: 1}] = value.Scalar(0.5)

	_, err := Build(in)
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindTopology))
}

func TestBuild_MissingPriorIsMissingDataError(t *testing.T) {
	in := diamondInput()
	delete(in.NodePriors, 3)

	_, err := Build(in)
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindMissingData))
}

func TestBuild_MissingEdgeProbabilityIsMissingDataError(t *testing.T) {
	in := diamondInput()
	delete(in.EdgeProbabilities, model.Edge{Src: 2, Dst: 4})

	_, err := Build(in)
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindMissingData))
}
