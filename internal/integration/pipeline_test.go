// Package integration runs the engine end-to-end, the way a caller
// does: build a network from an edgelist and priors, decompose its
// diamonds, and resolve beliefs, without touching any of the
// package-internal seams individually.
package integration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/module/reachability/internal/decompose"
	"github.com/module/reachability/internal/topology"
	"github.com/module/reachability/pkg/engine"
	"github.com/module/reachability/pkg/model"
	"github.com/module/reachability/pkg/value"
)

func buildScalar(t *testing.T, edges []model.Edge, priors map[model.Node]value.Belief, edgeProbs map[model.Edge]value.Belief) *model.Network {
	t.Helper()
	n, err := topology.Build(topology.BuildInput{
		Kind:              value.KindScalar,
		Edges:             edges,
		NodePriors:        priors,
		EdgeProbabilities: edgeProbs,
	})
	require.NoError(t, err)
	return n
}

// S1: chain 1 -> 2 -> 3, priors all 1.0, edges all 0.5.
func TestPipeline_Chain(t *testing.T) {
	edges := []model.Edge{{Src: 1, Dst: 2}, {Src: 2, Dst: 3}}
	priors := map[model.Node]value.Belief{1: value.Scalar(1), 2: value.Scalar(1), 3: value.Scalar(1)}
	edgeProbs := map[model.Edge]value.Belief{
		{Src: 1, Dst: 2}: value.Scalar(0.5),
		{Src: 2, Dst: 3}: value.Scalar(0.5),
	}
	n := buildScalar(t, edges, priors, edgeProbs)

	dan := decompose.Decompose(n)
	assert.Empty(t, dan, "a chain has no node with two parents to condition on")

	beliefs, err := engine.UpdateBeliefs(n, dan)
	require.NoError(t, err)

	assert.InDelta(t, 1.0, float64(beliefs[1].(value.Scalar)), 1e-9)
	assert.InDelta(t, 0.5, float64(beliefs[2].(value.Scalar)), 1e-9)
	assert.InDelta(t, 0.25, float64(beliefs[3].(value.Scalar)), 1e-9)
}

// S2: two independent parents 1 -> 3, 2 -> 3, sharing no ancestry, so
// node 3 is resolved via inclusion-exclusion over independent signals.
func TestPipeline_IndependentParentsNoDiamond(t *testing.T) {
	edges := []model.Edge{{Src: 1, Dst: 3}, {Src: 2, Dst: 3}}
	priors := map[model.Node]value.Belief{1: value.Scalar(1), 2: value.Scalar(1), 3: value.Scalar(1)}
	edgeProbs := map[model.Edge]value.Belief{
		{Src: 1, Dst: 3}: value.Scalar(0.5),
		{Src: 2, Dst: 3}: value.Scalar(0.5),
	}
	n := buildScalar(t, edges, priors, edgeProbs)

	dan := decompose.Decompose(n)
	assert.Empty(t, dan, "parents 1 and 2 share no common ancestor")

	beliefs, err := engine.UpdateBeliefs(n, dan)
	require.NoError(t, err)

	assert.InDelta(t, 0.75, float64(beliefs[3].(value.Scalar)), 1e-9)
}

// S3: symmetric diamond 1 -> 2, 1 -> 3, 2 -> 4, 3 -> 4, priors all 1.0,
// all edges 0.5.
func TestPipeline_SymmetricDiamond(t *testing.T) {
	edges := []model.Edge{
		{Src: 1, Dst: 2}, {Src: 1, Dst: 3},
		{Src: 2, Dst: 4}, {Src: 3, Dst: 4},
	}
	priors := map[model.Node]value.Belief{1: value.Scalar(1), 2: value.Scalar(1), 3: value.Scalar(1), 4: value.Scalar(1)}
	edgeProbs := map[model.Edge]value.Belief{
		{Src: 1, Dst: 2}: value.Scalar(0.5),
		{Src: 1, Dst: 3}: value.Scalar(0.5),
		{Src: 2, Dst: 4}: value.Scalar(0.5),
		{Src: 3, Dst: 4}: value.Scalar(0.5),
	}
	n := buildScalar(t, edges, priors, edgeProbs)

	dan := decompose.Decompose(n)
	require.Contains(t, dan, model.Node(4))
	require.Len(t, dan[model.Node(4)].Diamonds, 1)
	assert.ElementsMatch(t, []model.Node{1}, dan[model.Node(4)].Diamonds[0].HighestNodes)

	beliefs, err := engine.UpdateBeliefs(n, dan)
	require.NoError(t, err)
	assert.InDelta(t, 0.4375, float64(beliefs[4].(value.Scalar)), 1e-9)
}

// S4: the same diamond shape as S3 but with asymmetric branch
// probabilities.
func TestPipeline_AsymmetricDiamond(t *testing.T) {
	edges := []model.Edge{
		{Src: 1, Dst: 2}, {Src: 1, Dst: 3},
		{Src: 2, Dst: 4}, {Src: 3, Dst: 4},
	}
	priors := map[model.Node]value.Belief{1: value.Scalar(1), 2: value.Scalar(1), 3: value.Scalar(1), 4: value.Scalar(1)}
	edgeProbs := map[model.Edge]value.Belief{
		{Src: 1, Dst: 2}: value.Scalar(0.9),
		{Src: 1, Dst: 3}: value.Scalar(0.1),
		{Src: 2, Dst: 4}: value.Scalar(0.8),
		{Src: 3, Dst: 4}: value.Scalar(0.2),
	}
	n := buildScalar(t, edges, priors, edgeProbs)

	dan := decompose.Decompose(n)
	beliefs, err := engine.UpdateBeliefs(n, dan)
	require.NoError(t, err)

	assert.InDelta(t, 0.7256, float64(beliefs[4].(value.Scalar)), 1e-9)
}

// S5: nested diamonds. The outer diamond forks at 1 into branches 2 and
// 3, joining at 6; the branch through 2 is itself the fork of an inner
// diamond joining back into 3 via 4 and 5, so node 3 serves as both the
// inner join and an outer branch. §4.4 (enumeration) and §4.5 (SDP)
// must agree on the result to 1e-10 (property P6).
func TestPipeline_NestedDiamondsEvaluatorsAgree(t *testing.T) {
	edges := []model.Edge{
		{Src: 1, Dst: 2}, {Src: 1, Dst: 3},
		{Src: 2, Dst: 4}, {Src: 2, Dst: 5},
		{Src: 4, Dst: 3}, {Src: 5, Dst: 3},
		{Src: 2, Dst: 6}, {Src: 3, Dst: 6},
	}
	priors := make(map[model.Node]value.Belief)
	for n := model.Node(1); n <= 6; n++ {
		priors[n] = value.Scalar(1)
	}
	priors[1] = value.Scalar(0.7)

	edgeProbs := map[model.Edge]value.Belief{
		{Src: 1, Dst: 2}: value.Scalar(0.6),
		{Src: 1, Dst: 3}: value.Scalar(0.5),
		{Src: 2, Dst: 4}: value.Scalar(0.8),
		{Src: 2, Dst: 5}: value.Scalar(0.3),
		{Src: 4, Dst: 3}: value.Scalar(0.9),
		{Src: 5, Dst: 3}: value.Scalar(0.4),
		{Src: 2, Dst: 6}: value.Scalar(0.7),
		{Src: 3, Dst: 6}: value.Scalar(0.2),
	}
	n := buildScalar(t, edges, priors, edgeProbs)

	dan := decompose.Decompose(n)
	require.Contains(t, dan, model.Node(3), "node 3 is the inner diamond's join")
	require.Contains(t, dan, model.Node(6), "node 6 is the outer diamond's join")

	enum, err := engine.UpdateBeliefs(n, dan, engine.WithEvaluator(engine.EvaluatorEnumeration))
	require.NoError(t, err)
	sdp, err := engine.UpdateBeliefs(n, dan, engine.WithEvaluator(engine.EvaluatorSDP))
	require.NoError(t, err)

	for node := model.Node(1); node <= 6; node++ {
		assert.InDelta(t, float64(enum[node].(value.Scalar)), float64(sdp[node].(value.Scalar)), 1e-10,
			"node %d disagreed between enumeration and SDP", node)
	}

	t.Logf("nested diamond beliefs (enumeration): %v", toFloats(enum))
}

// S6: interval propagation over the S1 chain with edge probabilities
// given as bounds rather than scalars.
func TestPipeline_IntervalPropagation(t *testing.T) {
	edges := []model.Edge{{Src: 1, Dst: 2}, {Src: 2, Dst: 3}}
	priors := map[model.Node]value.Belief{
		1: value.Interval{Lo: 1, Hi: 1},
		2: value.Interval{Lo: 1, Hi: 1},
		3: value.Interval{Lo: 1, Hi: 1},
	}
	edgeProbs := map[model.Edge]value.Belief{
		{Src: 1, Dst: 2}: value.Interval{Lo: 0.4, Hi: 0.6},
		{Src: 2, Dst: 3}: value.Interval{Lo: 0.4, Hi: 0.6},
	}
	n, err := topology.Build(topology.BuildInput{
		Kind:              value.KindInterval,
		Edges:             edges,
		NodePriors:        priors,
		EdgeProbabilities: edgeProbs,
	})
	require.NoError(t, err)

	beliefs, err := engine.UpdateBeliefs(n, decompose.Decompose(n))
	require.NoError(t, err)

	iv := beliefs[3].(value.Interval)
	assert.InDelta(t, 0.16, iv.Lo, 1e-9)
	assert.InDelta(t, 0.36, iv.Hi, 1e-9)
}

func toFloats(beliefs map[model.Node]value.Belief) map[model.Node]float64 {
	out := make(map[model.Node]float64, len(beliefs))
	for n, b := range beliefs {
		out[n] = float64(b.(value.Scalar))
	}
	return out
}
