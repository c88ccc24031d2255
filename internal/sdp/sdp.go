// Package sdp implements the Sum of Disjoint Products alternative to
// internal/diamond's 2^n conditional enumeration (§4.5): path
// enumeration plus disjoint-product expansion, intended for diamonds
// whose conditioning set is too large for exhaustive enumeration.
package sdp

import (
	"sort"

	"github.com/module/reachability/internal/incexcl"
	"github.com/module/reachability/pkg/errors"
	"github.com/module/reachability/pkg/model"
	"github.com/module/reachability/pkg/value"
)

// path records one simple path from a conditioning node to the join
// node: its source, and the product of edge probabilities along it.
type path struct {
	source          model.Node
	pathProbability value.Belief
}

// Evaluator implements signal.DiamondEvaluator using SDP, the
// alternative to internal/diamond.Evaluator for large conditioning
// sets. Property P6 (numerical agreement of the two) is checked by
// tests; no code compares the two evaluators at run time.
type Evaluator struct {
	Network *model.Network
}

// NewEvaluator returns an SDP-based evaluator over network.
func NewEvaluator(network *model.Network) *Evaluator {
	return &Evaluator{Network: network}
}

// Evaluate implements signal.DiamondEvaluator.
func (e *Evaluator) Evaluate(d *model.Diamond, outer *model.BeliefStore) (value.Belief, error) {
	kind := e.Network.Kind
	ordered := orderConditioningNodes(d, e.Network)

	adjacency := buildAdjacency(d.Edgelist)
	paths := make([]path, 0)
	for _, c := range ordered {
		found, err := enumeratePaths(e.Network, adjacency, c, d.JoinNode, kind)
		if err != nil {
			return nil, err
		}
		paths = append(paths, found...)
	}

	condBeliefs := make(map[model.Node]value.Belief, len(ordered))
	for _, c := range ordered {
		b, ok := outer.Get(c)
		if !ok {
			return nil, errors.Topology("sdp: conditioning node " + c.String() + " not yet resolved")
		}
		condBeliefs[c] = b
	}

	result := value.Zero(kind)
	n := len(ordered)
	for mask := 1; mask < (1 << n); mask++ {
		active := make(map[model.Node]bool, n)
		weight := value.One(kind)
		for i, c := range ordered {
			if mask&(1<<i) != 0 {
				active[c] = true
				weight = weight.Mul(condBeliefs[c])
			} else {
				weight = weight.Mul(condBeliefs[c].Complement())
			}
		}

		var contributing []value.Belief
		for _, p := range paths {
			if active[p.source] {
				contributing = append(contributing, p.pathProbability)
			}
		}
		if len(contributing) == 0 {
			continue
		}
		pathUnion := incexcl.Union(contributing)
		term := weight.Mul(pathUnion)
		result = result.Add(term)
	}
	return result, nil
}

// orderConditioningNodes applies the Shannon-style variable ordering:
// topological (sources first, which d.HighestNodes already are within
// the diamond), tie-broken by higher out-degree first, to minimize the
// number of non-disjoint terms the expansion produces.
func orderConditioningNodes(d *model.Diamond, network *model.Network) []model.Node {
	ordered := append([]model.Node(nil), d.HighestNodes...)
	outDegree := make(map[model.Node]int, len(ordered))
	for _, n := range ordered {
		outDegree[n] = len(network.Outgoing[n])
	}
	sort.Slice(ordered, func(i, j int) bool {
		if outDegree[ordered[i]] != outDegree[ordered[j]] {
			return outDegree[ordered[i]] > outDegree[ordered[j]]
		}
		return ordered[i] < ordered[j]
	})
	return ordered
}

func buildAdjacency(edges []model.Edge) map[model.Node][]model.Edge {
	adj := make(map[model.Node][]model.Edge)
	for _, e := range edges {
		adj[e.Src] = append(adj[e.Src], e)
	}
	return adj
}

// enumeratePaths runs a DFS from source to join over the diamond's
// edgelist, recording every simple path (no repeated node) as a single
// belief: the product of that path's edge probabilities.
func enumeratePaths(network *model.Network, adjacency map[model.Node][]model.Edge, source, join model.Node, kind value.Kind) ([]path, error) {
	var found []path
	visited := map[model.Node]bool{source: true}

	var dfs func(node model.Node, acc value.Belief) error
	dfs = func(node model.Node, acc value.Belief) error {
		if node == join {
			found = append(found, path{source: source, pathProbability: acc})
			return nil
		}
		for _, e := range adjacency[node] {
			if visited[e.Dst] {
				continue
			}
			ep, err := network.EdgeProbability(e)
			if err != nil {
				return err
			}
			visited[e.Dst] = true
			if err := dfs(e.Dst, acc.Mul(ep)); err != nil {
				return err
			}
			visited[e.Dst] = false
		}
		return nil
	}

	if err := dfs(source, value.One(kind)); err != nil {
		return nil, err
	}
	return found, nil
}
