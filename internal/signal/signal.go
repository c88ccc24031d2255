// Package signal implements the per-node signal combiner (§4.3): for a
// non-source node, assemble every parent's contribution (direct or via
// a diamond) and combine them into the node's belief.
package signal

import (
	"fmt"

	"github.com/module/reachability/internal/incexcl"
	"github.com/module/reachability/pkg/errors"
	"github.com/module/reachability/pkg/model"
	"github.com/module/reachability/pkg/value"
)

// DiamondEvaluator resolves the pre-prior signal a diamond contributes
// to its join node, given the outer belief store with the diamond's
// conditioning nodes already resolved. internal/diamond and
// internal/sdp both implement this.
type DiamondEvaluator interface {
	Evaluate(d *model.Diamond, outer *model.BeliefStore) (value.Belief, error)
}

// Combine computes belief[node] for a single node, given its parents
// already resolved in store. dan may be nil, meaning node has no
// diamonds (all parents are direct).
func Combine(node model.Node, network *model.Network, dan *model.DiamondsAtNode, store *model.BeliefStore, evaluator DiamondEvaluator) (value.Belief, error) {
	prior, err := network.Prior(node)
	if err != nil {
		return nil, err
	}

	parents := network.Parents(node)
	if len(parents) == 0 {
		return prior, nil
	}

	nonDiamondParents := parents
	var diamonds []*model.Diamond
	if dan != nil {
		nonDiamondParents = dan.NonDiamondParents
		diamonds = dan.Diamonds
	}

	var signals []value.Belief

	for _, p := range nonDiamondParents {
		pb, ok := store.Get(p)
		if !ok {
			return nil, errors.Topology(fmt.Sprintf("parent %s of %s not yet resolved", p, node))
		}
		edgeProb, err := network.EdgeProbability(model.Edge{Src: p, Dst: node})
		if err != nil {
			return nil, err
		}
		signals = append(signals, pb.Mul(edgeProb))
	}

	for _, d := range diamonds {
		sig, err := evaluator.Evaluate(d, store)
		if err != nil {
			return nil, err
		}
		signals = append(signals, sig)
	}

	preprior := incexcl.Union(signals)
	if preprior == nil {
		preprior = value.One(prior.Kind())
	}
	return prior.Mul(preprior), nil
}
