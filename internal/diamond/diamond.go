// Package diamond implements the recursive conditional-enumeration
// diamond evaluator (§4.4): given a correlated parent cluster, resolve
// its contribution to the join node by enumerating every joint
// active/inactive state of its conditioning nodes.
package diamond

import (
	"fmt"

	"github.com/module/reachability/internal/topology"
	"github.com/module/reachability/pkg/collections"
	"github.com/module/reachability/pkg/errors"
	"github.com/module/reachability/pkg/model"
	"github.com/module/reachability/pkg/value"
)

// SubRunner runs the iteration driver restricted to a sub-network,
// writing results into store. internal/driver.Run satisfies this; it
// is supplied as a function value (not a direct import) so that
// internal/diamond and internal/driver do not import each other —
// pkg/engine wires the two together at construction time.
type SubRunner func(network *model.Network, diamondsAtNode map[model.Node]*model.DiamondsAtNode, store *model.BeliefStore) error

// Evaluator implements signal.DiamondEvaluator using §4.4's conditional
// enumeration.
type Evaluator struct {
	// Network is the full outer network, used to look up priors and
	// edge probabilities for nodes and edges inside a diamond.
	Network *model.Network

	// DiamondsAtNode is the full network's join-node table, used to
	// recurse into nested diamonds strictly inside D (an intermediate
	// join node other than D's own join).
	DiamondsAtNode map[model.Node]*model.DiamondsAtNode

	// Run executes the iteration driver over a sub-network.
	Run SubRunner

	// Cache memoizes evaluations; non-nil by convention (see NewEvaluator).
	Cache *Cache
}

// NewEvaluator builds an Evaluator with a fresh cache.
func NewEvaluator(network *model.Network, diamondsAtNode map[model.Node]*model.DiamondsAtNode, run SubRunner) *Evaluator {
	return &Evaluator{Network: network, DiamondsAtNode: diamondsAtNode, Run: run, Cache: NewCache()}
}

// Evaluate implements signal.DiamondEvaluator.
func (e *Evaluator) Evaluate(d *model.Diamond, outer *model.BeliefStore) (value.Belief, error) {
	key, err := canonicalKey(d, outer)
	if err != nil {
		return nil, err
	}
	if cached, ok := e.Cache.Get(key); ok {
		return cached, nil
	}

	result, err := e.evaluate(d, outer)
	if err != nil {
		return nil, err
	}
	e.Cache.Put(key, result)
	return result, nil
}

func (e *Evaluator) evaluate(d *model.Diamond, outer *model.BeliefStore) (value.Belief, error) {
	kind := e.Network.Kind
	n := len(d.HighestNodes)

	if n == 0 {
		sub, err := e.runSub(d, nil)
		if err != nil {
			return nil, err
		}
		b, ok := sub.Get(d.JoinNode)
		if !ok {
			return value.Zero(kind), nil
		}
		return b, nil
	}

	condBeliefs := make([]value.Belief, n)
	for i, c := range d.HighestNodes {
		b, ok := outer.Get(c)
		if !ok {
			return nil, errors.Topology(fmt.Sprintf("conditioning node %s not yet resolved", c))
		}
		condBeliefs[i] = b
	}

	result := value.Zero(kind)
	state := collections.NewBitset(n)
	for s := 0; s < (1 << n); s++ {
		state.ClearAll()
		for i := 0; i < n; i++ {
			if s&(1<<i) != 0 {
				state.Set(i)
			}
		}

		stateProb := value.One(kind)
		pins := make(map[model.Node]value.Belief, n)
		for i, c := range d.HighestNodes {
			if state.Test(i) {
				stateProb = stateProb.Mul(condBeliefs[i])
				pins[c] = value.One(kind)
			} else {
				stateProb = stateProb.Mul(condBeliefs[i].Complement())
				pins[c] = value.Zero(kind)
			}
		}

		sub, err := e.runSub(d, pins)
		if err != nil {
			return nil, err
		}
		joinBelief, ok := sub.Get(d.JoinNode)
		if !ok {
			joinBelief = value.Zero(kind)
		}
		result = result.Add(stateProb.Mul(joinBelief))
	}
	return result, nil
}

// runSub builds the restricted sub-network for d, pins conditioning
// nodes per pins (nil for the n=0 case), and runs the driver over it.
func (e *Evaluator) runSub(d *model.Diamond, pins map[model.Node]value.Belief) (*model.BeliefStore, error) {
	priors := make(map[model.Node]value.Belief, len(d.RelevantNodes))
	for _, node := range d.RelevantNodes {
		if b, ok := pins[node]; ok {
			priors[node] = b
			continue
		}
		p, err := e.Network.Prior(node)
		if err != nil {
			return nil, err
		}
		priors[node] = p
	}

	edgeProbs := make(map[model.Edge]value.Belief, len(d.Edgelist))
	for _, edge := range d.Edgelist {
		ep, err := e.Network.EdgeProbability(edge)
		if err != nil {
			return nil, err
		}
		edgeProbs[edge] = ep
	}

	sub, err := topology.Build(topology.BuildInput{
		Kind:              e.Network.Kind,
		Edges:             d.Edgelist,
		NodePriors:        priors,
		EdgeProbabilities: edgeProbs,
	})
	if err != nil {
		return nil, err
	}

	store := model.NewBeliefStore()
	for node, b := range pins {
		store.Pin(node, b)
	}

	nested := make(map[model.Node]*model.DiamondsAtNode)
	relevant := make(map[model.Node]bool, len(d.RelevantNodes))
	for _, node := range d.RelevantNodes {
		relevant[node] = true
	}
	for node, dan := range e.DiamondsAtNode {
		if node == d.JoinNode {
			continue
		}
		if relevant[node] {
			nested[node] = dan
		}
	}

	if err := e.Run(sub, nested, store); err != nil {
		return nil, err
	}
	return store, nil
}
