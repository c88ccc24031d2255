// Package engine is the dispatch/API layer (§4.13): select an
// evaluator per node or globally, run the iteration driver, and return
// the completed belief map.
package engine

import (
	"github.com/module/reachability/internal/diamond"
	"github.com/module/reachability/internal/driver"
	"github.com/module/reachability/internal/sdp"
	"github.com/module/reachability/internal/signal"
	"github.com/module/reachability/pkg/model"
	"github.com/module/reachability/pkg/value"
)

// EvaluatorKind selects which diamond-evaluation strategy a run (or a
// single diamond, via a per-node override) uses.
type EvaluatorKind int

const (
	// EvaluatorEnumeration uses internal/diamond's 2^n conditional
	// enumeration. This is the default: authoritative whenever it
	// disagrees with EvaluatorSDP (property P6).
	EvaluatorEnumeration EvaluatorKind = iota
	// EvaluatorSDP uses internal/sdp's Sum of Disjoint Products
	// expansion, intended for diamonds with large conditioning sets.
	EvaluatorSDP
)

// Options configures a single UpdateBeliefs invocation.
type Options struct {
	// Parallel enables the driver's optional cross-diamond worker-pool
	// parallelism within a single iteration set.
	Parallel bool

	// Evaluator selects the default diamond-evaluation strategy.
	Evaluator EvaluatorKind

	// EvaluatorOverride, if non-nil, selects a strategy per join node,
	// overriding Evaluator for that node only. Nodes absent from the
	// map use Evaluator.
	EvaluatorOverride map[model.Node]EvaluatorKind
}

// Option configures Options.
type Option func(*Options)

// WithParallel enables cross-diamond parallelism within a layer.
func WithParallel() Option {
	return func(o *Options) { o.Parallel = true }
}

// WithEvaluator sets the default evaluator strategy.
func WithEvaluator(k EvaluatorKind) Option {
	return func(o *Options) { o.Evaluator = k }
}

// WithEvaluatorOverride sets a per-node evaluator strategy override.
func WithEvaluatorOverride(node model.Node, k EvaluatorKind) Option {
	return func(o *Options) {
		if o.EvaluatorOverride == nil {
			o.EvaluatorOverride = make(map[model.Node]EvaluatorKind)
		}
		o.EvaluatorOverride[node] = k
	}
}

func resolveOptions(opts []Option) Options {
	o := Options{Evaluator: EvaluatorEnumeration}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

// dispatchEvaluator wraps both concrete evaluators and routes each
// Evaluate call by the join node's configured strategy.
type dispatchEvaluator struct {
	enumeration *diamond.Evaluator
	sdp         *sdp.Evaluator
	options     Options
}

func (d *dispatchEvaluator) Evaluate(dmd *model.Diamond, outer *model.BeliefStore) (value.Belief, error) {
	kind := d.options.Evaluator
	if override, ok := d.options.EvaluatorOverride[dmd.JoinNode]; ok {
		kind = override
	}
	if kind == EvaluatorSDP {
		return d.sdp.Evaluate(dmd, outer)
	}
	return d.enumeration.Evaluate(dmd, outer)
}

var _ signal.DiamondEvaluator = (*dispatchEvaluator)(nil)

// UpdateBeliefs runs the full engine (§4.13) over network, returning
// the completed belief map. diamondsAtNode supplies the join-node
// table used by the signal combiner and diamond evaluator; it may be
// nil for networks with no diamonds.
func UpdateBeliefs(network *model.Network, diamondsAtNode map[model.Node]*model.DiamondsAtNode, opts ...Option) (map[model.Node]value.Belief, error) {
	o := resolveOptions(opts)

	evaluator := &dispatchEvaluator{
		sdp:     sdp.NewEvaluator(network),
		options: o,
	}
	evaluator.enumeration = diamond.NewEvaluator(network, diamondsAtNode, driver.Run)

	store := model.NewBeliefStore()
	if err := driver.Run(network, diamondsAtNode, store, evaluator, driver.Options{Parallel: o.Parallel}); err != nil {
		return nil, err
	}
	return store.Snapshot(), nil
}

// UpdateDiamondJoin evaluates a single diamond's contribution to its
// join node using internal/diamond's conditional enumeration, given an
// outer store with the diamond's conditioning nodes already resolved.
// This is exposed for callers that need to evaluate one diamond in
// isolation rather than a whole network.
func UpdateDiamondJoin(network *model.Network, diamondsAtNode map[model.Node]*model.DiamondsAtNode, d *model.Diamond, outer *model.BeliefStore) (value.Belief, error) {
	eval := diamond.NewEvaluator(network, diamondsAtNode, driver.Run)
	return eval.Evaluate(d, outer)
}

// UpdateDiamondJoinSDP is UpdateDiamondJoin's SDP-based counterpart.
func UpdateDiamondJoinSDP(network *model.Network, d *model.Diamond, outer *model.BeliefStore) (value.Belief, error) {
	eval := sdp.NewEvaluator(network)
	return eval.Evaluate(d, outer)
}
