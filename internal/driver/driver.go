// Package driver implements the topological iteration driver (§4.6):
// walk a network's iteration sets in order, applying the per-node
// signal combiner, with the Unresolved -> Resolving -> Resolved state
// machine enforcing that no node is visited twice.
package driver

import (
	"context"
	"fmt"

	"github.com/module/reachability/internal/signal"
	"github.com/module/reachability/pkg/errors"
	"github.com/module/reachability/pkg/model"
	"github.com/module/reachability/pkg/parallel"
	"github.com/module/reachability/pkg/value"
)

// Options configures a single driver run.
type Options struct {
	// Parallel enables farming independent nodes within one iteration
	// set out to a worker pool. The driver always waits synchronously
	// at the layer boundary before writing results into store, per the
	// concurrency model's serialization requirement.
	Parallel bool
}

// Run walks network's iteration sets, computing belief[node] for every
// node not already Resolved in store (a diamond evaluator pre-pins its
// conditioning nodes as Resolved before calling Run on a sub-network,
// so those are skipped here rather than recomputed).
func Run(network *model.Network, diamondsAtNode map[model.Node]*model.DiamondsAtNode, store *model.BeliefStore, evaluator signal.DiamondEvaluator, opts Options) error {
	for _, layer := range network.IterationSets {
		pending := make([]model.Node, 0, len(layer))
		for _, node := range layer {
			switch store.State(node) {
			case model.StateResolved:
				continue
			case model.StateResolving:
				return errors.Topology(fmt.Sprintf("node %s revisited while resolving", node))
			}
			pending = append(pending, node)
		}
		if len(pending) == 0 {
			continue
		}
		for _, node := range pending {
			store.SetState(node, model.StateResolving)
		}

		results := make([]value.Belief, len(pending))
		errs := make([]error, len(pending))
		compute := func(i int) {
			results[i], errs[i] = signal.Combine(pending[i], network, diamondsAtNode[pending[i]], store, evaluator)
		}

		if opts.Parallel && len(pending) > 1 {
			pool := parallel.NewWorkerPool[int, struct{}](parallel.DefaultPoolConfig())
			indices := make([]int, len(pending))
			for i := range indices {
				indices[i] = i
			}
			pool.ExecuteFunc(context.Background(), indices, func(ctx context.Context, i int) (struct{}, error) {
				compute(i)
				return struct{}{}, nil
			})
		} else {
			for i := range pending {
				compute(i)
			}
		}

		for i, node := range pending {
			if errs[i] != nil {
				return errs[i]
			}
			store.Set(node, results[i])
		}
	}
	return nil
}
