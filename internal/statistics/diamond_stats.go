package statistics

import (
	"sort"

	"github.com/module/reachability/pkg/model"
)

// DiamondStatsCalculator ranks diamonds by decomposition complexity —
// conditioning-set size, since that is what drives the 2^n cost of
// internal/diamond's enumeration.
type DiamondStatsCalculator struct {
	maxDiamonds int
}

// DiamondStatsOption configures the DiamondStatsCalculator.
type DiamondStatsOption func(*DiamondStatsCalculator)

// WithMaxDiamonds sets the maximum number of diamonds to return.
func WithMaxDiamonds(n int) DiamondStatsOption {
	return func(c *DiamondStatsCalculator) {
		c.maxDiamonds = n
	}
}

// NewDiamondStatsCalculator creates a new DiamondStatsCalculator.
func NewDiamondStatsCalculator(opts ...DiamondStatsOption) *DiamondStatsCalculator {
	c := &DiamondStatsCalculator{maxDiamonds: 0}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DiamondEntry summarizes one diamond's decomposition complexity.
type DiamondEntry struct {
	JoinNode          model.Node
	ConditioningNodes int
	EdgeCount         int
	EnumerationStates int // 2^ConditioningNodes, the enumeration evaluator's state count
}

// DiamondStatsResult holds the calculation result.
type DiamondStatsResult struct {
	Diamonds   []DiamondEntry
	TotalEdges int
}

// Calculate ranks diamonds by conditioning-set size descending.
func (c *DiamondStatsCalculator) Calculate(diamondsAtNode map[model.Node]*model.DiamondsAtNode) *DiamondStatsResult {
	result := &DiamondStatsResult{Diamonds: make([]DiamondEntry, 0)}

	for _, dan := range diamondsAtNode {
		for _, d := range dan.Diamonds {
			result.TotalEdges += len(d.Edgelist)
			result.Diamonds = append(result.Diamonds, DiamondEntry{
				JoinNode:          d.JoinNode,
				ConditioningNodes: len(d.HighestNodes),
				EdgeCount:         len(d.Edgelist),
				EnumerationStates: 1 << len(d.HighestNodes),
			})
		}
	}

	sort.Slice(result.Diamonds, func(i, j int) bool {
		if result.Diamonds[i].ConditioningNodes != result.Diamonds[j].ConditioningNodes {
			return result.Diamonds[i].ConditioningNodes > result.Diamonds[j].ConditioningNodes
		}
		return result.Diamonds[i].JoinNode < result.Diamonds[j].JoinNode
	})

	if c.maxDiamonds > 0 && len(result.Diamonds) > c.maxDiamonds {
		result.Diamonds = result.Diamonds[:c.maxDiamonds]
	}

	return result
}

// GetByJoinNode returns the entry for a specific join node, if present.
func (r *DiamondStatsResult) GetByJoinNode(n model.Node) *DiamondEntry {
	for i := range r.Diamonds {
		if r.Diamonds[i].JoinNode == n {
			return &r.Diamonds[i]
		}
	}
	return nil
}
