// Package advisor generates tuning suggestions for a reachability run —
// which diamonds would benefit from the SDP evaluator instead of
// enumeration, and where cross-diamond parallelism has the most to gain.
package advisor

import (
	"fmt"

	"github.com/module/reachability/internal/statistics"
	"github.com/module/reachability/pkg/model"
)

// Advisor generates tuning suggestions from a completed run's statistics.
type Advisor struct {
	rules []Rule
}

// Rule represents a suggestion rule.
type Rule struct {
	Type        string
	Name        string
	Description string
	Threshold   float64
	Check       RuleCheckFunc
}

// RuleCheckFunc is a function that checks if a rule applies.
type RuleCheckFunc func(ctx *RuleContext) []Suggestion

// RuleContext provides context for rule checking.
type RuleContext struct {
	Network          *model.Network
	DiamondsAtNode   map[model.Node]*model.DiamondsAtNode
	DiamondStats     *statistics.DiamondStatsResult
	NodeStats        *statistics.NodeStatsResult
	EnumerationLimit int // above this many conditioning nodes, recommend SDP
}

// Suggestion is one piece of advice about a run's tuning.
type Suggestion struct {
	Type       string
	Severity   string // "info" or "warning"
	Suggestion string
	JoinNode   model.Node // zero value if the suggestion isn't node-specific
}

// NewAdvisor creates a new Advisor with default rules.
func NewAdvisor() *Advisor {
	return &Advisor{rules: defaultRules()}
}

// NewAdvisorWithRules creates a new Advisor with custom rules.
func NewAdvisorWithRules(rules []Rule) *Advisor {
	return &Advisor{rules: rules}
}

// Advise generates suggestions based on the run context.
func (a *Advisor) Advise(ctx *RuleContext) []Suggestion {
	suggestions := make([]Suggestion, 0)

	for _, rule := range a.rules {
		if rule.Check != nil {
			suggestions = append(suggestions, rule.Check(ctx)...)
		}
	}

	return suggestions
}

// defaultRules returns the default set of tuning rules.
func defaultRules() []Rule {
	return []Rule{
		{
			Type:        "evaluator",
			Name:        "prefer_sdp_for_large_conditioning_set",
			Description: "Recommend SDP over enumeration for diamonds with a large conditioning set",
			Check:       checkPreferSDP,
		},
		{
			Type:        "parallel",
			Name:        "parallel_opportunity",
			Description: "Flag runs with many independent diamonds that would benefit from WithParallel",
			Threshold:   3,
			Check:       checkParallelOpportunity,
		},
		{
			Type:        "confidence",
			Name:        "high_uncertainty_node",
			Description: "Flag resolved nodes whose belief is close to the least-informative midpoint",
			Threshold:   0.1,
			Check:       checkHighUncertaintyNodes,
		},
		{
			Type:        "nesting",
			Name:        "deep_diamond_nesting",
			Description: "Flag diamonds whose edgelist is unusually large relative to their conditioning set",
			Check:       checkDeepNesting,
		},
	}
}

// checkPreferSDP recommends the SDP evaluator for any diamond whose
// conditioning set exceeds ctx.EnumerationLimit, since enumeration's cost
// is 2^|highest_nodes|.
func checkPreferSDP(ctx *RuleContext) []Suggestion {
	suggestions := make([]Suggestion, 0)
	if ctx.DiamondStats == nil || ctx.EnumerationLimit <= 0 {
		return suggestions
	}

	for _, d := range ctx.DiamondStats.Diamonds {
		if d.ConditioningNodes > ctx.EnumerationLimit {
			suggestions = append(suggestions, Suggestion{
				Type:     "prefer_sdp",
				Severity: "warning",
				Suggestion: fmt.Sprintf(
					"diamond at join node %s has %d conditioning nodes (%d enumeration states); use WithEvaluatorOverride(%s, EvaluatorSDP)",
					d.JoinNode, d.ConditioningNodes, d.EnumerationStates, d.JoinNode),
				JoinNode: d.JoinNode,
			})
		}
	}

	return suggestions
}

// checkParallelOpportunity flags runs with enough independent diamonds
// that WithParallel is likely to pay for its worker-pool overhead.
func checkParallelOpportunity(ctx *RuleContext) []Suggestion {
	suggestions := make([]Suggestion, 0)
	if ctx.DiamondStats == nil {
		return suggestions
	}

	if float64(len(ctx.DiamondStats.Diamonds)) >= 3 {
		suggestions = append(suggestions, Suggestion{
			Type:       "parallel_opportunity",
			Severity:   "info",
			Suggestion: fmt.Sprintf("%d diamonds in this network; consider engine.WithParallel() for cross-diamond layer parallelism", len(ctx.DiamondStats.Diamonds)),
		})
	}

	return suggestions
}

// checkHighUncertaintyNodes flags nodes whose belief magnitude sits close
// to 0.5 — the point of maximum uncertainty for a scalar probability.
func checkHighUncertaintyNodes(ctx *RuleContext) []Suggestion {
	suggestions := make([]Suggestion, 0)
	if ctx.NodeStats == nil {
		return suggestions
	}

	for _, entry := range ctx.NodeStats.TopNodes {
		distance := entry.Magnitude - 0.5
		if distance < 0 {
			distance = -distance
		}
		if distance < 0.1 {
			suggestions = append(suggestions, Suggestion{
				Type:       "high_uncertainty",
				Severity:   "info",
				Suggestion: fmt.Sprintf("node %s resolved to belief %.3f, close to maximum uncertainty", entry.Node, entry.Magnitude),
				JoinNode:   entry.Node,
			})
		}
	}

	return suggestions
}

// checkDeepNesting flags diamonds whose edgelist is much larger than its
// conditioning set would suggest, a proxy for deep nested-diamond
// recursion inside the sub-network evaluator walks.
func checkDeepNesting(ctx *RuleContext) []Suggestion {
	suggestions := make([]Suggestion, 0)
	if ctx.DiamondStats == nil {
		return suggestions
	}

	for _, d := range ctx.DiamondStats.Diamonds {
		if d.ConditioningNodes > 0 && d.EdgeCount > d.ConditioningNodes*4 {
			suggestions = append(suggestions, Suggestion{
				Type:       "deep_nesting",
				Severity:   "info",
				Suggestion: fmt.Sprintf("diamond at join node %s has %d edges for %d conditioning nodes; likely contains nested diamonds", d.JoinNode, d.EdgeCount, d.ConditioningNodes),
				JoinNode:   d.JoinNode,
			})
		}
	}

	return suggestions
}
