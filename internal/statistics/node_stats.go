// Package statistics summarizes a completed belief map and its diamond
// decomposition for reporting and advisory purposes.
package statistics

import (
	"sort"

	"github.com/module/reachability/pkg/model"
	"github.com/module/reachability/pkg/value"
)

// NodeStatsCalculator ranks resolved nodes by belief magnitude.
type NodeStatsCalculator struct {
	topN int
}

// NodeStatsOption configures the NodeStatsCalculator.
type NodeStatsOption func(*NodeStatsCalculator)

// WithTopN sets the number of top nodes to return.
func WithTopN(n int) NodeStatsOption {
	return func(c *NodeStatsCalculator) {
		c.topN = n
	}
}

// NewNodeStatsCalculator creates a new NodeStatsCalculator.
func NewNodeStatsCalculator(opts ...NodeStatsOption) *NodeStatsCalculator {
	c := &NodeStatsCalculator{topN: 15}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NodeEntry represents one node's resolved belief, ranked by magnitude.
type NodeEntry struct {
	Node      model.Node
	Belief    value.Belief
	Magnitude float64
}

// NodeStatsResult holds the calculation result.
type NodeStatsResult struct {
	TopNodes   []NodeEntry
	TotalNodes int
	MeanBelief float64
}

// Calculate ranks the resolved belief map by magnitude descending.
func (c *NodeStatsCalculator) Calculate(beliefs map[model.Node]value.Belief) *NodeStatsResult {
	result := &NodeStatsResult{TopNodes: make([]NodeEntry, 0)}

	if len(beliefs) == 0 {
		return result
	}

	entries := make([]NodeEntry, 0, len(beliefs))
	var sum float64
	for n, b := range beliefs {
		mag := magnitude(b)
		sum += mag
		entries = append(entries, NodeEntry{Node: n, Belief: b, Magnitude: mag})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Magnitude != entries[j].Magnitude {
			return entries[i].Magnitude > entries[j].Magnitude
		}
		return entries[i].Node < entries[j].Node
	})

	result.TotalNodes = len(entries)
	result.MeanBelief = sum / float64(len(entries))

	topN := c.topN
	if topN > len(entries) {
		topN = len(entries)
	}
	result.TopNodes = entries[:topN]

	return result
}

// GetNode returns the entry for a specific node, if it was in the ranked set.
func (r *NodeStatsResult) GetNode(n model.Node) *NodeEntry {
	for i := range r.TopNodes {
		if r.TopNodes[i].Node == n {
			return &r.TopNodes[i]
		}
	}
	return nil
}

// magnitude reduces a Belief to a single float64 for ranking purposes: the
// probability itself for a scalar, the midpoint for an interval, and the
// midpoint of the envelope for a p-box. It is a display/ranking heuristic
// only — no algorithm upstream of this package compares beliefs this way.
func magnitude(b value.Belief) float64 {
	switch v := b.(type) {
	case value.Scalar:
		return v.Float64()
	case value.Interval:
		return v.Midpoint()
	case value.PBox:
		lo, hi := v.Envelope()
		return (lo + hi) / 2
	default:
		return 0
	}
}
