// Package topology builds a model.Network from a raw edgelist, priors,
// and edge probabilities, computing the topological layering the
// iteration driver walks.
package topology

import (
	"github.com/module/reachability/pkg/errors"
	"github.com/module/reachability/pkg/model"
	"github.com/module/reachability/pkg/value"
)

// BuildInput is the raw material for a Network: everything the caller
// has on hand before topological structure is derived.
type BuildInput struct {
	Kind              value.Kind
	Edges             []model.Edge
	NodePriors        map[model.Node]value.Belief
	EdgeProbabilities map[model.Edge]value.Belief
}

// Build constructs a model.Network from in, computing adjacency,
// source nodes, and the topological iteration sets. It returns a
// TopologyError if the edgelist contains a cycle, or a MissingDataError
// if any node lacks a prior or any edge lacks a transmission
// probability.
func Build(in BuildInput) (*model.Network, error) {
	n := model.NewNetwork(in.Kind)
	for _, e := range in.Edges {
		n.AddEdge(e)
	}
	for node, b := range in.NodePriors {
		n.SetPrior(node, b)
	}
	for e, b := range in.EdgeProbabilities {
		n.SetEdgeProbability(e, b)
	}

	if err := validateData(n); err != nil {
		return nil, err
	}

	iterationSets, err := computeIterationSets(n)
	if err != nil {
		return nil, err
	}
	n.IterationSets = iterationSets
	n.SourceNodes = append([]model.Node(nil), iterationSets[0]...)

	return n, nil
}

// validateData checks that every node referenced by an edge has a
// prior and every edge has a transmission probability.
func validateData(n *model.Network) error {
	for _, node := range n.Nodes() {
		if _, ok := n.NodePriors[node]; !ok {
			return errors.MissingDataForNode(node, "node has no prior")
		}
	}
	for _, e := range n.Edges {
		if _, ok := n.EdgeProbabilities[e]; !ok {
			return errors.MissingDataForEdge(e, "edge has no transmission probability")
		}
	}
	return nil
}

// computeIterationSets runs Kahn's algorithm: repeatedly peel off nodes
// whose unresolved in-degree is zero. A non-empty remainder once no
// more nodes can be peeled indicates a cycle.
func computeIterationSets(n *model.Network) ([][]model.Node, error) {
	nodes := n.Nodes()
	inDegree := make(map[model.Node]int, len(nodes))
	for _, node := range nodes {
		inDegree[node] = len(n.Incoming[node])
	}

	remaining := len(nodes)
	var sets [][]model.Node

	for remaining > 0 {
		var layer []model.Node
		for _, node := range nodes {
			if inDegree[node] == 0 {
				layer = append(layer, node)
			}
		}
		if len(layer) == 0 {
			return nil, errors.Topology("cycle detected: unresolved nodes remain with nonzero in-degree")
		}
		// Mark peeled nodes so they are not re-selected, and so their
		// in-degree contribution no longer counts against children.
		for _, node := range layer {
			inDegree[node] = -1
		}
		for _, node := range layer {
			for _, child := range n.Outgoing[node] {
				if inDegree[child] > 0 {
					inDegree[child]--
				}
			}
		}
		sets = append(sets, layer)
		remaining -= len(layer)
	}

	if len(sets) == 0 {
		sets = [][]model.Node{{}}
	}
	return sets, nil
}
