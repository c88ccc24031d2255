package model

import (
	"fmt"
	"sort"

	"github.com/module/reachability/pkg/value"
)

// Network is the input graph for a belief run: a DAG with per-node
// priors and per-edge transmission probabilities, plus the adjacency
// and topological-layering structures the driver walks.
//
// A Network is built once by internal/topology from a raw edgelist and
// is treated as immutable for the remainder of a run.
type Network struct {
	Kind value.Kind

	// Edges is the full edgelist, in the order supplied to the builder.
	Edges []Edge

	// Outgoing/Incoming are adjacency maps: Outgoing[n] is the set of
	// nodes n has an edge to, Incoming[n] the set of nodes with an edge
	// into n.
	Outgoing map[Node][]Node
	Incoming map[Node][]Node

	// SourceNodes are nodes with no incoming edges: their belief is
	// their prior, unmodified by any signal combination.
	SourceNodes []Node

	// NodePriors maps every node to its prior belief Prior(N).
	NodePriors map[Node]value.Belief

	// EdgeProbabilities maps every edge to its transmission probability.
	EdgeProbabilities map[Edge]value.Belief

	// IterationSets is the topological layering: IterationSets[0] is
	// SourceNodes (in some canonical order), IterationSets[k] contains
	// only nodes all of whose parents lie in IterationSets[<k].
	IterationSets [][]Node
}

// NewNetwork builds an empty Network of the given uncertainty kind. It
// is intended to be populated via AddEdge/SetPrior/SetEdgeProbability by
// internal/topology, which also computes IterationSets and SourceNodes
// once the caller is done adding edges.
func NewNetwork(kind value.Kind) *Network {
	return &Network{
		Kind:              kind,
		Edges:             make([]Edge, 0),
		Outgoing:          make(map[Node][]Node),
		Incoming:          make(map[Node][]Node),
		NodePriors:        make(map[Node]value.Belief),
		EdgeProbabilities: make(map[Edge]value.Belief),
	}
}

// AddEdge records a directed edge and updates the adjacency maps. It is
// a no-op on the edge probability; callers must also call
// SetEdgeProbability.
func (n *Network) AddEdge(e Edge) {
	if _, ok := n.EdgeProbabilities[e]; !ok {
		n.Edges = append(n.Edges, e)
	}
	if !containsNode(n.Outgoing[e.Src], e.Dst) {
		n.Outgoing[e.Src] = append(n.Outgoing[e.Src], e.Dst)
	}
	if !containsNode(n.Incoming[e.Dst], e.Src) {
		n.Incoming[e.Dst] = append(n.Incoming[e.Dst], e.Src)
	}
}

// SetPrior sets the prior belief for a node.
func (n *Network) SetPrior(node Node, b value.Belief) {
	n.NodePriors[node] = b
}

// SetEdgeProbability sets the transmission probability for an edge.
func (n *Network) SetEdgeProbability(e Edge, b value.Belief) {
	n.EdgeProbabilities[e] = b
}

// Parents returns the direct parents of node, in a canonical (sorted)
// order so that downstream enumeration is deterministic.
func (n *Network) Parents(node Node) []Node {
	return sortedCopy(n.Incoming[node])
}

// Children returns the direct children of node, in canonical order.
func (n *Network) Children(node Node) []Node {
	return sortedCopy(n.Outgoing[node])
}

// Nodes returns every node referenced by an edge or a prior, in
// canonical order. It is used by internal/topology to discover nodes
// that only appear as edge endpoints.
func (n *Network) Nodes() []Node {
	seen := make(map[Node]struct{})
	for _, e := range n.Edges {
		seen[e.Src] = struct{}{}
		seen[e.Dst] = struct{}{}
	}
	for node := range n.NodePriors {
		seen[node] = struct{}{}
	}
	out := make([]Node, 0, len(seen))
	for node := range seen {
		out = append(out, node)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Prior returns the prior for node, or an error if none was supplied.
func (n *Network) Prior(node Node) (value.Belief, error) {
	b, ok := n.NodePriors[node]
	if !ok {
		return nil, fmt.Errorf("model: no prior for node %s", node)
	}
	return b, nil
}

// EdgeProbability returns the transmission probability for e, or an
// error if none was supplied.
func (n *Network) EdgeProbability(e Edge) (value.Belief, error) {
	b, ok := n.EdgeProbabilities[e]
	if !ok {
		return nil, fmt.Errorf("model: no edge probability for %s", e)
	}
	return b, nil
}

func containsNode(s []Node, n Node) bool {
	for _, v := range s {
		if v == n {
			return true
		}
	}
	return false
}

func sortedCopy(s []Node) []Node {
	out := make([]Node, len(s))
	copy(out, s)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
