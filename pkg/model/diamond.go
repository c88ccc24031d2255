package model

// Diamond is a correlated parent cluster at a join node: a set of
// nodes that share ancestry such that naive inclusion-exclusion over
// their direct signals would double-count the shared mass. Resolving
// a diamond requires conditioning on the joint state of its
// highest_nodes (see internal/diamond).
type Diamond struct {
	// JoinNode is the node whose parent signals this diamond groups.
	JoinNode Node

	// RelevantNodes are every node participating in the diamond,
	// including HighestNodes and JoinNode.
	RelevantNodes []Node

	// HighestNodes (conditioning nodes) are the minimal set of ancestor
	// nodes whose joint active/inactive state d-separates the diamond's
	// internal structure from the rest of the network: conditioning on
	// their state reduces the diamond to independent paths.
	HighestNodes []Node

	// Edgelist is the edge set of the diamond subgraph, used both to
	// evaluate it and as part of the cache key (see internal/diamond.Cache).
	Edgelist []Edge
}

// DiamondsAtNode groups every diamond whose join node is Node, plus the
// parents of Node that are not part of any diamond (and so contribute
// a plain independent signal).
type DiamondsAtNode struct {
	Node              Node
	Diamonds          []*Diamond
	NonDiamondParents []Node
}
