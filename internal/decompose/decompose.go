// Package decompose provides a reference diamond decomposer: given a
// built network, it finds join nodes whose parents share ancestry and
// groups that shared ancestry into model.Diamond records.
//
// This is explicitly not the production decomposition algorithm a real
// deployment would plug in — it is a small, general-enough
// implementation for hand-built test networks and the infer CLI's
// --network documents that omit a pre-supplied decomposition. A
// production system would typically precompute and cache this offline
// against a much larger, evolving graph.
package decompose

import (
	"github.com/module/reachability/pkg/collections"
	"github.com/module/reachability/pkg/model"
)

// Decompose finds, for every node with two or more parents, the
// diamond(s) formed by shared ancestry among those parents. Nodes with
// fewer than two parents, or whose parents share no common ancestor,
// are omitted from the result; signal.Combine treats an absent entry
// (or one with no diamonds) as plain independent parent signals.
func Decompose(network *model.Network) map[model.Node]*model.DiamondsAtNode {
	ancestors := ancestorSets(network)
	descendants := descendantSets(network)

	result := make(map[model.Node]*model.DiamondsAtNode)

	for node, parents := range network.Incoming {
		if len(parents) < 2 {
			continue
		}

		groups := groupByCommonAncestry(parents, ancestors)

		dan := &model.DiamondsAtNode{Node: node}
		grouped := make(map[model.Node]bool)

		for _, group := range groups {
			if len(group.highest) == 0 {
				continue
			}

			relevant := relevantNodes(group.highest, node, ancestors, descendants)
			relevant[node] = struct{}{}

			dan.Diamonds = append(dan.Diamonds, &model.Diamond{
				JoinNode:      node,
				RelevantNodes: nodeSlice(relevant),
				HighestNodes:  nodeSlice(group.highest),
				Edgelist:      edgesWithin(network, relevant),
			})

			for _, p := range group.members {
				grouped[p] = true
			}
		}

		for _, p := range parents {
			if !grouped[p] {
				dan.NonDiamondParents = append(dan.NonDiamondParents, p)
			}
		}

		if len(dan.Diamonds) > 0 {
			result[node] = dan
		}
	}

	return result
}

// ancestorGroup is one cluster of parents that share common ancestry,
// plus the maximal (closest-to-join) common ancestors among them.
type ancestorGroup struct {
	members []model.Node
	highest map[model.Node]struct{}
}

// groupByCommonAncestry partitions parents into clusters that share at
// least one common ancestor, transitively: if parent A shares ancestry
// with B, and B with C, all three land in the same group.
func groupByCommonAncestry(parents []model.Node, ancestors map[model.Node]map[model.Node]struct{}) []ancestorGroup {
	n := len(parents)
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}
	union := func(a, b int) {
		ra, rb := find(a), find(b)
		if ra != rb {
			parent[ra] = rb
		}
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if commonAncestors(ancestors[parents[i]], ancestors[parents[j]]) {
				union(i, j)
			}
		}
	}

	byRoot := make(map[int][]model.Node)
	for i, p := range parents {
		r := find(i)
		byRoot[r] = append(byRoot[r], p)
	}

	var groups []ancestorGroup
	for _, members := range byRoot {
		if len(members) < 2 {
			continue
		}
		common := ancestors[members[0]]
		for _, m := range members[1:] {
			common = intersect(common, ancestors[m])
		}
		groups = append(groups, ancestorGroup{
			members: members,
			highest: maximalElements(common, ancestors),
		})
	}

	return groups
}

func commonAncestors(a, b map[model.Node]struct{}) bool {
	for n := range a {
		if _, ok := b[n]; ok {
			return true
		}
	}
	return false
}

func intersect(a, b map[model.Node]struct{}) map[model.Node]struct{} {
	out := make(map[model.Node]struct{})
	for n := range a {
		if _, ok := b[n]; ok {
			out[n] = struct{}{}
		}
	}
	return out
}

// maximalElements returns the nodes in common that are not themselves
// ancestors of another node also in common: the common ancestors
// closest to the join, which is where conditioning must happen.
func maximalElements(common map[model.Node]struct{}, ancestors map[model.Node]map[model.Node]struct{}) map[model.Node]struct{} {
	out := make(map[model.Node]struct{})
	for n := range common {
		dominated := false
		for m := range common {
			if m == n {
				continue
			}
			if _, ok := ancestors[m][n]; ok {
				dominated = true
				break
			}
		}
		if !dominated {
			out[n] = struct{}{}
		}
	}
	return out
}

// relevantNodes is every node on some path from a highest node to the
// join: the intersection of each highest node's descendants with the
// join's ancestors, unioned across all highest nodes.
func relevantNodes(highest map[model.Node]struct{}, join model.Node, ancestors, descendants map[model.Node]map[model.Node]struct{}) map[model.Node]struct{} {
	joinAncestry := ancestors[join]
	relevant := make(map[model.Node]struct{})
	for h := range highest {
		relevant[h] = struct{}{}
		for d := range descendants[h] {
			if _, ok := joinAncestry[d]; ok {
				relevant[d] = struct{}{}
			}
		}
	}
	return relevant
}

func edgesWithin(network *model.Network, nodes map[model.Node]struct{}) []model.Edge {
	var edges []model.Edge
	for _, e := range network.Edges {
		_, srcOK := nodes[e.Src]
		_, dstOK := nodes[e.Dst]
		if srcOK && dstOK {
			edges = append(edges, e)
		}
	}
	return edges
}

func nodeSlice(nodes map[model.Node]struct{}) []model.Node {
	out := make([]model.Node, 0, len(nodes))
	for n := range nodes {
		out = append(out, n)
	}
	return out
}

// allNodes returns every node appearing as either an edge source or
// destination.
func allNodes(network *model.Network) []model.Node {
	seen := make(map[model.Node]struct{})
	for n := range network.Outgoing {
		seen[n] = struct{}{}
	}
	for n := range network.Incoming {
		seen[n] = struct{}{}
	}
	out := make([]model.Node, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	return out
}

// ancestorSets computes, for every node, the set of nodes with a path
// to it (excluding itself) via a backward BFS over Incoming, one queue
// walk per node.
func ancestorSets(network *model.Network) map[model.Node]map[model.Node]struct{} {
	result := make(map[model.Node]map[model.Node]struct{})
	for _, n := range allNodes(network) {
		result[n] = bfsWalk(n, network.Incoming)
	}
	return result
}

// descendantSets computes, for every node, the set of nodes reachable
// from it (excluding itself) via a forward BFS over Outgoing, one queue
// walk per node.
func descendantSets(network *model.Network) map[model.Node]map[model.Node]struct{} {
	result := make(map[model.Node]map[model.Node]struct{})
	for _, n := range allNodes(network) {
		result[n] = bfsWalk(n, network.Outgoing)
	}
	return result
}

// bfsWalk explores neighbors(n) transitively via a FIFO worklist,
// returning every node reached (excluding start itself).
func bfsWalk(start model.Node, neighbors map[model.Node][]model.Node) map[model.Node]struct{} {
	reached := make(map[model.Node]struct{})
	queue := collections.NewQueue[model.Node](len(neighbors))
	queue.Enqueue(start)
	visited := map[model.Node]bool{start: true}

	for !queue.IsEmpty() {
		n, _ := queue.Dequeue()
		for _, next := range neighbors[n] {
			if visited[next] {
				continue
			}
			visited[next] = true
			reached[next] = struct{}{}
			queue.Enqueue(next)
		}
	}
	return reached
}
