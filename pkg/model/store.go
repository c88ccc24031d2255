package model

import "github.com/module/reachability/pkg/value"

// BeliefStore is the mutable Node -> Belief mapping the iteration
// driver fills in iteration order, paired with the per-node state
// machine (Unresolved -> Resolving -> Resolved) used to detect cycles
// and illegal re-visits. A fresh overlay store is created per diamond
// evaluation (§4.4); the top-level run uses one store for its whole
// lifetime.
type BeliefStore struct {
	beliefs map[Node]value.Belief
	states  map[Node]NodeState
}

// NewBeliefStore returns an empty store with every node implicitly
// Unresolved.
func NewBeliefStore() *BeliefStore {
	return &BeliefStore{
		beliefs: make(map[Node]value.Belief),
		states:  make(map[Node]NodeState),
	}
}

// Get returns the belief for node and whether it has been set.
func (s *BeliefStore) Get(node Node) (value.Belief, bool) {
	b, ok := s.beliefs[node]
	return b, ok
}

// Set records node's belief and marks it Resolved.
func (s *BeliefStore) Set(node Node, b value.Belief) {
	s.beliefs[node] = b
	s.states[node] = StateResolved
}

// Pin sets node's belief directly to b and marks it Resolved without
// going through the normal prior x preprior combination — used by the
// diamond evaluator to fix a conditioning node to "active" (One) or
// "inactive" (Zero) inside an overlay store.
func (s *BeliefStore) Pin(node Node, b value.Belief) {
	s.Set(node, b)
}

// State returns node's current position in the iteration state
// machine.
func (s *BeliefStore) State(node Node) NodeState {
	if st, ok := s.states[node]; ok {
		return st
	}
	return StateUnresolved
}

// SetState updates node's state without changing its belief. Used by
// the driver to mark a node Resolving before computing its signal.
func (s *BeliefStore) SetState(node Node, st NodeState) {
	s.states[node] = st
}

// Snapshot returns a copy of the full belief map, e.g. for returning a
// completed run's result to the caller.
func (s *BeliefStore) Snapshot() map[Node]value.Belief {
	out := make(map[Node]value.Belief, len(s.beliefs))
	for n, b := range s.beliefs {
		out[n] = b
	}
	return out
}
