// Package errors defines the engine's fatal error taxonomy.
package errors

import (
	"errors"
	"fmt"

	"github.com/module/reachability/pkg/model"
)

// Kind identifies which of the engine's four fatal error categories an
// EngineError belongs to. All four are terminal: the engine never
// retries or returns a partial result once one occurs.
type Kind string

const (
	// KindTopology marks a structural defect in the network itself: a
	// cycle detected while computing iteration sets, or any other
	// violation of the DAG precondition.
	KindTopology Kind = "TOPOLOGY_ERROR"

	// KindMissingData marks a node or edge missing its required prior
	// or edge probability.
	KindMissingData Kind = "MISSING_DATA_ERROR"

	// KindValueRange marks a belief value outside the valid range for
	// its uncertainty representation.
	KindValueRange Kind = "VALUE_RANGE_ERROR"

	// KindCacheConsistency marks a diamond cache hit whose recomputed
	// value disagreed with the cached value beyond tolerance. The engine
	// does not recompute cache hits, so no engine run produces this
	// kind; CacheConsistency builds it for callers that do.
	KindCacheConsistency Kind = "CACHE_CONSISTENCY_ERROR"
)

// EngineError is the engine's single structured error type. It carries
// enough identity (which node, which edge) to let a caller report
// exactly where a run failed, plus an optional wrapped cause.
type EngineError struct {
	Kind    Kind
	Message string
	Node    *model.Node
	Edge    *model.Edge
	Err     error
}

// Error implements the error interface.
func (e *EngineError) Error() string {
	loc := ""
	switch {
	case e.Node != nil:
		loc = fmt.Sprintf(" (node %s)", *e.Node)
	case e.Edge != nil:
		loc = fmt.Sprintf(" (edge %s)", *e.Edge)
	}
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s%s: %v", e.Kind, e.Message, loc, e.Err)
	}
	return fmt.Sprintf("[%s] %s%s", e.Kind, e.Message, loc)
}

// Unwrap returns the wrapped cause, if any.
func (e *EngineError) Unwrap() error {
	return e.Err
}

// Is reports whether target is an EngineError of the same Kind.
func (e *EngineError) Is(target error) bool {
	t, ok := target.(*EngineError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// Topology builds a KindTopology error, e.g. for a cycle detected while
// computing iteration sets.
func Topology(message string) *EngineError {
	return &EngineError{Kind: KindTopology, Message: message}
}

// MissingDataForNode builds a KindMissingData error identifying the
// node missing its prior.
func MissingDataForNode(node model.Node, message string) *EngineError {
	return &EngineError{Kind: KindMissingData, Message: message, Node: &node}
}

// MissingDataForEdge builds a KindMissingData error identifying the
// edge missing its transmission probability.
func MissingDataForEdge(edge model.Edge, message string) *EngineError {
	return &EngineError{Kind: KindMissingData, Message: message, Edge: &edge}
}

// ValueRange wraps a value.ErrOutOfRange-style cause for the node it
// occurred at.
func ValueRange(node model.Node, err error) *EngineError {
	return &EngineError{Kind: KindValueRange, Message: "belief out of range", Node: &node, Err: err}
}

// CacheConsistency builds a KindCacheConsistency error for a diamond
// join node whose cached and recomputed values disagreed.
func CacheConsistency(node model.Node, message string) *EngineError {
	return &EngineError{Kind: KindCacheConsistency, Message: message, Node: &node}
}

// IsKind reports whether err is an EngineError of the given Kind.
func IsKind(err error, k Kind) bool {
	return errors.Is(err, &EngineError{Kind: k})
}
