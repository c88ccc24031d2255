// Package repository provides database abstraction for the reachability
// engine service: persisted inference runs, their belief results, and
// the advisory suggestions generated for them.
package repository

import (
	"context"
	"time"
)

// RunStatus tracks an inference run's lifecycle.
type RunStatus int

const (
	// RunStatusPending is a queued run not yet picked up by a worker.
	RunStatusPending RunStatus = iota
	// RunStatusRunning is a run currently being computed.
	RunStatusRunning
	// RunStatusCompleted is a run whose belief map has been written.
	RunStatusCompleted
	// RunStatusFailed is a run that terminated with a fatal engine error.
	RunStatusFailed
)

// Run represents one inference job over a network.
type Run struct {
	ID          int64
	RunUUID     string
	NetworkHash string // canonical hash of the input network, used for cache lookups
	Evaluator   string // "enumeration" or "sdp"
	Status      RunStatus
	StatusInfo  string
	ResultFile  string // storage key for the archived network snapshot, if any
	CreateTime  time.Time
	BeginTime   *time.Time
	EndTime     *time.Time
}

// BeliefResult holds a completed run's resolved belief map, serialized.
type BeliefResult struct {
	RunUUID   string
	Beliefs   []byte // JSON-encoded map[model.Node]value.Belief, via pkg/value's codec
	Version   string
}

// Suggestion is a persisted advisor.Suggestion.
type Suggestion struct {
	ID         int64
	RunUUID    string
	Type       string
	Severity   string
	Suggestion string
	JoinNode   uint64
	CreatedAt  time.Time
}

// RunRepository defines the interface for run lifecycle operations.
type RunRepository interface {
	// GetPendingRuns retrieves runs queued for processing.
	GetPendingRuns(ctx context.Context, limit int) ([]*Run, error)

	// GetRunByID retrieves a run by its numeric ID.
	GetRunByID(ctx context.Context, id int64) (*Run, error)

	// GetRunByUUID retrieves a run by its UUID.
	GetRunByUUID(ctx context.Context, uuid string) (*Run, error)

	// GetRunByNetworkHash retrieves the most recent run for a network's
	// content hash, supporting whole-run memoization across restarts.
	GetRunByNetworkHash(ctx context.Context, hash string) (*Run, error)

	// UpdateStatus updates a run's status.
	UpdateStatus(ctx context.Context, id int64, status RunStatus) error

	// UpdateStatusWithInfo updates a run's status with additional detail.
	UpdateStatusWithInfo(ctx context.Context, id int64, status RunStatus, info string) error

	// LockRunForProcessing attempts to claim a pending run for a worker,
	// preventing two workers from computing the same run concurrently.
	LockRunForProcessing(ctx context.Context, id int64) (bool, error)
}

// ResultRepository defines the interface for belief-result persistence.
type ResultRepository interface {
	// SaveResult saves a run's belief result.
	SaveResult(ctx context.Context, result *BeliefResult) error

	// GetResultByRunUUID retrieves the belief result for a run.
	GetResultByRunUUID(ctx context.Context, runUUID string) (*BeliefResult, error)

	// UpdateResult updates an existing belief result.
	UpdateResult(ctx context.Context, result *BeliefResult) error
}

// SuggestionRepository defines the interface for advisor-output persistence.
type SuggestionRepository interface {
	// SaveSuggestions saves multiple suggestions for a run.
	SaveSuggestions(ctx context.Context, suggestions []Suggestion) error

	// GetSuggestionsByRunUUID retrieves suggestions for a run.
	GetSuggestionsByRunUUID(ctx context.Context, runUUID string) ([]Suggestion, error)
}
