package source

// Job describes a pending inference run as handed over by a task source.
// The network itself is not embedded here: NetworkKey points at the
// archived network document in object storage (see internal/storage),
// keyed by NetworkHash so repeated submissions of the same network reuse
// one archive.
type Job struct {
	// RunID is the persisted run's numeric primary key.
	RunID int64

	// RunUUID is the run's external identifier.
	RunUUID string

	// NetworkHash is the canonical content hash of the input network.
	NetworkHash string

	// NetworkKey is the storage key of the archived network document.
	NetworkKey string

	// Evaluator requests "enumeration" or "sdp"; any other value,
	// including empty, selects enumeration.
	Evaluator string

	// Parallel requests the worker-pool evaluation path.
	Parallel bool
}

// TaskEvent represents a unified job event from any source.
type TaskEvent struct {
	// ID is the unique identifier for this event.
	ID string

	// Job is the pending run data.
	Job *Job

	// SourceType indicates which type of source this event came from.
	SourceType SourceType

	// SourceName is the name of the source instance.
	SourceName string

	// Priority indicates the job priority (higher value = higher priority).
	Priority int

	// Metadata holds source-specific metadata.
	Metadata map[string]string

	// AckToken is used for acknowledgment (e.g., HTTP request context).
	AckToken interface{}
}

// NewTaskEvent creates a new TaskEvent from a Job.
func NewTaskEvent(job *Job, sourceType SourceType, sourceName string) *TaskEvent {
	return &TaskEvent{
		ID:         job.RunUUID,
		Job:        job,
		SourceType: sourceType,
		SourceName: sourceName,
		Metadata:   make(map[string]string),
	}
}

// WithMetadata adds metadata to the event and returns the event for chaining.
func (e *TaskEvent) WithMetadata(key, value string) *TaskEvent {
	if e.Metadata == nil {
		e.Metadata = make(map[string]string)
	}
	e.Metadata[key] = value
	return e
}

// WithAckToken sets the ack token and returns the event for chaining.
func (e *TaskEvent) WithAckToken(token interface{}) *TaskEvent {
	e.AckToken = token
	return e
}

// GetMetadata retrieves a metadata value by key.
func (e *TaskEvent) GetMetadata(key string) string {
	if e.Metadata == nil {
		return ""
	}
	return e.Metadata[key]
}
