package repository

import (
	"database/sql/driver"
	"errors"
	"time"
)

// RunRecord represents the inference_run table.
type RunRecord struct {
	ID          int64      `gorm:"column:id;primaryKey;autoIncrement"`
	RunUUID     string     `gorm:"column:run_uuid;type:varchar(64);uniqueIndex"`
	NetworkHash string     `gorm:"column:network_hash;type:varchar(64);index"`
	Evaluator   string     `gorm:"column:evaluator;type:varchar(32)"`
	Status      RunStatus  `gorm:"column:status"`
	StatusInfo  string     `gorm:"column:status_info;type:text"`
	ResultFile  string     `gorm:"column:result_file;type:varchar(512)"`
	CreateTime  time.Time  `gorm:"column:create_time;autoCreateTime"`
	BeginTime   *time.Time `gorm:"column:begin_time"`
	EndTime     *time.Time `gorm:"column:end_time"`
}

// TableName returns the table name for RunRecord.
func (RunRecord) TableName() string {
	return "inference_run"
}

// ToModel converts RunRecord to Run.
func (r *RunRecord) ToModel() *Run {
	return &Run{
		ID:          r.ID,
		RunUUID:     r.RunUUID,
		NetworkHash: r.NetworkHash,
		Evaluator:   r.Evaluator,
		Status:      r.Status,
		StatusInfo:  r.StatusInfo,
		ResultFile:  r.ResultFile,
		CreateTime:  r.CreateTime,
		BeginTime:   r.BeginTime,
		EndTime:     r.EndTime,
	}
}

// BeliefResultRecord represents the belief_results table.
type BeliefResultRecord struct {
	ID      int64     `gorm:"column:id;primaryKey;autoIncrement"`
	RunUUID string    `gorm:"column:run_uuid;type:varchar(64);uniqueIndex"`
	Beliefs JSONField `gorm:"column:beliefs;type:json"`
	Version string    `gorm:"column:version;type:varchar(32)"`
}

// TableName returns the table name for BeliefResultRecord.
func (BeliefResultRecord) TableName() string {
	return "belief_results"
}

// ToModel converts BeliefResultRecord to BeliefResult.
func (r *BeliefResultRecord) ToModel() *BeliefResult {
	return &BeliefResult{
		RunUUID: r.RunUUID,
		Beliefs: []byte(r.Beliefs),
		Version: r.Version,
	}
}

// SuggestionRecord represents the run_suggestions table.
type SuggestionRecord struct {
	ID         int64     `gorm:"column:id;primaryKey;autoIncrement"`
	RunUUID    string    `gorm:"column:run_uuid;type:varchar(64);index"`
	Type       string    `gorm:"column:type;type:varchar(64)"`
	Severity   string    `gorm:"column:severity;type:varchar(16)"`
	Suggestion string    `gorm:"column:suggestion;type:text"`
	JoinNode   uint64    `gorm:"column:join_node"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName returns the table name for SuggestionRecord.
func (SuggestionRecord) TableName() string {
	return "run_suggestions"
}

// ToModel converts SuggestionRecord to Suggestion.
func (s *SuggestionRecord) ToModel() Suggestion {
	return Suggestion{
		ID:         s.ID,
		RunUUID:    s.RunUUID,
		Type:       s.Type,
		Severity:   s.Severity,
		Suggestion: s.Suggestion,
		JoinNode:   s.JoinNode,
		CreatedAt:  s.CreatedAt,
	}
}

// JSONField is a custom type for handling JSON fields in GORM.
type JSONField []byte

// Value implements driver.Valuer interface.
func (j JSONField) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return []byte(j), nil
}

// Scan implements sql.Scanner interface.
func (j *JSONField) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	switch v := value.(type) {
	case []byte:
		*j = append((*j)[0:0], v...)
		return nil
	case string:
		*j = []byte(v)
		return nil
	default:
		return errors.New("unsupported type for JSONField")
	}
}

// MarshalJSON implements json.Marshaler interface.
func (j JSONField) MarshalJSON() ([]byte, error) {
	if j == nil {
		return []byte("null"), nil
	}
	return j, nil
}

// UnmarshalJSON implements json.Unmarshaler interface.
func (j *JSONField) UnmarshalJSON(data []byte) error {
	if data == nil || string(data) == "null" {
		*j = nil
		return nil
	}
	*j = append((*j)[0:0], data...)
	return nil
}
