package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormRunRepository implements RunRepository using GORM.
type GormRunRepository struct {
	db *gorm.DB
}

// NewGormRunRepository creates a new GormRunRepository.
func NewGormRunRepository(db *gorm.DB) *GormRunRepository {
	return &GormRunRepository{db: db}
}

// GetPendingRuns retrieves runs that are queued for processing.
func (r *GormRunRepository) GetPendingRuns(ctx context.Context, limit int) ([]*Run, error) {
	var records []RunRecord

	err := r.db.WithContext(ctx).
		Where("status = ?", RunStatusPending).
		Order("id DESC").
		Limit(limit).
		Find(&records).Error

	if err != nil {
		return nil, fmt.Errorf("failed to query pending runs: %w", err)
	}

	result := make([]*Run, len(records))
	for i, rec := range records {
		result[i] = rec.ToModel()
	}

	return result, nil
}

// GetRunByID retrieves a run by its ID.
func (r *GormRunRepository) GetRunByID(ctx context.Context, id int64) (*Run, error) {
	var record RunRecord

	err := r.db.WithContext(ctx).Where("id = ?", id).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("run not found: %d", id)
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	return record.ToModel(), nil
}

// GetRunByUUID retrieves a run by its UUID.
func (r *GormRunRepository) GetRunByUUID(ctx context.Context, uuid string) (*Run, error) {
	var record RunRecord

	err := r.db.WithContext(ctx).Where("run_uuid = ?", uuid).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("run not found: %s", uuid)
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	return record.ToModel(), nil
}

// GetRunByNetworkHash retrieves the most recent run for a network hash.
func (r *GormRunRepository) GetRunByNetworkHash(ctx context.Context, hash string) (*Run, error) {
	var record RunRecord

	err := r.db.WithContext(ctx).
		Where("network_hash = ?", hash).
		Order("id DESC").
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("run not found for network hash: %s", hash)
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	return record.ToModel(), nil
}

// UpdateStatus updates the status of a run.
func (r *GormRunRepository) UpdateStatus(ctx context.Context, id int64, status RunStatus) error {
	result := r.db.WithContext(ctx).
		Model(&RunRecord{}).
		Where("id = ?", id).
		Update("status", status)

	if result.Error != nil {
		return fmt.Errorf("failed to update run status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("run not found: %d", id)
	}

	return nil
}

// UpdateStatusWithInfo updates the status with additional detail.
func (r *GormRunRepository) UpdateStatusWithInfo(ctx context.Context, id int64, status RunStatus, info string) error {
	result := r.db.WithContext(ctx).
		Model(&RunRecord{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":      status,
			"status_info": info,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update run status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("run not found: %d", id)
	}

	return nil
}

// LockRunForProcessing attempts to lock a run using FOR UPDATE, so two
// workers never compute the same run concurrently.
func (r *GormRunRepository) LockRunForProcessing(ctx context.Context, id int64) (bool, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var record RunRecord

		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND status = ?", id, RunStatusPending).
			First(&record).Error

		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return gorm.ErrRecordNotFound
			}
			return err
		}

		return tx.Model(&RunRecord{}).
			Where("id = ?", id).
			Update("status", RunStatusRunning).Error
	})

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to lock run: %w", err)
	}

	return true, nil
}

// GormResultRepository implements ResultRepository using GORM.
type GormResultRepository struct {
	db      *gorm.DB
	version string
}

// NewGormResultRepository creates a new GormResultRepository.
func NewGormResultRepository(db *gorm.DB, version string) *GormResultRepository {
	return &GormResultRepository{db: db, version: version}
}

// SaveResult saves a run's belief result to the database.
func (r *GormResultRepository) SaveResult(ctx context.Context, result *BeliefResult) error {
	record := &BeliefResultRecord{
		RunUUID: result.RunUUID,
		Beliefs: JSONField(result.Beliefs),
		Version: r.version,
	}

	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("failed to save belief result: %w", err)
	}

	return nil
}

// GetResultByRunUUID retrieves the belief result for a run.
func (r *GormResultRepository) GetResultByRunUUID(ctx context.Context, runUUID string) (*BeliefResult, error) {
	var record BeliefResultRecord

	err := r.db.WithContext(ctx).Where("run_uuid = ?", runUUID).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("result not found for run: %s", runUUID)
		}
		return nil, fmt.Errorf("failed to get result: %w", err)
	}

	return record.ToModel(), nil
}

// UpdateResult updates an existing belief result.
func (r *GormResultRepository) UpdateResult(ctx context.Context, result *BeliefResult) error {
	res := r.db.WithContext(ctx).
		Model(&BeliefResultRecord{}).
		Where("run_uuid = ?", result.RunUUID).
		Updates(map[string]interface{}{
			"beliefs": JSONField(result.Beliefs),
			"version": r.version,
		})

	if res.Error != nil {
		return fmt.Errorf("failed to update result: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("result not found for run: %s", result.RunUUID)
	}

	return nil
}

// GormSuggestionRepository implements SuggestionRepository using GORM.
type GormSuggestionRepository struct {
	db *gorm.DB
}

// NewGormSuggestionRepository creates a new GormSuggestionRepository.
func NewGormSuggestionRepository(db *gorm.DB) *GormSuggestionRepository {
	return &GormSuggestionRepository{db: db}
}

// SaveSuggestions saves multiple suggestions to the database.
func (r *GormSuggestionRepository) SaveSuggestions(ctx context.Context, suggestions []Suggestion) error {
	if len(suggestions) == 0 {
		return nil
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()

		for _, sug := range suggestions {
			if sug.Suggestion == "" {
				continue
			}

			record := &SuggestionRecord{
				RunUUID:    sug.RunUUID,
				Type:       sug.Type,
				Severity:   sug.Severity,
				Suggestion: sug.Suggestion,
				JoinNode:   sug.JoinNode,
				CreatedAt:  now,
			}

			if err := tx.Create(record).Error; err != nil {
				return fmt.Errorf("failed to insert suggestion: %w", err)
			}
		}

		return nil
	})
}

// GetSuggestionsByRunUUID retrieves suggestions for a run.
func (r *GormSuggestionRepository) GetSuggestionsByRunUUID(ctx context.Context, runUUID string) ([]Suggestion, error) {
	var records []SuggestionRecord

	err := r.db.WithContext(ctx).Where("run_uuid = ?", runUUID).Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query suggestions: %w", err)
	}

	suggestions := make([]Suggestion, len(records))
	for i, rec := range records {
		suggestions[i] = rec.ToModel()
	}

	return suggestions, nil
}
