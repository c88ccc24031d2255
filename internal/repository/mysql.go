package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// MySQLRunRepository implements RunRepository with hand-written SQL,
// as an alternative to the GORM-backed GormRunRepository.
type MySQLRunRepository struct {
	db *sql.DB
}

// NewMySQLRunRepository creates a new MySQLRunRepository.
func NewMySQLRunRepository(db *sql.DB) *MySQLRunRepository {
	return &MySQLRunRepository{db: db}
}

// GetPendingRuns retrieves runs queued for processing.
func (r *MySQLRunRepository) GetPendingRuns(ctx context.Context, limit int) ([]*Run, error) {
	query := `
		SELECT id, run_uuid, network_hash, evaluator, status,
			   COALESCE(status_info, ''), COALESCE(result_file, ''),
			   create_time, begin_time, end_time
		FROM inference_run
		WHERE status = ?
		ORDER BY id DESC
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, query, RunStatusPending, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending runs: %w", err)
	}
	defer rows.Close()

	return r.scanRuns(rows)
}

// GetRunByID retrieves a run by its ID.
func (r *MySQLRunRepository) GetRunByID(ctx context.Context, id int64) (*Run, error) {
	query := `
		SELECT id, run_uuid, network_hash, evaluator, status,
			   COALESCE(status_info, ''), COALESCE(result_file, ''),
			   create_time, begin_time, end_time
		FROM inference_run
		WHERE id = ?
	`

	run := &Run{}
	var beginTime, endTime sql.NullTime

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&run.ID, &run.RunUUID, &run.NetworkHash, &run.Evaluator, &run.Status,
		&run.StatusInfo, &run.ResultFile, &run.CreateTime, &beginTime, &endTime,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("run not found: %d", id)
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	if beginTime.Valid {
		run.BeginTime = &beginTime.Time
	}
	if endTime.Valid {
		run.EndTime = &endTime.Time
	}

	return run, nil
}

// GetRunByUUID retrieves a run by its UUID.
func (r *MySQLRunRepository) GetRunByUUID(ctx context.Context, uuid string) (*Run, error) {
	query := `
		SELECT id, run_uuid, network_hash, evaluator, status,
			   COALESCE(status_info, ''), COALESCE(result_file, ''),
			   create_time, begin_time, end_time
		FROM inference_run
		WHERE run_uuid = ?
	`

	run := &Run{}
	var beginTime, endTime sql.NullTime

	err := r.db.QueryRowContext(ctx, query, uuid).Scan(
		&run.ID, &run.RunUUID, &run.NetworkHash, &run.Evaluator, &run.Status,
		&run.StatusInfo, &run.ResultFile, &run.CreateTime, &beginTime, &endTime,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("run not found: %s", uuid)
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	if beginTime.Valid {
		run.BeginTime = &beginTime.Time
	}
	if endTime.Valid {
		run.EndTime = &endTime.Time
	}

	return run, nil
}

// GetRunByNetworkHash retrieves the most recent run for a network hash.
func (r *MySQLRunRepository) GetRunByNetworkHash(ctx context.Context, hash string) (*Run, error) {
	query := `
		SELECT id, run_uuid, network_hash, evaluator, status,
			   COALESCE(status_info, ''), COALESCE(result_file, ''),
			   create_time, begin_time, end_time
		FROM inference_run
		WHERE network_hash = ?
		ORDER BY id DESC
		LIMIT 1
	`

	run := &Run{}
	var beginTime, endTime sql.NullTime

	err := r.db.QueryRowContext(ctx, query, hash).Scan(
		&run.ID, &run.RunUUID, &run.NetworkHash, &run.Evaluator, &run.Status,
		&run.StatusInfo, &run.ResultFile, &run.CreateTime, &beginTime, &endTime,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("run not found for network hash: %s", hash)
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	if beginTime.Valid {
		run.BeginTime = &beginTime.Time
	}
	if endTime.Valid {
		run.EndTime = &endTime.Time
	}

	return run, nil
}

// UpdateStatus updates the status of a run.
func (r *MySQLRunRepository) UpdateStatus(ctx context.Context, id int64, status RunStatus) error {
	query := `UPDATE inference_run SET status = ? WHERE id = ?`
	result, err := r.db.ExecContext(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("failed to update run status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("run not found: %d", id)
	}

	return nil
}

// UpdateStatusWithInfo updates the status of a run with additional detail.
func (r *MySQLRunRepository) UpdateStatusWithInfo(ctx context.Context, id int64, status RunStatus, info string) error {
	query := `UPDATE inference_run SET status = ?, status_info = ? WHERE id = ?`
	result, err := r.db.ExecContext(ctx, query, status, info, id)
	if err != nil {
		return fmt.Errorf("failed to update run status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("run not found: %d", id)
	}

	return nil
}

// LockRunForProcessing attempts to lock a run for processing using FOR UPDATE.
func (r *MySQLRunRepository) LockRunForProcessing(ctx context.Context, id int64) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var status RunStatus
	query := `SELECT status FROM inference_run WHERE id = ? AND status = ? FOR UPDATE`
	err = tx.QueryRowContext(ctx, query, id, RunStatusPending).Scan(&status)
	if err != nil {
		if err == sql.ErrNoRows || strings.Contains(err.Error(), "lock wait timeout") {
			return false, nil
		}
		return false, fmt.Errorf("failed to lock run: %w", err)
	}

	updateQuery := `UPDATE inference_run SET status = ? WHERE id = ?`
	_, err = tx.ExecContext(ctx, updateQuery, RunStatusRunning, id)
	if err != nil {
		return false, fmt.Errorf("failed to update status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return true, nil
}

// scanRuns scans multiple runs from rows.
func (r *MySQLRunRepository) scanRuns(rows *sql.Rows) ([]*Run, error) {
	var runs []*Run

	for rows.Next() {
		run := &Run{}
		var beginTime, endTime sql.NullTime

		err := rows.Scan(
			&run.ID, &run.RunUUID, &run.NetworkHash, &run.Evaluator, &run.Status,
			&run.StatusInfo, &run.ResultFile, &run.CreateTime, &beginTime, &endTime,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}

		if beginTime.Valid {
			run.BeginTime = &beginTime.Time
		}
		if endTime.Valid {
			run.EndTime = &endTime.Time
		}

		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return runs, nil
}

// MySQLResultRepository implements ResultRepository with hand-written SQL.
type MySQLResultRepository struct {
	db      *sql.DB
	version string
}

// NewMySQLResultRepository creates a new MySQLResultRepository.
func NewMySQLResultRepository(db *sql.DB, version string) *MySQLResultRepository {
	return &MySQLResultRepository{db: db, version: version}
}

// SaveResult saves a run's belief result to the database.
func (r *MySQLResultRepository) SaveResult(ctx context.Context, result *BeliefResult) error {
	query := `
		INSERT INTO belief_results (run_uuid, beliefs, version)
		VALUES (?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query, result.RunUUID, result.Beliefs, r.version)
	if err != nil {
		return fmt.Errorf("failed to save belief result: %w", err)
	}

	return nil
}

// GetResultByRunUUID retrieves the belief result for a run.
func (r *MySQLResultRepository) GetResultByRunUUID(ctx context.Context, runUUID string) (*BeliefResult, error) {
	query := `
		SELECT run_uuid, beliefs, version
		FROM belief_results
		WHERE run_uuid = ?
	`

	result := &BeliefResult{}
	err := r.db.QueryRowContext(ctx, query, runUUID).Scan(
		&result.RunUUID, &result.Beliefs, &result.Version,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("result not found for run: %s", runUUID)
		}
		return nil, fmt.Errorf("failed to get result: %w", err)
	}

	return result, nil
}

// UpdateResult updates an existing belief result.
func (r *MySQLResultRepository) UpdateResult(ctx context.Context, result *BeliefResult) error {
	query := `
		UPDATE belief_results
		SET beliefs = ?, version = ?
		WHERE run_uuid = ?
	`

	res, err := r.db.ExecContext(ctx, query, result.Beliefs, r.version, result.RunUUID)
	if err != nil {
		return fmt.Errorf("failed to update result: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("result not found for run: %s", result.RunUUID)
	}

	return nil
}

// MySQLSuggestionRepository implements SuggestionRepository with hand-written SQL.
type MySQLSuggestionRepository struct {
	db *sql.DB
}

// NewMySQLSuggestionRepository creates a new MySQLSuggestionRepository.
func NewMySQLSuggestionRepository(db *sql.DB) *MySQLSuggestionRepository {
	return &MySQLSuggestionRepository{db: db}
}

// SaveSuggestions saves multiple suggestions to the database.
func (r *MySQLSuggestionRepository) SaveSuggestions(ctx context.Context, suggestions []Suggestion) error {
	if len(suggestions) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO run_suggestions (run_uuid, type, severity, suggestion, join_node, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	now := time.Now()
	for _, sug := range suggestions {
		if sug.Suggestion == "" {
			continue
		}

		_, err := tx.ExecContext(ctx, query,
			sug.RunUUID, sug.Type, sug.Severity, sug.Suggestion, sug.JoinNode, now,
		)
		if err != nil {
			return fmt.Errorf("failed to insert suggestion: %w", err)
		}
	}

	return tx.Commit()
}

// GetSuggestionsByRunUUID retrieves suggestions for a run.
func (r *MySQLSuggestionRepository) GetSuggestionsByRunUUID(ctx context.Context, runUUID string) ([]Suggestion, error) {
	query := `
		SELECT id, run_uuid, type, severity, suggestion, join_node, created_at
		FROM run_suggestions
		WHERE run_uuid = ?
	`

	rows, err := r.db.QueryContext(ctx, query, runUUID)
	if err != nil {
		return nil, fmt.Errorf("failed to query suggestions: %w", err)
	}
	defer rows.Close()

	var suggestions []Suggestion
	for rows.Next() {
		var sug Suggestion

		err := rows.Scan(
			&sug.ID, &sug.RunUUID, &sug.Type, &sug.Severity, &sug.Suggestion,
			&sug.JoinNode, &sug.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan suggestion: %w", err)
		}

		suggestions = append(suggestions, sug)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return suggestions, nil
}
