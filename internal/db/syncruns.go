package db

import (
	"database/sql"
	"time"
)

// CreateSyncRun inserts a new sync run row with status running
func (db *DB) CreateSyncRun(run *SyncRun) error {
	query := `
		INSERT INTO sync_runs (run_id, job_name, triggered_by, status, started_at,
			records_inserted, records_updated, records_errors)
		VALUES (?, ?, ?, ?, ?, 0, 0, 0)
	`

	_, err := db.Exec(query,
		run.RunID,
		run.JobName,
		run.Trigger,
		run.Status,
		run.StartedAt,
	)

	return err
}

// CompleteSyncRun finalizes a running sync run with its counters. The status
// becomes completed_with_errors when any record-level errors were counted,
// success otherwise. Finalized rows are never touched again; completing a row
// that is not running returns ErrNotFound.
func (db *DB) CompleteSyncRun(runID string, inserted, updated, errCount int, duration time.Duration) error {
	status := RunStatusSuccess
	if errCount > 0 {
		status = RunStatusCompletedWithErrors
	}

	query := `
		UPDATE sync_runs
		SET status = ?, completed_at = ?, records_inserted = ?, records_updated = ?,
			records_errors = ?, duration_seconds = ?
		WHERE run_id = ? AND status = ?
	`

	result, err := db.Exec(query, status, time.Now(), inserted, updated, errCount,
		duration.Seconds(), runID, RunStatusRunning)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// FailSyncRun finalizes a running sync run as a terminal error
func (db *DB) FailSyncRun(runID string, message string, duration time.Duration) error {
	query := `
		UPDATE sync_runs
		SET status = ?, completed_at = ?, duration_seconds = ?, error_message = ?
		WHERE run_id = ? AND status = ?
	`

	result, err := db.Exec(query, RunStatusError, time.Now(), duration.Seconds(),
		message, runID, RunStatusRunning)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// GetSyncRun retrieves a sync run by its run id
func (db *DB) GetSyncRun(runID string) (*SyncRun, error) {
	run := &SyncRun{}

	query := `
		SELECT run_id, job_name, triggered_by, status, started_at, completed_at,
			records_inserted, records_updated, records_errors, duration_seconds, error_message
		FROM sync_runs
		WHERE run_id = ?
	`

	err := db.QueryRow(query, runID).Scan(
		&run.RunID,
		&run.JobName,
		&run.Trigger,
		&run.Status,
		&run.StartedAt,
		&run.CompletedAt,
		&run.RecordsInserted,
		&run.RecordsUpdated,
		&run.RecordsErrors,
		&run.DurationSeconds,
		&run.ErrorMessage,
	)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}

	if err != nil {
		return nil, err
	}

	return run, nil
}

// GetSyncRuns retrieves the most recent runs for a job
func (db *DB) GetSyncRuns(jobName string, limit int) ([]SyncRun, error) {
	query := `
		SELECT run_id, job_name, triggered_by, status, started_at, completed_at,
			records_inserted, records_updated, records_errors, duration_seconds, error_message
		FROM sync_runs
		WHERE job_name = ?
		ORDER BY started_at DESC
		LIMIT ?
	`

	return db.querySyncRuns(query, jobName, limit)
}

// GetRecentSyncRuns retrieves the most recent runs across all jobs
func (db *DB) GetRecentSyncRuns(limit int) ([]SyncRun, error) {
	query := `
		SELECT run_id, job_name, triggered_by, status, started_at, completed_at,
			records_inserted, records_updated, records_errors, duration_seconds, error_message
		FROM sync_runs
		ORDER BY started_at DESC
		LIMIT ?
	`

	return db.querySyncRuns(query, limit)
}

func (db *DB) querySyncRuns(query string, args ...interface{}) ([]SyncRun, error) {
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []SyncRun
	for rows.Next() {
		var run SyncRun
		err := rows.Scan(
			&run.RunID,
			&run.JobName,
			&run.Trigger,
			&run.Status,
			&run.StartedAt,
			&run.CompletedAt,
			&run.RecordsInserted,
			&run.RecordsUpdated,
			&run.RecordsErrors,
			&run.DurationSeconds,
			&run.ErrorMessage,
		)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	// Return empty slice instead of nil
	if runs == nil {
		runs = []SyncRun{}
	}

	return runs, nil
}
