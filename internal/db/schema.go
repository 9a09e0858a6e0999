package db

import "database/sql"

// schemaStatements is the embedded DDL for the local mirror. All statements
// are idempotent so startup can apply them unconditionally.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS funnels (
		id         INTEGER PRIMARY KEY,
		name       TEXT NOT NULL,
		sort_order INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS funnel_columns (
		id         INTEGER PRIMARY KEY,
		funnel_id  INTEGER NOT NULL,
		name       TEXT NOT NULL,
		sort_order INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_funnel_columns_funnel ON funnel_columns(funnel_id)`,
	`CREATE TABLE IF NOT EXISTS opportunities (
		id         INTEGER PRIMARY KEY,
		column_id  INTEGER NOT NULL,
		funnel_id  INTEGER NOT NULL,
		title      TEXT NOT NULL,
		value      REAL NOT NULL DEFAULT 0,
		status     TEXT NOT NULL DEFAULT '',
		owner_id   INTEGER,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_opportunities_column ON opportunities(column_id)`,
	`CREATE TABLE IF NOT EXISTS loss_reasons (
		id         INTEGER PRIMARY KEY,
		name       TEXT NOT NULL,
		active     BOOLEAN NOT NULL DEFAULT 1,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS org_units (
		id         INTEGER PRIMARY KEY,
		name       TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS sales_reps (
		id         INTEGER PRIMARY KEY,
		name       TEXT NOT NULL,
		email      TEXT NOT NULL DEFAULT '',
		active     BOOLEAN NOT NULL DEFAULT 1,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS sync_runs (
		run_id           TEXT PRIMARY KEY,
		job_name         TEXT NOT NULL,
		triggered_by     TEXT NOT NULL,
		status           TEXT NOT NULL,
		started_at       TIMESTAMP NOT NULL,
		completed_at     TIMESTAMP,
		records_inserted INTEGER NOT NULL DEFAULT 0,
		records_updated  INTEGER NOT NULL DEFAULT 0,
		records_errors   INTEGER NOT NULL DEFAULT 0,
		duration_seconds REAL,
		error_message    TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sync_runs_job ON sync_runs(job_name, started_at)`,
}

// InitSchema applies the embedded schema inside a single transaction
func (db *DB) InitSchema() error {
	return db.WithTransaction(func(tx *sql.Tx) error {
		for _, stmt := range schemaStatements {
			if _, err := tx.Exec(stmt); err != nil {
				return err
			}
		}
		return nil
	})
}
