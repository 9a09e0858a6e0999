package db

import (
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// NewTestDB creates an in-memory SQLite database with the schema applied,
// closed automatically when the test finishes
func NewTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := db.InitSchema(); err != nil {
		db.Close()
		t.Fatalf("failed to initialize test schema: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// MakeTestRun creates a sync run with default test values
func MakeTestRun(jobName string) *SyncRun {
	return &SyncRun{
		RunID:     uuid.NewString(),
		JobName:   jobName,
		Trigger:   TriggerScheduled,
		Status:    RunStatusRunning,
		StartedAt: time.Now(),
	}
}
