package db

import "time"

// Entity tables use the remote system's natural ids as primary keys, with no
// local id generation. Repeated syncs replace rows in place.

// Funnel represents a sales funnel mirrored from the remote CRM
type Funnel struct {
	ID        int64
	Name      string
	SortOrder int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// FunnelColumn represents a pipeline stage within a funnel
type FunnelColumn struct {
	ID        int64
	FunnelID  int64
	Name      string
	SortOrder int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Opportunity represents a deal record attached to a funnel column
type Opportunity struct {
	ID        int64
	ColumnID  int64
	FunnelID  int64
	Title     string
	Value     float64
	Status    string
	OwnerID   *int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// LossReason represents a configured reason for losing a deal
type LossReason struct {
	ID        int64
	Name      string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// OrgUnit represents an organizational unit (branch/office)
type OrgUnit struct {
	ID        int64
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SalesRep represents a seller account mirrored from the remote CRM
type SalesRep struct {
	ID        int64
	Name      string
	Email     string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SyncRun represents a single execution of a sync job. Rows are append-only:
// created with StatusRunning and finalized exactly once.
type SyncRun struct {
	RunID           string
	JobName         string
	Trigger         string
	Status          string
	StartedAt       time.Time
	CompletedAt     *time.Time
	RecordsInserted int
	RecordsUpdated  int
	RecordsErrors   int
	DurationSeconds *float64
	ErrorMessage    *string
}

// Sync run statuses
const (
	RunStatusRunning             = "running"
	RunStatusSuccess             = "success"
	RunStatusError               = "error"
	RunStatusCompletedWithErrors = "completed_with_errors"
)

// Sync run triggers
const (
	TriggerManual    = "manual"
	TriggerScheduled = "scheduled"
)
