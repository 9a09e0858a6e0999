// Package reconcile converges one local row at a time toward the remote
// system of record: insert when the natural id is unknown locally, full
// replace when it exists. There is no field-level diffing; the remote is
// authoritative and local drift is not preserved across syncs.
package reconcile

import (
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/livinlefevreloca/crmsync/internal/db"
)

// Outcome reports what a reconciliation did to the local row
type Outcome int

const (
	// OutcomeInserted means the record did not exist locally and was inserted
	OutcomeInserted Outcome = iota
	// OutcomeUpdated means the record existed and all attributes were replaced
	OutcomeUpdated
)

// String returns a human-readable representation of the outcome
func (o Outcome) String() string {
	if o == OutcomeInserted {
		return "inserted"
	}
	return "updated"
}

// Reconciler applies idempotent insert-or-replace writes keyed by the
// remote natural id
type Reconciler struct {
	db *db.DB
}

// New creates a reconciler over the local store
func New(database *db.DB) *Reconciler {
	return &Reconciler{db: database}
}

// Reconcile looks up the row by natural id, inserts it when absent, and
// otherwise replaces every mutable attribute and touches updated_at.
// Table and attribute names come from the pipeline's fixed resource
// descriptors, never from remote payloads.
func (r *Reconciler) Reconcile(table string, naturalID int64, attrs map[string]interface{}) (Outcome, error) {
	exists, err := r.exists(table, naturalID)
	if err != nil {
		return 0, fmt.Errorf("reconcile: lookup in %s failed: %w", table, err)
	}

	// Sort attribute names so generated SQL is deterministic
	names := make([]string, 0, len(attrs))
	for name := range attrs {
		names = append(names, name)
	}
	sort.Strings(names)

	now := time.Now()

	if !exists {
		if err := r.insert(table, naturalID, names, attrs, now); err != nil {
			return 0, fmt.Errorf("reconcile: insert into %s failed: %w", table, err)
		}
		return OutcomeInserted, nil
	}

	if err := r.update(table, naturalID, names, attrs, now); err != nil {
		return 0, fmt.Errorf("reconcile: update of %s failed: %w", table, err)
	}
	return OutcomeUpdated, nil
}

// exists checks whether a row with the natural id is present
func (r *Reconciler) exists(table string, naturalID int64) (bool, error) {
	var one int
	err := r.db.QueryRow("SELECT 1 FROM "+table+" WHERE id = ?", naturalID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *Reconciler) insert(table string, naturalID int64, names []string, attrs map[string]interface{}, now time.Time) error {
	columns := append([]string{"id"}, names...)
	columns = append(columns, "created_at", "updated_at")

	args := make([]interface{}, 0, len(columns))
	args = append(args, naturalID)
	for _, name := range names {
		args = append(args, attrs[name])
	}
	args = append(args, now, now)

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table,
		strings.Join(columns, ", "),
		placeholders(len(columns)))

	_, err := r.db.Exec(query, args...)
	return err
}

func (r *Reconciler) update(table string, naturalID int64, names []string, attrs map[string]interface{}, now time.Time) error {
	assignments := make([]string, 0, len(names)+1)
	args := make([]interface{}, 0, len(names)+2)
	for _, name := range names {
		assignments = append(assignments, name+" = ?")
		args = append(args, attrs[name])
	}
	assignments = append(assignments, "updated_at = ?")
	args = append(args, now, naturalID)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = ?",
		table,
		strings.Join(assignments, ", "))

	_, err := r.db.Exec(query, args...)
	return err
}

// placeholders builds a "?, ?, ?" list of the given length
func placeholders(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = "?"
	}
	return strings.Join(parts, ", ")
}
