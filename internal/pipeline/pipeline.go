// Package pipeline implements the hierarchical sync pipelines: flat resource
// lists and the nested funnel → column → page opportunity sync. Every
// record- and branch-level failure is converted into a counter; only missing
// credentials or a failed history write terminate a run.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/livinlefevreloca/crmsync/internal/db"
	"github.com/livinlefevreloca/crmsync/internal/metrics"
	"github.com/livinlefevreloca/crmsync/internal/reconcile"
	"github.com/livinlefevreloca/crmsync/internal/remote"
	"github.com/livinlefevreloca/crmsync/internal/scheduler"
)

// Counters aggregates per-run record outcomes. Inserted + Updated + Errors
// equals the number of records the run observed.
type Counters struct {
	Inserted int
	Updated  int
	Errors   int
}

// add merges another set of counters in place
func (c *Counters) add(other Counters) {
	c.Inserted += other.Inserted
	c.Updated += other.Updated
	c.Errors += other.Errors
}

// Runner owns the pipeline dependencies and produces scheduler callbacks
type Runner struct {
	remote  *remote.Client
	db      *db.DB
	rec     *reconcile.Reconciler
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewRunner creates a pipeline runner
func NewRunner(client *remote.Client, database *db.DB, m *metrics.Metrics, logger *slog.Logger) *Runner {
	return &Runner{
		remote:  client,
		db:      database,
		rec:     reconcile.New(database),
		metrics: m,
		logger:  logger,
	}
}

// ListJob returns the scheduler callback for one flat resource
func (r *Runner) ListJob(res Resource) scheduler.RunFunc {
	return func(ctx context.Context, trigger scheduler.Trigger) error {
		return r.runWithHistory(ctx, res.JobName, trigger, func(ctx context.Context) (Counters, error) {
			return r.syncList(ctx, res)
		})
	}
}

// OpportunitiesJob returns the scheduler callback for the nested sync
func (r *Runner) OpportunitiesJob() scheduler.RunFunc {
	return func(ctx context.Context, trigger scheduler.Trigger) error {
		return r.runWithHistory(ctx, OpportunitiesJobName, trigger, r.syncOpportunities)
	}
}

// runWithHistory brackets a pipeline body with its audit row: a running row
// at start, finalized exactly once at the end. A body error is a terminal
// run failure (configuration or local store at start); counted errors inside
// the body finalize as completed_with_errors instead.
func (r *Runner) runWithHistory(ctx context.Context, jobName string, trigger scheduler.Trigger, body func(context.Context) (Counters, error)) error {
	run := &db.SyncRun{
		RunID:     uuid.NewString(),
		JobName:   jobName,
		Trigger:   string(trigger),
		Status:    db.RunStatusRunning,
		StartedAt: time.Now(),
	}

	if err := r.db.CreateSyncRun(run); err != nil {
		return err
	}

	counts, err := body(ctx)
	duration := time.Since(run.StartedAt)

	if err != nil {
		r.logger.Error("sync run failed",
			"job", jobName,
			"run_id", run.RunID,
			"error", err)

		if ferr := r.db.FailSyncRun(run.RunID, err.Error(), duration); ferr != nil {
			r.logger.Error("failed to record run failure", "run_id", run.RunID, "error", ferr)
		}
		r.metrics.ObserveRun(jobName, db.RunStatusError, duration.Seconds())
		return err
	}

	if cerr := r.db.CompleteSyncRun(run.RunID, counts.Inserted, counts.Updated, counts.Errors, duration); cerr != nil {
		r.logger.Error("failed to record run completion", "run_id", run.RunID, "error", cerr)
		return cerr
	}

	status := db.RunStatusSuccess
	if counts.Errors > 0 {
		status = db.RunStatusCompletedWithErrors
	}
	r.metrics.ObserveRecords(jobName, counts.Inserted, counts.Updated, counts.Errors)
	r.metrics.ObserveRun(jobName, status, duration.Seconds())

	r.logger.Info("sync run complete",
		"job", jobName,
		"run_id", run.RunID,
		"status", status,
		"inserted", counts.Inserted,
		"updated", counts.Updated,
		"errors", counts.Errors,
		"duration", duration)

	return nil
}

// reconcileRecord converges one remote record and maps the result into
// counters. Records with no natural id and failed writes are counted,
// never propagated.
func (r *Runner) reconcileRecord(res Resource, record remote.Record, counts *Counters, extra map[string]interface{}) {
	id, err := naturalID(record)
	if err != nil {
		counts.Errors++
		r.logger.Warn("skipping record without natural id", "job", res.JobName, "error", err)
		return
	}

	attrs, err := res.Map(record)
	if err != nil {
		counts.Errors++
		r.logger.Warn("skipping unmappable record", "job", res.JobName, "id", id, "error", err)
		return
	}
	for k, v := range extra {
		attrs[k] = v
	}

	outcome, err := r.rec.Reconcile(res.Table, id, attrs)
	if err != nil {
		counts.Errors++
		r.logger.Warn("failed to persist record", "job", res.JobName, "id", id, "error", err)
		return
	}

	if outcome == reconcile.OutcomeInserted {
		counts.Inserted++
	} else {
		counts.Updated++
	}
}

// syncList runs one flat resource sync: fetch the list, normalize, converge
// each record. A failed list fetch contributes one branch error and yields
// completed_with_errors rather than terminating the run.
func (r *Runner) syncList(ctx context.Context, res Resource) (Counters, error) {
	if err := r.remote.CheckCredentials(); err != nil {
		return Counters{}, err
	}

	var counts Counters

	records, err := r.remote.ListResource(ctx, res.Path, res.NamedField)
	if err != nil {
		r.logger.Warn("failed to fetch resource list",
			"job", res.JobName,
			"path", res.Path,
			"error", err)
		counts.Errors++
		return counts, nil
	}

	for _, record := range records {
		r.reconcileRecord(res, record, &counts, nil)
	}

	return counts, nil
}
