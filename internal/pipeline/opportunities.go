package pipeline

import (
	"context"
	"time"

	"github.com/livinlefevreloca/crmsync/internal/db"
	"github.com/livinlefevreloca/crmsync/internal/remote"
)

// opportunityResource maps an opportunity record onto the local table. The
// funnel and column ids come from the branch being walked, not the payload,
// so a record cannot reattach itself to a branch that was never fetched.
var opportunityResource = Resource{
	JobName: OpportunitiesJobName,
	Table:   "opportunities",
	Map: func(record remote.Record) (map[string]interface{}, error) {
		return map[string]interface{}{
			"title":    stringField(record, "title"),
			"value":    floatField(record, "value"),
			"status":   stringField(record, "status"),
			"owner_id": optionalInt64Field(record, "owner_id"),
		}, nil
	},
}

// syncOpportunities walks the already-mirrored hierarchy sequentially:
// every local funnel, every column of that funnel, every page of that
// column. Branch failures are isolated; a bad column never aborts the run.
func (r *Runner) syncOpportunities(ctx context.Context) (Counters, error) {
	if err := r.remote.CheckCredentials(); err != nil {
		return Counters{}, err
	}

	// Funnels must be readable to walk the hierarchy at all
	funnels, err := r.db.GetFunnels()
	if err != nil {
		return Counters{}, err
	}

	var counts Counters

	for fi, funnel := range funnels {
		columns, err := r.db.GetColumnsByFunnel(funnel.ID)
		if err != nil {
			counts.Errors++
			r.logger.Warn("failed to read funnel columns",
				"funnel_id", funnel.ID,
				"error", err)
			continue
		}

		for ci, column := range columns {
			counts.add(r.syncColumn(ctx, funnel, column))

			// Brief pause between branches to bound remote load
			if ci < len(columns)-1 {
				time.Sleep(r.remote.BranchDelay())
			}
		}

		if fi < len(funnels)-1 {
			time.Sleep(r.remote.BranchDelay())
		}
	}

	return counts, nil
}

// syncColumn runs the pagination loop for one column. Pages are 1-based.
// The loop continues while more pages are known to exist, or, when the
// remote sends no totals, while pages come back full. A failed page aborts
// only this column and contributes the page's expected record count to the
// error counter.
func (r *Runner) syncColumn(ctx context.Context, funnel db.Funnel, column db.FunnelColumn) Counters {
	var counts Counters
	pageSize := r.remote.PageSize()

	extra := map[string]interface{}{
		"funnel_id": funnel.ID,
		"column_id": column.ID,
	}

	var total, totalPages *int

	for page := 1; ; page++ {
		result, err := r.remote.OpportunityPage(ctx, column.ID, page)
		if err != nil {
			expected := expectedPageRecords(page, pageSize, total)
			counts.Errors += expected
			r.logger.Warn("aborting column after failed page fetch",
				"funnel_id", funnel.ID,
				"column_id", column.ID,
				"page", page,
				"counted_errors", expected,
				"error", err)
			return counts
		}

		// Totals learned on any page inform later expectations
		if result.Total != nil {
			total = result.Total
		}
		if result.TotalPages != nil {
			totalPages = result.TotalPages
		}

		for _, record := range result.Records {
			r.reconcileRecord(opportunityResource, record, &counts, extra)
		}

		more := false
		if totalPages != nil {
			more = page < *totalPages
		} else {
			more = len(result.Records) == pageSize
		}
		if !more {
			return counts
		}

		time.Sleep(r.remote.PageDelay())
	}
}

// expectedPageRecords estimates how many records a failed page would have
// carried: the remainder of the branch total for that page when a total is
// known, 1 otherwise.
func expectedPageRecords(page, pageSize int, total *int) int {
	if total == nil {
		return 1
	}

	remaining := *total - (page-1)*pageSize
	if remaining <= 0 {
		return 1
	}
	if remaining > pageSize {
		return pageSize
	}
	return remaining
}
