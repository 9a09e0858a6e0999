package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/livinlefevreloca/crmsync/internal/db"
)

func TestReconcile_InsertThenUpdate(t *testing.T) {
	database := db.NewTestDB(t)
	r := New(database)

	attrs := map[string]interface{}{
		"name":       "Inbound",
		"sort_order": 1,
	}

	outcome, err := r.Reconcile("funnels", 10, attrs)
	require.NoError(t, err)
	assert.Equal(t, OutcomeInserted, outcome)

	// Same natural id again: full replace, no duplicate row
	attrs["name"] = "Inbound Renamed"
	outcome, err = r.Reconcile("funnels", 10, attrs)
	require.NoError(t, err)
	assert.Equal(t, OutcomeUpdated, outcome)

	count, err := database.CountRows("funnels")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	funnels, err := database.GetFunnels()
	require.NoError(t, err)
	require.Len(t, funnels, 1)
	assert.Equal(t, "Inbound Renamed", funnels[0].Name)
}

func TestReconcile_Idempotent(t *testing.T) {
	database := db.NewTestDB(t)
	r := New(database)

	attrs := map[string]interface{}{
		"column_id": int64(5),
		"funnel_id": int64(1),
		"title":     "Big deal",
		"value":     1500.0,
		"status":    "open",
		"owner_id":  nil,
	}

	// First pass inserts, every later pass with an unchanged payload updates
	// in place
	for i := 0; i < 3; i++ {
		outcome, err := r.Reconcile("opportunities", 77, attrs)
		require.NoError(t, err)
		if i == 0 {
			assert.Equal(t, OutcomeInserted, outcome)
		} else {
			assert.Equal(t, OutcomeUpdated, outcome)
		}
	}

	count, err := database.CountRows("opportunities")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestReconcile_FullReplace(t *testing.T) {
	database := db.NewTestDB(t)
	r := New(database)

	_, err := r.Reconcile("opportunities", 1, map[string]interface{}{
		"column_id": int64(5),
		"funnel_id": int64(1),
		"title":     "Original",
		"value":     100.0,
		"status":    "open",
		"owner_id":  int64(9),
	})
	require.NoError(t, err)

	// The remote no longer carries an owner: the local row must not keep it
	_, err = r.Reconcile("opportunities", 1, map[string]interface{}{
		"column_id": int64(6),
		"funnel_id": int64(1),
		"title":     "Moved",
		"value":     250.0,
		"status":    "won",
		"owner_id":  nil,
	})
	require.NoError(t, err)

	opp, err := database.GetOpportunity(1)
	require.NoError(t, err)
	assert.Equal(t, int64(6), opp.ColumnID)
	assert.Equal(t, "Moved", opp.Title)
	assert.Equal(t, 250.0, opp.Value)
	assert.Equal(t, "won", opp.Status)
	assert.Nil(t, opp.OwnerID)
	assert.True(t, opp.UpdatedAt.After(opp.CreatedAt) || opp.UpdatedAt.Equal(opp.CreatedAt))
}

func TestReconcile_UnknownTable(t *testing.T) {
	database := db.NewTestDB(t)
	r := New(database)

	_, err := r.Reconcile("nonexistent", 1, map[string]interface{}{"name": "x"})
	assert.Error(t, err)
}
