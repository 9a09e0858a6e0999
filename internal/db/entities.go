package db

import "database/sql"

// Read model over the mirrored entity tables. Writes go through the
// reconcile package; these queries back the nested sync pipeline and the
// HTTP API.

// GetFunnels retrieves all mirrored funnels ordered by sort order
func (db *DB) GetFunnels() ([]Funnel, error) {
	query := `
		SELECT id, name, sort_order, created_at, updated_at
		FROM funnels
		ORDER BY sort_order, id
	`

	rows, err := db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var funnels []Funnel
	for rows.Next() {
		var f Funnel
		err := rows.Scan(&f.ID, &f.Name, &f.SortOrder, &f.CreatedAt, &f.UpdatedAt)
		if err != nil {
			return nil, err
		}
		funnels = append(funnels, f)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	// Return empty slice instead of nil
	if funnels == nil {
		funnels = []Funnel{}
	}

	return funnels, nil
}

// GetColumnsByFunnel retrieves the mirrored columns of one funnel in stage order
func (db *DB) GetColumnsByFunnel(funnelID int64) ([]FunnelColumn, error) {
	query := `
		SELECT id, funnel_id, name, sort_order, created_at, updated_at
		FROM funnel_columns
		WHERE funnel_id = ?
		ORDER BY sort_order, id
	`

	rows, err := db.Query(query, funnelID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []FunnelColumn
	for rows.Next() {
		var c FunnelColumn
		err := rows.Scan(&c.ID, &c.FunnelID, &c.Name, &c.SortOrder, &c.CreatedAt, &c.UpdatedAt)
		if err != nil {
			return nil, err
		}
		columns = append(columns, c)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	if columns == nil {
		columns = []FunnelColumn{}
	}

	return columns, nil
}

// GetOpportunity retrieves a mirrored opportunity by its natural id
func (db *DB) GetOpportunity(id int64) (*Opportunity, error) {
	opp := &Opportunity{}

	query := `
		SELECT id, column_id, funnel_id, title, value, status, owner_id, created_at, updated_at
		FROM opportunities
		WHERE id = ?
	`

	err := db.QueryRow(query, id).Scan(
		&opp.ID,
		&opp.ColumnID,
		&opp.FunnelID,
		&opp.Title,
		&opp.Value,
		&opp.Status,
		&opp.OwnerID,
		&opp.CreatedAt,
		&opp.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}

	if err != nil {
		return nil, err
	}

	return opp, nil
}

// CountRows returns the number of rows in an entity table
func (db *DB) CountRows(table string) (int, error) {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
