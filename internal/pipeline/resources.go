package pipeline

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/livinlefevreloca/crmsync/internal/remote"
)

// Job names
const (
	FunnelsJobName       = "funnels-sync"
	ColumnsJobName       = "columns-sync"
	LossReasonsJobName   = "loss-reasons-sync"
	OrgUnitsJobName      = "org-units-sync"
	SalesRepsJobName     = "sales-reps-sync"
	OpportunitiesJobName = "opportunities-sync"
)

// ErrMissingNaturalID means a remote record carries no usable id and cannot
// be converged
var ErrMissingNaturalID = errors.New("pipeline: record has no natural id")

// Resource describes one flat remote resource: where to fetch it, which
// envelope field may wrap it, which local table mirrors it, and how a
// normalized record maps onto that table's attributes.
type Resource struct {
	JobName    string
	Table      string
	Path       string
	NamedField string
	Map        func(record remote.Record) (map[string]interface{}, error)
}

// Resources returns the flat-list sync descriptors. The opportunities
// pipeline is separate because of its nested pagination.
func Resources() []Resource {
	return []Resource{
		{
			JobName:    FunnelsJobName,
			Table:      "funnels",
			Path:       "/funnels",
			NamedField: "funis",
			Map: func(record remote.Record) (map[string]interface{}, error) {
				return map[string]interface{}{
					"name":       stringField(record, "name"),
					"sort_order": intField(record, "order"),
				}, nil
			},
		},
		{
			JobName:    ColumnsJobName,
			Table:      "funnel_columns",
			Path:       "/columns",
			NamedField: "",
			Map: func(record remote.Record) (map[string]interface{}, error) {
				funnelID, err := int64Field(record, "funnel_id")
				if err != nil {
					return nil, fmt.Errorf("pipeline: column without funnel_id: %w", err)
				}
				return map[string]interface{}{
					"funnel_id":  funnelID,
					"name":       stringField(record, "name"),
					"sort_order": intField(record, "order"),
				}, nil
			},
		},
		{
			JobName:    LossReasonsJobName,
			Table:      "loss_reasons",
			Path:       "/loss-reasons",
			NamedField: "motivos",
			Map: func(record remote.Record) (map[string]interface{}, error) {
				return map[string]interface{}{
					"name":   stringField(record, "name"),
					"active": boolField(record, "active", true),
				}, nil
			},
		},
		{
			JobName:    OrgUnitsJobName,
			Table:      "org_units",
			Path:       "/org-units",
			NamedField: "",
			Map: func(record remote.Record) (map[string]interface{}, error) {
				return map[string]interface{}{
					"name": stringField(record, "name"),
				}, nil
			},
		},
		{
			JobName:    SalesRepsJobName,
			Table:      "sales_reps",
			Path:       "/sales-reps",
			NamedField: "",
			Map: func(record remote.Record) (map[string]interface{}, error) {
				return map[string]interface{}{
					"name":   stringField(record, "name"),
					"email":  stringField(record, "email"),
					"active": boolField(record, "active", true),
				}, nil
			},
		},
	}
}

// JobNames returns every registered job name, flat resources plus the
// nested opportunities pipeline
func JobNames() []string {
	names := make([]string, 0, len(Resources())+1)
	for _, res := range Resources() {
		names = append(names, res.JobName)
	}
	return append(names, OpportunitiesJobName)
}

// naturalID extracts the remote natural id from a record. JSON numbers
// arrive as float64; some resource families send ids as strings.
func naturalID(record remote.Record) (int64, error) {
	raw, ok := record["id"]
	if !ok || raw == nil {
		return 0, ErrMissingNaturalID
	}

	switch v := raw.(type) {
	case float64:
		return int64(v), nil
	case string:
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("pipeline: unparseable natural id %q: %w", v, err)
		}
		return id, nil
	default:
		return 0, fmt.Errorf("pipeline: natural id has unexpected type %T", raw)
	}
}

// Field helpers. Attribute extraction is tolerant: a missing attribute maps
// to its zero value, only the natural id is mandatory.

func stringField(record remote.Record, key string) string {
	if v, ok := record[key].(string); ok {
		return v
	}
	return ""
}

func intField(record remote.Record, key string) int {
	if v, ok := record[key].(float64); ok {
		return int(v)
	}
	return 0
}

func int64Field(record remote.Record, key string) (int64, error) {
	switch v := record[key].(type) {
	case float64:
		return int64(v), nil
	case string:
		return strconv.ParseInt(v, 10, 64)
	default:
		return 0, fmt.Errorf("missing or non-numeric %q", key)
	}
}

func floatField(record remote.Record, key string) float64 {
	if v, ok := record[key].(float64); ok {
		return v
	}
	return 0
}

func boolField(record remote.Record, key string, fallback bool) bool {
	switch v := record[key].(type) {
	case bool:
		return v
	case float64:
		return v != 0
	default:
		return fallback
	}
}

// optionalInt64Field returns nil when the attribute is absent
func optionalInt64Field(record remote.Record, key string) interface{} {
	if id, err := int64Field(record, key); err == nil {
		return id
	}
	return nil
}
