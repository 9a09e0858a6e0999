package remote

import (
	"bytes"
	"encoding/json"
)

// UnwrapStrategy tags which envelope shape produced a record list. The
// remote API is inconsistent about how it wraps lists, so normalization
// tries a fixed sequence of strategies instead of guessing.
type UnwrapStrategy int

const (
	// UnwrapNone means no strategy matched; the result is explicitly empty
	UnwrapNone UnwrapStrategy = iota
	// UnwrapBareArray is a top-level JSON array
	UnwrapBareArray
	// UnwrapDataField is {"data": [...]}
	UnwrapDataField
	// UnwrapNamedField is a resource-specific field, e.g. {"funis": [...]}
	UnwrapNamedField
	// UnwrapFirstArrayProperty is the first object property holding an array
	UnwrapFirstArrayProperty
)

// String returns a human-readable representation of the strategy
func (s UnwrapStrategy) String() string {
	switch s {
	case UnwrapBareArray:
		return "bare_array"
	case UnwrapDataField:
		return "data_field"
	case UnwrapNamedField:
		return "named_field"
	case UnwrapFirstArrayProperty:
		return "first_array_property"
	default:
		return "none"
	}
}

// Record is one normalized remote record
type Record = map[string]interface{}

// Page is one normalized page of a paginated resource. Total and TotalPages
// are nil when the response did not carry pagination metadata (bare array).
type Page struct {
	Records    []Record
	Total      *int
	Page       *int
	TotalPages *int
}

// pagedEnvelope mirrors the remote {data, total, page, totalPages} shape
type pagedEnvelope struct {
	Data       []Record `json:"data"`
	Total      *int     `json:"total"`
	Page       *int     `json:"page"`
	TotalPages *int     `json:"totalPages"`
}

// NormalizeList unwraps a list response body into records. Strategies are
// tried in fixed order: bare array, "data" field, the resource-specific
// named field, then the first object property that is itself an array. When
// nothing matches, the result is empty with UnwrapNone — never an error.
func NormalizeList(body []byte, namedField string) ([]Record, UnwrapStrategy) {
	// (a) bare array
	if records, ok := decodeRecordArray(body); ok {
		return records, UnwrapBareArray
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return []Record{}, UnwrapNone
	}

	// (b) {"data": [...]}
	if raw, ok := fields["data"]; ok {
		if records, ok := decodeRecordArray(raw); ok {
			return records, UnwrapDataField
		}
	}

	// (c) resource-specific named field
	if namedField != "" {
		if raw, ok := fields[namedField]; ok {
			if records, ok := decodeRecordArray(raw); ok {
				return records, UnwrapNamedField
			}
		}
	}

	// (d) first object property that is an array, in document order
	if records, ok := firstArrayProperty(body); ok {
		return records, UnwrapFirstArrayProperty
	}

	return []Record{}, UnwrapNone
}

// NormalizePage unwraps one page of a paginated resource. A bare array is
// accepted as a page with unknown totals.
func NormalizePage(body []byte) Page {
	if records, ok := decodeRecordArray(body); ok {
		return Page{Records: records}
	}

	var env pagedEnvelope
	if err := json.Unmarshal(body, &env); err != nil || env.Data == nil {
		return Page{Records: []Record{}}
	}

	return Page{
		Records:    env.Data,
		Total:      env.Total,
		Page:       env.Page,
		TotalPages: env.TotalPages,
	}
}

// decodeRecordArray decodes raw JSON as an array of objects
func decodeRecordArray(raw []byte) ([]Record, bool) {
	var records []Record
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, false
	}
	if records == nil {
		records = []Record{}
	}
	return records, true
}

// firstArrayProperty scans the object's properties in document order and
// returns the first one that decodes as a record array. A plain map lookup
// would lose the ordering the remote sends, so this walks tokens instead.
func firstArrayProperty(body []byte) ([]Record, bool) {
	dec := json.NewDecoder(bytes.NewReader(body))

	tok, err := dec.Token()
	if err != nil {
		return nil, false
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, false
	}

	for dec.More() {
		// Property name
		if _, err := dec.Token(); err != nil {
			return nil, false
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, false
		}

		if records, ok := decodeRecordArray(raw); ok {
			return records, true
		}
	}

	return nil, false
}
