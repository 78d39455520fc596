package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// Reserved CSV column names; every other column becomes an attribute.
var (
	entityColumns = map[string]struct{}{
		"id": {}, "kind": {}, "name": {}, "valid_from": {},
	}
	relationshipColumns = map[string]struct{}{
		"id": {}, "source": {}, "target": {}, "type": {}, "valid_from": {}, "valid_to": {},
	}
)

// ParseEntityCSV reads entity records from a headered CSV file. Required
// columns: kind, name. Optional: id, valid_from. Any other column is taken
// as an attribute; empty cells are skipped.
func ParseEntityCSV(r io.Reader) ([]EntityRecord, error) {
	header, rows, err := readAll(r)
	if err != nil {
		return nil, err
	}
	if err := requireColumns(header, "kind", "name"); err != nil {
		return nil, err
	}

	var out []EntityRecord
	for i, row := range rows {
		rec := EntityRecord{Attrs: map[string]string{}}
		for j, col := range header {
			val := row[j]
			switch col {
			case "id":
				rec.ID = val
			case "kind":
				rec.Kind = val
			case "name":
				rec.Name = val
			case "valid_from":
				if rec.ValidFrom, err = parseMillis(val); err != nil {
					return nil, fmt.Errorf("csv row %d: valid_from: %w", i+2, err)
				}
			default:
				if val != "" {
					rec.Attrs[col] = val
				}
			}
		}
		out = append(out, rec)
	}
	return out, nil
}

// ParseRelationshipCSV reads relationship records from a headered CSV file.
// Required columns: source, target, type. Optional: id, valid_from,
// valid_to. Any other column is taken as an attribute.
func ParseRelationshipCSV(r io.Reader) ([]RelationshipRecord, error) {
	header, rows, err := readAll(r)
	if err != nil {
		return nil, err
	}
	if err := requireColumns(header, "source", "target", "type"); err != nil {
		return nil, err
	}

	var out []RelationshipRecord
	for i, row := range rows {
		rec := RelationshipRecord{Attrs: map[string]string{}}
		for j, col := range header {
			val := row[j]
			switch col {
			case "id":
				rec.ID = val
			case "source":
				rec.Source = val
			case "target":
				rec.Target = val
			case "type":
				rec.Type = val
			case "valid_from":
				if rec.ValidFrom, err = parseMillis(val); err != nil {
					return nil, fmt.Errorf("csv row %d: valid_from: %w", i+2, err)
				}
			case "valid_to":
				if val != "" {
					to, err := parseMillis(val)
					if err != nil {
						return nil, fmt.Errorf("csv row %d: valid_to: %w", i+2, err)
					}
					rec.ValidTo = &to
				}
			default:
				if val != "" {
					rec.Attrs[col] = val
				}
			}
		}
		out = append(out, rec)
	}
	return out, nil
}

func readAll(r io.Reader) (header []string, rows [][]string, err error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	all, err := cr.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(all) == 0 {
		return nil, nil, fmt.Errorf("parse csv: missing header row")
	}
	return all[0], all[1:], nil
}

func requireColumns(header []string, required ...string) error {
	have := make(map[string]struct{}, len(header))
	for _, col := range header {
		have[col] = struct{}{}
	}
	for _, col := range required {
		if _, ok := have[col]; !ok {
			return fmt.Errorf("parse csv: missing required column %q", col)
		}
	}
	return nil
}

func parseMillis(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseInt(s, 10, 64)
}
