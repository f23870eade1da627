package common

import "time"

// NormalizeRow converts driver-specific column values into plain native
// scalars (string, number, boolean, nil) so handlers and serializers never
// have to special-case what the sqlite driver produced.
func NormalizeRow(row map[string]any) map[string]any {
	if row == nil {
		return nil
	}
	out := make(map[string]any, len(row))
	for k, v := range row {
		out[k] = normalizeValue(v)
	}
	return out
}

// NormalizeRows normalizes every row of a result set. A nil input yields an
// empty, non-nil slice so JSON output is always an array.
func NormalizeRows(rows []map[string]any) []map[string]any {
	out := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		out = append(out, NormalizeRow(row))
	}
	return out
}

func normalizeValue(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case []byte:
		return string(val)
	case time.Time:
		return val.UTC().Format(time.RFC3339)
	case *time.Time:
		if val == nil {
			return nil
		}
		return val.UTC().Format(time.RFC3339)
	default:
		return v
	}
}
