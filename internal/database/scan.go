package database

// ScanRows drains the result set into a slice of column-name-keyed maps,
// ready for JSON encoding in API responses. The slice is non-nil even for
// zero rows, and the Rows are always closed on return.
func ScanRows(rows Rows) ([]map[string]any, error) {
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, errQuery("failed to read column names", err)
	}

	result := make([]map[string]any, 0)
	for rows.Next() {
		row, err := scanInto(rows, columns)
		if err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, errQuery("error during row iteration", err)
	}
	return result, nil
}

// ScanRow reads a single row as a map. The driver reports a missing row as
// ErrKindNotFound through the Scan error.
func ScanRow(row Row, columns []string) (map[string]any, error) {
	return scanInto(row, columns)
}

// scanner is the Scan-only subset shared by Row and Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanInto(s scanner, columns []string) (map[string]any, error) {
	// Scan targets are *any so the driver can write whatever type it has.
	dest := make([]any, len(columns))
	ptrs := make([]any, len(columns))
	for i := range dest {
		ptrs[i] = &dest[i]
	}

	if err := s.Scan(ptrs...); err != nil {
		return nil, errQuery("failed to scan row", err)
	}

	row := make(map[string]any, len(columns))
	for i, col := range columns {
		row[col] = normalizeValue(dest[i])
	}
	return row, nil
}

// normalizeValue makes scanned values JSON-friendly. The MySQL driver
// returns text columns as []byte, which would otherwise encode as base64.
func normalizeValue(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}
