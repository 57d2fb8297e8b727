package models

// RawTable is one tabular export exactly as read from disk: a header row
// followed by data rows. Cells are untrimmed strings.
type RawTable struct {
	Header []string   `json:"header"`
	Rows   [][]string `json:"rows"`
}

// Cell returns the value at column i of row r, or "" when the row is short.
func (t RawTable) Cell(r, i int) string {
	row := t.Rows[r]
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}
