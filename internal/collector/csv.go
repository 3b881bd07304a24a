package collector

import (
	"bytes"
	"encoding/csv"
	"io"

	"EquityLens/internal/model"
)

// ParseCSV reads a header line followed by data lines. Missing trailing
// values become empty strings; fewer than two lines yields no rows. Quoted
// fields are accepted but not required.
func ParseCSV(data []byte) ([]model.Row, error) {
	data = bytes.TrimSpace(data)
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if err == io.EOF {
		return []model.Row{}, nil
	}
	if err != nil {
		return nil, err
	}

	rows := []model.Row{}
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		row := make(model.Row, len(header))
		for i, key := range header {
			if i < len(rec) {
				row[key] = rec[i]
			} else {
				row[key] = ""
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Header returns the column names of the first row.
func Header(rows []model.Row) map[string]bool {
	out := map[string]bool{}
	if len(rows) == 0 {
		return out
	}
	for k := range rows[0] {
		out[k] = true
	}
	return out
}
