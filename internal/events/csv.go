package events

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrEmptyCSV is returned when the input has no header row or no data rows.
var ErrEmptyCSV = errors.New("csv file is empty or invalid")

// ReadCSV tokenizes an RFC4180-ish CSV stream (quoted fields, escaped quotes,
// \r\n or \n line endings) into a header row and data rows. Rows whose field
// count differs from the header are skipped; content validation happens in
// Normalize, not here.
func ReadCSV(r io.Reader) (header []string, rows [][]string, err error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read csv: %w", err)
	}
	if len(records) < 2 {
		return nil, nil, ErrEmptyCSV
	}

	header = records[0]
	if len(header) > 0 {
		// Strip a UTF-8 BOM from the first header cell
		header[0] = strings.TrimPrefix(header[0], "\uFEFF")
	}

	for _, rec := range records[1:] {
		if len(rec) != len(header) {
			continue
		}
		if isBlankRow(rec) {
			continue
		}
		rows = append(rows, rec)
	}

	return header, rows, nil
}

func isBlankRow(rec []string) bool {
	for _, cell := range rec {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
