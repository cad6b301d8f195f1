package record

import (
	"encoding/csv"
	"fmt"
	"io"
	"slices"

	"github.com/joseph-ayodele/certidao-ocr/constants"
)

// WriteCSV writes a header line and one line per row. Null cells are empty.
func WriteCSV(w io.Writer, rows ...Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(constants.Columns()); err != nil {
		return fmt.Errorf("csv header: %w", err)
	}
	for _, r := range rows {
		if err := cw.Write(r.Strings("")); err != nil {
			return fmt.Errorf("csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV reads rows written by WriteCSV. Empty cells come back as null.
func ReadCSV(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("csv header: %w", err)
	}
	if !slices.Equal(header, constants.Columns()) {
		return nil, fmt.Errorf("csv header mismatch: %v", header)
	}
	var rows []Row
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv row %d: %w", len(rows)+1, err)
		}
		values := make([]*string, len(rec))
		for i, cell := range rec {
			if cell != "" {
				values[i] = &cell
			}
		}
		rows = append(rows, FromValues(values))
	}
	return rows, nil
}
