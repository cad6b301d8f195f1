package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/certidao-ocr/constants"
	"github.com/joseph-ayodele/certidao-ocr/internal/record"
)

const sheetName = "Certidoes"

// EncodeXLSX returns a workbook with a header row and one row per record.
// Null cells are written as empty strings; every record gets its row.
func EncodeXLSX(rows []record.Row) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if index, _ := f.GetSheetIndex(sheetName); index == -1 {
		if _, err := f.NewSheet(sheetName); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheetName)
	f.SetActiveSheet(activeIndex)
	_ = f.DeleteSheet("Sheet1")

	for i, h := range constants.Columns() {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return nil, err
		}
	}

	for r, row := range rows {
		cells := make([]any, 0, len(constants.Fields))
		// string cells keep CPF and registry numbers from losing leading zeros
		for _, v := range row.Strings("") {
			cells = append(cells, v)
		}
		cell, _ := excelize.CoordinatesToCellName(1, r+2)
		if err := f.SetSheetRow(sheetName, cell, &cells); err != nil {
			return nil, err
		}
		// an explicit height keeps all-null rows in the saved sheet
		if err := f.SetRowHeight(sheetName, r+2, 15); err != nil {
			return nil, err
		}
	}

	_ = f.SetColWidth(sheetName, "A", "C", 18)
	_ = f.SetColWidth(sheetName, "D", "D", 48) // address
	_ = f.SetColWidth(sheetName, "E", "L", 16)
	_ = f.SetColWidth(sheetName, "M", "M", 60) // notes

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeXLSX reads rows back from a workbook produced by EncodeXLSX.
func DecodeXLSX(data []byte) ([]record.Row, error) {
	f, err := excelize.OpenReader(bytesReader(data))
	if err != nil {
		return nil, fmt.Errorf("xlsx open: %w", err)
	}
	defer func() { _ = f.Close() }()

	// Rows rather than GetRows: GetRows drops trailing empty rows.
	it, err := f.Rows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("xlsx rows: %w", err)
	}
	defer func() { _ = it.Close() }()

	var rows []record.Row
	header := true
	for it.Next() {
		line, err := it.Columns()
		if err != nil {
			return nil, fmt.Errorf("xlsx row: %w", err)
		}
		if header {
			header = false
			continue
		}
		values := make([]*string, len(constants.Fields))
		for i := 0; i < len(line) && i < len(values); i++ {
			if line[i] != "" {
				v := line[i]
				values[i] = &v
			}
		}
		rows = append(rows, record.FromValues(values))
	}
	if err := it.Error(); err != nil {
		return nil, fmt.Errorf("xlsx rows: %w", err)
	}
	if header {
		return nil, fmt.Errorf("xlsx: missing header")
	}
	return rows, nil
}
