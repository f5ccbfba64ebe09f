// Package export renders requests as spreadsheets and printable certificates.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// RequestRow is one flattened request in a workbook.
type RequestRow struct {
	ID           string
	Kind         string
	Status       string
	Workers      string
	LeaveType    string
	StartDate    string
	EndDate      string
	Days         int
	Destination  string
	Amount       string
	Granted      string
	RequestDate  string
	LastDecision string
}

var requestColumns = []string{
	"ID", "Kind", "Status", "Workers", "Leave type", "Start", "End", "Days",
	"Destination", "Requested amount", "Granted amount", "Requested on", "Last decision",
}

func (r RequestRow) values() []interface{} {
	return []interface{}{
		r.ID, r.Kind, r.Status, r.Workers, r.LeaveType, r.StartDate, r.EndDate, r.Days,
		r.Destination, r.Amount, r.Granted, r.RequestDate, r.LastDecision,
	}
}

// WriteRequestsWorkbook writes rows as a single-sheet XLSX workbook.
func WriteRequestsWorkbook(w io.Writer, sheet string, rows []RequestRow) error {
	if sheet == "" {
		sheet = "Requests"
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	for i, col := range requestColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, col); err != nil {
			return err
		}
	}
	last, _ := excelize.CoordinatesToCellName(len(requestColumns), 1)
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return err
	}

	for r, row := range rows {
		for c, v := range row.values() {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
	}

	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}
	lastCol, _ := excelize.ColumnNumberToName(len(requestColumns))
	if err := f.SetColWidth(sheet, "A", lastCol, 18); err != nil {
		return err
	}

	return f.Write(w)
}
