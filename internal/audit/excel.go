package audit

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const maxSheetName = 31

// Workbook is a sequential sheet writer over excelize.
type Workbook struct {
	file        *excelize.File
	headerStyle int
	sheet       string
	row         int
}

// NewWorkbook creates an empty workbook. The default sheet is renamed by the first AddSheet.
func NewWorkbook() (*Workbook, error) {
	f := excelize.NewFile()
	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#E0E0E0"}},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create header style: %w", err)
	}
	return &Workbook{file: f, headerStyle: style}, nil
}

// AddSheet starts a new sheet and makes it current.
func (w *Workbook) AddSheet(name string) error {
	if len(name) > maxSheetName {
		name = name[:maxSheetName]
	}

	if w.sheet == "" {
		if err := w.file.SetSheetName("Sheet1", name); err != nil {
			return fmt.Errorf("rename sheet %s: %w", name, err)
		}
	} else if _, err := w.file.NewSheet(name); err != nil {
		return fmt.Errorf("create sheet %s: %w", name, err)
	}

	w.sheet = name
	w.row = 1
	return nil
}

// WriteHeader writes a styled header row and freezes it.
func (w *Workbook) WriteHeader(columns []string) error {
	values := make([]interface{}, len(columns))
	for i, c := range columns {
		values[i] = c
	}
	startRow := w.row
	if err := w.WriteRow(values); err != nil {
		return err
	}

	first, _ := excelize.CoordinatesToCellName(1, startRow)
	last, _ := excelize.CoordinatesToCellName(len(columns), startRow)
	if err := w.file.SetCellStyle(w.sheet, first, last, w.headerStyle); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	lastCol, _ := excelize.ColumnNumberToName(len(columns))
	_ = w.file.SetColWidth(w.sheet, "A", lastCol, 18)

	return w.file.SetPanes(w.sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      startRow,
		TopLeftCell: fmt.Sprintf("A%d", startRow+1),
		ActivePane:  "bottomLeft",
	})
}

// WriteRow writes values starting at column A of the next row.
func (w *Workbook) WriteRow(values []interface{}) error {
	if w.sheet == "" {
		return fmt.Errorf("no active sheet")
	}
	cell, err := excelize.CoordinatesToCellName(1, w.row)
	if err != nil {
		return err
	}
	if err := w.file.SetSheetRow(w.sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s!%s: %w", w.sheet, cell, err)
	}
	w.row++
	return nil
}

// Save writes the workbook as xlsx.
func (w *Workbook) Save(out io.Writer) error {
	return w.file.Write(out)
}

func (w *Workbook) Close() error {
	return w.file.Close()
}
