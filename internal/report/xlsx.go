package report

import (
	"bytes"
	"fmt"
	"io"

	"gastos/internal/core"

	"github.com/xuri/excelize/v2"
)

const (
	SheetName      = "Gastos"
	ExportFileName = "resumo_gastos.xlsx"
	XLSXMediaType  = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// WriteXLSX writes the ledger as a single-sheet workbook.
func WriteXLSX(w io.Writer, l *core.Ledger) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	for i, row := range Rows(l) {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	if err := f.SetRowStyle(SheetName, 1, 1, bold); err != nil {
		return fmt.Errorf("style header: %w", err)
	}
	if err := f.SetColWidth(SheetName, "A", "G", 20); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// XLSX returns the workbook bytes.
func XLSX(l *core.Ledger) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, l); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
