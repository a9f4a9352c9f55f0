package exporter

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// WriteXLSX writes the document as a single-sheet XLSX workbook to w
func WriteXLSX(w io.Writer, doc Document) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	if doc.Title != "" {
		sheet = sanitizeSheetName(doc.Title)
		if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
			return fmt.Errorf("failed to name sheet: %w", err)
		}
	}

	row := 1
	if len(doc.Headers) > 0 {
		if err := setRow(f, sheet, row, doc.Headers); err != nil {
			return err
		}
		row++
	}

	for _, r := range doc.Rows {
		if err := setRow(f, sheet, row, r); err != nil {
			return err
		}
		row++
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []string) error {
	for col, value := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return fmt.Errorf("failed to resolve cell: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, value); err != nil {
			return fmt.Errorf("failed to set cell %s: %w", cell, err)
		}
	}
	return nil
}

// sanitizeSheetName trims the title to Excel's 31-character sheet name limit
func sanitizeSheetName(title string) string {
	if len(title) > 31 {
		return title[:31]
	}
	return title
}
