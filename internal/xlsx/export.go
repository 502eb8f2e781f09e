package xlsx

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"yahoo-comments-scraper/internal/layout"
)

const (
	defaultSheet = "Sheet1"
	// InputSheet — копия входного листа, первая в книге
	InputSheet = "input"
)

// Export сохраняет {dir}/{sheetName}.xlsx: лист input с копией входных
// строк и лист sheetName с сеткой результатов
func Export(dir, sheetName string, grid *layout.Grid, input [][]string) (string, error) {
	if sheetName == InputSheet {
		return "", fmt.Errorf("sheet name %q is reserved", sheetName)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create export dir: %w", err)
	}
	path := filepath.Join(dir, sheetName+".xlsx")

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(defaultSheet, InputSheet); err != nil {
		return "", fmt.Errorf("failed to rename sheet: %w", err)
	}
	if _, err := f.NewSheet(sheetName); err != nil {
		return "", fmt.Errorf("failed to add sheet %s: %w", sheetName, err)
	}

	if err := writeRows(f, InputSheet, input); err != nil {
		return "", err
	}
	if err := writeRows(f, sheetName, grid.Rows()); err != nil {
		return "", err
	}

	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("failed to save %s: %w", path, err)
	}

	return path, nil
}

// writeRows пишет строки через StreamWriter: по порядку, без удержания всей книги в памяти
func writeRows(f *excelize.File, sheet string, rows [][]string) error {
	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return err
	}

	for i, row := range rows {
		cellName, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := sw.SetRow(cellName, values); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
		}
	}

	return sw.Flush()
}
