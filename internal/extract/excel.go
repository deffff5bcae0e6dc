package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// extractExcel returns one line per non-empty row of every visible sheet, with
// the row's cells joined by spaces. Hidden sheets usually hold lookup data.
func extractExcel(content []byte) (string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return "", fmt.Errorf("open spreadsheet: %w", err)
	}
	defer f.Close()

	var lines []string
	for _, sheet := range f.GetSheetList() {
		if visible, err := f.GetSheetVisible(sheet); err == nil && !visible {
			continue
		}
		sheetLines, err := sheetText(f, sheet)
		if err != nil {
			return "", err
		}
		lines = append(lines, sheetLines...)
	}
	return strings.Join(lines, "\n"), nil
}

func sheetText(f *excelize.File, sheet string) ([]string, error) {
	rows, err := f.Rows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	defer rows.Close()

	var lines []string
	for rows.Next() {
		cols, err := rows.Columns()
		if err != nil {
			return nil, fmt.Errorf("read row in sheet %q: %w", sheet, err)
		}
		if line := strings.Join(strings.Fields(strings.Join(cols, " ")), " "); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, rows.Error()
}
