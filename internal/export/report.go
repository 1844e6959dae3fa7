// Package export writes reconciliation entries to spreadsheets for the team
// that repairs them by hand.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"cancelsaga/internal/models"

	"github.com/xuri/excelize/v2"
)

const sheetName = "Reconciliation"

var headers = []string{"ID", "Booking", "Effect", "Status", "Error", "Created", "Payload"}

// BuildReconciliationReport lays the entries out one per row under a bold
// header. The caller owns the returned file and must Close it.
func BuildReconciliationReport(entries []models.ReconciliationEntry) (*excelize.File, error) {
	f := excelize.NewFile()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	_ = f.DeleteSheet("Sheet1")

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font: &excelize.Font{Bold: true},
	})
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheetName, cell, h)
		_ = f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}
	_ = f.SetColWidth(sheetName, "A", "D", 14)
	_ = f.SetColWidth(sheetName, "E", "E", 40)
	_ = f.SetColWidth(sheetName, "F", "F", 20)
	_ = f.SetColWidth(sheetName, "G", "G", 60)

	for i, e := range entries {
		row := i + 2
		lastErr := ""
		if e.LastError != nil {
			lastErr = *e.LastError
		}
		values := []interface{}{
			e.ID,
			e.BookingID,
			e.Effect,
			e.Status,
			lastErr,
			e.CreatedAt.Format(time.DateTime),
			e.Payload,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				_ = f.Close()
				return nil, fmt.Errorf("write cell %s: %w", cell, err)
			}
		}
	}

	return f, nil
}

// WriteReconciliationReport saves the report into dir and returns its path.
func WriteReconciliationReport(dir string, entries []models.ReconciliationEntry, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}

	f, err := BuildReconciliationReport(entries)
	if err != nil {
		return "", err
	}
	defer f.Close()

	path := filepath.Join(dir, fmt.Sprintf("reconciliation_%s.xlsx", now.Format("20060102_150405")))
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("save report: %w", err)
	}
	return path, nil
}
