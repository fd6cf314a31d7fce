// Package report renders the final record sequence as a styled xlsx
// artifact.
package report

import (
	"fmt"
	"os"

	"github.com/xuri/excelize/v2"

	"github.com/haltiala/vahti/telemetry"
	"github.com/haltiala/vahti/types"
)

const (
	// SheetName is the single worksheet every report carries.
	SheetName = "AWS Resources Report"

	maxColumnWidth = 50

	headerFill = "366092"
	greenFill  = "C6EFCE" // Created
	yellowFill = "FFEB9C" // Modified
	redFill    = "FFC7CE" // Deleted
	blueFill   = "B6D7FF" // Existing / sentinel
)

// FillFor returns the row fill color for a classification. The notification
// legend and the renderer must agree on this mapping.
func FillFor(changeType types.ChangeType) string {
	switch changeType {
	case types.ChangeCreated:
		return greenFill
	case types.ChangeModified:
		return yellowFill
	case types.ChangeDeleted:
		return redFill
	default:
		return blueFill
	}
}

// Renderer builds xlsx artifacts.
type Renderer struct {
	logger *telemetry.Logger
}

// NewRenderer creates a renderer.
func NewRenderer() *Renderer {
	return &Renderer{logger: telemetry.NewLogger("report")}
}

// Render builds the workbook: a header row, one row per record in sequence
// order, each row filled according to its own change type, columns sized to
// their content.
func (r *Renderer) Render(records []types.InventoryRecord) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	header := make([]interface{}, len(types.FieldNames))
	for i, name := range types.FieldNames {
		header[i] = name
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return nil, fmt.Errorf("failed to write header row: %w", err)
	}

	for i, record := range records {
		row := make([]interface{}, 0, len(types.FieldNames))
		for _, v := range record.Fields() {
			row = append(row, v)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, fmt.Errorf("failed to compute cell name: %w", err)
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := r.applyStyles(f, records); err != nil {
		return nil, err
	}
	if err := r.sizeColumns(f, records); err != nil {
		return nil, err
	}

	return f, nil
}

// WriteTemp renders the records and saves the workbook to a temporary
// file, returning its path. The caller owns removal.
func (r *Renderer) WriteTemp(records []types.InventoryRecord) (string, error) {
	f, err := r.Render(records)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	tmp, err := os.CreateTemp("", "vahti-report-*.xlsx")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	path := tmp.Name()
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := f.SaveAs(path); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("failed to save report: %w", err)
	}

	r.logger.Debug().
		Str("path", path).
		Int("records", len(records)).
		Msg("report artifact written")
	return path, nil
}

func (r *Renderer) applyStyles(f *excelize.File, records []types.InventoryRecord) error {
	lastCol, err := excelize.ColumnNumberToName(len(types.FieldNames))
	if err != nil {
		return fmt.Errorf("failed to compute last column: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{headerFill}, Pattern: 1},
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	if err := f.SetCellStyle(SheetName, "A1", lastCol+"1", headerStyle); err != nil {
		return fmt.Errorf("failed to style header row: %w", err)
	}

	// One style per distinct fill, created on first use
	styles := make(map[string]int)
	for i, record := range records {
		fill := FillFor(record.ChangeType)
		style, ok := styles[fill]
		if !ok {
			style, err = f.NewStyle(&excelize.Style{
				Fill: excelize.Fill{Type: "pattern", Color: []string{fill}, Pattern: 1},
			})
			if err != nil {
				return fmt.Errorf("failed to create fill style: %w", err)
			}
			styles[fill] = style
		}

		rowNum := i + 2
		if err := f.SetCellStyle(SheetName,
			fmt.Sprintf("A%d", rowNum),
			fmt.Sprintf("%s%d", lastCol, rowNum),
			style,
		); err != nil {
			return fmt.Errorf("failed to style row %d: %w", rowNum, err)
		}
	}
	return nil
}

// sizeColumns sets each column to its longest value plus padding, capped.
func (r *Renderer) sizeColumns(f *excelize.File, records []types.InventoryRecord) error {
	for col, name := range types.FieldNames {
		width := len(name)
		for _, record := range records {
			if l := len(record.Fields()[col]); l > width {
				width = l
			}
		}
		width += 2
		if width > maxColumnWidth {
			width = maxColumnWidth
		}

		colName, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return fmt.Errorf("failed to compute column name: %w", err)
		}
		if err := f.SetColWidth(SheetName, colName, colName, float64(width)); err != nil {
			return fmt.Errorf("failed to size column %s: %w", colName, err)
		}
	}
	return nil
}
