package reporting

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/mamadbah2/rigcost/internal/domain/models"
)

const (
	logSheet     = "Report Log"
	summarySheet = "Summary"
)

// ExportWorkbook builds an XLSX copy of the report log and the cost summary. The caller closes
// the returned file.
func (s *Service) ExportWorkbook(ctx context.Context) (*excelize.File, error) {
	dashboard, err := s.Dashboard(ctx)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", logSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(summarySheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("add summary sheet: %w", err)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})

	header := append(append([]string{}, models.ReportLogHeader...), "Valid")
	for i, h := range header {
		col, _ := excelize.ColumnNumberToName(i + 1)
		cell := col + "1"
		f.SetCellValue(logSheet, cell, h)
		f.SetCellStyle(logSheet, cell, cell, headerStyle)
	}

	for i, row := range dashboard.Rows {
		values := []interface{}{
			row.Date, numericCell(row.DayNumber), row.Phase, numericCell(row.DailyCost),
			numericCell(row.DepthFt), row.Notes, row.Filename, row.ID, row.Valid,
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(logSheet, cell, &values); err != nil {
			f.Close()
			return nil, fmt.Errorf("write log row %d: %w", i+1, err)
		}
	}
	for i, w := range []float64{12, 8, 12, 14, 12, 40, 40, 38, 8} {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(logSheet, col, col, w)
	}

	summary := dashboard.Summary
	for i, h := range []string{"Phase", "AFE", "Actual", "Variance", "Entries"} {
		col, _ := excelize.ColumnNumberToName(i + 1)
		cell := col + "1"
		f.SetCellValue(summarySheet, cell, h)
		f.SetCellStyle(summarySheet, cell, cell, headerStyle)
	}
	summaryRows := [][]interface{}{
		phaseRow(summary.Drilling),
		phaseRow(summary.Completion),
		{"Total", summary.TotalAFE.InexactFloat64(), summary.TotalActual.InexactFloat64(), summary.TotalVariance.InexactFloat64(),
			summary.Drilling.EntryCount + summary.Completion.EntryCount},
	}
	for i, values := range summaryRows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(summarySheet, cell, &values); err != nil {
			f.Close()
			return nil, fmt.Errorf("write summary row %d: %w", i+1, err)
		}
	}

	moneyStyle, _ := f.NewStyle(&excelize.Style{NumFmt: 3})
	f.SetCellStyle(summarySheet, "B2", "D4", moneyStyle)

	f.SetCellValue(summarySheet, "A6", "Days reported")
	f.SetCellValue(summarySheet, "B6", summary.DaysReported)
	f.SetCellValue(summarySheet, "A7", "Estimated days")
	f.SetCellValue(summarySheet, "B7", summary.EstimatedDays)
	f.SetCellValue(summarySheet, "A8", "Latest depth (ft)")
	f.SetCellValue(summarySheet, "B8", summary.LatestDepthFt)
	f.SetCellValue(summarySheet, "A10", FormatSummary(summary))
	f.SetColWidth(summarySheet, "A", "A", 18)
	f.SetColWidth(summarySheet, "B", "E", 16)

	return f, nil
}

// ExportFilename names the workbook after the day it was generated.
func (s *Service) ExportFilename() string {
	return "drilling_cost_report_" + s.now().Format(models.DateLayout) + ".xlsx"
}

func phaseRow(p models.PhaseSummary) []interface{} {
	return []interface{}{string(p.Phase), p.AFE.InexactFloat64(), p.Actual.InexactFloat64(), p.Variance.InexactFloat64(), p.EntryCount}
}

// numericCell keeps numbers numeric in the sheet and leaves anything unparseable as text.
func numericCell(value string) interface{} {
	if d, err := models.ParseDecimal(value); err == nil {
		return d.InexactFloat64()
	}
	return value
}
