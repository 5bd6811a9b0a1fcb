package repository

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aniladanir/lr-gateway/internal/domain"
	"github.com/xuri/excelize/v2"
)

var header = []string{
	"Date", "Time", "Truck No", "From", "To", "Weight", "Description", "Name", "Template", "Mobile", "Cancelled", "Status",
}

var columnWidths = []float64{12, 10, 16, 16, 16, 12, 24, 16, 10, 16, 10, 16}

// sheetFor names the month sheet a record belongs to, e.g. "Oct 2026".
func sheetFor(r domain.LRRecord) string {
	if at, ok := domain.ParseIST(r.Date, r.Time); ok {
		return at.Format("Jan 2006")
	}
	return r.CreatedAt.In(domain.IST).Format("Jan 2006")
}

// ensureSheet creates the month sheet with its header row if missing.
func ensureSheet(f *excelize.File, sheet string) error {
	idx, err := f.GetSheetIndex(sheet)
	if err != nil {
		return err
	}
	if idx >= 0 {
		return nil
	}

	// A fresh workbook carries an empty default sheet; reuse it.
	if names := f.GetSheetList(); len(names) == 1 && names[0] == "Sheet1" {
		rows, err := f.GetRows("Sheet1")
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			if err := f.SetSheetName("Sheet1", sheet); err != nil {
				return err
			}
			return writeHeader(f, sheet)
		}
	}

	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	return writeHeader(f, sheet)
}

func writeHeader(f *excelize.File, sheet string) error {
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	row := make([]any, len(header))
	for i, h := range header {
		row[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &row); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
		return err
	}
	for i, w := range columnWidths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, col, col, w); err != nil {
			return err
		}
	}
	return nil
}

// appendRow writes r below the last used row of its month sheet and returns
// the sheet and 1-based row number.
func appendRow(f *excelize.File, r domain.LRRecord) (string, int, error) {
	sheet := sheetFor(r)
	if err := ensureSheet(f, sheet); err != nil {
		return "", 0, err
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return "", 0, err
	}
	n := len(rows) + 1
	cell, err := excelize.CoordinatesToCellName(1, n)
	if err != nil {
		return "", 0, err
	}
	values := recordToRow(r)
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return "", 0, err
	}
	return sheet, n, nil
}

func recordToRow(r domain.LRRecord) []any {
	cancelled := ""
	if r.Cancelled {
		cancelled = "Yes"
	}
	return []any{
		r.Date, r.Time, r.TruckNumber, r.From, r.To, r.Weight, r.Description, r.Name,
		r.Template, r.Mobile, cancelled, r.Status,
	}
}

// readSheet maps every data row of sheet by its header names. Rows are
// returned with their 1-based sheet row number.
func readSheet(f *excelize.File, sheet string) ([]domain.LRRecord, error) {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, nil
	}

	col := make(map[string]int)
	for i, h := range rows[0] {
		col[strings.TrimSpace(h)] = i
	}
	get := func(row []string, names ...string) string {
		for _, name := range names {
			if i, ok := col[name]; ok && i < len(row) {
				return strings.TrimSpace(row[i])
			}
		}
		return ""
	}

	out := make([]domain.LRRecord, 0, len(rows)-1)
	for i, row := range rows[1:] {
		template, _ := strconv.Atoi(get(row, "Template"))
		out = append(out, domain.LRRecord{
			Date:        get(row, "Date"),
			Time:        get(row, "Time"),
			TruckNumber: get(row, "Truck No"),
			From:        get(row, "From"),
			To:          get(row, "To"),
			Weight:      get(row, "Weight"),
			Description: get(row, "Description"),
			Name:        get(row, "Name", "name"),
			Template:    template,
			Mobile:      get(row, "Mobile", "Mobile No", "Phone"),
			Cancelled:   strings.EqualFold(get(row, "Cancelled"), "yes"),
			Status:      get(row, "Status"),
			Sheet:       sheet,
			Row:         i + 2,
		})
	}
	return out, nil
}

// markRow flips the Cancelled and Status cells of one row.
func markRow(f *excelize.File, r domain.LRRecord) error {
	rows, err := f.GetRows(r.Sheet)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("sheet %s has no header", r.Sheet)
	}

	set := func(name, value string) error {
		idx := -1
		for i, h := range rows[0] {
			if strings.TrimSpace(h) == name {
				idx = i
				break
			}
		}
		if idx < 0 {
			idx = len(rows[0])
			rows[0] = append(rows[0], name)
			headerCell, err := excelize.CoordinatesToCellName(idx+1, 1)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(r.Sheet, headerCell, name); err != nil {
				return err
			}
		}
		cell, err := excelize.CoordinatesToCellName(idx+1, r.Row)
		if err != nil {
			return err
		}
		return f.SetCellValue(r.Sheet, cell, value)
	}

	if err := set("Cancelled", "Yes"); err != nil {
		return err
	}
	return set("Status", domain.CancelStatus(r.Status))
}

// buildWorkbook lays records out on month sheets.
func buildWorkbook(records []domain.LRRecord) (*excelize.File, error) {
	f := excelize.NewFile()
	for _, r := range records {
		if _, _, err := appendRow(f, r); err != nil {
			f.Close()
			return nil, err
		}
	}
	if len(records) == 0 {
		if err := ensureSheet(f, "Sheet1"); err != nil {
			f.Close()
			return nil, err
		}
		if err := writeHeader(f, "Sheet1"); err != nil {
			f.Close()
			return nil, err
		}
	}
	return f, nil
}
