// Package export renders the grouped shortlist as an Excel workbook.
package export

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"talent-shortlist/internal/shortlist"

	"github.com/xuri/excelize/v2"
)

var ErrExportFailed = errors.New("EXPORT_FAILED")

const summarySheet = "Summary"

var candidateHeaders = []string{
	"Phase", "Application", "Posted", "Candidate", "Email", "Phone",
	"Score", "Experience", "Education", "Skills", "Shortlisted On",
}

type Options struct {
	SheetName   string
	GeneratedAt time.Time
}

// WriteShortlist writes a workbook with a per-phase summary sheet and one row
// per shortlisted candidate, in grouping order.
func WriteShortlist(w io.Writer, groups []shortlist.PhaseGroup, opts Options) error {
	if opts.SheetName == "" || opts.SheetName == summarySheet {
		opts.SheetName = "Shortlist"
	}
	if opts.GeneratedAt.IsZero() {
		opts.GeneratedAt = time.Now()
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return fmt.Errorf("%w: %v", ErrExportFailed, err)
	}
	if _, err := f.NewSheet(opts.SheetName); err != nil {
		return fmt.Errorf("%w: %v", ErrExportFailed, err)
	}

	if err := writeSummary(f, groups, opts.GeneratedAt); err != nil {
		return fmt.Errorf("%w: summary sheet: %v", ErrExportFailed, err)
	}
	if err := writeCandidates(f, opts.SheetName, groups); err != nil {
		return fmt.Errorf("%w: candidates sheet: %v", ErrExportFailed, err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("%w: %v", ErrExportFailed, err)
	}
	return nil
}

func headerStyle(f *excelize.File) (int, error) {
	return f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
}

func writeSummary(f *excelize.File, groups []shortlist.PhaseGroup, generated time.Time) error {
	f.SetColWidth(summarySheet, "A", "A", 28)
	f.SetColWidth(summarySheet, "B", "C", 16)

	style, err := headerStyle(f)
	if err != nil {
		return err
	}

	f.SetCellValue(summarySheet, "A1", "Shortlist")
	f.SetCellValue(summarySheet, "B1", generated.Format("2006-01-02 15:04"))
	f.SetCellStyle(summarySheet, "A1", "B1", style)

	f.SetCellValue(summarySheet, "A3", "Phase")
	f.SetCellValue(summarySheet, "B3", "Applications")
	f.SetCellValue(summarySheet, "C3", "Candidates")
	f.SetCellStyle(summarySheet, "A3", "C3", style)

	row := 4
	total := 0
	for _, g := range groups {
		n := 0
		for _, app := range g.Applications {
			n += len(app.Candidates)
		}
		total += n
		f.SetCellValue(summarySheet, fmt.Sprintf("A%d", row), g.PhaseName)
		f.SetCellValue(summarySheet, fmt.Sprintf("B%d", row), len(g.Applications))
		f.SetCellValue(summarySheet, fmt.Sprintf("C%d", row), n)
		row++
	}
	f.SetCellValue(summarySheet, fmt.Sprintf("A%d", row), "Total")
	f.SetCellValue(summarySheet, fmt.Sprintf("C%d", row), total)
	return nil
}

func writeCandidates(f *excelize.File, sheet string, groups []shortlist.PhaseGroup) error {
	style, err := headerStyle(f)
	if err != nil {
		return err
	}

	for col, h := range candidateHeaders {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		f.SetCellValue(sheet, cell, h)
	}
	last, _ := excelize.ColumnNumberToName(len(candidateHeaders))
	f.SetCellStyle(sheet, "A1", last+"1", style)
	f.SetColWidth(sheet, "A", "B", 24)
	f.SetColWidth(sheet, "C", "C", 12)
	f.SetColWidth(sheet, "D", "E", 26)
	f.SetColWidth(sheet, "F", "I", 14)
	f.SetColWidth(sheet, "J", "J", 40)
	f.SetColWidth(sheet, "K", "K", 14)

	row := 2
	for _, g := range groups {
		for _, app := range g.Applications {
			for _, c := range app.Candidates {
				values := []interface{}{
					g.PhaseName, app.DisplayTitle, app.PostedDate, c.Name, c.Email, c.Phone,
					scoreCell(c.ScoreText(), c.NumericScore), c.Experience, c.Education,
					strings.Join(c.Skills, ", "), c.ShortlistedDate,
				}
				cell, _ := excelize.CoordinatesToCellName(1, row)
				if err := f.SetSheetRow(sheet, cell, &values); err != nil {
					return err
				}
				row++
			}
		}
	}

	if row > 2 {
		f.AutoFilter(sheet, fmt.Sprintf("A1:%s%d", last, row-1), []excelize.AutoFilterOptions{})
	}
	f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
	return nil
}

// scoreCell writes numeric scores as numbers so the column sorts.
func scoreCell(text string, numeric func() (float64, bool)) interface{} {
	if text == "" {
		return ""
	}
	if strings.HasSuffix(text, "%") {
		return text
	}
	if v, ok := numeric(); ok {
		return v
	}
	return text
}
