package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"jobwatch-engine/internal/domain"

	"github.com/xuri/excelize/v2"
)

// SheetName is the worksheet holding the canonical set.
const SheetName = "Job Listings"

var (
	columnWidths = []float64{25, 30, 20, 12, 15, 28, 20, 50}

	categoryFills = map[domain.PostingCategory]string{
		domain.CategoryToday:               "C6EFCE",
		domain.CategoryYesterday:           "D9E1F2",
		domain.CategoryTwoDaysAgo:          "FCE4D6",
		domain.CategoryThreeToSevenDaysAgo: "FFF2CC",
		domain.CategoryMoreThanWeek:        "F2F2F2",
	}

	thinBorder = []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}
)

const (
	categoryCol = 6
	linkCol     = 8
)

// WriteWorkbook writes recs to a styled workbook at path, replacing any existing file.
// Nothing is written for an empty set so a failed run never blanks the previous export.
func WriteWorkbook(path string, recs []domain.JobRecord) error {
	if len(recs) == 0 {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return err
	}

	st, err := newStyles(f)
	if err != nil {
		return err
	}

	header := make([]any, len(domain.Columns))
	for i, c := range domain.Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return err
	}
	last, _ := excelize.CoordinatesToCellName(len(domain.Columns), 1)
	if err := f.SetCellStyle(SheetName, "A1", last, st.header); err != nil {
		return err
	}

	for i, r := range recs {
		row := i + 2
		if err := writeRow(f, st, row, r); err != nil {
			return fmt.Errorf("row %d: %w", row, err)
		}
	}

	for i, w := range columnWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(SheetName, col, col, w); err != nil {
			return err
		}
	}

	if err := f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return err
	}

	end, _ := excelize.CoordinatesToCellName(len(domain.Columns), len(recs)+1)
	if err := f.AutoFilter(SheetName, "A1:"+end, nil); err != nil {
		return err
	}

	return f.SaveAs(path)
}

type styles struct {
	header, data, link int
	category           map[domain.PostingCategory]int
}

func newStyles(f *excelize.File) (styles, error) {
	var (
		st  = styles{category: map[domain.PostingCategory]int{}}
		err error
	)
	st.header, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Family: "Calibri", Bold: true, Size: 12, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"2B579A"}},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
		Border:    thinBorder,
	})
	if err != nil {
		return st, err
	}

	dataFont := &excelize.Font{Family: "Calibri", Size: 11}
	dataAlign := &excelize.Alignment{Vertical: "center", WrapText: true}

	if st.data, err = f.NewStyle(&excelize.Style{Font: dataFont, Alignment: dataAlign, Border: thinBorder}); err != nil {
		return st, err
	}
	if st.link, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Family: "Calibri", Size: 11, Color: "0563C1", Underline: "single"},
		Alignment: dataAlign,
		Border:    thinBorder,
	}); err != nil {
		return st, err
	}
	for cat, color := range categoryFills {
		id, err := f.NewStyle(&excelize.Style{
			Font:      dataFont,
			Alignment: dataAlign,
			Border:    thinBorder,
			Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{color}},
		})
		if err != nil {
			return st, err
		}
		st.category[cat] = id
	}
	return st, nil
}

func writeRow(f *excelize.File, st styles, row int, r domain.JobRecord) error {
	cells := r.Row()
	values := make([]any, len(cells))
	for i, c := range cells {
		values[i] = c
	}

	first, _ := excelize.CoordinatesToCellName(1, row)
	last, _ := excelize.CoordinatesToCellName(len(cells), row)
	if err := f.SetSheetRow(SheetName, first, &values); err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetName, first, last, st.data); err != nil {
		return err
	}

	if id, ok := st.category[r.PostingCategory]; ok {
		cell, _ := excelize.CoordinatesToCellName(categoryCol, row)
		if err := f.SetCellStyle(SheetName, cell, cell, id); err != nil {
			return err
		}
	}

	if strings.HasPrefix(r.JobLink, "http") {
		cell, _ := excelize.CoordinatesToCellName(linkCol, row)
		if err := f.SetCellHyperLink(SheetName, cell, r.JobLink, "External"); err != nil {
			return err
		}
		if err := f.SetCellStyle(SheetName, cell, cell, st.link); err != nil {
			return err
		}
	}
	return nil
}

// ReadWorkbook loads the canonical set from a workbook written by WriteWorkbook.
// A missing file is an empty set; the header row is skipped.
func ReadWorkbook(path string) ([]domain.JobRecord, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheet := SheetName
	if idx, _ := f.GetSheetIndex(sheet); idx < 0 {
		sheet = f.GetSheetName(f.GetActiveSheetIndex())
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	return recordsFromRows(rows), nil
}

// Workbook is a merge baseline backed by the previous xlsx export.
type Workbook struct {
	Path string
}

func (w Workbook) Load(context.Context) ([]domain.JobRecord, error) {
	return ReadWorkbook(w.Path)
}

func recordsFromRows(rows [][]string) []domain.JobRecord {
	if len(rows) == 0 {
		return nil
	}
	out := make([]domain.JobRecord, 0, len(rows)-1)
	for _, cells := range rows[1:] {
		rec := domain.RecordFromRow(cells)
		if rec.Company == "" && rec.Title == "" {
			continue
		}
		out = append(out, rec)
	}
	return out
}
