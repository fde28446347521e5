package service

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/AnTengye/recscan/model"
	"github.com/xuri/excelize/v2"
)

// Output column labels.
const (
	ColCompany         = "Empresa"
	ColFileName        = "Arquivo"
	ColStatus          = "Status"
	ColRecommendations = "Recomendações"

	resultsSheet = "Resultados"
)

// Workbook is a read-only view over an uploaded project spreadsheet.
type Workbook struct {
	sheets []string
	rows   map[string][][]string
}

// OpenWorkbook reads every sheet of an xlsx stream into memory.
func OpenWorkbook(r io.Reader) (*Workbook, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	wb := &Workbook{rows: make(map[string][][]string)}
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
		}
		wb.sheets = append(wb.sheets, sheet)
		wb.rows[sheet] = rows
	}
	return wb, nil
}

func (w *Workbook) Sheets() []string {
	return append([]string(nil), w.sheets...)
}

// Rows returns the raw cell grid of sheet; an empty name selects the first sheet.
func (w *Workbook) Rows(sheet string) (string, [][]string, error) {
	if sheet == "" {
		if len(w.sheets) == 0 {
			return "", nil, ErrSheetNotFound
		}
		sheet = w.sheets[0]
	}
	rows, ok := w.rows[sheet]
	if !ok {
		return "", nil, fmt.Errorf("%w: %q", ErrSheetNotFound, sheet)
	}
	return sheet, rows, nil
}

// HeaderIndex locates the header row of a sheet.
type HeaderIndex struct {
	Row     int      `json:"row"`
	Columns []string `json:"columns"`
}

// Index returns the position of the column named name, or -1.
func (h HeaderIndex) Index(name string) int {
	name = strings.TrimSpace(name)
	for i, c := range h.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// LocateHeader scans at most maxScanRows leading rows for the first one with a
// cell containing marker. Rows above it are not data.
func LocateHeader(rows [][]string, marker string, maxScanRows int) (HeaderIndex, bool) {
	for i := 0; i < len(rows) && i < maxScanRows; i++ {
		for _, cell := range rows[i] {
			if strings.Contains(cell, marker) {
				cols := make([]string, len(rows[i]))
				for j, c := range rows[i] {
					cols[j] = strings.TrimSpace(c)
				}
				return HeaderIndex{Row: i, Columns: cols}, true
			}
		}
	}
	return HeaderIndex{}, false
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// ProjectRows reads the data rows below the header. Rows blank in both columns
// are skipped; when companyFilter is set only that company's rows are kept.
func ProjectRows(rows [][]string, header HeaderIndex, companyCol, fileCol, companyFilter string) ([]model.ProjectRow, error) {
	ci, fi := header.Index(companyCol), header.Index(fileCol)
	if ci < 0 {
		return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, companyCol)
	}
	if fi < 0 {
		return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, fileCol)
	}

	var out []model.ProjectRow
	for i := header.Row + 1; i < len(rows); i++ {
		company, file := cell(rows[i], ci), cell(rows[i], fi)
		if company == "" && file == "" {
			continue
		}
		if companyFilter != "" && company != companyFilter {
			continue
		}
		out = append(out, model.ProjectRow{Company: company, FileName: file, Line: i - header.Row - 1})
	}
	return out, nil
}

// Companies lists the distinct non-empty companies below the header, sorted.
func Companies(rows [][]string, header HeaderIndex, companyCol string) []string {
	ci := header.Index(companyCol)
	if ci < 0 {
		return nil
	}
	seen := make(map[string]bool)
	var out []string
	for i := header.Row + 1; i < len(rows); i++ {
		c := cell(rows[i], ci)
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

func setRow(f *excelize.File, sheet string, rowNum int, values []interface{}) error {
	axis, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, axis, &values)
}

func newSheetFile(sheet string) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

func wrapColumn(f *excelize.File, sheet string, col int, width float64) error {
	name, err := excelize.ColumnNumberToName(col)
	if err != nil {
		return err
	}
	style, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
	})
	if err != nil {
		return err
	}
	if err := f.SetColStyle(sheet, name, style); err != nil {
		return err
	}
	return f.SetColWidth(sheet, name, name, width)
}

func toBytes(f *excelize.File) ([]byte, error) {
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteResults renders the result table as a single-sheet workbook.
func WriteResults(table model.ResultTable) ([]byte, error) {
	f, err := newSheetFile(resultsSheet)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if err := setRow(f, resultsSheet, 1, []interface{}{ColCompany, ColFileName, ColStatus, ColRecommendations}); err != nil {
		return nil, err
	}
	for i, r := range table {
		values := []interface{}{r.Company, r.FileName, r.Status.Label(), r.Recommendations}
		if err := setRow(f, resultsSheet, i+2, values); err != nil {
			return nil, err
		}
	}
	if err := wrapColumn(f, resultsSheet, 4, 100); err != nil {
		return nil, err
	}
	return toBytes(f)
}

// MergeResults copies sheet from its header row down and appends a recommendations
// column filled for the rows that were scanned (matched by ResultRecord.Line).
func MergeResults(rows [][]string, header HeaderIndex, sheet string, table model.ResultTable) ([]byte, error) {
	f, err := newSheetFile(sheet)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	width := len(header.Columns)
	for i := header.Row + 1; i < len(rows); i++ {
		if len(rows[i]) > width {
			width = len(rows[i])
		}
	}

	byLine := make(map[int]string, len(table))
	for _, r := range table {
		byLine[r.Line] = r.Recommendations
	}

	headerRow := make([]interface{}, width+1)
	for j := range headerRow[:width] {
		headerRow[j] = cell(header.Columns, j)
	}
	headerRow[width] = ColRecommendations
	if err := setRow(f, sheet, 1, headerRow); err != nil {
		return nil, err
	}

	for i := header.Row + 1; i < len(rows); i++ {
		line := i - header.Row - 1
		values := make([]interface{}, width+1)
		for j := 0; j < width; j++ {
			if j < len(rows[i]) {
				values[j] = rows[i][j]
			} else {
				values[j] = ""
			}
		}
		values[width] = byLine[line]
		if err := setRow(f, sheet, line+2, values); err != nil {
			return nil, err
		}
	}
	if err := wrapColumn(f, sheet, width+1, 100); err != nil {
		return nil, err
	}
	return toBytes(f)
}
