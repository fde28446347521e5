package model

import (
	"fmt"
	"strings"
)

// ProjectRow is one project line of the input workbook.
type ProjectRow struct {
	Company  string `json:"company"`
	FileName string `json:"file_name"`
	// Line is the zero-based index of the row below the header.
	Line int `json:"line"`
}

// Status is the per-row outcome of a scan.
type Status string

const (
	StatusFound             Status = "found"
	StatusNoRecommendations Status = "no_recommendations"
	StatusFileNotFound      Status = "file_not_found"
	StatusFolderNotFound    Status = "folder_not_found"
	StatusExtractionFailed  Status = "extraction_failed"
)

var statusLabels = map[Status]string{
	StatusFound:             "Encontrado",
	StatusNoRecommendations: "Sem recomendações",
	StatusFileNotFound:      "Arquivo não encontrado (nome parecido não encontrado)",
	StatusFolderNotFound:    "Pasta FINAL não encontrada",
	StatusExtractionFailed:  "Falha na extração",
}

// Label is the text shown in the exported spreadsheet.
func (s Status) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

// Placeholder fills the recommendations cell of rows without findings.
const Placeholder = "-"

// Extraction holds what a recommender found in one document.
// Keyword matching yields Passages; model delegation yields a verbatim Response.
type Extraction struct {
	Passages  []string `json:"passages,omitempty"`
	Response  string   `json:"response,omitempty"`
	Delegated bool     `json:"delegated"`
}

// Empty reports whether nothing was found. A delegated extraction is never empty:
// the model's answer is kept as-is even when it says nothing was found.
func (e Extraction) Empty() bool {
	if e.Delegated {
		return false
	}
	return len(e.Passages) == 0
}

// Format renders the extraction for a spreadsheet cell.
func (e Extraction) Format() string {
	if e.Delegated {
		if r := strings.TrimSpace(e.Response); r != "" {
			return r
		}
		return Placeholder
	}
	if len(e.Passages) == 0 {
		return Placeholder
	}
	lines := make([]string, len(e.Passages))
	for i, p := range e.Passages {
		lines[i] = fmt.Sprintf("%d. %s", i+1, p)
	}
	return strings.Join(lines, "\n")
}

// ResultRecord is the outcome for one ProjectRow.
type ResultRecord struct {
	Company         string  `json:"company"`
	FileName        string  `json:"file_name"`
	Line            int     `json:"line"`
	Status          Status  `json:"status"`
	StatusLabel     string  `json:"status_label"`
	Recommendations string  `json:"recommendations"`
	Matched         string  `json:"matched,omitempty"`
	Score           float64 `json:"score,omitempty"`
	Detail          string  `json:"detail,omitempty"`
}

// ResultTable mirrors the input rows one-to-one and in order.
type ResultTable []ResultRecord

// Counts tallies records per status.
func (t ResultTable) Counts() map[Status]int {
	counts := make(map[Status]int)
	for _, r := range t {
		counts[r.Status]++
	}
	return counts
}
