package service

import (
	"context"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// DefaultSimilarityThreshold is the minimum ratio a candidate file name must reach.
const DefaultSimilarityThreshold = 0.7

// Resolution is the report chosen for a project row.
type Resolution struct {
	Key   string  `json:"key"`
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// Resolver maps loosely typed project file names onto stored report files.
type Resolver struct {
	source    ReportSource
	threshold float64
}

// NewResolver builds a resolver over source. A threshold <= 0 selects the default.
func NewResolver(source ReportSource, threshold float64) *Resolver {
	if threshold <= 0 {
		threshold = DefaultSimilarityThreshold
	}
	return &Resolver{source: source, threshold: threshold}
}

func (r *Resolver) Threshold() float64 { return r.threshold }

// Resolve finds the report for company whose name is closest to "<baseName>.pdf".
// It returns ErrFolderNotFound when the company has no candidates and
// ErrFileNotFound when none reaches the threshold.
func (r *Resolver) Resolve(ctx context.Context, company, baseName string) (Resolution, error) {
	candidates, err := r.source.Candidates(ctx, company)
	if err != nil {
		return Resolution{}, err
	}

	names := make([]string, len(candidates))
	for i, c := range candidates {
		names[i] = c.Name
	}

	idx, score := BestMatch(baseName+".pdf", names, r.threshold)
	if idx < 0 {
		return Resolution{}, ErrFileNotFound
	}
	return Resolution{Key: candidates[idx].Key, Name: candidates[idx].Name, Score: score}, nil
}

// Similarity is the sequence-alignment ratio 2*M/T between two strings,
// computed over characters.
func Similarity(candidate, desired string) float64 {
	m := difflib.NewMatcher(splitChars(candidate), splitChars(desired))
	return m.Ratio()
}

// BestMatch returns the index and score of the candidate most similar to desired.
// Candidates scoring below threshold are never chosen; ties keep the earliest
// candidate. It returns -1 when nothing qualifies.
func BestMatch(desired string, candidates []string, threshold float64) (int, float64) {
	best, bestScore := -1, 0.0
	for i, c := range candidates {
		score := Similarity(c, desired)
		if score < threshold {
			continue
		}
		if best < 0 || score > bestScore {
			best, bestScore = i, score
		}
	}
	return best, bestScore
}

func splitChars(s string) []string {
	return strings.Split(s, "")
}
