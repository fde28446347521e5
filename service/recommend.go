package service

import (
	"context"
	"regexp"
	"strings"

	"github.com/AnTengye/recscan/model"
	"golang.org/x/text/unicode/norm"
)

// Recommender finds recommendation statements in a document's text.
type Recommender interface {
	Extract(ctx context.Context, text string) (model.Extraction, error)
	Name() string
}

// DefaultMarkers are lower-case phrases that signal advice, obligation or necessity
// in Portuguese, English, French and Spanish.
var DefaultMarkers = []string{
	// Portuguese
	"recomenda", "deve ser", "é necessário", "sugerimos",
	"aconselhamos", "indicamos", "importante que",
	"é essencial que", "convém que",

	// English
	"recommend", "should", "must", "it is necessary",
	"we suggest", "we recommend", "we advise that",
	"critical that", "it is essential", "it is recommended that",
	"you ought to",

	// French
	"recommande", "doit être", "il est nécessaire",
	"nous suggérons", "nous conseillons", "nous indiquons",
	"il est important que", "il est essentiel que", "il faudrait",
	"nous recommandons", "vous devriez",

	// Spanish
	"recomienda", "debe ser", "es necesario",
	"aconsejamos", "es importante que", "es esencial que", "debería",
	"recomendamos", "conviene que",
}

var sentenceBoundary = regexp.MustCompile(`[.!?]\s+`)

// SplitSentences cuts text after '.', '!' or '?' followed by whitespace.
// Abbreviations split too; this is a heuristic, not a tokenizer.
func SplitSentences(text string) []string {
	return sentenceBoundary.Split(text, -1)
}

// KeywordRecommender keeps the sentences containing at least one marker.
type KeywordRecommender struct {
	markers []string
}

// NewKeywordRecommender uses DefaultMarkers plus any extra markers.
func NewKeywordRecommender(extra ...string) *KeywordRecommender {
	seen := make(map[string]bool)
	var markers []string
	for _, m := range append(append([]string{}, DefaultMarkers...), extra...) {
		m = normalize(strings.TrimSpace(m))
		if m == "" || seen[m] {
			continue
		}
		seen[m] = true
		markers = append(markers, m)
	}
	return &KeywordRecommender{markers: markers}
}

func (k *KeywordRecommender) Name() string { return "keyword" }

func (k *KeywordRecommender) Markers() []string {
	return append([]string(nil), k.markers...)
}

func (k *KeywordRecommender) Extract(ctx context.Context, text string) (model.Extraction, error) {
	return model.Extraction{Passages: ExtractKeywordRecommendations(text, k.markers)}, nil
}

// ExtractKeywordRecommendations returns, in document order and trimmed, every
// sentence whose lower-cased form contains one of markers. Markers match inside
// longer words as well.
func ExtractKeywordRecommendations(text string, markers []string) []string {
	normalized := make([]string, 0, len(markers))
	for _, m := range markers {
		if m = normalize(m); m != "" {
			normalized = append(normalized, m)
		}
	}

	var out []string
	for _, sentence := range SplitSentences(text) {
		lower := normalize(sentence)
		for _, m := range normalized {
			if strings.Contains(lower, m) {
				out = append(out, strings.TrimSpace(sentence))
				break
			}
		}
	}
	return out
}

// normalize composes accents (PDF text often carries decomposed forms) and lower-cases.
func normalize(s string) string {
	return strings.ToLower(norm.NFC.String(s))
}
