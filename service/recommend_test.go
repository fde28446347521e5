package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitSentences(t *testing.T) {
	got := SplitSentences("O relatório recomenda X. Isso é ótimo.")
	require.Len(t, got, 2)
	assert.Equal(t, "O relatório recomenda X", got[0])
	assert.Equal(t, "Isso é ótimo.", got[1])

	assert.Equal(t, []string{"Sem pontuação final"}, SplitSentences("Sem pontuação final"))
	assert.Equal(t, []string{"Pergunta", "Sim", "Claro"}, SplitSentences("Pergunta? Sim! Claro"))
	// No whitespace after the dot: not a boundary.
	assert.Equal(t, []string{"versão 1.2 instalada"}, SplitSentences("versão 1.2 instalada"))
}

func TestExtractKeywordRecommendations(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		markers []string
		want    []string
	}{
		{
			name:    "portuguese marker",
			text:    "Sugerimos revisar o processo. O clima estava bom.",
			markers: []string{"sugerimos"},
			want:    []string{"Sugerimos revisar o processo"},
		},
		{
			name:    "no match",
			text:    "O clima estava bom. Nada a declarar.",
			markers: DefaultMarkers,
			want:    nil,
		},
		{
			name:    "containment inside longer word",
			text:    "The team recommended changes. Weather was fine.",
			markers: DefaultMarkers,
			want:    []string{"The team recommended changes"},
		},
		{
			name:    "order preserved across languages",
			text:    "Es necesario cambiar. Nada. You must stop! Il faudrait partir?",
			markers: DefaultMarkers,
			want:    []string{"Es necesario cambiar", "You must stop", "Il faudrait partir?"},
		},
		{
			name:    "surrounding whitespace trimmed",
			text:    "   We should act now.   ",
			markers: DefaultMarkers,
			want:    []string{"We should act now"},
		},
		{
			name:    "decomposed accents still match",
			text:    "É necessário trocar. Fim.",
			markers: []string{"é necessário"},
			want:    []string{"É necessário trocar"},
		},
		{
			name:    "empty text",
			text:    "",
			markers: DefaultMarkers,
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractKeywordRecommendations(tt.text, tt.markers))
		})
	}
}

func TestKeywordExtractionIdempotent(t *testing.T) {
	text := "Recomenda-se trocar o filtro. O equipamento opera. Deve ser feito anualmente. We should monitor it."
	first := ExtractKeywordRecommendations(text, DefaultMarkers)
	require.Len(t, first, 3)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, ExtractKeywordRecommendations(text, DefaultMarkers))
	}
}

func TestKeywordRecommender(t *testing.T) {
	k := NewKeywordRecommender("  Atenção  ", "recommend")
	assert.Equal(t, "keyword", k.Name())

	markers := k.Markers()
	assert.Contains(t, markers, "atenção")
	seen := make(map[string]int)
	for _, m := range markers {
		seen[m]++
	}
	assert.Equal(t, 1, seen["recommend"])

	ext, err := k.Extract(context.Background(), "ATENÇÃO ao prazo. Tudo certo.")
	require.NoError(t, err)
	assert.Equal(t, []string{"ATENÇÃO ao prazo"}, ext.Passages)
	assert.False(t, ext.Delegated)
	assert.Equal(t, "1. ATENÇÃO ao prazo", ext.Format())

	ext, err = k.Extract(context.Background(), "Tudo certo.")
	require.NoError(t, err)
	assert.True(t, ext.Empty())
	assert.Equal(t, "-", ext.Format())
}

func TestDefaultMarkersCoverFourLanguages(t *testing.T) {
	for _, m := range []string{"recomenda", "recommend", "recommande", "recomienda"} {
		assert.Contains(t, DefaultMarkers, m)
	}
}
