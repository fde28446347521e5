package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// minimalPDF builds a valid PDF with one page per entry of pages, each showing
// its text with a standard font.
func minimalPDF(pages ...string) []byte {
	var objects []string
	n := len(pages)
	// 1: catalog, 2: pages, 3: font, then page/content pairs.
	kids := make([]string, n)
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}
	objects = append(objects,
		"<< /Type /Catalog /Pages 2 0 R >>",
		fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), n),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>",
	)
	for i, text := range pages {
		stream := fmt.Sprintf("BT /F1 12 Tf 72 712 Td (%s) Tj ET", text)
		objects = append(objects,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", 5+2*i),
			fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream),
		)
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

func TestPDFTextExtractorPagesInOrder(t *testing.T) {
	data := minimalPDF("Primeira pagina", "Recomendamos revisar")

	text, err := NewPDFTextExtractor().Extract(context.Background(), bytes.NewReader(data))
	require.NoError(t, err)

	first := strings.Index(text, "Primeira pagina")
	second := strings.Index(text, "Recomendamos revisar")
	require.GreaterOrEqual(t, first, 0, "text: %q", text)
	require.Greater(t, second, first, "pages must keep physical order")
	assert.Contains(t, text[first:second], "\n")
}

func TestPDFTextExtractorInvalid(t *testing.T) {
	_, err := NewPDFTextExtractor().Extract(context.Background(), strings.NewReader("isto não é um PDF"))
	require.Error(t, err)

	var ee *ExtractionError
	require.True(t, errors.As(err, &ee))
	assert.Equal(t, StagePDF, ee.Stage)
}

func TestPDFTextExtractorFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rel.pdf")
	require.NoError(t, os.WriteFile(path, minimalPDF("Conclusao final"), 0o644))

	text, err := NewPDFTextExtractor().ExtractFile(context.Background(), path)
	require.NoError(t, err)
	assert.Contains(t, text, "Conclusao final")

	_, err = NewPDFTextExtractor().ExtractFile(context.Background(), filepath.Join(dir, "nao-existe.pdf"))
	var ee *ExtractionError
	require.True(t, errors.As(err, &ee))
	assert.Contains(t, ee.Key, "nao-existe.pdf")
}

func TestExtractionErrorMessage(t *testing.T) {
	inner := errors.New("quota exceeded")
	err := &ExtractionError{Stage: StageCompletion, Key: "a.pdf", Err: inner}
	assert.Equal(t, "completion extraction failed for a.pdf: quota exceeded", err.Error())
	assert.ErrorIs(t, err, inner)

	err = &ExtractionError{Stage: StagePDF, Err: inner}
	assert.Equal(t, "pdf extraction failed: quota exceeded", err.Error())
}
