package handler

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/AnTengye/recscan/config"
	"github.com/AnTengye/recscan/service"
	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// textExtractor treats report files as plain text.
type textExtractor struct{}

func (textExtractor) Extract(ctx context.Context, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	return string(data), err
}

// stubCompleter always answers with the same list.
type stubCompleter struct{}

func (stubCompleter) Name() string { return "stub" }

func (stubCompleter) Complete(ctx context.Context, req service.CompletionRequest) (string, error) {
	return "- Revisar o contrato", nil
}

type testEnv struct {
	cfg          *config.Config
	source       *service.LocalSource
	scanner      *service.Scanner
	recommenders *service.Recommenders
	store        *service.JobStore
}

// newTestEnv lays out reports under a temp root:
// ACME/FINAL/Relatorio Final.pdf and Beta/FINAL/Relatorio Beta.pdf.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		filepath.Join("ACME", "FINAL", "Relatorio Final.pdf"): "Introdução. Sugerimos revisar o processo. Fim.",
		filepath.Join("Beta", "FINAL", "Relatorio Beta.pdf"):  "Tudo certo. Nada a declarar.",
	}
	for rel, content := range files {
		p := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	cfg := config.Default()
	cfg.Reports.Root = root

	src := service.NewLocalSource(root, cfg.Reports.FinalDir)
	scanner := service.NewScanner(src, service.NewResolver(src, cfg.Reports.SimilarityThreshold), textExtractor{}, 2, nil)
	return &testEnv{
		cfg:          cfg,
		source:       src,
		scanner:      scanner,
		recommenders: service.NewRecommenders(&cfg.Extraction, &cfg.LLM, stubCompleter{}),
		store:        service.NewJobStore(10),
	}
}

// projectWorkbook returns an xlsx with a title row above the header.
func projectWorkbook(t *testing.T) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	rows := [][]interface{}{
		{"Projetos 2023"},
		{"Empresa", "Nome do arquivo salvo", "Responsável"},
		{"ACME", "Relatorio Final", "Ana"},
		{"Beta", "Relatorio Beta", "Rui"},
		{"Delta", "Relatorio Delta", "Eva"},
	}
	if err := f.SetSheetName("Sheet1", "Projetos"); err != nil {
		t.Fatal(err)
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow("Projetos", cell, &row); err != nil {
			t.Fatal(err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// multipartRequest builds a POST with a file part and extra form fields.
func multipartRequest(t *testing.T, url, filename string, content []byte, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if filename != "" {
		part, err := w.CreateFormFile("file", filename)
		if err != nil {
			t.Fatal(err)
		}
		part.Write(content)
	}
	for k, v := range fields {
		w.WriteField(k, v)
	}
	w.Close()

	req := httptest.NewRequest(http.MethodPost, url, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}
