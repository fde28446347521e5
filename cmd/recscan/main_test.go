package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/AnTengye/recscan/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// fixture lays out a local report tree and a project workbook:
// ACME has a FINAL folder with an unrelated PDF, Beta has no folder.
func fixture(t *testing.T) (cfgPath, input string) {
	t.Helper()
	dir := t.TempDir()

	root := filepath.Join(dir, "pdfs")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "ACME", "FINAL"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "ACME", "FINAL", "Inventario.pdf"), []byte("%PDF-1.4"), 0o644))

	cfgPath = filepath.Join(dir, "config.yaml")
	cfg := "log:\n  level: error\nreports:\n  root: " + root + "\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o644))

	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"Projetos 2024"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]interface{}{"Empresa", "Nome do arquivo salvo"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A3", &[]interface{}{"ACME", "Relatorio Final"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A4", &[]interface{}{"Beta", "Relatorio Beta"}))
	input = filepath.Join(dir, "projetos.xlsx")
	require.NoError(t, f.SaveAs(input))

	return cfgPath, input
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestScanCommand(t *testing.T) {
	cfgPath, input := fixture(t)
	output := filepath.Join(t.TempDir(), "out.xlsx")

	out, err := run(t, "scan", "--config", cfgPath, "-i", input, "-o", output, "--workers", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "wrote 2 rows")
	assert.Contains(t, out, "Arquivo não encontrado")

	f, err := os.Open(output)
	require.NoError(t, err)
	defer f.Close()
	wb, err := service.OpenWorkbook(f)
	require.NoError(t, err)

	name, rows, err := wb.Rows("")
	require.NoError(t, err)
	assert.Equal(t, "Resultados", name)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"ACME", "Relatorio Final", "Arquivo não encontrado (nome parecido não encontrado)", "-"}, rows[1])
	assert.Equal(t, []string{"Beta", "Relatorio Beta", "Pasta FINAL não encontrada", "-"}, rows[2])
}

func TestScanCommandCompanyFilterAndMerge(t *testing.T) {
	cfgPath, input := fixture(t)
	output := filepath.Join(t.TempDir(), "merged.xlsx")

	_, err := run(t, "scan", "--config", cfgPath, "-i", input, "-o", output, "--company", "Beta", "--merge")
	require.NoError(t, err)

	f, err := os.Open(output)
	require.NoError(t, err)
	defer f.Close()
	wb, err := service.OpenWorkbook(f)
	require.NoError(t, err)

	_, rows, err := wb.Rows("Sheet1")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Empresa", "Nome do arquivo salvo", "Recomendações"}, rows[0])
	assert.Equal(t, []string{"ACME", "Relatorio Final"}, rows[1])
	assert.Equal(t, []string{"Beta", "Relatorio Beta", "-"}, rows[2])
}

func TestScanCommandErrors(t *testing.T) {
	cfgPath, input := fixture(t)

	_, err := run(t, "scan", "--config", cfgPath, "-i", input, "--strategy", "magic")
	assert.ErrorIs(t, err, service.ErrUnknownStrategy)

	_, err = run(t, "scan", "--config", cfgPath, "-i", input, "--sheet", "Missing")
	assert.ErrorIs(t, err, service.ErrSheetNotFound)

	_, err = run(t, "scan", "--config", cfgPath)
	assert.Error(t, err, "input flag is required")

	_, err = run(t, "scan", "--config", filepath.Join(t.TempDir(), "absent.yaml"), "-i", input)
	assert.Error(t, err, "explicit config must exist")
}

func TestSheetsCommand(t *testing.T) {
	cfgPath, input := fixture(t)

	out, err := run(t, "sheets", "--config", cfgPath, "-i", input)
	require.NoError(t, err)
	assert.Contains(t, out, "Sheet1")
	assert.Contains(t, out, "header at row 2")
	assert.Contains(t, out, "Nome do arquivo salvo")
	assert.Contains(t, out, "  ACME\n  Beta\n")
}

func TestReportsCommand(t *testing.T) {
	cfgPath, _ := fixture(t)

	out, err := run(t, "reports", "--config", cfgPath)
	require.NoError(t, err)
	assert.Equal(t, "ACME/FINAL/Inventario.pdf\n", out)
}

func TestAnalyzeCommand(t *testing.T) {
	cfgPath, _ := fixture(t)

	// The stored file is not a parseable PDF.
	_, err := run(t, "analyze", "--config", cfgPath, "ACME/FINAL/Inventario.pdf")
	var extErr *service.ExtractionError
	require.ErrorAs(t, err, &extErr)
	assert.Equal(t, service.StagePDF, extErr.Stage)

	_, err = run(t, "analyze", "--config", cfgPath)
	assert.Error(t, err, "key argument is required")
}
