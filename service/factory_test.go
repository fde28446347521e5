package service

import (
	"context"
	"testing"

	"github.com/AnTengye/recscan/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewReportSource(t *testing.T) {
	cfg := config.Default()

	src, err := NewReportSource(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, "local", src.Name())

	cfg.Reports.Source = config.SourceMinio
	cfg.Minio = config.MinioConfig{Endpoint: "localhost:9000", Bucket: "relatorios"}
	src, err = NewReportSource(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, "minio", src.Name())

	cfg.Reports.Source = config.SourceAzure
	cfg.Azure.ConnectionString = ""
	_, err = NewReportSource(context.Background(), cfg)
	assert.Error(t, err)

	cfg.Reports.Source = "ftp"
	_, err = NewReportSource(context.Background(), cfg)
	assert.Error(t, err)
}

func TestNewCompleter(t *testing.T) {
	cfg := config.Default().LLM

	cfg.Provider = config.ProviderOllama
	c, err := NewCompleter(&cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, "ollama", c.Name())
	_, guarded := c.(*GuardedCompleter)
	assert.True(t, guarded)

	cfg.Provider = config.ProviderOpenAI
	cfg.OpenAI.APIKey = ""
	_, err = NewCompleter(&cfg, nil)
	assert.Error(t, err, "openai without a key must be rejected")

	cfg.OpenAI.APIKey = "sk-test"
	c, err = NewCompleter(&cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, "openai", c.Name())

	cfg.Provider = config.ProviderCohere
	cfg.Cohere.APIKey = ""
	_, err = NewCompleter(&cfg, nil)
	assert.Error(t, err)

	cfg.Provider = "bard"
	_, err = NewCompleter(&cfg, nil)
	assert.Error(t, err)
}

func TestRecommenders(t *testing.T) {
	cfg := config.Default()

	r := NewRecommenders(&cfg.Extraction, &cfg.LLM, nil)
	assert.Equal(t, []string{"keyword"}, r.Available())

	rec, err := r.Get("keyword")
	require.NoError(t, err)
	assert.Equal(t, "keyword", rec.Name())

	_, err = r.Get("model")
	assert.ErrorIs(t, err, ErrCompletionUnavailable)

	_, err = r.Get("magic")
	assert.ErrorIs(t, err, ErrUnknownStrategy)

	r = NewRecommenders(&cfg.Extraction, &cfg.LLM, &scriptedCompleter{})
	assert.Equal(t, []string{"keyword", "model"}, r.Available())
	rec, err = r.Get("model")
	require.NoError(t, err)
	assert.Equal(t, "model", rec.Name())
}

func TestMetricsNilSafe(t *testing.T) {
	var m *Metrics
	m.ObserveRow("keyword", "found", 0)
	m.ObserveCompletion("openai", OutcomeOK)
}
