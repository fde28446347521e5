package service

import (
	"context"
	"fmt"
	"time"

	"github.com/AnTengye/recscan/config"
)

// NewReportSource builds the report source selected by cfg.Reports.Source.
func NewReportSource(ctx context.Context, cfg *config.Config) (ReportSource, error) {
	switch cfg.Reports.Source {
	case config.SourceLocal:
		return NewLocalSource(cfg.Reports.Root, cfg.Reports.FinalDir), nil
	case config.SourceMinio:
		return NewMinioSource(&cfg.Minio)
	case config.SourceS3:
		return NewS3Source(ctx, &cfg.S3)
	case config.SourceAzure:
		return NewAzureSource(&cfg.Azure)
	default:
		return nil, fmt.Errorf("unknown report source %q", cfg.Reports.Source)
	}
}

// NewCompleter builds the configured completion backend behind a shared
// rate limiter and circuit breaker.
func NewCompleter(cfg *config.LLMConfig, metrics *Metrics) (Completer, error) {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second

	var (
		backend Completer
		err     error
	)
	switch cfg.Provider {
	case config.ProviderOpenAI:
		backend, err = NewOpenAICompleter(&cfg.OpenAI, timeout)
	case config.ProviderCohere:
		backend, err = NewCohereCompleter(&cfg.Cohere, timeout)
	case config.ProviderOllama:
		backend, err = NewOllamaCompleter(&cfg.Ollama, timeout)
	default:
		err = fmt.Errorf("unknown completion provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	return NewGuardedCompleter(backend, GuardSettings{
		RequestsPerMinute: cfg.RequestsPerMinute,
		MaxFailures:       cfg.Breaker.MaxFailures,
		OpenFor:           time.Duration(cfg.Breaker.OpenSeconds) * time.Second,
	}, metrics), nil
}

// Recommenders resolves extraction strategies by name. The model strategy is
// only available when a completer was configured.
type Recommenders struct {
	keyword *KeywordRecommender
	model   *ModelRecommender
}

func NewRecommenders(ext *config.ExtractionConfig, llm *config.LLMConfig, completer Completer) *Recommenders {
	r := &Recommenders{keyword: NewKeywordRecommender(ext.ExtraMarkers...)}
	if completer != nil {
		r.model = NewModelRecommender(completer,
			WithWindowChars(ext.WindowChars),
			WithTemperature(llm.Temperature),
			WithMaxTokens(llm.MaxTokens),
		)
	}
	return r
}

// Get returns the recommender for strategy.
func (r *Recommenders) Get(strategy string) (Recommender, error) {
	switch strategy {
	case config.StrategyKeyword:
		return r.keyword, nil
	case config.StrategyModel:
		if r.model == nil {
			return nil, ErrCompletionUnavailable
		}
		return r.model, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, strategy)
	}
}

// Available lists the strategies Get can serve.
func (r *Recommenders) Available() []string {
	out := []string{config.StrategyKeyword}
	if r.model != nil {
		out = append(out, config.StrategyModel)
	}
	return out
}
