package service

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/AnTengye/recscan/config"
	"github.com/AnTengye/recscan/pkg/logger"
	"github.com/ollama/ollama/api"
)

// OllamaCompleter runs prompts on a locally hosted model through the Ollama API.
type OllamaCompleter struct {
	client      *api.Client
	model       string
	contextSize int
}

func NewOllamaCompleter(cfg *config.OllamaConfig, timeout time.Duration) (*OllamaCompleter, error) {
	base, err := url.Parse(strings.TrimSuffix(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid ollama base url %q: %w", cfg.BaseURL, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid ollama base url %q", cfg.BaseURL)
	}

	return &OllamaCompleter{
		client:      api.NewClient(base, &http.Client{Timeout: timeout}),
		model:       cfg.Model,
		contextSize: cfg.ContextSize,
	}, nil
}

func (c *OllamaCompleter) Name() string { return "ollama" }

// Complete frames the prompt as an instruction/response pair and stops the model
// at the next section marker. Failures are left to the caller's breaker.
func (c *OllamaCompleter) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	stop := req.Stop
	if len(stop) == 0 {
		stop = []string{"###"}
	}

	options := map[string]any{
		"temperature": req.Temperature,
		"stop":        stop,
	}
	if c.contextSize > 0 {
		options["num_ctx"] = c.contextSize
	}
	if req.MaxTokens > 0 {
		options["num_predict"] = req.MaxTokens
	}

	stream := false
	var out strings.Builder
	err := c.client.Generate(ctx, &api.GenerateRequest{
		Model:   c.model,
		Prompt:  "### Instrução:\n" + req.Prompt + "\n\n### Resposta:",
		System:  req.System,
		Stream:  &stream,
		Options: options,
	}, func(resp api.GenerateResponse) error {
		out.WriteString(resp.Response)
		if resp.Done {
			logger.Debug(ctx, "ollama generation finished",
				"model", resp.Model,
				"eval_count", resp.EvalCount,
				"done_reason", resp.DoneReason,
			)
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to complete: %w", err)
	}
	return out.String(), nil
}
