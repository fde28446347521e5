package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/AnTengye/recscan/config"
	cohere "github.com/cohere-ai/cohere-go/v2"
	cohereclient "github.com/cohere-ai/cohere-go/v2/client"
)

// CohereCompleter calls the Cohere v2 chat API.
type CohereCompleter struct {
	client *cohereclient.Client
	model  string
}

func NewCohereCompleter(cfg *config.CohereConfig, timeout time.Duration) (*CohereCompleter, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("cohere: missing api key")
	}
	client := cohereclient.NewClient(
		cohereclient.WithToken(cfg.APIKey),
		cohereclient.WithHTTPClient(&http.Client{Timeout: timeout}),
	)
	return &CohereCompleter{client: client, model: cfg.Model}, nil
}

func (c *CohereCompleter) Name() string { return "cohere" }

func (c *CohereCompleter) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	var messages cohere.ChatMessages
	if req.System != "" {
		messages = append(messages, &cohere.ChatMessageV2{
			Role: "system",
			System: &cohere.SystemMessageV2{
				Content: &cohere.SystemMessageV2Content{String: req.System},
			},
		})
	}
	messages = append(messages, &cohere.ChatMessageV2{
		Role: "user",
		User: &cohere.UserMessageV2{
			Content: &cohere.UserMessageV2Content{String: req.Prompt},
		},
	})

	temperature := req.Temperature
	chatReq := &cohere.V2ChatRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: &temperature,
	}
	if req.MaxTokens > 0 {
		maxTokens := req.MaxTokens
		chatReq.MaxTokens = &maxTokens
	}
	if len(req.Stop) > 0 {
		chatReq.StopSequences = req.Stop
	}

	resp, err := c.client.V2.Chat(ctx, chatReq)
	if err != nil {
		return "", err
	}
	if resp == nil || resp.Message == nil {
		return "", errors.New("cohere chat returned empty response")
	}

	var sb strings.Builder
	for _, item := range resp.Message.Content {
		if item != nil && item.Text != nil {
			sb.WriteString(item.Text.Text)
		}
	}
	return sb.String(), nil
}
