package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/AnTengye/recscan/model"
)

// DefaultWindowChars is how much of a document's tail is sent to the model.
const DefaultWindowChars = 3000

const systemInstruction = "Você é um especialista técnico. Extraia recomendações das conclusões de relatórios."

const promptTemplate = "Você é um especialista técnico. Abaixo está um trecho das conclusões de um relatório técnico.\n" +
	"Extraia apenas as recomendações encontradas nas conclusões, em formato de lista com marcadores (bullet points).\n" +
	"Ignore qualquer informação que não seja uma sugestão, orientação ou ação proposta.\n\n" +
	"Texto:\n\"\"\"\n%s\n\"\"\""

// TrailingWindow returns the last n characters of text, or all of it when shorter.
func TrailingWindow(text string, n int) string {
	runes := []rune(text)
	if n <= 0 || len(runes) <= n {
		return text
	}
	return string(runes[len(runes)-n:])
}

// BuildPrompt wraps a document excerpt in the extraction instructions.
func BuildPrompt(excerpt string) string {
	return fmt.Sprintf(promptTemplate, excerpt)
}

// ModelRecommender delegates extraction to a completion service, sending only
// the tail of the document where conclusions usually sit.
type ModelRecommender struct {
	completer   Completer
	windowChars int
	temperature float64
	maxTokens   int
}

type ModelOption func(*ModelRecommender)

func WithWindowChars(n int) ModelOption {
	return func(m *ModelRecommender) {
		if n > 0 {
			m.windowChars = n
		}
	}
}

func WithTemperature(t float64) ModelOption {
	return func(m *ModelRecommender) { m.temperature = t }
}

func WithMaxTokens(n int) ModelOption {
	return func(m *ModelRecommender) { m.maxTokens = n }
}

func NewModelRecommender(c Completer, opts ...ModelOption) *ModelRecommender {
	m := &ModelRecommender{
		completer:   c,
		windowChars: DefaultWindowChars,
		temperature: 0.2,
		maxTokens:   512,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *ModelRecommender) Name() string { return "model" }

// Extract returns the model's answer verbatim (trimmed). A failed completion is
// reported as *ExtractionError carrying the service's message.
func (m *ModelRecommender) Extract(ctx context.Context, text string) (model.Extraction, error) {
	req := CompletionRequest{
		System:      systemInstruction,
		Prompt:      BuildPrompt(TrailingWindow(text, m.windowChars)),
		Temperature: m.temperature,
		MaxTokens:   m.maxTokens,
	}

	out, err := m.completer.Complete(ctx, req)
	if err != nil {
		return model.Extraction{Delegated: true}, &ExtractionError{
			Stage: StageCompletion,
			Err:   fmt.Errorf("%s: %w", m.completer.Name(), err),
		}
	}
	return model.Extraction{Response: strings.TrimSpace(out), Delegated: true}, nil
}
