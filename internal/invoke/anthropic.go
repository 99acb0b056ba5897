package invoke

import (
	"context"
	"strings"

	"github.com/abandonsearch/place-rater/internal/model"
	"github.com/abandonsearch/place-rater/internal/resilience"
	"github.com/abandonsearch/place-rater/pkg/anthropic"
)

const jsonOnlySystem = "You rate abandoned places. Reply with a single JSON object and nothing else."

// AnthropicInvoker calls Claude with the text prompt. Images are not sent.
type AnthropicInvoker struct {
	client      anthropic.Client
	maxTokens   int64
	temperature float64
}

// NewAnthropicInvoker wires an Anthropic client.
func NewAnthropicInvoker(client anthropic.Client, maxTokens int64, temperature float64) *AnthropicInvoker {
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	return &AnthropicInvoker{client: client, maxTokens: maxTokens, temperature: temperature}
}

// Invoke implements Invoker. Every client error is transient.
func (a *AnthropicInvoker) Invoke(ctx context.Context, backend model.Backend, place model.Place) (string, error) {
	prompt, err := BuildPrompt(place)
	if err != nil {
		return "", resilience.NewFatalError(err)
	}

	temp := a.temperature
	resp, err := a.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       backend.Model,
		MaxTokens:   a.maxTokens,
		System:      jsonOnlySystem,
		Prompt:      prompt,
		Temperature: &temp,
	})
	if err != nil {
		return "", resilience.NewTransientError(err, anthropic.StatusCode(err))
	}
	resp.Usage.Log(backend.Model)
	return strings.TrimSpace(resp.Text), nil
}
