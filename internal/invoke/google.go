package invoke

import (
	"context"

	"github.com/abandonsearch/place-rater/internal/model"
	"github.com/abandonsearch/place-rater/internal/resilience"
	"github.com/abandonsearch/place-rater/pkg/gemini"
)

// GeminiOptions tunes the google provider.
type GeminiOptions struct {
	Temperature     float32
	MaxOutputTokens int32
}

// GeminiInvoker calls Gemini with the prompt, response schema and images.
type GeminiInvoker struct {
	client gemini.Client
	images *ImageLoader
	opts   GeminiOptions
	schema *gemini.Schema
}

// NewGeminiInvoker wires a Gemini client. images may be nil to send text only.
func NewGeminiInvoker(client gemini.Client, images *ImageLoader, opts GeminiOptions) *GeminiInvoker {
	return &GeminiInvoker{
		client: client,
		images: images,
		opts:   opts,
		schema: ResponseSchema(),
	}
}

// Invoke implements Invoker. Every client error is transient.
func (g *GeminiInvoker) Invoke(ctx context.Context, backend model.Backend, place model.Place) (string, error) {
	prompt, err := BuildPrompt(place)
	if err != nil {
		return "", resilience.NewFatalError(err)
	}

	req := gemini.GenerateRequest{
		Model:           backend.Model,
		Prompt:          prompt,
		Temperature:     &g.opts.Temperature,
		MaxOutputTokens: g.opts.MaxOutputTokens,
		JSON:            true,
		Schema:          g.schema,
	}
	if g.images != nil {
		req.Images = g.images.Load(ctx, place)
	}

	text, err := g.client.Generate(ctx, req)
	if err != nil {
		return "", resilience.NewTransientError(err, gemini.StatusCode(err))
	}
	return text, nil
}
