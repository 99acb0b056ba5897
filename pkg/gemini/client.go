// Package gemini wraps github.com/google/generative-ai-go for single-shot
// JSON generation with optional inline images.
package gemini

import (
	"context"
	"errors"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/rotisserie/eris"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// Client defines the Gemini operations used by the rater.
type Client interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
	Close() error
}

// Image is an inline image part.
type Image struct {
	MIMEType string
	Data     []byte
}

// GenerateRequest describes one generation call. Images are sent before the
// prompt text.
type GenerateRequest struct {
	Model           string
	Prompt          string
	Images          []Image
	Temperature     *float32
	MaxOutputTokens int32
	// JSON requests an application/json response.
	JSON   bool
	Schema *Schema
}

// Type names a schema value type.
type Type string

// Schema value types.
const (
	TypeString  Type = "STRING"
	TypeNumber  Type = "NUMBER"
	TypeInteger Type = "INTEGER"
	TypeBoolean Type = "BOOLEAN"
	TypeArray   Type = "ARRAY"
	TypeObject  Type = "OBJECT"
)

// Schema is a provider-neutral response schema.
type Schema struct {
	Type        Type
	Description string
	Nullable    bool
	Items       *Schema
	Properties  map[string]*Schema
	Required    []string
}

type sdkClient struct {
	client *genai.Client
}

// NewClient creates a Gemini client authenticated with apiKey. Extra options
// are passed to the SDK.
func NewClient(ctx context.Context, apiKey string, opts ...option.ClientOption) (Client, error) {
	if apiKey == "" {
		return nil, eris.New("gemini: API key is required")
	}
	client, err := genai.NewClient(ctx, append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, eris.Wrap(err, "gemini: create client")
	}
	return &sdkClient{client: client}, nil
}

func (c *sdkClient) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	model := c.client.GenerativeModel(req.Model)
	configure(model, req)

	resp, err := model.GenerateContent(ctx, toParts(req)...)
	if err != nil {
		return "", eris.Wrapf(err, "gemini: generate content with %s", req.Model)
	}
	return strings.TrimSpace(extractText(resp)), nil
}

func (c *sdkClient) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}

// StatusCode returns the HTTP status carried by a Google API error in err's
// chain, or 0.
func StatusCode(err error) int {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code
	}
	return 0
}

func configure(model *genai.GenerativeModel, req GenerateRequest) {
	if req.Temperature != nil {
		model.SetTemperature(*req.Temperature)
	}
	if req.MaxOutputTokens > 0 {
		model.SetMaxOutputTokens(req.MaxOutputTokens)
	}
	if req.JSON {
		model.ResponseMIMEType = "application/json"
	}
	if req.Schema != nil {
		model.ResponseSchema = toSDKSchema(req.Schema)
	}
}

func toParts(req GenerateRequest) []genai.Part {
	parts := make([]genai.Part, 0, len(req.Images)+1)
	for _, img := range req.Images {
		parts = append(parts, genai.Blob{MIMEType: img.MIMEType, Data: img.Data})
	}
	return append(parts, genai.Text(req.Prompt))
}

var sdkTypes = map[Type]genai.Type{
	TypeString:  genai.TypeString,
	TypeNumber:  genai.TypeNumber,
	TypeInteger: genai.TypeInteger,
	TypeBoolean: genai.TypeBoolean,
	TypeArray:   genai.TypeArray,
	TypeObject:  genai.TypeObject,
}

func toSDKSchema(s *Schema) *genai.Schema {
	if s == nil {
		return nil
	}
	out := &genai.Schema{
		Type:        sdkTypes[s.Type],
		Description: s.Description,
		Nullable:    s.Nullable,
		Items:       toSDKSchema(s.Items),
		Required:    s.Required,
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for k, v := range s.Properties {
			out.Properties[k] = toSDKSchema(v)
		}
	}
	return out
}

// extractText joins the text parts of the first candidate. A response with
// no candidates or no text yields "" so callers can treat it as empty output.
func extractText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	return b.String()
}
