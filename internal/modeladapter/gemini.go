package modeladapter

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/genai"
)

// GeminiConfig configures a GeminiBackend.
type GeminiConfig struct {
	APIKey string
	Model  string
}

// GeminiBackend adapts the Gemini API. Its Capabilities report native
// structured output but no native tool calling for every model name (the
// record DetectCapabilities gives the "gemini-1" family), so
// Adapter.CompleteWithTools always drives it through the ReAct fallback path
// even though Gemini itself does support native function calling on later
// model families; it is deliberately kept free of a ToolCaller implementation.
type GeminiBackend struct {
	client *genai.Client
	model  string
}

// NewGeminiBackend constructs a Backend/StructuredCaller backed by Gemini.
func NewGeminiBackend(ctx context.Context, cfg GeminiConfig) (*GeminiBackend, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-1.5-pro"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: cfg.APIKey, Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}

	return &GeminiBackend{client: client, model: cfg.Model}, nil
}

func (b *GeminiBackend) Name() string { return "gemini" }

func (b *GeminiBackend) Capabilities() Capabilities {
	return Capabilities{NativeStructured: true, NativeTools: false}
}

func (b *GeminiBackend) Complete(ctx context.Context, system string, messages []Message, params Params) (string, error) {
	resp, err := b.generate(ctx, system, messages, nil, params)
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}

func (b *GeminiBackend) CompleteStructured(ctx context.Context, system string, messages []Message, schema json.RawMessage, params Params) (json.RawMessage, error) {
	var genaiSchema *genai.Schema
	if err := json.Unmarshal(schema, &genaiSchema); err != nil {
		return nil, fmt.Errorf("gemini: decode schema: %w", err)
	}

	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   genaiSchema,
	}
	resp, err := b.generate(ctx, system, messages, cfg, params)
	if err != nil {
		return nil, err
	}

	return json.RawMessage(resp.Text()), nil
}

func (b *GeminiBackend) generate(ctx context.Context, system string, messages []Message, cfg *genai.GenerateContentConfig, params Params) (*genai.GenerateContentResponse, error) {
	model := params.Model
	if model == "" {
		model = b.model
	}

	if cfg == nil {
		cfg = &genai.GenerateContentConfig{}
	}
	if system != "" {
		cfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}
	if params.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(params.MaxTokens)
	}
	if params.Temperature > 0 {
		temp := float32(params.Temperature)
		cfg.Temperature = &temp
	}

	contents := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		role := genai.RoleUser
		if m.Role == "assistant" {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, role))
	}

	resp, err := b.client.Models.GenerateContent(ctx, model, contents, cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}
	return resp, nil
}
