package modeladapter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/jordangeorgiev/open-deep-research/internal/research"
)

// AnthropicConfig configures an AnthropicBackend.
type AnthropicConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// AnthropicBackend adapts the Claude API: native tool calling, but no native
// schema-constrained output mode, so structured output is always driven
// through the JSON-mode prompt path.
type AnthropicBackend struct {
	client anthropic.Client
	model  string
}

// NewAnthropicBackend constructs a Backend/ToolCaller backed by Claude.
func NewAnthropicBackend(cfg AnthropicConfig) (*AnthropicBackend, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic: API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = "claude-sonnet-4-20250514"
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &AnthropicBackend{client: anthropic.NewClient(opts...), model: cfg.Model}, nil
}

func (b *AnthropicBackend) Name() string { return "anthropic" }

func (b *AnthropicBackend) Capabilities() Capabilities {
	return Capabilities{NativeStructured: false, NativeTools: true}
}

func (b *AnthropicBackend) Complete(ctx context.Context, system string, messages []Message, params Params) (string, error) {
	text, _, err := b.complete(ctx, system, messages, nil, params)
	return text, err
}

func (b *AnthropicBackend) CompleteWithTools(ctx context.Context, system string, messages []Message, tools []Tool, params Params) (string, []research.ToolCall, error) {
	return b.complete(ctx, system, messages, tools, params)
}

func (b *AnthropicBackend) complete(ctx context.Context, system string, messages []Message, tools []Tool, params Params) (string, []research.ToolCall, error) {
	model := params.Model
	if model == "" {
		model = b.model
	}
	maxTokens := int64(params.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	req := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: maxTokens,
		Messages:  convertMessages(messages),
	}
	if system != "" {
		req.System = []anthropic.TextBlockParam{{Text: system}}
	}
	if len(tools) > 0 {
		req.Tools = convertTools(tools)
	}

	resp, err := b.client.Messages.New(ctx, req)
	if err != nil {
		return "", nil, fmt.Errorf("anthropic: %w", err)
	}

	var text string
	var calls []research.ToolCall
	for _, block := range resp.Content {
		switch variant := block.AsAny().(type) {
		case anthropic.TextBlock:
			text += variant.Text
		case anthropic.ToolUseBlock:
			var args map[string]any
			if err := json.Unmarshal(variant.Input, &args); err != nil {
				args = map[string]any{}
			}
			calls = append(calls, research.ToolCall{ID: variant.ID, Name: variant.Name, Arguments: args})
		}
	}

	return text, calls, nil
}

func convertMessages(messages []Message) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case "assistant":
			out = append(out, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		default:
			// "user" and "observation" (ReAct tool results) both map onto a
			// user turn: Claude has no native third role for tool results
			// fed back through a text-only conversation.
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}
	return out
}

func convertTools(tools []Tool) []anthropic.ToolUnionParam {
	out := make([]anthropic.ToolUnionParam, 0, len(tools))
	for _, t := range tools {
		var schema map[string]any
		_ = json.Unmarshal(t.Schema, &schema)

		inputSchema := anthropic.ToolInputSchemaParam{}
		if props, ok := schema["properties"]; ok {
			inputSchema.Properties = props
		}
		if required, ok := schema["required"].([]any); ok {
			for _, r := range required {
				if s, ok := r.(string); ok {
					inputSchema.Required = append(inputSchema.Required, s)
				}
			}
		}

		out = append(out, anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        t.Name,
				Description: anthropic.String(t.Description),
				InputSchema: inputSchema,
			},
		})
	}
	return out
}
