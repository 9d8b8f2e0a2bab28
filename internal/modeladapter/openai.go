package modeladapter

import (
	"context"
	"encoding/json"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/jordangeorgiev/open-deep-research/internal/research"
)

// OpenAIConfig configures an OpenAIBackend.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// OpenAIBackend adapts the Chat Completions API: native tool calling and
// native schema-constrained output via response_format json_schema.
type OpenAIBackend struct {
	client *openai.Client
	model  string
}

// NewOpenAIBackend constructs a Backend/ToolCaller/StructuredCaller backed
// by an OpenAI-compatible chat completions endpoint.
func NewOpenAIBackend(cfg OpenAIConfig) (*OpenAIBackend, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = openai.GPT4o
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &OpenAIBackend{client: openai.NewClientWithConfig(clientCfg), model: cfg.Model}, nil
}

func (b *OpenAIBackend) Name() string { return "openai" }

func (b *OpenAIBackend) Capabilities() Capabilities {
	return Capabilities{NativeStructured: true, NativeTools: true}
}

func (b *OpenAIBackend) Complete(ctx context.Context, system string, messages []Message, params Params) (string, error) {
	resp, err := b.client.CreateChatCompletion(ctx, b.buildRequest(system, messages, nil, nil, params))
	if err != nil {
		return "", fmt.Errorf("openai: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai: empty response")
	}
	return resp.Choices[0].Message.Content, nil
}

func (b *OpenAIBackend) CompleteWithTools(ctx context.Context, system string, messages []Message, tools []Tool, params Params) (string, []research.ToolCall, error) {
	resp, err := b.client.CreateChatCompletion(ctx, b.buildRequest(system, messages, convertOpenAITools(tools), nil, params))
	if err != nil {
		return "", nil, fmt.Errorf("openai: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", nil, fmt.Errorf("openai: empty response")
	}

	msg := resp.Choices[0].Message
	var calls []research.ToolCall
	for _, tc := range msg.ToolCalls {
		var args map[string]any
		if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
			args = map[string]any{}
		}
		calls = append(calls, research.ToolCall{ID: tc.ID, Name: tc.Function.Name, Arguments: args})
	}

	return msg.Content, calls, nil
}

func (b *OpenAIBackend) CompleteStructured(ctx context.Context, system string, messages []Message, schema json.RawMessage, params Params) (json.RawMessage, error) {
	format := &openai.ChatCompletionResponseFormat{
		Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
		JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
			Name:   "structured_output",
			Schema: json.RawMessage(schema),
			Strict: true,
		},
	}

	resp, err := b.client.CreateChatCompletion(ctx, b.buildRequest(system, messages, nil, format, params))
	if err != nil {
		return nil, fmt.Errorf("openai: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai: empty response")
	}

	return json.RawMessage(resp.Choices[0].Message.Content), nil
}

func (b *OpenAIBackend) buildRequest(system string, messages []Message, tools []openai.Tool, format *openai.ChatCompletionResponseFormat, params Params) openai.ChatCompletionRequest {
	model := params.Model
	if model == "" {
		model = b.model
	}

	chatMessages := make([]openai.ChatCompletionMessage, 0, len(messages)+1)
	if system != "" {
		chatMessages = append(chatMessages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: system})
	}
	for _, m := range messages {
		chatMessages = append(chatMessages, openai.ChatCompletionMessage{Role: convertOpenAIRole(m.Role), Content: m.Content})
	}

	req := openai.ChatCompletionRequest{
		Model:    model,
		Messages: chatMessages,
	}
	if params.MaxTokens > 0 {
		req.MaxTokens = params.MaxTokens
	}
	if params.Temperature > 0 {
		req.Temperature = float32(params.Temperature)
	}
	if len(tools) > 0 {
		req.Tools = tools
	}
	if format != nil {
		req.ResponseFormat = format
	}

	return req
}

func convertOpenAIRole(role string) string {
	switch role {
	case "assistant":
		return openai.ChatMessageRoleAssistant
	case "observation":
		// OpenAI's chat format has no bare "observation" role; a ReAct
		// observation is relayed back as a user turn.
		return openai.ChatMessageRoleUser
	default:
		return openai.ChatMessageRoleUser
	}
}

func convertOpenAITools(tools []Tool) []openai.Tool {
	out := make([]openai.Tool, 0, len(tools))
	for _, t := range tools {
		var params map[string]any
		_ = json.Unmarshal(t.Schema, &params)
		out = append(out, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  params,
			},
		})
	}
	return out
}
