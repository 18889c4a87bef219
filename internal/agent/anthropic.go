package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rs/zerolog/log"

	"github.com/synapseai/synapse/internal/tools"
)

// AnthropicModel talks to the Anthropic Messages API or a compatible provider.
type AnthropicModel struct {
	client    *anthropic.Client
	model     string
	maxTokens int
}

// NewAnthropicModel creates a model backed by Anthropic Claude or a compatible
// provider. SDK-level retries are disabled; see WithRetry.
func NewAnthropicModel(apiKey, model, baseURL string) *AnthropicModel {
	if model == "" {
		model = "claude-sonnet-4-6"
	}
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &AnthropicModel{
		client:    anthropic.NewClient(opts...),
		model:     model,
		maxTokens: 4096,
	}
}

func (a *AnthropicModel) Generate(ctx context.Context, req *Request) (*Response, error) {
	params := anthropic.MessageNewParams{
		Model:       anthropic.F(anthropic.Model(a.model)),
		MaxTokens:   anthropic.F(int64(a.maxTokens)),
		Messages:    anthropic.F(anthropicMessages(req.Messages)),
		Temperature: anthropic.F(0.0),
	}
	if len(req.Tools) > 0 {
		params.Tools = anthropic.F(anthropicTools(req.Tools))
	}
	if req.System != "" {
		params.System = anthropic.F([]anthropic.TextBlockParam{
			anthropic.NewTextBlock(req.System),
		})
	}

	resp, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic messages: %w", err)
	}

	out := &Response{StopReason: string(resp.StopReason)}
	for _, block := range resp.Content {
		switch b := block.AsUnion().(type) {
		case anthropic.TextBlock:
			out.Text += b.Text
		case anthropic.ToolUseBlock:
			var input map[string]interface{}
			if err := json.Unmarshal(b.Input, &input); err != nil || input == nil {
				log.Warn().Err(err).Str("tool", b.Name).Msg("failed to parse tool input")
				input = nil
			}
			out.ToolCalls = append(out.ToolCalls, ToolCall{ID: b.ID, Name: b.Name, Input: input})
		}
	}
	return out, nil
}

func anthropicTools(defs []tools.Tool) []anthropic.ToolUnionUnionParam {
	params := make([]anthropic.ToolUnionUnionParam, len(defs))
	for i, t := range defs {
		schema := map[string]interface{}{
			"type":       "object",
			"properties": t.InputSchema["properties"],
		}
		if required, ok := t.InputSchema["required"]; ok {
			schema["required"] = required
		}
		params[i] = anthropic.ToolParam{
			Name:        anthropic.String(t.Name),
			Description: anthropic.String(t.Description),
			InputSchema: anthropic.F[interface{}](schema),
		}
	}
	return params
}

// anthropicMessages converts the conversation, folding tool results into user
// turns and merging adjacent turns of the same role so roles alternate.
func anthropicMessages(msgs []Message) []anthropic.MessageParam {
	var (
		out    []anthropic.MessageParam
		blocks []anthropic.ContentBlockParamUnion
		isUser bool
	)
	flush := func() {
		if len(blocks) == 0 {
			return
		}
		if isUser {
			out = append(out, anthropic.NewUserMessage(blocks...))
		} else {
			out = append(out, anthropic.NewAssistantMessage(blocks...))
		}
		blocks = nil
	}
	add := func(user bool, bs ...anthropic.ContentBlockParamUnion) {
		if len(bs) == 0 {
			return
		}
		if len(blocks) > 0 && user != isUser {
			flush()
		}
		isUser = user
		blocks = append(blocks, bs...)
	}

	for _, m := range msgs {
		switch m.Role {
		case RoleUser:
			if m.Text != "" {
				add(true, anthropic.NewTextBlock(m.Text))
			}
		case RoleAssistant:
			var bs []anthropic.ContentBlockParamUnion
			if m.Text != "" {
				bs = append(bs, anthropic.NewTextBlock(m.Text))
			}
			for _, tc := range m.ToolCalls {
				input := tc.Input
				if input == nil {
					input = map[string]interface{}{}
				}
				bs = append(bs, anthropic.NewToolUseBlockParam(tc.ID, tc.Name, input))
			}
			add(false, bs...)
		case RoleTool:
			bs := make([]anthropic.ContentBlockParamUnion, 0, len(m.Results))
			for _, r := range m.Results {
				bs = append(bs, anthropic.NewToolResultBlock(r.CallID, r.Content, r.IsError))
			}
			add(true, bs...)
		}
	}
	flush()
	return out
}
