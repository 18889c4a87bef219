package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"

	"github.com/synapseai/synapse/internal/tools"
)

// GeminiModel drives any langchaingo model; in production the shared Gemini
// client. Gemini does not assign tool call ids, so they are generated here.
type GeminiModel struct {
	llm llms.Model
}

func NewGeminiModel(llm llms.Model) *GeminiModel {
	return &GeminiModel{llm: llm}
}

func (g *GeminiModel) Generate(ctx context.Context, req *Request) (*Response, error) {
	var opts []llms.CallOption
	if len(req.Tools) > 0 {
		opts = append(opts, llms.WithTools(langchainTools(req.Tools)))
	}

	resp, err := g.llm.GenerateContent(ctx, langchainMessages(req.System, req.Messages), opts...)
	if err != nil {
		return nil, fmt.Errorf("gemini generate: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("gemini generate: empty response")
	}

	choice := resp.Choices[0]
	out := &Response{Text: choice.Content, StopReason: choice.StopReason}
	for _, tc := range choice.ToolCalls {
		if tc.FunctionCall == nil {
			continue
		}
		id := tc.ID
		if id == "" {
			id = "call_" + uuid.NewString()
		}
		var input map[string]interface{}
		if err := json.Unmarshal([]byte(tc.FunctionCall.Arguments), &input); err != nil || input == nil {
			log.Warn().Err(err).Str("tool", tc.FunctionCall.Name).Msg("failed to parse tool input")
			input = nil
		}
		out.ToolCalls = append(out.ToolCalls, ToolCall{ID: id, Name: tc.FunctionCall.Name, Input: input})
	}
	return out, nil
}

func langchainTools(defs []tools.Tool) []llms.Tool {
	out := make([]llms.Tool, len(defs))
	for i, t := range defs {
		out[i] = llms.Tool{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.InputSchema,
			},
		}
	}
	return out
}

func langchainMessages(system string, msgs []Message) []llms.MessageContent {
	out := make([]llms.MessageContent, 0, len(msgs)+1)
	if system != "" {
		out = append(out, llms.TextParts(llms.ChatMessageTypeSystem, system))
	}
	for _, m := range msgs {
		switch m.Role {
		case RoleUser:
			out = append(out, llms.TextParts(llms.ChatMessageTypeHuman, m.Text))
		case RoleAssistant:
			var parts []llms.ContentPart
			if m.Text != "" {
				parts = append(parts, llms.TextPart(m.Text))
			}
			for _, tc := range m.ToolCalls {
				args, err := json.Marshal(tc.Input)
				if err != nil || tc.Input == nil {
					args = []byte("{}")
				}
				parts = append(parts, llms.ToolCall{
					ID:   tc.ID,
					Type: "function",
					FunctionCall: &llms.FunctionCall{
						Name:      tc.Name,
						Arguments: string(args),
					},
				})
			}
			if len(parts) > 0 {
				out = append(out, llms.MessageContent{Role: llms.ChatMessageTypeAI, Parts: parts})
			}
		case RoleTool:
			parts := make([]llms.ContentPart, 0, len(m.Results))
			for _, r := range m.Results {
				parts = append(parts, llms.ToolCallResponse{
					ToolCallID: r.CallID,
					Name:       r.Name,
					Content:    r.Content,
				})
			}
			out = append(out, llms.MessageContent{Role: llms.ChatMessageTypeTool, Parts: parts})
		}
	}
	return out
}
