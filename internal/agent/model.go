package agent

import (
	"context"

	"github.com/synapseai/synapse/internal/tools"
)

// Role of a message in the conversation sent to the model.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCall represents a tool invocation request from the LLM. Input is nil when
// the model produced arguments that are not a JSON object.
type ToolCall struct {
	ID    string
	Name  string
	Input map[string]interface{}
}

// ToolResult answers one ToolCall.
type ToolResult struct {
	CallID  string
	Name    string
	Content string
	IsError bool
}

// Message is a provider-neutral conversation entry. Assistant messages may
// carry ToolCalls; tool messages carry Results.
type Message struct {
	Role      Role
	Text      string
	ToolCalls []ToolCall
	Results   []ToolResult
}

// Request is one model invocation.
type Request struct {
	System   string
	Messages []Message
	Tools    []tools.Tool
}

// Response is either final text or a set of tool calls (possibly with text).
type Response struct {
	Text       string
	ToolCalls  []ToolCall
	StopReason string
}

// Model is a chat model with function calling.
type Model interface {
	Generate(ctx context.Context, req *Request) (*Response, error)
}
