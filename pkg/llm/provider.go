package llm

import (
	"context"
)

// Provider executes a single non-streaming chat round. Tool orchestration
// (running calls, feeding results back) lives with the caller.
type Provider interface {
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

// Turn is one entry of the running conversation history.
type Turn struct {
	Role    string `json:"role"`
	Message string `json:"message"`
}

// Conversation roles.
const (
	RoleUser    = "USER"
	RoleChatbot = "CHATBOT"
)

type Tool struct {
	Name                 string                         `json:"name"`
	Description          string                         `json:"description,omitempty"`
	ParameterDefinitions map[string]ParameterDefinition `json:"parameter_definitions,omitempty"`
}

type ParameterDefinition struct {
	Description string `json:"description,omitempty"`
	Type        string `json:"type"`
	Required    bool   `json:"required,omitempty"`
}

type ToolCall struct {
	Name       string                 `json:"name"`
	Parameters map[string]interface{} `json:"parameters"`
}

// ToolResult pairs a tool call with the outputs the caller produced for it.
type ToolResult struct {
	Call    ToolCall                 `json:"call"`
	Outputs []map[string]interface{} `json:"outputs"`
}

type ChatRequest struct {
	Message     string
	Preamble    string
	ChatHistory []Turn
	Tools       []Tool
	ToolResults []ToolResult
}

type ChatResponse struct {
	Text      string
	ToolCalls []ToolCall
}
