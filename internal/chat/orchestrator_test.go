package chat

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"orgdesk/pkg/llm"
	"orgdesk/pkg/logging"
)

type scriptedProvider struct {
	responses []llm.ChatResponse
	err       error
	requests  []llm.ChatRequest
}

func (p *scriptedProvider) Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	p.requests = append(p.requests, req)
	if p.err != nil {
		return nil, p.err
	}
	i := len(p.requests) - 1
	if i >= len(p.responses) {
		i = len(p.responses) - 1
	}
	resp := p.responses[i]
	return &resp, nil
}

func newTestRegistry(fns map[string]ToolFunc) *Registry {
	builder := NewRegistryBuilder()
	for name, fn := range fns {
		builder.RegisterBase(llm.Tool{Name: name}, fn)
	}
	return builder.Resolve("")
}

func TestRunDirectAnswer(t *testing.T) {
	provider := &scriptedProvider{responses: []llm.ChatResponse{{Text: "Your appointment is at 10."}}}
	orch := NewOrchestrator(provider, 8, logging.NewLogger())

	answer, history := orch.Run(context.Background(), "when is my appointment?", nil, newTestRegistry(nil))
	if answer != "Your appointment is at 10." {
		t.Fatalf("unexpected answer %q", answer)
	}
	if len(history) != 2 {
		t.Fatalf("expected user + assistant turns, got %d", len(history))
	}
	if history[0].Role != llm.RoleUser || history[0].Message != "when is my appointment?" {
		t.Fatalf("unexpected first turn %+v", history[0])
	}
	if history[1].Role != llm.RoleChatbot {
		t.Fatalf("unexpected second turn %+v", history[1])
	}
}

func TestRunExecutesToolsAndFeedsResultsBack(t *testing.T) {
	provider := &scriptedProvider{responses: []llm.ChatResponse{
		{ToolCalls: []llm.ToolCall{{Name: "lookup", Parameters: map[string]interface{}{"title": "standup"}}}},
		{Text: "Found it."},
	}}
	orch := NewOrchestrator(provider, 8, logging.NewLogger())

	var gotParams map[string]interface{}
	registry := newTestRegistry(map[string]ToolFunc{
		"lookup": func(ctx context.Context, params map[string]interface{}) (map[string]interface{}, error) {
			gotParams = params
			return map[string]interface{}{"title": "standup", "status": "scheduled"}, nil
		},
	})

	answer, history := orch.Run(context.Background(), "find standup", nil, registry)
	if answer != "Found it." {
		t.Fatalf("unexpected answer %q", answer)
	}
	if gotParams["title"] != "standup" {
		t.Fatalf("tool did not receive parameters: %v", gotParams)
	}

	if len(provider.requests) != 2 {
		t.Fatalf("expected 2 LLM calls, got %d", len(provider.requests))
	}
	second := provider.requests[1]
	if second.Message != "" {
		t.Fatalf("follow-up call should carry no prompt, got %q", second.Message)
	}
	if len(second.ToolResults) != 1 || second.ToolResults[0].Outputs[0]["status"] != "scheduled" {
		t.Fatalf("tool results not fed back: %+v", second.ToolResults)
	}

	// USER turn, placeholder for the tool step, then the final answer.
	if len(history) != 3 {
		t.Fatalf("expected 3 turns, got %d: %+v", len(history), history)
	}
	if history[1].Message != "Tool call issued." {
		t.Fatalf("expected placeholder turn, got %+v", history[1])
	}
}

func TestRunStepBudgetExhausted(t *testing.T) {
	provider := &scriptedProvider{responses: []llm.ChatResponse{
		{ToolCalls: []llm.ToolCall{{Name: "noop"}}},
	}}
	orch := NewOrchestrator(provider, 3, logging.NewLogger())

	registry := newTestRegistry(map[string]ToolFunc{
		"noop": func(ctx context.Context, params map[string]interface{}) (map[string]interface{}, error) {
			return map[string]interface{}{}, nil
		},
	})

	answer, history := orch.Run(context.Background(), "loop forever", nil, registry)
	if answer != stepLimitFallback {
		t.Fatalf("expected step-limit fallback, got %q", answer)
	}
	assistantTurns := 0
	for _, turn := range history {
		if turn.Role == llm.RoleChatbot {
			assistantTurns++
		}
	}
	if assistantTurns != 3 {
		t.Fatalf("expected one assistant turn per step, got %d", assistantTurns)
	}
	if len(provider.requests) != 3 {
		t.Fatalf("expected 3 LLM calls, got %d", len(provider.requests))
	}
}

func TestRunToolFailureIsAbsorbed(t *testing.T) {
	provider := &scriptedProvider{responses: []llm.ChatResponse{
		{ToolCalls: []llm.ToolCall{{Name: "flaky", Parameters: map[string]interface{}{"q": "x"}}}},
		{Text: "Sorry, that lookup failed."},
	}}
	orch := NewOrchestrator(provider, 8, logging.NewLogger())

	registry := newTestRegistry(map[string]ToolFunc{
		"flaky": func(ctx context.Context, params map[string]interface{}) (map[string]interface{}, error) {
			return nil, fmt.Errorf("database offline")
		},
	})

	answer, _ := orch.Run(context.Background(), "ask", nil, registry)
	if answer != "Sorry, that lookup failed." {
		t.Fatalf("unexpected answer %q", answer)
	}

	output := provider.requests[1].ToolResults[0].Outputs[0]
	if output["error"] != "database offline" || output["tool"] != "flaky" {
		t.Fatalf("unexpected error output: %v", output)
	}
	if params, ok := output["parameters"].(map[string]interface{}); !ok || params["q"] != "x" {
		t.Fatalf("error output lost parameters: %v", output)
	}
}

func TestRunUnknownToolReportsError(t *testing.T) {
	provider := &scriptedProvider{responses: []llm.ChatResponse{
		{ToolCalls: []llm.ToolCall{{Name: "missing"}}},
		{Text: "done"},
	}}
	orch := NewOrchestrator(provider, 8, logging.NewLogger())

	orch.Run(context.Background(), "ask", nil, newTestRegistry(nil))

	output := provider.requests[1].ToolResults[0].Outputs[0]
	if output["tool"] != "missing" || output["error"] == "" {
		t.Fatalf("unexpected output for unknown tool: %v", output)
	}
}

func TestRunProviderFaultLeavesHistoryUntouched(t *testing.T) {
	provider := &scriptedProvider{err: errors.New("connection reset")}
	orch := NewOrchestrator(provider, 8, logging.NewLogger())

	prior := []llm.Turn{
		{Role: llm.RoleUser, Message: "earlier question"},
		{Role: llm.RoleChatbot, Message: "earlier answer"},
	}
	answer, history := orch.Run(context.Background(), "new question", prior, newTestRegistry(nil))
	if answer != "connection reset" {
		t.Fatalf("expected fault text as answer, got %q", answer)
	}
	if len(history) != 2 || history[0].Message != "earlier question" {
		t.Fatalf("history should be unchanged on provider fault: %+v", history)
	}
}
