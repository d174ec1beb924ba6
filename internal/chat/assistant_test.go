package chat

import (
	"context"
	"testing"

	"orgdesk/internal/identity"
	"orgdesk/pkg/llm"
	"orgdesk/pkg/logging"
)

func newTestAssistant(provider llm.Provider, window int) *Assistant {
	logger := logging.NewLogger()
	return NewAssistant(
		NewOrchestrator(provider, 8, logger),
		NewRegistryBuilder(),
		nil,
		NewMemorySessionStore(window),
		nil,
		logger,
	)
}

func TestAskCarriesSessionHistory(t *testing.T) {
	provider := &scriptedProvider{responses: []llm.ChatResponse{{Text: "answer one"}, {Text: "answer two"}}}
	assistant := newTestAssistant(provider, 20)

	first := assistant.Ask(context.Background(), "first question", "session-1")
	if first.Response != "answer one" || len(first.Messages) != 2 {
		t.Fatalf("unexpected first answer: %+v", first)
	}

	second := assistant.Ask(context.Background(), "second question", "session-1")
	if len(second.Messages) != 4 {
		t.Fatalf("expected accumulated history, got %d turns", len(second.Messages))
	}

	carried := provider.requests[1].ChatHistory
	if len(carried) != 2 || carried[0].Message != "first question" {
		t.Fatalf("second run did not receive first run's history: %+v", carried)
	}
}

func TestAskStatelessWithoutSession(t *testing.T) {
	provider := &scriptedProvider{responses: []llm.ChatResponse{{Text: "hi"}}}
	assistant := newTestAssistant(provider, 20)

	assistant.Ask(context.Background(), "hello", "")
	again := assistant.Ask(context.Background(), "hello again", "")

	if len(provider.requests[1].ChatHistory) != 0 {
		t.Fatalf("stateless run leaked history: %+v", provider.requests[1].ChatHistory)
	}
	if len(again.Messages) != 2 {
		t.Fatalf("expected only this run's turns, got %d", len(again.Messages))
	}
}

func TestAskResolvesToolsFromContextIdentity(t *testing.T) {
	provider := &scriptedProvider{responses: []llm.ChatResponse{{Text: "ok"}}}
	logger := logging.NewLogger()
	builder := NewRegistryBuilder()
	builder.RegisterGated(llm.Tool{Name: "get_my_pending_leaves"}, func(userID string) ToolFunc {
		return func(ctx context.Context, params map[string]interface{}) (map[string]interface{}, error) {
			return map[string]interface{}{}, nil
		}
	})
	assistant := NewAssistant(
		NewOrchestrator(provider, 8, logger),
		builder,
		nil,
		NewMemorySessionStore(20),
		nil,
		logger,
	)

	assistant.Ask(identity.WithUserID(context.Background(), "user-1"), "question", "")
	if len(provider.requests[0].Tools) != 1 {
		t.Fatalf("authenticated run should see gated tools: %+v", provider.requests[0].Tools)
	}

	assistant.Ask(context.Background(), "question", "")
	if len(provider.requests[1].Tools) != 0 {
		t.Fatalf("anonymous run must not see gated tools: %+v", provider.requests[1].Tools)
	}
}

func TestAskTrimsStoredHistory(t *testing.T) {
	provider := &scriptedProvider{responses: []llm.ChatResponse{{Text: "ok"}}}
	assistant := newTestAssistant(provider, 4)

	for i := 0; i < 5; i++ {
		assistant.Ask(context.Background(), "question", "session-1")
	}

	stored := assistant.sessions.Get("session-1")
	if len(stored) != 4 {
		t.Fatalf("expected stored history capped at 4 turns, got %d", len(stored))
	}
}
