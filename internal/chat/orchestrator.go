package chat

import (
	"context"
	"fmt"

	"orgdesk/pkg/llm"
	"orgdesk/pkg/logging"
)

// Orchestrator drives the bounded tool-calling loop against an LLM provider.
// A run is synchronous: one question in, one answer and the grown history out.
type Orchestrator struct {
	provider llm.Provider
	maxSteps int
	logger   logging.Logger
}

func NewOrchestrator(provider llm.Provider, maxSteps int, logger logging.Logger) *Orchestrator {
	if maxSteps <= 0 {
		maxSteps = 8
	}
	return &Orchestrator{
		provider: provider,
		maxSteps: maxSteps,
		logger:   logger,
	}
}

// Run asks the model the prompt, executing any tool calls it issues, until
// the model produces a final text answer or the step budget runs out. The
// returned history extends chatHistory with this run's turns. A provider
// fault surfaces as the answer text and leaves the caller's history
// untouched.
func (o *Orchestrator) Run(ctx context.Context, prompt string, chatHistory []llm.Turn, registry *Registry) (string, []llm.Turn) {
	if o.provider == nil {
		return "The assistant is not configured with an LLM provider.", chatHistory
	}

	history := make([]llm.Turn, len(chatHistory))
	copy(history, chatHistory)

	var response *llm.ChatResponse
	var toolResults []llm.ToolResult
	steps := 0
	for steps < o.maxSteps {
		// While tool results are pending the trailing user turn has not been
		// answered yet; sending it again would duplicate the question.
		historyForChat := history
		if len(toolResults) > 0 && len(history) > 0 && history[len(history)-1].Role == llm.RoleUser {
			historyForChat = history[:len(history)-1]
		}
		message := ""
		if steps == 0 {
			message = prompt
		}

		var err error
		response, err = o.provider.Chat(ctx, llm.ChatRequest{
			Message:     message,
			Preamble:    preamble,
			ChatHistory: historyForChat,
			Tools:       registry.Descriptors(),
			ToolResults: toolResults,
		})
		if err != nil {
			llmCallsTotal.WithLabelValues("error").Inc()
			o.logger.WithError(err).Warn("LLM call failed")
			return err.Error(), chatHistory
		}
		llmCallsTotal.WithLabelValues("success").Inc()

		if steps == 0 && prompt != "" {
			history = append(history, llm.Turn{Role: llm.RoleUser, Message: prompt})
		}
		if response.Text != "" {
			history = append(history, llm.Turn{Role: llm.RoleChatbot, Message: response.Text})
		} else if len(response.ToolCalls) > 0 {
			history = append(history, llm.Turn{Role: llm.RoleChatbot, Message: toolCallPlaceholder})
		}
		if len(response.ToolCalls) == 0 {
			break
		}

		toolResults = o.executeToolCalls(ctx, registry, response.ToolCalls)
		steps++
	}
	orchestratorSteps.Observe(float64(steps))

	if response != nil && len(response.ToolCalls) > 0 && steps >= o.maxSteps {
		return stepLimitFallback, history
	}
	if response == nil {
		return "", history
	}
	return response.Text, history
}

// executeToolCalls runs each requested tool in order. Failures never abort
// the run; they become structured error outputs the model can read.
func (o *Orchestrator) executeToolCalls(ctx context.Context, registry *Registry, calls []llm.ToolCall) []llm.ToolResult {
	results := make([]llm.ToolResult, 0, len(calls))
	for _, call := range calls {
		params := call.Parameters
		if params == nil {
			params = map[string]interface{}{}
		}

		var output map[string]interface{}
		fn, ok := registry.Lookup(call.Name)
		if !ok {
			output = o.toolError(call, params, fmt.Errorf("unknown tool %q", call.Name))
		} else if result, err := o.invokeTool(ctx, fn, params); err != nil {
			output = o.toolError(call, params, err)
		} else {
			toolExecutionsTotal.WithLabelValues(call.Name, "success").Inc()
			output = result
		}

		results = append(results, llm.ToolResult{
			Call:    llm.ToolCall{Name: call.Name, Parameters: params},
			Outputs: []map[string]interface{}{output},
		})
	}
	return results
}

func (o *Orchestrator) invokeTool(ctx context.Context, fn ToolFunc, params map[string]interface{}) (result map[string]interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("tool panic: %v", r)
		}
	}()
	return fn(ctx, params)
}

func (o *Orchestrator) toolError(call llm.ToolCall, params map[string]interface{}, err error) map[string]interface{} {
	toolExecutionsTotal.WithLabelValues(call.Name, "error").Inc()
	o.logger.WithError(err).WithField("tool", call.Name).Warn("Tool execution failed")
	return map[string]interface{}{
		"error":      err.Error(),
		"tool":       call.Name,
		"parameters": params,
	}
}
