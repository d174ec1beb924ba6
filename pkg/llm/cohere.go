package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type CohereProvider struct {
	client *http.Client
	apiKey string
	apiURL string
	model  string
}

func NewCohereProvider(cfg Config) *CohereProvider {
	apiURL := strings.TrimRight(cfg.APIURL, "/")
	if apiURL == "" {
		apiURL = "https://api.cohere.com"
	}
	return &CohereProvider{
		client: &http.Client{Timeout: 60 * time.Second},
		apiKey: cfg.APIKey,
		apiURL: apiURL,
		model:  cfg.Model,
	}
}

func (p *CohereProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if p.model == "" {
		return nil, errors.New("cohere model is required")
	}

	reqBody := cohereChatRequest{
		Model:       p.model,
		Message:     req.Message,
		Preamble:    req.Preamble,
		ChatHistory: req.ChatHistory,
		Tools:       req.Tools,
		ToolResults: req.ToolResults,
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("cohere: marshal request: %w", err)
	}

	resp, err := doWithRetry(ctx, p.client, func() (*http.Request, error) {
		httpReq, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, p.apiURL+"/v1/chat", bytes.NewReader(payload))
		if reqErr != nil {
			return nil, fmt.Errorf("cohere: create request: %w", reqErr)
		}
		httpReq.Header.Set("Content-Type", "application/json")
		if p.apiKey != "" {
			httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
		}
		return httpReq, nil
	})
	if err != nil {
		return nil, fmt.Errorf("cohere: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("cohere: unexpected status %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var response cohereChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("cohere: decode response: %w", err)
	}

	out := &ChatResponse{Text: response.Text}
	if len(response.ToolCalls) > 0 {
		out.ToolCalls = make([]ToolCall, 0, len(response.ToolCalls))
		for _, call := range response.ToolCalls {
			params := call.Parameters
			if params == nil {
				params = map[string]interface{}{}
			}
			out.ToolCalls = append(out.ToolCalls, ToolCall{Name: call.Name, Parameters: params})
		}
	}
	return out, nil
}

type cohereChatRequest struct {
	Model       string       `json:"model"`
	Message     string       `json:"message"`
	Preamble    string       `json:"preamble,omitempty"`
	ChatHistory []Turn       `json:"chat_history,omitempty"`
	Tools       []Tool       `json:"tools,omitempty"`
	ToolResults []ToolResult `json:"tool_results,omitempty"`
}

type cohereChatResponse struct {
	Text      string     `json:"text"`
	ToolCalls []ToolCall `json:"tool_calls"`
}
