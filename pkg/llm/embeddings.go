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

// Embedding input types. Cohere produces different vectors for corpus
// documents than for queries against them.
const (
	InputTypeDocument = "search_document"
	InputTypeQuery    = "search_query"
)

type EmbeddingClient interface {
	Embed(ctx context.Context, inputs []string, inputType string) ([][]float32, error)
}

type EmbeddingProvider struct {
	client *http.Client
	apiKey string
	apiURL string
	model  string
}

func NewEmbeddingClient(cfg Config) (EmbeddingClient, error) {
	if cfg.Model == "" {
		return nil, errors.New("embedding model is required")
	}
	apiURL := strings.TrimRight(cfg.APIURL, "/")
	if apiURL == "" {
		apiURL = "https://api.cohere.com"
	}

	return &EmbeddingProvider{
		client: &http.Client{Timeout: 120 * time.Second},
		apiKey: cfg.APIKey,
		apiURL: apiURL,
		model:  cfg.Model,
	}, nil
}

type cohereEmbedRequest struct {
	Model     string   `json:"model"`
	Texts     []string `json:"texts"`
	InputType string   `json:"input_type"`
}

type cohereEmbedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

func (p *EmbeddingProvider) Embed(ctx context.Context, inputs []string, inputType string) ([][]float32, error) {
	if len(inputs) == 0 {
		return nil, errors.New("inputs are required")
	}
	if inputType == "" {
		inputType = InputTypeDocument
	}

	payload, err := json.Marshal(cohereEmbedRequest{Model: p.model, Texts: inputs, InputType: inputType})
	if err != nil {
		return nil, fmt.Errorf("cohere embed: marshal request: %w", err)
	}

	resp, err := doWithRetry(ctx, p.client, func() (*http.Request, error) {
		req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, p.apiURL+"/v1/embed", bytes.NewReader(payload))
		if reqErr != nil {
			return nil, fmt.Errorf("cohere embed: create request: %w", reqErr)
		}
		req.Header.Set("Content-Type", "application/json")
		if p.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+p.apiKey)
		}
		return req, nil
	})
	if err != nil {
		return nil, fmt.Errorf("cohere embed: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("cohere embed: unexpected status %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var response cohereEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("cohere embed: decode response: %w", err)
	}
	if len(response.Embeddings) != len(inputs) {
		return nil, fmt.Errorf("cohere embed: unexpected embeddings count: %d", len(response.Embeddings))
	}
	return response.Embeddings, nil
}

// ProbeEmbeddingDimensions makes a single embedding call and returns the
// vector length. Use this at startup to discover the model's output dimensions
// without hardcoding a model-to-dimension mapping.
func ProbeEmbeddingDimensions(ctx context.Context, client EmbeddingClient) (int, error) {
	vecs, err := client.Embed(ctx, []string{"dimension probe"}, InputTypeDocument)
	if err != nil {
		return 0, fmt.Errorf("probe embedding dimensions: %w", err)
	}
	if len(vecs) == 0 || len(vecs[0]) == 0 {
		return 0, errors.New("probe returned empty embedding")
	}
	return len(vecs[0]), nil
}
