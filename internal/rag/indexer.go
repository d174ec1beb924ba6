package rag

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"orgdesk/pkg/llm"
	"orgdesk/pkg/logging"
)

// Index outcome statuses.
const (
	StatusIndexed = "indexed"
	StatusSkipped = "skipped"
	StatusRemoved = "removed"
)

// Skip reasons.
const (
	ReasonNoTextExtracted     = "no_text_extracted"
	ReasonNoChunksCreated     = "no_chunks_created"
	ReasonNoEmbeddingsCreated = "no_embeddings_created"
	ReasonPolicyNotFound      = "policy_not_found"
	ReasonStorageFailed       = "storage_failed"
)

// PolicyDocument carries the metadata the indexer stamps onto every chunk.
type PolicyDocument struct {
	PolicyID       string
	OrganizationID string
	PolicyName     string
	Description    string
	DocumentName   string
	FilePath       string
}

// IndexResult reports the outcome of an indexing or removal run. Indexing is
// best-effort: every failure mode maps to a skipped status with a reason,
// never an error.
type IndexResult struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
	Chunks int    `json:"chunks,omitempty"`
	Count  int    `json:"count,omitempty"`
}

type Indexer struct {
	store    *Store
	embedder llm.EmbeddingClient
	client   *http.Client
	maxChars int
	overlap  int
	logger   logging.Logger
}

func NewIndexer(store *Store, embedder llm.EmbeddingClient, fetchTimeout time.Duration, maxChars, overlap int, logger logging.Logger) *Indexer {
	if fetchTimeout <= 0 {
		fetchTimeout = 20 * time.Second
	}
	return &Indexer{
		store:    store,
		embedder: embedder,
		client:   &http.Client{Timeout: fetchTimeout},
		maxChars: maxChars,
		overlap:  overlap,
		logger:   logger,
	}
}

// IndexPolicyDocument extracts, chunks, and embeds a policy document, then
// replaces the policy's stored chunk set in one transaction.
func (ix *Indexer) IndexPolicyDocument(ctx context.Context, doc PolicyDocument) IndexResult {
	raw, err := ix.fetchSource(ctx, doc.FilePath)
	if err != nil {
		ix.logger.WithError(err).WithField("policy_id", doc.PolicyID).Warn("Failed to read policy document")
		return IndexResult{Status: StatusSkipped, Reason: ReasonNoTextExtracted}
	}

	text := extractText(doc.FilePath, raw)
	if text == "" {
		return IndexResult{Status: StatusSkipped, Reason: ReasonNoTextExtracted}
	}

	chunks := chunkText(text, ix.maxChars, ix.overlap)
	if len(chunks) == 0 {
		return IndexResult{Status: StatusSkipped, Reason: ReasonNoChunksCreated}
	}

	embeddings, err := ix.embedder.Embed(ctx, chunks, llm.InputTypeDocument)
	if err != nil {
		ix.logger.WithError(err).WithField("policy_id", doc.PolicyID).Warn("Failed to embed policy chunks")
		return IndexResult{Status: StatusSkipped, Reason: ReasonNoEmbeddingsCreated}
	}
	if len(embeddings) == 0 {
		return IndexResult{Status: StatusSkipped, Reason: ReasonNoEmbeddingsCreated}
	}

	records := make([]Chunk, 0, len(chunks))
	for i, chunk := range chunks {
		if i >= len(embeddings) {
			break
		}
		records = append(records, Chunk{
			PolicyID:       doc.PolicyID,
			OrganizationID: doc.OrganizationID,
			PolicyName:     doc.PolicyName,
			Description:    doc.Description,
			DocumentName:   doc.DocumentName,
			FilePath:       doc.FilePath,
			Index:          i,
			Text:           chunk,
			Embedding:      embeddings[i],
		})
	}

	if err := ix.store.Replace(ctx, doc.PolicyID, records); err != nil {
		ix.logger.WithError(err).WithField("policy_id", doc.PolicyID).Warn("Failed to store policy chunks")
		return IndexResult{Status: StatusSkipped, Reason: ReasonStorageFailed}
	}

	documentsIndexedTotal.WithLabelValues(StatusIndexed).Inc()
	indexedChunksCount.Observe(float64(len(records)))
	return IndexResult{Status: StatusIndexed, Chunks: len(records)}
}

// RemovePolicy deletes every stored chunk for a policy.
func (ix *Indexer) RemovePolicy(ctx context.Context, policyID string) IndexResult {
	count, err := ix.store.DeleteByPolicy(ctx, policyID)
	if err != nil {
		ix.logger.WithError(err).WithField("policy_id", policyID).Warn("Failed to remove policy chunks")
		return IndexResult{Status: StatusSkipped, Reason: ReasonStorageFailed}
	}
	if count == 0 {
		return IndexResult{Status: StatusSkipped, Reason: ReasonPolicyNotFound}
	}
	return IndexResult{Status: StatusRemoved, Count: int(count)}
}

func (ix *Indexer) fetchSource(ctx context.Context, sourcePath string) ([]byte, error) {
	if strings.HasPrefix(sourcePath, "http://") || strings.HasPrefix(sourcePath, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourcePath, nil)
		if err != nil {
			return nil, fmt.Errorf("create fetch request: %w", err)
		}
		resp, err := ix.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("fetch document: %w", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
			return nil, fmt.Errorf("fetch document: unexpected status %s", resp.Status)
		}
		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("read document body: %w", err)
		}
		return raw, nil
	}

	raw, err := os.ReadFile(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("read document file: %w", err)
	}
	return raw, nil
}
