package rag

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"orgdesk/pkg/llm"
)

// Search query types for metrics.
const (
	QueryTypeToolCall     = "tool_call"
	QueryTypePreRetrieval = "pre_retrieval"
)

// Match is one retrieved chunk. No numeric score is carried; ordering is the
// only relevance signal.
type Match struct {
	PolicyID       string
	OrganizationID string
	PolicyName     string
	Description    string
	DocumentName   string
	FilePath       string
	ChunkIndex     int
	Text           string
}

// Label names the match's source for excerpt lists shown to the model.
func (m Match) Label() string {
	name := m.DocumentName
	if name == "" {
		name = m.PolicyName
	}
	if name == "" {
		name = "document"
	}
	return fmt.Sprintf("%s (chunk %d)", name, m.ChunkIndex)
}

type Searcher struct {
	store       *Store
	embedder    llm.EmbeddingClient
	defaultTopK int
}

func NewSearcher(store *Store, embedder llm.EmbeddingClient, defaultTopK int) *Searcher {
	if defaultTopK < 1 {
		defaultTopK = 5
	}
	return &Searcher{store: store, embedder: embedder, defaultTopK: defaultTopK}
}

// Query embeds the text with query intent and returns the nearest stored
// chunks. Malformed organization ids are dropped from the filter; a filter
// that yields no usable ids returns no matches rather than widening scope.
func (s *Searcher) Query(ctx context.Context, text string, topK int, organizationIDs []string, queryType string) ([]Match, error) {
	if topK < 1 {
		topK = s.defaultTopK
	}

	var filter []string
	for _, id := range organizationIDs {
		if _, err := uuid.Parse(id); err == nil {
			filter = append(filter, id)
		}
	}
	if len(organizationIDs) > 0 && len(filter) == 0 {
		return nil, nil
	}

	searchQueriesTotal.WithLabelValues(queryType).Inc()
	start := time.Now()
	defer func() {
		searchDuration.Observe(time.Since(start).Seconds())
	}()

	vectors, err := s.embedder.Embed(ctx, []string{text}, llm.InputTypeQuery)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return nil, nil
	}

	chunks, err := s.store.Search(ctx, vectors[0], topK, filter)
	if err != nil {
		return nil, err
	}

	matches := make([]Match, 0, len(chunks))
	for _, chunk := range chunks {
		matches = append(matches, Match{
			PolicyID:       chunk.PolicyID,
			OrganizationID: chunk.OrganizationID,
			PolicyName:     chunk.PolicyName,
			Description:    chunk.Description,
			DocumentName:   chunk.DocumentName,
			FilePath:       chunk.FilePath,
			ChunkIndex:     chunk.Index,
			Text:           chunk.Text,
		})
	}
	searchResultsCount.Observe(float64(len(matches)))
	return matches, nil
}
