package rag

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

const (
	orgA = "5a9e6f3c-1f2d-4c3b-9a8e-0d1c2b3a4f5e"
	orgB = "7b1c2d3e-4f5a-6b7c-8d9e-0f1a2b3c4d5e"
)

func chunkColumns() []string {
	return []string{
		"id", "policy_id", "organization_id", "policy_name",
		"description", "document_name", "file_path", "chunk_index", "chunk_text",
	}
}

func newMockSearcher(t *testing.T, embedder *fakeEmbedder) (*Searcher, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewSearcher(NewStore(db), embedder, 5), mock
}

func TestSearcherQuery(t *testing.T) {
	embedder := &fakeEmbedder{vectors: [][]float32{{0.1, 0.2}}}
	searcher, mock := newMockSearcher(t, embedder)

	rows := sqlmock.NewRows(chunkColumns()).
		AddRow("chunk-1", "pol-1", orgA, "Sick Leave", "", "sick.pdf", "/docs/sick.pdf", 0, "certificate required")
	mock.ExpectQuery("SELECT id").WillReturnRows(rows)

	matches, err := searcher.Query(context.Background(), "sick leave rules", 5, nil, QueryTypeToolCall)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}
	if embedder.inputType != "search_query" {
		t.Fatalf("expected query intent, got %q", embedder.inputType)
	}
	if matches[0].Label() != "sick.pdf (chunk 0)" {
		t.Fatalf("unexpected label %q", matches[0].Label())
	}
}

func TestSearcherQueryDropsMalformedIDs(t *testing.T) {
	embedder := &fakeEmbedder{vectors: [][]float32{{0.1, 0.2}}}
	searcher, mock := newMockSearcher(t, embedder)

	rows := sqlmock.NewRows(chunkColumns()).
		AddRow("chunk-1", "pol-1", orgA, "Sick Leave", "", "", "", 0, "text")
	mock.ExpectQuery("SELECT id").WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg()).WillReturnRows(rows)

	matches, err := searcher.Query(context.Background(), "q", 5, []string{orgA, "not-a-uuid"}, QueryTypeToolCall)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}
}

func TestSearcherQueryAllMalformedIDsReturnsEmpty(t *testing.T) {
	embedder := &fakeEmbedder{vectors: [][]float32{{0.1, 0.2}}}
	searcher, _ := newMockSearcher(t, embedder)

	matches, err := searcher.Query(context.Background(), "q", 5, []string{"bad", "worse"}, QueryTypeToolCall)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(matches) != 0 {
		t.Fatalf("expected no matches for unusable filter, got %d", len(matches))
	}
	if embedder.inputs != nil {
		t.Fatalf("expected no embedding call for unusable filter")
	}
}

func TestSearcherQueryEmptyEmbedding(t *testing.T) {
	embedder := &fakeEmbedder{vectors: [][]float32{}}
	searcher, _ := newMockSearcher(t, embedder)

	matches, err := searcher.Query(context.Background(), "q", 5, nil, QueryTypePreRetrieval)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if matches != nil {
		t.Fatalf("expected nil matches, got %v", matches)
	}
}

func TestSearcherQueryTopKFloor(t *testing.T) {
	embedder := &fakeEmbedder{vectors: [][]float32{{0.1, 0.2}}}
	searcher, mock := newMockSearcher(t, embedder)

	mock.ExpectQuery("LIMIT 5").WillReturnRows(sqlmock.NewRows(chunkColumns()))

	if _, err := searcher.Query(context.Background(), "q", 0, nil, QueryTypeToolCall); err != nil {
		t.Fatalf("query: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
