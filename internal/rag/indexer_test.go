package rag

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"orgdesk/pkg/logging"
)

type fakeEmbedder struct {
	vectors   [][]float32
	err       error
	inputType string
	inputs    []string
}

func (f *fakeEmbedder) Embed(ctx context.Context, inputs []string, inputType string) ([][]float32, error) {
	f.inputs = inputs
	f.inputType = inputType
	if f.err != nil {
		return nil, f.err
	}
	if f.vectors != nil {
		return f.vectors, nil
	}
	vectors := make([][]float32, len(inputs))
	for i := range vectors {
		vectors[i] = []float32{0.1, 0.2}
	}
	return vectors, nil
}

func newMockIndexer(t *testing.T, embedder *fakeEmbedder) (*Indexer, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	indexer := NewIndexer(NewStore(db), embedder, time.Second, 1200, 200, logging.NewLogger())
	return indexer, mock
}

func writeTempDoc(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write temp doc: %v", err)
	}
	return path
}

func TestIndexPolicyDocument(t *testing.T) {
	embedder := &fakeEmbedder{}
	indexer, mock := newMockIndexer(t, embedder)
	path := writeTempDoc(t, "policy.txt", "Employees accrue 18 days of privilege leave per year.")

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM orgdesk.policy_chunks").WithArgs("pol-1").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectPrepare("INSERT INTO orgdesk.policy_chunks").
		ExpectExec().
		WithArgs("pol-1", "org-1", "Privilege Leave", "", "policy.txt", path, 0, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	result := indexer.IndexPolicyDocument(context.Background(), PolicyDocument{
		PolicyID:       "pol-1",
		OrganizationID: "org-1",
		PolicyName:     "Privilege Leave",
		DocumentName:   "policy.txt",
		FilePath:       path,
	})

	if result.Status != StatusIndexed || result.Chunks != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if embedder.inputType != "search_document" {
		t.Fatalf("expected document intent, got %q", embedder.inputType)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestIndexPolicyDocumentMissingFile(t *testing.T) {
	indexer, _ := newMockIndexer(t, &fakeEmbedder{})

	result := indexer.IndexPolicyDocument(context.Background(), PolicyDocument{
		PolicyID: "pol-1",
		FilePath: filepath.Join(t.TempDir(), "missing.txt"),
	})
	if result.Status != StatusSkipped || result.Reason != ReasonNoTextExtracted {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestIndexPolicyDocumentBinaryContent(t *testing.T) {
	indexer, _ := newMockIndexer(t, &fakeEmbedder{})
	path := writeTempDoc(t, "policy.dat", "\x00\x01\x02")

	result := indexer.IndexPolicyDocument(context.Background(), PolicyDocument{
		PolicyID: "pol-1",
		FilePath: path,
	})
	if result.Status != StatusSkipped || result.Reason != ReasonNoTextExtracted {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestIndexPolicyDocumentEmbeddingFailure(t *testing.T) {
	indexer, _ := newMockIndexer(t, &fakeEmbedder{err: errors.New("embedding service down")})
	path := writeTempDoc(t, "policy.txt", "Sick leave requires a medical certificate after two days.")

	result := indexer.IndexPolicyDocument(context.Background(), PolicyDocument{
		PolicyID: "pol-1",
		FilePath: path,
	})
	if result.Status != StatusSkipped || result.Reason != ReasonNoEmbeddingsCreated {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestRemovePolicy(t *testing.T) {
	indexer, mock := newMockIndexer(t, &fakeEmbedder{})

	mock.ExpectExec("DELETE FROM orgdesk.policy_chunks").
		WithArgs("pol-1").
		WillReturnResult(sqlmock.NewResult(0, 7))

	result := indexer.RemovePolicy(context.Background(), "pol-1")
	if result.Status != StatusRemoved || result.Count != 7 {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestRemovePolicyNotFound(t *testing.T) {
	indexer, mock := newMockIndexer(t, &fakeEmbedder{})

	mock.ExpectExec("DELETE FROM orgdesk.policy_chunks").
		WithArgs("pol-9").
		WillReturnResult(sqlmock.NewResult(0, 0))

	result := indexer.RemovePolicy(context.Background(), "pol-9")
	if result.Status != StatusSkipped || result.Reason != ReasonPolicyNotFound {
		t.Fatalf("unexpected result: %+v", result)
	}
}
