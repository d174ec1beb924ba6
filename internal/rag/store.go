package rag

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
)

// Chunk is one embedded slice of a policy document. For a given policy the
// stored chunk indexes are contiguous from 0 and always reflect the most
// recent indexing run.
type Chunk struct {
	ID             string
	PolicyID       string
	OrganizationID string
	PolicyName     string
	Description    string
	DocumentName   string
	FilePath       string
	Index          int
	Text           string
	Embedding      []float32
	Created        time.Time
}

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Replace swaps out every stored chunk for a policy in one transaction, so a
// concurrent reader never observes a mix of old and new chunk sets.
func (s *Store) Replace(ctx context.Context, policyID string, chunks []Chunk) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM orgdesk.policy_chunks
		WHERE policy_id = $1
	`, policyID); err != nil {
		return fmt.Errorf("delete existing chunks: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO orgdesk.policy_chunks (
			policy_id,
			organization_id,
			policy_name,
			description,
			document_name,
			file_path,
			chunk_index,
			chunk_text,
			embedding
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, chunk := range chunks {
		if _, err := stmt.ExecContext(
			ctx,
			chunk.PolicyID,
			chunk.OrganizationID,
			chunk.PolicyName,
			chunk.Description,
			chunk.DocumentName,
			chunk.FilePath,
			chunk.Index,
			chunk.Text,
			pgvector.NewVector(chunk.Embedding),
		); err != nil {
			return fmt.Errorf("insert chunk: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// DeleteByPolicy removes all chunks for a policy and reports how many rows
// were deleted.
func (s *Store) DeleteByPolicy(ctx context.Context, policyID string) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM orgdesk.policy_chunks
		WHERE policy_id = $1
	`, policyID)
	if err != nil {
		return 0, fmt.Errorf("delete policy chunks: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count deleted chunks: %w", err)
	}
	return count, nil
}

// Search ranks stored chunks by cosine distance to the query vector,
// nearest first, optionally restricted to a set of organization ids.
func (s *Store) Search(ctx context.Context, embedding []float32, limit int, organizationIDs []string) ([]Chunk, error) {
	if limit < 1 {
		limit = 1
	}

	query := `
		SELECT id,
			policy_id,
			organization_id,
			policy_name,
			COALESCE(description, ''),
			COALESCE(document_name, ''),
			COALESCE(file_path, ''),
			chunk_index,
			chunk_text
		FROM orgdesk.policy_chunks
	`
	args := []interface{}{pgvector.NewVector(embedding)}
	if len(organizationIDs) > 0 {
		query += ` WHERE organization_id = ANY($2)`
		args = append(args, pq.Array(organizationIDs))
	}
	query += fmt.Sprintf(` ORDER BY embedding <=> $1 LIMIT %d`, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search policy chunks: %w", err)
	}
	defer rows.Close()

	var chunks []Chunk
	for rows.Next() {
		var chunk Chunk
		if err := rows.Scan(
			&chunk.ID,
			&chunk.PolicyID,
			&chunk.OrganizationID,
			&chunk.PolicyName,
			&chunk.Description,
			&chunk.DocumentName,
			&chunk.FilePath,
			&chunk.Index,
			&chunk.Text,
		); err != nil {
			return nil, fmt.Errorf("scan policy chunk: %w", err)
		}
		chunks = append(chunks, chunk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate policy chunks: %w", err)
	}
	return chunks, nil
}

// List returns stored chunks for inspection, newest policies first, filtered
// by policy and/or organization when supplied.
func (s *Store) List(ctx context.Context, policyID, organizationID string, limit, offset int) ([]Chunk, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	query := `
		SELECT id,
			policy_id,
			organization_id,
			policy_name,
			COALESCE(description, ''),
			COALESCE(document_name, ''),
			COALESCE(file_path, ''),
			chunk_index,
			chunk_text,
			created
		FROM orgdesk.policy_chunks
	`
	var conditions []string
	var args []interface{}
	if policyID != "" {
		args = append(args, policyID)
		conditions = append(conditions, fmt.Sprintf("policy_id = $%d", len(args)))
	}
	if organizationID != "" {
		args = append(args, organizationID)
		conditions = append(conditions, fmt.Sprintf("organization_id = $%d", len(args)))
	}
	for i, cond := range conditions {
		if i == 0 {
			query += " WHERE " + cond
		} else {
			query += " AND " + cond
		}
	}
	args = append(args, limit, offset)
	query += fmt.Sprintf(" ORDER BY created DESC, chunk_index LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list policy chunks: %w", err)
	}
	defer rows.Close()

	var chunks []Chunk
	for rows.Next() {
		var chunk Chunk
		if err := rows.Scan(
			&chunk.ID,
			&chunk.PolicyID,
			&chunk.OrganizationID,
			&chunk.PolicyName,
			&chunk.Description,
			&chunk.DocumentName,
			&chunk.FilePath,
			&chunk.Index,
			&chunk.Text,
			&chunk.Created,
		); err != nil {
			return nil, fmt.Errorf("scan policy chunk: %w", err)
		}
		chunks = append(chunks, chunk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate policy chunks: %w", err)
	}
	return chunks, nil
}
