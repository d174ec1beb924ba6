package rag

import (
	"context"
	"database/sql"
	"fmt"
)

// EnsureEmbeddingDimensions checks whether the embedding vector column matches
// the target dimension count. When they differ it truncates stale data, alters
// the column type, and rebuilds the HNSW index.
// Returns true when a migration was performed.
func EnsureEmbeddingDimensions(ctx context.Context, db *sql.DB, target int) (bool, error) {
	if target <= 0 {
		return false, fmt.Errorf("invalid embedding dimensions: %d", target)
	}

	// pgvector stores the dimension count in atttypmod for vector(N) columns.
	var current int
	err := db.QueryRowContext(ctx, `
		SELECT atttypmod
		FROM pg_attribute
		WHERE attrelid = 'orgdesk.policy_chunks'::regclass
		  AND attname = 'embedding'
	`).Scan(&current)
	if err != nil {
		return false, fmt.Errorf("query current embedding dimensions: %w", err)
	}

	if current == target {
		return false, nil
	}

	// Dimensions changed — old embeddings are from a different model and
	// cannot be meaningfully searched, so we truncate before altering.
	stmts := []string{
		`DROP INDEX IF EXISTS orgdesk.policy_chunks_embedding_idx`,
		`TRUNCATE orgdesk.policy_chunks`,
		fmt.Sprintf(`ALTER TABLE orgdesk.policy_chunks ALTER COLUMN embedding TYPE vector(%d)`, target),
		`CREATE INDEX policy_chunks_embedding_idx ON orgdesk.policy_chunks USING hnsw (embedding vector_cosine_ops) WITH (m = 24, ef_construction = 256)`,
	}
	for _, stmt := range stmts {
		if _, execErr := db.ExecContext(ctx, stmt); execErr != nil {
			return false, fmt.Errorf("migrate embedding dimensions (%d to %d): %w", current, target, execErr)
		}
	}

	return true, nil
}
