package pgx

import (
	"context"
	"fmt"
	"sync"

	pgxv5 "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type pgxIConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, optionsAndArgs ...any) (pgxv5.Rows, error)
	QueryRow(ctx context.Context, sql string, optionsAndArgs ...any) pgxv5.Row
	Begin(ctx context.Context) (pgxv5.Tx, error)
}

// GraphDBStorage implements the GraphStorage and VectorIndex interfaces
// using PostgreSQL with pgvector for vector similarity search. Writes are
// serialized with a mutex so one connection can be shared across workers.
type GraphDBStorage struct {
	conn   pgxIConn
	dbLock sync.Mutex
}

// NewGraphDBStorageWithConnection creates a new GraphDBStorage using an
// existing database connection or pool.
func NewGraphDBStorageWithConnection(conn pgxIConn) *GraphDBStorage {
	return &GraphDBStorage{
		conn:   conn,
		dbLock: sync.Mutex{},
	}
}

// EnsureSchema creates the graph and embedding tables if they do not
// exist. The embedding dimension is fixed at table creation time.
func (s *GraphDBStorage) EnsureSchema(ctx context.Context, embeddingDim int) error {
	statements := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		`CREATE TABLE IF NOT EXISTS nodes (
			id TEXT PRIMARY KEY,
			kind TEXT NOT NULL,
			properties JSONB NOT NULL DEFAULT '{}'
		)`,
		`CREATE TABLE IF NOT EXISTS edges (
			source_id TEXT NOT NULL REFERENCES nodes(id) ON DELETE CASCADE,
			target_id TEXT NOT NULL REFERENCES nodes(id) ON DELETE CASCADE,
			type TEXT NOT NULL,
			PRIMARY KEY (source_id, target_id, type)
		)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS chunk_embeddings (
			chunk_id TEXT PRIMARY KEY,
			document_id TEXT NOT NULL,
			content TEXT NOT NULL,
			embedding vector(%d) NOT NULL
		)`, embeddingDim),
		`CREATE INDEX IF NOT EXISTS idx_nodes_kind ON nodes (kind)`,
		`CREATE INDEX IF NOT EXISTS idx_edges_type ON edges (type)`,
	}

	for _, stmt := range statements {
		if _, err := s.conn.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
