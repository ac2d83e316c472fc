// Package pgvectorDB backs the vector index with Postgres + pgvector,
// querying by cosine distance with the <=> operator.
package pgvectorDB

import (
	"context"
	"fmt"
	"strings"

	"github.com/git4ruby/rfe-ready-api-sub000/internal/config"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/domain/docModel"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/rag/vectorDB"
	"github.com/git4ruby/rfe-ready-api-sub000/pkg/logger_i"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	db     *pgxpool.Pool
	logger *logger_i.Logger
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgvector pool init failed: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pgvector ping failed: %w", err)
	}
	return &Store{db: pool, logger: logger_i.NewLogger("PgVector")}, nil
}

func (s *Store) Close() { s.db.Close() }

// collections map onto fixed tables; arbitrary names are rejected so no
// identifier ever reaches SQL unvalidated.
func tableFor(collection string) (string, error) {
	switch collection {
	case config.KnowledgeCollection:
		return "rfe_knowledge_chunks", nil
	case config.CaseNoticeCollection:
		return "rfe_case_notice_chunks", nil
	default:
		return "", fmt.Errorf("unknown collection: %s", collection)
	}
}

func (s *Store) EnsureCollection(ctx context.Context, collection string) error {
	table, err := tableFor(collection)
	if err != nil {
		return err
	}

	ddl := fmt.Sprintf(`
		CREATE EXTENSION IF NOT EXISTS vector;
		CREATE TABLE IF NOT EXISTS %s (
			chunk_id    uuid PRIMARY KEY,
			document_id text NOT NULL,
			tenant_id   text NOT NULL,
			content     text NOT NULL,
			chunk_index int  NOT NULL,
			doc_type    text NOT NULL DEFAULT '',
			visa_type   text NOT NULL DEFAULT '',
			category    text NOT NULL DEFAULT '',
			title       text NOT NULL DEFAULT '',
			case_id     text NOT NULL DEFAULT '',
			embedding   vector(%d) NOT NULL
		);
		CREATE INDEX IF NOT EXISTS %s_document_idx ON %s (document_id);
		CREATE INDEX IF NOT EXISTS %s_tenant_idx ON %s (tenant_id);`,
		table, config.EmbeddingOutputDimensionality, table, table, table, table)

	_, err = s.db.Exec(ctx, ddl)
	return err
}

func (s *Store) ReplaceDocument(ctx context.Context, collection string, documentId string, chunks []docModel.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("mismatch: got %d chunks but %d vectors", len(chunks), len(vectors))
	}
	table, err := tableFor(collection)
	if err != nil {
		return err
	}

	// delete-then-insert in one transaction so a re-embed never leaves a
	// partially replaced document behind
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin replace tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE document_id = $1`, table), documentId); err != nil {
		return fmt.Errorf("delete document chunks: %w", err)
	}

	insert := fmt.Sprintf(`
		INSERT INTO %s (chunk_id, document_id, tenant_id, content, chunk_index,
			doc_type, visa_type, category, title, case_id, embedding)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11::vector)`, table)
	for i, c := range chunks {
		_, err := tx.Exec(ctx, insert,
			c.Id, c.DocumentId, c.TenantId, c.Content, c.ChunkIndex,
			c.Metadata.DocType, c.Metadata.VisaType, c.Metadata.Category,
			c.Metadata.Title, c.Metadata.CaseId, formatVector(vectors[i]))
		if err != nil {
			return fmt.Errorf("insert chunk %d: %w", i, err)
		}
	}

	return tx.Commit(ctx)
}

func (s *Store) DeleteDocument(ctx context.Context, collection string, documentId string) error {
	table, err := tableFor(collection)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE document_id = $1`, table), documentId)
	return err
}

func (s *Store) Query(ctx context.Context, collection string, vector []float32, filter vectorDB.Filter, limit uint64) ([]vectorDB.Match, error) {
	table, err := tableFor(collection)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT chunk_id, document_id, tenant_id, content, chunk_index,
			doc_type, visa_type, category, title, case_id,
			embedding <=> $1::vector AS distance
		FROM %s
		WHERE tenant_id = $2
		  AND ($3 = '' OR visa_type = '' OR visa_type = $3)
		  AND ($4 = '' OR category = '' OR category = $4)
		ORDER BY distance
		LIMIT $5`, table)

	rows, err := s.db.Query(ctx, query,
		formatVector(vector), filter.TenantId, filter.VisaType, filter.Category, int64(limit))
	if err != nil {
		s.logger.Error("pgvector query failed", "error", err)
		return nil, err
	}
	defer rows.Close()

	var matches []vectorDB.Match
	for rows.Next() {
		var m vectorDB.Match
		var distance float64
		err := rows.Scan(&m.Chunk.Id, &m.Chunk.DocumentId, &m.Chunk.TenantId,
			&m.Chunk.Content, &m.Chunk.ChunkIndex,
			&m.Chunk.Metadata.DocType, &m.Chunk.Metadata.VisaType,
			&m.Chunk.Metadata.Category, &m.Chunk.Metadata.Title,
			&m.Chunk.Metadata.CaseId, &distance)
		if err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		m.Distance = float32(distance)
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

func formatVector(embedding []float32) string {
	parts := make([]string, len(embedding))
	for i, v := range embedding {
		parts[i] = fmt.Sprintf("%.6f", v)
	}
	return "[" + strings.Join(parts, ",") + "]"
}
