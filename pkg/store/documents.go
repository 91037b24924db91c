package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"github.com/pharmintel/core/internal/apperr"
	"github.com/pharmintel/core/internal/models"
)

// InsertDocumentWithChunks writes the document record and all of its
// chunks in one transaction. Either everything lands or nothing does.
func (s *Store) InsertDocumentWithChunks(ctx context.Context, doc models.Document, chunks []models.Chunk) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO documents (id, owner_id, name, media_type, size_bytes, storage_path, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		doc.ID, doc.OwnerID, doc.Name, doc.MediaType, doc.SizeBytes, doc.StoragePath, doc.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert document: %w", err)
	}

	for _, chunk := range chunks {
		_, err = tx.Exec(ctx, `
			INSERT INTO chunks (doc_id, ordinal, page_no, content, embedding)
			VALUES ($1, $2, $3, $4, $5)`,
			chunk.DocID, chunk.Ordinal, chunk.PageNo, chunk.Content, pgvector.NewVector(chunk.Embedding),
		)
		if err != nil {
			return fmt.Errorf("failed to insert chunk %d: %w", chunk.Ordinal, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetDocument returns the document only when it exists and belongs to
// ownerID; anything else is NotFound.
func (s *Store) GetDocument(ctx context.Context, id, ownerID string) (*models.Document, error) {
	var doc models.Document
	err := s.pool.QueryRow(ctx, `
		SELECT id, owner_id, name, media_type, size_bytes, storage_path, created_at
		FROM documents WHERE id = $1 AND owner_id = $2`,
		id, ownerID,
	).Scan(&doc.ID, &doc.OwnerID, &doc.Name, &doc.MediaType, &doc.SizeBytes, &doc.StoragePath, &doc.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.New(apperr.NotFound, "document %s not found", id)
		}
		return nil, fmt.Errorf("failed to load document: %w", err)
	}
	return &doc, nil
}

func (s *Store) ListDocuments(ctx context.Context, ownerID string) ([]models.Document, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, owner_id, name, media_type, size_bytes, storage_path, created_at
		FROM documents WHERE owner_id = $1 ORDER BY created_at DESC`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var docs []models.Document
	for rows.Next() {
		var doc models.Document
		if err := rows.Scan(&doc.ID, &doc.OwnerID, &doc.Name, &doc.MediaType, &doc.SizeBytes, &doc.StoragePath, &doc.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// DeleteDocument removes the document; chunks follow via the cascading
// foreign key.
func (s *Store) DeleteDocument(ctx context.Context, id, ownerID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM documents WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.New(apperr.NotFound, "document %s not found", id)
	}
	return nil
}

func (s *Store) CountDocuments(ctx context.Context, ownerID string) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `SELECT count(*) FROM documents WHERE owner_id = $1`, ownerID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return count, nil
}

// ListChunks returns a document's chunks in ordinal order, capped at
// limit when limit > 0.
func (s *Store) ListChunks(ctx context.Context, docID string, limit int) ([]models.Chunk, error) {
	query := `SELECT doc_id, ordinal, page_no, content FROM chunks WHERE doc_id = $1 ORDER BY ordinal`
	args := []interface{}{docID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list chunks: %w", err)
	}
	defer rows.Close()

	var chunks []models.Chunk
	for rows.Next() {
		var c models.Chunk
		if err := rows.Scan(&c.DocID, &c.Ordinal, &c.PageNo, &c.Content); err != nil {
			return nil, fmt.Errorf("failed to scan chunk: %w", err)
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

// SearchChunks returns the chunks of docID whose cosine similarity to
// embedding meets threshold, ordered by descending similarity and
// truncated to limit. Results never cross document boundaries.
func (s *Store) SearchChunks(ctx context.Context, docID string, embedding []float32, threshold float32, limit int) ([]models.RetrievedChunk, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT doc_id, ordinal, page_no, content, 1 - (embedding <=> $1) AS similarity
		FROM chunks
		WHERE doc_id = $2 AND 1 - (embedding <=> $1) >= $3
		ORDER BY embedding <=> $1
		LIMIT $4`,
		pgvector.NewVector(embedding), docID, threshold, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search chunks: %w", err)
	}
	defer rows.Close()

	var results []models.RetrievedChunk
	for rows.Next() {
		var r models.RetrievedChunk
		if err := rows.Scan(&r.DocID, &r.Ordinal, &r.PageNo, &r.Content, &r.Similarity); err != nil {
			return nil, fmt.Errorf("failed to scan search result: %w", err)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}
