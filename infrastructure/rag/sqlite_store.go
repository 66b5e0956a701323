package rag

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"ideagraph/application/ports"
)

// SQLiteDocumentStore persists documents in the documents table.
// Search loads the owner's vectors and ranks them in process.
type SQLiteDocumentStore struct {
	db *sql.DB
}

// NewSQLiteDocumentStore creates a store over a database opened by persistence/sqlite.Open
func NewSQLiteDocumentStore(db *sql.DB) *SQLiteDocumentStore {
	return &SQLiteDocumentStore{db: db}
}

func (s *SQLiteDocumentStore) Add(ctx context.Context, doc ports.Document) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (id, owner, content, source, embedding, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		doc.ID, doc.Owner, doc.Content, doc.Source, encodeVector(doc.Embedding), doc.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to insert document: %w", err)
	}
	return nil
}

func (s *SQLiteDocumentStore) Search(ctx context.Context, owner string, query []float32, topK int) ([]ScoredDocument, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, content, source, embedding, created_at FROM documents WHERE owner = ? ORDER BY rowid`, owner,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	var candidates []ports.Document
	for rows.Next() {
		var (
			doc       ports.Document
			blob      []byte
			createdAt string
		)
		if err := rows.Scan(&doc.ID, &doc.Content, &doc.Source, &blob, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		doc.Owner = owner
		doc.Embedding = decodeVector(blob)
		doc.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		candidates = append(candidates, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return rank(candidates, query, topK), nil
}

func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(b []byte) []float32 {
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v
}
