package rag

import (
	"context"
	"math"
	"sort"
	"sync"

	"ideagraph/application/ports"
)

// ScoredDocument is a search hit with its cosine similarity to the query
type ScoredDocument struct {
	ports.Document
	Score float64
}

// DocumentStore persists embedded documents and answers nearest-neighbour queries per owner
type DocumentStore interface {
	Add(ctx context.Context, doc ports.Document) error
	Search(ctx context.Context, owner string, query []float32, topK int) ([]ScoredDocument, error)
}

// MemoryDocumentStore keeps documents in process
type MemoryDocumentStore struct {
	mu   sync.RWMutex
	docs map[string][]ports.Document
}

// NewMemoryDocumentStore creates an empty in-memory store
func NewMemoryDocumentStore() *MemoryDocumentStore {
	return &MemoryDocumentStore{docs: make(map[string][]ports.Document)}
}

func (s *MemoryDocumentStore) Add(ctx context.Context, doc ports.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[doc.Owner] = append(s.docs[doc.Owner], doc)
	return nil
}

func (s *MemoryDocumentStore) Search(ctx context.Context, owner string, query []float32, topK int) ([]ScoredDocument, error) {
	s.mu.RLock()
	candidates := append([]ports.Document(nil), s.docs[owner]...)
	s.mu.RUnlock()
	return rank(candidates, query, topK), nil
}

// rank scores candidates against query and keeps the best topK, ties by insertion order
func rank(candidates []ports.Document, query []float32, topK int) []ScoredDocument {
	scored := make([]ScoredDocument, len(candidates))
	for i, d := range candidates {
		scored[i] = ScoredDocument{Document: d, Score: cosineSimilarity(query, d.Embedding)}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if topK > 0 && topK < len(scored) {
		scored = scored[:topK]
	}
	return scored
}

// cosineSimilarity returns 0 for mismatched or zero-magnitude vectors
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		fa, fb := float64(a[i]), float64(b[i])
		dot += fa * fb
		normA += fa * fa
		normB += fb * fb
	}

	denom := math.Sqrt(normA) * math.Sqrt(normB)
	if denom == 0 {
		return 0
	}
	return dot / denom
}
