package rag

import (
	"context"
	"strings"
	"time"

	"ideagraph/application/ports"
	pkgerrors "ideagraph/pkg/errors"
	"ideagraph/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// VectorRetriever embeds queries, ranks the owner's documents and trims the hits to a token budget
type VectorRetriever struct {
	embedder  Embedder
	store     DocumentStore
	counter   *utils.TokenCounter
	topK      int
	maxTokens int
	logger    *zap.Logger
}

var (
	_ ports.Retriever       = (*VectorRetriever)(nil)
	_ ports.DocumentIndexer = (*VectorRetriever)(nil)
)

// NewVectorRetriever creates a retriever; maxTokens <= 0 disables trimming
func NewVectorRetriever(embedder Embedder, store DocumentStore, counter *utils.TokenCounter, topK, maxTokens int, logger *zap.Logger) *VectorRetriever {
	if topK <= 0 {
		topK = 4
	}
	return &VectorRetriever{
		embedder:  embedder,
		store:     store,
		counter:   counter,
		topK:      topK,
		maxTokens: maxTokens,
		logger:    logger.Named("retriever"),
	}
}

// Retrieve returns the owner's closest documents, best first
func (r *VectorRetriever) Retrieve(ctx context.Context, owner, query string) ([]ports.Document, error) {
	vectors, err := r.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	hits, err := r.store.Search(ctx, owner, vectors[0], r.topK)
	if err != nil {
		return nil, err
	}

	docs := make([]ports.Document, 0, len(hits))
	used := 0
	for _, hit := range hits {
		doc := hit.Document
		if r.maxTokens > 0 {
			remaining := r.maxTokens - used
			if remaining <= 0 {
				break
			}
			tokens := r.counter.Count(doc.Content)
			if tokens > remaining {
				doc.Content = r.counter.Truncate(doc.Content, remaining)
				tokens = remaining
			}
			used += tokens
		}
		docs = append(docs, doc)
	}

	r.logger.Debug("Documents retrieved",
		zap.String("owner", owner),
		zap.Int("hits", len(hits)),
		zap.Int("returned", len(docs)),
		zap.Int("tokens", used),
	)
	return docs, nil
}

// Index embeds content and adds it to the owner's corpus
func (r *VectorRetriever) Index(ctx context.Context, owner, content, source string) (*ports.Document, error) {
	if strings.TrimSpace(content) == "" {
		return nil, pkgerrors.NewValidationError("document content is empty")
	}
	vectors, err := r.embedder.Embed(ctx, []string{content})
	if err != nil {
		return nil, err
	}

	doc := ports.Document{
		ID:        uuid.New().String(),
		Owner:     owner,
		Content:   content,
		Source:    source,
		Embedding: vectors[0],
		CreatedAt: time.Now().UTC(),
	}
	if err := r.store.Add(ctx, doc); err != nil {
		return nil, err
	}

	r.logger.Info("Document indexed",
		zap.String("owner", owner),
		zap.String("documentID", doc.ID),
		zap.Int("dimensions", len(doc.Embedding)),
	)
	return &doc, nil
}
