// Package retriever chunks uploaded study material, embeds the chunks and
// answers top-k similarity queries against them.
package retriever

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/textsplitter"
	"go.uber.org/zap"
)

const (
	MinContentLength = 50
	ChunkSize        = 1500
	ChunkOverlap     = 150
	DefaultK         = 3

	// SectionSeparator joins retrieved chunks in Query results.
	SectionSeparator = "\n\n--- Retrieved Section ---\n\n"
)

var (
	ErrContentTooShort      = errors.New("PDF text too short to process (minimum 50 characters required)")
	ErrEmbeddingUnavailable = errors.New("embedding model unavailable")
	ErrNoChunks             = errors.New("no chunks created from text")
)

var separators = []string{"\n\n", "\n", ". ", " ", ""}

// Retriever owns the index of a single uploaded document. Each upload
// replaces the previous index wholesale.
type Retriever struct {
	mu       sync.RWMutex
	embedder embeddings.Embedder
	store    VectorStore
	splitter textsplitter.RecursiveCharacter
	ready    bool
	chunks   int
}

// New returns a Retriever. A nil embedder is allowed: Index then always
// fails with ErrEmbeddingUnavailable.
func New(embedder embeddings.Embedder, store VectorStore) *Retriever {
	if store == nil {
		store = NewMemoryStore()
	}
	return &Retriever{
		embedder: embedder,
		store:    store,
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(ChunkSize),
			textsplitter.WithChunkOverlap(ChunkOverlap),
			textsplitter.WithSeparators(separators),
			textsplitter.WithKeepSeparator(true),
		),
	}
}

// Split chunks text with the retriever's splitter settings.
func (r *Retriever) Split(text string) ([]string, error) {
	chunks, err := r.splitter.SplitText(text)
	if err != nil {
		return nil, fmt.Errorf("failed to split text: %w", err)
	}

	out := chunks[:0]
	for _, c := range chunks {
		if strings.TrimSpace(c) != "" {
			out = append(out, c)
		}
	}
	return out, nil
}

// Index replaces the current index with the chunks of text and returns the
// number of chunks stored.
func (r *Retriever) Index(ctx context.Context, text string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.resetLocked(ctx); err != nil {
		return 0, err
	}

	if len(strings.TrimSpace(text)) < MinContentLength {
		return 0, ErrContentTooShort
	}
	if r.embedder == nil {
		return 0, ErrEmbeddingUnavailable
	}

	zap.S().Infof("Starting document indexing (%d chars)", len(text))

	texts, err := r.Split(text)
	if err != nil {
		return 0, err
	}
	if len(texts) == 0 {
		return 0, ErrNoChunks
	}

	vectors, err := r.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		zap.S().Errorf("Failed to embed %d chunks: %v", len(texts), err)
		return 0, fmt.Errorf("%w: %w", ErrEmbeddingUnavailable, err)
	}
	if len(vectors) != len(texts) {
		return 0, fmt.Errorf("%w: got %d vectors for %d chunks", ErrEmbeddingUnavailable, len(vectors), len(texts))
	}

	chunks := make([]Chunk, len(texts))
	for i, t := range texts {
		chunks[i] = Chunk{ID: ChunkID(i), Index: i, Text: t, Vector: vectors[i]}
	}

	if err := r.store.Upsert(ctx, chunks); err != nil {
		return 0, fmt.Errorf("failed to store chunks: %w", err)
	}

	r.ready = true
	r.chunks = len(chunks)
	zap.S().Infof("Successfully indexed document into %d chunks", r.chunks)
	return r.chunks, nil
}

// Query returns the k chunks most similar to text, joined by
// SectionSeparator. It returns "" when nothing is indexed.
func (r *Retriever) Query(ctx context.Context, text string, k int) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if !r.ready || r.chunks == 0 {
		return "", nil
	}
	if k <= 0 {
		k = DefaultK
	}

	vector, err := r.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return "", fmt.Errorf("failed to embed query: %w", err)
	}

	matches, err := r.store.Search(ctx, vector, k)
	if err != nil {
		return "", fmt.Errorf("failed to search chunks: %w", err)
	}

	parts := make([]string, 0, len(matches))
	for _, m := range matches {
		parts = append(parts, m.Chunk.Text)
	}
	zap.S().Debugf("Retrieved %d chunks for query %.50q", len(parts), text)
	return strings.Join(parts, SectionSeparator), nil
}

// Retrieve is Query for callers that treat retrieval as best effort.
func (r *Retriever) Retrieve(ctx context.Context, text string, k int) string {
	result, err := r.Query(ctx, text, k)
	if err != nil {
		zap.S().Warnf("Failed to retrieve context: %v", err)
		return ""
	}
	return result
}

func (r *Retriever) IsReady() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.ready
}

func (r *Retriever) ChunkCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.chunks
}

// Reset drops every indexed chunk.
func (r *Retriever) Reset(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resetLocked(ctx)
}

func (r *Retriever) resetLocked(ctx context.Context) error {
	r.ready = false
	r.chunks = 0
	if err := r.store.Reset(ctx); err != nil {
		return fmt.Errorf("failed to reset vector store: %w", err)
	}
	return nil
}

// ChunkID is the stable vector ID of the i-th chunk.
func ChunkID(i int) string {
	return fmt.Sprintf("chunk_%d", i)
}
