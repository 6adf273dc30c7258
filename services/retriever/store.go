package retriever

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
)

type Chunk struct {
	ID     string
	Index  int
	Text   string
	Vector []float32
}

type Match struct {
	Chunk Chunk
	Score float64
}

// VectorStore persists embedded chunks and answers nearest-neighbour
// queries. Search must return up to k matches whenever the store is
// non-empty, regardless of how relevant they are.
type VectorStore interface {
	Upsert(ctx context.Context, chunks []Chunk) error
	Search(ctx context.Context, vector []float32, k int) ([]Match, error)
	Reset(ctx context.Context) error
}

// MemoryStore is an in-process VectorStore using brute-force cosine
// similarity.
type MemoryStore struct {
	mu     sync.RWMutex
	chunks []Chunk
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Upsert(_ context.Context, chunks []Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	byID := make(map[string]int, len(s.chunks))
	for i, c := range s.chunks {
		byID[c.ID] = i
	}
	for _, c := range chunks {
		if i, ok := byID[c.ID]; ok {
			s.chunks[i] = c
			continue
		}
		byID[c.ID] = len(s.chunks)
		s.chunks = append(s.chunks, c)
	}
	return nil
}

func (s *MemoryStore) Search(_ context.Context, vector []float32, k int) ([]Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if k <= 0 {
		k = DefaultK
	}

	matches := make([]Match, 0, len(s.chunks))
	for _, c := range s.chunks {
		score, err := CosineSimilarity(vector, c.Vector)
		if err != nil {
			return nil, err
		}
		matches = append(matches, Match{Chunk: c, Score: score})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

func (s *MemoryStore) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks = nil
	return nil
}

func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks)
}

// CosineSimilarity returns the cosine of the angle between a and b, or 0
// when either vector has zero magnitude.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("vectors must have the same length: %d != %d", len(a), len(b))
	}

	var dot, aMag, bMag float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		aMag += float64(a[i]) * float64(a[i])
		bMag += float64(b[i]) * float64(b[i])
	}

	if aMag == 0 || bMag == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(aMag) * math.Sqrt(bMag)), nil
}
