// Package retrievertest provides a deterministic embedder for tests.
package retrievertest

import (
	"context"
	"errors"
	"hash/fnv"
	"strings"
	"unicode"
)

const Dimension = 64

// Embedder hashes lower-cased words into a fixed-size bag-of-words vector.
// Texts sharing words get similar vectors. Set Err to make every call fail.
type Embedder struct {
	Err error
}

func (e *Embedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if err := e.check(ctx); err != nil {
		return nil, err
	}
	vectors := make([][]float32, len(texts))
	for i, t := range texts {
		vectors[i] = Vector(t)
	}
	return vectors, nil
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if err := e.check(ctx); err != nil {
		return nil, err
	}
	return Vector(text), nil
}

func (e *Embedder) check(ctx context.Context) error {
	if e.Err != nil {
		return e.Err
	}
	return ctx.Err()
}

// Vector returns the embedding of text. A text with no words maps to a
// vector with a single bucket set, so it is never all zeros.
func Vector(text string) []float32 {
	v := make([]float32, Dimension)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if len(words) == 0 {
		v[0] = 1
		return v
	}
	for _, w := range words {
		h := fnv.New32a()
		_, _ = h.Write([]byte(w))
		v[h.Sum32()%Dimension]++
	}
	return v
}

var ErrUnavailable = errors.New("embedding backend unreachable")
