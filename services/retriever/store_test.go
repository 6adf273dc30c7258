package retriever

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name    string
		a, b    []float32
		want    float64
		wantErr bool
	}{
		{name: "identical", a: []float32{1, 2, 3}, b: []float32{1, 2, 3}, want: 1},
		{name: "orthogonal", a: []float32{1, 0}, b: []float32{0, 1}, want: 0},
		{name: "opposite", a: []float32{1, 0}, b: []float32{-1, 0}, want: -1},
		{name: "zero vector", a: []float32{0, 0}, b: []float32{1, 1}, want: 0},
		{name: "length mismatch", a: []float32{1}, b: []float32{1, 2}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CosineSimilarity(tt.a, tt.b)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestMemoryStoreSearch(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Upsert(ctx, []Chunk{
		{ID: "chunk_0", Text: "x axis", Vector: []float32{1, 0}},
		{ID: "chunk_1", Text: "diagonal", Vector: []float32{1, 1}},
		{ID: "chunk_2", Text: "y axis", Vector: []float32{0, 1}},
	}))

	matches, err := store.Search(ctx, []float32{1, 0.1}, 2)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "x axis", matches[0].Chunk.Text)
	assert.Equal(t, "diagonal", matches[1].Chunk.Text)

	require.NoError(t, store.Upsert(ctx, []Chunk{{ID: "chunk_0", Text: "replaced", Vector: []float32{1, 0}}}))
	assert.Equal(t, 3, store.Len())

	require.NoError(t, store.Reset(ctx))
	matches, err = store.Search(ctx, []float32{1, 0}, 2)
	require.NoError(t, err)
	assert.Empty(t, matches)
}
