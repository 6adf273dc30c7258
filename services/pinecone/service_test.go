package pinecone

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"studybuddy/services/retriever"

	"github.com/pinecone-io/go-pinecone/v3/pinecone"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"
)

type fakeConn struct {
	upserts [][]*pinecone.Vector
	query   *pinecone.QueryByVectorValuesRequest
	matches []*pinecone.ScoredVector
	pages   []*pinecone.ListVectorsResponse
	listErr error
	deleted [][]string
}

func (f *fakeConn) UpsertVectors(_ context.Context, in []*pinecone.Vector) (uint32, error) {
	f.upserts = append(f.upserts, in)
	return uint32(len(in)), nil
}

func (f *fakeConn) QueryByVectorValues(_ context.Context, in *pinecone.QueryByVectorValuesRequest) (*pinecone.QueryVectorsResponse, error) {
	f.query = in
	return &pinecone.QueryVectorsResponse{Matches: f.matches}, nil
}

func (f *fakeConn) ListVectors(_ context.Context, _ *pinecone.ListVectorsRequest) (*pinecone.ListVectorsResponse, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	page := f.pages[0]
	f.pages = f.pages[1:]
	return page, nil
}

func (f *fakeConn) DeleteVectorsById(_ context.Context, ids []string) error {
	f.deleted = append(f.deleted, ids)
	return nil
}

func TestStoreUpsertBatches(t *testing.T) {
	conn := &fakeConn{}
	store := NewStore(conn, "session-1")

	chunks := make([]retriever.Chunk, 23)
	for i := range chunks {
		chunks[i] = retriever.Chunk{ID: retriever.ChunkID(i), Index: i, Text: fmt.Sprintf("text %d", i), Vector: []float32{float32(i), 1}}
	}

	require.NoError(t, store.Upsert(context.Background(), chunks))
	require.Len(t, conn.upserts, 3)
	assert.Len(t, conn.upserts[0], 10)
	assert.Len(t, conn.upserts[2], 3)

	first := conn.upserts[0][0]
	assert.Equal(t, "chunk_0", first.Id)
	assert.Equal(t, "text 0", first.Metadata.AsMap()["content"])
	assert.Equal(t, []float32{0, 1}, *first.Values)
}

func TestStoreSearch(t *testing.T) {
	meta, err := structpb.NewStruct(map[string]any{"content": "Mitochondria make ATP.", "chunk_index": 4})
	require.NoError(t, err)

	conn := &fakeConn{matches: []*pinecone.ScoredVector{
		{Vector: &pinecone.Vector{Id: "chunk_4", Metadata: meta}, Score: 0.9},
		{Vector: &pinecone.Vector{Id: "chunk_5"}, Score: 0.1},
	}}
	store := NewStore(conn, "session-1")

	matches, err := store.Search(context.Background(), []float32{1, 0}, 0)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "Mitochondria make ATP.", matches[0].Chunk.Text)
	assert.Equal(t, 4, matches[0].Chunk.Index)
	assert.InDelta(t, 0.9, matches[0].Score, 1e-6)
	assert.EqualValues(t, retriever.DefaultK, conn.query.TopK)
	assert.True(t, conn.query.IncludeMetadata)
}

func TestStoreResetPaginates(t *testing.T) {
	id := func(s string) *string { return &s }
	token := "next"

	conn := &fakeConn{pages: []*pinecone.ListVectorsResponse{
		{VectorIds: []*string{id("chunk_0"), id("chunk_1")}, NextPaginationToken: &token},
		{VectorIds: []*string{id("chunk_2")}},
	}}
	store := NewStore(conn, "session-1")

	require.NoError(t, store.Reset(context.Background()))
	assert.Equal(t, [][]string{{"chunk_0", "chunk_1"}, {"chunk_2"}}, conn.deleted)
}

func TestStoreResetMissingNamespace(t *testing.T) {
	conn := &fakeConn{listErr: errors.New("rpc error: Namespace not found")}
	store := NewStore(conn, "session-1")

	require.NoError(t, store.Reset(context.Background()))
	assert.Empty(t, conn.deleted)
}
