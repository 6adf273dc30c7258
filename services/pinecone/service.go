// Package pinecone stores document chunks in a Pinecone serverless index,
// one namespace per study session.
package pinecone

import (
	"context"
	"fmt"
	"strings"
	"time"

	"studybuddy/config"
	"studybuddy/services/retriever"

	"github.com/pinecone-io/go-pinecone/v3/pinecone"
	"go.uber.org/zap"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	upsertBatchSize = 10
	listPageSize    = 100
	readyPoll       = 10 * time.Second
)

type Service struct {
	client    *pinecone.Client
	indexName string
	dimension int32
	host      string
}

// NewService connects to Pinecone and makes sure the configured index
// exists and is ready.
func NewService(ctx context.Context, cfg config.PineconeConfig) (*Service, error) {
	zap.S().Infof("Initializing Pinecone service")

	pc, err := pinecone.NewClient(pinecone.NewClientParams{
		ApiKey: cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Pinecone client: %w", err)
	}

	s := &Service{
		client:    pc,
		indexName: cfg.IndexName,
		dimension: int32(cfg.Dimension),
	}
	if err := s.EnsureIndex(ctx); err != nil {
		return nil, err
	}

	idx, err := pc.DescribeIndex(ctx, s.indexName)
	if err != nil {
		return nil, fmt.Errorf("failed to describe index: %w", err)
	}
	s.host = idx.Host

	zap.S().Infof("Pinecone service initialized successfully")
	return s, nil
}

// EnsureIndex creates the serverless index when missing and waits until it
// reports ready.
func (s *Service) EnsureIndex(ctx context.Context) error {
	indexes, err := s.client.ListIndexes(ctx)
	if err != nil {
		return fmt.Errorf("failed to list indexes: %w", err)
	}

	for _, idx := range indexes {
		if idx.Name == s.indexName {
			zap.S().Infof("Index %s already exists", s.indexName)
			return nil
		}
	}

	zap.S().Infof("Creating Pinecone index: %s", s.indexName)
	dimension := s.dimension
	deletionProtection := pinecone.DeletionProtectionDisabled
	metric := pinecone.Cosine

	_, err = s.client.CreateServerlessIndex(ctx, &pinecone.CreateServerlessIndexRequest{
		Name:               s.indexName,
		Dimension:          &dimension,
		Metric:             &metric,
		Cloud:              pinecone.Aws,
		Region:             "us-east-1",
		DeletionProtection: &deletionProtection,
		Tags:               &pinecone.IndexTags{"project": "studybuddy"},
	})
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}

	for {
		idx, err := s.client.DescribeIndex(ctx, s.indexName)
		if err != nil {
			return fmt.Errorf("failed to describe index: %w", err)
		}
		if idx.Status != nil && idx.Status.Ready {
			zap.S().Infof("Index %s is ready", s.indexName)
			return nil
		}

		zap.S().Infof("Waiting for index %s to be ready...", s.indexName)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(readyPoll):
		}
	}
}

// ForNamespace returns a vector store confined to one namespace.
func (s *Service) ForNamespace(namespace string) (*Store, error) {
	conn, err := s.client.Index(pinecone.NewIndexConnParams{
		Host:      s.host,
		Namespace: namespace,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create index connection: %w", err)
	}
	return NewStore(conn, namespace), nil
}

// indexConn is the subset of *pinecone.IndexConnection used by Store.
type indexConn interface {
	UpsertVectors(ctx context.Context, in []*pinecone.Vector) (uint32, error)
	QueryByVectorValues(ctx context.Context, in *pinecone.QueryByVectorValuesRequest) (*pinecone.QueryVectorsResponse, error)
	ListVectors(ctx context.Context, in *pinecone.ListVectorsRequest) (*pinecone.ListVectorsResponse, error)
	DeleteVectorsById(ctx context.Context, ids []string) error
}

// Store implements retriever.VectorStore on a Pinecone namespace.
type Store struct {
	conn      indexConn
	namespace string
}

var _ retriever.VectorStore = (*Store)(nil)

func NewStore(conn indexConn, namespace string) *Store {
	return &Store{conn: conn, namespace: namespace}
}

func (s *Store) Upsert(ctx context.Context, chunks []retriever.Chunk) error {
	vectors := make([]*pinecone.Vector, 0, len(chunks))
	for _, c := range chunks {
		metadata, err := structpb.NewStruct(map[string]any{
			"content":     c.Text,
			"chunk_index": c.Index,
			"created_at":  time.Now().Format(time.RFC3339),
		})
		if err != nil {
			return fmt.Errorf("failed to create metadata struct for chunk %s: %w", c.ID, err)
		}

		values := c.Vector
		vectors = append(vectors, &pinecone.Vector{
			Id:       c.ID,
			Values:   &values,
			Metadata: metadata,
		})
	}

	for i := 0; i < len(vectors); i += upsertBatchSize {
		end := min(i+upsertBatchSize, len(vectors))
		count, err := s.conn.UpsertVectors(ctx, vectors[i:end])
		if err != nil {
			return fmt.Errorf("failed to upsert vector batch: %w", err)
		}
		zap.S().Debugf("Successfully upserted %d vectors to %s (batch %d)", count, s.namespace, i/upsertBatchSize+1)
	}
	return nil
}

func (s *Store) Search(ctx context.Context, vector []float32, k int) ([]retriever.Match, error) {
	if k <= 0 {
		k = retriever.DefaultK
	}

	result, err := s.conn.QueryByVectorValues(ctx, &pinecone.QueryByVectorValuesRequest{
		Vector:          vector,
		TopK:            uint32(k),
		IncludeValues:   false,
		IncludeMetadata: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query vectors: %w", err)
	}

	matches := make([]retriever.Match, 0, len(result.Matches))
	for _, m := range result.Matches {
		if m == nil || m.Vector == nil || m.Vector.Metadata == nil {
			continue
		}
		metadata := m.Vector.Metadata.AsMap()
		content, ok := metadata["content"].(string)
		if !ok || content == "" {
			continue
		}

		chunk := retriever.Chunk{ID: m.Vector.Id, Text: content}
		if idx, ok := metadata["chunk_index"].(float64); ok {
			chunk.Index = int(idx)
		}
		matches = append(matches, retriever.Match{Chunk: chunk, Score: float64(m.Score)})
	}
	return matches, nil
}

// Reset deletes every chunk vector in the namespace.
func (s *Store) Reset(ctx context.Context) error {
	prefix := "chunk_"
	limit := uint32(listPageSize)

	listResp, err := s.conn.ListVectors(ctx, &pinecone.ListVectorsRequest{
		Prefix: &prefix,
		Limit:  &limit,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Namespace not found") {
			return nil
		}
		return fmt.Errorf("failed to list vectors: %w", err)
	}

	deleted := 0
	for {
		ids := make([]string, 0, len(listResp.VectorIds))
		for _, id := range listResp.VectorIds {
			if id != nil {
				ids = append(ids, *id)
			}
		}

		if len(ids) > 0 {
			if err := s.conn.DeleteVectorsById(ctx, ids); err != nil {
				return fmt.Errorf("failed to delete vector batch: %w", err)
			}
			deleted += len(ids)
		}

		if listResp.NextPaginationToken == nil {
			break
		}
		listResp, err = s.conn.ListVectors(ctx, &pinecone.ListVectorsRequest{
			Prefix:          &prefix,
			Limit:           &limit,
			PaginationToken: listResp.NextPaginationToken,
		})
		if err != nil {
			return fmt.Errorf("failed to list next batch of vectors: %w", err)
		}
	}

	if deleted > 0 {
		zap.S().Infof("Deleted %d vectors from namespace %s", deleted, s.namespace)
	}
	return nil
}
