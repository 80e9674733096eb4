package store

import (
	"context"
	"fmt"
	"time"

	"github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"

	"github.com/aman-source/voice-db/internal/version"
)

// QdrantConfig holds connection settings for the managed Qdrant backend.
type QdrantConfig struct {
	Host       string
	Port       int
	APIKey     string
	UseTLS     bool
	Collection string
	// PingTimeout bounds the startup reachability check.
	PingTimeout time.Duration
}

func (c *QdrantConfig) defaults() {
	if c.Port == 0 {
		c.Port = 6334
	}
	if c.Collection == "" {
		c.Collection = "voice_embeddings"
	}
	if c.PingTimeout == 0 {
		c.PingTimeout = 5 * time.Second
	}
}

// QdrantIndex is a VectorIndex backed by a remote Qdrant instance over gRPC.
// All calls are bounded by the caller's context; cancellation aborts the
// underlying RPC.
type QdrantIndex struct {
	client     *qdrant.Client
	collection string
	dim        int
}

// NewQdrantIndex connects to Qdrant, verifies reachability, and ensures the
// voiceprint collection exists with cosine distance. An unreachable server
// is reported as ErrBackendUnavailable so the caller can fall back to an
// in-process index.
func NewQdrantIndex(ctx context.Context, cfg QdrantConfig, dim int) (*QdrantIndex, error) {
	cfg.defaults()

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
		GrpcOptions: []grpc.DialOption{
			grpc.WithUserAgent("voicedb/" + version.Short()),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.PingTimeout)
	defer cancel()
	if _, err := client.HealthCheck(pingCtx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: qdrant health check: %v", ErrBackendUnavailable, err)
	}

	q := &QdrantIndex{client: client, collection: cfg.Collection, dim: dim}
	if err := q.ensureCollection(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}
	return q, nil
}

func (q *QdrantIndex) ensureCollection(ctx context.Context) error {
	exists, err := q.client.CollectionExists(ctx, q.collection)
	if err != nil {
		return fmt.Errorf("%w: collection check: %v", ErrBackendUnavailable, err)
	}
	if exists {
		return nil
	}
	err = q.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: q.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(q.dim),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("create collection %s: %w", q.collection, err)
	}
	return nil
}

func (q *QdrantIndex) Insert(ctx context.Context, id string, vector []float32) error {
	if err := checkDimension(q.dim, vector); err != nil {
		return err
	}
	_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: q.collection,
		Wait:           qdrant.PtrOf(true),
		Points: []*qdrant.PointStruct{
			{
				Id:      qdrant.NewID(id),
				Vectors: qdrant.NewVectors(vector...),
				Payload: qdrant.NewValueMap(map[string]any{"record_id": id}),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("qdrant upsert %s: %w", id, err)
	}
	return nil
}

func (q *QdrantIndex) Search(ctx context.Context, query []float32, k int) ([]Neighbor, error) {
	if err := checkDimension(q.dim, query); err != nil {
		return nil, err
	}
	if k <= 0 {
		return nil, nil
	}

	points, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: q.collection,
		Query:          qdrant.NewQuery(query...),
		Limit:          qdrant.PtrOf(uint64(k)),
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant query: %w", err)
	}

	neighbors := make([]Neighbor, 0, len(points))
	for _, p := range points {
		id := p.GetId().GetUuid()
		if id == "" {
			continue
		}
		neighbors = append(neighbors, Neighbor{ID: id, Similarity: p.GetScore()})
	}
	return neighbors, nil
}

// Flush is a no-op: upserts are issued with Wait, so they are durable once
// Insert returns.
func (q *QdrantIndex) Flush() error { return nil }

func (q *QdrantIndex) Close() error {
	return q.client.Close()
}

func (q *QdrantIndex) Type() string { return "qdrant" }
