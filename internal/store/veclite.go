package store

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/abdul-hamid-achik/veclite"
)

const vecliteCollection = "voiceprints"

// VecLiteIndex is a persistent embedded VectorIndex backed by veclite with
// HNSW indexing. Voiceprint ids are kept in the record payload because
// veclite assigns its own numeric record ids.
type VecLiteIndex struct {
	db   *veclite.DB
	coll *veclite.Collection
	dim  int
}

// VecLitePath returns the veclite database file below the data directory.
func VecLitePath(dataDir string) string {
	return filepath.Join(dataDir, "voiceprints.veclite")
}

// NewVecLiteIndex opens (or creates) the veclite database at path.
func NewVecLiteIndex(path string, dim int) (*VecLiteIndex, error) {
	db, err := veclite.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open veclite database: %w", err)
	}

	coll, err := db.CreateCollection(vecliteCollection,
		veclite.WithDimension(dim),
		veclite.WithDistanceType(veclite.DistanceCosine),
		veclite.WithHNSW(16, 200),
	)
	if err != nil {
		// Collection already exists on reopen.
		coll, err = db.GetCollection(vecliteCollection)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("create/get collection: %w", err)
		}
	}

	return &VecLiteIndex{db: db, coll: coll, dim: dim}, nil
}

func (v *VecLiteIndex) Insert(_ context.Context, id string, vector []float32) error {
	if err := checkDimension(v.dim, vector); err != nil {
		return err
	}

	// Insert is an upsert by voiceprint id: drop any previous record first
	// so centroid refreshes replace rather than accumulate.
	if _, err := v.coll.DeleteWhere(veclite.Equal("record_id", id)); err != nil {
		return fmt.Errorf("delete previous record %s: %w", id, err)
	}

	if _, err := v.coll.Insert(vector, map[string]any{"record_id": id}); err != nil {
		return fmt.Errorf("insert record %s: %w", id, err)
	}
	return nil
}

func (v *VecLiteIndex) Search(_ context.Context, query []float32, k int) ([]Neighbor, error) {
	if err := checkDimension(v.dim, query); err != nil {
		return nil, err
	}
	if v.coll.Count() == 0 || k <= 0 {
		return nil, nil
	}

	results, err := v.coll.Search(query, veclite.TopK(k))
	if err != nil {
		return nil, fmt.Errorf("veclite search: %w", err)
	}

	neighbors := make([]Neighbor, 0, len(results))
	for _, r := range results {
		id, _ := r.Record.Payload["record_id"].(string)
		if id == "" {
			continue
		}
		// With cosine distance veclite reports the similarity as the score.
		neighbors = append(neighbors, Neighbor{ID: id, Similarity: r.Score})
	}
	return neighbors, nil
}

func (v *VecLiteIndex) Flush() error {
	return v.db.Sync()
}

func (v *VecLiteIndex) Close() error {
	if v.db != nil {
		return v.db.Close()
	}
	return nil
}

func (v *VecLiteIndex) Type() string { return "veclite" }
