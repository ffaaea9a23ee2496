package vectorstore

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/chainguard-dev/clog"
	"github.com/google/uuid"
	"go.etcd.io/bbolt"

	"github.com/ahmednasr/ai-in-action/issue-agent/internal/embedding"
	"github.com/ahmednasr/ai-in-action/issue-agent/internal/metrics"
	"github.com/ahmednasr/ai-in-action/issue-agent/internal/models"
)

// record is the stored form of a document. Keys are the big-endian bucket
// sequence, so cursor order is insertion order.
type record struct {
	ID       string               `json:"id"`
	Seq      uint64               `json:"seq"`
	Vector   []float32            `json:"vector"`
	Document models.IssueDocument `json:"document"`
}

// BoltStore keeps one bucket per collection in a local bbolt file and answers
// queries with an exact cosine scan.
type BoltStore struct {
	db       *bbolt.DB
	bucket   []byte
	embedder embedding.Embedder
}

// NewBoltStore opens (or creates) the database at path.
func NewBoltStore(path, collection string, embedder embedding.Embedder) (*BoltStore, error) {
	if collection == "" {
		return nil, errors.New("collection name is required")
	}
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open vector db %s: %w", path, err)
	}
	return &BoltStore{db: db, bucket: []byte(collection), embedder: embedder}, nil
}

func (s *BoltStore) Reset(ctx context.Context) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		err := tx.DeleteBucket(s.bucket)
		if errors.Is(err, bbolt.ErrBucketNotFound) {
			return nil
		}
		return err
	})
	if err != nil {
		return fmt.Errorf("reset collection %s: %w", s.bucket, err)
	}
	clog.FromContext(ctx).With("collection", string(s.bucket)).Info("[VectorStore] Collection reset")
	return nil
}

// Upsert embeds every document first and then writes the batch in a single
// transaction.
func (s *BoltStore) Upsert(ctx context.Context, docs []models.IssueDocument) ([]string, error) {
	return s.write(ctx, docs, false)
}

// Replace embeds every document, then deletes the bucket and writes the batch
// in the same transaction, so readers see either the old or the new contents.
func (s *BoltStore) Replace(ctx context.Context, docs []models.IssueDocument) ([]string, error) {
	return s.write(ctx, docs, true)
}

func (s *BoltStore) write(ctx context.Context, docs []models.IssueDocument, replace bool) ([]string, error) {
	if len(docs) == 0 && !replace {
		return nil, nil
	}

	vectors, err := embedAll(ctx, s.embedder, docs)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(docs))
	err = s.db.Update(func(tx *bbolt.Tx) error {
		if replace {
			if err := tx.DeleteBucket(s.bucket); err != nil && !errors.Is(err, bbolt.ErrBucketNotFound) {
				return err
			}
		}
		b, err := tx.CreateBucketIfNotExists(s.bucket)
		if err != nil {
			return err
		}
		for i, d := range docs {
			seq, err := b.NextSequence()
			if err != nil {
				return err
			}
			rec := record{ID: uuid.NewString(), Seq: seq, Vector: vectors[i], Document: d}
			rec.Document.ID = rec.ID
			data, err := json.Marshal(rec)
			if err != nil {
				return err
			}
			if err := b.Put(seqKey(seq), data); err != nil {
				return err
			}
			ids[i] = rec.ID
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("write %d documents: %w", len(docs), err)
	}

	metrics.DocumentsIndexed.WithLabelValues("bolt").Add(float64(len(docs)))
	clog.FromContext(ctx).With("collection", string(s.bucket)).
		With("count", len(docs)).
		With("replace", replace).
		Info("[VectorStore] Documents stored")
	return ids, nil
}

// Query ranks every stored record by cosine similarity. Equal scores keep
// insertion order.
func (s *BoltStore) Query(ctx context.Context, text string, k int) ([]models.SearchResult, error) {
	k = ClampK(k)
	vec, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	var hits []models.SearchResult
	err = s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(s.bucket)
		if b == nil {
			return nil
		}
		return b.ForEach(func(_, v []byte) error {
			var rec record
			if err := json.Unmarshal(v, &rec); err != nil {
				return err
			}
			hits = append(hits, models.SearchResult{Document: rec.Document, Score: Cosine(vec, rec.Vector)})
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("scan collection %s: %w", s.bucket, err)
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > k {
		hits = hits[:k]
	}
	for i := range hits {
		hits[i].Rank = i + 1
	}
	return hits, nil
}

func (s *BoltStore) Count(context.Context) (int, error) {
	var n int
	err := s.db.View(func(tx *bbolt.Tx) error {
		if b := tx.Bucket(s.bucket); b != nil {
			n = b.Stats().KeyN
		}
		return nil
	})
	return n, err
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

func seqKey(seq uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, seq)
	return k
}
