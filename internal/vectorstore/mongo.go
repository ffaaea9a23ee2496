package vectorstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/chainguard-dev/clog"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/ahmednasr/ai-in-action/issue-agent/internal/embedding"
	"github.com/ahmednasr/ai-in-action/issue-agent/internal/metrics"
	"github.com/ahmednasr/ai-in-action/issue-agent/internal/models"
)

// MongoStore keeps issues in a MongoDB Atlas collection and queries them with
// $vectorSearch.
//
// Expected schema:
//
//	<collection>
//	  { _id: string, content: string, metadata: {...}, embedding: []float32 }
//
// and an Atlas Vector Search index on "embedding" (cosine similarity).
type MongoStore struct {
	col       *mongo.Collection
	vectorIdx string
	embedder  embedding.Embedder
}

// NewMongoStore wires the collection. The caller owns the client.
func NewMongoStore(db *mongo.Database, collection, vectorIdx string, embedder embedding.Embedder) *MongoStore {
	return &MongoStore{
		col:       db.Collection(collection),
		vectorIdx: vectorIdx,
		embedder:  embedder,
	}
}

type mongoRecord struct {
	ID        string               `bson:"_id"`
	Content   string               `bson:"content"`
	Metadata  models.IssueMetadata `bson:"metadata"`
	Embedding []float32            `bson:"embedding"`
}

type mongoHit struct {
	ID       string               `bson:"_id"`
	Content  string               `bson:"content"`
	Metadata models.IssueMetadata `bson:"metadata"`
	Score    float64              `bson:"score"`
}

// namespaceNotFound is the server error code for dropping a missing collection.
const namespaceNotFound = 26

func (m *MongoStore) Reset(ctx context.Context) error {
	err := m.col.Drop(ctx)
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == namespaceNotFound {
		err = nil
	}
	if err != nil {
		return fmt.Errorf("drop collection %s: %w", m.col.Name(), err)
	}
	clog.FromContext(ctx).With("collection", m.col.Name()).Info("[VectorStore] Collection reset")
	return nil
}

func (m *MongoStore) Upsert(ctx context.Context, docs []models.IssueDocument) ([]string, error) {
	if len(docs) == 0 {
		return nil, nil
	}
	ids, err := m.insert(ctx, docs)
	if err != nil {
		return nil, err
	}
	clog.FromContext(ctx).With("collection", m.col.Name()).With("count", len(docs)).Info("[VectorStore] Documents stored")
	return ids, nil
}

// Replace inserts the new batch and then deletes every other document.
// Dropping the collection would also drop its Atlas search index, and would
// leave readers with an empty collection while the batch is written. Between
// the two steps a query may see old and new documents side by side.
func (m *MongoStore) Replace(ctx context.Context, docs []models.IssueDocument) ([]string, error) {
	ids, err := m.insert(ctx, docs)
	if err != nil {
		return nil, err
	}
	res, err := m.col.DeleteMany(ctx, staleFilter(ids))
	if err != nil {
		return nil, fmt.Errorf("delete replaced documents: %w", err)
	}
	clog.FromContext(ctx).With("collection", m.col.Name()).
		With("count", len(docs)).
		With("deleted", res.DeletedCount).
		Info("[VectorStore] Collection replaced")
	return ids, nil
}

func (m *MongoStore) insert(ctx context.Context, docs []models.IssueDocument) ([]string, error) {
	if len(docs) == 0 {
		return []string{}, nil
	}
	vectors, err := embedAll(ctx, m.embedder, docs)
	if err != nil {
		return nil, err
	}

	records := make([]interface{}, len(docs))
	ids := make([]string, len(docs))
	for i, d := range docs {
		ids[i] = uuid.NewString()
		records[i] = mongoRecord{ID: ids[i], Content: d.Content, Metadata: d.Metadata, Embedding: vectors[i]}
	}

	if _, err := m.col.InsertMany(ctx, records); err != nil {
		return nil, fmt.Errorf("insert %d documents: %w", len(docs), err)
	}
	metrics.DocumentsIndexed.WithLabelValues("mongo").Add(float64(len(docs)))
	return ids, nil
}

// staleFilter matches every document not in keep.
func staleFilter(keep []string) bson.M {
	return bson.M{"_id": bson.M{"$nin": keep}}
}

func (m *MongoStore) Query(ctx context.Context, text string, k int) ([]models.SearchResult, error) {
	k = ClampK(k)
	vec, err := m.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	cur, err := m.col.Aggregate(ctx, searchPipeline(m.vectorIdx, vec, k))
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	defer cur.Close(ctx)

	var hits []mongoHit
	if err := cur.All(ctx, &hits); err != nil {
		return nil, fmt.Errorf("decode search results: %w", err)
	}

	results := make([]models.SearchResult, len(hits))
	for i, h := range hits {
		results[i] = models.SearchResult{
			Document: models.IssueDocument{ID: h.ID, Content: h.Content, Metadata: h.Metadata},
			Score:    h.Score,
			Rank:     i + 1,
		}
	}
	return results, nil
}

func (m *MongoStore) Count(ctx context.Context) (int, error) {
	n, err := m.col.CountDocuments(ctx, bson.D{})
	return int(n), err
}

// Close is a no-op; the mongo client is disconnected by its owner.
func (m *MongoStore) Close() error { return nil }

// searchPipeline performs a K‑NN search across issue embeddings and projects
// the similarity score, omitting the heavy embedding field.
func searchPipeline(index string, queryVec []float32, k int) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$vectorSearch", Value: bson.D{
			{Key: "index", Value: index},
			{Key: "queryVector", Value: queryVec},
			{Key: "path", Value: "embedding"},
			{Key: "numCandidates", Value: k * 10},
			{Key: "limit", Value: k},
		}}},
		{{Key: "$project", Value: bson.D{
			{Key: "content", Value: 1},
			{Key: "metadata", Value: 1},
			{Key: "score", Value: bson.D{{Key: "$meta", Value: "vectorSearchScore"}}},
		}}},
	}
}
