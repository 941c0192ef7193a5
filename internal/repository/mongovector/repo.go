// Package mongovector stores records in MongoDB and queries them with Atlas Vector Search.
package mongovector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/kailas-cloud/smartsearch/internal/domain"
)

// Config describes the collection layout.
type Config struct {
	Database   string
	Collection string
	Namespace  string
	Dimensions int
}

// recordDoc is the MongoDB document structure.
type recordDoc struct {
	Key       string    `bson:"_id"`
	ID        string    `bson:"id"`
	Namespace string    `bson:"namespace"`
	Embedding []float32 `bson:"embedding"`
	Metadata  bson.M    `bson:"metadata"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// matchDoc is one $vectorSearch result row.
type matchDoc struct {
	ID       string  `bson:"id"`
	Metadata bson.M  `bson:"metadata"`
	Score    float64 `bson:"score"`
}

// Repo implements the vector index over a MongoDB collection.
type Repo struct {
	client    *mongo.Client
	records   *mongo.Collection
	namespace string
	dims      int
	indexName string
}

// New connects to MongoDB and verifies the connection.
func New(ctx context.Context, uri string, cfg Config) (*Repo, error) {
	if cfg.Database == "" || cfg.Collection == "" {
		return nil, errors.New("database and collection are required")
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &Repo{
		client:    client,
		records:   client.Database(cfg.Database).Collection(cfg.Collection),
		namespace: cfg.Namespace,
		dims:      cfg.Dimensions,
		indexName: cfg.Collection + "_embedding",
	}, nil
}

// EnsureIndex creates the Atlas vector search index when missing.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	cursor, err := r.records.SearchIndexes().List(ctx, options.SearchIndexes().SetName(r.indexName))
	if err != nil {
		return searchIndexError(err)
	}
	exists := cursor.Next(ctx)
	_ = cursor.Close(ctx)
	if exists {
		return nil
	}

	_, err = r.records.SearchIndexes().CreateOne(ctx, mongo.SearchIndexModel{
		Definition: indexDefinition(r.dims),
		Options:    options.SearchIndexes().SetName(r.indexName).SetType("vectorSearch"),
	})
	if err != nil {
		return fmt.Errorf("create search index %s: %w", r.indexName, err)
	}
	return nil
}

// Upsert replaces records in one bulk write.
func (r *Repo) Upsert(ctx context.Context, records []domain.Record) error {
	if len(records) == 0 {
		return nil
	}

	now := time.Now().UTC()
	models := make([]mongo.WriteModel, 0, len(records))
	for i := range records {
		rec := &records[i]
		if len(rec.Values) != r.dims {
			return fmt.Errorf("record %s: got %d dims, collection has %d: %w",
				rec.ID, len(rec.Values), r.dims, domain.ErrVectorDimMismatch)
		}
		doc := recordDoc{
			Key:       r.key(rec.ID),
			ID:        rec.ID,
			Namespace: r.namespace,
			Embedding: rec.Values,
			Metadata:  bson.M(rec.Metadata),
			UpdatedAt: now,
		}
		models = append(models, mongo.NewReplaceOneModel().
			SetFilter(bson.D{{Key: "_id", Value: doc.Key}}).
			SetReplacement(doc).
			SetUpsert(true))
	}

	if _, err := r.records.BulkWrite(ctx, models); err != nil {
		return fmt.Errorf("upsert %d records: %w", len(models), err)
	}
	return nil
}

// Query returns the topK nearest records. Atlas reports cosine scores as (1+cos)/2;
// they are mapped back to cosine similarity.
func (r *Repo) Query(ctx context.Context, vector []float32, topK int) ([]domain.Match, error) {
	cursor, err := r.records.Aggregate(ctx, searchPipeline(r.indexName, r.namespace, vector, topK))
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	defer cursor.Close(ctx)

	var matches []domain.Match
	for cursor.Next(ctx) {
		var doc matchDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode match: %w", err)
		}
		matches = append(matches, domain.Match{
			ID:       doc.ID,
			Score:    2*doc.Score - 1,
			Metadata: toMetadata(doc.Metadata),
		})
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("vector search cursor: %w", err)
	}
	return matches, nil
}

// Fetch returns one record by id.
func (r *Repo) Fetch(ctx context.Context, id string) (domain.Item, error) {
	var doc recordDoc
	opts := options.FindOne().SetProjection(bson.D{{Key: "embedding", Value: 0}})
	err := r.records.FindOne(ctx, bson.D{{Key: "_id", Value: r.key(id)}}, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.Item{}, domain.ErrNotFound
		}
		return domain.Item{}, fmt.Errorf("fetch %s: %w", id, err)
	}
	return domain.Item{ID: id, Metadata: toMetadata(doc.Metadata)}, nil
}

// Delete removes a record. Absent ids are not an error.
func (r *Repo) Delete(ctx context.Context, id string) error {
	if _, err := r.records.DeleteOne(ctx, bson.D{{Key: "_id", Value: r.key(id)}}); err != nil {
		return fmt.Errorf("delete %s: %w", id, err)
	}
	return nil
}

// Ping checks the primary.
func (r *Repo) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrIndexUnavailable, err)
	}
	return nil
}

// Close disconnects the client.
func (r *Repo) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = r.client.Disconnect(ctx)
}

// searchIndexError explains search index failures, which community servers always return.
func searchIndexError(err error) error {
	return fmt.Errorf("list search indexes (requires MongoDB Atlas or mongodb-atlas-local): %w", err)
}

func (r *Repo) key(id string) string {
	if r.namespace == "" {
		return id
	}
	return r.namespace + ":" + id
}
