package mongovector

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/kailas-cloud/smartsearch/internal/domain"
)

// indexDefinition is the Atlas vectorSearch index over embedding, filterable by namespace.
func indexDefinition(dims int) bson.D {
	return bson.D{{Key: "fields", Value: bson.A{
		bson.D{
			{Key: "type", Value: "vector"},
			{Key: "path", Value: "embedding"},
			{Key: "numDimensions", Value: dims},
			{Key: "similarity", Value: "cosine"},
		},
		bson.D{
			{Key: "type", Value: "filter"},
			{Key: "path", Value: "namespace"},
		},
	}}}
}

// searchPipeline builds the $vectorSearch aggregation for one namespace.
func searchPipeline(index, namespace string, vector []float32, topK int) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$vectorSearch", Value: bson.D{
			{Key: "index", Value: index},
			{Key: "path", Value: "embedding"},
			{Key: "queryVector", Value: vector},
			{Key: "numCandidates", Value: topK * 10},
			{Key: "limit", Value: topK},
			{Key: "filter", Value: bson.D{{Key: "namespace", Value: namespace}}},
		}}},
		{{Key: "$project", Value: bson.D{
			{Key: "_id", Value: 0},
			{Key: "id", Value: 1},
			{Key: "metadata", Value: 1},
			{Key: "score", Value: bson.D{{Key: "$meta", Value: "vectorSearchScore"}}},
		}}},
	}
}

func toMetadata(m bson.M) domain.Metadata {
	meta := make(domain.Metadata, len(m))
	for k, v := range m {
		meta[k] = v
	}
	return meta
}
