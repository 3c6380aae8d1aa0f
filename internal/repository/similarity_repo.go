package repository

import (
	"context"
	"fmt"
	"time"

	"cinerec/internal/db"
	"cinerec/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// lote de escrituras por BulkWrite
const bulkChunk = 1000

type SimilarityRepository struct {
	col *mongo.Collection
}

func NewSimilarityRepository() *SimilarityRepository {
	return &SimilarityRepository{col: db.DB().Collection("similarities")}
}

// similarityDocs arma un documento por entrada (mismo formato que consume el
// front: _id = "<movieId>:<metric>:k<k>").
func similarityDocs(entries []models.SimilarityEntry, metric string, k int, now time.Time) []models.SimilarityDoc {
	updatedAt := now.UTC().Format(time.RFC3339)
	docs := make([]models.SimilarityDoc, len(entries))
	for i, e := range entries {
		neighbors := e.Neighbors
		if neighbors == nil {
			neighbors = []models.Neighbor{}
		}
		docs[i] = models.SimilarityDoc{
			ID:        fmt.Sprintf("%d:%s:k%d", e.MovieID, metric, k),
			MovieID:   e.MovieID,
			Metric:    metric,
			K:         k,
			Neighbors: neighbors,
			UpdatedAt: updatedAt,
		}
	}
	return docs
}

// ReplaceAll reemplaza la colección por las entradas del índice recién
// construido. Devuelve cuántos documentos se escribieron.
func (r *SimilarityRepository) ReplaceAll(ctx context.Context, entries []models.SimilarityEntry, metric string, k int) (int, error) {
	if _, err := r.col.DeleteMany(ctx, bson.M{}); err != nil {
		return 0, err
	}

	docs := similarityDocs(entries, metric, k, time.Now())
	written := 0
	for from := 0; from < len(docs); from += bulkChunk {
		to := min(from+bulkChunk, len(docs))
		batch := make([]any, 0, to-from)
		for _, d := range docs[from:to] {
			batch = append(batch, d)
		}
		res, err := r.col.InsertMany(ctx, batch, options.InsertMany().SetOrdered(false))
		if err != nil {
			return written, err
		}
		written += len(res.InsertedIDs)
	}

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "movieId", Value: 1}},
	})
	return written, err
}
