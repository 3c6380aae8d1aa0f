package repository

import (
	"context"

	"cinerec/internal/db"
	"cinerec/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MovieRepository struct {
	col *mongo.Collection
}

func NewMovieRepository() *MovieRepository {
	return &MovieRepository{col: db.DB().Collection("movies")}
}

// upsertModels un ReplaceOne con upsert por película, clave "id".
func upsertModels(items []models.CatalogItem) []mongo.WriteModel {
	out := make([]mongo.WriteModel, len(items))
	for i, it := range items {
		out[i] = mongo.NewReplaceOneModel().
			SetFilter(bson.M{"id": it.ID}).
			SetReplacement(it.Display()).
			SetUpsert(true)
	}
	return out
}

// ReplaceAll publica el catálogo (columnas de display). Las películas con id
// mayor al tamaño del catálogo se borran: los ids son posiciones.
func (r *MovieRepository) ReplaceAll(ctx context.Context, items []models.CatalogItem) (int, error) {
	writes := upsertModels(items)
	written := 0
	for from := 0; from < len(writes); from += bulkChunk {
		to := min(from+bulkChunk, len(writes))
		res, err := r.col.BulkWrite(ctx, writes[from:to], options.BulkWrite().SetOrdered(false))
		if err != nil {
			return written, err
		}
		written += int(res.UpsertedCount + res.MatchedCount)
	}

	if _, err := r.col.DeleteMany(ctx, bson.M{"id": bson.M{"$gt": len(items)}}); err != nil {
		return written, err
	}

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return written, err
}
