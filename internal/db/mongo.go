package db

import (
	"context"
	"fmt"
	"time"

	"cinerec/internal/config"
	"cinerec/internal/logging"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var mongoClient *mongo.Client
var mongoDB *mongo.Database

// InitMongo conecta a Mongo. Con MONGO_URI vacío queda deshabilitado:
// DB() devuelve nil y no se publica ni se guarda historial.
func InitMongo(cfg *config.Config) error {
	if cfg.MongoURI == "" {
		logging.Info().Msg("[mongo] MONGO_URI vacío, mongo deshabilitado")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return fmt.Errorf("[mongo] error conectando: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return fmt.Errorf("[mongo] ping falló: %w", err)
	}

	mongoClient = client
	mongoDB = client.Database(cfg.MongoDB)
	logging.Info().Str("db", cfg.MongoDB).Msg("[mongo] conectado")
	return nil
}

func DB() *mongo.Database {
	return mongoDB
}

func Disconnect(ctx context.Context) error {
	if mongoClient == nil {
		return nil
	}
	return mongoClient.Disconnect(ctx)
}
