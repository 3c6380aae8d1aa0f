package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"

	"cinerec/internal/catalog"
	"cinerec/internal/cluster"
	"cinerec/internal/config"
	"cinerec/internal/logging"
	"cinerec/internal/vectorspace"
)

// simnode calcula batches del índice para el indexer/api. Cada nodo vuelve a
// ajustar el modelo sobre el mismo catálogo; el fingerprint detecta catálogos
// distintos.
func main() {
	cfg := config.Load()
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	addr := os.Getenv("SIM_NODE_ADDR")
	if addr == "" {
		addr = ":9001"
	}

	nodeID := os.Getenv("NODE_ID")
	if nodeID == "" {
		nodeID, _ = os.Hostname()
	}
	log := logging.With().Str("component", "simnode").Str("node", nodeID).Logger()

	items, err := catalog.ReadCSVFile(cfg.CatalogPath)
	if err != nil {
		log.Fatal().Err(err).Msg("no se pudo leer el catálogo")
	}
	model, vectors, err := vectorspace.FitTransform(catalog.Documents(items), vectorspace.Options{MaxFeatures: cfg.MaxFeatures})
	if err != nil {
		log.Fatal().Err(err).Msg("no se pudo ajustar el modelo")
	}

	srv := cluster.NewServer(nodeID, model, vectors)

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		log.Fatal().Err(err).Str("addr", addr).Msg("listen")
	}
	log.Info().
		Str("addr", addr).
		Int("items", len(items)).
		Int("vocabulary", model.VocabularySize()).
		Str("fingerprint", srv.Fingerprint()).
		Msg("escuchando")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Serve(ctx, ln); err != nil {
		log.Fatal().Err(err).Msg("serve")
	}
	log.Info().Msg("apagado")
}
