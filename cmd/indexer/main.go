package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"cinerec/internal/config"
	"cinerec/internal/db"
	"cinerec/internal/logging"
	"cinerec/internal/models"
	"cinerec/internal/repository"
	"cinerec/internal/service"
	"cinerec/internal/store"
)

func main() {
	cfg := config.Load()

	catalogPath := flag.String("catalog", cfg.CatalogPath, "CSV del catálogo")
	out := flag.String("out", cfg.StorePath, "Ruta del artefacto de salida")
	k := flag.Int("k", cfg.TopK, "Vecinos por película")
	batch := flag.Int("batch", cfg.BatchSize, "Filas por batch")
	parallelism := flag.Int("parallelism", cfg.Parallelism, "Batches en paralelo")
	maxFeatures := flag.Int("max-features", cfg.MaxFeatures, "Tope de vocabulario (0 = sin tope)")
	dense := flag.Bool("dense", false, "Guardar la matriz completa N×N (solo catálogos chicos)")
	legacy := flag.Bool("legacy", false, "Escribir en formato v1 (compatibilidad)")
	nodes := flag.String("nodes", "", "Nodos de similitud host:port separados por coma (default SIM_NODE_ADDRS)")
	publish := flag.Bool("publish-mongo", false, "Publicar catálogo y vecinos en Mongo (MONGO_URI)")
	hashPassword := flag.String("hash-password", "", "Imprime el bcrypt de esta contraseña para ADMIN_PASSWORD_HASH y sale")
	logLevel := flag.String("log-level", cfg.LogLevel, "trace|debug|info|warn|error")
	flag.Parse()

	logging.Init(logging.Config{Level: *logLevel, Format: cfg.LogFormat})

	if *hashPassword != "" {
		hash, err := service.HashPassword(*hashPassword)
		if err != nil {
			logging.Fatal().Err(err).Msg("bcrypt")
		}
		fmt.Println(hash)
		return
	}

	simNodes := cfg.SimNodeAddrs
	if *nodes != "" {
		simNodes = splitNodes(*nodes)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	h, res, err := service.NewBuildService().Build(ctx, service.BuildOptions{
		CatalogPath: *catalogPath,
		K:           *k,
		BatchSize:   *batch,
		Parallelism: *parallelism,
		MaxFeatures: *maxFeatures,
		Dense:       *dense,
		Nodes:       simNodes,
		Progress: func(p models.RebuildProgress) {
			logging.Debug().Int("batch", p.Batch).Int("batches", p.Batches).Msg("batch listo")
		},
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("build falló")
	}

	save := store.Save
	if *legacy {
		save = store.SaveLegacy
	}
	if err := save(*out, h); err != nil {
		logging.Fatal().Err(err).Str("out", *out).Msg("no se pudo escribir el artefacto")
	}
	logging.Info().
		Str("out", *out).
		Int("items", res.Items).
		Int("k", res.K).
		Str("kind", res.Kind).
		Bool("legacy", *legacy).
		Dur("elapsed", time.Since(start)).
		Msg("artefacto escrito")

	if *publish {
		if err := publishMongo(ctx, cfg, h); err != nil {
			logging.Fatal().Err(err).Msg("publicación en mongo falló")
		}
	}
}

// publishMongo reemplaza las colecciones movies y similarities con el
// snapshot recién construido.
func publishMongo(ctx context.Context, cfg *config.Config, h *store.Handle) error {
	if cfg.MongoURI == "" {
		return fmt.Errorf("-publish-mongo requiere MONGO_URI")
	}
	if err := db.InitMongo(cfg); err != nil {
		return err
	}
	defer func() { _ = db.Disconnect(context.Background()) }()

	movies := repository.NewMovieRepository()
	sims := repository.NewSimilarityRepository()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := movies.ReplaceAll(gctx, h.Items)
		if err != nil {
			return fmt.Errorf("movies: %w", err)
		}
		logging.Info().Int("docs", n).Msg("[mongo] movies publicadas")
		return nil
	})
	if h.Storage.Kind == store.KindTopK {
		g.Go(func() error {
			n, err := sims.ReplaceAll(gctx, h.Storage.TopK, h.Metric, h.Storage.K)
			if err != nil {
				return fmt.Errorf("similarities: %w", err)
			}
			logging.Info().Int("docs", n).Msg("[mongo] similarities publicadas")
			return nil
		})
	} else {
		logging.Warn().Msg("[mongo] índice denso: no se publican similarities")
	}
	return g.Wait()
}

func splitNodes(s string) []string {
	var out []string
	for _, v := range strings.Split(s, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
