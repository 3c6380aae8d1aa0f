package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "cinerec/docs" // swagger docs

	"cinerec/internal/cache"
	"cinerec/internal/config"
	"cinerec/internal/db"
	"cinerec/internal/fuzzy"
	"cinerec/internal/handler"
	"cinerec/internal/logging"
	"cinerec/internal/metrics"
	"cinerec/internal/repository"
	"cinerec/internal/service"
	"cinerec/internal/store"
)

//go:generate swag init -d ../.. -g cmd/api/main.go -o ../../docs --outputTypes go

// @title CineRec Movie Recommender API
// @version 1.0
// @description Recomendaciones de películas por contenido (TF-IDF + coseno) sobre un índice precalculado.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg := config.Load()
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Mongo y Redis (opcionales)
	if err := db.InitMongo(cfg); err != nil {
		logging.Fatal().Err(err).Msg("no se pudo conectar a mongo")
	}
	if err := cache.InitRedis(cfg); err != nil {
		logging.Fatal().Err(err).Msg("no se pudo conectar a redis")
	}

	// índice: se carga entero antes de abrir el puerto; si no existe se
	// construye desde el catálogo
	builder := service.NewBuildService()
	handle, err := store.Initialize(ctx, cfg.StorePath, builder.RebuildFunc(service.BuildOptions{
		CatalogPath: cfg.CatalogPath,
		K:           cfg.TopK,
		BatchSize:   cfg.BatchSize,
		Parallelism: cfg.Parallelism,
		MaxFeatures: cfg.MaxFeatures,
		Nodes:       cfg.SimNodeAddrs,
	}))
	if err != nil {
		logging.Fatal().Err(err).Str("store", cfg.StorePath).Msg("no se pudo cargar el índice")
	}
	metrics.SetIndexItems(handle.Len())

	// historial solo con mongo
	var (
		recorder *service.HistoryRecorder
		history  service.HistoryReader
	)
	if db.DB() != nil {
		recRepo := repository.NewRecommendationRepository()
		recorder = service.NewHistoryRecorder(recRepo, service.DefaultHistoryQueue)
		history = recRepo
	}

	// services
	recSvc := service.NewRecommendService(handle, fuzzy.SequenceMatcher{}, recorder)
	authSvc := service.NewAuthService(cfg.AdminUser, cfg.AdminPasswordHash, cfg.JWTSecret)
	adminSvc := service.NewAdminMaintenanceService(cfg, handle, builder, history)
	adminEnabled := authSvc.Enabled()
	switch {
	case !adminEnabled:
		logging.Warn().Msg("ADMIN_PASSWORD_HASH vacío: rutas admin deshabilitadas")
	case cfg.JWTSecret == config.DefaultJWTSecret:
		logging.Fatal().Msg("rutas admin habilitadas con el JWT_SECRET por defecto: configurá JWT_SECRET")
	}

	r := handler.NewRouter(handler.RouterConfig{
		JWTSecret:    cfg.JWTSecret,
		CORSOrigins:  cfg.CORSOrigins,
		RateLimitRPM: cfg.RateLimitRPM,
		AdminEnabled: adminEnabled,
		Recommend:    handler.NewRecommendHandler(recSvc),
		Movies:       handler.NewMovieHandler(recSvc),
		Auth:         handler.NewAuthHandler(authSvc),
		Admin:        handler.NewAdminMaintenanceHandler(adminSvc),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logging.Info().
			Str("addr", srv.Addr).
			Int("items", handle.Len()).
			Str("kind", handle.Storage.Kind.String()).
			Msg("HTTP escuchando")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal().Err(err).Msg("servidor HTTP")
		}
	}()

	<-ctx.Done()
	logging.Info().Msg("apagando…")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("shutdown HTTP")
	}
	recorder.Close()
	if err := cache.Close(); err != nil {
		logging.Warn().Err(err).Msg("cerrando redis")
	}
	if err := db.Disconnect(shutdownCtx); err != nil {
		logging.Warn().Err(err).Msg("cerrando mongo")
	}
}
