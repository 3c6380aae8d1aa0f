package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"cinerec/internal/cache"
	"cinerec/internal/config"
	"cinerec/internal/logging"
	"cinerec/internal/models"
	"cinerec/internal/store"
)

const (
	rebuildLockKey = "cinerec:index:rebuild:lock"
	lastRebuildKey = "cinerec:index:rebuild:last"
	rebuildLockTTL = 30 * time.Minute
)

// HistoryReader lectura del historial de consultas (Mongo).
type HistoryReader interface {
	FindRecent(ctx context.Context, limit int64) ([]models.QueryLog, error)
}

// AdminMaintenanceService resumen del índice servido y rebuild offline. El
// rebuild escribe un artefacto nuevo; el proceso sigue sirviendo el snapshot
// que cargó al arrancar hasta que se reinicie.
type AdminMaintenanceService struct {
	cfg     *config.Config
	handle  *store.Handle
	builder *BuildService
	history HistoryReader

	running atomic.Bool
	mu      sync.RWMutex
	last    *models.RebuildResult
}

// NewAdminMaintenanceService crea el servicio. history puede ser nil (sin Mongo).
func NewAdminMaintenanceService(cfg *config.Config, h *store.Handle, builder *BuildService, history HistoryReader) *AdminMaintenanceService {
	return &AdminMaintenanceService{
		cfg:     cfg,
		handle:  h,
		builder: builder,
		history: history,
	}
}

// ---------------------- SUMMARY ----------------------

// GetIndexSummary resume el snapshot cargado más el último rebuild conocido
// (de este proceso o, con Redis, de cualquier réplica).
func (s *AdminMaintenanceService) GetIndexSummary(ctx context.Context) (*models.IndexSummary, error) {
	summary := s.handle.Summary()

	s.mu.RLock()
	last := s.last
	s.mu.RUnlock()

	if last == nil {
		var cached models.RebuildResult
		ok, err := cache.GetJSON(ctx, lastRebuildKey, &cached)
		if err != nil {
			logging.Warn().Err(err).Msg("[admin] error leyendo último rebuild de redis")
		} else if ok {
			last = &cached
		}
	}
	summary.LastRebuild = last
	return &summary, nil
}

// ---------------------- REBUILD ----------------------

// withDefaults completa el request con la configuración del proceso.
func (s *AdminMaintenanceService) withDefaults(req models.RebuildRequest) BuildOptions {
	opts := BuildOptions{
		CatalogPath: s.cfg.CatalogPath,
		K:           req.K,
		BatchSize:   req.BatchSize,
		Parallelism: req.Parallelism,
		MaxFeatures: req.MaxFeatures,
		Dense:       req.Dense,
		Nodes:       s.cfg.SimNodeAddrs,
	}
	if opts.K <= 0 {
		opts.K = s.cfg.TopK
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = s.cfg.BatchSize
	}
	if opts.Parallelism <= 0 {
		opts.Parallelism = s.cfg.Parallelism
	}
	if opts.MaxFeatures <= 0 {
		opts.MaxFeatures = s.cfg.MaxFeatures
	}
	return opts
}

// RebuildIndex reconstruye el índice desde el catálogo y lo persiste en
// STORE_PATH. Solo corre un rebuild a la vez (en el proceso y, con Redis,
// entre réplicas).
func (s *AdminMaintenanceService) RebuildIndex(
	ctx context.Context,
	req models.RebuildRequest,
	progress func(models.RebuildProgress),
) (*models.RebuildResult, error) {

	if !s.running.CompareAndSwap(false, true) {
		return nil, ErrRebuildInProgress
	}
	defer s.running.Store(false)

	token, ok, err := cache.AcquireLock(ctx, rebuildLockKey, rebuildLockTTL)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrRebuildInProgress
	}
	defer func() {
		// el ctx del request puede estar cancelado
		rctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := cache.ReleaseLock(rctx, rebuildLockKey, token); err != nil {
			logging.Warn().Err(err).Msg("[admin] error liberando lock de rebuild")
		}
	}()

	opts := s.withDefaults(req)
	opts.Progress = progress

	h, res, err := s.builder.Build(ctx, opts)
	if err != nil {
		return nil, err
	}
	if err := store.Save(s.cfg.StorePath, h); err != nil {
		return nil, err
	}
	res.StorePath = s.cfg.StorePath
	res.ReloadRequired = true

	s.mu.Lock()
	s.last = res
	s.mu.Unlock()

	if err := cache.SetJSON(ctx, lastRebuildKey, res, 0); err != nil {
		logging.Warn().Err(err).Msg("[admin] error guardando último rebuild en redis")
	}
	return res, nil
}

// Rebuilding indica si hay un rebuild corriendo en este proceso.
func (s *AdminMaintenanceService) Rebuilding() bool {
	return s.running.Load()
}

// ---------------------- HISTORY ----------------------

// RecentQueries últimas consultas guardadas.
func (s *AdminMaintenanceService) RecentQueries(ctx context.Context, limit int64) ([]models.QueryLog, error) {
	if s.history == nil {
		return nil, ErrHistoryDisabled
	}
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	return s.history.FindRecent(ctx, limit)
}
