package service

import (
	"context"
	"fmt"
	"time"

	"cinerec/internal/catalog"
	"cinerec/internal/cluster"
	"cinerec/internal/logging"
	"cinerec/internal/metrics"
	"cinerec/internal/models"
	"cinerec/internal/simindex"
	"cinerec/internal/store"
	"cinerec/internal/vectorspace"
)

// BuildOptions parámetros de un build completo del índice.
type BuildOptions struct {
	CatalogPath string
	K           int
	BatchSize   int
	Parallelism int
	MaxFeatures int
	// Dense guarda la matriz completa (formato legado, solo catálogos chicos).
	Dense bool
	// Nodes nodos de similitud remotos; vacío = cálculo local.
	Nodes    []string
	Progress func(models.RebuildProgress)
}

// BuildService corre el pipeline offline: CSV -> documentos -> TF-IDF ->
// índice top-K (o matriz densa) -> snapshot listo para persistir.
type BuildService struct{}

func NewBuildService() *BuildService {
	return &BuildService{}
}

// Build devuelve el snapshot y el reporte del build. No escribe a disco.
func (s *BuildService) Build(ctx context.Context, opts BuildOptions) (*store.Handle, *models.RebuildResult, error) {
	start := time.Now()
	h, res, err := s.build(ctx, opts)
	batches := 0
	if res != nil {
		batches = res.Batches
	}
	metrics.RecordBuild(err == nil, batches, time.Since(start))
	if err != nil {
		return nil, nil, err
	}

	res.ElapsedMS = time.Since(start).Milliseconds()
	res.FinishedAt = time.Now().UTC()
	logging.Info().
		Str("component", "build").
		Int("items", res.Items).
		Int("vocabulary", res.Vocabulary).
		Int("batches", res.Batches).
		Int("k", res.K).
		Str("kind", res.Kind).
		Int64("elapsed_ms", res.ElapsedMS).
		Msg("índice construido")
	return h, res, nil
}

func (s *BuildService) build(ctx context.Context, opts BuildOptions) (*store.Handle, *models.RebuildResult, error) {
	items, err := catalog.ReadCSVFile(opts.CatalogPath)
	if err != nil {
		return nil, nil, err
	}

	docs := catalog.Documents(items)
	model, vectors, err := vectorspace.FitTransform(docs, vectorspace.Options{MaxFeatures: opts.MaxFeatures})
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", opts.CatalogPath, err)
	}

	display := make([]models.CatalogItem, len(items))
	for i, it := range items {
		display[i] = it.Display()
	}
	h := &store.Handle{
		Version:   store.FormatVersion,
		CreatedAt: time.Now().UTC(),
		Metric:    store.MetricCosine,
		Items:     display,
	}
	res := &models.RebuildResult{
		Items:      len(items),
		Vocabulary: model.VocabularySize(),
	}

	if opts.Dense {
		values, err := simindex.BuildDense(ctx, vectors, opts.BatchSize)
		if err != nil {
			return nil, nil, err
		}
		h.Storage = store.NewDense(len(items), values)
		res.Batches = len(simindex.Partition(len(items), batchSizeOrDefault(opts.BatchSize)))
	} else {
		var runner simindex.Runner = simindex.NewLocalRunner(vectors)
		if len(opts.Nodes) > 0 {
			remote := cluster.NewRunner(opts.Nodes, model.Fingerprint())
			if _, err := remote.Check(ctx); err != nil {
				return nil, nil, err
			}
			runner = remote
		}

		result, err := simindex.Build(ctx, len(items), runner, simindex.Config{
			K:           opts.K,
			BatchSize:   opts.BatchSize,
			Parallelism: opts.Parallelism,
			Progress:    opts.Progress,
		})
		if err != nil {
			return nil, nil, err
		}
		h.Storage = store.NewTopK(result.Entries, result.K)
		res.Batches = result.Batches
	}

	res.K = h.Storage.K
	res.Kind = h.Storage.Kind.String()
	return h, res, nil
}

func batchSizeOrDefault(n int) int {
	if n <= 0 {
		return simindex.DefaultBatchSize
	}
	return n
}

// RebuildFunc adapta Build al bootstrap de store.Initialize.
func (s *BuildService) RebuildFunc(opts BuildOptions) store.RebuildFunc {
	return func(ctx context.Context) (*store.Handle, error) {
		h, _, err := s.Build(ctx, opts)
		return h, err
	}
}
