// Package simindex construye el índice top-K de similitud sin materializar
// nunca la matriz N×N completa: el catálogo se parte en batches y cada batch
// produce un bloque denso filas×N del que solo se conservan los K mejores
// vecinos por fila.
//
// Los scores se guardan en float32: se pierde precisión a cambio de la mitad
// de memoria, tanto en el bloque como en el índice persistido.
package simindex

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"cinerec/internal/logging"
	"cinerec/internal/models"
	"cinerec/internal/vectorspace"
)

// ErrIndexBuild configuración inválida (K o batch size).
var ErrIndexBuild = errors.New("simindex: invalid build configuration")

const (
	DefaultBatchSize   = 1000
	DefaultParallelism = 4
)

// Config del builder. Con BatchSize y Parallelism se acota el pico de memoria
// a Parallelism × BatchSize × N float32.
type Config struct {
	K           int
	BatchSize   int
	Parallelism int
	// Progress se llama (serializado) al terminar cada batch.
	Progress func(models.RebuildProgress)
}

// Batch filas [From, To) (posiciones 0-based) del catálogo.
type Batch struct {
	Index int
	From  int
	To    int
}

// Runner calcula las entradas top-K de un batch. Lo implementan el runner
// local y el runner contra nodos remotos (internal/cluster).
type Runner interface {
	RunBatch(ctx context.Context, b Batch, k int) ([]models.SimilarityEntry, error)
}

// Result del build.
type Result struct {
	Entries []models.SimilarityEntry
	K       int
	Batches int
}

// LocalRunner calcula los batches en el propio proceso.
type LocalRunner struct {
	scorer *Scorer
}

func NewLocalRunner(vectors []vectorspace.Vector) *LocalRunner {
	return &LocalRunner{scorer: NewScorer(vectors)}
}

// RunBatch calcula el bloque del batch y selecciona el top-K de cada fila.
func (r *LocalRunner) RunBatch(ctx context.Context, b Batch, k int) ([]models.SimilarityEntry, error) {
	return ComputeBatch(ctx, r.scorer, b, k)
}

// ComputeBatch es el trabajo de un batch sobre un Scorer.
func ComputeBatch(ctx context.Context, s *Scorer, b Batch, k int) ([]models.SimilarityEntry, error) {
	if b.From < 0 || b.To > s.Len() || b.From > b.To {
		return nil, fmt.Errorf("%w: batch [%d,%d) out of range (n=%d)", ErrIndexBuild, b.From, b.To, s.Len())
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	block := s.Block(b.From, b.To)
	buf := make([]int32, 0, s.Len())

	entries := make([]models.SimilarityEntry, len(block))
	for i, row := range block {
		self := b.From + i
		entries[i] = models.SimilarityEntry{
			MovieID:   self + 1,
			Neighbors: TopK(row, self, k, buf),
		}
	}
	return entries, nil
}

// Partition parte n filas en batches de batchSize.
func Partition(n, batchSize int) []Batch {
	var batches []Batch
	for from := 0; from < n; from += batchSize {
		to := from + batchSize
		if to > n {
			to = n
		}
		batches = append(batches, Batch{Index: len(batches), From: from, To: to})
	}
	return batches
}

// ClampK aplica la política de K: K<1 es error, K>N-1 se recorta a N-1
// (el propio ítem nunca es vecino).
func ClampK(k, n int) (int, error) {
	if k < 1 {
		return 0, fmt.Errorf("%w: k must be >= 1 (got %d)", ErrIndexBuild, k)
	}
	if n > 0 && k > n-1 {
		return n - 1, nil
	}
	return k, nil
}

// Build ejecuta todos los batches con concurrencia acotada y devuelve una
// entrada por ítem en orden de ID.
func Build(ctx context.Context, n int, runner Runner, cfg Config) (*Result, error) {
	log := logging.With().Str("component", "simindex").Logger()

	if cfg.BatchSize == 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.BatchSize < 0 {
		return nil, fmt.Errorf("%w: batch size must be >= 1 (got %d)", ErrIndexBuild, cfg.BatchSize)
	}
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = DefaultParallelism
	}
	k, err := ClampK(cfg.K, n)
	if err != nil {
		return nil, err
	}
	if k != cfg.K {
		log.Warn().Int("k", cfg.K).Int("clamped", k).Int("items", n).Msg("k mayor que N-1, recortado")
	}

	batches := Partition(n, cfg.BatchSize)
	entries := make([]models.SimilarityEntry, n)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
		done     int
	)
	sem := make(chan struct{}, cfg.Parallelism)

	for _, batch := range batches {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)

		go func(b Batch) {
			defer wg.Done()
			defer func() { <-sem }()

			res, err := runner.RunBatch(ctx, b, k)
			if err == nil && len(res) != b.To-b.From {
				err = fmt.Errorf("%w: batch %d returned %d entries, want %d", ErrIndexBuild, b.Index, len(res), b.To-b.From)
			}

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = fmt.Errorf("batch %d: %w", b.Index, err)
					cancel()
				}
				return
			}
			copy(entries[b.From:b.To], res)
			done++
			if cfg.Progress != nil {
				cfg.Progress(models.RebuildProgress{Batch: done, Batches: len(batches), Rows: b.To - b.From})
			}
		}(batch)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	log.Info().Int("items", n).Int("k", k).Int("batches", len(batches)).Msg("índice top-K construido")
	return &Result{Entries: entries, K: k, Batches: len(batches)}, nil
}

// BuildLocal arma el índice en proceso a partir de los vectores.
func BuildLocal(ctx context.Context, vectors []vectorspace.Vector, cfg Config) (*Result, error) {
	return Build(ctx, len(vectors), NewLocalRunner(vectors), cfg)
}

// BuildDense calcula la matriz completa N×N (row-major, incluye la diagonal).
// Es el formato legado; solo tiene sentido para catálogos chicos.
func BuildDense(ctx context.Context, vectors []vectorspace.Vector, batchSize int) ([]float32, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	s := NewScorer(vectors)
	n := s.Len()
	out := make([]float32, n*n)
	acc := make([]float64, n)
	for _, b := range Partition(n, batchSize) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for r := b.From; r < b.To; r++ {
			s.Row(r, acc, out[r*n:(r+1)*n])
		}
	}
	return out, nil
}
