// Package store persiste el catálogo (columnas de display) junto con el índice
// de similitud en un único archivo, y lo carga completo o no lo carga.
package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"cinerec/internal/logging"
	"cinerec/internal/models"
)

var (
	// ErrStoreCorrupt el artefacto existe pero no se puede cargar entero.
	ErrStoreCorrupt = errors.New("store: corrupt artifact")
	// ErrBootstrap falló el build inicial cuando no había artefacto.
	ErrBootstrap = errors.New("store: bootstrap failed")
)

func corrupt(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrStoreCorrupt, fmt.Sprintf(format, args...))
}

// Handle es el snapshot en memoria: se construye una vez y después es de solo
// lectura, así que se comparte entre requests sin locks.
type Handle struct {
	Path      string
	Version   uint32
	CreatedAt time.Time
	Metric    string
	Items     []models.CatalogItem // posición id-1
	Storage   Storage
}

// RebuildFunc corre el pipeline completo (catálogo -> índice) y devuelve el
// snapshot a persistir.
type RebuildFunc func(ctx context.Context) (*Handle, error)

func (h *Handle) Len() int { return len(h.Items) }

// Item devuelve el registro de display del id (1-based).
func (h *Handle) Item(id int) (models.CatalogItem, bool) {
	if id < 1 || id > len(h.Items) {
		return models.CatalogItem{}, false
	}
	return h.Items[id-1], true
}

// validate chequea que todos los ids referenciados existan.
func (h *Handle) validate() error {
	n := len(h.Items)
	if n == 0 {
		return corrupt("empty catalog")
	}
	for i, it := range h.Items {
		if it.ID != i+1 {
			return corrupt("item at position %d has id %d", i, it.ID)
		}
	}

	switch h.Storage.Kind {
	case KindTopK:
		if len(h.Storage.TopK) != n {
			return corrupt("%d entries for %d items", len(h.Storage.TopK), n)
		}
		for i, e := range h.Storage.TopK {
			if e.MovieID != i+1 {
				return corrupt("entry at position %d has id %d", i, e.MovieID)
			}
			if err := validateNeighbors(e, n); err != nil {
				return err
			}
		}
	case KindDense:
		d := h.Storage.Dense
		if d == nil || d.N != n || len(d.Values) != n*n {
			return corrupt("dense matrix does not match %d items", n)
		}
	default:
		return corrupt("unknown storage kind %d", h.Storage.Kind)
	}
	return nil
}

// validateNeighbors ids en rango, sin self ni repetidos, y en orden.
func validateNeighbors(e models.SimilarityEntry, n int) error {
	seen := make(map[int]bool, len(e.Neighbors))
	for j, nb := range e.Neighbors {
		switch {
		case nb.MovieID < 1 || nb.MovieID > n:
			return corrupt("entry %d references unknown id %d", e.MovieID, nb.MovieID)
		case nb.MovieID == e.MovieID:
			return corrupt("entry %d lists itself as neighbor", e.MovieID)
		case seen[nb.MovieID]:
			return corrupt("entry %d repeats neighbor %d", e.MovieID, nb.MovieID)
		case j > 0 && !neighborBefore(e.Neighbors[j-1], nb):
			return corrupt("entry %d neighbors out of order at %d", e.MovieID, j)
		}
		seen[nb.MovieID] = true
	}
	return nil
}

// Save escribe el artefacto de forma atómica (archivo temporal + rename).
func Save(path string, h *Handle) error {
	data, err := Encode(h)
	if err != nil {
		return err
	}
	return writeAtomic(path, data)
}

// SaveLegacy igual que Save pero con el layout previo.
func SaveLegacy(path string, h *Handle) error {
	data, err := EncodeLegacy(h)
	if err != nil {
		return err
	}
	return writeAtomic(path, data)
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("store: mkdir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("store: create temp: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op después del rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("store: write %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("store: sync %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("store: close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("store: rename to %s: %w", path, err)
	}
	return nil
}

// Load lee y valida el artefacto. Un archivo inexistente devuelve un error
// que cumple errors.Is(err, os.ErrNotExist); cualquier otro problema de
// contenido es ErrStoreCorrupt.
func Load(path string) (*Handle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("store: read %s: %w", path, err)
	}
	h, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	h.Path = path
	return h, nil
}

// Initialize carga el artefacto de path; si no existe corre rebuild, lo
// persiste y lo vuelve a cargar desde disco. Se llama una sola vez antes de
// empezar a servir.
func Initialize(ctx context.Context, path string, rebuild RebuildFunc) (*Handle, error) {
	log := logging.With().Str("component", "store").Str("path", path).Logger()

	_, err := os.Stat(path)
	switch {
	case err == nil:
		h, err := Load(path)
		if err != nil {
			return nil, err
		}
		log.Info().
			Int("items", h.Len()).
			Str("kind", h.Storage.Kind.String()).
			Uint32("version", h.Version).
			Msg("artefacto cargado")
		return h, nil
	case !errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("%w: stat %s: %v", ErrBootstrap, path, err)
	}

	if rebuild == nil {
		return nil, fmt.Errorf("%w: %s missing and no rebuild configured", ErrBootstrap, path)
	}

	log.Warn().Msg("artefacto inexistente, construyendo índice")
	start := time.Now()
	built, err := rebuild(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBootstrap, err)
	}
	if err := Save(path, built); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBootstrap, err)
	}
	h, err := Load(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBootstrap, err)
	}
	log.Info().
		Int("items", h.Len()).
		Dur("elapsed", time.Since(start)).
		Msg("índice construido y persistido")
	return h, nil
}

// Summary describe el snapshot cargado.
func (h *Handle) Summary() models.IndexSummary {
	s := models.IndexSummary{
		Items:         h.Len(),
		K:             h.Storage.K,
		Kind:          h.Storage.Kind.String(),
		FormatVersion: h.Version,
		CreatedAt:     h.CreatedAt,
		StorePath:     h.Path,
	}
	switch h.Storage.Kind {
	case KindTopK:
		s.Entries = len(h.Storage.TopK)
		for _, e := range h.Storage.TopK {
			if len(e.Neighbors) == 0 {
				s.EmptyEntries++
			}
		}
	case KindDense:
		s.Entries = h.Storage.Dense.N
	}
	return s
}
