package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cinerec/internal/fuzzy"
	"cinerec/internal/logging"
	"cinerec/internal/metrics"
	"cinerec/internal/models"
	"cinerec/internal/simindex"
	"cinerec/internal/store"

	"github.com/google/uuid"
)

const (
	DefaultCount = 10
	MaxCount     = 100 // por seguridad, no deja pedir todo el catálogo

	DefaultSuggestLimit = 10
	MaxSuggestLimit     = 50
)

// RecommendService responde consultas sobre el snapshot cargado. No toca
// disco ni red: el historial se manda al recorder asíncrono.
type RecommendService struct {
	handle   *store.Handle
	resolver *Resolver
	history  *HistoryRecorder
}

func NewRecommendService(h *store.Handle, matcher fuzzy.Matcher, history *HistoryRecorder) *RecommendService {
	return &RecommendService{
		handle:   h,
		resolver: NewResolver(h.Items, matcher),
		history:  history,
	}
}

// Movie registro de display de un id.
func (s *RecommendService) Movie(ctx context.Context, id int) (models.CatalogItem, error) {
	it, ok := s.handle.Item(id)
	if !ok {
		return models.CatalogItem{}, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	return it, nil
}

// Recommend devuelve hasta n vecinos de id leyendo la entrada guardada. Si
// la entrada tiene menos de n vecinos se devuelven los que haya.
func (s *RecommendService) Recommend(ctx context.Context, id, n int) ([]models.Recommendation, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidCount, n)
	}
	if _, ok := s.handle.Item(id); !ok {
		return nil, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}

	var neighbors []models.Neighbor
	st := s.handle.Storage
	switch st.Kind {
	case store.KindTopK:
		entry, ok := st.Entry(id)
		if !ok {
			return nil, s.missingEntry(id)
		}
		neighbors = entry.Neighbors
		if len(neighbors) > n {
			neighbors = neighbors[:n]
		}
	case store.KindDense:
		row, ok := st.Dense.Row(id)
		if !ok {
			return nil, s.missingEntry(id)
		}
		neighbors = simindex.TopK(row, id-1, n, nil)
	default:
		return nil, s.missingEntry(id)
	}

	out := make([]models.Recommendation, 0, len(neighbors))
	for _, nb := range neighbors {
		it, ok := s.handle.Item(nb.MovieID)
		if !ok {
			return nil, s.missingEntry(nb.MovieID)
		}
		out = append(out, models.Recommendation{
			MovieID:     it.ID,
			Title:       it.Title,
			Genres:      it.Genres,
			Overview:    it.Overview,
			ReleaseDate: FormatDate(it.ReleaseDate),
			Rating:      RoundRating(it.Rating),
			PosterPath:  it.PosterPath,
			Score:       nb.Sim,
		})
	}
	return out, nil
}

func (s *RecommendService) missingEntry(id int) error {
	logging.Error().
		Int("id", id).
		Str("store", s.handle.Path).
		Msg("índice inconsistente: ítem sin entrada de similitud")
	return fmt.Errorf("%w: id %d", ErrIndexMissingEntry, id)
}

// ResolveAndRecommend resuelve query (o usa explicitID si viene) y devuelve
// count recomendaciones. ErrNotFound cuando no hay título parecido.
func (s *RecommendService) ResolveAndRecommend(ctx context.Context, query string, count int, explicitID *int) ([]models.Recommendation, error) {
	start := time.Now()

	recs, id, err := s.resolveAndRecommend(ctx, query, count, explicitID)
	metrics.RecordQuery(outcomeOf(err), time.Since(start))
	if err != nil {
		return nil, err
	}

	items := make([]int, len(recs))
	for i, r := range recs {
		items[i] = r.MovieID
	}
	s.history.Record(&models.QueryLog{
		ID:        uuid.NewString(),
		Query:     query,
		MovieID:   id,
		Count:     count,
		Items:     items,
		CreatedAt: time.Now().UTC(),
	})
	return recs, nil
}

func (s *RecommendService) resolveAndRecommend(ctx context.Context, query string, count int, explicitID *int) ([]models.Recommendation, int, error) {
	var id int
	if explicitID != nil {
		id = *explicitID
	} else {
		resolved, err := s.resolver.Resolve(query)
		if err != nil {
			return nil, 0, err
		}
		id = resolved
	}
	recs, err := s.Recommend(ctx, id, count)
	return recs, id, err
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.Is(err, ErrNotFound):
		return metrics.OutcomeNotFound
	case errors.Is(err, ErrInvalidCount):
		return metrics.OutcomeInvalid
	default:
		return metrics.OutcomeError
	}
}

// Suggest autocompletado: primero títulos que empiezan con prefix, después
// los que lo contienen, y si no hubo nada, los más parecidos por fuzzy.
func (s *RecommendService) Suggest(ctx context.Context, prefix string, limit int) []models.Suggestion {
	metrics.RecordSuggest()

	if limit <= 0 {
		limit = DefaultSuggestLimit
	} else if limit > MaxSuggestLimit {
		limit = MaxSuggestLimit
	}
	q := strings.ToLower(strings.TrimSpace(prefix))
	if q == "" {
		return []models.Suggestion{}
	}

	titles := s.resolver.Titles()
	var starts, contains []int
	for i, t := range titles {
		if len(starts) >= limit {
			break
		}
		switch {
		case strings.HasPrefix(t, q):
			starts = append(starts, i)
		case len(contains) < limit && strings.Contains(t, q):
			contains = append(contains, i)
		}
	}

	positions := append(starts, contains...)
	if len(positions) == 0 {
		for _, m := range s.resolver.matcher.Closest(q, titles, limit, fuzzyCutoff) {
			positions = append(positions, m.Index)
		}
	}
	if len(positions) > limit {
		positions = positions[:limit]
	}

	out := make([]models.Suggestion, 0, len(positions))
	for _, pos := range positions {
		it := s.handle.Items[pos]
		out = append(out, models.Suggestion{
			ID:          it.ID,
			Title:       it.Title,
			PosterPath:  it.PosterPath,
			ReleaseDate: it.ReleaseDate,
		})
	}
	return out
}

// Summary del snapshot que se está sirviendo.
func (s *RecommendService) Summary() models.IndexSummary {
	return s.handle.Summary()
}
