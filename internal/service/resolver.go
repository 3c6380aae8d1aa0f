package service

import (
	"fmt"
	"regexp"
	"strings"

	"cinerec/internal/fuzzy"
	"cinerec/internal/models"
)

const (
	fuzzyCandidates = 10
	fuzzyCutoff     = 0.3
)

// "Inception (2010)" -> ("Inception", "2010")
var titleYearRe = regexp.MustCompile(`^(.*\S)\s+\((\d{4})\)$`)

// Resolver traduce el texto del usuario al id de un ítem del catálogo.
// Se arma una vez sobre el snapshot cargado y es de solo lectura.
type Resolver struct {
	items   []models.CatalogItem
	lowered []string
	// título en minúsculas -> posiciones en orden de catálogo
	byTitle map[string][]int
	matcher fuzzy.Matcher
}

func NewResolver(items []models.CatalogItem, matcher fuzzy.Matcher) *Resolver {
	if matcher == nil {
		matcher = fuzzy.SequenceMatcher{}
	}
	r := &Resolver{
		items:   items,
		lowered: make([]string, len(items)),
		byTitle: make(map[string][]int, len(items)),
		matcher: matcher,
	}
	for i, it := range items {
		t := strings.ToLower(it.Title)
		r.lowered[i] = t
		r.byTitle[t] = append(r.byTitle[t], i)
	}
	return r
}

// splitTitleYear separa el sufijo " (YYYY)" si está.
func splitTitleYear(query string) (string, string, bool) {
	m := titleYearRe.FindStringSubmatch(query)
	if m == nil {
		return query, "", false
	}
	return m[1], m[2], true
}

// Resolve devuelve el id del ítem que corresponde a query:
//  1. "Título (Año)": título exacto (sin mayúsculas) cuya fecha empiece por el año;
//     si no hay, el primer título exacto; si tampoco, ErrNotFound.
//  2. Sin año: título exacto o el más parecido por fuzzy (>= 0.3).
//
// Con títulos repetidos gana el primero del catálogo.
func (r *Resolver) Resolve(query string) (int, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return 0, fmt.Errorf("%w: empty query", ErrNotFound)
	}

	if title, year, ok := splitTitleYear(query); ok {
		positions := r.byTitle[strings.ToLower(title)]
		for _, pos := range positions {
			if strings.HasPrefix(r.items[pos].ReleaseDate, year) {
				return r.items[pos].ID, nil
			}
		}
		if len(positions) > 0 {
			return r.items[positions[0]].ID, nil
		}
		return 0, fmt.Errorf("%w: %q", ErrNotFound, query)
	}

	lowered := strings.ToLower(query)
	if positions := r.byTitle[lowered]; len(positions) > 0 {
		return r.items[positions[0]].ID, nil
	}

	matches := r.matcher.Closest(lowered, r.lowered, fuzzyCandidates, fuzzyCutoff)
	if len(matches) == 0 {
		return 0, fmt.Errorf("%w: %q", ErrNotFound, query)
	}
	// el mejor candidato puede repetirse en el catálogo: primera aparición
	best := r.byTitle[matches[0].Value]
	return r.items[best[0]].ID, nil
}

// Titles títulos en minúsculas, en orden de catálogo.
func (r *Resolver) Titles() []string {
	return r.lowered
}
