// Package fuzzy ofrece coincidencia aproximada de títulos detrás de una
// interfaz, para poder cambiar el algoritmo sin tocar el resolver.
package fuzzy

import (
	"sort"

	"github.com/pmezard/go-difflib/difflib"
)

// Match es un candidato aceptado. Index es su posición en la lista original.
type Match struct {
	Value string
	Index int
	Score float64
}

// Matcher devuelve hasta n candidatos con score >= cutoff, del más al menos
// parecido. En empate gana el que aparece antes en candidates.
type Matcher interface {
	Closest(query string, candidates []string, n int, cutoff float64) []Match
}

// SequenceMatcher usa el ratio 2·M/T de difflib sobre runas, con los filtros
// previos real-quick y quick (cotas superiores baratas del ratio).
type SequenceMatcher struct{}

// Closest devuelve hasta n candidatos con ratio >= cutoff, por ratio desc. Los
// empates conservan el orden de candidates (orden del catálogo); a propósito
// no desempata por texto como get_close_matches de difflib, que usa nlargest
// sobre (score, título).
func (SequenceMatcher) Closest(query string, candidates []string, n int, cutoff float64) []Match {
	if n <= 0 {
		return nil
	}

	m := difflib.NewMatcher(nil, runes(query))
	var out []Match
	for i, c := range candidates {
		m.SetSeq1(runes(c))
		if m.RealQuickRatio() < cutoff || m.QuickRatio() < cutoff {
			continue
		}
		if r := m.Ratio(); r >= cutoff {
			out = append(out, Match{Value: c, Index: i, Score: r})
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// Ratio similitud entre dos strings en [0,1].
func Ratio(a, b string) float64 {
	return difflib.NewMatcher(runes(a), runes(b)).Ratio()
}

func runes(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}
