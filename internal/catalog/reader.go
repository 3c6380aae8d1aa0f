// Package catalog lee el dataset de películas y arma el documento de texto
// de cada ítem (genres + overview + idioma + cast + director).
package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"cinerec/internal/models"
)

// ErrMissingColumn indica que falta una columna obligatoria en la cabecera.
var ErrMissingColumn = errors.New("catalog: missing required column")

// alias de columnas aceptados (el script de filtrado y el dataset original
// no usan los mismos nombres)
var columnAliases = map[string][]string{
	"title":             {"title"},
	"release_date":      {"release_date"},
	"original_language": {"original_language", "language"},
	"overview":          {"overview"},
	"genres":            {"genres"},
	"cast":              {"cast"},
	"director":          {"director"},
	"rating":            {"rating", "imdb_rating", "vote_average"},
	"poster_path":       {"poster_path"},
}

// ReadCSVFile abre path y delega en ReadCSV.
func ReadCSVFile(path string) ([]models.CatalogItem, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadCSV(f)
}

// ReadCSV parsea el catálogo. Solo "title" es obligatoria; las demás columnas
// ausentes o vacías quedan como "" (la fila nunca se descarta). Los IDs son la
// posición 1-based de la fila.
func ReadCSV(r io.Reader) ([]models.CatalogItem, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: title (empty file)", ErrMissingColumn)
	}
	if err != nil {
		return nil, fmt.Errorf("catalog: read header: %w", err)
	}

	cols := resolveColumns(header)
	if _, ok := cols["title"]; !ok {
		return nil, fmt.Errorf("%w: title", ErrMissingColumn)
	}

	var items []models.CatalogItem
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("catalog: line %d: %w", line, err)
		}

		get := func(col string) string {
			idx, ok := cols[col]
			if !ok || idx >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[idx])
		}

		items = append(items, models.CatalogItem{
			ID:               len(items) + 1,
			Title:            get("title"),
			ReleaseDate:      get("release_date"),
			OriginalLanguage: get("original_language"),
			Overview:         get("overview"),
			Genres:           get("genres"),
			Cast:             get("cast"),
			Director:         get("director"),
			Rating:           ParseRating(get("rating")),
			PosterPath:       get("poster_path"),
		})
	}
	return items, nil
}

func resolveColumns(header []string) map[string]int {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := pos[h]; !dup {
			pos[h] = i
		}
	}

	cols := make(map[string]int, len(columnAliases))
	for canonical, aliases := range columnAliases {
		for _, a := range aliases {
			if idx, ok := pos[a]; ok {
				cols[canonical] = idx
				break
			}
		}
	}
	return cols
}

// ParseRating devuelve 0.0 cuando el valor no es un número válido.
func ParseRating(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || v != v { // NaN
		return 0
	}
	return v
}
