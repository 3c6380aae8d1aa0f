package catalog

import (
	"strings"

	"cinerec/internal/models"
)

// Document concatena los campos de texto del ítem separados por espacio.
// Los campos vacíos no aportan términos pero mantienen el separador.
func Document(m models.CatalogItem) string {
	return strings.Join([]string{
		m.Genres,
		m.Overview,
		m.OriginalLanguage,
		m.Cast,
		m.Director,
	}, " ")
}

// Documents devuelve un documento por ítem, en el orden del catálogo.
func Documents(items []models.CatalogItem) []string {
	docs := make([]string, len(items))
	for i, m := range items {
		docs[i] = Document(m)
	}
	return docs
}
