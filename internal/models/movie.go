package models

// CatalogItem es una película del catálogo. ID es la posición (1-based) de la
// fila en el dataset y es la única referencia que usa el índice de similitud.
type CatalogItem struct {
	ID               int     `json:"id" bson:"id"`
	Title            string  `json:"title" bson:"title"`
	ReleaseDate      string  `json:"releaseDate" bson:"releaseDate"`
	Genres           string  `json:"genres" bson:"genres"`
	Overview         string  `json:"overview" bson:"overview"`
	Cast             string  `json:"cast,omitempty" bson:"cast,omitempty"`
	Director         string  `json:"director,omitempty" bson:"director,omitempty"`
	OriginalLanguage string  `json:"originalLanguage,omitempty" bson:"originalLanguage,omitempty"`
	Rating           float64 `json:"rating" bson:"rating"`
	PosterPath       string  `json:"posterPath" bson:"posterPath"`
}

// Display recorta el ítem a las columnas que se persisten junto al índice.
// Cast/director/idioma solo se usan para construir el documento.
func (m CatalogItem) Display() CatalogItem {
	return CatalogItem{
		ID:          m.ID,
		Title:       m.Title,
		ReleaseDate: m.ReleaseDate,
		Genres:      m.Genres,
		Overview:    m.Overview,
		Rating:      m.Rating,
		PosterPath:  m.PosterPath,
	}
}

// Suggestion es una fila del autocompletado.
type Suggestion struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	PosterPath  string `json:"posterPath"`
	ReleaseDate string `json:"releaseDate"`
}
