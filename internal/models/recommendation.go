package models

import "time"

// Recommendation es lo que devuelve el motor de consulta para mostrar.
type Recommendation struct {
	MovieID     int     `json:"movieId"`
	Title       string  `json:"title"`
	Genres      string  `json:"genres"`
	Overview    string  `json:"overview"`
	ReleaseDate string  `json:"releaseDate"` // DD-MM-YYYY
	Rating      float64 `json:"rating"`      // redondeado a 2 decimales
	PosterPath  string  `json:"posterPath"`
	Score       float32 `json:"score"`
}

// QueryLog es el historial de consultas (colección "recommendations").
type QueryLog struct {
	ID        string    `bson:"_id,omitempty" json:"id"`
	Query     string    `bson:"query"         json:"query"`
	MovieID   int       `bson:"movieId"       json:"movieId"`
	Count     int       `bson:"count"         json:"count"`
	Items     []int     `bson:"items"         json:"items"`
	CreatedAt time.Time `bson:"createdAt"     json:"createdAt"`
}
