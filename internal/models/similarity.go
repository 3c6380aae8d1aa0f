package models

// Neighbor es un vecino dentro de una entrada top-K.
// Sim se guarda en float32 (pérdida de precisión aceptada).
type Neighbor struct {
	MovieID int     `json:"movieId" bson:"movieId"`
	Sim     float32 `json:"sim" bson:"sim"`
}

// SimilarityEntry son los vecinos de un ítem, ordenados por Sim desc y
// MovieID asc en empates. Nunca contiene al propio ítem.
type SimilarityEntry struct {
	MovieID   int        `json:"movieId" bson:"movieId"`
	Neighbors []Neighbor `json:"neighbors" bson:"neighbors"`
}

// SimilarityDoc es el documento publicado en la colección "similarities".
type SimilarityDoc struct {
	ID        string     `json:"_id" bson:"_id"`
	MovieID   int        `json:"movieId" bson:"movieId"`
	Metric    string     `json:"metric" bson:"metric"`
	K         int        `json:"k" bson:"k"`
	Neighbors []Neighbor `json:"neighbors" bson:"neighbors"`
	UpdatedAt string     `json:"updatedAt" bson:"updatedAt"`
}
