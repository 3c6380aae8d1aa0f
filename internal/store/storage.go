package store

import (
	"cinerec/internal/models"
)

// Kind es la etiqueta de la variante de almacenamiento del índice.
type Kind uint8

const (
	// KindTopK: una entrada de K vecinos por ítem (formato actual).
	KindTopK Kind = iota + 1
	// KindDense: matriz N×N completa (formato legado).
	KindDense
)

func (k Kind) String() string {
	switch k {
	case KindTopK:
		return "topk"
	case KindDense:
		return "dense"
	default:
		return "unknown"
	}
}

func parseKind(s string) Kind {
	switch s {
	case "topk":
		return KindTopK
	case "dense":
		return KindDense
	default:
		return 0
	}
}

// Dense matriz row-major de N×N scores (incluye la diagonal).
type Dense struct {
	N      int
	Values []float32
}

// Row devuelve la fila del ítem id (1-based).
func (d *Dense) Row(id int) ([]float32, bool) {
	if d == nil || id < 1 || id > d.N {
		return nil, false
	}
	return d.Values[(id-1)*d.N : id*d.N], true
}

// Storage = TopK(entries) | Dense(matrix). Quien consulta despacha por Kind.
type Storage struct {
	Kind  Kind
	K     int
	TopK  []models.SimilarityEntry // posición id-1
	Dense *Dense
}

func NewTopK(entries []models.SimilarityEntry, k int) Storage {
	return Storage{Kind: KindTopK, K: k, TopK: entries}
}

func NewDense(n int, values []float32) Storage {
	return Storage{Kind: KindDense, K: n - 1, Dense: &Dense{N: n, Values: values}}
}

// Entry devuelve la entrada top-K del ítem id.
func (s Storage) Entry(id int) (models.SimilarityEntry, bool) {
	if s.Kind != KindTopK || id < 1 || id > len(s.TopK) {
		return models.SimilarityEntry{}, false
	}
	return s.TopK[id-1], true
}
