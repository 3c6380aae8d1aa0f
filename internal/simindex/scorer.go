package simindex

import (
	"cinerec/internal/vectorspace"
)

type posting struct {
	doc int32
	w   float64
}

// Scorer calcula filas de similitud coseno contra todo el catálogo usando un
// índice invertido término -> (doc, peso). Es de solo lectura y se comparte
// entre goroutines.
type Scorer struct {
	n        int
	vectors  []vectorspace.Vector
	norms    []float64
	postings [][]posting
}

// NewScorer indexa los vectores (posición i = ítem con ID i+1).
func NewScorer(vectors []vectorspace.Vector) *Scorer {
	s := &Scorer{
		n:       len(vectors),
		vectors: vectors,
		norms:   make([]float64, len(vectors)),
	}

	var maxTerm int32 = -1
	for _, v := range vectors {
		for _, t := range v.Indices {
			if t > maxTerm {
				maxTerm = t
			}
		}
	}
	s.postings = make([][]posting, maxTerm+1)

	for i, v := range vectors {
		s.norms[i] = v.Norm()
		for j, t := range v.Indices {
			s.postings[t] = append(s.postings[t], posting{doc: int32(i), w: v.Values[j]})
		}
	}
	return s
}

// Len número de ítems.
func (s *Scorer) Len() int { return s.n }

// Row escribe en dst (len N) la similitud de la fila r contra todos los
// ítems, usando acc (len N) como acumulador. Fila con norma 0 => todo 0.
func (s *Scorer) Row(r int, acc []float64, dst []float32) {
	for j := range acc {
		acc[j] = 0
	}

	v := s.vectors[r]
	nr := s.norms[r]
	if nr != 0 {
		for i, t := range v.Indices {
			w := v.Values[i]
			for _, p := range s.postings[t] {
				acc[p.doc] += w * p.w
			}
		}
	}

	for j := range dst {
		if nr == 0 || s.norms[j] == 0 || acc[j] == 0 {
			dst[j] = 0
			continue
		}
		sim := acc[j] / (nr * s.norms[j])
		if sim > 1 {
			sim = 1
		} else if sim < 0 {
			sim = 0
		}
		dst[j] = float32(sim)
	}
}

// Block calcula el bloque denso filas [from,to) × N.
func (s *Scorer) Block(from, to int) [][]float32 {
	acc := make([]float64, s.n)
	flat := make([]float32, (to-from)*s.n)
	block := make([][]float32, to-from)
	for r := from; r < to; r++ {
		row := flat[(r-from)*s.n : (r-from+1)*s.n]
		s.Row(r, acc, row)
		block[r-from] = row
	}
	return block
}
