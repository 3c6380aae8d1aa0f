package simindex

import (
	"sort"

	"cinerec/internal/models"
)

// better define el orden del top-K: score desc y, en empate, índice asc.
func better(row []float32, a, b int32) bool {
	if row[a] != row[b] {
		return row[a] > row[b]
	}
	return a < b
}

// TopK devuelve los k mejores vecinos de la fila (excluyendo self), ya
// ordenados. Selección parcial O(N) + sort O(k log k). buf se reutiliza si
// tiene capacidad suficiente.
func TopK(row []float32, self, k int, buf []int32) []models.Neighbor {
	idx := buf[:0]
	for j := range row {
		if j != self {
			idx = append(idx, int32(j))
		}
	}
	if k > len(idx) {
		k = len(idx)
	}
	if k <= 0 {
		return []models.Neighbor{}
	}

	quickselect(row, idx, k)
	top := idx[:k]
	sort.Slice(top, func(i, j int) bool { return better(row, top[i], top[j]) })

	out := make([]models.Neighbor, k)
	for i, j := range top {
		out[i] = models.Neighbor{MovieID: int(j) + 1, Sim: row[j]}
	}
	return out
}

// quickselect reordena idx de modo que idx[:k] contenga los k mejores.
func quickselect(row []float32, idx []int32, k int) {
	lo, hi := 0, len(idx)-1
	for lo < hi {
		p := partition(row, idx, lo, hi)
		switch {
		case p == k:
			return
		case p < k:
			lo = p + 1
		default:
			hi = p - 1
		}
	}
}

// partition (Lomuto) con pivote mediana de tres; devuelve la posición final
// del pivote. A la izquierda quedan los elementos mejores que el pivote.
func partition(row []float32, idx []int32, lo, hi int) int {
	mid := lo + (hi-lo)/2
	if better(row, idx[mid], idx[lo]) {
		idx[mid], idx[lo] = idx[lo], idx[mid]
	}
	if better(row, idx[hi], idx[lo]) {
		idx[hi], idx[lo] = idx[lo], idx[hi]
	}
	if better(row, idx[mid], idx[hi]) {
		idx[mid], idx[hi] = idx[hi], idx[mid]
	}
	pivot := idx[hi]

	store := lo
	for i := lo; i < hi; i++ {
		if better(row, idx[i], pivot) {
			idx[i], idx[store] = idx[store], idx[i]
			store++
		}
	}
	idx[store], idx[hi] = idx[hi], idx[store]
	return store
}
