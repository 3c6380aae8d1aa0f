package service

import (
	"math"
	"strings"
)

// FormatDate pasa "YYYY-MM-DD" a "DD-MM-YYYY". Cualquier cosa que no tenga
// exactamente dos guiones se devuelve tal cual.
func FormatDate(date string) string {
	parts := strings.Split(date, "-")
	if len(parts) != 3 {
		return date
	}
	return parts[2] + "-" + parts[1] + "-" + parts[0]
}

// RoundRating redondea a 2 decimales para mostrar.
func RoundRating(r float64) float64 {
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0
	}
	return math.Round(r*100) / 100
}
