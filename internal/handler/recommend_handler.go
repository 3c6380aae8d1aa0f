package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"cinerec/internal/service"
)

type RecommendHandler struct {
	svc *service.RecommendService
}

func NewRecommendHandler(s *service.RecommendService) *RecommendHandler {
	return &RecommendHandler{svc: s}
}

// @Summary Películas parecidas a un título
// @Description Resuelve el título (exacto, "Título (Año)" o fuzzy) y devuelve las n películas más parecidas por contenido. Si viene id se usa directo.
// @Tags recommend
// @Produce json
// @Param title query string false "título a buscar"
// @Param id query int false "id de la película (salta la resolución por título)"
// @Param n query int false "cantidad de recomendaciones (default 10, máx 100)"
// @Success 200 {array} models.Recommendation
// @Failure 400 {string} string "parámetros inválidos"
// @Failure 404 {string} string "título no encontrado"
// @Failure 500 {string} string "error interno"
// @Router /recommendations [get]
func (h *RecommendHandler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	title := strings.TrimSpace(q.Get("title"))

	n := service.DefaultCount
	if v := q.Get("n"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			http.Error(w, "n debe ser entero", http.StatusBadRequest)
			return
		}
		n = min(parsed, service.MaxCount)
	}

	var explicitID *int
	if v := q.Get("id"); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			http.Error(w, "id debe ser entero", http.StatusBadRequest)
			return
		}
		explicitID = &id
	}
	if title == "" && explicitID == nil {
		http.Error(w, "falta title o id", http.StatusBadRequest)
		return
	}

	items, err := h.svc.ResolveAndRecommend(r.Context(), title, n, explicitID)
	if err != nil {
		http.Error(w, err.Error(), statusOf(err))
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// statusOf traduce los errores del servicio a códigos HTTP.
func statusOf(err error) int {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidCount):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrRebuildInProgress):
		return http.StatusConflict
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrHistoryDisabled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
