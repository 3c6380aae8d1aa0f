package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"cinerec/internal/service"
)

type MovieHandler struct {
	svc *service.RecommendService
}

func NewMovieHandler(s *service.RecommendService) *MovieHandler { return &MovieHandler{svc: s} }

// @Summary Get movie
// @Tags movies
// @Produce json
// @Param id path int true "movieId"
// @Success 200 {object} models.CatalogItem
// @Failure 404 {string} string "no existe"
// @Router /movies/{id} [get]
func (h *MovieHandler) GetMovie(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "id debe ser entero", http.StatusBadRequest)
		return
	}
	m, err := h.svc.Movie(r.Context(), id)
	if err != nil {
		http.Error(w, err.Error(), statusOf(err))
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// @Summary Autocompletado de títulos
// @Description Títulos que empiezan con q, después los que lo contienen; si no hay ninguno, los más parecidos.
// @Tags movies
// @Produce json
// @Param q query string true "texto escrito por el usuario"
// @Param limit query int false "límite (default 10, máx 50)"
// @Success 200 {array} models.Suggestion
// @Router /movies/suggest [get]
func (h *MovieHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	out := h.svc.Suggest(r.Context(), r.URL.Query().Get("q"), limit)
	writeJSON(w, http.StatusOK, out)
}
