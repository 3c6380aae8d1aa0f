package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"cinerec/internal/logging"
	"cinerec/internal/models"
	"cinerec/internal/service"
)

// AdminMaintenanceHandler expone endpoints de mantenimiento del índice.
type AdminMaintenanceHandler struct {
	svc *service.AdminMaintenanceService
}

// NewAdminMaintenanceHandler crea el handler.
func NewAdminMaintenanceHandler(svc *service.AdminMaintenanceService) *AdminMaintenanceHandler {
	return &AdminMaintenanceHandler{svc: svc}
}

// upgrader global (no afecta a swagger)
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// @Summary Resumen del índice servido
// @Description Tamaño del catálogo, K, tipo de almacenamiento, versión de formato y último rebuild.
// @Tags admin-maintenance
// @Security BearerAuth
// @Produce json
// @Success 200 {object} models.IndexSummary
// @Failure 500 {string} string "error interno"
// @Router /admin/index/summary [get]
// GET /admin/index/summary
func (h *AdminMaintenanceHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.svc.GetIndexSummary(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// @Summary Reconstruir el índice
// @Description Recalcula el índice desde el catálogo y lo escribe en STORE_PATH. El proceso sigue sirviendo el snapshot cargado hasta reiniciarse.
// @Tags admin-maintenance
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param body body models.RebuildRequest false "Parámetros de reconstrucción (ceros = config)"
// @Success 200 {object} models.RebuildResult
// @Failure 400 {string} string "body inválido"
// @Failure 409 {string} string "rebuild en curso"
// @Failure 500 {string} string "error interno"
// @Router /admin/index/rebuild [post]
// POST /admin/index/rebuild
func (h *AdminMaintenanceHandler) PostRebuild(w http.ResponseWriter, r *http.Request) {
	var req models.RebuildRequest
	if err := decodeAndValidate(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	logging.Info().Str("user", UserFromContext(r.Context())).Interface("request", req).Msg("[admin] rebuild solicitado")

	res, err := h.svc.RebuildIndex(r.Context(), req, nil)
	if err != nil {
		http.Error(w, err.Error(), statusOf(err))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// @Summary Reconstruir el índice con progreso (WebSocket)
// @Description Igual que POST /admin/index/rebuild pero emite un mensaje por batch terminado.
// @Tags admin-maintenance
// @Security BearerAuth
// @Produce json
// @Param k query int false "vecinos por película"
// @Param batchSize query int false "filas por batch"
// @Param parallelism query int false "batches en paralelo"
// @Param maxFeatures query int false "tope de vocabulario"
// @Param dense query bool false "guardar la matriz completa"
// @Success 200 {object} map[string]interface{}
// @Router /admin/ws/index/rebuild [get]
// GET /admin/ws/index/rebuild
func (h *AdminMaintenanceHandler) GetRebuildWS(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := models.RebuildRequest{
		K:           queryInt(q.Get("k")),
		BatchSize:   queryInt(q.Get("batchSize")),
		Parallelism: queryInt(q.Get("parallelism")),
		MaxFeatures: queryInt(q.Get("maxFeatures")),
		Dense:       q.Get("dense") == "true",
	}
	if err := getValidator().Struct(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	logging.Info().Str("user", UserFromContext(r.Context())).Interface("request", req).Msg("[admin] rebuild (ws) solicitado")

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Warn().Err(err).Msg("[admin] no se pudo abrir WebSocket")
		return
	}
	defer conn.Close()

	// Mensaje inicial
	_ = conn.WriteJSON(map[string]any{
		"type": "start",
		"msg":  "Conexión WS abierta, iniciando rebuild…",
	})

	res, err := h.svc.RebuildIndex(r.Context(), req, func(p models.RebuildProgress) {
		_ = conn.WriteJSON(map[string]any{
			"type":    "progress",
			"batch":   p.Batch,
			"batches": p.Batches,
			"rows":    p.Rows,
		})
	})
	if err != nil {
		_ = conn.WriteJSON(map[string]any{
			"type":  "error",
			"error": err.Error(),
		})
		return
	}

	// Mensaje final con el resultado
	_ = conn.WriteJSON(map[string]any{
		"type":        "done",
		"result":      res,
		"generatedAt": time.Now(),
	})
}

// @Summary Historial de consultas
// @Description Últimas consultas de recomendación guardadas en Mongo.
// @Tags admin-maintenance
// @Security BearerAuth
// @Produce json
// @Param limit query int false "límite (default 50, máx 500)"
// @Success 200 {array} models.QueryLog
// @Failure 503 {string} string "historial deshabilitado"
// @Router /admin/history [get]
// GET /admin/history
func (h *AdminMaintenanceHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	limit := int64(queryInt(r.URL.Query().Get("limit")))

	out, err := h.svc.RecentQueries(r.Context(), limit)
	if err != nil {
		http.Error(w, err.Error(), statusOf(err))
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// queryInt parsea un query param entero; vacío o inválido = 0.
func queryInt(v string) int {
	n, _ := strconv.Atoi(v)
	return n
}

// Utilidad pequeña para respuestas JSON.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Helper para montar rutas en el router
func MountAdminMaintenanceRoutes(r chi.Router, h *AdminMaintenanceHandler) {
	r.Route("/admin", func(r chi.Router) {
		r.Get("/index/summary", h.GetSummary)
		r.Post("/index/rebuild", h.PostRebuild)
		r.Get("/ws/index/rebuild", h.GetRebuildWS)
		r.Get("/history", h.GetHistory)
	})
}
