package service

import (
	"context"
	"sync"
	"time"

	"cinerec/internal/logging"
	"cinerec/internal/metrics"
	"cinerec/internal/models"

	"github.com/rs/zerolog"
)

const DefaultHistoryQueue = 256

// HistorySink destino del historial (colección "recommendations").
type HistorySink interface {
	Insert(ctx context.Context, rec *models.QueryLog) error
}

// HistoryRecorder guarda el historial de consultas en segundo plano. Record
// nunca bloquea: con la cola llena el registro se descarta.
type HistoryRecorder struct {
	sink    HistorySink
	ch      chan *models.QueryLog
	timeout time.Duration
	log     zerolog.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func NewHistoryRecorder(sink HistorySink, queue int) *HistoryRecorder {
	if queue <= 0 {
		queue = DefaultHistoryQueue
	}
	h := &HistoryRecorder{
		sink:    sink,
		ch:      make(chan *models.QueryLog, queue),
		timeout: 5 * time.Second,
		log:     logging.With().Str("component", "history").Logger(),
	}
	h.wg.Add(1)
	go h.loop()
	return h
}

func (h *HistoryRecorder) loop() {
	defer h.wg.Done()
	for rec := range h.ch {
		ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
		if err := h.sink.Insert(ctx, rec); err != nil {
			h.log.Warn().Err(err).Str("query", rec.Query).Msg("error guardando historial")
		}
		cancel()
	}
}

// Record encola rec. Devuelve false si se descartó.
func (h *HistoryRecorder) Record(rec *models.QueryLog) bool {
	if h == nil {
		return false
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return false
	}
	select {
	case h.ch <- rec:
		return true
	default:
		metrics.RecordHistoryDrop()
		return false
	}
}

// Close deja de aceptar registros y espera a que se escriba lo encolado.
func (h *HistoryRecorder) Close() {
	if h == nil {
		return
	}
	h.mu.Lock()
	if !h.closed {
		h.closed = true
		close(h.ch)
	}
	h.mu.Unlock()
	h.wg.Wait()
}
