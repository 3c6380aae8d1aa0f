package cluster

import "cinerec/internal/models"

const (
	OpPing  = "ping"
	OpBatch = "batch"
)

// Task es lo que el coordinador (indexer / API admin) manda a un nodo de
// similitud. Fingerprint debe coincidir con el modelo del nodo: ambos ajustan
// el mismo catálogo por su cuenta.
type Task struct {
	Op          string `json:"op"`
	Fingerprint string `json:"fingerprint"`
	Index       int    `json:"index"`
	From        int    `json:"from"` // filas [From, To), 0-based
	To          int    `json:"to"`
	K           int    `json:"k"`
}

// Response de un nodo. Error no vacío = el nodo rechazó o falló la tarea.
type Response struct {
	NodeID      string                   `json:"nodeId"`
	Fingerprint string                   `json:"fingerprint"`
	Items       int                      `json:"items"`
	Index       int                      `json:"index"`
	Entries     []models.SimilarityEntry `json:"entries,omitempty"`
	Error       string                   `json:"error,omitempty"`
}
