package cluster

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cinerec/internal/logging"
	"cinerec/internal/models"
	"cinerec/internal/simindex"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/sync/errgroup"
)

var (
	ErrNoNodes             = errors.New("cluster: no similarity nodes available")
	ErrFingerprintMismatch = errors.New("cluster: node model differs from coordinator")
)

const (
	DefaultTaskTimeout = 2 * time.Minute

	// un nodo con breakerTrips fallos seguidos se saltea durante breakerCooldown
	breakerTrips    = 3
	breakerCooldown = 30 * time.Second
)

type nodeBreaker = gobreaker.CircuitBreaker[[]models.SimilarityEntry]

// Runner reparte los batches del build entre nodos remotos (round-robin por
// índice de batch). Si un nodo falla se prueba con el siguiente.
type Runner struct {
	nodes       []string
	fingerprint string
	timeout     time.Duration
	breakers    map[string]*nodeBreaker
	log         zerolog.Logger
}

var _ simindex.Runner = (*Runner)(nil)

func NewRunner(nodes []string, fingerprint string) *Runner {
	r := &Runner{
		nodes:       nodes,
		fingerprint: fingerprint,
		timeout:     DefaultTaskTimeout,
		breakers:    make(map[string]*nodeBreaker, len(nodes)),
		log:         logging.With().Str("component", "cluster").Logger(),
	}
	for _, node := range nodes {
		if _, ok := r.breakers[node]; ok {
			continue
		}
		r.breakers[node] = gobreaker.NewCircuitBreaker[[]models.SimilarityEntry](gobreaker.Settings{
			Name:        node,
			MaxRequests: 1,
			Timeout:     breakerCooldown,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= breakerTrips
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				r.log.Warn().Str("node", name).Str("from", from.String()).Str("to", to.String()).Msg("cambio de estado del nodo")
			},
		})
	}
	return r
}

func (r *Runner) RunBatch(ctx context.Context, b simindex.Batch, k int) ([]models.SimilarityEntry, error) {
	if len(r.nodes) == 0 {
		return nil, ErrNoNodes
	}

	task := &Task{
		Op:          OpBatch,
		Fingerprint: r.fingerprint,
		Index:       b.Index,
		From:        b.From,
		To:          b.To,
		K:           k,
	}

	var lastErr error
	first := b.Index % len(r.nodes)
	for attempt := 0; attempt < len(r.nodes); attempt++ {
		node := r.nodes[(first+attempt)%len(r.nodes)]

		entries, err := r.breakers[node].Execute(func() ([]models.SimilarityEntry, error) {
			return r.send(ctx, node, task)
		})
		if err == nil {
			return entries, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err
		r.log.Warn().Err(err).Str("node", node).Int("batch", b.Index).Msg("nodo falló, probando el siguiente")
	}
	return nil, fmt.Errorf("%w: batch %d: %w", ErrNoNodes, b.Index, lastErr)
}

func (r *Runner) send(ctx context.Context, node string, task *Task) ([]models.SimilarityEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	resp, err := SendTask(ctx, node, task)
	if err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("node %s: %s", node, resp.Error)
	}
	if len(resp.Entries) != task.To-task.From {
		return nil, fmt.Errorf("node %s: %d entries for rows [%d,%d)", node, len(resp.Entries), task.From, task.To)
	}
	return resp.Entries, nil
}

// NodeStatus resultado del ping a un nodo.
type NodeStatus struct {
	Addr        string `json:"addr"`
	NodeID      string `json:"nodeId"`
	Items       int    `json:"items"`
	Fingerprint string `json:"fingerprint"`
}

// Check hace ping a todos los nodos en paralelo y verifica que tengan el mismo
// modelo que el coordinador. Falla si algún nodo no responde o difiere.
func (r *Runner) Check(ctx context.Context) ([]NodeStatus, error) {
	if len(r.nodes) == 0 {
		return nil, ErrNoNodes
	}

	out := make([]NodeStatus, len(r.nodes))
	g, ctx := errgroup.WithContext(ctx)
	for i, node := range r.nodes {
		i, node := i, node
		g.Go(func() error {
			pctx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()

			resp, err := SendTask(pctx, node, &Task{Op: OpPing})
			if err != nil {
				return fmt.Errorf("ping %s: %w", node, err)
			}
			if resp.Fingerprint != r.fingerprint {
				return fmt.Errorf("%w: %s has %s, want %s", ErrFingerprintMismatch, node, resp.Fingerprint, r.fingerprint)
			}
			out[i] = NodeStatus{Addr: node, NodeID: resp.NodeID, Items: resp.Items, Fingerprint: resp.Fingerprint}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
