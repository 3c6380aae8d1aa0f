package cluster

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"cinerec/internal/logging"
	"cinerec/internal/simindex"
	"cinerec/internal/vectorspace"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

// Server es un nodo de similitud: tiene el modelo ajustado en memoria y
// calcula los batches que le pide el coordinador.
type Server struct {
	nodeID      string
	fingerprint string
	scorer      *simindex.Scorer
	log         zerolog.Logger
}

func NewServer(nodeID string, model *vectorspace.Model, vectors []vectorspace.Vector) *Server {
	return &Server{
		nodeID:      nodeID,
		fingerprint: model.Fingerprint(),
		scorer:      simindex.NewScorer(vectors),
		log:         logging.With().Str("component", "simnode").Str("node", nodeID).Logger(),
	}
}

func (s *Server) Fingerprint() string { return s.fingerprint }

// Serve atiende conexiones hasta que se cancele ctx.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return err
			}
			s.log.Warn().Err(err).Msg("accept error")
			continue
		}
		go s.handleConn(ctx, conn)
	}
}

func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	dec := json.NewDecoder(bufio.NewReader(conn))
	var task Task
	if err := dec.Decode(&task); err != nil {
		s.log.Warn().Err(err).Msg("decode task error")
		return
	}

	start := time.Now()
	resp := s.handle(ctx, &task)
	if resp.Error != "" {
		s.log.Warn().Str("op", task.Op).Int("batch", task.Index).Str("error", resp.Error).Msg("tarea rechazada")
	} else if task.Op == OpBatch {
		s.log.Info().
			Int("batch", task.Index).
			Int("from", task.From).
			Int("to", task.To).
			Dur("elapsed", time.Since(start)).
			Msg("batch completado")
	}

	if err := json.NewEncoder(conn).Encode(resp); err != nil {
		s.log.Warn().Err(err).Msg("encode resp error")
	}
}

func (s *Server) handle(ctx context.Context, task *Task) *Response {
	resp := &Response{
		NodeID:      s.nodeID,
		Fingerprint: s.fingerprint,
		Items:       s.scorer.Len(),
		Index:       task.Index,
	}

	switch task.Op {
	case OpPing:
		return resp
	case OpBatch:
	default:
		resp.Error = fmt.Sprintf("unknown op %q", task.Op)
		return resp
	}

	if task.Fingerprint != s.fingerprint {
		resp.Error = fmt.Sprintf("fingerprint mismatch: node %s, task %s", s.fingerprint, task.Fingerprint)
		return resp
	}
	entries, err := simindex.ComputeBatch(ctx, s.scorer, simindex.Batch{Index: task.Index, From: task.From, To: task.To}, task.K)
	if err != nil {
		resp.Error = err.Error()
		return resp
	}
	resp.Entries = entries
	return resp
}
