package cluster

import (
	"context"
	"net"
	"testing"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cinerec/internal/simindex"
	"cinerec/internal/vectorspace"
)

var corpus = []string{
	"action space war laser",
	"action space peace treaty",
	"romance paris love",
	"romance love letters",
	"drama family war",
	"documentary ocean life",
	"space ocean exploration",
}

func fit(t *testing.T, docs []string) (*vectorspace.Model, []vectorspace.Vector) {
	t.Helper()
	m, vecs, err := vectorspace.FitTransform(docs, vectorspace.Options{})
	require.NoError(t, err)
	return m, vecs
}

// startNode levanta un nodo en loopback y devuelve su dirección.
func startNode(t *testing.T, id string, docs []string) string {
	t.Helper()
	m, vecs := fit(t, docs)
	srv := NewServer(id, m, vecs)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = srv.Serve(ctx, ln)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return ln.Addr().String()
}

func TestRunner_MatchesLocalBuild(t *testing.T) {
	model, vecs := fit(t, corpus)
	nodes := []string{startNode(t, "a", corpus), startNode(t, "b", corpus)}

	cfg := simindex.Config{K: 3, BatchSize: 2, Parallelism: 2}
	remote, err := simindex.Build(context.Background(), len(corpus), NewRunner(nodes, model.Fingerprint()), cfg)
	require.NoError(t, err)
	local, err := simindex.BuildLocal(context.Background(), vecs, cfg)
	require.NoError(t, err)

	assert.Equal(t, local.Entries, remote.Entries)
	assert.Equal(t, 4, remote.Batches)
}

func TestRunner_FailsOverToNextNode(t *testing.T) {
	model, _ := fit(t, corpus)

	// puerto cerrado: se reserva y se libera enseguida
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	dead := ln.Addr().String()
	require.NoError(t, ln.Close())

	nodes := []string{dead, startNode(t, "ok", corpus)}
	r := NewRunner(nodes, model.Fingerprint())

	entries, err := r.RunBatch(context.Background(), simindex.Batch{Index: 0, From: 0, To: 3}, 2)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, 1, entries[0].MovieID)
	assert.Len(t, entries[0].Neighbors, 2)
}

func TestRunner_FingerprintMismatch(t *testing.T) {
	model, _ := fit(t, corpus)
	node := startNode(t, "other", corpus[:4])
	r := NewRunner([]string{node}, model.Fingerprint())

	_, err := r.RunBatch(context.Background(), simindex.Batch{Index: 0, From: 0, To: 2}, 2)
	assert.ErrorIs(t, err, ErrNoNodes)
	assert.Contains(t, err.Error(), "fingerprint mismatch")

	_, err = r.Check(context.Background())
	assert.ErrorIs(t, err, ErrFingerprintMismatch)
}

func TestRunner_Check(t *testing.T) {
	model, _ := fit(t, corpus)
	nodes := []string{startNode(t, "a", corpus), startNode(t, "b", corpus)}

	status, err := NewRunner(nodes, model.Fingerprint()).Check(context.Background())
	require.NoError(t, err)
	require.Len(t, status, 2)
	assert.Equal(t, "a", status[0].NodeID)
	assert.Equal(t, len(corpus), status[1].Items)
}

func TestRunner_NoNodes(t *testing.T) {
	_, err := NewRunner(nil, "x").RunBatch(context.Background(), simindex.Batch{To: 1}, 1)
	assert.ErrorIs(t, err, ErrNoNodes)
}

func TestServer_UnknownOp(t *testing.T) {
	addr := startNode(t, "a", corpus)
	resp, err := SendTask(context.Background(), addr, &Task{Op: "explode"})
	require.NoError(t, err)
	assert.Contains(t, resp.Error, "unknown op")
}

func TestRunner_BreakerSkipsDeadNode(t *testing.T) {
	model, _ := fit(t, corpus)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	dead := ln.Addr().String()
	require.NoError(t, ln.Close())

	r := NewRunner([]string{dead, startNode(t, "ok", corpus)}, model.Fingerprint())
	for i := 0; i < breakerTrips; i++ {
		_, err := r.RunBatch(context.Background(), simindex.Batch{Index: 0, From: 0, To: 2}, 2)
		require.NoError(t, err)
	}
	assert.Equal(t, gobreaker.StateOpen, r.breakers[dead].State())

	// con el breaker abierto el batch sigue saliendo por el nodo sano
	entries, err := r.RunBatch(context.Background(), simindex.Batch{Index: 0, From: 2, To: 4}, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, entries[0].MovieID)
}
