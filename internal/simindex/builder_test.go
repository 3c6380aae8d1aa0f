package simindex

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync/atomic"
	"testing"
	"testing/quick"

	"cinerec/internal/models"
	"cinerec/internal/vectorspace"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var corpus = []string{
	"action thriller heist crew",
	"action thriller spy mission",
	"romance drama paris love",
	"romance comedy love wedding",
	"animation family adventure",
	"animation family comedy",
	"documentary nature ocean",
	"",
	"action adventure space",
	"space drama astronaut",
}

func vectors(t *testing.T, docs []string) []vectorspace.Vector {
	t.Helper()
	_, vecs, err := vectorspace.FitTransform(docs, vectorspace.Options{})
	require.NoError(t, err)
	return vecs
}

func checkEntries(t *testing.T, entries []models.SimilarityEntry, k int) {
	t.Helper()
	for i, e := range entries {
		assert.Equal(t, i+1, e.MovieID)
		assert.LessOrEqual(t, len(e.Neighbors), k)

		seen := map[int]bool{}
		for j, nb := range e.Neighbors {
			assert.NotEqual(t, e.MovieID, nb.MovieID, "self excluido")
			assert.False(t, seen[nb.MovieID], "vecino duplicado")
			seen[nb.MovieID] = true
			assert.GreaterOrEqual(t, nb.Sim, float32(0))
			assert.LessOrEqual(t, nb.Sim, float32(1))
			if j > 0 {
				prev := e.Neighbors[j-1]
				ok := prev.Sim > nb.Sim || (prev.Sim == nb.Sim && prev.MovieID < nb.MovieID)
				assert.True(t, ok, "entrada %d no ordenada en %d", e.MovieID, j)
			}
		}
	}
}

func TestBuildLocal_Invariants(t *testing.T) {
	vecs := vectors(t, corpus)

	for _, bs := range []int{1, 3, 100} {
		t.Run(fmt.Sprintf("batch=%d", bs), func(t *testing.T) {
			res, err := BuildLocal(context.Background(), vecs, Config{K: 4, BatchSize: bs, Parallelism: 3})
			require.NoError(t, err)
			require.Len(t, res.Entries, len(corpus))
			assert.Equal(t, 4, res.K)
			checkEntries(t, res.Entries, 4)
			for _, e := range res.Entries {
				assert.Len(t, e.Neighbors, 4)
			}
		})
	}
}

func TestBuildLocal_BatchingDoesNotChangeResult(t *testing.T) {
	vecs := vectors(t, corpus)
	a, err := BuildLocal(context.Background(), vecs, Config{K: 5, BatchSize: 1, Parallelism: 1})
	require.NoError(t, err)
	b, err := BuildLocal(context.Background(), vecs, Config{K: 5, BatchSize: 7, Parallelism: 8})
	require.NoError(t, err)
	assert.Equal(t, a.Entries, b.Entries)
}

func TestBuildLocal_MatchesBruteForce(t *testing.T) {
	vecs := vectors(t, corpus)
	res, err := BuildLocal(context.Background(), vecs, Config{K: 3, BatchSize: 4})
	require.NoError(t, err)

	for i := range vecs {
		type cand struct {
			id  int
			sim float32
		}
		var all []cand
		for j := range vecs {
			if j != i {
				all = append(all, cand{j + 1, float32(vectorspace.Cosine(vecs[i], vecs[j]))})
			}
		}
		sort.Slice(all, func(a, b int) bool {
			if all[a].sim != all[b].sim {
				return all[a].sim > all[b].sim
			}
			return all[a].id < all[b].id
		})
		for j, nb := range res.Entries[i].Neighbors {
			assert.Equal(t, all[j].id, nb.MovieID, "item %d pos %d", i+1, j)
			assert.InDelta(t, all[j].sim, nb.Sim, 1e-6)
		}
	}
}

func TestFullCosineIsSymmetric(t *testing.T) {
	vecs := vectors(t, corpus)
	dense, err := BuildDense(context.Background(), vecs, 3)
	require.NoError(t, err)

	n := len(vecs)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			assert.InDelta(t, dense[i*n+j], dense[j*n+i], 1e-6)
		}
	}
	assert.InDelta(t, 1.0, dense[0], 1e-6, "self-similarity de un vector no nulo")
	assert.Equal(t, float32(0), dense[7*n+7], "vector cero -> 0")
}

func TestTopKCanBeAsymmetric(t *testing.T) {
	// 3 solo comparte "gamma" con 2, pero 2 se parece más a 1.
	docs := []string{
		"alpha beta",
		"alpha beta gamma",
		"gamma",
	}
	res, err := BuildLocal(context.Background(), vectors(t, docs), Config{K: 1})
	require.NoError(t, err)

	top := func(id int) int { return res.Entries[id-1].Neighbors[0].MovieID }
	assert.Equal(t, 2, top(1))
	assert.Equal(t, 1, top(2))
	assert.Equal(t, 2, top(3))
	assert.NotEqual(t, 3, top(top(3)), "el top-K guardado no tiene por qué ser simétrico")
}

func TestThreeItemScenario(t *testing.T) {
	docs := []string{"horror ghost house", "comedy family vacation", "western cowboy desert"}
	res, err := BuildLocal(context.Background(), vectors(t, docs), Config{K: 2})
	require.NoError(t, err)
	for _, e := range res.Entries {
		assert.Len(t, e.Neighbors, 2)
	}
	// todo a 0: desempate por id asc
	assert.Equal(t, 2, res.Entries[0].Neighbors[0].MovieID)
	assert.Equal(t, 1, res.Entries[2].Neighbors[0].MovieID)
}

func TestBuild_KPolicy(t *testing.T) {
	vecs := vectors(t, corpus)

	_, err := BuildLocal(context.Background(), vecs, Config{K: 0})
	assert.ErrorIs(t, err, ErrIndexBuild)

	_, err = BuildLocal(context.Background(), vecs, Config{K: 3, BatchSize: -1})
	assert.ErrorIs(t, err, ErrIndexBuild)

	res, err := BuildLocal(context.Background(), vecs, Config{K: 500})
	require.NoError(t, err)
	assert.Equal(t, len(corpus)-1, res.K)
	for _, e := range res.Entries {
		assert.Len(t, e.Neighbors, len(corpus)-1)
	}
}

func TestBuild_Progress(t *testing.T) {
	var calls []models.RebuildProgress
	_, err := BuildLocal(context.Background(), vectors(t, corpus), Config{
		K:           2,
		BatchSize:   3,
		Parallelism: 2,
		Progress:    func(p models.RebuildProgress) { calls = append(calls, p) },
	})
	require.NoError(t, err)
	require.Len(t, calls, 4)
	assert.Equal(t, 4, calls[3].Batch)
	assert.Equal(t, 4, calls[3].Batches)
}

type failingRunner struct {
	inner *LocalRunner
	calls atomic.Int32
}

func (f *failingRunner) RunBatch(ctx context.Context, b Batch, k int) ([]models.SimilarityEntry, error) {
	f.calls.Add(1)
	if b.Index == 1 {
		return nil, errors.New("node down")
	}
	return f.inner.RunBatch(ctx, b, k)
}

func TestBuild_RunnerErrorAborts(t *testing.T) {
	vecs := vectors(t, corpus)
	r := &failingRunner{inner: NewLocalRunner(vecs)}
	_, err := Build(context.Background(), len(vecs), r, Config{K: 2, BatchSize: 2, Parallelism: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "node down")
}

func TestBuild_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := BuildLocal(ctx, vectors(t, corpus), Config{K: 2})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTopK_RandomRowsAgainstSort(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	for iter := 0; iter < 200; iter++ {
		n := 1 + rnd.Intn(60)
		row := make([]float32, n)
		for i := range row {
			// pocos valores distintos para forzar empates
			row[i] = float32(rnd.Intn(5)) / 4
		}
		self := rnd.Intn(n)
		k := 1 + rnd.Intn(n)

		got := TopK(row, self, k, nil)

		var want []int
		for j := 0; j < n; j++ {
			if j != self {
				want = append(want, j)
			}
		}
		sort.Slice(want, func(a, b int) bool { return better(row, int32(want[a]), int32(want[b])) })
		if k > len(want) {
			k = len(want)
		}
		require.Len(t, got, k)
		for i := 0; i < k; i++ {
			assert.Equal(t, want[i]+1, got[i].MovieID)
		}
	}
}

func TestPartition(t *testing.T) {
	bs := Partition(10, 4)
	require.Len(t, bs, 3)
	assert.Equal(t, Batch{Index: 2, From: 8, To: 10}, bs[2])
	assert.Empty(t, Partition(0, 4))
}

func TestTopK_Properties(t *testing.T) {
	prop := func(raw []uint8, selfSeed, kSeed uint8) bool {
		if len(raw) == 0 {
			return true
		}
		row := make([]float32, len(raw))
		for i, v := range raw {
			row[i] = float32(v%8) / 7
		}
		self := int(selfSeed) % len(row)
		k := 1 + int(kSeed)%len(row)

		got := TopK(row, self, k, nil)
		if len(got) != min(k, len(row)-1) {
			return false
		}
		for i, nb := range got {
			if nb.MovieID == self+1 {
				return false
			}
			if i > 0 && !better(row, int32(got[i-1].MovieID-1), int32(nb.MovieID-1)) {
				return false
			}
		}
		return true
	}
	require.NoError(t, quick.Check(prop, &quick.Config{MaxCount: 300}))
}
