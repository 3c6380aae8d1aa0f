package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cinerec/internal/config"
	"cinerec/internal/models"
	"cinerec/internal/store"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// ---------------------- HISTORY ----------------------

type blockingSink struct {
	started chan struct{}
	release chan struct{}
	got     chan *models.QueryLog
}

func (b *blockingSink) Insert(ctx context.Context, rec *models.QueryLog) error {
	b.started <- struct{}{}
	<-b.release
	b.got <- rec
	return nil
}

func TestHistoryRecorder_DropsWhenFull(t *testing.T) {
	sink := &blockingSink{
		started: make(chan struct{}, 4),
		release: make(chan struct{}),
		got:     make(chan *models.QueryLog, 4),
	}
	h := NewHistoryRecorder(sink, 1)

	require.True(t, h.Record(&models.QueryLog{Query: "a"}))
	<-sink.started // el loop tiene "a" y está bloqueado en Insert

	assert.True(t, h.Record(&models.QueryLog{Query: "b"}), "entra en la cola")
	assert.False(t, h.Record(&models.QueryLog{Query: "c"}), "cola llena: se descarta sin bloquear")

	close(sink.release)
	h.Close()
	assert.Len(t, sink.got, 2)
	assert.False(t, h.Record(&models.QueryLog{Query: "d"}), "cerrado")
}

type failingSink struct{}

func (failingSink) Insert(ctx context.Context, rec *models.QueryLog) error {
	return errors.New("mongo down")
}

func TestHistoryRecorder_SinkErrorsAreSwallowed(t *testing.T) {
	h := NewHistoryRecorder(failingSink{}, 0)
	assert.True(t, h.Record(&models.QueryLog{Query: "x"}))
	h.Close()
	h.Close()

	var nilRecorder *HistoryRecorder
	assert.False(t, nilRecorder.Record(&models.QueryLog{}))
	nilRecorder.Close()
}

// ---------------------- ADMIN ----------------------

type fakeHistory struct{ limit int64 }

func (f *fakeHistory) FindRecent(ctx context.Context, limit int64) ([]models.QueryLog, error) {
	f.limit = limit
	return []models.QueryLog{{Query: "x"}}, nil
}

func newAdmin(t *testing.T, history HistoryReader) (*AdminMaintenanceService, *config.Config) {
	t.Helper()
	cfg := &config.Config{
		CatalogPath: testCatalog,
		StorePath:   filepath.Join(t.TempDir(), "similarity.idx"),
		TopK:        3,
		BatchSize:   2,
		Parallelism: 2,
	}
	h := buildHandle(t, BuildOptions{K: 2})
	h.Path = "served.idx"
	return NewAdminMaintenanceService(cfg, h, NewBuildService(), history), cfg
}

func TestAdmin_RebuildWritesNewArtifact(t *testing.T) {
	svc, cfg := newAdmin(t, nil)
	ctx := context.Background()

	var progress []models.RebuildProgress
	res, err := svc.RebuildIndex(ctx, models.RebuildRequest{}, func(p models.RebuildProgress) {
		progress = append(progress, p)
	})
	require.NoError(t, err)
	assert.True(t, res.ReloadRequired)
	assert.Equal(t, cfg.StorePath, res.StorePath)
	assert.Equal(t, 3, res.K, "K por defecto de la config")
	assert.Len(t, progress, 3)
	assert.False(t, svc.Rebuilding())

	loaded, err := store.Load(cfg.StorePath)
	require.NoError(t, err)
	assert.Equal(t, 3, loaded.Storage.K)

	summary, err := svc.GetIndexSummary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.K, "se sigue sirviendo el snapshot cargado")
	assert.Equal(t, "served.idx", summary.StorePath)
	require.NotNil(t, summary.LastRebuild)
	assert.Equal(t, res.FinishedAt, summary.LastRebuild.FinishedAt)
}

func TestAdmin_RebuildDenseOverride(t *testing.T) {
	svc, cfg := newAdmin(t, nil)
	res, err := svc.RebuildIndex(context.Background(), models.RebuildRequest{Dense: true}, nil)
	require.NoError(t, err)
	assert.Equal(t, "dense", res.Kind)

	loaded, err := store.Load(cfg.StorePath)
	require.NoError(t, err)
	assert.Equal(t, store.KindDense, loaded.Storage.Kind)
}

func TestAdmin_RebuildInProgress(t *testing.T) {
	svc, _ := newAdmin(t, nil)
	svc.running.Store(true)

	_, err := svc.RebuildIndex(context.Background(), models.RebuildRequest{}, nil)
	assert.ErrorIs(t, err, ErrRebuildInProgress)
}

func TestAdmin_RecentQueries(t *testing.T) {
	svc, _ := newAdmin(t, nil)
	_, err := svc.RecentQueries(context.Background(), 10)
	assert.ErrorIs(t, err, ErrHistoryDisabled)

	hist := &fakeHistory{}
	svc, _ = newAdmin(t, hist)
	out, err := svc.RecentQueries(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, out, 1)
	assert.Equal(t, int64(50), hist.limit)
}

// ---------------------- AUTH ----------------------

func TestAuth_Login(t *testing.T) {
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)
	svc := NewAuthService("admin", hash, "jwt-secret")

	token, err := svc.Login(context.Background(), "admin", "s3cret")
	require.NoError(t, err)

	parsed, err := jwt.Parse(token, func(*jwt.Token) (interface{}, error) { return []byte("jwt-secret"), nil })
	require.NoError(t, err)
	claims := parsed.Claims.(jwt.MapClaims)
	assert.Equal(t, "admin", claims["role"])
	assert.Equal(t, "admin", claims["sub"])
	exp, err := claims.GetExpirationTime()
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), exp.Time, time.Minute)

	_, err = svc.Login(context.Background(), "admin", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(context.Background(), "root", "s3cret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuth_DisabledWithoutHash(t *testing.T) {
	svc := NewAuthService("admin", "", "jwt-secret")
	assert.False(t, svc.Enabled())
	_, err := svc.Login(context.Background(), "admin", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
