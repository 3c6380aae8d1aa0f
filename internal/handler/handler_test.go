package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swaggo/swag"

	_ "cinerec/docs"
	"cinerec/internal/config"
	"cinerec/internal/models"
	"cinerec/internal/service"
)

const (
	testCatalog = "../service/testdata/movies.csv"
	testSecret  = "jwt-secret"
)

type fixture struct {
	router chi.Router
	cfg    *config.Config
	auth   *service.AuthService
}

func newFixture(t *testing.T, rpm int) *fixture {
	t.Helper()
	builder := service.NewBuildService()
	h, _, err := builder.Build(context.Background(), service.BuildOptions{CatalogPath: testCatalog, K: 3})
	require.NoError(t, err)

	cfg := &config.Config{
		CatalogPath: testCatalog,
		StorePath:   filepath.Join(t.TempDir(), "similarity.idx"),
		TopK:        2,
		BatchSize:   2,
		Parallelism: 2,
	}
	hash, err := service.HashPassword("s3cret")
	require.NoError(t, err)

	recSvc := service.NewRecommendService(h, nil, nil)
	authSvc := service.NewAuthService("admin", hash, testSecret)
	adminSvc := service.NewAdminMaintenanceService(cfg, h, builder, nil)

	r := NewRouter(RouterConfig{
		JWTSecret:    testSecret,
		CORSOrigins:  []string{"*"},
		RateLimitRPM: rpm,
		AdminEnabled: authSvc.Enabled(),
		Recommend:    NewRecommendHandler(recSvc),
		Movies:       NewMovieHandler(recSvc),
		Auth:         NewAuthHandler(authSvc),
		Admin:        NewAdminMaintenanceHandler(adminSvc),
	})
	return &fixture{router: r, cfg: cfg, auth: authSvc}
}

func (f *fixture) do(t *testing.T, method, target, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) adminToken(t *testing.T) string {
	t.Helper()
	token, err := f.auth.Login(context.Background(), "admin", "s3cret")
	require.NoError(t, err)
	return token
}

func signed(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return s
}

// ---------------------- PUBLIC ----------------------

// docs/docs.go sale de `go generate ./cmd/api`; si una ruta cambia sin
// regenerar, este test falla.
func TestSwaggerDocsMatchRoutes(t *testing.T) {
	f := newFixture(t, 0)

	var routes []string
	err := chi.Walk(f.router, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		if route == "/metrics" || strings.HasPrefix(route, "/swagger/") {
			return nil
		}
		routes = append(routes, method+" "+route)
		return nil
	})
	require.NoError(t, err)

	raw, err := swag.ReadDoc()
	require.NoError(t, err)
	var doc struct {
		Paths map[string]map[string]json.RawMessage `json:"paths"`
	}
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))

	var documented []string
	for path, ops := range doc.Paths {
		for method := range ops {
			documented = append(documented, strings.ToUpper(method)+" "+path)
		}
	}
	assert.ElementsMatch(t, routes, documented)
}

func TestHealth(t *testing.T) {
	f := newFixture(t, 0)
	rec := f.do(t, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestGetRecommendations(t *testing.T) {
	f := newFixture(t, 0)

	rec := f.do(t, http.MethodGet, "/recommendations?title=Interstelar&n=2", "", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var items []models.Recommendation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
	require.Len(t, items, 2)
	for _, it := range items {
		assert.NotEqual(t, 3, it.MovieID, "nunca se recomienda a sí misma")
	}
	assert.GreaterOrEqual(t, items[0].Score, items[1].Score)
}

func TestGetRecommendations_ByID(t *testing.T) {
	f := newFixture(t, 0)
	rec := f.do(t, http.MethodGet, "/recommendations?id=4", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var items []models.Recommendation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
	assert.Len(t, items, 3, "K=3: default 10 se recorta a lo guardado")
}

func TestGetRecommendations_Errors(t *testing.T) {
	f := newFixture(t, 0)

	cases := []struct {
		target string
		code   int
	}{
		{"/recommendations?title=zzzz", http.StatusNotFound},
		{"/recommendations?id=99", http.StatusNotFound},
		{"/recommendations?title=Amelie&n=abc", http.StatusBadRequest},
		{"/recommendations?title=Amelie&n=0", http.StatusBadRequest},
		{"/recommendations?id=x", http.StatusBadRequest},
		{"/recommendations", http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.target, func(t *testing.T) {
			rec := f.do(t, http.MethodGet, tc.target, "", "")
			assert.Equal(t, tc.code, rec.Code, rec.Body.String())
		})
	}
}

func TestSuggest(t *testing.T) {
	f := newFixture(t, 0)
	rec := f.do(t, http.MethodGet, "/movies/suggest?q=in", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var out []models.Suggestion
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.NotEmpty(t, out)
	assert.Equal(t, "Inception", out[0].Title)

	rec = f.do(t, http.MethodGet, "/movies/suggest?q=", "", "")
	assert.Equal(t, "[]\n", rec.Body.String())
}

func TestGetMovie(t *testing.T) {
	f := newFixture(t, 0)

	rec := f.do(t, http.MethodGet, "/movies/4", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var m models.CatalogItem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	assert.Equal(t, "The Dark Knight", m.Title)

	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/movies/42", "", "").Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/movies/abc", "", "").Code)
}

func TestRateLimit(t *testing.T) {
	f := newFixture(t, 2)
	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/movies/1", "", "").Code)
	}
	assert.Equal(t, http.StatusTooManyRequests, f.do(t, http.MethodGet, "/movies/1", "", "").Code)
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/health", "", "").Code, "health no tiene límite")
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t, 0)
	f.do(t, http.MethodGet, "/recommendations?title=Amelie", "", "")

	rec := f.do(t, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "cinerec_queries_total")
}

// ---------------------- AUTH ----------------------

func TestLogin(t *testing.T) {
	f := newFixture(t, 0)

	rec := f.do(t, http.MethodPost, "/auth/login", `{"username":"admin","password":"s3cret"}`, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body["token"])

	rec = f.do(t, http.MethodPost, "/auth/login", `{"username":"admin","password":"nope"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(t, http.MethodPost, "/auth/login", `{"username":"admin"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "password es obligatorio")

	rec = f.do(t, http.MethodPost, "/auth/login", `{not json`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminRoutes_RequireAdminToken(t *testing.T) {
	f := newFixture(t, 0)

	assert.Equal(t, http.StatusUnauthorized, f.do(t, http.MethodGet, "/admin/index/summary", "", "").Code)
	assert.Equal(t, http.StatusUnauthorized, f.do(t, http.MethodGet, "/admin/index/summary", "", "garbage").Code)

	viewer := signed(t, jwt.MapClaims{"sub": "bob", "role": "viewer", "exp": time.Now().Add(time.Hour).Unix()})
	assert.Equal(t, http.StatusForbidden, f.do(t, http.MethodGet, "/admin/index/summary", "", viewer).Code)

	expired := signed(t, jwt.MapClaims{"sub": "admin", "role": "admin", "exp": time.Now().Add(-time.Hour).Unix()})
	assert.Equal(t, http.StatusUnauthorized, f.do(t, http.MethodGet, "/admin/index/summary", "", expired).Code)

	noSub := signed(t, jwt.MapClaims{"role": "admin", "exp": time.Now().Add(time.Hour).Unix()})
	assert.Equal(t, http.StatusUnauthorized, f.do(t, http.MethodGet, "/admin/index/summary", "", noSub).Code)
}

func TestAdminRoutes_NotMountedWithoutPassword(t *testing.T) {
	h, _, err := service.NewBuildService().Build(context.Background(), service.BuildOptions{CatalogPath: testCatalog, K: 2})
	require.NoError(t, err)
	cfg := &config.Config{CatalogPath: testCatalog, StorePath: filepath.Join(t.TempDir(), "similarity.idx"), TopK: 2}

	recSvc := service.NewRecommendService(h, nil, nil)
	authSvc := service.NewAuthService("admin", "", config.DefaultJWTSecret)
	r := NewRouter(RouterConfig{
		JWTSecret:    config.DefaultJWTSecret,
		CORSOrigins:  []string{"*"},
		AdminEnabled: authSvc.Enabled(),
		Recommend:    NewRecommendHandler(recSvc),
		Movies:       NewMovieHandler(recSvc),
		Auth:         NewAuthHandler(authSvc),
		Admin:        NewAdminMaintenanceHandler(service.NewAdminMaintenanceService(cfg, h, service.NewBuildService(), nil)),
	})

	// firmado con el secreto por defecto, que es público
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "x", "role": "admin", "exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(config.DefaultJWTSecret))
	require.NoError(t, err)

	for _, tc := range []struct{ method, target string }{
		{http.MethodGet, "/admin/index/summary"},
		{http.MethodPost, "/admin/index/rebuild"},
		{http.MethodGet, "/admin/ws/index/rebuild"},
		{http.MethodGet, "/admin/history"},
	} {
		req := httptest.NewRequest(tc.method, tc.target, nil)
		req.Header.Set("Authorization", "Bearer "+forged)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code, tc.target)
	}
	_, err = os.Stat(cfg.StorePath)
	assert.True(t, os.IsNotExist(err), "no se escribió ningún artefacto")

	req := httptest.NewRequest(http.MethodGet, "/movies/1", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code, "las rutas públicas siguen montadas")
}

// ---------------------- ADMIN ----------------------

func TestAdminSummary(t *testing.T) {
	f := newFixture(t, 0)
	rec := f.do(t, http.MethodGet, "/admin/index/summary", "", f.adminToken(t))
	require.Equal(t, http.StatusOK, rec.Code)

	var s models.IndexSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &s))
	assert.Equal(t, 5, s.Items)
	assert.Equal(t, 3, s.K)
	assert.Equal(t, "topk", s.Kind)
}

func TestAdminRebuild(t *testing.T) {
	f := newFixture(t, 0)
	token := f.adminToken(t)

	rec := f.do(t, http.MethodPost, "/admin/index/rebuild", "", token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res models.RebuildResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, 2, res.K)
	assert.True(t, res.ReloadRequired)
	assert.Equal(t, f.cfg.StorePath, res.StorePath)

	rec = f.do(t, http.MethodPost, "/admin/index/rebuild", `{"k":-1}`, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "k debe ser >= 0")
}

func TestAdminHistory_Disabled(t *testing.T) {
	f := newFixture(t, 0)
	rec := f.do(t, http.MethodGet, "/admin/history", "", f.adminToken(t))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAdminRebuildWS(t *testing.T) {
	f := newFixture(t, 0)
	srv := httptest.NewServer(f.router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/admin/ws/index/rebuild?k=2&batchSize=2"
	header := http.Header{"Authorization": {"Bearer " + f.adminToken(t)}}
	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	defer resp.Body.Close()
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(10*time.Second)))

	var types []string
	var last map[string]any
	for {
		var msg map[string]any
		require.NoError(t, conn.ReadJSON(&msg))
		typ, _ := msg["type"].(string)
		types = append(types, typ)
		if typ == "done" || typ == "error" {
			last = msg
			break
		}
	}

	assert.Equal(t, []string{"start", "progress", "progress", "progress", "done"}, types)
	result, ok := last["result"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(5), result["items"])
	assert.Equal(t, float64(3), result["batches"])
}
