package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
)

// RouterConfig dependencias del router HTTP.
type RouterConfig struct {
	JWTSecret    string
	CORSOrigins  []string
	RateLimitRPM int // 0 = sin límite
	// AdminEnabled false = las rutas /admin no se montan (404)
	AdminEnabled bool

	Recommend *RecommendHandler
	Movies    *MovieHandler
	Auth      *AuthHandler
	Admin     *AdminMaintenanceHandler
}

// NewRouter arma el router con middlewares, rutas públicas y rutas admin.
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	// =============
	// Rutas de infraestructura
	// =============
	r.Get("/health", Health)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	// =============
	// Rutas públicas (con rate limit por IP)
	// =============
	r.Group(func(r chi.Router) {
		if cfg.RateLimitRPM > 0 {
			r.Use(httprate.Limit(cfg.RateLimitRPM, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP)))
		}

		r.Get("/recommendations", cfg.Recommend.GetRecommendations)
		r.Get("/movies/suggest", cfg.Movies.Suggest)
		r.Get("/movies/{id}", cfg.Movies.GetMovie)
		r.Post("/auth/login", cfg.Auth.Login)
	})

	// ===========================
	// Rutas admin protegidas con JWT
	// ===========================
	if !cfg.AdminEnabled {
		return r
	}
	r.Group(func(r chi.Router) {
		r.Use(JWTAuth(cfg.JWTSecret))
		r.Use(AdminOnly())

		MountAdminMaintenanceRoutes(r, cfg.Admin)
	})

	return r
}
