package http

import (
	"context"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"users/internal/observability/middleware"
	"users/internal/service"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	HeaderAccessToken  = "accesstoken"
	HeaderRefreshToken = "refreshtoken"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	Users       service.UserService
	Guard       service.Guard
	DB          Pinger
	CORSOrigins []string
	TrustProxy  bool
}

func NewRouter(d Deps) http.Handler {
	h := &handler{users: d.Users, guard: d.Guard, trustProxy: d.TrustProxy}

	origins := originsOrAny(d.CORSOrigins)

	r := chi.NewRouter()

	r.Use(chimw.Recoverer)
	r.Use(middleware.WithRequestAndTrace)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", HeaderAccessToken, HeaderRefreshToken, middleware.HeaderRequestID, middleware.HeaderTraceID},
		ExposedHeaders:   []string{HeaderAccessToken, HeaderRefreshToken, middleware.HeaderRequestID, middleware.HeaderTraceID},
		AllowCredentials: !slices.Contains(origins, "*"),
		MaxAge:           300,
	}))
	r.Use(middleware.WithMetrics)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/readyz", readyHandler(d.DB))
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1/users", func(r chi.Router) {
		r.Post("/register", h.register)
		r.Post("/activate", h.activate)
		r.Post("/login", h.login)

		r.Get("/me", h.guarded(h.me, true))
		r.Post("/logout", h.guarded(h.logout, false))
		r.Get("/", h.guarded(h.list, true))
	})

	return r
}

func readyHandler(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db == nil {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := db.Ping(ctx); err != nil {
			slog.Warn("readiness check failed", append(middleware.LogAttrs(r.Context()), "error", err)...)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func originsOrAny(origins []string) []string {
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}
