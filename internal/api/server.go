// Package api serves face-off statistics and deck layouts over HTTP for
// overlay tooling.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	corslib "github.com/rs/cors"
	"github.com/sirupsen/logrus"

	"github.com/pable/go-restream-stats/internal/logging"
)

// NewRouter creates the chi router with middleware and routes.
func NewRouter(h *Handler, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(h.log))
	r.Use(middleware.Recoverer)

	c := corslib.New(corslib.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "HEAD", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
	})
	r.Use(c.Handler)

	r.Get("/health", h.Health)
	r.Get("/faceoff", h.FaceOff)
	r.Get("/matches", h.Matches)
	r.Get("/matches/{id}/layout", h.MatchLayout)

	return r
}

// NewServer wraps the router in an http.Server with conservative timeouts.
// Layout requests may fetch from racetime.gg, so writes get a long deadline.
func NewServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}
}

func requestLogger(log logrus.FieldLogger) func(http.Handler) http.Handler {
	if log == nil {
		log = logging.Discard()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.WithFields(logrus.Fields{
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     ww.Status(),
				"elapsed":    time.Since(start).Round(time.Millisecond),
				"request_id": middleware.GetReqID(r.Context()),
			}).Info("request")
		})
	}
}
