package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(withRequestLogging(handler.logger))
	r.Use(middleware.Recoverer)
	r.Use(withCORS)
	r.Use(withJSONContentType)

	r.Get("/healthz", handler.healthz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Get("/docs", handler.swaggerUI)
	r.Get("/docs/", handler.swaggerUI)
	r.Get("/docs/openapi.json", handler.swaggerSpec)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/catalog", handler.getCatalog)

		r.Get("/profile", handler.getProfile)
		r.Put("/profile", handler.putProfile)

		r.Get("/home", handler.getHome)
		r.Get("/progress", handler.getProgress)

		r.Get("/stories", handler.listStories)
		r.Post("/stories", handler.generateStory)
		r.Get("/stories/{id}", handler.getStory)
		r.Post("/stories/{id}/read", handler.readStory)

		r.Get("/questions", handler.listQuestions)
		r.Post("/questions", handler.askQuestion)

		r.Get("/rewards", handler.getRewards)
		r.Post("/rewards/{id}/unlock", handler.unlockReward)

		r.Get("/state", handler.exportState)
		r.Put("/state", handler.restoreState)
	})

	return r
}

func withJSONContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if (r.Method == http.MethodPost || r.Method == http.MethodPut) && r.Header.Get("Content-Type") == "" {
			r.Header.Set("Content-Type", "application/json")
		}
		next.ServeHTTP(w, r)
	})
}

func withRequestLogging(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			logger.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.RequestURI()),
				zap.Int("status", status),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("remote_addr", r.RemoteAddr),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "600")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
