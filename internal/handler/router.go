package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/task-workflow/internal/auth"
	"github.com/BuzzLyutic/task-workflow/pkg/respond"
)

type RouterConfig struct {
	Tasks         *TaskHandler
	Projects      *ProjectHandler
	Authenticator auth.Authenticator
	Logger        *zap.Logger
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter() // Создаем роутер
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(cfg.Logger))
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respond.JSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(auth.Middleware(cfg.Authenticator, cfg.Logger))

		r.Route("/projects", func(r chi.Router) {
			r.Post("/", cfg.Projects.Create)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", cfg.Projects.Get)
				r.Delete("/", cfg.Projects.Delete)
				r.Get("/summary", cfg.Projects.Summary)
				r.Get("/tasks", cfg.Tasks.ListByProject)
				r.Post("/tasks", cfg.Tasks.Create)
			})
		})

		r.Route("/tasks/{id}", func(r chi.Router) {
			r.Get("/", cfg.Tasks.Get)
			r.Patch("/", cfg.Tasks.Update)
			r.Delete("/", cfg.Tasks.Delete)
			r.Post("/transition", cfg.Tasks.Transition)
			r.Get("/transitions", cfg.Tasks.Transitions)
			r.Get("/history", cfg.Tasks.History)
		})
	})

	return r
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Info("request",
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("took", time.Since(start)),
			)
		})
	}
}
