package auth

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/BuzzLyutic/task-workflow/internal/model"
	"github.com/BuzzLyutic/task-workflow/pkg/respond"
)

// Middleware stores the request's actor in its context. Requests without
// credentials continue as model.Anonymous; the operations they reach decide
// whether that is enough. Invalid credentials are rejected with 401.
func Middleware(authn Authenticator, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, err := authn.Authenticate(r.Context(), r)
			switch {
			case errors.Is(err, ErrUnauthenticated):
				actor = model.Anonymous
			case err != nil:
				logger.Info("rejected credentials",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Error(err),
				)
				respond.Error(w, r, http.StatusUnauthorized, "invalid credentials")
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithActor(r.Context(), actor)))
		})
	}
}
