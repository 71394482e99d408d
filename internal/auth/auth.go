// Package auth resolves the acting user of a request and the capabilities
// that user holds.
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/BuzzLyutic/task-workflow/internal/model"
)

// ErrUnauthenticated means the request carried no credentials at all.
var ErrUnauthenticated = errors.New("no credentials")

// Authenticator extracts the actor from a request. It returns
// ErrUnauthenticated when no credentials are present and any other error
// when credentials are present but invalid.
type Authenticator interface {
	Authenticate(ctx context.Context, r *http.Request) (model.Actor, error)
}

type ctxKeyActor struct{}

func ContextWithActor(ctx context.Context, actor model.Actor) context.Context {
	return context.WithValue(ctx, ctxKeyActor{}, actor)
}

// ActorFromContext returns the request's actor, or model.Anonymous.
func ActorFromContext(ctx context.Context) model.Actor {
	if actor, ok := ctx.Value(ctxKeyActor{}).(model.Actor); ok {
		return actor
	}
	return model.Anonymous
}

// ParseRoles splits a comma-separated role list, lowercased and without blanks.
func ParseRoles(s string) []string {
	return normalizeRoles(strings.Split(s, ","))
}

func normalizeRoles(in []string) []string {
	out := make([]string, 0, len(in))
	for _, role := range in {
		role = strings.ToLower(strings.TrimSpace(role))
		if role == "" {
			continue
		}
		out = append(out, role)
	}
	return out
}
