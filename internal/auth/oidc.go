package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"

	"github.com/BuzzLyutic/task-workflow/internal/model"
)

// OIDCAuthenticator verifies bearer ID tokens issued by an OpenID Connect
// provider. The token subject becomes the actor id.
type OIDCAuthenticator struct {
	verifier   *oidc.IDTokenVerifier
	rolesClaim string
}

// NewOIDCAuthenticator discovers the provider at issuerURL.
func NewOIDCAuthenticator(ctx context.Context, issuerURL, clientID, rolesClaim string) (*OIDCAuthenticator, error) {
	provider, err := oidc.NewProvider(ctx, issuerURL)
	if err != nil {
		return nil, fmt.Errorf("oidc provider: %w", err)
	}
	return NewOIDCAuthenticatorWithVerifier(provider.Verifier(&oidc.Config{ClientID: clientID}), rolesClaim), nil
}

func NewOIDCAuthenticatorWithVerifier(verifier *oidc.IDTokenVerifier, rolesClaim string) *OIDCAuthenticator {
	return &OIDCAuthenticator{verifier: verifier, rolesClaim: rolesClaim}
}

func (a *OIDCAuthenticator) Authenticate(ctx context.Context, r *http.Request) (model.Actor, error) {
	rawToken := bearerToken(r)
	if rawToken == "" {
		return model.Anonymous, ErrUnauthenticated
	}

	idToken, err := a.verifier.Verify(ctx, rawToken)
	if err != nil {
		return model.Anonymous, err
	}

	var claims map[string]any
	if err := idToken.Claims(&claims); err != nil {
		return model.Anonymous, err
	}
	if idToken.Subject == "" {
		return model.Anonymous, errors.New("token has no subject")
	}

	return model.Actor{
		ID:            idToken.Subject,
		Roles:         rolesFromClaims(claims, a.rolesClaim),
		Authenticated: true,
	}, nil
}

func bearerToken(r *http.Request) string {
	authz := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, ok := strings.Cut(authz, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// rolesFromClaims accepts the roles claim as a JSON array or a
// comma-separated string.
func rolesFromClaims(claims map[string]any, key string) []string {
	switch v := claims[key].(type) {
	case []any:
		roles := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				roles = append(roles, s)
			}
		}
		return normalizeRoles(roles)
	case string:
		return ParseRoles(v)
	default:
		return nil
	}
}
