// AngelaMos | 2026
// auth.go

package middleware

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/carterperez-dev/recipe-shop/internal/core"
)

const (
	IdentityKey contextKey = "identity"
	ClaimsKey   contextKey = "jwt_claims"
)

type TokenVerifier interface {
	VerifyAccessToken(ctx context.Context, token string) (*AccessTokenClaims, error)
}

// AccessTokenClaims are the verified claims of an access token. Role is
// already resolved to the closed core.Role set.
type AccessTokenClaims struct {
	UserID    int64
	Role      core.Role
	JTI       string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

func (c *AccessTokenClaims) Identity() core.Identity {
	return core.Identity{UserID: c.UserID, Role: c.Role}
}

// Authenticator rejects requests without a valid bearer token.
func Authenticator(verifier TokenVerifier) func(http.Handler) http.Handler {
	return authenticate(verifier, true)
}

// OptionalAuth resolves the identity when a valid token is present and
// otherwise lets the request through anonymously.
func OptionalAuth(verifier TokenVerifier) func(http.Handler) http.Handler {
	return authenticate(verifier, false)
}

func authenticate(verifier TokenVerifier, required bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ExtractToken(r)
			if token == "" {
				if required {
					core.JSONError(w, core.UnauthorizedError("missing authorization token"))
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			claims, err := verifier.VerifyAccessToken(r.Context(), token)
			switch {
			case err == nil:
				ctx := context.WithValue(r.Context(), ClaimsKey, claims)
				r = r.WithContext(WithIdentity(ctx, claims.Identity()))
			case required:
				core.JSONError(w, tokenError(err))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func tokenError(err error) error {
	switch {
	case core.IsAppError(err):
		return err
	case errors.Is(err, core.ErrTokenExpired):
		return core.TokenExpiredError()
	case errors.Is(err, core.ErrTokenRevoked):
		return core.TokenRevokedError()
	}
	return core.TokenInvalidError()
}

// RequireRole admits only identities whose role is in roles. A request
// without identity gets 401, a wrong role gets 403.
func RequireRole(roles ...core.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := GetIdentity(r.Context())
			switch {
			case !ok:
				core.JSONError(w, core.UnauthorizedError("authentication required"))
			case !slices.Contains(roles, identity.Role):
				core.JSONError(w, core.ForbiddenError("insufficient permissions"))
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

func RequireAdmin(next http.Handler) http.Handler {
	return RequireRole(core.RoleAdmin)(next)
}

func RequireUser(next http.Handler) http.Handler {
	return RequireRole(core.RoleUser)(next)
}

// ExtractToken returns the bearer credential, or "" for any other scheme.
func ExtractToken(r *http.Request) string {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// WithIdentity stores identity in ctx without any token claims.
func WithIdentity(ctx context.Context, identity core.Identity) context.Context {
	return context.WithValue(ctx, IdentityKey, identity)
}

func GetIdentity(ctx context.Context) (core.Identity, bool) {
	identity, ok := ctx.Value(IdentityKey).(core.Identity)
	return identity, ok
}

func GetUserID(ctx context.Context) int64 {
	identity, _ := GetIdentity(ctx)
	return identity.UserID
}

func GetClaims(ctx context.Context) *AccessTokenClaims {
	claims, _ := ctx.Value(ClaimsKey).(*AccessTokenClaims)
	return claims
}
