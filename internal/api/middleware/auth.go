package middleware

import (
	"context"
	"errors"
	"net/http"

	"donor_registry/internal/common"
	"donor_registry/internal/common/security"
	"donor_registry/internal/domain/model"

	"github.com/go-chi/jwtauth/v5"
)

type contextKey string

const IdentityCtxKey contextKey = "identity"

const (
	msgMissingToken = "Missing authorization token."
	msgInvalidToken = "Invalid or expired token."
	msgRevokedToken = "Token has been revoked."
	msgForbidden    = "Access forbidden."
)

// Guard holds the dependencies of the authentication middlewares. It expects
// jwtauth.Verify to have run earlier in the chain.
type Guard struct {
	tokens *security.TokenService
}

func NewGuard(tokens *security.TokenService) *Guard {
	return &Guard{tokens: tokens}
}

// Authenticated rejects requests without a valid bearer token: 401 when none
// was sent, 422 when it is malformed, forged or expired.
func (g *Guard) Authenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, _, err := jwtauth.FromContext(r.Context())
		if err != nil {
			if errors.Is(err, jwtauth.ErrNoTokenFound) {
				common.RespondWithError(w, r, common.NewError(common.ErrUnauthenticated, msgMissingToken))
			} else {
				common.RespondWithError(w, r, common.WrapError(common.ErrInvalidToken, msgInvalidToken, err))
			}
			return
		}
		if token == nil {
			common.RespondWithError(w, r, common.NewError(common.ErrUnauthenticated, msgMissingToken))
			return
		}

		identity, err := g.tokens.Identify(r.Context(), token)
		if err != nil {
			switch {
			case errors.Is(err, security.ErrTokenRevoked):
				common.RespondWithError(w, r, common.WrapError(common.ErrUnauthenticated, msgRevokedToken, err))
			case errors.Is(err, common.ErrInvalidToken):
				common.RespondWithError(w, r, common.WrapError(common.ErrInvalidToken, msgInvalidToken, err))
			default:
				common.RespondWithError(w, r, err)
			}
			return
		}

		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
	})
}

// RequireRole authenticates the request and then demands the given role.
func (g *Guard) RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return g.Authenticated(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := IdentityFromContext(r.Context())
			if !ok || identity.Role != role {
				common.RespondWithError(w, r, common.NewError(common.ErrForbidden, msgForbidden))
				return
			}
			next.ServeHTTP(w, r)
		}))
	}
}

func WithIdentity(ctx context.Context, identity model.Identity) context.Context {
	return context.WithValue(ctx, IdentityCtxKey, identity)
}

// Helper to get the authenticated identity from context
func IdentityFromContext(ctx context.Context) (model.Identity, bool) {
	identity, ok := ctx.Value(IdentityCtxKey).(model.Identity)
	return identity, ok
}
