package security

import (
	"context"
	"errors"
	"fmt"
	"time"

	"donor_registry/internal/common"
	"donor_registry/internal/domain/model"

	"github.com/go-chi/jwtauth/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	jwxjwt "github.com/lestrrat-go/jwx/v2/jwt"
)

const SigningAlgorithm = "HS256"

var ErrTokenRevoked = errors.New("token has been revoked")

// TokenService issues and verifies HS256 bearer tokens carrying a username and role.
type TokenService struct {
	auth    *jwtauth.JWTAuth
	ttl     time.Duration
	revoked RevocationStore
	now     func() time.Time
}

func NewTokenService(secret []byte, ttl time.Duration, revoked RevocationStore) *TokenService {
	if revoked == nil {
		revoked = NopRevocationStore{}
	}
	return &TokenService{
		auth:    jwtauth.New(SigningAlgorithm, secret, nil),
		ttl:     ttl,
		revoked: revoked,
		now:     time.Now,
	}
}

// JWTAuth exposes the verifier for jwtauth.Verify in the router.
func (s *TokenService) JWTAuth() *jwtauth.JWTAuth {
	return s.auth
}

func (s *TokenService) Issue(username, role string) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"username": username,
		"role":     role,
		"jti":      uuid.NewString(),
		"iat":      now.Unix(),
		"exp":      now.Add(s.ttl).Unix(),
	}
	_, tokenString, err := s.auth.Encode(claims)
	if err != nil {
		return "", fmt.Errorf("TokenService.Issue: %w", err)
	}
	return tokenString, nil
}

// Verify checks signature, algorithm, expiry and revocation of a raw token.
func (s *TokenService) Verify(ctx context.Context, tokenString string) (model.Identity, error) {
	if tokenString == "" {
		return model.Identity{}, common.ErrUnauthenticated
	}
	token, err := jwtauth.VerifyToken(s.auth, tokenString)
	if err != nil {
		return model.Identity{}, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}
	return s.Identify(ctx, token)
}

// Identify extracts the identity from an already verified token and rejects
// revoked ones.
func (s *TokenService) Identify(ctx context.Context, token jwxjwt.Token) (model.Identity, error) {
	if token == nil {
		return model.Identity{}, common.ErrUnauthenticated
	}
	claims := token.PrivateClaims()
	username, ok := claims["username"].(string)
	if !ok || username == "" {
		return model.Identity{}, fmt.Errorf("%w: username claim is missing or not a string", common.ErrInvalidToken)
	}
	role, ok := claims["role"].(string)
	if !ok || role == "" {
		return model.Identity{}, fmt.Errorf("%w: role claim is missing or not a string", common.ErrInvalidToken)
	}

	identity := model.Identity{
		Username: username,
		Role:     role,
		TokenID:  token.JwtID(),
		Expires:  token.Expiration(),
	}
	if identity.TokenID != "" {
		revoked, err := s.revoked.IsRevoked(ctx, identity.TokenID)
		if err != nil {
			return model.Identity{}, fmt.Errorf("TokenService.Identify: %w", err)
		}
		if revoked {
			return model.Identity{}, fmt.Errorf("%w: %w", common.ErrUnauthenticated, ErrTokenRevoked)
		}
	}
	return identity, nil
}

// Revoke blocks the identity's token until it would have expired anyway.
func (s *TokenService) Revoke(ctx context.Context, identity model.Identity) error {
	if identity.TokenID == "" {
		return nil
	}
	if err := s.revoked.Revoke(ctx, identity.TokenID, identity.Expires); err != nil {
		return fmt.Errorf("TokenService.Revoke: %w", err)
	}
	return nil
}
