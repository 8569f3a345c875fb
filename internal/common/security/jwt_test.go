package security

import (
	"context"
	"sync"
	"testing"
	"time"

	"donor_registry/internal/common"
	"donor_registry/internal/domain/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test_secret_key")

type memoryRevocations struct {
	mu  sync.Mutex
	ids map[string]time.Time
}

func (m *memoryRevocations) Revoke(_ context.Context, id string, until time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ids == nil {
		m.ids = map[string]time.Time{}
	}
	m.ids[id] = until
	return nil
}

func (m *memoryRevocations) IsRevoked(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.ids[id]
	return ok, nil
}

func TestIssueAndVerify(t *testing.T) {
	svc := NewTokenService(testSecret, time.Hour, nil)

	token, err := svc.Issue("u1", model.RoleUser)
	require.NoError(t, err)

	identity, err := svc.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "u1", identity.Username)
	assert.Equal(t, model.RoleUser, identity.Role)
	assert.NotEmpty(t, identity.TokenID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), identity.Expires, 5*time.Second)
}

func TestIssueUsesFreshTokenIDs(t *testing.T) {
	svc := NewTokenService(testSecret, time.Hour, nil)

	a, err := svc.Issue("u1", model.RoleUser)
	require.NoError(t, err)
	b, err := svc.Issue("u1", model.RoleUser)
	require.NoError(t, err)

	ia, err := svc.Verify(context.Background(), a)
	require.NoError(t, err)
	ib, err := svc.Verify(context.Background(), b)
	require.NoError(t, err)
	assert.NotEqual(t, ia.TokenID, ib.TokenID)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	svc := NewTokenService(testSecret, time.Hour, nil)
	svc.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, err := svc.Issue("u1", model.RoleAdmin)
	require.NoError(t, err)

	_, err = svc.Verify(context.Background(), token)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func forge(t *testing.T, method jwt.SigningMethod, key []byte, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func TestVerifyRejectsForeignTokens(t *testing.T) {
	svc := NewTokenService(testSecret, time.Hour, nil)
	claims := func() jwt.MapClaims {
		return jwt.MapClaims{
			"username": "mallory",
			"role":     model.RoleAdmin,
			"exp":      time.Now().Add(time.Hour).Unix(),
		}
	}

	otherService, err := NewTokenService([]byte("another_secret"), time.Hour, nil).Issue("mallory", model.RoleAdmin)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"different secret", forge(t, jwt.SigningMethodHS256, []byte("another_secret"), claims())},
		{"different algorithm", forge(t, jwt.SigningMethodHS512, testSecret, claims())},
		{"issued by another service", otherService},
		{"unsigned", "eyJhbGciOiJub25lIiwidHlwIjoiSldUIn0.eyJ1c2VybmFtZSI6Im1hbGxvcnkiLCJyb2xlIjoiYWRtaW4ifQ."},
		{"garbage", "not-a-token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Verify(context.Background(), tt.token)
			assert.ErrorIs(t, err, common.ErrInvalidToken)
		})
	}
}

func TestVerifyAcceptsStandardHS256Token(t *testing.T) {
	svc := NewTokenService(testSecret, time.Hour, nil)
	token := forge(t, jwt.SigningMethodHS256, testSecret, jwt.MapClaims{
		"username": "u2",
		"role":     model.RoleUser,
		"exp":      time.Now().Add(time.Minute).Unix(),
	})

	identity, err := svc.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "u2", identity.Username)
}

func TestVerifyRequiresIdentityClaims(t *testing.T) {
	svc := NewTokenService(testSecret, time.Hour, nil)
	token := forge(t, jwt.SigningMethodHS256, testSecret, jwt.MapClaims{
		"username": "u2",
		"exp":      time.Now().Add(time.Minute).Unix(),
	})

	_, err := svc.Verify(context.Background(), token)
	assert.ErrorIs(t, err, common.ErrInvalidToken)

	_, err = svc.Verify(context.Background(), "")
	assert.ErrorIs(t, err, common.ErrUnauthenticated)
}

func TestRevoke(t *testing.T) {
	store := &memoryRevocations{}
	svc := NewTokenService(testSecret, time.Hour, store)

	token, err := svc.Issue("u1", model.RoleUser)
	require.NoError(t, err)
	identity, err := svc.Verify(context.Background(), token)
	require.NoError(t, err)

	require.NoError(t, svc.Revoke(context.Background(), identity))
	assert.Equal(t, identity.Expires, store.ids[identity.TokenID])

	_, err = svc.Verify(context.Background(), token)
	assert.ErrorIs(t, err, common.ErrUnauthenticated)
	assert.ErrorIs(t, err, ErrTokenRevoked)
}
