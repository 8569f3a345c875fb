package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"donor_registry/internal/common"
	"donor_registry/internal/common/security"
	"donor_registry/internal/domain/model"
	"donor_registry/internal/domain/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type failingUserRepo struct{ err error }

func (f failingUserRepo) Create(context.Context, *model.User) error { return f.err }
func (f failingUserRepo) FindByUsername(context.Context, string) (*model.User, error) {
	return nil, f.err
}

func newAuthService(t *testing.T, repo repository.UserRepository, allowAdmin bool) (*AuthService, *security.TokenService) {
	t.Helper()
	tokens := security.NewTokenService([]byte("test_secret_key"), time.Hour, nil)
	svc, err := NewAuthService(repo, tokens, AuthOptions{BcryptCost: bcrypt.MinCost, AllowAdminSignup: allowAdmin})
	require.NoError(t, err)
	return svc, tokens
}

func TestRegisterAndLogin(t *testing.T) {
	users := repository.NewMemoryStore().Users()
	svc, tokens := newAuthService(t, users, false)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterRequest{Username: "u1", Password: "p", Role: model.RoleUser})
	require.NoError(t, err)
	assert.Empty(t, user.HashedPassword)

	stored, err := users.FindByUsername(ctx, "u1")
	require.NoError(t, err)
	assert.NotEqual(t, "p", stored.HashedPassword)
	assert.True(t, security.CheckPasswordHash("p", stored.HashedPassword))

	resp, err := svc.Login(ctx, LoginRequest{Username: "u1", Password: "p"})
	require.NoError(t, err)

	identity, err := tokens.Verify(ctx, resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "u1", identity.Username)
	assert.Equal(t, stored.Role, identity.Role)
}

func TestRegisterDefaultsRoleAndRejectsDuplicates(t *testing.T) {
	users := repository.NewMemoryStore().Users()
	svc, _ := newAuthService(t, users, false)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{Username: "u1", Password: "p"})
	require.NoError(t, err)
	stored, err := users.FindByUsername(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, model.RoleUser, stored.Role)

	_, err = svc.Register(ctx, RegisterRequest{Username: "u1", Password: "other"})
	assert.ErrorIs(t, err, common.ErrConflict)
	assert.Equal(t, "Username already exists.", messageOf(t, err))
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newAuthService(t, repository.NewMemoryStore().Users(), false)

	tests := []struct {
		name string
		req  RegisterRequest
		kind error
	}{
		{"missing username", RegisterRequest{Password: "p"}, common.ErrBadRequest},
		{"blank username", RegisterRequest{Username: "  ", Password: "p"}, common.ErrBadRequest},
		{"missing password", RegisterRequest{Username: "u"}, common.ErrBadRequest},
		{"unknown role", RegisterRequest{Username: "u", Password: "p", Role: "root"}, common.ErrBadRequest},
		{"admin signup disabled", RegisterRequest{Username: "u", Password: "p", Role: model.RoleAdmin}, common.ErrForbidden},
		{"password too long", RegisterRequest{Username: "u", Password: strings.Repeat("x", 80)}, common.ErrBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.kind)
		})
	}
}

func TestRegisterAdminWhenAllowed(t *testing.T) {
	svc, _ := newAuthService(t, repository.NewMemoryStore().Users(), true)
	user, err := svc.Register(context.Background(), RegisterRequest{Username: "boss", Password: "p", Role: model.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, user.Role)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	svc, _ := newAuthService(t, repository.NewMemoryStore().Users(), false)
	ctx := context.Background()
	_, err := svc.Register(ctx, RegisterRequest{Username: "u1", Password: "p"})
	require.NoError(t, err)

	_, wrongPassword := svc.Login(ctx, LoginRequest{Username: "u1", Password: "nope"})
	_, unknownUser := svc.Login(ctx, LoginRequest{Username: "ghost", Password: "p"})
	_, empty := svc.Login(ctx, LoginRequest{})

	for _, err := range []error{wrongPassword, unknownUser, empty} {
		assert.ErrorIs(t, err, common.ErrUnauthorized)
		assert.Equal(t, "Invalid credentials.", messageOf(t, err))
	}
}

func TestLoginDatastoreFailureIsInternal(t *testing.T) {
	svc, _ := newAuthService(t, failingUserRepo{err: errors.New("db down")}, false)
	_, err := svc.Login(context.Background(), LoginRequest{Username: "u1", Password: "p"})
	require.Error(t, err)
	assert.Equal(t, 500, common.HTTPStatusFromError(err))
}

func TestEnsureUser(t *testing.T) {
	users := repository.NewMemoryStore().Users()
	svc, _ := newAuthService(t, users, false)
	ctx := context.Background()

	created, err := svc.EnsureUser(ctx, "admin", "secret", model.RoleAdmin)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = svc.EnsureUser(ctx, "admin", "changed", model.RoleAdmin)
	require.NoError(t, err)
	assert.False(t, created)

	_, err = svc.Login(ctx, LoginRequest{Username: "admin", Password: "secret"})
	assert.NoError(t, err, "existing account must keep its password")
}
