package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"donor_registry/internal/common"
	"donor_registry/internal/common/security"
	"donor_registry/internal/domain/model"
	"donor_registry/internal/domain/repository"

	"golang.org/x/crypto/bcrypt"
)

const invalidCredentials = "Invalid credentials."

type AuthOptions struct {
	BcryptCost       int
	AllowAdminSignup bool
}

type AuthService struct {
	userRepo repository.UserRepository
	tokens   *security.TokenService
	opts     AuthOptions
	// dummyHash is compared against when the username is unknown so that
	// both login failure paths cost one bcrypt comparison.
	dummyHash string
}

func NewAuthService(userRepo repository.UserRepository, tokens *security.TokenService, opts AuthOptions) (*AuthService, error) {
	dummy, err := security.HashPassword("not-a-real-password", opts.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("NewAuthService: %w", err)
	}
	return &AuthService{userRepo: userRepo, tokens: tokens, opts: opts, dummyHash: dummy}, nil
}

type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string `json:"token"`
}

func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*model.User, error) {
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" {
		return nil, common.NewError(common.ErrBadRequest, "Missing required field: username.")
	}
	if req.Password == "" {
		return nil, common.NewError(common.ErrBadRequest, "Missing required field: password.")
	}
	if req.Role == "" {
		req.Role = model.RoleUser
	}
	if !model.IsValidRole(req.Role) {
		return nil, common.NewError(common.ErrBadRequest, "Role must be one of: "+strings.Join(model.Roles, ", ")+".")
	}
	if req.Role == model.RoleAdmin && !s.opts.AllowAdminSignup {
		return nil, common.NewError(common.ErrForbidden, "Access forbidden.")
	}
	return s.createUser(ctx, req.Username, req.Password, req.Role)
}

// EnsureUser creates the account unless the username is already taken. It
// is used to bootstrap the first admin from configuration.
func (s *AuthService) EnsureUser(ctx context.Context, username, password, role string) (bool, error) {
	if _, err := s.createUser(ctx, username, password, role); err != nil {
		if errors.Is(err, common.ErrConflict) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *AuthService) createUser(ctx context.Context, username, password, role string) (*model.User, error) {
	_, err := s.userRepo.FindByUsername(ctx, username)
	if err == nil {
		return nil, common.NewError(common.ErrConflict, "Username already exists.")
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	hashedPassword, err := security.HashPassword(password, s.opts.BcryptCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, common.NewError(common.ErrBadRequest, "Password is too long.")
		}
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Username:       username,
		HashedPassword: hashedPassword,
		Role:           role,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		// Repo returns common.ErrConflict when a concurrent signup won.
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	user.HashedPassword = "" // Clear password before returning
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	if req.Username == "" || req.Password == "" {
		return nil, common.NewError(common.ErrUnauthorized, invalidCredentials)
	}

	user, err := s.userRepo.FindByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			security.CheckPasswordHash(req.Password, s.dummyHash)
			return nil, common.NewError(common.ErrUnauthorized, invalidCredentials) // Generic message for security
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if !security.CheckPasswordHash(req.Password, user.HashedPassword) {
		return nil, common.NewError(common.ErrUnauthorized, invalidCredentials)
	}

	token, err := s.tokens.Issue(user.Username, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return &LoginResponse{Token: token}, nil
}

func (s *AuthService) Logout(ctx context.Context, identity model.Identity) error {
	return s.tokens.Revoke(ctx, identity)
}
