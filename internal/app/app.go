// Package app assembles the application context: datastore, token service
// and services, built once from configuration and handed to the router.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"donor_registry/internal/api"
	"donor_registry/internal/app/service"
	"donor_registry/internal/common/security"
	"donor_registry/internal/domain/model"
	"donor_registry/internal/domain/repository"
	"donor_registry/internal/platform/cache"
	"donor_registry/internal/platform/config"
	"donor_registry/internal/platform/database"

	"github.com/rs/zerolog"
)

type App struct {
	Config    *config.Config
	Logger    zerolog.Logger
	Tokens    *security.TokenService
	Auth      *service.AuthService
	Resources []*service.ResourceService

	closers []func() error
}

func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*App, error) {
	a := &App{Config: cfg, Logger: logger}

	userRepo, resourceRepos, err := a.openStorage(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	revocations, err := a.openRevocationStore(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Tokens = security.NewTokenService(cfg.JWTKey, cfg.TokenTTL, revocations)
	a.Auth, err = service.NewAuthService(userRepo, a.Tokens, service.AuthOptions{
		BcryptCost:       cfg.BcryptCost,
		AllowAdminSignup: cfg.AllowAdminSignup,
	})
	if err != nil {
		a.Close()
		return nil, err
	}
	for _, repo := range resourceRepos {
		a.Resources = append(a.Resources, service.NewResourceService(repo))
	}

	if cfg.AdminUsername != "" {
		created, err := a.Auth.EnsureUser(ctx, cfg.AdminUsername, cfg.AdminPassword, model.RoleAdmin)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("bootstrap admin: %w", err)
		}
		if created {
			logger.Info().Str("username", cfg.AdminUsername).Msg("bootstrap admin account created")
		}
	}
	return a, nil
}

func (a *App) openStorage(ctx context.Context) (repository.UserRepository, []repository.ResourceRepository, error) {
	var (
		users     repository.UserRepository
		resources []repository.ResourceRepository
	)

	switch a.Config.StorageBackend {
	case config.StorageBackendMemory:
		store := repository.NewMemoryStore()
		users = store.Users()
		for _, d := range model.Resources() {
			resources = append(resources, store.Resource(d))
		}
		a.Logger.Warn().Msg("using in-memory storage; data is lost on restart")

	case config.StorageBackendPostgres:
		db, err := database.Connect(ctx, a.Config)
		if err != nil {
			return nil, nil, err
		}
		a.closers = append(a.closers, db.Close)
		a.Logger.Info().Str("host", a.Config.DBHost).Str("db", a.Config.DBName).Msg("database connected")

		gw := database.NewSQLGateway(db)
		if a.Config.DBAutoMigrate {
			if err := database.Migrate(ctx, gw); err != nil {
				return nil, nil, err
			}
		}
		users = repository.NewPgUserRepository(gw)
		for _, d := range model.Resources() {
			resources = append(resources, repository.NewPgResourceRepository(gw, d))
		}

	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", a.Config.StorageBackend)
	}
	return users, resources, nil
}

func (a *App) openRevocationStore(ctx context.Context) (security.RevocationStore, error) {
	if !a.Config.TokenRevocation {
		a.Logger.Warn().Msg("token revocation disabled; logout will not invalidate tokens")
		return security.NopRevocationStore{}, nil
	}
	rdb, err := cache.Connect(ctx, a.Config)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, rdb.Close)
	a.Logger.Info().Str("addr", a.Config.RedisAddr).Msg("redis connected")
	return security.NewRedisRevocationStore(rdb), nil
}

func (a *App) Handler() http.Handler {
	return api.NewRouter(a.Logger, a.Tokens, a.Auth, a.Resources)
}

// Close releases connections in reverse order of acquisition.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
