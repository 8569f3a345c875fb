package api

import (
	"net/http"
	"time"

	"donor_registry/internal/api/handler"
	"donor_registry/internal/api/middleware"
	"donor_registry/internal/app/service"
	"donor_registry/internal/common"
	"donor_registry/internal/common/security"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth/v5"
	"github.com/rs/zerolog"
)

func NewRouter(
	logger zerolog.Logger,
	tokens *security.TokenService,
	authService *service.AuthService,
	resources []*service.ResourceService,
) http.Handler {
	r := chi.NewRouter()

	// Base Middlewares
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))

	// Only the Authorization header is consulted; the guards decide what a
	// missing or bad token means for each route.
	r.Use(jwtauth.Verify(tokens.JWTAuth(), jwtauth.TokenFromHeader))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		common.RespondWithMessage(w, http.StatusNotFound, "Not found.")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		common.RespondWithMessage(w, http.StatusMethodNotAllowed, "Method not allowed.")
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	guard := middleware.NewGuard(tokens)

	r.Route("/api", func(api chi.Router) {
		authHandler := handler.NewAuthHandler(authService, guard)
		api.Route("/auth", authHandler.RegisterRoutes)
		api.With(guard.Authenticated).Get("/test", authHandler.WhoAmI)

		for _, svc := range resources {
			resourceHandler := handler.NewResourceHandler(svc, guard)
			api.Route("/"+svc.Descriptor().Path, resourceHandler.RegisterRoutes)
		}
	})

	return r
}
