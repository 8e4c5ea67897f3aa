package api

import (
	"net/http"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/myrewards/loyalty-system/internal/api/handler"
	"github.com/myrewards/loyalty-system/internal/api/middleware"
	"github.com/myrewards/loyalty-system/internal/core/policy"
	"github.com/myrewards/loyalty-system/internal/core/ports"
)

// Dependencies are the collaborators the HTTP layer needs. Scanner may be nil,
// in which case scans go straight to Loyalty.
type Dependencies struct {
	Auth      ports.AuthService
	Loyalty   ports.LoyaltyService
	Scanner   ports.Scanner
	Reports   ports.ReportService
	Resolver  *policy.Resolver
	JWTSecret string
	Issuer    string
	Health    map[string]handler.Pinger
	Log       zerolog.Logger
	// Registerer receives the HTTP request metrics. Defaults to the
	// process-wide registry.
	Registerer prometheus.Registerer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	resolver := deps.Resolver
	if resolver == nil {
		resolver = policy.NewResolver(policy.DefaultRoutes())
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.RequestLogger(deps.Log))
	registerer := deps.Registerer
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "loyalty_http",
		Registerer: registerer,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics" || c.Path() == "/health"
		},
	}))

	identify := middleware.Identify(deps.JWTSecret, deps.Issuer)

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(deps.Auth)
	loyaltyHandler := handler.NewLoyaltyHandler(deps.Loyalty, deps.Scanner, deps.Auth)
	adminHandler := handler.NewAdminHandler(deps.Reports)
	navHandler := handler.NewNavigationHandler(resolver)

	// --- Auth routes ---
	public := e.Group("/auth", identify, middleware.Guard(resolver, policy.Public))
	public.POST("/signup", authHandler.Signup)
	public.POST("/login", authHandler.Login)
	e.POST("/auth/refresh", authHandler.Refresh, middleware.Auth(deps.JWTSecret, deps.Issuer))

	// --- Navigation (any caller) ---
	e.GET("/v1/navigation", navHandler.Resolve, identify)

	// --- Customer routes ---
	v1 := e.Group("/v1", identify, middleware.Guard(resolver, policy.AuthenticatedUser))
	v1.GET("/me", loyaltyHandler.Me)
	v1.PATCH("/me", loyaltyHandler.UpdateMe)
	v1.GET("/milestones", loyaltyHandler.Milestones)
	v1.POST("/scans", loyaltyHandler.Scan)
	v1.POST("/rewards/reset", loyaltyHandler.Reset)

	// --- Admin routes ---
	admin := e.Group("/admin", identify, middleware.Guard(resolver, policy.AdminOnly))
	admin.GET("/dashboard", adminHandler.Dashboard)
	admin.GET("/users", adminHandler.Users)

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(deps.Health)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?

	// --- Observability ---
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)
	e.GET("/", func(c echo.Context) error {
		return c.Redirect(http.StatusTemporaryRedirect, "/swagger/index.html")
	})

	return e
}
