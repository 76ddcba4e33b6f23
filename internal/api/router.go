package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/jurifinder/legal-vault/internal/api/handler"
	"github.com/jurifinder/legal-vault/internal/api/middleware"
	"github.com/jurifinder/legal-vault/internal/core/domain"
	"github.com/jurifinder/legal-vault/internal/core/ports"
	"github.com/jurifinder/legal-vault/internal/core/service"
	"github.com/jurifinder/legal-vault/internal/infrastructure/http/handlers"
	"github.com/jurifinder/legal-vault/pkg/logger"
)

// uploadBodyLimit leaves room for multipart framing above the 10MB file limit.
const uploadBodyLimit = "11M"

// Deps carries everything the router wires into handlers.
type Deps struct {
	Accounts  ports.AccountService
	Documents ports.DocumentService
	Admin     ports.AdminService
	Resolvers *service.ResolverFactory
	Tokens    middleware.TokenParser
	Health    map[string]handlers.Check

	ResolveTimeout time.Duration
	// LoginRate is the sustained number of login attempts per second per client IP.
	LoginRate     float64
	SecureCookies bool
	Log           zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Log))
	e.Use(middleware.Metrics())

	// --- Guards ---
	session := middleware.Session(d.Tokens)
	guard := middleware.NewGuard(middleware.GuardConfig{
		Resolvers:      d.Resolvers,
		ResolveTimeout: d.ResolveTimeout,
		SecureCookies:  d.SecureCookies,
		Log:            d.Log,
	})
	public := []echo.MiddlewareFunc{session, guard.Require(domain.AccessPublic)}
	authed := []echo.MiddlewareFunc{session, guard.Require(domain.AccessAuthenticated)}
	admin := []echo.MiddlewareFunc{session, guard.Require(domain.AccessAdmin)}

	pages := handler.NewPageHandler()
	auth := handler.NewAuthHandler(d.Accounts, d.SecureCookies)
	docs := handler.NewDocumentHandler(d.Documents)
	users := handler.NewAdminHandler(d.Admin)

	// --- Public pages ---
	e.GET("/", pages.Index, public...)
	e.GET("/session", pages.Session, public...)
	e.GET("/login", auth.LoginPage, public...)
	e.POST("/login", auth.Login, loginLimiter(d.LoginRate))
	e.GET("/signup", pages.SignupPage, public...)
	e.POST("/signup", auth.Signup)
	e.GET("/logout", auth.Logout, public...)
	e.POST("/logout", auth.Logout, public...)
	e.GET("/email-verification", auth.VerifyEmail)
	e.GET("/reset-password", pages.ResetPasswordPage, public...)
	e.POST("/reset-password", auth.ResetPassword)
	e.GET("/update-password", pages.UpdatePasswordPage, public...)
	e.POST("/update-password", auth.UpdatePassword, public...)

	// --- Signed-in pages ---
	e.GET("/update-email", pages.UpdateEmailPage, authed...)
	e.POST("/update-email", auth.UpdateEmail, authed...)
	e.GET("/dashboard", docs.Dashboard, authed...)
	e.GET("/dashboard/documents/:id", docs.Get, authed...)
	e.DELETE("/dashboard/documents/:id", docs.Delete, authed...)
	e.GET("/dashboard/searches", docs.RecentSearches, authed...)
	e.POST("/dashboard/searches", docs.RecordSearch, authed...)
	e.GET("/upload", pages.UploadPage, authed...)
	e.POST("/upload", docs.Upload, append(authed, echomiddleware.BodyLimit(uploadBodyLimit))...)

	// --- Admin pages ---
	e.GET("/admin", users.Overview, admin...)
	e.GET("/admin/users", users.ListUsers, admin...)
	e.GET("/admin/users/:userId", users.GetUser, admin...)
	e.PUT("/admin/users/:userId/status", users.UpdateStatus, admin...)

	// --- Health probes and metrics (no auth required) ---
	healthHandler := handlers.NewHealthHandler()
	healthDepsHandler := handlers.NewHealthDependenciesHandler(d.Health)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	e.RouteNotFound("/*", pages.NotFound)

	return e
}

// loginLimiter throttles sign-in attempts per client IP.
func loginLimiter(perSecond float64) echo.MiddlewareFunc {
	if perSecond <= 0 {
		perSecond = 5
	}
	store := echomiddleware.NewRateLimiterMemoryStoreWithConfig(echomiddleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(perSecond),
		Burst:     int(perSecond) + 1,
		ExpiresIn: 3 * time.Minute,
	})
	return echomiddleware.RateLimiterWithConfig(echomiddleware.RateLimiterConfig{
		Store: store,
		DenyHandler: func(c echo.Context, _ string, _ error) error {
			return c.JSON(http.StatusTooManyRequests, errorResponse{Error: "too many login attempts"})
		},
	})
}

// requestLogger feeds echo's request logger into zerolog.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	log = logger.Component(log, "http")
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil || v.Status >= http.StatusInternalServerError {
				ev = log.Error().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
