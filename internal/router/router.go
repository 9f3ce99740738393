package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/churn-prediction-api/internal/config"
	"github.com/iliyamo/churn-prediction-api/internal/handler"
	"github.com/iliyamo/churn-prediction-api/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication.
// Currently it exposes only the health check used by load balancers and
// monitoring systems.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAPI wires the auth and dataset endpoints. Signup and login
// are unauthenticated by design and sit behind the rate limiter; every
// other endpoint requires a verified bearer token before its handler
// runs. rdb may be nil, in which case rate limiting and response
// caching quietly disable themselves.
func RegisterAPI(e *echo.Echo, a *handler.AuthHandler, d *handler.DatasetHandler, jwtSecret string, rdb *redis.Client) {
	// Unauthenticated endpoints. The token bucket keys on client IP and
	// route, so a credential-stuffing loop exhausts its own budget only.
	auth := e.Group("/auth")
	auth.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	auth.POST("/signup", a.Signup)
	auth.POST("/login", a.Login)

	// Everything below runs only after token verification.
	protected := e.Group("")
	protected.Use(middleware.Auth(jwtSecret))
	protected.GET("/me", a.Me)
	protected.POST("/datasets/upload", d.Upload)
	// Retrieval is idempotent once a dataset exists; cache keys include
	// the authenticated account so entries are never shared.
	protected.GET("/datasets/:id/predictions", d.GetPredictions,
		middleware.ResponseCache(config.LoadCacheConfig(), rdb))
}
