// Package router defines how HTTP routes are registered for the API.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/agrihub/seed-reservation/internal/config"
	"github.com/agrihub/seed-reservation/internal/handler"
	"github.com/agrihub/seed-reservation/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication and
// carry no middleware. Currently it exposes only a health check used by
// load balancers and monitoring.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the staff authentication routes. Login lives
// under /v1/auth; /v1/me requires a valid access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/login", a.Login)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.GET("/me", a.Me)
}

// RegisterPublic registers the farmer-facing endpoints. They carry no
// authentication: farmers identify themselves by national id number. The
// read-only catalog sits behind the Redis response cache, and everything
// in this group is rate limited per client IP. A nil Redis client turns
// both middlewares into pass-throughs.
func RegisterPublic(e *echo.Echo,
	cat *handler.CatalogHandler,
	farmers *handler.FarmerHandler,
	reservations *handler.ReservationHandler,
	rdb *redis.Client,
) {
	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	// Catalog: cached reads.
	browse := e.Group("/v1", limiter, cache)
	browse.GET("/provinces", cat.ListProvinces)
	browse.GET("/seed-varieties", cat.ListVarieties)
	browse.GET("/provinces/:id/seed-varieties", cat.ListProvinceVarieties)
	browse.GET("/provinces/:id/distributors", cat.ListProvinceDistributors)

	// Farmer directory and reservations: rate limited, never cached.
	open := e.Group("/v1", limiter)
	open.POST("/farmers", farmers.Register)
	open.GET("/farmers", farmers.GetByIdentity)
	open.GET("/farmers/:id/reservations", farmers.ListReservations)
	open.POST("/reservations", reservations.Create)
	open.GET("/reservations/:id", reservations.Get)
}
