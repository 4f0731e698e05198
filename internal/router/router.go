// Package router defines how HTTP routes are registered for the API.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/seat-booking/internal/config"
	"github.com/iliyamo/seat-booking/internal/handler"
	"github.com/iliyamo/seat-booking/internal/middleware"
)

// RegisterRoutes registers routes that need no dependencies. Currently
// this is only the health check used by load balancers and monitoring.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterReservations registers the reservation API under /v1. The
// whole group is rate limited via the Redis token bucket; the read-only
// listing endpoint can additionally be cached. A nil Redis client
// disables both middlewares and the routes run unprotected.
func RegisterReservations(e *echo.Echo, h *handler.ReservationHandler, rdb *redis.Client) {
	g := e.Group("/v1", middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	g.GET("/reservations", h.List, middleware.ResponseCache(config.LoadCacheConfig(), rdb))
	g.POST("/reservations", h.Create)
	g.DELETE("/reservations/:id", h.Cancel)
	g.PUT("/reservations/:id", h.Rebook)
}
