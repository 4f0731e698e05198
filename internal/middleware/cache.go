package middleware

import (
	"bytes"
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/seat-booking/internal/config"
)

// captureWriter tees the response body into a buffer, up to a size
// limit, while forwarding everything to the client.
type captureWriter struct {
	http.ResponseWriter
	status    int
	buf       bytes.Buffer
	truncated bool
	limit     int
}

func (cw *captureWriter) WriteHeader(code int) {
	cw.status = code
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *captureWriter) Write(b []byte) (int, error) {
	if !cw.truncated {
		if cw.limit > 0 && cw.buf.Len()+len(b) > cw.limit {
			cw.truncated = true
		} else {
			cw.buf.Write(b)
		}
	}
	return cw.ResponseWriter.Write(b)
}

// cacheEntry is the stored representation of one cached response.
type cacheEntry struct {
	Status int    `json:"status"`
	Body   []byte `json:"body"`
}

// cacheKey hashes the route and query under the configured prefix.
func cacheKey(cfg config.CacheConfig, c echo.Context) string {
	r := c.Request()
	var tail string
	switch strings.ToLower(cfg.KeyStrategy) {
	case "route":
		tail = c.Path()
	default: // "route_query"
		tail = c.Path() + "?" + r.URL.RawQuery
	}
	sum := sha1.Sum([]byte(tail))
	return fmt.Sprintf("%s:%x", cfg.Prefix, sum[:])
}

// ResponseCache caches successful JSON responses of the configured
// methods in Redis for cfg.TTL. Cached entries shortcut the handler
// entirely. Note the consistency tradeoff on the listing endpoint: a
// cached response can lag behind a commit by up to the TTL, which is why
// caching ships disabled unless CACHE_ENABLED=true is set. A nil Redis
// client or a disabled config makes the middleware a no-op; Redis
// errors fall through to the handler.
func ResponseCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error { return next(c) }
		}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !cfg.Methods[c.Request().Method] {
				return next(c)
			}
			key := cacheKey(cfg, c)
			ctx := c.Request().Context()

			if data, err := rdb.Get(ctx, key).Bytes(); err == nil {
				var ent cacheEntry
				if json.Unmarshal(data, &ent) == nil {
					return c.JSONBlob(ent.Status, ent.Body)
				}
			}

			cw := &captureWriter{
				ResponseWriter: c.Response().Writer,
				status:         http.StatusOK,
				limit:          cfg.MaxBodyBytes,
			}
			c.Response().Writer = cw

			if err := next(c); err != nil {
				return err
			}

			// only complete, successful responses are worth caching
			if cw.status == http.StatusOK && !cw.truncated && cw.buf.Len() > 0 {
				ent := cacheEntry{Status: cw.status, Body: cw.buf.Bytes()}
				if data, err := json.Marshal(ent); err == nil {
					rdb.Set(ctx, key, data, cfg.TTL)
				}
			}
			return nil
		}
	}
}
