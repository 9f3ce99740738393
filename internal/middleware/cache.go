package middleware

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/churn-prediction-api/internal/config"
)

// captureWriter captures response body/status while forwarding to the client.
type captureWriter struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
	size   int64
	limit  int64
}

func (cw *captureWriter) WriteHeader(code int) {
	cw.status = code
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *captureWriter) Write(b []byte) (int, error) {
	if cw.size < cw.limit {
		remain := cw.limit - cw.size
		if int64(len(b)) <= remain {
			cw.buf.Write(b)
		} else {
			cw.buf.Write(b[:remain])
		}
	}
	cw.size += int64(len(b))
	return cw.ResponseWriter.Write(b)
}

// cacheKeyFrom builds a stable cache key. The key always includes the
// authenticated account ID: cached predictions are ownership-scoped and
// must never be shared across users. Unauthenticated requests key on
// "guest", which only matters if the middleware is ever applied to a
// public route.
func cacheKeyFrom(cfg config.CacheConfig, c echo.Context) string {
	r := c.Request()
	subject := "guest"
	if id, ok := c.Get("account_id").(uint64); ok {
		subject = strconv.FormatUint(id, 10)
	}
	tail := fmt.Sprintf("user:%s:route:%s:q:%s", subject, c.Path()+":"+c.Param("id"), r.URL.RawQuery)
	sum := sha1.Sum([]byte(tail))
	return fmt.Sprintf("%s:%x", cfg.Prefix, sum[:])
}

// encodePayload packs: [4 bytes status][4 bytes headerLen][headerJSON][body]
func encodePayload(status int, header http.Header, body []byte) ([]byte, error) {
	hdrJSON, err := json.Marshal(header)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 4+4+len(hdrJSON)+len(body))
	binary.BigEndian.PutUint32(out[0:4], uint32(status))
	binary.BigEndian.PutUint32(out[4:8], uint32(len(hdrJSON)))
	copy(out[8:8+len(hdrJSON)], hdrJSON)
	copy(out[8+len(hdrJSON):], body)
	return out, nil
}

// decodePayload unpacks what encodePayload produced.
func decodePayload(payload []byte) (int, http.Header, []byte, error) {
	if len(payload) < 8 {
		return 0, nil, nil, fmt.Errorf("cache payload too short")
	}
	status := int(binary.BigEndian.Uint32(payload[0:4]))
	hdrLen := int(binary.BigEndian.Uint32(payload[4:8]))
	if len(payload) < 8+hdrLen {
		return 0, nil, nil, fmt.Errorf("cache payload truncated")
	}
	var header http.Header
	if err := json.Unmarshal(payload[8:8+hdrLen], &header); err != nil {
		return 0, nil, nil, err
	}
	return status, header, payload[8+hdrLen:], nil
}

// ResponseCache returns a middleware that serves successful responses
// from Redis for cfg.TTL. Prediction retrieval is idempotent (datasets
// and predictions are never mutated after creation), so a short cache
// window can absorb repeated polling without changing what clients see.
// With caching unavailable the middleware is a no-op.
func ResponseCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !cfg.Methods[c.Request().Method] {
				return next(c)
			}
			key := cacheKeyFrom(cfg, c)

			ctx, cancel := context.WithTimeout(c.Request().Context(), 500*time.Millisecond)
			payload, err := rdb.Get(ctx, key).Bytes()
			cancel()
			if err == nil {
				status, header, body, derr := decodePayload(payload)
				if derr == nil {
					h := c.Response().Header()
					for k, vs := range header {
						if k == echo.HeaderContentType {
							continue // c.Blob sets it
						}
						for _, v := range vs {
							h.Add(k, v)
						}
					}
					h.Set("X-Cache", "HIT")
					return c.Blob(status, header.Get(echo.HeaderContentType), body)
				}
				// A corrupt entry falls through to the handler.
			}

			cw := &captureWriter{
				ResponseWriter: c.Response().Writer,
				status:         http.StatusOK,
				limit:          int64(cfg.MaxBodyBytes),
			}
			c.Response().Writer = cw
			if err := next(c); err != nil {
				return err
			}

			// Only small successful responses are cached.
			if cw.status == http.StatusOK && cw.size <= int64(cfg.MaxBodyBytes) {
				if payload, err := encodePayload(cw.status, c.Response().Header().Clone(), cw.buf.Bytes()); err == nil {
					sctx, scancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
					_ = rdb.Set(sctx, key, payload, cfg.TTL).Err()
					scancel()
				}
			}
			return nil
		}
	}
}
