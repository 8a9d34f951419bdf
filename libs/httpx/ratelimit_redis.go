package httpx

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRateLimiter counts requests per client in fixed windows stored in
// Redis, so the limit holds across every replica.
type RedisRateLimiter struct {
	rdb    *redis.Client
	limit  int64
	window time.Duration
	prefix string
	now    func() time.Time
}

func NewRedisRateLimiter(rdb *redis.Client, limit int, window time.Duration, prefix string) *RedisRateLimiter {
	if limit <= 0 {
		limit = 60
	}
	if window < time.Second {
		window = time.Minute
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "rl"
	}
	return &RedisRateLimiter{rdb: rdb, limit: int64(limit), window: window, prefix: prefix, now: time.Now}
}

// Middleware answers 429 with Retry-After once a client exceeds the limit.
// When Redis fails the request passes if failOpen, otherwise it gets 503.
func (rl *RedisRateLimiter) Middleware(logger *slog.Logger, failOpen bool) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key, resetIn := rl.bucket(ClientKey(r))
			count, err := rl.incr(r.Context(), key)
			if err != nil {
				logger.Warn("redis rate limiter error", "err", err)
				if failOpen {
					next.ServeHTTP(w, r)
					return
				}
				WriteError(w, http.StatusServiceUnavailable, "rate limiter unavailable", "")
				return
			}

			remaining := max(rl.limit-count, 0)
			w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(rl.limit, 10))
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
			if count > rl.limit {
				w.Header().Set("Retry-After", strconv.Itoa(int(resetIn.Round(time.Second).Seconds())))
				WriteError(w, http.StatusTooManyRequests, "rate limit exceeded", "")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// bucket names the window the current request falls into and how long until
// it closes.
func (rl *RedisRateLimiter) bucket(client string) (string, time.Duration) {
	now := rl.now()
	start := now.Truncate(rl.window)
	key := rl.prefix + ":" + client + ":" + strconv.FormatInt(start.Unix(), 10)
	return key, start.Add(rl.window).Sub(now)
}

func (rl *RedisRateLimiter) incr(ctx context.Context, key string) (int64, error) {
	var incr *redis.IntCmd
	_, err := rl.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		incr = p.Incr(ctx, key)
		p.Expire(ctx, key, rl.window)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

// ClientKey identifies the caller by the first X-Forwarded-For hop or the
// remote address.
func ClientKey(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		return host
	}
	return r.RemoteAddr
}
