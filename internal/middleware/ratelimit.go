package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/andibalo/ujournal-sub000/internal/database"
)

const (
	// rateLimitWindow is the sliding window for the per-IP counter
	rateLimitWindow = 120 * time.Second
	// rateLimitMaxRequests is the cap inside one window
	rateLimitMaxRequests = 60
	rateLimitKeyPrefix   = "ratelimit:"
	blockedIPKeyPrefix   = "blocked_ip:"
	// blockedIPDuration is how long an IP stays blocked
	blockedIPDuration = 24 * time.Hour
)

// clientIP returns the client IP from r.RemoteAddr only (no proxy headers);
// suitable when traffic reaches the app directly.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return strings.TrimSpace(r.RemoteAddr)
	}
	return strings.TrimSpace(host)
}

// RateLimit counts requests per IP in Redis and blocks IPs that blow past
// the window cap. Fails open when Redis is unavailable.
func RateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		ctx := context.Background()

		blockedKey := blockedIPKeyPrefix + ip
		if blocked, err := database.RedisClient.Exists(ctx, blockedKey).Result(); err == nil && blocked > 0 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"success":false,"message":"Your IP has been temporarily blocked due to excessive requests. Please try again later."}`))
			return
		}

		rateLimitKey := rateLimitKeyPrefix + ip
		count, err := database.RedisClient.Incr(ctx, rateLimitKey).Result()
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		if count == 1 {
			database.RedisClient.Expire(ctx, rateLimitKey, rateLimitWindow)
		}

		if count > rateLimitMaxRequests {
			database.RedisClient.Set(ctx, blockedKey, "1", blockedIPDuration)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"success":false,"message":"Too many requests. Please try again later."}`))
			return
		}

		next.ServeHTTP(w, r)
	})
}
