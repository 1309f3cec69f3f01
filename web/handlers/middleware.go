// Package handlers provides HTTP handlers and middleware for the Tidescan API.
package handlers

import (
	"crypto/subtle"
	"net"
	"net/http"
	"strings"
	"sync"

	"golang.org/x/time/rate"

	"github.com/tidescan/tidescan/internal/config"
)

// RequireAuth is middleware that enforces API token authentication in
// production mode. In development mode all requests pass through.
func RequireAuth(next http.Handler, cfg *config.Config) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if cfg.Security.SecurityMode == "development" {
			next.ServeHTTP(w, r)
			return
		}

		// A production server without a token accepts nobody rather than
		// everybody.
		expected := cfg.Security.APIToken
		if expected == "" {
			respondError(w, http.StatusUnauthorized, "unauthorized", nil)
			return
		}

		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if subtle.ConstantTimeCompare([]byte(token), []byte(expected)) != 1 {
			respondError(w, http.StatusUnauthorized, "unauthorized", nil)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// maxTrackedClients bounds the per-client limiter map. Past it the map is
// reset, refilling every active client's bucket; acceptable versus unbounded
// growth from address churn.
const maxTrackedClients = 8192

// RateLimiter keeps one token bucket per client address so a single noisy
// client cannot starve the rest of the API.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*rate.Limiter
	rate    rate.Limit
	burst   int
}

// NewRateLimiter creates a per-client rate limiter.
// reqPerSec is the sustained rate and burst the bucket size, per client.
func NewRateLimiter(reqPerSec float64, burst int) *RateLimiter {
	return &RateLimiter{
		clients: make(map[string]*rate.Limiter),
		rate:    rate.Limit(reqPerSec),
		burst:   burst,
	}
}

// Allow reports whether the client behind remoteAddr may proceed, creating
// its bucket on first sight.
func (rl *RateLimiter) Allow(remoteAddr string) bool {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	if len(rl.clients) >= maxTrackedClients {
		rl.clients = make(map[string]*rate.Limiter)
	}

	limiter, ok := rl.clients[host]
	if !ok {
		limiter = rate.NewLimiter(rl.rate, rl.burst)
		rl.clients[host] = limiter
	}
	return limiter.Allow()
}

// RateLimitMiddleware enforces the per-client rate limit on HTTP requests.
func RateLimitMiddleware(next http.Handler, rl *RateLimiter) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.Allow(r.RemoteAddr) {
			respondError(w, http.StatusTooManyRequests, "rate limit exceeded", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}
