package api

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultRateLimit is the sustained request rate allowed per client IP.
	DefaultRateLimit = rate.Limit(10)

	// DefaultRateBurst is the default burst size per client IP.
	DefaultRateBurst = 30

	// visitorTTL is how long an idle client's limiter is retained.
	visitorTTL = 3 * time.Minute
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// rateLimiter tracks a token bucket per client IP.
// Stale entries are evicted lazily on each lookup pass.
type rateLimiter struct {
	mu         sync.Mutex
	visitors   map[string]*visitor
	limit      rate.Limit
	burst      int
	trustProxy bool
	lastSweep  time.Time
}

func newRateLimiter(burst int, trustProxy bool) *rateLimiter {
	if burst <= 0 {
		burst = DefaultRateBurst
	}
	return &rateLimiter{
		visitors:   make(map[string]*visitor),
		limit:      DefaultRateLimit,
		burst:      burst,
		trustProxy: trustProxy,
		lastSweep:  time.Now(),
	}
}

// clientIP resolves the client address. Proxy headers are only honored when
// the server is configured to sit behind a trusted reverse proxy; otherwise
// they are attacker-controlled.
func (rl *rateLimiter) clientIP(r *http.Request) string {
	if rl.trustProxy {
		if ip := r.Header.Get("X-Real-IP"); ip != "" {
			return ip
		}
		if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
			if i := strings.IndexByte(fwd, ','); i > 0 {
				return strings.TrimSpace(fwd[:i])
			}
			return strings.TrimSpace(fwd)
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (rl *rateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	if now.Sub(rl.lastSweep) > visitorTTL {
		for key, v := range rl.visitors {
			if now.Sub(v.lastSeen) > visitorTTL {
				delete(rl.visitors, key)
			}
		}
		rl.lastSweep = now
	}

	v, ok := rl.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter.Allow()
}

// middleware rejects requests over the per-IP budget with 429.
func (rl *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.allow(rl.clientIP(r)) {
			w.Header().Set("Retry-After", "1")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}
