package mcp

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	// Base64 chart uploads dominate request size.
	defaultMCPMaxBodyBytes int64 = 32 << 20

	limiterIdleTTL     = 10 * time.Minute
	maxTrackedLimiters = 1024
)

type HTTPHandlerConfig struct {
	// AuthToken is one token or a comma-separated list, so a new token can
	// be rolled out before the old one is removed.
	AuthToken       string
	RateLimitPerMin int
	MaxBodyBytes    int64
}

func wrapHTTPHandler(base http.Handler, cfg HTTPHandlerConfig) http.Handler {
	h := withBodyLimit(base, cfg.MaxBodyBytes)
	h = withRateLimit(h, newHTTPRateLimiter(cfg.RateLimitPerMin))
	return withBearerAuth(h, parseTokens(cfg.AuthToken))
}

func parseTokens(raw string) []string {
	var out []string
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

type clientKey struct{}

func contextWithClient(ctx context.Context, client string) context.Context {
	return context.WithValue(ctx, clientKey{}, client)
}

func clientFromContext(ctx context.Context) string {
	client, _ := ctx.Value(clientKey{}).(string)
	return client
}

// withBearerAuth stores the matched token's slot ("token#N") in the request
// context so rate limiting never keys on the secret itself.
func withBearerAuth(next http.Handler, tokens []string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		provided, ok := bearerToken(r)
		if !ok {
			writeJSONError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		slot := matchToken(tokens, provided)
		if slot < 0 {
			zap.L().Warn("mcp request with invalid bearer token", zap.String("remote", remoteHost(r)))
			writeJSONError(w, http.StatusForbidden, "invalid bearer token")
			return
		}
		ctx := contextWithClient(r.Context(), "token#"+strconv.Itoa(slot))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	authz := strings.TrimSpace(r.Header.Get("Authorization"))
	token, found := strings.CutPrefix(authz, "Bearer ")
	token = strings.TrimSpace(token)
	return token, found && token != ""
}

// matchToken compares against every token so timing does not reveal which
// slot matched.
func matchToken(tokens []string, provided string) int {
	slot := -1
	for i, t := range tokens {
		if subtle.ConstantTimeCompare([]byte(provided), []byte(t)) == 1 && slot < 0 {
			slot = i
		}
	}
	return slot
}

func withBodyLimit(next http.Handler, limit int64) http.Handler {
	if limit <= 0 {
		limit = defaultMCPMaxBodyBytes
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength > limit {
			writeJSONError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, limit)
		}
		next.ServeHTTP(w, r)
	})
}

func withRateLimit(next http.Handler, limiter *httpRateLimiter) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if limiter == nil {
			next.ServeHTTP(w, r)
			return
		}
		if !limiter.Allow(rateLimitKey(r)) {
			w.Header().Set("Retry-After", strconv.Itoa(limiter.retryAfterSecs()))
			writeJSONError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func rateLimitKey(r *http.Request) string {
	host := remoteHost(r)
	if client := clientFromContext(r.Context()); client != "" {
		return client + "|" + host
	}
	return host
}

func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err != nil {
		host = strings.TrimSpace(r.RemoteAddr)
	}
	if host == "" {
		return "unknown"
	}
	return host
}

type limiterEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// httpRateLimiter keeps one token bucket per client key; a bucket holds a
// full minute of requests. Idle buckets are dropped once the map grows.
type httpRateLimiter struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	perMin   int
	now      func() time.Time
	limiters map[string]*limiterEntry
}

func newHTTPRateLimiter(perMin int) *httpRateLimiter {
	if perMin <= 0 {
		perMin = 60
	}
	return &httpRateLimiter{
		limit:    rate.Every(time.Minute / time.Duration(perMin)),
		burst:    perMin,
		perMin:   perMin,
		now:      time.Now,
		limiters: make(map[string]*limiterEntry),
	}
}

func (l *httpRateLimiter) Allow(key string) bool {
	if l == nil {
		return true
	}
	if key == "" {
		key = "default"
	}

	l.mu.Lock()
	now := l.now()
	e, ok := l.limiters[key]
	if !ok {
		if len(l.limiters) >= maxTrackedLimiters {
			l.evictIdle(now)
		}
		e = &limiterEntry{lim: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[key] = e
	}
	e.lastSeen = now
	l.mu.Unlock()

	return e.lim.AllowN(now, 1)
}

func (l *httpRateLimiter) evictIdle(now time.Time) {
	for k, e := range l.limiters {
		if now.Sub(e.lastSeen) > limiterIdleTTL {
			delete(l.limiters, k)
		}
	}
}

func (l *httpRateLimiter) tracked() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}

// retryAfterSecs is the time for one token to refill, at least a second.
func (l *httpRateLimiter) retryAfterSecs() int {
	secs := 60 / l.perMin
	if secs < 1 {
		return 1
	}
	return secs
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
