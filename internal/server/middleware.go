package server

import (
	"context"
	"crypto/subtle"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/middleware"
	"github.com/go-kratos/kratos/v2/transport"
	khttp "github.com/go-kratos/kratos/v2/transport/http"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	v1 "movies/api/movies/v1"
	"movies/internal/conf"
)

const RequestIDHeader = "X-Request-Id"

var ErrRateLimited = errors.New(http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED", "rate limit exceeded")

type requestIDKey struct{}

// RequestIDFromContext returns the id assigned by RequestID.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// RequestIDValuer adds the request id to log lines written with a request
// context.
func RequestIDValuer() log.Valuer {
	return func(ctx context.Context) interface{} {
		return RequestIDFromContext(ctx)
	}
}

// RequestID keeps the caller's X-Request-Id or assigns a new one, and echoes
// it on the reply.
func RequestID() middleware.Middleware {
	return func(handler middleware.Handler) middleware.Handler {
		return func(ctx context.Context, req interface{}) (interface{}, error) {
			tr, ok := transport.FromServerContext(ctx)
			if !ok {
				return handler(ctx, req)
			}
			id := tr.RequestHeader().Get(RequestIDHeader)
			if id == "" {
				id = uuid.NewString()
			}
			tr.ReplyHeader().Set(RequestIDHeader, id)
			return handler(context.WithValue(ctx, requestIDKey{}, id), req)
		}
	}
}

// AuthMiddleware validates the Bearer token on write operations. An empty
// token disables the check.
func AuthMiddleware(token string) middleware.Middleware {
	return func(handler middleware.Handler) middleware.Handler {
		return func(ctx context.Context, req interface{}) (interface{}, error) {
			if token == "" {
				return handler(ctx, req)
			}
			tr, ok := transport.FromServerContext(ctx)
			if !ok {
				return nil, errors.Unauthorized("UNAUTHORIZED", "missing transport info")
			}
			if !v1.WriteOperations[tr.Operation()] {
				return handler(ctx, req)
			}

			authHeader := tr.RequestHeader().Get("Authorization")
			if authHeader == "" {
				return nil, errors.Unauthorized("UNAUTHORIZED", "missing Authorization header")
			}
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				return nil, errors.Unauthorized("UNAUTHORIZED", "invalid Authorization header format")
			}
			if subtle.ConstantTimeCompare([]byte(parts[1]), []byte(token)) != 1 {
				return nil, errors.Unauthorized("UNAUTHORIZED", "invalid token")
			}
			return handler(ctx, req)
		}
	}
}

const (
	limiterSweepInterval = time.Minute
	limiterIdleTimeout   = 3 * time.Minute
)

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// clientLimiter hands out one token bucket per client IP. Idle clients are
// forgotten by allow itself, at most once per limiterSweepInterval.
type clientLimiter struct {
	mu        sync.Mutex
	clients   map[string]*client
	rps       rate.Limit
	burst     int
	lastSweep time.Time
}

func newClientLimiter(rps float64, burst int) *clientLimiter {
	return &clientLimiter{
		clients: make(map[string]*client),
		rps:     rate.Limit(rps),
		burst:   burst,
	}
}

func (l *clientLimiter) allow(ip string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.lastSweep.IsZero() {
		l.lastSweep = now
	} else if now.Sub(l.lastSweep) >= limiterSweepInterval {
		l.sweep(now, limiterIdleTimeout)
		l.lastSweep = now
	}

	c, found := l.clients[ip]
	if !found {
		c = &client{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.clients[ip] = c
	}
	c.lastSeen = now
	return c.limiter.AllowN(now, 1)
}

// sweep forgets clients idle for longer than idle. Callers hold mu.
func (l *clientLimiter) sweep(now time.Time, idle time.Duration) {
	for ip, c := range l.clients {
		if now.Sub(c.lastSeen) > idle {
			delete(l.clients, ip)
		}
	}
}

// RateLimit rejects clients exceeding the configured rate with 429.
func RateLimit(c *conf.Limiter) middleware.Middleware {
	if !c.GetEnabled() {
		return func(handler middleware.Handler) middleware.Handler { return handler }
	}
	l := newClientLimiter(c.Rps, c.Burst)

	return func(handler middleware.Handler) middleware.Handler {
		return func(ctx context.Context, req interface{}) (interface{}, error) {
			r, ok := khttp.RequestFromServerContext(ctx)
			if !ok {
				return handler(ctx, req)
			}
			if !l.allow(clientIP(r), time.Now()) {
				return nil, ErrRateLimited
			}
			return handler(ctx, req)
		}
	}
}

func clientIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
