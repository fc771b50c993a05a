package server

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"logpanel/internal/apperr"
	"logpanel/internal/auth"
)

const claimsContextKey = "claims"

// limiterTTL is how long an idle client keeps its token bucket.
const limiterTTL = 15 * time.Minute

// rateLimiter keeps one token bucket per client IP. Buckets idle for longer
// than ttl are swept at most once per ttl.
type rateLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*clientLimiter
	rate      rate.Limit
	burst     int
	ttl       time.Duration
	lastSweep time.Time
	now       func() time.Time
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newRateLimiter(requestsPerMinute, burst int) *rateLimiter {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 1
	}
	if burst <= 0 {
		burst = 1
	}
	return &rateLimiter{
		limiters: make(map[string]*clientLimiter),
		rate:     rate.Every(time.Minute / time.Duration(requestsPerMinute)),
		burst:    burst,
		ttl:      limiterTTL,
		now:      time.Now,
	}
}

func (rl *rateLimiter) get(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.lastSweep) >= rl.ttl {
		for key, cl := range rl.limiters {
			if now.Sub(cl.lastSeen) >= rl.ttl {
				delete(rl.limiters, key)
			}
		}
		rl.lastSweep = now
	}

	cl, ok := rl.limiters[ip]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.limiters[ip] = cl
	}
	cl.lastSeen = now
	return cl.limiter
}

func (rl *rateLimiter) size() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limiters)
}

func (rl *rateLimiter) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if ip == "" {
			ip = c.RemoteIP()
		}
		if !rl.get(ip).Allow() {
			respondError(c, apperr.TooManyRequests("rate limit exceeded"))
			return
		}
		c.Next()
	}
}

// requireAuth accepts requests carrying a bearer token that svc issued.
func requireAuth(svc *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			respondError(c, apperr.Unauthorized("unauthorized"))
			return
		}
		claims, err := svc.Verify(strings.TrimSpace(token))
		if err != nil {
			respondError(c, apperr.Unauthorized("unauthorized"))
			return
		}
		c.Set(claimsContextKey, claims)
		c.Next()
	}
}

// respondError writes err as an AppError body and aborts the chain.
func respondError(c *gin.Context, err error) {
	appErr := apperr.From(err)
	if appErr.Code >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(appErr.Code, gin.H{"error": appErr.Message})
}
