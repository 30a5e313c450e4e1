package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const limiterIdleTTL = 10 * time.Minute

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// rateLimiter keeps one token bucket per client IP and action.
type rateLimiter struct {
	mu      sync.Mutex
	entries map[string]*limiterEntry
	sweptAt time.Time
}

func newRateLimiter() *rateLimiter {
	return &rateLimiter{entries: make(map[string]*limiterEntry)}
}

func (l *rateLimiter) allow(key string, rps float64, burst int) bool {
	if rps <= 0 {
		return true
	}
	now := time.Now()
	l.mu.Lock()
	defer l.mu.Unlock()
	if now.Sub(l.sweptAt) > limiterIdleTTL {
		for k, e := range l.entries {
			if now.Sub(e.lastSeen) > limiterIdleTTL {
				delete(l.entries, k)
			}
		}
		l.sweptAt = now
	}
	entry, ok := l.entries[key]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(rate.Limit(rps), burst)}
		l.entries[key] = entry
	}
	entry.lastSeen = now
	return entry.limiter.Allow()
}

func (s *Server) enforceRateLimit(c *gin.Context, action string) bool {
	rps := s.cfg.JoinRoomRPS
	burst := 10
	if action == "create" {
		rps = s.cfg.CreateRoomRPS
		burst = 3
	}
	if s.limiter.allow(action+"|"+c.ClientIP(), rps, burst) {
		return true
	}
	log.Warn().Str("action", action).Str("ip", c.ClientIP()).Msg("rate limited")
	c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many requests, slow down"})
	return false
}

// newSocketLimiter throttles inbound frames on one websocket.
func newSocketLimiter() *rate.Limiter {
	return rate.NewLimiter(20, 40)
}
