package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// DefaultLimiterIdleTTL is how long a client's bucket survives without
// requests before it is evicted.
const DefaultLimiterIdleTTL = 10 * time.Minute

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiterStore keeps one token bucket per client key. Buckets idle for
// longer than idleTTL are swept out at most once per idleTTL.
type RateLimiterStore struct {
	limiters     map[string]*limiterEntry
	mu           sync.Mutex
	defaultRate  rate.Limit
	defaultBurst int
	idleTTL      time.Duration
	lastSweep    time.Time
	now          func() time.Time
}

func NewRateLimiterStore(defaultRate rate.Limit, defaultBurst int, idleTTL time.Duration) *RateLimiterStore {
	if idleTTL <= 0 {
		idleTTL = DefaultLimiterIdleTTL
	}
	s := &RateLimiterStore{
		limiters:     make(map[string]*limiterEntry),
		defaultRate:  defaultRate,
		defaultBurst: defaultBurst,
		idleTTL:      idleTTL,
		now:          time.Now,
	}
	s.lastSweep = s.now()
	return s
}

func (s *RateLimiterStore) GetLimiter(key string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if now.Sub(s.lastSweep) >= s.idleTTL {
		s.evictIdle(now)
	}

	entry, exists := s.limiters[key]
	if !exists {
		entry = &limiterEntry{limiter: rate.NewLimiter(s.defaultRate, s.defaultBurst)}
		s.limiters[key] = entry
	}
	entry.lastSeen = now
	return entry.limiter
}

// evictIdle must be called with mu held.
func (s *RateLimiterStore) evictIdle(now time.Time) {
	for key, entry := range s.limiters {
		if now.Sub(entry.lastSeen) >= s.idleTTL {
			delete(s.limiters, key)
		}
	}
	s.lastSweep = now
}

func (s *RateLimiterStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.limiters)
}

// RateLimit answers 429 once a client IP exhausts its bucket.
func RateLimit(store *RateLimiterStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !store.GetLimiter(c.ClientIP()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"message": "Too many requests"})
			return
		}
		c.Next()
	}
}
