package api

import (
	"context"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// KeyFunc identifies the client a request is charged to.
type KeyFunc func(r *http.Request) string

// ClientIP keys requests by the host part of RemoteAddr.
func ClientIP(r *http.Request) string {
	addr := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(addr); err == nil && host != "" {
		return host
	}
	if addr != "" {
		return addr
	}
	return "unknown"
}

// limiterStore holds one token bucket per client key. Buckets idle longer
// than idleTTL are dropped during a later lookup.
type limiterStore struct {
	mu        sync.Mutex
	entries   map[string]*limiterEntry
	rps       rate.Limit
	burst     int
	idleTTL   time.Duration
	lastSweep time.Time
	now       func() time.Time
}

type limiterEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

func newLimiterStore(rps float64, burst int) *limiterStore {
	return &limiterStore{
		entries: make(map[string]*limiterEntry),
		rps:     rate.Limit(rps),
		burst:   burst,
		idleTTL: 10 * time.Minute,
		now:     time.Now,
	}
}

func (s *limiterStore) get(key string) *rate.Limiter {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if now.Sub(s.lastSweep) >= s.idleTTL {
		cutoff := now.Add(-s.idleTTL)
		for k, e := range s.entries {
			if e.lastSeen.Before(cutoff) {
				delete(s.entries, k)
			}
		}
		s.lastSweep = now
	}

	if e, ok := s.entries[key]; ok {
		e.lastSeen = now
		return e.lim
	}
	lim := rate.NewLimiter(s.rps, s.burst)
	s.entries[key] = &limiterEntry{lim: lim, lastSeen: now}
	return lim
}

func (s *limiterStore) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// RateLimit rejects requests beyond rps (with burst) per client key with
// 429 and a Retry-After header. A nil keyFn keys by ClientIP. Each decision
// is reported to stats when it is non-nil.
func RateLimit(rps float64, burst int, keyFn KeyFunc, stats LimitStats, log *zap.Logger) func(http.Handler) http.Handler {
	if keyFn == nil {
		keyFn = ClientIP
	}
	if log == nil {
		log = zap.NewNop()
	}
	store := newLimiterStore(rps, burst)
	retryAfter := strconv.Itoa(int(math.Max(1, math.Ceil(1/rps))))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := keyFn(r)
			allowed := store.get(key).Allow()
			if stats != nil {
				recordDecision(r.Context(), stats, log, LimitEvent{Key: key, Allowed: allowed, Method: r.Method, At: store.now()})
			}
			if !allowed {
				w.Header().Set("Retry-After", retryAfter)
				writeStatus(w, r, http.StatusTooManyRequests, "Too Many Requests", "Rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func recordDecision(ctx context.Context, stats LimitStats, log *zap.Logger, ev LimitEvent) {
	if err := stats.Record(ctx, ev); err != nil {
		log.Debug("rate limit stats not recorded",
			zap.String("request_id", RequestIDFrom(ctx)),
			zap.Error(err),
		)
	}
}
