package api

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// LimitEvent is one rate limit decision.
type LimitEvent struct {
	Key     string
	Allowed bool
	Method  string
	At      time.Time
}

// LimitStats records rate limit decisions. Failures never affect the request.
type LimitStats interface {
	Record(ctx context.Context, ev LimitEvent) error
}

// RedisLimitStats counts allowed and denied decisions in Redis hashes:
// <prefix>:total is cumulative, <prefix>:minute:<yyyymmddhhmm> expires after TTL.
type RedisLimitStats struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisLimitStats returns a recorder writing under prefix. An empty prefix
// defaults to "employee-contacts:ratelimit"; a non-positive ttl keeps minute
// buckets forever.
func NewRedisLimitStats(rdb *redis.Client, prefix string, ttl time.Duration) *RedisLimitStats {
	prefix = strings.Trim(prefix, ":")
	if prefix == "" {
		prefix = "employee-contacts:ratelimit"
	}
	return &RedisLimitStats{rdb: rdb, prefix: prefix, ttl: ttl}
}

// Record increments the counters for ev in a single pipeline.
func (s *RedisLimitStats) Record(ctx context.Context, ev LimitEvent) error {
	if s == nil || s.rdb == nil {
		return nil
	}

	field := decisionField(ev.Allowed)
	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}

	pipe := s.rdb.Pipeline()
	pipe.HIncrBy(ctx, s.totalKey(), field, 1)
	bucket := s.minuteKey(at)
	pipe.HIncrBy(ctx, bucket, field, 1)
	if s.ttl > 0 {
		pipe.Expire(ctx, bucket, s.ttl)
	}
	if m := strings.TrimSpace(ev.Method); m != "" {
		pipe.HIncrBy(ctx, s.prefix+":method", m+":"+field, 1)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (s *RedisLimitStats) totalKey() string {
	return s.prefix + ":total"
}

func (s *RedisLimitStats) minuteKey(at time.Time) string {
	return s.prefix + ":minute:" + at.UTC().Format("200601021504")
}

func decisionField(allowed bool) string {
	if allowed {
		return "allowed"
	}
	return "denied"
}
