// Package ratelimit implements fixed-window rate limiting on Redis.
//
// Counters are keyed by (category, identifier, window start) and expire one
// hour past the window's end. The check-then-increment runs as a single Lua
// script so two concurrent requests from the same identifier cannot push
// the counter past the limit; the store's atomicity is the correctness
// mechanism, there is no in-process lock.
//
// The limiter fails open: no configured store, or any store error other
// than "limit reached", permits the request. Availability wins over strict
// enforcement.
package ratelimit

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// Result is the outcome of a rate-limit check.
type Result struct {
	Allowed bool
	// RetryAfter is the number of seconds until the current window ends,
	// minimum 1. Only set when Allowed is false.
	RetryAfter int
}

// Checker is the limiter interface handlers depend on.
type Checker interface {
	Check(ctx context.Context, category, identifier string, maxRequests int, window time.Duration) Result
}

// incrScript increments the window counter only while it is below the
// limit. Returns -1 when the limit has been reached, else the new count.
var incrScript = redis.NewScript(`
local current = tonumber(redis.call("GET", KEYS[1]) or "0")
if current >= tonumber(ARGV[1]) then
  return -1
end
current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return current
`)

// Limiter is a fixed-window rate limiter backed by Redis. A nil Limiter or
// a Limiter with no client always allows.
type Limiter struct {
	rdb *redis.Client
	now func() time.Time
}

// New creates a limiter. rdb may be nil, in which case every check passes.
func New(rdb *redis.Client) *Limiter {
	return &Limiter{rdb: rdb, now: time.Now}
}

func (l *Limiter) Check(ctx context.Context, category, identifier string, maxRequests int, window time.Duration) Result {
	if l == nil || l.rdb == nil {
		return Result{Allowed: true}
	}

	now := l.now()
	windowMs := window.Milliseconds()
	windowStart := now.UnixMilli() / windowMs * windowMs
	windowEnd := windowStart + windowMs

	key := fmt.Sprintf("ratelimit:%s:%s:%d", category, identifier, windowStart)
	// Keys self-delete an hour past the window end so abandoned counters
	// do not accumulate.
	ttlMs := windowEnd - now.UnixMilli() + time.Hour.Milliseconds()

	count, err := incrScript.Run(ctx, l.rdb, []string{key}, maxRequests, ttlMs).Int64()
	if err != nil {
		log.Printf("[RATELIMIT] check failed for %s:%s, failing open: %v", category, identifier, err)
		return Result{Allowed: true}
	}

	if count < 0 {
		retryAfter := int((windowEnd - now.UnixMilli() + 999) / 1000)
		if retryAfter < 1 {
			retryAfter = 1
		}
		return Result{Allowed: false, RetryAfter: retryAfter}
	}

	return Result{Allowed: true}
}
