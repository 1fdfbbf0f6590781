package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// TokenBucket is a per-user, per-action token bucket backed by Redis.
// State lives in a Redis hash so limits hold across server instances.
type TokenBucket struct {
	redis    *redis.Client
	capacity int64
	refill   int64 // tokens refilled per window
	window   time.Duration
}

// NewTokenBucket creates a token bucket with a one-minute refill window
func NewTokenBucket(redisClient *redis.Client, capacity, refillRate int64) *TokenBucket {
	return &TokenBucket{
		redis:    redisClient,
		capacity: capacity,
		refill:   refillRate,
		window:   time.Minute,
	}
}

func (tb *TokenBucket) key(userID, action string) string {
	return fmt.Sprintf("rate_limit:%s:%s", userID, action)
}

// consumeScript refills the bucket based on elapsed time, then tries to
// take one token. Runs atomically inside Redis.
const consumeScript = `
	local key = KEYS[1]
	local capacity = tonumber(ARGV[1])
	local refill_rate = tonumber(ARGV[2])
	local window = tonumber(ARGV[3])
	local now = tonumber(ARGV[4])

	local bucket = redis.call('HMGET', key, 'tokens', 'last_refill')
	local tokens = tonumber(bucket[1]) or capacity
	local last_refill = tonumber(bucket[2]) or now

	local elapsed = now - last_refill
	local refilled = math.floor((elapsed / window) * refill_rate)
	if refilled > 0 then
		tokens = math.min(capacity, tokens + refilled)
		last_refill = now
	end

	local allowed = 0
	if tokens > 0 then
		tokens = tokens - 1
		allowed = 1
	end

	redis.call('HMSET', key, 'tokens', tokens, 'last_refill', last_refill)
	redis.call('EXPIRE', key, window * 2)
	return allowed
`

// peekScript computes the current token count without consuming
const peekScript = `
	local key = KEYS[1]
	local capacity = tonumber(ARGV[1])
	local refill_rate = tonumber(ARGV[2])
	local window = tonumber(ARGV[3])
	local now = tonumber(ARGV[4])

	local bucket = redis.call('HMGET', key, 'tokens', 'last_refill')
	local tokens = tonumber(bucket[1]) or capacity
	local last_refill = tonumber(bucket[2]) or now

	local elapsed = now - last_refill
	local refilled = math.floor((elapsed / window) * refill_rate)
	if refilled > 0 then
		tokens = math.min(capacity, tokens + refilled)
	end

	return tokens
`

// Allow reports whether the user may perform the action, consuming one
// token when permitted.
func (tb *TokenBucket) Allow(ctx context.Context, userID, action string) (bool, error) {
	result, err := tb.redis.Eval(ctx, consumeScript, []string{tb.key(userID, action)},
		tb.capacity, tb.refill, int64(tb.window.Seconds()), time.Now().Unix()).Result()
	if err != nil {
		return false, fmt.Errorf("rate limit check failed: %w", err)
	}

	allowed, ok := result.(int64)
	if !ok {
		return false, fmt.Errorf("unexpected result type from rate limit script")
	}

	return allowed == 1, nil
}

// GetRemaining returns the number of remaining tokens for a user action
func (tb *TokenBucket) GetRemaining(ctx context.Context, userID, action string) (int64, error) {
	result, err := tb.redis.Eval(ctx, peekScript, []string{tb.key(userID, action)},
		tb.capacity, tb.refill, int64(tb.window.Seconds()), time.Now().Unix()).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get remaining tokens: %w", err)
	}

	remaining, ok := result.(int64)
	if !ok {
		return 0, fmt.Errorf("unexpected result type from remaining tokens script")
	}

	return remaining, nil
}

// Reset clears the rate limit for a specific user action
func (tb *TokenBucket) Reset(ctx context.Context, userID, action string) error {
	return tb.redis.Del(ctx, tb.key(userID, action)).Err()
}
