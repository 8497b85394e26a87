package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/foodgram/foodgram/backend/internal/logger"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// RateLimitConfig defines configuration for rate limiting
type RateLimitConfig struct {
	// Window is the time window for rate limiting
	Window time.Duration
	// Limit is the maximum number of requests allowed in the window
	Limit int
	// Key prefix for Redis keys
	KeyPrefix string
}

// RateLimiter counts requests in Redis when a client is configured. Without
// one it keeps a token bucket per key in process memory, which only holds
// for a single API instance. Buckets idle for a full window are dropped.
type RateLimiter struct {
	redis  *redis.Client
	config RateLimitConfig

	mu        sync.Mutex
	buckets   map[string]*bucketEntry
	lastSweep time.Time
}

type bucketEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter creates a new rate limiter instance. A nil client selects
// the in-process limiter.
func NewRateLimiter(redisClient *redis.Client, config RateLimitConfig) *RateLimiter {
	return &RateLimiter{
		redis:   redisClient,
		config:  config,
		buckets: make(map[string]*bucketEntry),
	}
}

// NewRecipeCreationRateLimiter limits how many recipes a user may publish per hour.
func NewRecipeCreationRateLimiter(redisClient *redis.Client, perHour int) *RateLimiter {
	return NewRateLimiter(redisClient, RateLimitConfig{
		Window:    time.Hour,
		Limit:     perHour,
		KeyPrefix: "rate_limit:recipe_creation",
	})
}

// RateLimitMiddleware enforces the limit per authenticated user. It must run
// after AuthMiddleware. Redis failures let the request through.
func (rl *RateLimiter) RateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get(userIDKey)
		if !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "authentication credentials were not provided"})
			return
		}

		allowed, remaining, resetTime, err := rl.IsAllowed(c.Request.Context(), fmt.Sprintf("%v", userID))
		if err != nil {
			logger.Warn(c.Request.Context()).Err(err).Msg("rate limit check failed")
			c.Header("X-RateLimit-Error", "rate limit check failed")
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(rl.config.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(resetTime.Unix(), 10))

		if !allowed {
			retryAfter := int(time.Until(resetTime).Seconds())
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"detail":      fmt.Sprintf("rate limit of %d requests per %v exceeded", rl.config.Limit, rl.config.Window),
				"retry_after": retryAfter,
			})
			return
		}

		c.Next()
	}
}

// IsAllowed counts a request from key in the current fixed window.
// Returns: allowed, remaining requests, reset time, error
func (rl *RateLimiter) IsAllowed(ctx context.Context, key string) (bool, int, time.Time, error) {
	if rl.redis == nil {
		allowed, remaining, reset := rl.allowLocal(key, time.Now())
		return allowed, remaining, reset, nil
	}

	windowStart := time.Now().Truncate(rl.config.Window)
	redisKey := fmt.Sprintf("%s:%s:%d", rl.config.KeyPrefix, key, windowStart.Unix())

	pipe := rl.redis.Pipeline()
	incrCmd := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, rl.config.Window)

	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, time.Time{}, err
	}

	count := int(incrCmd.Val())
	remaining := rl.config.Limit - count
	if remaining < 0 {
		remaining = 0
	}

	return count <= rl.config.Limit, remaining, windowStart.Add(rl.config.Window), nil
}

// allowLocal refills Limit tokens per Window, so the bucket allows the same
// sustained rate as the Redis window but smooths bursts across it.
func (rl *RateLimiter) allowLocal(key string, now time.Time) (bool, int, time.Time) {
	rl.mu.Lock()
	if now.Sub(rl.lastSweep) >= rl.config.Window {
		rl.sweep(now)
	}
	entry, ok := rl.buckets[key]
	if !ok {
		every := rl.config.Window / time.Duration(max(rl.config.Limit, 1))
		entry = &bucketEntry{limiter: rate.NewLimiter(rate.Every(every), rl.config.Limit)}
		rl.buckets[key] = entry
	}
	entry.lastSeen = now
	bucket := entry.limiter
	rl.mu.Unlock()

	r := bucket.ReserveN(now, 1)
	if !r.OK() {
		return false, 0, now.Add(rl.config.Window)
	}
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return false, 0, now.Add(delay)
	}

	remaining := int(bucket.TokensAt(now))
	if remaining < 0 {
		remaining = 0
	}
	return true, remaining, now.Add(rl.config.Window)
}

// sweep drops buckets untouched for a whole window. Such a bucket has
// refilled completely, so a fresh one behaves the same. Caller holds mu.
func (rl *RateLimiter) sweep(now time.Time) {
	for key, entry := range rl.buckets {
		if now.Sub(entry.lastSeen) >= rl.config.Window {
			delete(rl.buckets, key)
		}
	}
	rl.lastSweep = now
}
