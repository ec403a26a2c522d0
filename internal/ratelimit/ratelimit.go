// Package ratelimit throttles unauthenticated endpoints per client IP using
// fixed windows stored in Redis.
package ratelimit

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/nekogravitycat/crm-backend/internal/logger"
)

const defaultPrefix = "crm:ratelimit"

// Limiter counts hits per key inside a window.
type Limiter struct {
	client *redis.Client
	limit  int
	window time.Duration
	prefix string
	now    func() time.Time
}

// New returns a limiter allowing limit hits per window. A nil client yields
// a limiter that allows everything.
func New(client *redis.Client, limit int, window time.Duration) *Limiter {
	return &Limiter{
		client: client,
		limit:  limit,
		window: window,
		prefix: defaultPrefix,
		now:    time.Now,
	}
}

// Result describes the state of a key after a hit.
type Result struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// Allow records a hit for key and reports whether it is within the limit.
func (l *Limiter) Allow(ctx context.Context, key string) (Result, error) {
	if l == nil || l.client == nil || l.limit <= 0 || l.window <= 0 {
		return Result{Allowed: true}, nil
	}

	bucket := l.now().UnixNano() / int64(l.window)
	redisKey := fmt.Sprintf("%s:%s:%d", l.prefix, key, bucket)

	count, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return Result{}, fmt.Errorf("redis incr: %w", err)
	}
	if count == 1 {
		if err := l.client.Expire(ctx, redisKey, l.window).Err(); err != nil {
			return Result{}, fmt.Errorf("redis expire: %w", err)
		}
	}

	if count > int64(l.limit) {
		windowEnd := time.Unix(0, (bucket+1)*int64(l.window))
		return Result{Allowed: false, RetryAfter: windowEnd.Sub(l.now())}, nil
	}
	return Result{Allowed: true, Remaining: l.limit - int(count)}, nil
}

// Middleware rejects requests over the limit with 429. Each route and client
// IP gets its own window. Redis failures let the request through.
func (l *Limiter) Middleware(scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := scope + ":" + c.FullPath() + ":" + c.ClientIP()
		res, err := l.Allow(c.Request.Context(), key)
		if err != nil {
			logger.WithContext(c.Request.Context()).Warn("rate limiter unavailable", zap.String("scope", scope), zap.Error(err))
			c.Next()
			return
		}

		if !res.Allowed {
			seconds := int(res.RetryAfter.Round(time.Second) / time.Second)
			if seconds < 1 {
				seconds = 1
			}
			c.Header("Retry-After", strconv.Itoa(seconds))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Too many requests, please try again later.",
			})
			return
		}
		if l != nil && l.client != nil {
			c.Header("X-RateLimit-Limit", strconv.Itoa(l.limit))
			c.Header("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		}
		c.Next()
	}
}

// NewClient connects to Redis and verifies the connection.
func NewClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}
