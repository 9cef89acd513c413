package middleware

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// FailPolicy decides what a limited route does when Redis cannot be reached.
type FailPolicy int

const (
	// FailOpen lets the request through.
	FailOpen FailPolicy = iota
	// FailClosed answers 503.
	FailClosed
)

var errNoLimiterStore = errors.New("rate limit store not configured")

// rateLimitEnforced is false for local development and tests.
func rateLimitEnforced() bool {
	switch os.Getenv("APP_ENV") {
	case "", "development", "test":
		return false
	}
	return true
}

func rateLimitKey(resource, id string) string {
	return "rl:" + resource + ":" + id
}

// CheckRateLimit counts one hit for id against resource in a fixed window and
// reports whether id is still within limit.
func CheckRateLimit(ctx context.Context, rdb *redis.Client, resource, id string, limit int, window time.Duration) (bool, error) {
	if !rateLimitEnforced() {
		return true, nil
	}
	if rdb == nil {
		return false, errNoLimiterStore
	}

	key := rateLimitKey(resource, id)
	hits, err := rdb.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if hits == 1 {
		// The first hit opens the window.
		if err := rdb.Expire(ctx, key, window).Err(); err != nil {
			return false, err
		}
	}
	return hits <= int64(limit), nil
}

// limiterIdentity keys logged-in users by id and everyone else by address.
func limiterIdentity(c *fiber.Ctx) string {
	if uid, ok := c.Locals("userID").(uint); ok {
		return "user:" + strconv.FormatUint(uint64(uid), 10)
	}
	return "ip:" + c.IP()
}

// RateLimit allows limit requests per window on a route and fails open.
func RateLimit(rdb *redis.Client, limit int, window time.Duration, name string) fiber.Handler {
	return RateLimitWithPolicy(rdb, limit, window, FailOpen, name)
}

// RateLimitWithPolicy is RateLimit with an explicit FailPolicy.
func RateLimitWithPolicy(rdb *redis.Client, limit int, window time.Duration, policy FailPolicy, name string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		allowed, err := CheckRateLimit(ctx, rdb, name, limiterIdentity(c), limit, window)
		switch {
		case err != nil && policy == FailClosed:
			Logger.WarnContext(ctx, "rate limit store unavailable",
				slog.String("limit", name), slog.String("error", err.Error()))
			return fiber.NewError(fiber.StatusServiceUnavailable, "Please try again later.")
		case err != nil:
			Logger.DebugContext(ctx, "rate limit skipped",
				slog.String("limit", name), slog.String("error", err.Error()))
		case !allowed:
			return fiber.NewError(fiber.StatusTooManyRequests, "Too many requests, please try again later.")
		}
		return c.Next()
	}
}
