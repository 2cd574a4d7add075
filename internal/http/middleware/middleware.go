package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/healthcheck"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/rs/xid"

	"docrender/internal/config"
	"docrender/internal/infra/logging"
	"docrender/internal/infra/ratelimit"
)

const (
	HealthPath    = "/ops/health"
	ReadinessPath = "/ops/ready"
)

// Register attaches the global middleware chain to app.
func Register(app *fiber.App, cfg config.Config) {
	app.Use(cors.New())

	app.Use(requestid.New(requestid.Config{
		Generator: func() string {
			return xid.New().String()
		},
	}))

	app.Use(healthcheck.New(healthcheck.Config{
		LivenessEndpoint:  HealthPath,
		ReadinessEndpoint: ReadinessPath,
	}))

	if cfg.RateLimiter.UserLimit > 0 {
		store := ratelimit.NewStore(ratelimit.RedisConfig{
			Addr: cfg.Cache.RedisHost,
			DB:   cfg.Cache.RateLimitDB,
		})
		app.Use(userRateLimit(cfg.RateLimiter.UserLimit, cfg.RateLimiter.Interval, store))
	}

	app.Use(requestLog())
}

func clientKey(c *fiber.Ctx) string {
	sum := sha256.Sum256([]byte(c.IP() + c.Get(fiber.HeaderUserAgent)))
	return hex.EncodeToString(sum[:])
}

// userRateLimit limits requests per client (IP and user agent).
func userRateLimit(max int, interval time.Duration, store fiber.Storage) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:               max,
		Expiration:        interval,
		LimiterMiddleware: limiter.SlidingWindow{},
		Storage:           store,
		KeyGenerator:      clientKey,
		LimitReached: func(c *fiber.Ctx) error {
			logging.Warn("Rate limit exceeded", "user", clientKey(c), "path", c.Path())
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": fiber.Map{
					"code":    fiber.StatusTooManyRequests,
					"message": "Too Many Requests",
				},
			})
		},
	})
}

func requestLog() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		logging.Info("Request handled",
			"method", c.Method(),
			"path", c.Path(),
			"status", c.Response().StatusCode(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", c.GetRespHeader(fiber.HeaderXRequestID),
		)
		return err
	}
}
