// Package ratelimit provides the storage behind the HTTP rate limiter.
package ratelimit

import (
	"github.com/gofiber/fiber/v2"
	memoryStorage "github.com/gofiber/storage/memory/v2"
	redisStorage "github.com/gofiber/storage/redis/v2"

	"docrender/internal/infra/logging"
)

type RedisConfig struct {
	Addr string
	DB   int
}

// NewStore returns Redis-backed storage when Addr is reachable and an
// in-process memory store otherwise. It never returns nil.
func NewStore(cfg RedisConfig) (store fiber.Storage) {
	store = memoryStorage.New()
	if cfg.Addr == "" {
		logging.Info("Using in-memory store for rate limiting")
		return store
	}

	// redis storage panics when the server cannot be reached at startup.
	defer func() {
		if r := recover(); r != nil {
			logging.Error("Redis limiter store init panicked, falling back to memory", "panic", r)
		}
	}()
	store = redisStorage.New(redisStorage.Config{
		Addrs:    []string{cfg.Addr},
		Database: cfg.DB,
	})
	logging.Info("Using Redis for rate limiting", "addr", cfg.Addr, "db", cfg.DB)
	return store
}
