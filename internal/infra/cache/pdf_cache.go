// Package cache stores rendered PDFs in Redis keyed by source and layout.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"docrender/internal/infra/logging"
	"docrender/internal/render"
)

const (
	keyPrefix  = "pdfcache:"
	DefaultTTL = time.Minute
	opTimeout  = time.Second
)

// PDFCache is a best-effort Redis cache; failures are logged and treated as misses.
type PDFCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// New returns a cache backed by rdb. A non-positive ttl uses DefaultTTL.
func New(rdb *redis.Client, ttl time.Duration) *PDFCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &PDFCache{rdb: rdb, ttl: ttl}
}

// Key derives the cache key for a source (HTML body or URL) rendered with cfg.
func Key(source string, cfg render.RenderConfig) string {
	cfg = cfg.Resolved()
	h := sha256.New()
	h.Write([]byte(source))
	h.Write([]byte{0})
	h.Write([]byte(cfg.Format))
	h.Write([]byte(cfg.Orientation))
	for _, m := range []string{cfg.Margins.Top, cfg.Margins.Bottom, cfg.Margins.Left, cfg.Margins.Right} {
		h.Write([]byte(m))
		h.Write([]byte{0})
	}
	if cfg.PrintBackground {
		h.Write([]byte{1})
	}
	if cfg.PreferCSSPageSize {
		h.Write([]byte{2})
	}
	return keyPrefix + hex.EncodeToString(h.Sum(nil))
}

// Get returns the cached bytes, or nil on a miss.
func (c *PDFCache) Get(ctx context.Context, key string) []byte {
	if c == nil || c.rdb == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	data, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		logging.Warn("Redis read failed", "error", err)
		return nil
	}
	logging.Info("PDF cache hit", "key", key)
	return data
}

// Set stores data under key for the configured TTL.
func (c *PDFCache) Set(ctx context.Context, key string, data []byte) {
	if c == nil || c.rdb == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
		logging.Warn("Redis write failed", "error", err)
	}
}
