package handlers

import (
	"github.com/gofiber/fiber/v2"

	"docrender/internal/config"
	"docrender/internal/render"
)

// HandleRenderProfile reports the launch profile the next render would use.
// profile is called on every request and must report already resolved state
// rather than locate or fetch a browser.
func HandleRenderProfile(cfg config.RenderConfig, profile func() render.LaunchProfile) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"environment":       cfg.Environment().String(),
			"profile":           profile(),
			"viewport":          render.RenderViewport,
			"timeout_ms":        cfg.TimeoutMS,
			"launch_retries":    cfg.LaunchRetries,
			"launch_backoff_ms": cfg.LaunchBackoff.Milliseconds(),
			"document":          cfg.Document(),
		})
	}
}
