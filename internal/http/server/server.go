package server

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/redis/go-redis/v9"

	"docrender/internal/config"
	"docrender/internal/http/handlers"
	"docrender/internal/http/middleware"
	"docrender/internal/infra/cache"
	"docrender/internal/infra/logging"
	"docrender/internal/infra/metrics"
	"docrender/internal/render"
)

// Deps are the collaborators the HTTP surface is built from. Redis, Exporter
// and Metrics are optional.
// Profile describes the launch profile for diagnostics without resolving a
// browser; nil reports the profile without a bundled browser path.
type Deps struct {
	Config   config.Config
	Redis    *redis.Client
	Renderer handlers.PDFRenderer
	Exporter handlers.Exporter
	Profile  func() render.LaunchProfile
	Metrics  *metrics.Observer
}

// New creates the configured Fiber app.
func New(d Deps) *fiber.App {
	cfg := d.Config
	app := fiber.New(fiber.Config{
		Prefork:               cfg.Server.Prefork,
		DisableStartupMessage: true,
		BodyLimit:             cfg.Limits.MaxHTMLBytes + 64*1024,
		ErrorHandler:          errorHandler,
	})

	middleware.Register(app, cfg)

	if d.Metrics != nil && cfg.Metrics.Enabled {
		path := cfg.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		app.Get(path, adaptor.HTTPHandler(d.Metrics.Handler()))
	}

	var pdfCache *cache.PDFCache
	if d.Redis != nil && cfg.Cache.PDFCacheEnabled {
		pdfCache = cache.New(d.Redis, cfg.Cache.PDFCacheTTL)
	}
	svc := handlers.NewPDFService(cfg, d.Renderer, pdfCache)

	profile := d.Profile
	if profile == nil {
		profile = func() render.LaunchProfile {
			return render.LaunchProfileFor(cfg.Render.Environment(), nil)
		}
	}

	v1 := app.Group("/v1")
	v1.Post("/pdf", svc.HandleConversion)
	v1.Get("/pdf", svc.HandleURLConversion)
	v1.Get("/responses/:id/pdf", handlers.HandleResponseExport(d.Exporter))
	v1.Get("/render/profile", handlers.HandleRenderProfile(cfg.Render, profile))

	// Ensure all responses, including 404s, return JSON
	app.Use(func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusNotFound, "Not Found")
	})

	return app
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := "Internal Server Error"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		msg = fe.Message
	}

	logging.Warn("Request failed", "path", c.Path(), "status", code, "message", msg)

	return c.Status(code).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    code,
			"message": msg,
		},
	})
}
