package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"docrender/internal/config"
	"docrender/internal/export"
	"docrender/internal/http/server"
	"docrender/internal/infra/logging"
	"docrender/internal/infra/metrics"
	"docrender/internal/infra/postgres"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP rendering service",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		obs := metrics.NewObserver()
		browsers := newBrowserSetup(cfg.Render)
		renderer := browsers.newRenderer(obs)

		deps := server.Deps{
			Config:   cfg,
			Renderer: renderer,
			Profile:  browsers.describe,
			Metrics:  obs,
		}

		if cfg.Cache.RedisHost != "" {
			rdb := redis.NewClient(&redis.Options{
				Addr: cfg.Cache.RedisHost,
				DB:   cfg.Cache.PDFCacheDB,
			})
			defer rdb.Close()
			deps.Redis = rdb
		}

		if cfg.Postgres.Enabled() {
			dsn, err := postgres.DSN(cfg.Postgres)
			if err != nil {
				return err
			}
			db := postgres.NewDB()
			defer db.Close()
			repo := &postgres.ResponseRepository{DB: db, DSN: dsn}
			deps.Exporter = export.NewService(repo, renderer,
				export.WithAttempts(cfg.Render.ExportAttempts),
				export.WithTimeout(cfg.Render.Timeout()),
				export.WithRenderConfig(cfg.Render.Document()),
			)
		} else {
			logging.Warn("No response database configured, response export disabled")
		}

		logging.Info("Starting docrender",
			"addr", cfg.Server.Host+cfg.Server.Port,
			"environment", cfg.Render.Environment().String(),
			"timeout_ms", cfg.Render.TimeoutMS,
		)

		app := server.New(deps)
		idleConnsClosed := make(chan struct{})
		startServer(app, cfg, idleConnsClosed)
		<-idleConnsClosed
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// startServer starts the Fiber app and blocks until SIGINT or SIGTERM.
func startServer(app *fiber.App, cfg config.Config, idleConnsClosed chan struct{}) {
	go func() {
		if err := app.Listen(cfg.Server.Host + cfg.Server.Port); err != nil {
			logging.Error("Server error", "error", err)
		}
	}()

	sigint := make(chan os.Signal, 1)
	signal.Notify(sigint, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigint)
	<-sigint

	logging.Warn("Shutdown signal received, closing server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logging.Error("Server forced to shutdown", "error", err)
	}

	close(idleConnsClosed)
	logging.Info("Server stopped cleanly")
}
