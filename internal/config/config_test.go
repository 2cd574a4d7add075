package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"docrender/internal/render"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "cfg.yaml")
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return p
}

func TestLoadFrom_Valid(t *testing.T) {
	p := writeConfig(t, `server:
  host: "127.0.0.1"
  port: ":9000"
cache:
  pdf_cache_enabled: true
  pdf_cache_ttl: 10m
  redis_host: "redis:6379"
render:
  timeout_ms: 5000
  launch_retries: 5
  launch_backoff: 250ms
  format: letter
  orientation: Landscape
  margin: 1in
  print_background: false
postgres:
  host: db
  database: forms
  user: app
`)
	cfg, err := LoadFrom(p)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Server.Port != ":9000" || cfg.Cache.PDFCacheTTL != 10*time.Minute {
		t.Fatalf("unexpected server/cache config: %+v %+v", cfg.Server, cfg.Cache)
	}
	if cfg.Render.Timeout() != 5*time.Second || cfg.Render.LaunchRetries != 5 || cfg.Render.LaunchBackoff != 250*time.Millisecond {
		t.Fatalf("unexpected render config: %+v", cfg.Render)
	}
	doc := cfg.Render.Document()
	if doc.Format != render.FormatLetter || doc.Orientation != render.Landscape || doc.Margins.Left != "1in" || doc.PrintBackground {
		t.Fatalf("unexpected document config: %+v", doc)
	}
	if cfg.Postgres.Port != 5432 || !cfg.Postgres.Enabled() {
		t.Fatalf("expected postgres defaults kept: %+v", cfg.Postgres)
	}
	if cfg.Limits.MaxHTMLBytes == 0 {
		t.Fatalf("expected default limits to survive partial file")
	}
}

func TestLoadFrom_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Render.Timeout() != 30*time.Second || cfg.Render.LaunchRetries != 3 || cfg.Render.LaunchBackoff != time.Second {
		t.Fatalf("unexpected defaults: %+v", cfg.Render)
	}
	if cfg.Cache.PDFCacheTTL != time.Minute {
		t.Fatalf("expected 1m pdf cache ttl, got %v", cfg.Cache.PDFCacheTTL)
	}
	if cfg.Render.Document() != render.DefaultRenderConfig() {
		t.Fatalf("expected default document config, got %+v", cfg.Render.Document())
	}
}

func TestLoadFrom_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		yml  string
	}{
		{name: "bad yaml", yml: "render: [\n"},
		{name: "zero timeout", yml: "render:\n  timeout_ms: 0\n"},
		{name: "zero retries", yml: "render:\n  launch_retries: 0\n"},
		{name: "negative backoff", yml: "render:\n  launch_backoff: -1s\n"},
		{name: "bad format", yml: "render:\n  format: B0\n"},
		{name: "bad margin", yml: "render:\n  margin: wide\n"},
		{name: "negative user limit", yml: "rate_limiter:\n  user_limit: -1\n"},
		{name: "limit without interval", yml: "rate_limiter:\n  user_limit: 5\n  interval: 0s\n"},
		{name: "zero export attempts", yml: "render:\n  export_attempts: 0\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := LoadFrom(writeConfig(t, tc.yml)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestLoad_UsesConfigPathEnv(t *testing.T) {
	p := writeConfig(t, "render:\n  timeout_ms: 1234\n")
	t.Setenv("CONFIG_PATH", p)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Render.TimeoutMS != 1234 {
		t.Fatalf("expected CONFIG_PATH to be used")
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"CHROME_BIN":               "/usr/bin/chromium",
		"REDIS_HOST":               "cache:6379",
		"AWS_LAMBDA_FUNCTION_NAME": "export-pdf",
	}
	lookup := func(k string) (string, bool) { v, ok := env[k]; return v, ok }

	cfg := Default()
	applyEnv(&cfg, lookup)
	if cfg.Render.BrowserBin != "/usr/bin/chromium" || cfg.Cache.RedisHost != "cache:6379" {
		t.Fatalf("unexpected overrides: %+v", cfg)
	}
	if !cfg.Render.Environment().IsServerless() {
		t.Fatalf("expected platform marker to select serverless")
	}

	env["DOCRENDER_LOCAL"] = "true"
	applyEnv(&cfg, lookup)
	if cfg.Render.Environment().IsServerless() {
		t.Fatalf("expected DOCRENDER_LOCAL to win")
	}

	env["DOCRENDER_SERVERLESS"] = "false"
	env["DOCRENDER_LOCAL"] = "not-a-bool"
	cfg = Default()
	applyEnv(&cfg, lookup)
	if cfg.Render.Serverless || cfg.Render.Local {
		t.Fatalf("expected explicit false to override marker and invalid bool ignored: %+v", cfg.Render)
	}
}
