package handlers

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"docrender/internal/render"
)

func TestHandleRenderProfile(t *testing.T) {
	cfg := testPDFCfg().Render
	cfg.Serverless = true
	profile := func() render.LaunchProfile {
		return render.LaunchProfileFor(cfg.Environment(), render.ResolverFunc(func() string { return "/opt/chromium" }))
	}

	app := fiber.New()
	app.Get("/profile", HandleRenderProfile(cfg, profile))

	resp, err := app.Test(httptest.NewRequest("GET", "/profile", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body struct {
		Environment string               `json:"environment"`
		Profile     render.LaunchProfile `json:"profile"`
		Viewport    render.Viewport      `json:"viewport"`
		TimeoutMS   int                  `json:"timeout_ms"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Environment != "serverless" || body.Profile.ExecutablePath != "/opt/chromium" || !body.Profile.Headless {
		t.Fatalf("unexpected profile response %+v", body)
	}
	if body.Viewport != render.RenderViewport || body.TimeoutMS != 30000 {
		t.Fatalf("unexpected render settings %+v", body)
	}
}
