package main

import (
	"docrender/internal/config"
	"docrender/internal/infra/chrome"
	"docrender/internal/render"
)

// browserSetup derives launch profiles from the render config. Renders and
// diagnostics share one resolver so a finished download is visible to both.
type browserSetup struct {
	cfg      config.RenderConfig
	resolver *chrome.BundledBrowser
}

func newBrowserSetup(cfg config.RenderConfig) *browserSetup {
	return &browserSetup{
		cfg:      cfg,
		resolver: &chrome.BundledBrowser{Path: cfg.BrowserBin, DownloadDir: cfg.DownloadDir},
	}
}

// profile is evaluated on every launch and may fetch the bundled browser.
func (b *browserSetup) profile() render.LaunchProfile {
	return b.profileWith(b.resolver)
}

// describe reports the profile from what is already resolved. It never downloads.
func (b *browserSetup) describe() render.LaunchProfile {
	return b.profileWith(render.ResolverFunc(b.resolver.Resolved))
}

// An explicit browser_bin (or CHROME_BIN) also pins the binary for local runs.
func (b *browserSetup) profileWith(r render.BrowserResolver) render.LaunchProfile {
	env := b.cfg.Environment()
	p := render.LaunchProfileFor(env, r)
	if !env.IsServerless() && b.cfg.BrowserBin != "" {
		p.ExecutablePath = b.cfg.BrowserBin
	}
	return p
}

func (b *browserSetup) newRenderer(obs render.Observer) *render.Renderer {
	launcher := &chrome.Launcher{UserDataDir: b.cfg.UserDataDir, StartTimeout: b.cfg.StartTimeout}
	sessions := render.NewProcessManager(launcher, b.profile,
		render.WithMaxRetries(b.cfg.LaunchRetries),
		render.WithBackoff(b.cfg.LaunchBackoff),
		render.WithManagerObserver(obs),
	)
	return render.NewRenderer(sessions, render.WithObserver(obs))
}
