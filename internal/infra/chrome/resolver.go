package chrome

import (
	"os"
	"sync"

	"github.com/go-rod/rod/lib/launcher"

	"docrender/internal/infra/logging"
	"docrender/internal/render"
)

var _ render.BrowserResolver = (*BundledBrowser)(nil)

// BundledBrowser locates the Chromium binary for serverless runs. A binary
// shipped with the deployment (Path) is preferred; otherwise a Chromium
// build is fetched once into DownloadDir, which must be writable (/tmp on
// most serverless platforms).
type BundledBrowser struct {
	Path        string
	DownloadDir string

	mu       sync.Mutex
	resolved string
	download func(dir string) (string, error)
}

// ExecutablePath returns the binary path, or "" when none can be provided.
func (b *BundledBrowser) ExecutablePath() string {
	if b.Path != "" {
		if _, err := os.Stat(b.Path); err == nil {
			return b.Path
		}
		logging.Warn("Bundled browser not found, falling back to download", "path", b.Path)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.resolved != "" {
		return b.resolved
	}

	fetch := b.download
	if fetch == nil {
		fetch = downloadChromium
	}
	path, err := fetch(b.DownloadDir)
	if err != nil {
		logging.Warn("Bundled browser unavailable", "download_dir", b.DownloadDir, "error", err)
		return ""
	}
	b.resolved = path
	return path
}

// Resolved reports the path ExecutablePath would return without starting a
// download. It is "" until a shipped binary exists or a download finished.
func (b *BundledBrowser) Resolved() string {
	if b.Path != "" {
		if _, err := os.Stat(b.Path); err == nil {
			return b.Path
		}
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.resolved
}

func downloadChromium(dir string) (string, error) {
	rb := launcher.NewBrowser()
	if dir != "" {
		rb.RootDir = dir
	}
	return rb.Get()
}

// LookPath reports the browser chromedp would discover on this host.
func LookPath() (string, bool) {
	return launcher.LookPath()
}
