package chrome

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/chromedp"

	"docrender/internal/infra/logging"
	"docrender/internal/render"
)

// DefaultStartTimeout bounds how long a single browser start may take.
const DefaultStartTimeout = 20 * time.Second

var _ render.Launcher = (*Launcher)(nil)

// Launcher starts one Chromium process per Launch through chromedp's exec
// allocator. Each process gets a private profile directory.
type Launcher struct {
	// UserDataDir is the parent of per-process profile dirs. Empty means os.TempDir().
	UserDataDir  string
	StartTimeout time.Duration
}

// Launch starts a browser and waits until it accepts commands.
func (l *Launcher) Launch(ctx context.Context, profile render.LaunchProfile) (render.Session, error) {
	profileDir, err := createProfileDir(l.UserDataDir)
	if err != nil {
		return nil, err
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocatorOptions(profile, profileDir)...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	timeout := l.StartTimeout
	if timeout <= 0 {
		timeout = DefaultStartTimeout
	}
	// The first Run allocates the browser; its context must not carry a
	// deadline or the process dies with it.
	if err := runUntil(ctx, timeout, browserCtx); err != nil {
		browserCancel()
		allocCancel()
		_ = os.RemoveAll(profileDir)
		return nil, fmt.Errorf("cannot start chrome: %w", err)
	}

	logging.Debug("Chrome started", "profile_dir", profileDir, "exec_path", profile.ExecutablePath)
	return &session{
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
		profileDir:    profileDir,
	}, nil
}

// runUntil runs actions on a chromedp context and gives up when ctx is done
// or timeout elapses.
func runUntil(ctx context.Context, timeout time.Duration, cdpCtx context.Context, actions ...chromedp.Action) error {
	done := make(chan error, 1)
	go func() { done <- chromedp.Run(cdpCtx, actions...) }()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return context.DeadlineExceeded
	}
}

func allocatorOptions(profile render.LaunchProfile, profileDir string) []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserDataDir(profileDir),
		chromedp.Flag("headless", profile.Headless),
	)
	if profile.ExecutablePath != "" {
		opts = append(opts, chromedp.ExecPath(profile.ExecutablePath))
	}
	for _, arg := range profile.Arguments {
		name, value, ok := parseFlag(arg)
		if !ok {
			logging.Warn("Ignoring launch argument", "arg", arg)
			continue
		}
		opts = append(opts, chromedp.Flag(name, value))
	}
	if profile.Viewport != nil {
		opts = append(opts, chromedp.WindowSize(profile.Viewport.Width, profile.Viewport.Height))
	}
	return opts
}

// parseFlag splits "--name=value" or "--name" into a chromedp flag.
func parseFlag(arg string) (string, any, bool) {
	if !strings.HasPrefix(arg, "-") {
		return "", nil, false
	}
	arg = strings.TrimLeft(arg, "-")
	if arg == "" {
		return "", nil, false
	}
	if name, value, found := strings.Cut(arg, "="); found {
		return name, value, true
	}
	return arg, true, true
}

func createProfileDir(base string) (string, error) {
	if base == "" {
		base = os.TempDir()
	}
	if err := os.MkdirAll(base, 0o700); err != nil {
		return "", fmt.Errorf("cannot create profile base dir: %w", err)
	}
	dir, err := os.MkdirTemp(base, "chrome-profile-*")
	if err != nil {
		return "", fmt.Errorf("cannot create profile dir: %w", err)
	}
	return dir, nil
}

// session owns one browser process and its profile directory.
type session struct {
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
	profileDir    string

	closeOnce sync.Once
	closeErr  error
}

func (s *session) NewPage(ctx context.Context) (render.Page, error) {
	t, err := openPage(ctx, s.browserCtx)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// Close shuts the browser down gracefully, then kills whatever is left and
// removes the profile directory. It is idempotent.
func (s *session) Close() error {
	s.closeOnce.Do(func() {
		var errs []error
		if err := chromedp.Cancel(s.browserCtx); err != nil && !errors.Is(err, context.Canceled) {
			errs = append(errs, fmt.Errorf("close browser: %w", err))
		}
		s.browserCancel()
		s.allocCancel()
		if err := os.RemoveAll(s.profileDir); err != nil {
			errs = append(errs, fmt.Errorf("remove profile dir: %w", err))
		}
		s.closeErr = errors.Join(errs...)
	})
	return s.closeErr
}
