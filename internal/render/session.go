package render

import (
	"context"
	"time"

	"docrender/internal/infra/logging"
)

// Page is one tab inside a browser session.
type Page interface {
	SetViewport(ctx context.Context, v Viewport) error
	// SetContent replaces the document with html and returns once the
	// network has been quiet for the quiescence window.
	SetContent(ctx context.Context, html string) error
	// Navigate loads url and returns once the network has been quiet for
	// the quiescence window.
	Navigate(ctx context.Context, url string) error
	WaitForFonts(ctx context.Context) error
	PrintToPDF(ctx context.Context, opts PDFOptions) ([]byte, error)
	Close() error
}

// Session owns one browser process.
type Session interface {
	NewPage(ctx context.Context) (Page, error)
	Close() error
}

// Launcher starts a browser process from a profile.
type Launcher interface {
	Launch(ctx context.Context, profile LaunchProfile) (Session, error)
}

// SessionManager hands out browser sessions. Release never fails; a pooled
// implementation may keep the process alive instead of terminating it.
type SessionManager interface {
	Acquire(ctx context.Context) (Session, error)
	Release(s Session)
}

const (
	DefaultMaxRetries = 3
	DefaultBackoff    = time.Second
)

// ProcessManager launches a fresh browser for every Acquire and terminates it
// on Release.
type ProcessManager struct {
	launcher   Launcher
	profile    func() LaunchProfile
	maxRetries int
	backoff    time.Duration
	observer   Observer
	wait       func(ctx context.Context, d time.Duration) error
}

// ManagerOption configures a ProcessManager.
type ManagerOption func(*ProcessManager)

// WithMaxRetries sets the number of launch attempts. Values below 1 are ignored.
func WithMaxRetries(n int) ManagerOption {
	return func(m *ProcessManager) {
		if n >= 1 {
			m.maxRetries = n
		}
	}
}

// WithBackoff sets the base delay; attempt n is followed by a wait of n×d.
func WithBackoff(d time.Duration) ManagerOption {
	return func(m *ProcessManager) {
		if d >= 0 {
			m.backoff = d
		}
	}
}

// WithManagerObserver reports every launch attempt to o.
func WithManagerObserver(o Observer) ManagerOption {
	return func(m *ProcessManager) {
		if o != nil {
			m.observer = o
		}
	}
}

// NewProcessManager builds a manager. profile is evaluated on every Acquire.
func NewProcessManager(l Launcher, profile func() LaunchProfile, opts ...ManagerOption) *ProcessManager {
	m := &ProcessManager{
		launcher:   l,
		profile:    profile,
		maxRetries: DefaultMaxRetries,
		backoff:    DefaultBackoff,
		observer:   NopObserver{},
		wait:       sleepContext,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Acquire launches a browser, retrying failed launches with linear backoff.
func (m *ProcessManager) Acquire(ctx context.Context) (Session, error) {
	profile := m.profile()

	var lastErr error
	for attempt := 1; attempt <= m.maxRetries; attempt++ {
		s, err := m.launcher.Launch(ctx, profile)
		m.observer.LaunchAttempt(attempt, err)
		if err == nil {
			if attempt > 1 {
				logging.Info("Browser launched after retry", "attempt", attempt)
			}
			return s, nil
		}
		lastErr = err
		logging.Warn("Browser launch failed", "attempt", attempt, "max_attempts", m.maxRetries, "error", err)

		if attempt == m.maxRetries {
			break
		}
		if werr := m.wait(ctx, m.backoff*time.Duration(attempt)); werr != nil {
			return nil, &LaunchError{Attempts: attempt, Err: werr}
		}
	}
	return nil, &LaunchError{Attempts: m.maxRetries, Err: lastErr}
}

// Release terminates the browser. Errors are logged and dropped.
func (m *ProcessManager) Release(s Session) {
	if s == nil {
		return
	}
	if err := s.Close(); err != nil {
		logging.Warn("Browser close failed", "error", err)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
