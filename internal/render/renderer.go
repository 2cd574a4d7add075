package render

import (
	"context"
	"errors"
	"time"

	"docrender/internal/infra/logging"
)

// DefaultTimeout bounds content loading when the caller passes no timeout.
const DefaultTimeout = 30 * time.Second

// Result is a rendered PDF.
type Result struct {
	Bytes     []byte
	SizeBytes int
}

// Renderer produces PDFs. Each call acquires its own session, so a Renderer
// is safe for concurrent use.
type Renderer struct {
	sessions SessionManager
	observer Observer
	viewport Viewport
}

// RendererOption configures a Renderer.
type RendererOption func(*Renderer)

// WithObserver reports every finished render to o.
func WithObserver(o Observer) RendererOption {
	return func(r *Renderer) {
		if o != nil {
			r.observer = o
		}
	}
}

// NewRenderer returns a Renderer that takes sessions from sessions.
func NewRenderer(sessions SessionManager, opts ...RendererOption) *Renderer {
	r := &Renderer{
		sessions: sessions,
		observer: NopObserver{},
		viewport: RenderViewport,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// RenderHTML injects html into a fresh page and prints it.
func (r *Renderer) RenderHTML(ctx context.Context, html string, cfg RenderConfig, timeout time.Duration) (Result, error) {
	return r.render(ctx, SourceHTML, func(ctx context.Context, p Page) error {
		return p.SetContent(ctx, html)
	}, cfg, timeout)
}

// RenderURL navigates a fresh page to url and prints it.
func (r *Renderer) RenderURL(ctx context.Context, url string, cfg RenderConfig, timeout time.Duration) (Result, error) {
	return r.render(ctx, SourceURL, func(ctx context.Context, p Page) error {
		return p.Navigate(ctx, url)
	}, cfg, timeout)
}

func (r *Renderer) render(ctx context.Context, src Source, load func(context.Context, Page) error, cfg RenderConfig, timeout time.Duration) (res Result, err error) {
	start := time.Now()
	defer func() {
		r.observer.RenderFinished(src, time.Since(start), err)
	}()

	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	opts, err := cfg.PDFOptions()
	if err != nil {
		return Result{}, &RenderError{Stage: "configure", Err: err}
	}

	session, err := r.sessions.Acquire(ctx)
	if err != nil {
		var le *LaunchError
		if !errors.As(err, &le) {
			err = &LaunchError{Attempts: 1, Err: err}
		}
		return Result{}, err
	}
	defer r.sessions.Release(session)

	page, err := session.NewPage(ctx)
	if err != nil {
		return Result{}, &RenderError{Stage: "open page", Err: err}
	}
	defer closePage(page)

	if err := page.SetViewport(ctx, r.viewport); err != nil {
		return Result{}, &RenderError{Stage: "set viewport", Err: err}
	}

	budget := loadBudget(ctx, timeout)
	loadCtx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	if err := load(loadCtx, page); err != nil {
		return Result{}, loadFailure(loadCtx, "content load", budget, err)
	}
	if err := page.WaitForFonts(loadCtx); err != nil {
		return Result{}, loadFailure(loadCtx, "font load", budget, err)
	}

	// Printing is bounded only by the caller's context.
	buf, err := page.PrintToPDF(ctx, opts)
	if err != nil {
		return Result{}, &RenderError{Stage: "print", Err: err}
	}
	if len(buf) == 0 {
		return Result{}, &RenderError{Stage: "print", Err: ErrEmptyDocument}
	}

	return Result{Bytes: buf, SizeBytes: len(buf)}, nil
}

// loadBudget is timeout, shortened to the caller's deadline when that comes first.
func loadBudget(ctx context.Context, timeout time.Duration) time.Duration {
	if d, ok := ctx.Deadline(); ok {
		if rem := time.Until(d); rem < timeout {
			return max(rem, 0)
		}
	}
	return timeout
}

func loadFailure(loadCtx context.Context, stage string, timeout time.Duration, err error) error {
	if errors.Is(loadCtx.Err(), context.DeadlineExceeded) {
		return &RenderTimeoutError{Stage: stage, Timeout: timeout, Err: err}
	}
	return &RenderError{Stage: stage, Err: err}
}

func closePage(p Page) {
	if err := p.Close(); err != nil {
		logging.Warn("Page close failed", "error", err)
	}
}
