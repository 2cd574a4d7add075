package chrome

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"docrender/internal/render"
)

// QuiescenceWindow is how long the network must stay idle before content
// counts as loaded.
const QuiescenceWindow = 500 * time.Millisecond

// openTimeout bounds target creation when the caller has no deadline.
const openTimeout = 10 * time.Second

type tab struct {
	ctx    context.Context
	cancel context.CancelFunc
	idle   *idleTracker

	closeOnce sync.Once
	closeErr  error
}

func openPage(ctx context.Context, browserCtx context.Context) (*tab, error) {
	tabCtx, cancel := chromedp.NewContext(browserCtx)
	if err := runUntil(ctx, openTimeout, tabCtx, network.Enable()); err != nil {
		cancel()
		return nil, fmt.Errorf("cannot open tab: %w", err)
	}

	t := &tab{ctx: tabCtx, cancel: cancel, idle: newIdleTracker()}
	chromedp.ListenTarget(tabCtx, func(ev any) {
		switch e := ev.(type) {
		case *network.EventRequestWillBeSent:
			t.idle.started(string(e.RequestID))
		case *network.EventLoadingFinished:
			t.idle.finished(string(e.RequestID))
		case *network.EventLoadingFailed:
			t.idle.finished(string(e.RequestID))
		}
	})
	return t, nil
}

// bind derives a context from the tab that also ends when ctx ends.
func (t *tab) bind(ctx context.Context) (context.Context, context.CancelFunc) {
	runCtx, cancel := context.WithCancel(t.ctx)
	if deadline, ok := ctx.Deadline(); ok {
		var cancelDeadline context.CancelFunc
		runCtx, cancelDeadline = context.WithDeadline(runCtx, deadline)
		inner := cancel
		cancel = func() { cancelDeadline(); inner() }
	}
	stop := context.AfterFunc(ctx, cancel)
	return runCtx, func() {
		stop()
		cancel()
	}
}

func (t *tab) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := t.bind(ctx)
	defer cancel()
	return chromedp.Run(runCtx, actions...)
}

func (t *tab) SetViewport(ctx context.Context, v render.Viewport) error {
	return t.run(ctx, chromedp.EmulateViewport(int64(v.Width), int64(v.Height), chromedp.EmulateScale(v.DeviceScaleFactor)))
}

func (t *tab) SetContent(ctx context.Context, html string) error {
	t.idle.reset()
	err := t.run(ctx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frame, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frame.Frame.ID, html).Do(ctx)
		}),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if err != nil {
		return err
	}
	return t.idle.wait(ctx, QuiescenceWindow)
}

func (t *tab) Navigate(ctx context.Context, url string) error {
	t.idle.reset()
	if err := t.run(ctx, chromedp.Navigate(url)); err != nil {
		return err
	}
	return t.idle.wait(ctx, QuiescenceWindow)
}

func (t *tab) WaitForFonts(ctx context.Context) error {
	var status string
	return t.run(ctx, chromedp.Evaluate(`document.fonts.ready.then(() => document.fonts.status)`, &status,
		func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
			return p.WithAwaitPromise(true)
		}))
}

func (t *tab) PrintToPDF(ctx context.Context, opts render.PDFOptions) ([]byte, error) {
	var buf []byte
	err := t.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		buf, _, err = page.PrintToPDF().
			WithPaperWidth(opts.PaperWidth).
			WithPaperHeight(opts.PaperHeight).
			WithMarginTop(opts.MarginTop).
			WithMarginBottom(opts.MarginBottom).
			WithMarginLeft(opts.MarginLeft).
			WithMarginRight(opts.MarginRight).
			WithLandscape(opts.Landscape).
			WithPrintBackground(opts.PrintBackground).
			WithPreferCSSPageSize(opts.PreferCSSPageSize).
			WithDisplayHeaderFooter(false).
			Do(ctx)
		return err
	}))
	if err != nil {
		return nil, err
	}
	return buf, nil
}

// Close closes the tab target. It is idempotent.
func (t *tab) Close() error {
	t.closeOnce.Do(func() {
		t.closeErr = chromedp.Cancel(t.ctx)
		t.cancel()
	})
	return t.closeErr
}

// idleTracker counts in-flight requests of one tab.
type idleTracker struct {
	mu         sync.Mutex
	inflight   map[string]struct{}
	lastChange time.Time
}

func newIdleTracker() *idleTracker {
	return &idleTracker{inflight: make(map[string]struct{}), lastChange: time.Now()}
}

func (t *idleTracker) reset() {
	t.mu.Lock()
	t.inflight = make(map[string]struct{})
	t.lastChange = time.Now()
	t.mu.Unlock()
}

func (t *idleTracker) started(id string) {
	t.mu.Lock()
	t.inflight[id] = struct{}{}
	t.lastChange = time.Now()
	t.mu.Unlock()
}

func (t *idleTracker) finished(id string) {
	t.mu.Lock()
	if _, ok := t.inflight[id]; ok {
		delete(t.inflight, id)
		t.lastChange = time.Now()
	}
	t.mu.Unlock()
}

func (t *idleTracker) quietFor() (int, time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.inflight), time.Since(t.lastChange)
}

// wait returns once no request has been in flight for window.
func (t *idleTracker) wait(ctx context.Context, window time.Duration) error {
	tick := window / 10
	if tick <= 0 {
		tick = time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()
	for {
		if n, quiet := t.quietFor(); n == 0 && quiet >= window {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
