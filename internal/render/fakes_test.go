package render

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

type eventLog struct {
	mu     sync.Mutex
	events []string
}

func (l *eventLog) add(e string) {
	l.mu.Lock()
	l.events = append(l.events, e)
	l.mu.Unlock()
}

func (l *eventLog) list() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.events...)
}

type fakePage struct {
	log *eventLog

	viewport    Viewport
	content     string
	url         string
	opts        PDFOptions
	loadErr     error
	hangOnLoad  bool
	fontsErr    error
	pdf         []byte
	pdfErr      error
	closeErr    error
	closeCalls  atomic.Int32
	printFromIn bool
}

func (p *fakePage) SetViewport(_ context.Context, v Viewport) error {
	p.viewport = v
	return nil
}

func (p *fakePage) load(ctx context.Context) error {
	if p.hangOnLoad {
		<-ctx.Done()
		return ctx.Err()
	}
	return p.loadErr
}

func (p *fakePage) SetContent(ctx context.Context, html string) error {
	p.content = html
	return p.load(ctx)
}

func (p *fakePage) Navigate(ctx context.Context, url string) error {
	p.url = url
	return p.load(ctx)
}

func (p *fakePage) WaitForFonts(context.Context) error { return p.fontsErr }

func (p *fakePage) PrintToPDF(_ context.Context, opts PDFOptions) ([]byte, error) {
	p.opts = opts
	if p.pdfErr != nil {
		return nil, p.pdfErr
	}
	if p.printFromIn {
		return []byte("%PDF-1.7 " + p.content), nil
	}
	return p.pdf, nil
}

func (p *fakePage) Close() error {
	p.closeCalls.Add(1)
	if p.log != nil {
		p.log.add("page closed")
	}
	return p.closeErr
}

type fakeSession struct {
	log *eventLog

	page       *fakePage
	newPageErr error
	closeErr   error
	closeCalls atomic.Int32
}

func (s *fakeSession) NewPage(context.Context) (Page, error) {
	if s.newPageErr != nil {
		return nil, s.newPageErr
	}
	return s.page, nil
}

func (s *fakeSession) Close() error {
	s.closeCalls.Add(1)
	if s.log != nil {
		s.log.add("session closed")
	}
	return s.closeErr
}

// fakeLauncher fails the first failures launches, then returns sessions from
// newSession.
type fakeLauncher struct {
	failures   int
	err        error
	calls      atomic.Int32
	newSession func() *fakeSession
	profiles   []LaunchProfile
	mu         sync.Mutex
}

var errLaunch = errors.New("chrome failed to start")

func (l *fakeLauncher) Launch(_ context.Context, p LaunchProfile) (Session, error) {
	n := int(l.calls.Add(1))
	l.mu.Lock()
	l.profiles = append(l.profiles, p)
	l.mu.Unlock()
	if l.failures < 0 || n <= l.failures {
		if l.err != nil {
			return nil, l.err
		}
		return nil, errLaunch
	}
	return l.newSession(), nil
}

// waitRecorder replaces the real backoff sleep.
type waitRecorder struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (w *waitRecorder) wait(ctx context.Context, d time.Duration) error {
	w.mu.Lock()
	w.waits = append(w.waits, d)
	w.mu.Unlock()
	return ctx.Err()
}

func (w *waitRecorder) total() time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()
	var sum time.Duration
	for _, d := range w.waits {
		sum += d
	}
	return sum
}

type recordingObserver struct {
	mu       sync.Mutex
	attempts []error
	renders  []error
	sources  []Source
}

func (o *recordingObserver) LaunchAttempt(_ int, err error) {
	o.mu.Lock()
	o.attempts = append(o.attempts, err)
	o.mu.Unlock()
}

func (o *recordingObserver) RenderFinished(src Source, _ time.Duration, err error) {
	o.mu.Lock()
	o.renders = append(o.renders, err)
	o.sources = append(o.sources, src)
	o.mu.Unlock()
}

func localProfile() LaunchProfile {
	return LaunchProfileFor(Environment{Local: true}, nil)
}

func newTestManager(l Launcher, w *waitRecorder, opts ...ManagerOption) *ProcessManager {
	m := NewProcessManager(l, localProfile, opts...)
	if w != nil {
		m.wait = w.wait
	}
	return m
}
