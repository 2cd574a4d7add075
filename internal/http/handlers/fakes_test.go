package handlers

import (
	"context"
	"errors"
	"sync"
	"time"

	"docrender/internal/config"
	"docrender/internal/export"
	"docrender/internal/render"
)

func testPDFCfg() config.Config {
	cfg := config.Default()
	cfg.Limits.MaxHTMLBytes = 1024 * 1024
	cfg.Limits.MaxPDFBytes = 1024 * 1024
	cfg.Cache.PDFCacheEnabled = true
	cfg.Cache.PDFCacheTTL = time.Minute
	return cfg
}

type renderCall struct {
	source  string
	url     bool
	cfg     render.RenderConfig
	timeout time.Duration
}

type fakeRenderer struct {
	mu    sync.Mutex
	out   []byte
	err   error
	calls []renderCall
}

func (f *fakeRenderer) result(call renderCall) (render.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	if f.err != nil {
		return render.Result{}, f.err
	}
	out := f.out
	if out == nil {
		out = []byte("%PDF-1.7 fake")
	}
	return render.Result{Bytes: out, SizeBytes: len(out)}, nil
}

func (f *fakeRenderer) RenderHTML(_ context.Context, html string, cfg render.RenderConfig, timeout time.Duration) (render.Result, error) {
	return f.result(renderCall{source: html, cfg: cfg, timeout: timeout})
}

func (f *fakeRenderer) RenderURL(_ context.Context, url string, cfg render.RenderConfig, timeout time.Duration) (render.Result, error) {
	return f.result(renderCall{source: url, url: true, cfg: cfg, timeout: timeout})
}

func (f *fakeRenderer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeExporter struct {
	doc export.Document
	err error
	ids []string
}

func (f *fakeExporter) Export(_ context.Context, id string) (export.Document, error) {
	f.ids = append(f.ids, id)
	return f.doc, f.err
}

var errEngine = errors.New("net::ERR_CONNECTION_REFUSED at chrome-internal://secret")
