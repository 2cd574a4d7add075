// Package export turns stored form responses into PDF documents.
package export

import (
	"context"
	"fmt"
	"time"

	"docrender/internal/document"
	"docrender/internal/domain"
	"docrender/internal/infra/logging"
	"docrender/internal/render"
)

// Repository loads form responses.
type Repository interface {
	FindResponse(ctx context.Context, id string) (domain.FormResponse, error)
}

// Renderer prints HTML to PDF.
type Renderer interface {
	RenderHTML(ctx context.Context, html string, cfg render.RenderConfig, timeout time.Duration) (render.Result, error)
}

// Document is an exported PDF and its attachment name.
type Document struct {
	Filename string
	render.Result
}

type Service struct {
	repo     Repository
	renderer Renderer
	config   render.RenderConfig
	timeout  time.Duration
	attempts int
}

type Option func(*Service)

// WithAttempts sets how many times a launch or timeout failure is retried
// as a whole render. Values below 1 are ignored.
func WithAttempts(n int) Option {
	return func(s *Service) {
		if n >= 1 {
			s.attempts = n
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(s *Service) { s.timeout = d }
}

func WithRenderConfig(cfg render.RenderConfig) Option {
	return func(s *Service) { s.config = cfg }
}

func NewService(repo Repository, renderer Renderer, opts ...Option) *Service {
	s := &Service{
		repo:     repo,
		renderer: renderer,
		config:   render.DefaultRenderConfig(),
		timeout:  render.DefaultTimeout,
		attempts: 1,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Export renders the response identified by id. Errors from the repository
// are returned as is (domain.ErrResponseNotFound included); render errors
// keep their render package types.
func (s *Service) Export(ctx context.Context, id string) (Document, error) {
	resp, err := s.repo.FindResponse(ctx, id)
	if err != nil {
		return Document{}, err
	}

	html, err := document.Build(resp)
	if err != nil {
		return Document{}, err
	}

	var res render.Result
	for attempt := 1; ; attempt++ {
		res, err = s.renderer.RenderHTML(ctx, html, s.config, s.timeout)
		if err == nil {
			break
		}
		if !retryable(err) || attempt >= s.attempts || ctx.Err() != nil {
			return Document{}, fmt.Errorf("export %s: %w", id, err)
		}
		logging.Warn("Export render failed, retrying", "response_id", id, "attempt", attempt, "kind", string(render.KindOf(err)), "error", err)
	}

	return Document{Filename: document.Filename(resp), Result: res}, nil
}

func retryable(err error) bool {
	switch render.KindOf(err) {
	case render.KindLaunch, render.KindTimeout:
		return true
	}
	return false
}
