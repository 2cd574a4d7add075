package render

import (
	"errors"
	"fmt"
	"time"
)

// ErrEmptyDocument is wrapped in a RenderError when the engine returns no bytes.
var ErrEmptyDocument = errors.New("engine returned an empty document")

// LaunchError means no browser session could be started within the retry budget.
type LaunchError struct {
	Attempts int
	Err      error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("browser launch failed after %d attempt(s): %v", e.Attempts, e.Err)
}

func (e *LaunchError) Unwrap() error { return e.Err }

// RenderTimeoutError means content did not become ready before the load timeout.
type RenderTimeoutError struct {
	Stage   string
	Timeout time.Duration
	Err     error
}

func (e *RenderTimeoutError) Error() string {
	return fmt.Sprintf("%s did not complete within %s: %v", e.Stage, e.Timeout, e.Err)
}

func (e *RenderTimeoutError) Unwrap() error { return e.Err }

// RenderError is any other engine failure while producing the document.
type RenderError struct {
	Stage string
	Err   error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// ErrorKind is the structured failure category exposed to callers.
type ErrorKind string

const (
	KindNone    ErrorKind = ""
	KindLaunch  ErrorKind = "launch"
	KindTimeout ErrorKind = "timeout"
	KindRender  ErrorKind = "render"
	KindUnknown ErrorKind = "unknown"
)

// KindOf classifies err.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindNone
	}
	var le *LaunchError
	if errors.As(err, &le) {
		return KindLaunch
	}
	var te *RenderTimeoutError
	if errors.As(err, &te) {
		return KindTimeout
	}
	var re *RenderError
	if errors.As(err, &re) {
		return KindRender
	}
	return KindUnknown
}
