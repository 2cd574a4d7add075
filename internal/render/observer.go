package render

import "time"

// Source identifies where rendered content came from.
type Source string

const (
	SourceHTML Source = "html"
	SourceURL  Source = "url"
)

// Observer receives render lifecycle events. Implementations must be safe
// for concurrent use.
type Observer interface {
	LaunchAttempt(attempt int, err error)
	RenderFinished(src Source, elapsed time.Duration, err error)
}

// NopObserver discards all events.
type NopObserver struct{}

func (NopObserver) LaunchAttempt(int, error)                    {}
func (NopObserver) RenderFinished(Source, time.Duration, error) {}
