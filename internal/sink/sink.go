package sink

import (
	"context"
	"fmt"

	"go.uber.org/multierr"

	"github.com/hamed0406/netwatch/internal/domain"
	"github.com/hamed0406/netwatch/internal/history"
)

// Sink persists cycle reports. Write must not mutate the report.
type Sink interface {
	Name() string
	Write(ctx context.Context, report domain.CycleReport) error
}

// Renderer turns a cycle report plus the recent history into a human view.
type Renderer interface {
	Name() string
	Render(ctx context.Context, report domain.CycleReport, view history.View) error
}

// Closer is implemented by sinks and renderers holding resources released at shutdown.
type Closer interface {
	Close() error
}

// WriteError is a sink or renderer failure for one cycle. It never stops the monitor.
type WriteError struct {
	Sink string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("sink %s: %v", e.Sink, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// CloseAll closes every value implementing Closer and combines the errors.
func CloseAll(items ...any) error {
	var err error
	for _, it := range items {
		if c, ok := it.(Closer); ok {
			err = multierr.Append(err, c.Close())
		}
	}
	return err
}
