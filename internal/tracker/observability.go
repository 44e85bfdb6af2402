package tracker

import (
	"context"
	"io"
	"log/slog"
)

// RequestEvent records metadata about a single tracker call.
type RequestEvent struct {
	Op        string
	Method    string
	Path      string
	Status    int
	Attempts  int
	LatencyMs int64
	Success   bool
	ErrorCode string
}

// Observer receives events about tracker calls for logging and metrics.
type Observer interface {
	OnRequestComplete(ctx context.Context, event RequestEvent)
}

// LogObserver writes request events through slog.
type LogObserver struct {
	logger *slog.Logger
}

// NewLogObserver creates an Observer that logs events to w.
func NewLogObserver(w io.Writer) *LogObserver {
	return &LogObserver{
		logger: slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})),
	}
}

func (o *LogObserver) OnRequestComplete(ctx context.Context, e RequestEvent) {
	attrs := []any{
		"op", e.Op,
		"method", e.Method,
		"path", e.Path,
		"status", e.Status,
		"attempts", e.Attempts,
		"latency_ms", e.LatencyMs,
	}
	if !e.Success {
		o.logger.WarnContext(ctx, "tracker_call", append(attrs, "error_code", e.ErrorCode)...)
		return
	}
	o.logger.InfoContext(ctx, "tracker_call", attrs...)
}

// NoopObserver discards all events. Useful for tests.
type NoopObserver struct{}

func (NoopObserver) OnRequestComplete(context.Context, RequestEvent) {}

// MultiObserver fans events out to several observers.
type MultiObserver []Observer

func (m MultiObserver) OnRequestComplete(ctx context.Context, e RequestEvent) {
	for _, o := range m {
		if o != nil {
			o.OnRequestComplete(ctx, e)
		}
	}
}
