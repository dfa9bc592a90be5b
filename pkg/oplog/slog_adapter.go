package oplog

import (
	"context"
	"log/slog"
)

// SlogAdapter writes trace events to an slog.Logger.
// Useful for development when you want to see register traffic in console.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a new SlogAdapter that writes to the given slog.Logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event to the slog logger at Debug level.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("context_id", event.ContextID),
		slog.String("kind", event.Kind.String()),
	}
	if event.Generation != 0 {
		attrs = append(attrs, slog.Uint64("generation", uint64(event.Generation)))
	}

	switch {
	case event.Op != nil:
		attrs = append(attrs,
			slog.Uint64("channel", uint64(event.Op.Channel)),
			slog.String("op", event.Op.Op),
			slog.Uint64("status", uint64(event.Op.Status)),
		)
		if event.Op.Redacted {
			attrs = append(attrs, slog.Bool("redacted", true))
		} else {
			attrs = append(attrs, slog.Uint64("arg", event.Op.Arg))
		}
		if event.Op.Attempts > 1 {
			attrs = append(attrs, slog.Int("attempts", event.Op.Attempts))
		}
		if event.Op.Error != "" {
			attrs = append(attrs, slog.String("error", event.Op.Error))
		} else {
			attrs = append(attrs, slog.Uint64("result", event.Op.Result))
		}
	case event.State != nil:
		attrs = append(attrs,
			slog.String("entity", event.State.Entity),
			slog.String("old_state", event.State.OldState),
			slog.String("new_state", event.State.NewState),
		)
		if event.State.Reason != "" {
			attrs = append(attrs, slog.String("reason", event.State.Reason))
		}
	case event.Detection != nil:
		attrs = append(attrs, slog.String("confidence", event.Detection.Confidence))
		if event.Detection.Product != "" {
			attrs = append(attrs, slog.String("product", event.Detection.Product))
		}
		if event.Detection.Marker != "" {
			attrs = append(attrs, slog.String("marker", event.Detection.Marker))
		}
	}

	a.logger.LogAttrs(context.Background(), slog.LevelDebug, "hw trace", attrs...)
}

// Compile-time interface satisfaction check.
var _ Logger = (*SlogAdapter)(nil)
