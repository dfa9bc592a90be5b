package oplog

// Logger receives trace events from the register and lifecycle layers.
// Implementations must be safe for concurrent use and must return
// quickly: Log is called inside the serialized register path, so a slow
// logger stalls hardware access.
type Logger interface {
	Log(event Event)
}

// NoopLogger discards every event. The zero value is ready to use;
// components treat it the same as a nil Logger.
type NoopLogger struct{}

// Log discards the event.
func (NoopLogger) Log(Event) {}

// MultiLogger fans each event out to several loggers, in order. The
// daemon uses it to trace to a file and mirror onto slog at once.
type MultiLogger struct {
	loggers []Logger
}

// NewMultiLogger combines the given loggers into one.
func NewMultiLogger(loggers ...Logger) *MultiLogger {
	return &MultiLogger{loggers: loggers}
}

// Log forwards the event to every configured logger.
func (m *MultiLogger) Log(event Event) {
	for _, l := range m.loggers {
		l.Log(event)
	}
}

// Compile-time interface satisfaction checks.
var (
	_ Logger = NoopLogger{}
	_ Logger = (*MultiLogger)(nil)
)
