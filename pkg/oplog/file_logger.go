package oplog

import (
	"io"
	"os"
	"sync"

	"github.com/fxamacker/cbor/v2"
	"gopkg.in/natefinch/lumberjack.v2"
)

// sinkLogger serializes CBOR event writes onto one WriteCloser. Both
// file-backed loggers share it; only the sink construction differs.
type sinkLogger struct {
	mu      sync.Mutex
	sink    io.WriteCloser
	encoder *cbor.Encoder
	closed  bool
}

func (l *sinkLogger) init(sink io.WriteCloser) {
	l.sink = sink
	l.encoder = NewEncoder(sink)
}

// Log appends one event. Encoding failures are dropped: tracing must
// never stall a register operation.
func (l *sinkLogger) Log(event Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	_ = l.encoder.Encode(event)
}

// Close closes the sink. Log calls after Close are no-ops; calling
// Close again returns nil.
func (l *sinkLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	return l.sink.Close()
}

// FileLogger appends trace events to a plain file, one canonical CBOR
// record per event. Reader replays the file.
type FileLogger struct {
	sinkLogger
}

// NewFileLogger opens path for appending, creating it with mode 0644
// when absent.
func NewFileLogger(path string) (*FileLogger, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	l := &FileLogger{}
	l.init(f)
	return l, nil
}

// RotatingLogger is the FileLogger variant for long-running daemons:
// tracing every register operation grows a plain file without bound, so
// the sink rotates by size instead.
type RotatingLogger struct {
	sinkLogger
}

// NewRotatingLogger writes to path, rotating at maxSizeMB megabytes and
// keeping maxBackups rotated files.
func NewRotatingLogger(path string, maxSizeMB, maxBackups int) *RotatingLogger {
	l := &RotatingLogger{}
	l.init(&lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
	})
	return l
}

// Compile-time interface satisfaction checks.
var (
	_ Logger = (*FileLogger)(nil)
	_ Logger = (*RotatingLogger)(nil)
)
