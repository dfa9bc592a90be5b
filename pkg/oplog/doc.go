// Package oplog provides structured tracing of register operations.
//
// This package defines the Logger interface and Event types for capturing
// hardware-control events: register operations, lifecycle state changes,
// and generation detection outcomes. It is separate from operational
// logging (slog) - the trace provides a complete machine-readable record
// for debugging firmware behavior on a given machine.
//
// # Basic Usage
//
// Components accept a Logger; pass nil or NoopLogger to disable tracing:
//
//	// For development: log to console via slog
//	cfg.Trace = oplog.NewSlogAdapter(slog.Default())
//
//	// For production: write to a rotated binary file
//	cfg.Trace = oplog.NewRotatingLogger("/var/log/legion/trace.clog", 16, 4)
//
//	// Both: use MultiLogger
//	cfg.Trace = oplog.NewMultiLogger(adapter, fileLogger)
//
// # File Format
//
// Trace files use CBOR encoding with integer keys. The legionctl shell's
// trace command reads them back through Reader.
//
// # Redaction
//
// Operations against channels marked sensitive carry no argument value in
// the trace; the Redacted flag is set instead. No such channel exists on
// current hardware, but the contract holds for future write-capable
// security-sensitive channels.
package oplog
