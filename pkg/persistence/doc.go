// Package persistence provides runtime state persistence for the
// hardware-control daemon.
//
// This package handles the JSON serialization of runtime state (last
// applied fan and power modes) that should be restored after a daemon
// restart. Only caller intent is persisted; probed facts like the
// generation and capability set are re-derived at every attach.
package persistence
