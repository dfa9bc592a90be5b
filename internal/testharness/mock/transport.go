// Package mock provides a scriptable firmware transport for testing.
package mock

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/legion-toolkit/legion-core/pkg/firmware"
)

// Transport is a scriptable in-memory firmware. Channels are keyed by
// their selector binding (ACPI method path or EC register); unbound
// selectors behave like registers holding zero.
//
// Transport asserts one-call-at-a-time: if two firmware round-trips
// ever overlap, calls after the overlap fail loudly. The register
// access layer's serialization guarantee is verified by driving a
// Transport from many goroutines.
type Transport struct {
	mu sync.Mutex

	// values holds the current value per selector key.
	values map[string]uint64

	// indexed holds per-argument read values for query channels whose
	// argument selects a sensor (thermal: 0 CPU, 1 GPU).
	indexed map[string]map[uint64]uint64

	// refuse marks selector keys the firmware rejects outright.
	refuse map[string]bool

	// silent marks selector keys that never answer (timeout path).
	silent map[string]bool

	// calls counts round-trips per selector key.
	calls map[string]int

	// totalCalls counts every round-trip.
	totalCalls int

	// writes records every write in order, for assertions.
	writes []Write

	// inFlight detects overlapping round-trips.
	inFlight atomic.Int32

	// overlapped latches when an overlap was observed.
	overlapped atomic.Bool
}

// Write records one write round-trip.
type Write struct {
	Key string
	Arg uint64
}

// NewTransport creates an empty mock firmware.
func NewTransport() *Transport {
	return &Transport{
		values:  make(map[string]uint64),
		indexed: make(map[string]map[uint64]uint64),
		refuse:  make(map[string]bool),
		silent:  make(map[string]bool),
		calls:   make(map[string]int),
	}
}

// Key renders the selector key used by the scripting methods: the ACPI
// method path when present, otherwise the EC register in hex.
func Key(sel firmware.Selector) string {
	if sel.HasMethod() {
		return sel.Method
	}
	return fmt.Sprintf("ec:0x%04x", sel.Register)
}

// Set scripts the current value of a selector key.
func (t *Transport) Set(key string, value uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.values[key] = value
}

// SetIndexed scripts the read value of a selector key for one specific
// query argument.
func (t *Transport) SetIndexed(key string, arg, value uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.indexed[key] == nil {
		t.indexed[key] = make(map[uint64]uint64)
	}
	t.indexed[key][arg] = value
}

// Refuse scripts a selector key to be rejected by the firmware.
func (t *Transport) Refuse(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.refuse[key] = true
}

// Silence scripts a selector key to never answer.
func (t *Transport) Silence(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.silent[key] = true
}

// Calls returns the number of round-trips against a selector key.
func (t *Transport) Calls(key string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.calls[key]
}

// TotalCalls returns the number of round-trips against any key.
func (t *Transport) TotalCalls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.totalCalls
}

// Writes returns the recorded writes in order.
func (t *Transport) Writes() []Write {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Write, len(t.writes))
	copy(out, t.writes)
	return out
}

// Value returns the current value of a selector key.
func (t *Transport) Value(key string) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.values[key]
}

// Overlapped reports whether two round-trips ever executed
// concurrently. The access layer must keep this false.
func (t *Transport) Overlapped() bool {
	return t.overlapped.Load()
}

// Execute implements firmware.Transport.
func (t *Transport) Execute(ctx context.Context, op firmware.Op, sel firmware.Selector, arg uint64) (uint64, error) {
	if t.inFlight.Add(1) != 1 {
		t.overlapped.Store(true)
	}
	defer t.inFlight.Add(-1)

	key := Key(sel)

	t.mu.Lock()
	defer t.mu.Unlock()

	t.calls[key]++
	t.totalCalls++

	switch {
	case t.silent[key]:
		return 0, firmware.ErrNoResponse
	case t.refuse[key]:
		return 0, firmware.ErrRefused
	}

	if op == firmware.OpWrite {
		t.values[key] = arg
		t.writes = append(t.writes, Write{Key: key, Arg: arg})
		return arg, nil
	}
	if byArg, ok := t.indexed[key]; ok {
		if v, ok := byArg[arg]; ok {
			return v, nil
		}
	}
	return t.values[key], nil
}

// Compile-time interface satisfaction check.
var _ firmware.Transport = (*Transport)(nil)
