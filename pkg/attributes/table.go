package attributes

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/legion-toolkit/legion-core/pkg/generation"
	"github.com/legion-toolkit/legion-core/pkg/registers"
)

// Table is the name-indexed attribute registry for one device context.
// Reads of distinct attributes take no table-wide lock beyond the map
// lookup; serialization of the hardware round-trip itself lives in the
// register access layer.
type Table struct {
	mu     sync.RWMutex
	attrs  map[string]*Attribute
	order  []string
	caps   generation.Capabilities
	logger *slog.Logger
}

// NewTable creates an empty table gated by the given capability set.
func NewTable(caps generation.Capabilities, logger *slog.Logger) *Table {
	return &Table{
		attrs:  make(map[string]*Attribute),
		caps:   caps,
		logger: logger,
	}
}

// Add registers an attribute. Names are unique.
func (t *Table) Add(a *Attribute) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.attrs[a.meta.Name]; ok {
		return fmt.Errorf("duplicate attribute %q", a.meta.Name)
	}
	t.attrs[a.meta.Name] = a
	t.order = append(t.order, a.meta.Name)
	return nil
}

// Names returns the attribute names in registration order.
func (t *Table) Names() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// Get returns an attribute by name.
func (t *Table) Get(name string) (*Attribute, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	a, ok := t.attrs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return a, nil
}

// Read returns the current value of an attribute: int64 for integer
// types, string for flag sets. An attribute whose backing capability is
// absent fails Unsupported.
func (t *Table) Read(ctx context.Context, name string) (any, error) {
	a, err := t.Get(name)
	if err != nil {
		return nil, err
	}
	if !capEnabled(t.caps, a.meta.Capability) {
		return nil, fmt.Errorf("%w: %s requires %s capability",
			registers.ErrUnsupported, name, a.meta.Capability)
	}
	return a.back.read(ctx)
}

// Write applies a value to a writable attribute. Check order: access,
// then capability gate, then range rule; only then does the register
// operation run. Nothing reaches the hardware when validation fails.
func (t *Table) Write(ctx context.Context, name string, v uint64) error {
	a, err := t.Get(name)
	if err != nil {
		return err
	}
	if !a.meta.Access.CanWrite() {
		return fmt.Errorf("%w: %s", ErrReadOnly, name)
	}
	if !capEnabled(t.caps, a.meta.Capability) {
		return fmt.Errorf("%w: %s requires %s capability",
			registers.ErrUnsupported, name, a.meta.Capability)
	}
	if v < a.meta.Min || v > a.meta.Max {
		return fmt.Errorf("%w: %s must be in [%d, %d], got %d",
			registers.ErrInvalidArgument, name, a.meta.Min, a.meta.Max, v)
	}
	if err := a.back.write(ctx, v); err != nil {
		return err
	}
	if t.logger != nil {
		t.logger.Debug("attribute written",
			slog.String("attribute", name),
			slog.Uint64("value", v))
	}
	return nil
}

// LastWritten returns the cached last successfully written value of an
// attribute, when its backing keeps one (power_mode, fan_mode).
func (t *Table) LastWritten(name string) (uint64, bool) {
	a, err := t.Get(name)
	if err != nil {
		return 0, false
	}
	rb, ok := a.back.(*registerBacking)
	if !ok {
		return 0, false
	}
	return rb.lastWritten()
}

// capEnabled resolves a capability gate name against the capability
// set. Unknown gate names are closed.
func capEnabled(caps generation.Capabilities, name string) bool {
	switch name {
	case "":
		return true
	case "thermal":
		return caps.Thermal
	case "fan":
		return caps.Fan
	case "rgb":
		return caps.RGB
	case "power":
		return caps.Power
	case "battery":
		return caps.Battery
	case "custom":
		return caps.CustomMode
	default:
		return false
	}
}
