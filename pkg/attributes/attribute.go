package attributes

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/legion-toolkit/legion-core/pkg/firmware"
	"github.com/legion-toolkit/legion-core/pkg/registers"
	"github.com/legion-toolkit/legion-core/pkg/thermal"
)

// Attribute errors.
var (
	ErrNotFound = errors.New("attribute not found")
	ErrReadOnly = errors.New("attribute is read-only")
)

// Access flags for attributes.
type Access uint8

const (
	// AccessRead allows reading the attribute.
	AccessRead Access = 1 << iota

	// AccessWrite allows writing the attribute.
	AccessWrite

	// AccessReadOnly is read only.
	AccessReadOnly = AccessRead

	// AccessReadWrite is read and write.
	AccessReadWrite = AccessRead | AccessWrite
)

// CanRead returns true if reading is allowed.
func (a Access) CanRead() bool { return a&AccessRead != 0 }

// CanWrite returns true if writing is allowed.
func (a Access) CanWrite() bool { return a&AccessWrite != 0 }

// String returns the access flags as a string.
func (a Access) String() string {
	var s string
	if a.CanRead() {
		s += "R"
	}
	if a.CanWrite() {
		s += "W"
	}
	if s == "" {
		return "-"
	}
	return s
}

// Type represents the type of an attribute value.
type Type uint8

const (
	TypeUnknown Type = iota

	// TypeInt is a plain integer value.
	TypeInt

	// TypeEnum is an integer restricted to a contiguous range.
	TypeEnum

	// TypeFlagSet is a string of space-separated name:value pairs.
	TypeFlagSet
)

// String returns the type name.
func (t Type) String() string {
	switch t {
	case TypeInt:
		return "int"
	case TypeEnum:
		return "enum"
	case TypeFlagSet:
		return "flagset"
	default:
		return "unknown"
	}
}

// Metadata describes an attribute's properties.
type Metadata struct {
	// Name is the unique attribute name.
	Name string

	// Type is the value type.
	Type Type

	// Access is the permitted access.
	Access Access

	// Min and Max bound writable integer values, inclusive.
	Min, Max uint64

	// Capability names the capability flag gating this attribute
	// (thermal, fan, rgb, power, battery, custom). Empty means ungated.
	Capability string

	// Unit is the optional value unit for display.
	Unit string

	// Description is the human-readable description.
	Description string
}

// backing reads and writes the attribute's value. Values are int64 for
// integer types and string for flag sets.
type backing interface {
	read(ctx context.Context) (any, error)
	write(ctx context.Context, v uint64) error
}

// Attribute binds metadata to a backing.
type Attribute struct {
	meta Metadata
	back backing
}

// Metadata returns the attribute's metadata.
func (a *Attribute) Metadata() Metadata { return a.meta }

// Executor performs register operations. *registers.Controller
// satisfies it.
type Executor interface {
	Execute(ctx context.Context, op registers.Operation) (uint64, error)
}

// cachedBacking holds a fixed or internally-updated value.
type cachedBacking struct {
	mu    sync.Mutex
	value any
}

func (c *cachedBacking) read(context.Context) (any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value, nil
}

func (c *cachedBacking) write(context.Context, uint64) error {
	return ErrReadOnly
}

// funcBacking computes the value on every read.
type funcBacking struct {
	fn func(ctx context.Context) (any, error)
}

func (f *funcBacking) read(ctx context.Context) (any, error) { return f.fn(ctx) }
func (f *funcBacking) write(context.Context, uint64) error   { return ErrReadOnly }

// registerBacking reads and writes a register channel live. Writes may
// keep a local cache of the last applied value, updated only after the
// register operation succeeds.
type registerBacking struct {
	exec    Executor
	channel registers.Channel
	readArg uint64

	mu        sync.Mutex
	keepLast  bool
	lastKnown bool
	last      uint64
}

func (r *registerBacking) read(ctx context.Context) (any, error) {
	raw, err := r.exec.Execute(ctx, registers.Operation{
		Channel: r.channel,
		Op:      firmware.OpRead,
		Arg:     r.readArg,
	})
	if err != nil {
		return nil, err
	}
	return int64(raw), nil
}

func (r *registerBacking) write(ctx context.Context, v uint64) error {
	_, err := r.exec.Execute(ctx, registers.Operation{
		Channel: r.channel,
		Op:      firmware.OpWrite,
		Arg:     v,
	})
	if err != nil {
		return err
	}
	if r.keepLast {
		r.mu.Lock()
		r.last, r.lastKnown = v, true
		r.mu.Unlock()
	}
	return nil
}

// lastWritten returns the cached last written value, if any.
func (r *registerBacking) lastWritten() (uint64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last, r.lastKnown
}

// temperatureBacking reads a thermal source and reports whole degrees.
type temperatureBacking struct {
	exec   Executor
	source thermal.Source
}

func (t *temperatureBacking) read(ctx context.Context) (any, error) {
	md, err := t.source.Temperature(ctx, t.exec)
	if err != nil {
		return nil, err
	}
	return md.Degrees(), nil
}

func (t *temperatureBacking) write(context.Context, uint64) error {
	return ErrReadOnly
}

// New creates an attribute over a custom backing function pair. Most
// callers use the Builtin table instead.
func New(meta Metadata, read func(ctx context.Context) (any, error)) (*Attribute, error) {
	if meta.Name == "" {
		return nil, errors.New("attribute without a name")
	}
	if read == nil {
		return nil, fmt.Errorf("attribute %s without a read function", meta.Name)
	}
	return &Attribute{meta: meta, back: &funcBacking{fn: read}}, nil
}
