package device

import (
	"errors"
	"sync"

	"github.com/legion-toolkit/legion-core/pkg/attributes"
	"github.com/legion-toolkit/legion-core/pkg/firmware"
	"github.com/legion-toolkit/legion-core/pkg/generation"
	"github.com/legion-toolkit/legion-core/pkg/registers"
	"github.com/legion-toolkit/legion-core/pkg/thermal"
)

// ErrDetached indicates use of a context after Detach.
var ErrDetached = errors.New("device context detached")

// Context is the per-device state bundle. It is created by
// Manager.Attach, handed to callers by reference, and retired by
// Manager.Detach; after detach every accessor fails ErrDetached and the
// underlying controller refuses operations, never crashing.
type Context struct {
	id        string
	handle    firmware.Handle
	detection generation.Result
	caps      generation.Capabilities
	degraded  bool

	controller *registers.Controller
	table      *attributes.Table
	adapter    *thermal.Adapter

	mu       sync.RWMutex
	detached bool
}

// ID returns the context's unique identifier.
func (c *Context) ID() string { return c.id }

// Detection returns the generation detection result.
func (c *Context) Detection() generation.Result { return c.detection }

// Capabilities returns the capability set computed at attach. It is
// immutable and safe to read without locking.
func (c *Context) Capabilities() generation.Capabilities { return c.caps }

// Degraded reports whether the context runs on a best-guess generation
// (fallback detection or an assume-newest attach policy).
func (c *Context) Degraded() bool { return c.degraded }

// Attributes returns the exposed attribute table.
func (c *Context) Attributes() (*attributes.Table, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.detached {
		return nil, ErrDetached
	}
	return c.table, nil
}

// Executor returns the register access layer, for thermal polling.
func (c *Context) Executor() (thermal.Executor, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.detached {
		return nil, ErrDetached
	}
	return c.controller, nil
}

// Stats returns the firmware traffic counters.
func (c *Context) Stats() (registers.Stats, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.detached {
		return registers.Stats{}, ErrDetached
	}
	return c.controller.Stats(), nil
}

// retire marks the context detached. Idempotent.
func (c *Context) retire() {
	c.mu.Lock()
	c.detached = true
	c.mu.Unlock()
}

func (c *Context) isDetached() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.detached
}
