package thermal

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// State of one source in the thermal framework.
type State uint8

const (
	StateUnregistered State = iota
	StateRegistered
	StateEnabled
	StateDisabled
)

func (s State) String() string {
	switch s {
	case StateUnregistered:
		return "unregistered"
	case StateRegistered:
		return "registered"
	case StateEnabled:
		return "enabled"
	case StateDisabled:
		return "disabled"
	default:
		return "unknown"
	}
}

// ErrBadTransition indicates a lifecycle call that the source's current
// state does not permit, e.g. enabling an unregistered source.
var ErrBadTransition = errors.New("invalid thermal source state transition")

// ErrUnknownSource indicates a source name the adapter does not manage.
var ErrUnknownSource = errors.New("unknown thermal source")

// Registrar is the OS thermal framework surface the adapter drives.
// Implementations only track zones and pull readings; they never push.
type Registrar interface {
	Register(src Source) error
	Enable(name string) error
	Disable(name string) error
	Unregister(name string) error
}

// NopRegistrar is a Registrar that accepts everything and does nothing.
type NopRegistrar struct{}

func (NopRegistrar) Register(Source) error   { return nil }
func (NopRegistrar) Enable(string) error     { return nil }
func (NopRegistrar) Disable(string) error    { return nil }
func (NopRegistrar) Unregister(string) error { return nil }

// AdapterConfig configures an Adapter.
type AdapterConfig struct {
	// Registrar receives the sources. Required.
	Registrar Registrar

	// Sources are the sensors to manage. Required, non-empty.
	Sources []Source

	// Logger is the optional logger for debug output. If nil, logging
	// is disabled.
	Logger *slog.Logger
}

// Validate checks the configuration.
func (c *AdapterConfig) Validate() error {
	if c.Registrar == nil {
		return errors.New("adapter requires a registrar")
	}
	if len(c.Sources) == 0 {
		return errors.New("adapter requires at least one source")
	}
	seen := make(map[string]bool, len(c.Sources))
	for _, src := range c.Sources {
		if src.Name == "" {
			return errors.New("source without a name")
		}
		if seen[src.Name] {
			return fmt.Errorf("duplicate source name %q", src.Name)
		}
		seen[src.Name] = true
	}
	return nil
}

// Adapter owns the lifecycle of a set of thermal sources against a
// Registrar. Transitions are driven only by the lifecycle manager:
// RegisterAll at attach, Disable/EnableAll across suspend/resume,
// UnregisterAll at detach.
type Adapter struct {
	mu        sync.Mutex
	registrar Registrar
	sources   []Source
	states    map[string]State
	logger    *slog.Logger
}

// NewAdapter creates an adapter with all sources unregistered.
func NewAdapter(cfg AdapterConfig) (*Adapter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	states := make(map[string]State, len(cfg.Sources))
	for _, src := range cfg.Sources {
		states[src.Name] = StateUnregistered
	}
	return &Adapter{
		registrar: cfg.Registrar,
		sources:   cfg.Sources,
		states:    states,
		logger:    cfg.Logger,
	}, nil
}

// Sources returns the managed source templates.
func (a *Adapter) Sources() []Source {
	out := make([]Source, len(a.sources))
	copy(out, a.sources)
	return out
}

// SourceState returns the lifecycle state of a named source.
func (a *Adapter) SourceState(name string) (State, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	st, ok := a.states[name]
	if !ok {
		return StateUnregistered, fmt.Errorf("%w: %s", ErrUnknownSource, name)
	}
	return st, nil
}

// RegisterAll registers every source with the framework and enables it.
// On any failure the sources registered so far are unwound before the
// error is returned, leaving all sources unregistered.
func (a *Adapter) RegisterAll() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	for i, src := range a.sources {
		if a.states[src.Name] != StateUnregistered {
			a.unwind(i)
			return fmt.Errorf("%w: register %s while %s", ErrBadTransition, src.Name, a.states[src.Name])
		}
		if err := a.registrar.Register(src); err != nil {
			a.unwind(i)
			return fmt.Errorf("register thermal source %s: %w", src.Name, err)
		}
		a.states[src.Name] = StateRegistered
		if err := a.registrar.Enable(src.Name); err != nil {
			a.unwind(i + 1)
			return fmt.Errorf("enable thermal source %s: %w", src.Name, err)
		}
		a.states[src.Name] = StateEnabled
		a.debug("thermal source registered", src.Name)
	}
	return nil
}

// unwind unregisters sources[0:n] in reverse. Caller holds the mutex.
func (a *Adapter) unwind(n int) {
	for i := n - 1; i >= 0; i-- {
		src := a.sources[i]
		if a.states[src.Name] == StateEnabled {
			_ = a.registrar.Disable(src.Name)
		}
		if a.states[src.Name] != StateUnregistered {
			_ = a.registrar.Unregister(src.Name)
			a.states[src.Name] = StateUnregistered
		}
	}
}

// DisableAll disables every enabled source, mirroring OS suspend.
func (a *Adapter) DisableAll() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, src := range a.sources {
		switch a.states[src.Name] {
		case StateEnabled:
			if err := a.registrar.Disable(src.Name); err != nil {
				return fmt.Errorf("disable thermal source %s: %w", src.Name, err)
			}
			a.states[src.Name] = StateDisabled
			a.debug("thermal source disabled", src.Name)
		case StateDisabled:
			// Already where suspend wants it.
		default:
			return fmt.Errorf("%w: disable %s while %s", ErrBadTransition, src.Name, a.states[src.Name])
		}
	}
	return nil
}

// EnableAll enables every disabled source, mirroring OS resume.
func (a *Adapter) EnableAll() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, src := range a.sources {
		switch a.states[src.Name] {
		case StateDisabled:
			if err := a.registrar.Enable(src.Name); err != nil {
				return fmt.Errorf("enable thermal source %s: %w", src.Name, err)
			}
			a.states[src.Name] = StateEnabled
			a.debug("thermal source enabled", src.Name)
		case StateEnabled:
		default:
			return fmt.Errorf("%w: enable %s while %s", ErrBadTransition, src.Name, a.states[src.Name])
		}
	}
	return nil
}

// UnregisterAll tears every source down to unregistered, in reverse
// registration order. Errors from the registrar are logged and skipped
// so teardown always completes.
func (a *Adapter) UnregisterAll() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.unwind(len(a.sources))
}

func (a *Adapter) debug(msg, source string) {
	if a.logger != nil {
		a.logger.Debug(msg, slog.String("source", source))
	}
}
