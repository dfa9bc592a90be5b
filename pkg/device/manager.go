package device

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/legion-toolkit/legion-core/pkg/attributes"
	"github.com/legion-toolkit/legion-core/pkg/firmware"
	"github.com/legion-toolkit/legion-core/pkg/generation"
	"github.com/legion-toolkit/legion-core/pkg/oplog"
	"github.com/legion-toolkit/legion-core/pkg/registers"
	"github.com/legion-toolkit/legion-core/pkg/thermal"
)

// Policy decides how Attach handles a machine whose generation cannot
// be determined.
type Policy uint8

const (
	// PolicyMinimal attaches with an empty capability set: every gated
	// attribute fails Unsupported and no register operation can reach
	// the firmware. The conservative default.
	PolicyMinimal Policy = iota

	// PolicyRefuse fails the attach outright.
	PolicyRefuse

	// PolicyAssumeNewest treats the machine as the newest known
	// generation and probes normally. Opt-in; the context is marked
	// degraded.
	PolicyAssumeNewest
)

// String returns the policy name.
func (p Policy) String() string {
	switch p {
	case PolicyMinimal:
		return "minimal"
	case PolicyRefuse:
		return "refuse"
	case PolicyAssumeNewest:
		return "assume-newest"
	default:
		return "unknown"
	}
}

// Manager errors.
var (
	ErrAttachRefused  = errors.New("attach refused: generation unknown")
	ErrNoTransport    = errors.New("firmware handle without a transport")
	ErrUnknownContext = errors.New("context not managed here")
)

// ManagerConfig configures a Manager.
type ManagerConfig struct {
	// Policy applies when detection yields Unknown.
	Policy Policy

	// Registrar receives thermal sources. Nil means NopRegistrar.
	Registrar thermal.Registrar

	// MaxRetries and RetryDelay tune the register access layer; zero
	// values take the layer's defaults.
	MaxRetries int
	RetryDelay time.Duration

	// Logger is the optional logger for structured output. If nil,
	// logging is disabled.
	Logger *slog.Logger

	// Trace is the optional structured trace sink. If nil, tracing is
	// disabled.
	Trace oplog.Logger
}

// Manager owns every device context in the process. There is no global
// context anywhere; callers hold only what Attach returned, and the
// manager is the single place allowed to destroy it.
type Manager struct {
	policy     Policy
	registrar  thermal.Registrar
	maxRetries int
	retryDelay time.Duration
	logger     *slog.Logger
	trace      oplog.Logger

	mu       sync.Mutex
	contexts map[string]*Context
}

// NewManager creates a manager with no attached contexts.
func NewManager(cfg ManagerConfig) *Manager {
	registrar := cfg.Registrar
	if registrar == nil {
		registrar = thermal.NopRegistrar{}
	}
	trace := cfg.Trace
	if trace == nil {
		trace = oplog.NoopLogger{}
	}
	return &Manager{
		policy:     cfg.Policy,
		registrar:  registrar,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		logger:     cfg.Logger,
		trace:      trace,
	}
}

// Attach brings a machine under management: detect the generation,
// apply the attach policy, probe capabilities, build the attribute
// table and register thermal sources, in that order. Every failure path
// unwinds whatever was already set up before returning.
func (m *Manager) Attach(ctx context.Context, handle firmware.Handle) (*Context, error) {
	if handle.Transport == nil {
		return nil, ErrNoTransport
	}

	id := uuid.New().String()
	res := generation.Detect(handle.ID)
	m.traceDetection(id, handle.ID, res)

	gen := res.Generation
	degraded := res.Degraded()
	minimal := false

	if !gen.Known() {
		switch m.policy {
		case PolicyRefuse:
			m.info("attach refused", id, slog.String("product", handle.ID.ProductName))
			return nil, fmt.Errorf("%w: product %q", ErrAttachRefused, handle.ID.ProductName)
		case PolicyAssumeNewest:
			gen = generation.Newest
			degraded = true
			m.info("attaching with assumed generation", id,
				slog.String("generation", gen.String()),
				slog.String("policy", m.policy.String()))
		default:
			// Capability-minimal: drive nothing, expose everything as
			// unsupported. The newest register map is loaded solely so
			// the controller exists; the empty gate keeps it idle.
			gen = generation.Newest
			minimal = true
			degraded = true
			m.info("attaching capability-minimal", id,
				slog.String("policy", m.policy.String()))
		}
	} else if degraded {
		m.info("generation detected by family fallback", id,
			slog.String("generation", gen.String()),
			slog.String("marker", res.Marker))
	}

	regmap, err := registers.MapFor(gen)
	if err != nil {
		return nil, fmt.Errorf("attach %s: %w", handle.ID.ProductName, err)
	}

	controller, err := registers.NewController(registers.Config{
		Transport:  handle.Transport,
		Map:        regmap,
		MaxRetries: m.maxRetries,
		RetryDelay: m.retryDelay,
		ContextID:  id,
		Logger:     m.logger,
		Trace:      m.trace,
	})
	if err != nil {
		return nil, err
	}

	// From here on every failure must tear down what came before.
	fail := func(stage string, err error) (*Context, error) {
		controller.Close()
		return nil, fmt.Errorf("attach %s: %s: %w", handle.ID.ProductName, stage, err)
	}

	caps := generation.None
	if !minimal {
		caps = registers.ProbeCapabilities(ctx, controller, gen)
	}
	if err := controller.SetCapabilities(caps); err != nil {
		return fail("install capabilities", err)
	}

	table, err := attributes.Builtin(attributes.BuiltinConfig{
		Controller:   controller,
		Detection:    res,
		Capabilities: caps,
		Logger:       m.logger,
	})
	if err != nil {
		return fail("build attribute table", err)
	}

	dctx := &Context{
		id:         id,
		handle:     handle,
		detection:  res,
		caps:       caps,
		degraded:   degraded,
		controller: controller,
		table:      table,
	}

	if caps.Thermal {
		adapter, err := thermal.NewAdapter(thermal.AdapterConfig{
			Registrar: m.registrar,
			Sources:   thermal.DefaultSources(),
			Logger:    m.logger,
		})
		if err != nil {
			return fail("build thermal adapter", err)
		}
		if err := adapter.RegisterAll(); err != nil {
			return fail("register thermal sources", err)
		}
		dctx.adapter = adapter
	}

	m.mu.Lock()
	if m.contexts == nil {
		m.contexts = make(map[string]*Context)
	}
	m.contexts[id] = dctx
	m.mu.Unlock()

	m.traceState(dctx, "detached", "attached", m.policy.String())
	m.info("device attached", id,
		slog.String("generation", gen.String()),
		slog.String("confidence", res.Confidence.String()),
		slog.String("capabilities", caps.String()),
		slog.Bool("degraded", degraded))
	return dctx, nil
}

// Detach tears a context down in exactly the reverse of attach order:
// thermal sources first, then the attribute surface, then the register
// controller. The controller close joins any in-flight operation before
// the context is released; later use fails ErrDetached, never crashes.
func (m *Manager) Detach(dctx *Context) error {
	if dctx == nil {
		return ErrUnknownContext
	}

	m.mu.Lock()
	_, ok := m.contexts[dctx.id]
	delete(m.contexts, dctx.id)
	m.mu.Unlock()
	if !ok {
		return ErrUnknownContext
	}

	if dctx.adapter != nil {
		dctx.adapter.UnregisterAll()
	}
	dctx.retire()
	dctx.controller.Close()

	m.traceState(dctx, "attached", "detached", "")
	m.info("device detached", dctx.id)
	return nil
}

// Suspend disables the context's thermal zones, mirroring OS suspend.
// EC state survives suspend on every supported generation, so nothing
// else is saved.
func (m *Manager) Suspend(dctx *Context) error {
	if dctx == nil || dctx.isDetached() {
		return ErrDetached
	}
	if dctx.adapter != nil {
		if err := dctx.adapter.DisableAll(); err != nil {
			return err
		}
	}
	m.traceState(dctx, "attached", "suspended", "")
	m.info("device suspended", dctx.id)
	return nil
}

// Resume re-enables the context's thermal zones after OS resume.
func (m *Manager) Resume(dctx *Context) error {
	if dctx == nil || dctx.isDetached() {
		return ErrDetached
	}
	if dctx.adapter != nil {
		if err := dctx.adapter.EnableAll(); err != nil {
			return err
		}
	}
	m.traceState(dctx, "suspended", "attached", "")
	m.info("device resumed", dctx.id)
	return nil
}

// Contexts returns the IDs of the attached contexts.
func (m *Manager) Contexts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.contexts))
	for id := range m.contexts {
		out = append(out, id)
	}
	return out
}

// Close detaches every remaining context.
func (m *Manager) Close() {
	m.mu.Lock()
	remaining := make([]*Context, 0, len(m.contexts))
	for _, dctx := range m.contexts {
		remaining = append(remaining, dctx)
	}
	m.mu.Unlock()
	for _, dctx := range remaining {
		_ = m.Detach(dctx)
	}
}

func (m *Manager) info(msg, contextID string, attrs ...any) {
	if m.logger != nil {
		m.logger.Info(msg, append([]any{slog.String("context", contextID)}, attrs...)...)
	}
}

func (m *Manager) traceDetection(id string, fwid firmware.Identification, res generation.Result) {
	m.trace.Log(oplog.Event{
		Timestamp:  time.Now(),
		ContextID:  id,
		Kind:       oplog.KindDetection,
		Generation: uint8(res.Generation),
		Detection: &oplog.DetectionEvent{
			Product:    fwid.ProductName,
			Marker:     res.Marker,
			Confidence: res.Confidence.String(),
		},
	})
}

func (m *Manager) traceState(dctx *Context, from, to, reason string) {
	m.trace.Log(oplog.Event{
		Timestamp:  time.Now(),
		ContextID:  dctx.id,
		Kind:       oplog.KindState,
		Generation: uint8(dctx.detection.Generation),
		State: &oplog.StateChangeEvent{
			Entity:   "context",
			OldState: from,
			NewState: to,
			Reason:   reason,
		},
	})
}
