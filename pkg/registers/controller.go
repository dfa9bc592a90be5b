package registers

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/legion-toolkit/legion-core/pkg/firmware"
	"github.com/legion-toolkit/legion-core/pkg/generation"
	"github.com/legion-toolkit/legion-core/pkg/oplog"
)

// Defaults for the retry policy, matching the original driver's loop.
const (
	// DefaultMaxRetries is the number of retries after the first failed
	// attempt.
	DefaultMaxRetries = 3

	// DefaultRetryDelay is the fixed inter-retry delay. The context
	// mutex is never held across a sleep longer than this.
	DefaultRetryDelay = time.Millisecond
)

// Config errors.
var (
	ErrNoTransport     = errors.New("controller requires a transport")
	ErrNoMap           = errors.New("controller requires a register map")
	ErrCapabilitiesSet = errors.New("capabilities already set")
)

// Operation is one register operation: a channel, a direction, and an
// argument. The argument is an unsigned fixed-width integer; reads use
// it as a query selector (e.g. the thermal sensor index), writes as the
// value to apply.
type Operation struct {
	Channel Channel
	Op      firmware.Op
	Arg     uint64
}

// Config configures a Controller.
type Config struct {
	// Transport reaches the firmware. Required.
	Transport firmware.Transport

	// Map is the generation's register map. Required.
	Map *Map

	// MaxRetries bounds retries after the first failed attempt.
	// Zero means DefaultMaxRetries; negative disables retries.
	MaxRetries int

	// RetryDelay is the fixed delay between attempts. Zero means
	// DefaultRetryDelay.
	RetryDelay time.Duration

	// ContextID identifies the owning device context in trace events.
	ContextID string

	// Logger is the optional logger for debug output. If nil, logging
	// is disabled.
	Logger *slog.Logger

	// Trace is the optional structured trace sink. If nil, tracing is
	// disabled.
	Trace oplog.Logger
}

// Controller is the register access layer for one device context. All
// operations against the context are serialized on its single mutex;
// no two register operations ever execute concurrently.
type Controller struct {
	mu sync.Mutex

	transport  firmware.Transport
	regmap     *Map
	maxRetries int
	retryDelay time.Duration
	contextID  string
	logger     *slog.Logger
	trace      oplog.Logger

	// caps is nil during the probing phase; once set, it gates every
	// channel before any hardware call and never changes again.
	caps *generation.Capabilities

	closed bool

	// Firmware traffic counters.
	reads    uint64
	writes   uint64
	hwErrors uint64
}

// NewController creates a register access controller.
func NewController(cfg Config) (*Controller, error) {
	if cfg.Transport == nil {
		return nil, ErrNoTransport
	}
	if cfg.Map == nil {
		return nil, ErrNoMap
	}

	maxRetries := cfg.MaxRetries
	if maxRetries == 0 {
		maxRetries = DefaultMaxRetries
	} else if maxRetries < 0 {
		maxRetries = 0
	}
	retryDelay := cfg.RetryDelay
	if retryDelay == 0 {
		retryDelay = DefaultRetryDelay
	}
	trace := cfg.Trace
	if trace == nil {
		trace = oplog.NoopLogger{}
	}

	return &Controller{
		transport:  cfg.Transport,
		regmap:     cfg.Map,
		maxRetries: maxRetries,
		retryDelay: retryDelay,
		contextID:  cfg.ContextID,
		logger:     cfg.Logger,
		trace:      trace,
	}, nil
}

// SetCapabilities installs the capability gate. Called exactly once by
// the lifecycle manager after probing; before that the controller is in
// the probing phase and channels are ungated.
func (c *Controller) SetCapabilities(caps generation.Capabilities) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.caps != nil {
		return ErrCapabilitiesSet
	}
	c.caps = &caps
	return nil
}

// Capabilities returns the installed capability set. The second return
// is false during the probing phase.
func (c *Controller) Capabilities() (generation.Capabilities, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.caps == nil {
		return generation.Capabilities{}, false
	}
	return *c.caps, true
}

// Execute performs one register operation: serialized per context,
// retried up to the configured bound with a fixed inter-retry delay.
//
// Failure kinds: Unsupported (capability absent, checked before any
// hardware call), Rejected (firmware explicitly refused, not retried),
// Timeout (retries exhausted), Unavailable (controller closed).
func (c *Controller) Execute(ctx context.Context, op Operation) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return 0, c.fail(op, &Error{Status: StatusUnavailable, Channel: op.Channel, Op: op.Op}, 0)
	}
	if !c.channelAllowed(op.Channel) {
		return 0, c.fail(op, &Error{Status: StatusUnsupported, Channel: op.Channel, Op: op.Op}, 0)
	}
	sel, ok := c.regmap.Selector(op.Channel)
	if !ok {
		return 0, c.fail(op, &Error{Status: StatusUnsupported, Channel: op.Channel, Op: op.Op}, 0)
	}

	attempts := 0
	for {
		attempts++
		result, err := c.transport.Execute(ctx, op.Op, sel, op.Arg)
		if err == nil {
			c.countOK(op.Op)
			c.traceOp(op, result, StatusOK, attempts, nil)
			return result, nil
		}

		switch {
		case errors.Is(err, firmware.ErrNoBinding):
			// The transport cannot reach this channel on this
			// hardware: capability absent, not a fault.
			return 0, c.fail(op, &Error{Status: StatusUnsupported, Channel: op.Channel, Op: op.Op, Err: err}, attempts)
		case errors.Is(err, firmware.ErrRefused):
			c.hwErrors++
			return 0, c.fail(op, &Error{Status: StatusRejected, Channel: op.Channel, Op: op.Op, Err: err}, attempts)
		}

		if ctx.Err() != nil || attempts > c.maxRetries {
			c.hwErrors++
			return 0, c.fail(op, &Error{Status: StatusTimeout, Channel: op.Channel, Op: op.Op, Err: err}, attempts)
		}
		time.Sleep(c.retryDelay)
	}
}

// Close marks the controller unavailable. It blocks until any in-flight
// operation completes (the mutex joins, never cancels) and is safe to
// call multiple times. Subsequent Execute calls return ErrUnavailable.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

// Stats is a snapshot of the firmware traffic counters.
type Stats struct {
	// Reads and Writes count successful round-trips by direction.
	Reads  uint64
	Writes uint64

	// Errors counts firmware-level failures (timeouts and rejections);
	// pre-hardware rejections are not counted.
	Errors uint64
}

// Stats returns a snapshot of the traffic counters.
func (c *Controller) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{Reads: c.reads, Writes: c.writes, Errors: c.hwErrors}
}

// channelAllowed applies the capability gate. During the probing phase
// (no capabilities installed yet) all mapped channels are allowed; the
// lifecycle manager guarantees the probing phase is single-threaded.
func (c *Controller) channelAllowed(ch Channel) bool {
	if c.caps == nil {
		return true
	}
	switch ch {
	case ChannelThermal:
		return c.caps.Thermal
	case ChannelFan, ChannelFanTach1, ChannelFanTach2:
		return c.caps.Fan
	case ChannelPower:
		return c.caps.Power
	case ChannelRGB:
		return c.caps.RGB
	default:
		return false
	}
}

func (c *Controller) countOK(op firmware.Op) {
	if op == firmware.OpWrite {
		c.writes++
	} else {
		c.reads++
	}
}

// fail logs and traces a failed operation, then returns the error.
// Arguments of sensitive channels are redacted everywhere.
func (c *Controller) fail(op Operation, e *Error, attempts int) error {
	if c.logger != nil {
		attrs := []any{
			slog.String("channel", op.Channel.String()),
			slog.String("op", op.Op.String()),
			slog.String("status", e.Status.String()),
		}
		if op.Channel.Sensitive() {
			attrs = append(attrs, slog.Bool("redacted", true))
		} else {
			attrs = append(attrs, slog.Uint64("arg", op.Arg))
		}
		if e.Err != nil {
			attrs = append(attrs, slog.String("error", e.Err.Error()))
		}
		c.logger.Debug("register operation failed", attrs...)
	}
	c.traceOp(op, 0, e.Status, attempts, e.Err)
	return e
}

func (c *Controller) traceOp(op Operation, result uint64, status Status, attempts int, cause error) {
	ev := oplog.Event{
		Timestamp:  time.Now(),
		ContextID:  c.contextID,
		Kind:       oplog.KindOperation,
		Generation: uint8(c.regmap.Generation),
		Op: &oplog.OpEvent{
			Channel:  uint16(op.Channel),
			Op:       op.Op.String(),
			Status:   uint8(status),
			Attempts: attempts,
		},
	}
	if op.Channel.Sensitive() {
		ev.Op.Redacted = true
	} else {
		ev.Op.Arg = op.Arg
	}
	if status == StatusOK {
		ev.Op.Result = result
	}
	if cause != nil {
		ev.Op.Error = cause.Error()
	}
	c.trace.Log(ev)
}
