package registers

import (
	"errors"
	"fmt"

	"github.com/legion-toolkit/legion-core/pkg/firmware"
)

// Status is the stable, distinct outcome code of a register operation.
// Codes are part of the external contract: tooling distinguishes "not
// available on this hardware" from generic failure by code, so values
// never change once shipped.
type Status uint8

const (
	// StatusOK indicates the operation completed successfully.
	StatusOK Status = 0

	// StatusUnsupported indicates the backing capability is absent.
	// Checked before any hardware call.
	StatusUnsupported Status = 1

	// StatusInvalidArgument indicates a caller error, rejected before
	// touching hardware.
	StatusInvalidArgument Status = 2

	// StatusTimeout indicates the firmware stayed unresponsive within
	// the retry policy. Retryable by the caller.
	StatusTimeout Status = 3

	// StatusRejected indicates the firmware explicitly refused. Not
	// retryable without a different argument.
	StatusRejected Status = 4

	// StatusUnavailable indicates the context has been torn down.
	StatusUnavailable Status = 5
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusUnsupported:
		return "UNSUPPORTED"
	case StatusInvalidArgument:
		return "INVALID_ARGUMENT"
	case StatusTimeout:
		return "TIMEOUT"
	case StatusRejected:
		return "REJECTED"
	case StatusUnavailable:
		return "UNAVAILABLE"
	default:
		return "UNKNOWN"
	}
}

// Sentinel errors, matched with errors.Is.
var (
	ErrUnsupported     = errors.New("not supported on this hardware")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrTimeout         = errors.New("firmware timeout")
	ErrRejected        = errors.New("firmware rejected operation")
	ErrUnavailable     = errors.New("device context unavailable")
)

// Error is a register operation failure carrying the stable status code
// alongside the channel it hit.
type Error struct {
	// Status is the stable outcome code.
	Status Status

	// Channel the operation targeted.
	Channel Channel

	// Op is the operation direction.
	Op firmware.Op

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %s: %v", e.Op, e.Channel, e.Status, e.Err)
	}
	return fmt.Sprintf("%s %s: %s", e.Op, e.Channel, e.Status)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Err }

// Is maps the status code onto the package sentinels so callers can use
// errors.Is without inspecting codes.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrUnsupported:
		return e.Status == StatusUnsupported
	case ErrInvalidArgument:
		return e.Status == StatusInvalidArgument
	case ErrTimeout:
		return e.Status == StatusTimeout
	case ErrRejected:
		return e.Status == StatusRejected
	case ErrUnavailable:
		return e.Status == StatusUnavailable
	}
	return false
}

// StatusOf extracts the stable status code from an error. Wrapped
// sentinels resolve to their code even without an *Error in the chain,
// so layers above the controller can wrap with fmt.Errorf and still
// report correctly. Errors that did not originate here report
// StatusRejected as the generic firmware failure code.
func StatusOf(err error) Status {
	if err == nil {
		return StatusOK
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Status
	}
	switch {
	case errors.Is(err, ErrUnsupported):
		return StatusUnsupported
	case errors.Is(err, ErrInvalidArgument):
		return StatusInvalidArgument
	case errors.Is(err, ErrTimeout):
		return StatusTimeout
	case errors.Is(err, ErrRejected):
		return StatusRejected
	case errors.Is(err, ErrUnavailable):
		return StatusUnavailable
	}
	return StatusRejected
}
