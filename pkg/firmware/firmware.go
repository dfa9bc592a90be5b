package firmware

import (
	"context"
	"errors"
)

// Transport errors.
var (
	// ErrRefused indicates the firmware explicitly rejected the operation.
	ErrRefused = errors.New("firmware refused operation")

	// ErrNoResponse indicates the firmware did not answer within the
	// transport's own wait bound.
	ErrNoResponse = errors.New("no response from firmware")

	// ErrNoBinding indicates the selector carries no binding usable by
	// this transport (e.g. an EC-only channel on the ACPI transport).
	ErrNoBinding = errors.New("channel has no binding for this transport")
)

// Op is the direction of a firmware round-trip.
type Op uint8

const (
	// OpRead retrieves the current value of a channel.
	OpRead Op = iota

	// OpWrite passes an argument to a channel.
	OpWrite
)

// String returns the op name.
func (o Op) String() string {
	switch o {
	case OpRead:
		return "READ"
	case OpWrite:
		return "WRITE"
	default:
		return "UNKNOWN"
	}
}

// Selector identifies a control channel in transport-specific terms.
// A channel may be reachable through an ACPI method, an EC register,
// or both; each transport uses the binding it understands.
type Selector struct {
	// Method is the ACPI control method path
	// (e.g. `\_SB.PC00.LPC0.EC0.SPMO`). Empty if the channel has no
	// ACPI binding.
	Method string

	// Register is the EC register address, already offset by the
	// generation's EC base. Zero if the channel has no EC binding.
	Register uint16
}

// HasMethod reports whether the selector carries an ACPI binding.
func (s Selector) HasMethod() bool { return s.Method != "" }

// HasRegister reports whether the selector carries an EC binding.
func (s Selector) HasRegister() bool { return s.Register != 0 }

// Transport performs one synchronous firmware round-trip. Implementations
// must not retry and must not block longer than their documented wait
// bound; retry policy belongs to the registers package.
type Transport interface {
	// Execute performs a single read or write against the selected
	// channel and returns the firmware-reported result.
	Execute(ctx context.Context, op Op, sel Selector, arg uint64) (uint64, error)
}

// Identification holds the firmware identification strings used for
// generation detection. Absent fields are empty strings.
type Identification struct {
	// Vendor is the system vendor (DMI sys_vendor).
	Vendor string

	// ProductName is the marketing product name (DMI product_name).
	ProductName string

	// ProductVersion is the product version string (DMI product_version).
	ProductVersion string

	// BoardName is the base board name (DMI board_name).
	BoardName string
}

// Empty reports whether no identification strings are present at all.
func (id Identification) Empty() bool {
	return id.Vendor == "" && id.ProductName == "" &&
		id.ProductVersion == "" && id.BoardName == ""
}

// Handle bundles identification with the transport reaching the firmware.
// The lifecycle manager consumes a Handle at attach.
type Handle struct {
	// ID is the firmware identification, read once before attach.
	ID Identification

	// Transport reaches the embedded controller or ACPI methods.
	Transport Transport
}
