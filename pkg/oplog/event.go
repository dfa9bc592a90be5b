package oplog

import (
	"time"
)

// Event represents a trace event captured by the hardware-control core.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// ContextID uniquely identifies the device context (UUID).
	ContextID string `cbor:"2,keyasint"`

	// Kind classifies the event type.
	Kind Kind `cbor:"3,keyasint"`

	// Generation is the detected hardware generation, when known.
	Generation uint8 `cbor:"4,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	Op        *OpEvent          `cbor:"10,keyasint,omitempty"` // Register operation
	State     *StateChangeEvent `cbor:"11,keyasint,omitempty"` // Lifecycle state change
	Detection *DetectionEvent   `cbor:"12,keyasint,omitempty"` // Generation detection
}

// Kind classifies the event type.
type Kind uint8

const (
	// KindOperation indicates a register operation (successful or failed).
	KindOperation Kind = 0

	// KindState indicates a lifecycle state change.
	KindState Kind = 1

	// KindDetection indicates a generation detection outcome.
	KindDetection Kind = 2
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindOperation:
		return "OPERATION"
	case KindState:
		return "STATE"
	case KindDetection:
		return "DETECTION"
	default:
		return "UNKNOWN"
	}
}

// OpEvent captures one register operation.
type OpEvent struct {
	// Channel is the numeric channel identifier.
	Channel uint16 `cbor:"1,keyasint"`

	// Op is the direction ("READ" or "WRITE").
	Op string `cbor:"2,keyasint"`

	// Arg is the operation argument. Zero when Redacted is set.
	Arg uint64 `cbor:"3,keyasint,omitempty"`

	// Redacted is set when the channel is marked sensitive and the
	// argument was withheld from the trace.
	Redacted bool `cbor:"4,keyasint,omitempty"`

	// Result is the firmware-reported result on success.
	Result uint64 `cbor:"5,keyasint,omitempty"`

	// Status is the stable status code of the outcome.
	Status uint8 `cbor:"6,keyasint"`

	// Attempts is how many firmware round-trips the operation took.
	Attempts int `cbor:"7,keyasint,omitempty"`

	// Error is the error text for failed operations.
	Error string `cbor:"8,keyasint,omitempty"`
}

// StateChangeEvent captures a lifecycle transition.
type StateChangeEvent struct {
	// Entity names what changed state ("context", "thermal:cpu", ...).
	Entity string `cbor:"1,keyasint"`

	// OldState and NewState are the states before and after.
	OldState string `cbor:"2,keyasint"`
	NewState string `cbor:"3,keyasint"`

	// Reason is an optional explanation (e.g. the attach policy applied).
	Reason string `cbor:"4,keyasint,omitempty"`
}

// DetectionEvent captures a generation detection outcome.
type DetectionEvent struct {
	// Product is the DMI product name the markers were matched against.
	Product string `cbor:"1,keyasint,omitempty"`

	// Marker is the substring that matched, if any.
	Marker string `cbor:"2,keyasint,omitempty"`

	// Confidence is the detection confidence ("none"/"fallback"/"exact").
	Confidence string `cbor:"3,keyasint"`
}
