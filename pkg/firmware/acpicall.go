package firmware

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// DefaultACPICallPath is the interface file installed by the acpi_call
// kernel module.
const DefaultACPICallPath = "/proc/acpi/call"

// ACPICallTransport evaluates vendor ACPI control methods through the
// acpi_call interface: the method invocation is written to the call file
// and the result is read back from the same file.
type ACPICallTransport struct {
	path string
}

// NewACPICall creates an ACPI method transport. Pass an empty path to
// use /proc/acpi/call.
func NewACPICall(path string) *ACPICallTransport {
	if path == "" {
		path = DefaultACPICallPath
	}
	return &ACPICallTransport{path: path}
}

// Execute evaluates the selected method with the given argument. Reads
// and writes are both method evaluations; the channel's contract decides
// how the firmware interprets the argument.
func (t *ACPICallTransport) Execute(ctx context.Context, op Op, sel Selector, arg uint64) (uint64, error) {
	if !sel.HasMethod() {
		return 0, ErrNoBinding
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	call := fmt.Sprintf("%s %d", sel.Method, arg)
	if err := os.WriteFile(t.path, []byte(call), 0o644); err != nil {
		return 0, fmt.Errorf("acpi call %s: %w", sel.Method, err)
	}

	raw, err := os.ReadFile(t.path)
	if err != nil {
		return 0, fmt.Errorf("acpi result %s: %w", sel.Method, err)
	}
	return parseACPIResult(string(raw))
}

// parseACPIResult decodes the acpi_call result buffer. Successful integer
// evaluations look like "0x2a\n"; failures report "Error: AE_NOT_FOUND"
// or "not called".
func parseACPIResult(raw string) (uint64, error) {
	s := strings.TrimSpace(strings.TrimRight(raw, "\x00"))
	switch {
	case s == "":
		return 0, ErrNoResponse
	case strings.HasPrefix(s, "Error:"), s == "not called":
		return 0, fmt.Errorf("%w: %s", ErrRefused, s)
	}

	// acpi_call may return buffers like "{0x01, 0x02}"; only plain
	// integer results are meaningful for Legion control methods.
	if strings.HasPrefix(s, "{") {
		return 0, fmt.Errorf("%w: non-integer result %q", ErrRefused, s)
	}

	var v uint64
	var err error
	if strings.HasPrefix(s, "0x") {
		v, err = strconv.ParseUint(strings.TrimPrefix(s, "0x"), 16, 64)
	} else {
		v, err = strconv.ParseUint(s, 10, 64)
	}
	if err != nil {
		return 0, fmt.Errorf("%w: unparseable result %q", ErrRefused, s)
	}
	return v, nil
}

// Compile-time interface satisfaction check.
var _ Transport = (*ACPICallTransport)(nil)
