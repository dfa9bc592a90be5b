//go:build linux

package firmware

import (
	"context"
	"fmt"
	"os"
	"time"

	"golang.org/x/sys/unix"
)

// Legion EC protocol constants. The EC is reached through the standard
// ACPI embedded controller port pair: commands and status on 0x66, data
// on 0x62.
const (
	ecPortCmd  = 0x66
	ecPortData = 0x62

	ecCmdRead  = 0x80
	ecCmdWrite = 0x81

	// ecStatusIBF is the input buffer full bit; the EC is busy while set.
	ecStatusIBF = 0x02
)

// ecWaitPolls bounds the busy-wait on the EC status register. With a
// 10us pause per poll this caps a single wait at ~10ms, matching the
// original driver's loop.
const (
	ecWaitPolls = 1000
	ecWaitPause = 10 * time.Microsecond
)

// ECPortTransport reaches the embedded controller through /dev/port.
// Only the low byte of a selector's Register is meaningful: the EC RAM
// window is indexed with 8-bit addresses.
//
// The caller needs CAP_SYS_RAWIO (or root) to open /dev/port.
type ECPortTransport struct {
	f *os.File
}

// OpenECPort opens the EC port transport. Pass an empty path to use
// /dev/port.
func OpenECPort(path string) (*ECPortTransport, error) {
	if path == "" {
		path = "/dev/port"
	}
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("open port device: %w", err)
	}
	return &ECPortTransport{f: f}, nil
}

// Close releases the port device.
func (t *ECPortTransport) Close() error {
	return t.f.Close()
}

// Execute performs one EC register read or write.
func (t *ECPortTransport) Execute(ctx context.Context, op Op, sel Selector, arg uint64) (uint64, error) {
	if !sel.HasRegister() {
		return 0, ErrNoBinding
	}
	reg := uint8(sel.Register)

	switch op {
	case OpRead:
		v, err := t.readRegister(ctx, reg)
		return uint64(v), err
	case OpWrite:
		if err := t.writeRegister(ctx, reg, uint8(arg)); err != nil {
			return 0, err
		}
		return arg, nil
	default:
		return 0, fmt.Errorf("%w: op %d", ErrRefused, op)
	}
}

func (t *ECPortTransport) readRegister(ctx context.Context, reg uint8) (uint8, error) {
	if err := t.waitReady(ctx); err != nil {
		return 0, err
	}
	if err := t.outb(ecPortCmd, ecCmdRead); err != nil {
		return 0, err
	}
	if err := t.waitReady(ctx); err != nil {
		return 0, err
	}
	if err := t.outb(ecPortData, reg); err != nil {
		return 0, err
	}
	if err := t.waitReady(ctx); err != nil {
		return 0, err
	}
	return t.inb(ecPortData)
}

func (t *ECPortTransport) writeRegister(ctx context.Context, reg, value uint8) error {
	if err := t.waitReady(ctx); err != nil {
		return err
	}
	if err := t.outb(ecPortCmd, ecCmdWrite); err != nil {
		return err
	}
	if err := t.waitReady(ctx); err != nil {
		return err
	}
	if err := t.outb(ecPortData, reg); err != nil {
		return err
	}
	if err := t.waitReady(ctx); err != nil {
		return err
	}
	if err := t.outb(ecPortData, value); err != nil {
		return err
	}
	return t.waitReady(ctx)
}

// waitReady polls the EC status register until the input buffer drains.
func (t *ECPortTransport) waitReady(ctx context.Context) error {
	for i := 0; i < ecWaitPolls; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		status, err := t.inb(ecPortCmd)
		if err != nil {
			return err
		}
		if status&ecStatusIBF == 0 {
			return nil
		}
		time.Sleep(ecWaitPause)
	}
	return ErrNoResponse
}

func (t *ECPortTransport) inb(port int64) (uint8, error) {
	var b [1]byte
	if _, err := unix.Pread(int(t.f.Fd()), b[:], port); err != nil {
		return 0, fmt.Errorf("inb 0x%x: %w", port, err)
	}
	return b[0], nil
}

func (t *ECPortTransport) outb(port int64, value uint8) error {
	if _, err := unix.Pwrite(int(t.f.Fd()), []byte{value}, port); err != nil {
		return fmt.Errorf("outb 0x%x: %w", port, err)
	}
	return nil
}

// Compile-time interface satisfaction check.
var _ Transport = (*ECPortTransport)(nil)
