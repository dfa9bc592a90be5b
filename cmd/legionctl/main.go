// Command legionctl is an interactive shell for inspecting and driving
// the hardware-control core.
//
// Usage:
//
//	legionctl [flags]
//
// Flags:
//
//	--transport string  Firmware transport: acpi, ecport, mock (default "mock")
//	--policy string     Attach policy: minimal, refuse, assume-newest
//	--log-level string  Log level: debug, info, warn, error (default "warn")
//
// Examples:
//
//	# Poke at the mock firmware without hardware
//	legionctl
//
//	# Drive the real firmware (needs acpi_call loaded and root)
//	legionctl --transport acpi
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/legion-toolkit/legion-core/internal/testharness/mock"
	"github.com/legion-toolkit/legion-core/pkg/device"
	"github.com/legion-toolkit/legion-core/pkg/firmware"
	"github.com/legion-toolkit/legion-core/pkg/generation"
	"github.com/legion-toolkit/legion-core/pkg/registers"
)

func main() {
	transport := pflag.String("transport", "mock", "Firmware transport: acpi, ecport, mock")
	policy := pflag.String("policy", "minimal", "Attach policy: minimal, refuse, assume-newest")
	logLevel := pflag.String("log-level", "warn", "Log level: debug, info, warn, error")
	pflag.Parse()

	if err := run(*transport, *policy, *logLevel); err != nil {
		fmt.Fprintln(os.Stderr, "legionctl:", err)
		os.Exit(1)
	}
}

func run(transport, policy, logLevel string) error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slogLevel(logLevel),
	}))

	handle, err := buildHandle(transport)
	if err != nil {
		return err
	}

	manager := device.NewManager(device.ManagerConfig{
		Policy: attachPolicy(policy),
		Logger: logger,
	})
	dctx, err := manager.Attach(context.Background(), handle)
	if err != nil {
		return err
	}
	defer manager.Detach(dctx)

	shell, err := newShell(dctx)
	if err != nil {
		return err
	}
	return shell.run()
}

func buildHandle(transport string) (firmware.Handle, error) {
	switch transport {
	case "acpi":
		return firmware.Handle{
			ID:        firmware.ReadIdentification(firmware.DefaultDMIPath),
			Transport: firmware.NewACPICall(firmware.DefaultACPICallPath),
		}, nil
	case "ecport":
		port, err := firmware.OpenECPort("")
		if err != nil {
			return firmware.Handle{}, err
		}
		return firmware.Handle{
			ID:        firmware.ReadIdentification(firmware.DefaultDMIPath),
			Transport: port,
		}, nil
	case "mock":
		ft := mock.NewTransport()
		if m, err := registers.MapFor(generation.Gen9); err == nil {
			if sel, ok := m.Selector(registers.ChannelThermal); ok {
				ft.SetIndexed(mock.Key(sel), 0, 52)
				ft.SetIndexed(mock.Key(sel), 1, 46)
			}
			if sel, ok := m.Selector(registers.ChannelFanTach1); ok {
				ft.Set(mock.Key(sel), 2800)
			}
			if sel, ok := m.Selector(registers.ChannelFanTach2); ok {
				ft.Set(mock.Key(sel), 2650)
			}
		}
		return firmware.Handle{
			ID:        firmware.Identification{Vendor: "LENOVO", ProductName: "Legion 9i (16IRX9)"},
			Transport: ft,
		}, nil
	default:
		return firmware.Handle{}, fmt.Errorf("unknown transport %q", transport)
	}
}

func attachPolicy(name string) device.Policy {
	switch name {
	case "refuse":
		return device.PolicyRefuse
	case "assume-newest":
		return device.PolicyAssumeNewest
	default:
		return device.PolicyMinimal
	}
}

func slogLevel(name string) slog.Level {
	switch name {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}
