// Command legiond is the hardware-control daemon for Lenovo Legion
// laptops.
//
// It attaches the detected machine, restores the last applied fan and
// power modes, polls the thermal zones, and tears everything down in
// order on SIGTERM. SIGUSR1 and SIGUSR2 drive the suspend/resume hooks
// for testing.
//
// Usage:
//
//	legiond [flags]
//
// Flags:
//
//	--config string     Configuration file path
//	--log-level string  Override the configured log level
//	--dry-run           Use the in-memory mock firmware
//
// Examples:
//
//	# Run against the real firmware with a config file
//	legiond --config /etc/legiond/legiond.yaml
//
//	# Exercise the full attach/poll/detach path without hardware
//	legiond --dry-run --log-level debug
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/legion-toolkit/legion-core/internal/testharness/mock"
	"github.com/legion-toolkit/legion-core/pkg/config"
	"github.com/legion-toolkit/legion-core/pkg/device"
	"github.com/legion-toolkit/legion-core/pkg/firmware"
	"github.com/legion-toolkit/legion-core/pkg/generation"
	"github.com/legion-toolkit/legion-core/pkg/oplog"
	"github.com/legion-toolkit/legion-core/pkg/persistence"
	"github.com/legion-toolkit/legion-core/pkg/registers"
	"github.com/legion-toolkit/legion-core/pkg/thermal"
)

func main() {
	configPath := pflag.String("config", "", "Configuration file path")
	logLevel := pflag.String("log-level", "", "Override the configured log level")
	dryRun := pflag.Bool("dry-run", false, "Use the in-memory mock firmware")
	pflag.Parse()

	if err := run(*configPath, *logLevel, *dryRun); err != nil {
		fmt.Fprintln(os.Stderr, "legiond:", err)
		os.Exit(1)
	}
}

func run(configPath, logLevel string, dryRun bool) error {
	cfg := config.Default()
	if configPath != "" {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			return err
		}
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if dryRun {
		cfg.Transport = config.TransportMock
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slogLevel(cfg.LogLevel),
	}))

	var trace oplog.Logger = oplog.NoopLogger{}
	if cfg.TraceLog.Path != "" {
		rotating := oplog.NewRotatingLogger(cfg.TraceLog.Path, cfg.TraceLog.MaxSizeMB, cfg.TraceLog.MaxBackups)
		defer rotating.Close()
		trace = rotating
	}

	handle, err := buildHandle(cfg.Transport)
	if err != nil {
		return err
	}

	registrar, err := thermal.NewPollingRegistrar(thermal.PollingConfig{
		Interval: cfg.PollInterval.Std(),
		Logger:   logger,
		Sink: func(r thermal.Reading) {
			logger.Debug("thermal reading",
				slog.String("source", r.Source),
				slog.Int64("millidegrees", int64(r.Temperature)))
		},
	})
	if err != nil {
		return err
	}

	manager := device.NewManager(device.ManagerConfig{
		Policy:    attachPolicy(cfg.AttachPolicy),
		Registrar: registrar,
		Logger:    logger,
		Trace:     trace,
	})

	dctx, err := manager.Attach(context.Background(), handle)
	if err != nil {
		return err
	}
	defer manager.Detach(dctx)

	store := persistence.NewStateStore(cfg.StateFile)
	restoreModes(logger, store, dctx)
	defer saveModes(logger, store, dctx)

	if dctx.Capabilities().Thermal {
		exec, err := dctx.Executor()
		if err != nil {
			return err
		}
		if err := registrar.Start(exec); err != nil {
			return err
		}
		defer registrar.Stop()
	}

	logger.Info("legiond running",
		slog.String("generation", dctx.Detection().Generation.String()),
		slog.String("capabilities", dctx.Capabilities().String()),
		slog.Bool("degraded", dctx.Degraded()))

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM, syscall.SIGUSR1, syscall.SIGUSR2)
	for sig := range signals {
		switch sig {
		case syscall.SIGUSR1:
			if err := manager.Suspend(dctx); err != nil {
				logger.Warn("suspend failed", slog.String("error", err.Error()))
			}
		case syscall.SIGUSR2:
			if err := manager.Resume(dctx); err != nil {
				logger.Warn("resume failed", slog.String("error", err.Error()))
			}
		default:
			logger.Info("shutting down", slog.String("signal", sig.String()))
			return nil
		}
	}
	return nil
}

// buildHandle assembles the firmware handle for the configured
// transport. The mock transport carries a synthetic Gen 9 identity so
// dry runs exercise the full detection path.
func buildHandle(transport config.Transport) (firmware.Handle, error) {
	switch transport {
	case config.TransportACPI:
		return firmware.Handle{
			ID:        firmware.ReadIdentification(firmware.DefaultDMIPath),
			Transport: firmware.NewACPICall(firmware.DefaultACPICallPath),
		}, nil
	case config.TransportECPort:
		port, err := firmware.OpenECPort("")
		if err != nil {
			return firmware.Handle{}, err
		}
		return firmware.Handle{
			ID:        firmware.ReadIdentification(firmware.DefaultDMIPath),
			Transport: port,
		}, nil
	case config.TransportMock:
		ft := mock.NewTransport()
		seedMock(ft)
		return firmware.Handle{
			ID:        firmware.Identification{Vendor: "LENOVO", ProductName: "Legion 9i (16IRX9)"},
			Transport: ft,
		}, nil
	default:
		return firmware.Handle{}, fmt.Errorf("unknown transport %q", transport)
	}
}

// seedMock scripts plausible firmware values for dry runs.
func seedMock(ft *mock.Transport) {
	m, err := registers.MapFor(generation.Gen9)
	if err != nil {
		return
	}
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

// restoreModes reapplies the persisted fan and power modes. A mode the
// hardware no longer supports is dropped silently; everything else is
// logged and kept.
func restoreModes(logger *slog.Logger, store *persistence.StateStore, dctx *device.Context) {
	state, err := store.Load()
	if err != nil {
		logger.Warn("state restore failed", slog.String("error", err.Error()))
		return
	}
	if state == nil {
		return
	}
	table, err := dctx.Attributes()
	if err != nil {
		return
	}
	apply := func(name string, v *uint64) {
		if v == nil {
			return
		}
		if err := table.Write(context.Background(), name, *v); err != nil {
			logger.Warn("mode restore failed",
				slog.String("attribute", name),
				slog.Uint64("value", *v),
				slog.String("error", err.Error()))
			return
		}
		logger.Info("mode restored", slog.String("attribute", name), slog.Uint64("value", *v))
	}
	apply("power_mode", state.PowerMode)
	apply("fan_mode", state.FanMode)
}

// saveModes persists the last applied modes at shutdown.
func saveModes(logger *slog.Logger, store *persistence.StateStore, dctx *device.Context) {
	table, err := dctx.Attributes()
	if err != nil {
		return
	}
	state := &persistence.DaemonState{}
	if v, ok := table.LastWritten("power_mode"); ok {
		state.PowerMode = &v
	}
	if v, ok := table.LastWritten("fan_mode"); ok {
		state.FanMode = &v
	}
	if state.PowerMode == nil && state.FanMode == nil {
		return
	}
	if err := store.Save(state); err != nil {
		logger.Warn("state save failed", slog.String("error", err.Error()))
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
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
