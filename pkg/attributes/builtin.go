package attributes

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/legion-toolkit/legion-core/pkg/generation"
	"github.com/legion-toolkit/legion-core/pkg/registers"
	"github.com/legion-toolkit/legion-core/pkg/thermal"
)

// Fan and power mode bounds, matching the firmware enumerations.
const (
	FanModeMax   = 2
	PowerModeMax = 3
)

// BuiltinConfig configures the built-in attribute table.
type BuiltinConfig struct {
	// Controller is the register access layer. Required.
	Controller *registers.Controller

	// Detection is the generation detection result.
	Detection generation.Result

	// Capabilities gates the table.
	Capabilities generation.Capabilities

	// Logger is the optional logger for debug output. If nil, logging
	// is disabled.
	Logger *slog.Logger
}

// Builtin builds the standard attribute table. The set is additive
// only: consumers rely on every name below existing on every attached
// device, with gated attributes failing Unsupported rather than being
// absent.
func Builtin(cfg BuiltinConfig) (*Table, error) {
	if cfg.Controller == nil {
		return nil, errors.New("builtin table requires a controller")
	}

	t := NewTable(cfg.Capabilities, cfg.Logger)
	gen := cfg.Detection.Generation
	caps := cfg.Capabilities
	sources := thermal.DefaultSources()

	add := func(meta Metadata, back backing) error {
		return t.Add(&Attribute{meta: meta, back: back})
	}

	entries := []struct {
		meta Metadata
		back backing
	}{
		{
			Metadata{
				Name: "generation", Type: TypeInt, Access: AccessReadOnly,
				Description: "detected hardware generation",
			},
			&cachedBacking{value: int64(gen)},
		},
		{
			Metadata{
				Name: "capabilities", Type: TypeFlagSet, Access: AccessReadOnly,
				Description: "probed control channel capabilities",
			},
			&cachedBacking{value: caps.String()},
		},
		{
			Metadata{
				Name: "fan_mode", Type: TypeEnum, Access: AccessReadWrite,
				Min: 0, Max: FanModeMax, Capability: "fan",
				Description: "fan control mode",
			},
			&registerBacking{exec: cfg.Controller, channel: registers.ChannelFan, keepLast: true},
		},
		{
			Metadata{
				Name: "power_mode", Type: TypeEnum, Access: AccessReadWrite,
				Min: 0, Max: PowerModeMax, Capability: "power",
				Description: "platform power profile",
			},
			&registerBacking{exec: cfg.Controller, channel: registers.ChannelPower, keepLast: true},
		},
		{
			Metadata{
				Name: "cpu_temp", Type: TypeInt, Access: AccessReadOnly,
				Capability: "thermal", Unit: "°C",
				Description: "CPU package temperature",
			},
			&temperatureBacking{exec: cfg.Controller, source: sources[0]},
		},
		{
			Metadata{
				Name: "gpu_temp", Type: TypeInt, Access: AccessReadOnly,
				Capability: "thermal", Unit: "°C",
				Description: "discrete GPU temperature",
			},
			&temperatureBacking{exec: cfg.Controller, source: sources[1]},
		},
		{
			Metadata{
				Name: "fan1_speed", Type: TypeInt, Access: AccessReadOnly,
				Capability: "fan", Unit: "rpm",
				Description: "fan 1 tachometer",
			},
			&registerBacking{exec: cfg.Controller, channel: registers.ChannelFanTach1},
		},
		{
			Metadata{
				Name: "fan2_speed", Type: TypeInt, Access: AccessReadOnly,
				Capability: "fan", Unit: "rpm",
				Description: "fan 2 tachometer",
			},
			&registerBacking{exec: cfg.Controller, channel: registers.ChannelFanTach2},
		},
		{
			Metadata{
				Name: "ec_stats", Type: TypeFlagSet, Access: AccessReadOnly,
				Description: "firmware traffic counters",
			},
			&funcBacking{fn: func(context.Context) (any, error) {
				s := cfg.Controller.Stats()
				return fmt.Sprintf("reads:%d writes:%d errors:%d", s.Reads, s.Writes, s.Errors), nil
			}},
		},
	}

	for _, e := range entries {
		if err := add(e.meta, e.back); err != nil {
			return nil, err
		}
	}
	return t, nil
}
