package registers

import (
	"context"

	"github.com/legion-toolkit/legion-core/pkg/firmware"
	"github.com/legion-toolkit/legion-core/pkg/generation"
)

// ProbeCapabilities computes the capability set for a freshly attached
// context by issuing one exploratory read per control channel. A
// firmware failure means "capability absent", never a fatal error.
//
// Must run during the controller's probing phase, before the lifecycle
// manager installs the result with SetCapabilities. Battery control
// rides on standard OS interfaces and is assumed present; custom mode
// exists from Gen 7 on.
func ProbeCapabilities(ctx context.Context, c *Controller, gen generation.Generation) generation.Capabilities {
	probe := func(ch Channel) bool {
		_, err := c.Execute(ctx, Operation{Channel: ch, Op: firmware.OpRead})
		return err == nil
	}

	return generation.Capabilities{
		Thermal:    probe(ChannelThermal),
		Fan:        probe(ChannelFan),
		Power:      probe(ChannelPower),
		RGB:        probe(ChannelRGB),
		Battery:    true,
		CustomMode: gen >= generation.Gen7,
	}
}
