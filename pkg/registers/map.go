package registers

import (
	"errors"

	"github.com/legion-toolkit/legion-core/pkg/firmware"
	"github.com/legion-toolkit/legion-core/pkg/generation"
)

// ErrNoRegisterMap indicates no register map exists for a generation.
var ErrNoRegisterMap = errors.New("no register map for generation")

// Map binds channels to their transport selectors for one hardware
// generation. Maps are immutable after construction.
type Map struct {
	// Generation this map serves.
	Generation generation.Generation

	// ECBase is the EC address window base for this generation.
	ECBase uint16

	selectors map[Channel]firmware.Selector
}

// Selector returns the binding for a channel. The second return is
// false when the generation exposes no such channel.
func (m *Map) Selector(ch Channel) (firmware.Selector, bool) {
	sel, ok := m.selectors[ch]
	return sel, ok
}

// Channels returns the channels this generation exposes, for probing.
func (m *Map) Channels() []Channel {
	chans := make([]Channel, 0, len(m.selectors))
	for ch := range m.selectors {
		chans = append(chans, ch)
	}
	return chans
}

// ACPI method paths per firmware layout. Gen 6/7 firmware names the LPC
// bridge PCI0, Gen 8/9 firmware names it PC00.
const (
	acpiThermalOld = `\_SB.PCI0.LPC0.EC0.SPMO`
	acpiFanOld     = `\_SB.PCI0.LPC0.EC0.SFAN`
	acpiPowerOld   = `\_SB.PCI0.LPC0.EC0.SPWR`
	acpiRGBOld     = `\_SB.PCI0.LPC0.EC0.SRGB`

	acpiThermalNew = `\_SB.PC00.LPC0.EC0.SPMO`
	acpiFanNew     = `\_SB.PC00.LPC0.EC0.SFAN`
	acpiPowerNew   = `\_SB.PC00.LPC0.EC0.SPWR`
	acpiRGBNew     = `\_SB.PC00.LPC0.EC0.SRGB`
)

// EC register offsets within the Gen 8/9 EC window. Earlier generations
// are reached through ACPI methods only.
const (
	ecRegPowerMode   = 0xA0
	ecRegThermalMode = 0xA2
	ecRegFan1Speed   = 0xB0
	ecRegFan2Speed   = 0xB1
	ecRegRGBMode     = 0xF0
)

// EC window bases per generation.
const (
	ecBaseOld = 0x0300
	ecBaseNew = 0x0400
)

// MapFor returns the register map for a generation.
func MapFor(gen generation.Generation) (*Map, error) {
	switch gen {
	case generation.Gen6, generation.Gen7:
		return &Map{
			Generation: gen,
			ECBase:     ecBaseOld,
			selectors: map[Channel]firmware.Selector{
				ChannelThermal: {Method: acpiThermalOld},
				ChannelFan:     {Method: acpiFanOld},
				ChannelPower:   {Method: acpiPowerOld},
				ChannelRGB:     {Method: acpiRGBOld},
			},
		}, nil
	case generation.Gen8, generation.Gen9:
		return &Map{
			Generation: gen,
			ECBase:     ecBaseNew,
			selectors: map[Channel]firmware.Selector{
				ChannelThermal:  {Method: acpiThermalNew},
				ChannelFan:      {Method: acpiFanNew, Register: ecBaseNew | ecRegThermalMode},
				ChannelPower:    {Method: acpiPowerNew, Register: ecBaseNew | ecRegPowerMode},
				ChannelRGB:      {Method: acpiRGBNew, Register: ecBaseNew | ecRegRGBMode},
				ChannelFanTach1: {Register: ecBaseNew | ecRegFan1Speed},
				ChannelFanTach2: {Register: ecBaseNew | ecRegFan2Speed},
			},
		}, nil
	default:
		return nil, ErrNoRegisterMap
	}
}
