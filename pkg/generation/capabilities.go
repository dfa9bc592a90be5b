package generation

import (
	"fmt"
)

// Capabilities is the fixed set of capability flags computed once at
// attach from the generation plus live probing. It is a value type:
// copies are cheap and the attached copy is never mutated.
type Capabilities struct {
	// Thermal indicates the thermal query channel answered.
	Thermal bool

	// Fan indicates the fan control channel answered.
	Fan bool

	// RGB indicates the RGB control channel answered.
	RGB bool

	// Power indicates the power mode channel answered.
	Power bool

	// Battery indicates battery control through standard interfaces.
	Battery bool

	// CustomMode indicates the custom performance mode (Gen 7+).
	CustomMode bool
}

// None is the confirmed-only capability set used for capability-minimal
// attach: everything off.
var None = Capabilities{}

// String renders the flag set in the stable attribute format:
// "thermal:1 fan:0 rgb:0 power:1 battery:1 custom:1". The order is part
// of the external contract and never changes.
func (c Capabilities) String() string {
	return fmt.Sprintf("thermal:%s fan:%s rgb:%s power:%s battery:%s custom:%s",
		flag(c.Thermal), flag(c.Fan), flag(c.RGB),
		flag(c.Power), flag(c.Battery), flag(c.CustomMode))
}

func flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// Any reports whether at least one capability is present.
func (c Capabilities) Any() bool {
	return c.Thermal || c.Fan || c.RGB || c.Power || c.Battery || c.CustomMode
}
