package registers

// Channel identifies a firmware control channel. Channel values are
// unsigned and fixed-width; no implicit sign extension anywhere.
type Channel uint16

const (
	// ChannelThermal answers temperature queries (argument selects the
	// sensor: 0 CPU, 1 GPU).
	ChannelThermal Channel = 1

	// ChannelFan controls the fan mode (0 quiet, 1 balanced, 2 performance).
	ChannelFan Channel = 2

	// ChannelPower controls the power mode (0-3).
	ChannelPower Channel = 3

	// ChannelRGB controls keyboard lighting. Probed for the capability
	// matrix only; lighting protocols are out of scope here.
	ChannelRGB Channel = 4

	// ChannelFanTach1 and ChannelFanTach2 read fan tachometers (RPM).
	// EC-only; generations reached through ACPI methods report these
	// as unsupported.
	ChannelFanTach1 Channel = 5
	ChannelFanTach2 Channel = 6
)

// String returns the channel name.
func (c Channel) String() string {
	switch c {
	case ChannelThermal:
		return "thermal"
	case ChannelFan:
		return "fan"
	case ChannelPower:
		return "power"
	case ChannelRGB:
		return "rgb"
	case ChannelFanTach1:
		return "fan_tach1"
	case ChannelFanTach2:
		return "fan_tach2"
	default:
		return "unknown"
	}
}

// sensitiveChannels marks channels whose raw argument values must never
// appear in logs or traces. No current channel is sensitive; the set
// exists so future write-capable security-sensitive channels inherit
// redaction without code changes at call sites.
var sensitiveChannels = map[Channel]bool{}

// Sensitive reports whether the channel's argument values are redacted
// from logs and traces.
func (c Channel) Sensitive() bool {
	return sensitiveChannels[c]
}
