package generation

import "strconv"

// Generation is the Legion hardware family revision. It selects the
// register map and ACPI method names and is immutable after detection.
type Generation uint8

const (
	// Unknown means the identification strings matched no known model.
	Unknown Generation = 0

	// Gen4 through Gen9 are the supported Legion families. Numeric
	// values match the marketing generation.
	Gen4 Generation = 4
	Gen5 Generation = 5
	Gen6 Generation = 6
	Gen7 Generation = 7
	Gen8 Generation = 8
	Gen9 Generation = 9
)

// Newest is the most recent generation this package knows about. Used
// by the opt-in assume-newest attach policy.
const Newest = Gen9

// Known reports whether g is a recognized generation.
func (g Generation) Known() bool {
	return g >= Gen4 && g <= Gen9
}

// String returns the generation name.
func (g Generation) String() string {
	if !g.Known() {
		return "unknown"
	}
	return "gen" + strconv.Itoa(int(g))
}

// Confidence expresses how the generation was derived.
type Confidence uint8

const (
	// ConfidenceNone means no marker matched; the generation is Unknown.
	ConfidenceNone Confidence = iota

	// ConfidenceFallback means the family matched but not the exact
	// generation; the result is a best guess and must be surfaced as
	// degraded, never hidden.
	ConfidenceFallback

	// ConfidenceExact means a model marker matched directly.
	ConfidenceExact
)

// String returns the confidence name.
func (c Confidence) String() string {
	switch c {
	case ConfidenceNone:
		return "none"
	case ConfidenceFallback:
		return "fallback"
	case ConfidenceExact:
		return "exact"
	default:
		return "unknown"
	}
}

// Result is the outcome of detection.
type Result struct {
	// Generation is the detected family, or Unknown.
	Generation Generation

	// Confidence records how the generation was derived.
	Confidence Confidence

	// Marker is the substring that matched, for logging. Empty when
	// nothing matched.
	Marker string
}

// Degraded reports whether the result was inferred by fallback rather
// than an exact marker match.
func (r Result) Degraded() bool {
	return r.Confidence == ConfidenceFallback
}
