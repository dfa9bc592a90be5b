package generation

import (
	"strings"

	"github.com/legion-toolkit/legion-core/pkg/firmware"
)

// marker maps an identification-string substring to a generation.
// Markers are matched in table order; more specific generations come
// first.
type marker struct {
	substr string
	gen    Generation
}

// markers is the known model table. Ordering matters: Gen 9 markers are
// tried before Gen 8, and so on, and all exact markers are tried before
// the family fallback.
var markers = []marker{
	{"Legion 9i", Gen9},
	{"16IRX9", Gen9},
	{"Legion Slim 7i Gen 9", Gen9},
	{"Legion 7i Gen 9", Gen9},
	{"Legion 5i Gen 9", Gen9},

	{"Legion 7i Gen 8", Gen8},
	{"16IRX8", Gen8},
	{"Legion 5i Gen 8", Gen8},
	{"15IRX8", Gen8},

	{"Legion 7i Gen 7", Gen7},
	{"16IRX7", Gen7},
	{"Legion 5i Gen 7", Gen7},
	{"15IRX7", Gen7},

	{"Legion 7i Gen 6", Gen6},
	{"16IRX6", Gen6},
	{"Legion 5i Gen 6", Gen6},
	{"15IRX6", Gen6},
}

// Detect derives the hardware generation from firmware identification.
//
// Both the product name and the product version are matched against the
// marker table in order; recent models ship a bare model code (for
// example "83AG") as the name and carry the marketing string in the
// version. If no exact marker matches but either string still names a
// Legion 7i/5i family machine, Detect returns the newest known
// generation with fallback confidence; acting on that guess is the
// lifecycle manager's decision. Entirely absent or unrecognized strings
// yield Unknown.
func Detect(id firmware.Identification) Result {
	candidates := []string{id.ProductName, id.ProductVersion}

	for _, m := range markers {
		for _, s := range candidates {
			if s != "" && strings.Contains(s, m.substr) {
				return Result{Generation: m.gen, Confidence: ConfidenceExact, Marker: m.substr}
			}
		}
	}

	// Family fallback: a Legion 7i/5i we have no exact marker for is
	// most likely newer than the table.
	for _, s := range candidates {
		if strings.Contains(s, "Legion") &&
			(strings.Contains(s, "7i") || strings.Contains(s, "5i")) {
			return Result{Generation: Newest, Confidence: ConfidenceFallback, Marker: "Legion"}
		}
	}

	return Result{Generation: Unknown, Confidence: ConfidenceNone}
}
