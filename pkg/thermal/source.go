package thermal

import (
	"context"
	"errors"
	"fmt"

	"github.com/legion-toolkit/legion-core/pkg/firmware"
	"github.com/legion-toolkit/legion-core/pkg/registers"
)

// ErrNoReading indicates the firmware did not deliver a temperature.
// Callers must treat it as "no reading available" rather than reuse an
// earlier value.
var ErrNoReading = errors.New("no temperature reading available")

// Millidegrees is a temperature in thousandths of a degree Celsius, the
// unit the OS thermal framework expects.
type Millidegrees int64

// Degrees returns the whole-degree value, truncated toward zero.
func (m Millidegrees) Degrees() int64 {
	return int64(m) / 1000
}

func (m Millidegrees) String() string {
	return fmt.Sprintf("%d.%03d°C", int64(m)/1000, int64(m)%1000)
}

// Executor performs register operations. *registers.Controller satisfies
// it; tests substitute their own.
type Executor interface {
	Execute(ctx context.Context, op registers.Operation) (uint64, error)
}

// Source is a stateless sensor template: a name, the register channel
// answering temperature queries, the query argument selecting the
// sensor, and the scale factor from raw units to millidegrees.
type Source struct {
	Name    string
	Channel registers.Channel
	Arg     uint64
	Scale   int64
}

// DefaultSources returns the sensor set every supported generation
// exposes on the thermal channel: CPU at query index 0, GPU at 1. The
// firmware reports whole degrees, hence the ×1000 scale.
func DefaultSources() []Source {
	return []Source{
		{Name: "cpu", Channel: registers.ChannelThermal, Arg: 0, Scale: 1000},
		{Name: "gpu", Channel: registers.ChannelThermal, Arg: 1, Scale: 1000},
	}
}

// Temperature reads the sensor through the access layer and applies the
// scale conversion. Any access-layer failure maps to ErrNoReading with
// the cause attached.
func (s Source) Temperature(ctx context.Context, exec Executor) (Millidegrees, error) {
	raw, err := exec.Execute(ctx, registers.Operation{
		Channel: s.Channel,
		Op:      firmware.OpRead,
		Arg:     s.Arg,
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", ErrNoReading, s.Name, err)
	}
	return Millidegrees(int64(raw) * s.Scale), nil
}
