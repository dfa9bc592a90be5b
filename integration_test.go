package legioncore_test

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/legion-toolkit/legion-core/internal/testharness/mock"
	"github.com/legion-toolkit/legion-core/pkg/device"
	"github.com/legion-toolkit/legion-core/pkg/firmware"
	"github.com/legion-toolkit/legion-core/pkg/generation"
	"github.com/legion-toolkit/legion-core/pkg/oplog"
	"github.com/legion-toolkit/legion-core/pkg/registers"
	"github.com/legion-toolkit/legion-core/pkg/thermal"
)

func seededTransport(t *testing.T) *mock.Transport {
	t.Helper()
	ft := mock.NewTransport()
	m, err := registers.MapFor(generation.Gen9)
	require.NoError(t, err)
	sel, ok := m.Selector(registers.ChannelThermal)
	require.True(t, ok)
	ft.SetIndexed(mock.Key(sel), 0, 62)
	ft.SetIndexed(mock.Key(sel), 1, 51)
	return ft
}

// TestE2E_AttachReadWriteDetach drives the full lifecycle against the
// mock firmware: attach with detection and probing, attribute reads and
// writes, thermal polling, suspend/resume, and ordered detach.
func TestE2E_AttachReadWriteDetach(t *testing.T) {
	ft := seededTransport(t)

	var mu sync.Mutex
	readings := map[string]thermal.Millidegrees{}
	registrar, err := thermal.NewPollingRegistrar(thermal.PollingConfig{
		Interval: 5 * time.Millisecond,
		Sink: func(r thermal.Reading) {
			mu.Lock()
			readings[r.Source] = r.Temperature
			mu.Unlock()
		},
	})
	require.NoError(t, err)

	tracePath := filepath.Join(t.TempDir(), "trace.cbor")
	traceLog, err := oplog.NewFileLogger(tracePath)
	require.NoError(t, err)

	manager := device.NewManager(device.ManagerConfig{
		Registrar: registrar,
		Trace:     traceLog,
	})

	handle := firmware.Handle{
		ID:        firmware.Identification{Vendor: "LENOVO", ProductName: "Legion 9i (16IRX9)"},
		Transport: ft,
	}

	dctx, err := manager.Attach(context.Background(), handle)
	require.NoError(t, err)

	// Detection and probing.
	assert.Equal(t, generation.Gen9, dctx.Detection().Generation)
	assert.False(t, dctx.Degraded())
	require.True(t, dctx.Capabilities().Thermal)

	// Attribute round-trips.
	table, err := dctx.Attributes()
	require.NoError(t, err)

	v, err := table.Read(context.Background(), "cpu_temp")
	require.NoError(t, err)
	assert.Equal(t, int64(62), v)

	for _, mode := range []uint64{0, 1, 2} {
		require.NoError(t, table.Write(context.Background(), "fan_mode", mode))
		got, err := table.Read(context.Background(), "fan_mode")
		require.NoError(t, err)
		assert.Equal(t, int64(mode), got)
	}
	assert.ErrorIs(t, table.Write(context.Background(), "power_mode", 5), registers.ErrInvalidArgument)
	require.NoError(t, table.Write(context.Background(), "power_mode", 2))

	// Thermal polling through the registrar.
	exec, err := dctx.Executor()
	require.NoError(t, err)
	require.NoError(t, registrar.Start(exec))
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return readings["cpu"] == 62000 && readings["gpu"] == 51000
	}, 2*time.Second, 5*time.Millisecond)

	// Suspend stops readings, resume restarts them.
	require.NoError(t, manager.Suspend(dctx))
	require.NoError(t, manager.Resume(dctx))

	registrar.Stop()
	require.NoError(t, manager.Detach(dctx))

	// Every register operation went through one serialized lane.
	assert.False(t, ft.Overlapped())

	// Post-detach access fails cleanly.
	_, err = table.Read(context.Background(), "cpu_temp")
	assert.ErrorIs(t, err, registers.ErrUnavailable)

	// The trace log replays the whole session.
	require.NoError(t, traceLog.Close())
	reader, err := oplog.NewReader(tracePath)
	require.NoError(t, err)
	defer reader.Close()

	var kinds = map[oplog.Kind]int{}
	for {
		event, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		kinds[event.Kind]++
	}
	assert.Positive(t, kinds[oplog.KindDetection], "detection event traced")
	assert.Positive(t, kinds[oplog.KindState], "state transitions traced")
	assert.Positive(t, kinds[oplog.KindOperation], "register operations traced")
}

// TestE2E_UnknownHardwareMinimal exercises the capability-minimal path
// end to end: no register operation may ever reach the firmware.
func TestE2E_UnknownHardwareMinimal(t *testing.T) {
	ft := mock.NewTransport()
	manager := device.NewManager(device.ManagerConfig{})

	dctx, err := manager.Attach(context.Background(), firmware.Handle{
		ID:        firmware.Identification{Vendor: "LENOVO", ProductName: "ThinkPad X1"},
		Transport: ft,
	})
	require.NoError(t, err)
	defer manager.Detach(dctx)

	assert.True(t, dctx.Degraded())
	assert.Equal(t, generation.None, dctx.Capabilities())

	table, err := dctx.Attributes()
	require.NoError(t, err)

	caps, err := table.Read(context.Background(), "capabilities")
	require.NoError(t, err)
	assert.Equal(t, "thermal:0 fan:0 rgb:0 power:0 battery:0 custom:0", caps)

	for _, name := range []string{"cpu_temp", "gpu_temp", "fan1_speed"} {
		_, err := table.Read(context.Background(), name)
		assert.ErrorIs(t, err, registers.ErrUnsupported, name)
	}
	assert.ErrorIs(t, table.Write(context.Background(), "fan_mode", 1), registers.ErrUnsupported)
	assert.Zero(t, ft.TotalCalls(), "minimal attach must never touch firmware")
}
