package influxpush

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/svalouch/rctmon/pkg/config"
	"github.com/svalouch/rctmon/pkg/readings"
)

func newTestSink(t *testing.T) *Sink {
	t.Helper()
	s := New(config.InfluxDBConfig{
		Enable: true,
		URL:    "http://127.0.0.1:0",
		Token:  "test-token",
		Org:    "test-org",
		Bucket: "test-bucket",
	})
	t.Cleanup(s.Close)
	return s
}

func TestSink_CollectSkipsUntilNameKnown(t *testing.T) {
	t.Parallel()

	s := newTestSink(t)
	r := readings.New()
	r.TemperatureHeatsink.Set(42.0)

	s.Collect(r)
	assert.Equal(t, uint64(0), s.PointsWritten(), "no points should be buffered before the inverter name is known")
}

func TestSink_CollectWritesTemperaturePoint(t *testing.T) {
	t.Parallel()

	s := newTestSink(t)
	r := readings.New()
	r.Name.Set("rct-1")
	r.TemperatureHeatsink.Set(42.0)
	r.TemperatureCore.Set(55.0)

	s.Collect(r)
	assert.Equal(t, uint64(1), s.PointsWritten())
}

func TestSink_CollectWritesBatteryOverviewAndModules(t *testing.T) {
	t.Parallel()

	s := newTestSink(t)
	r := readings.New()
	r.Name.Set("rct-1")
	r.Battery.SOC.Set(87.5)
	require.True(t, r.Battery.RegisterModule(0, "BAT-0001"))
	mod, ok := r.Battery.Module(0)
	require.True(t, ok)
	mod.CycleCount.Set(10)

	s.Collect(r)
	assert.Equal(t, uint64(2), s.PointsWritten(), "one battery_overview point plus one battery_module point")
}
