package promexp

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/svalouch/rctmon/pkg/device"
	"github.com/svalouch/rctmon/pkg/protocol"
)

func newTestDispatcher(t *testing.T) *device.Dispatcher {
	t.Helper()
	d, err := device.New(protocol.DefaultRegistry, nil, nil)
	require.NoError(t, err)
	return d
}

func TestCollector_EmitsNothingBeforeNameKnown(t *testing.T) {
	t.Parallel()

	d := newTestDispatcher(t)
	c := NewCollector(d)

	count := testutil.CollectAndCount(c)
	assert.Equal(t, 0, count)
}

func TestCollector_EmitsInverterStatusOnceKnown(t *testing.T) {
	t.Parallel()

	d := newTestDispatcher(t)
	d.Readings().Name.Set("rct-1")
	d.Readings().InverterStatus.Set(3)

	c := NewCollector(d)
	expected := strings.NewReader(`
# HELP rctmon_inverter_status Inverter state machine status.
# TYPE rctmon_inverter_status gauge
rctmon_inverter_status{inverter="rct-1"} 3
`)
	err := testutil.CollectAndCompare(c, expected, "rctmon_inverter_status")
	assert.NoError(t, err)
}

func TestCollector_SkipsHouseholdPhaseUntilKnown(t *testing.T) {
	t.Parallel()

	d := newTestDispatcher(t)
	d.Readings().Name.Set("rct-1")
	d.Readings().Household.LoadTotal.Set(1200.5)

	c := NewCollector(d)
	expected := strings.NewReader(`
# HELP rctmon_household_load Household load (sum over phases).
# TYPE rctmon_household_load gauge
rctmon_household_load{inverter="rct-1"} 1200.5
`)
	err := testutil.CollectAndCompare(c, expected, "rctmon_household_load", "rctmon_household_load_phase")
	assert.NoError(t, err)
}

func TestCollector_BatteryModuleInventory(t *testing.T) {
	t.Parallel()

	d := newTestDispatcher(t)
	d.Readings().Name.Set("rct-1")
	require.True(t, d.Readings().Battery.RegisterModule(0, "BAT-0001"))
	d.Readings().Battery.Modules()[0].CycleCount.Set(42)

	c := NewCollector(d)
	expected := strings.NewReader(`
# HELP rctmon_battery_module_cycles Number of cycles the battery has accumulated over its lifetime.
# TYPE rctmon_battery_module_cycles counter
rctmon_battery_module_cycles{inverter="rct-1",module="0"} 42
`)
	err := testutil.CollectAndCompare(c, expected, "rctmon_battery_module_cycles")
	assert.NoError(t, err)
}

func TestHandler_MetricsExposesRegistryAndRootNotFound(t *testing.T) {
	t.Parallel()

	d := newTestDispatcher(t)
	d.Readings().Name.Set("rct-1")
	d.Readings().InverterStatus.Set(1)

	reg := prometheus.NewRegistry()
	reg.MustRegister(NewCollector(d))

	srv := httptest.NewServer(NewHandler(reg))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp2, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp2.StatusCode)
}
