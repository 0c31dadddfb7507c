// Package device implements the dispatcher: it routes decoded (object id,
// value) pairs from the wire to the handlers that mutate the readings
// model, and owns the readings snapshot's lifecycle (spec.md §4.5,
// grounded on original_source/src/rctmon/device_manager.py).
package device

import (
	"strings"
	"sync/atomic"
	"time"

	"github.com/svalouch/rctmon/internal/logger"
	"github.com/svalouch/rctmon/pkg/battery"
	"github.com/svalouch/rctmon/pkg/protocol"
	"github.com/svalouch/rctmon/pkg/readings"
	"github.com/svalouch/rctmon/pkg/scheduler"
)

// bootstrapObject is the human-readable device-description field whose
// arrival kicks discovery into motion (spec.md §8 "Bootstrap" scenario,
// device_manager.py's _cb_android_description).
const bootstrapObject = "android_description"

const (
	householdInterval   = 10 * time.Second
	gridInterval        = 10 * time.Second
	sensorsInterval     = 60 * time.Second
	inverterInterval    = 10 * time.Second
	energyInterval      = 300 * time.Second
	generatorFastPeriod = 10 * time.Second
	generatorSlowPeriod = 120 * time.Second
)

// Dispatcher binds the managed-frame table to the readings snapshot and the
// battery sub-manager, and is the single entry point the connection loop
// calls for every decoded frame (spec.md §4.5, §9 "Scheduling model" —
// everything here runs on the single connection-loop goroutine).
type Dispatcher struct {
	reg     *protocol.Registry
	table   *scheduler.Table
	metrics Metrics

	current atomic.Pointer[readings.Readings]
	battery atomic.Pointer[battery.Manager]
}

// New builds a Dispatcher with a fresh Table bootstrapped on
// android_description, and an empty readings snapshot.
func New(reg *protocol.Registry, schedMetrics scheduler.Metrics, devMetrics Metrics) (*Dispatcher, error) {
	if devMetrics == nil {
		devMetrics = noopMetrics{}
	}
	d := &Dispatcher{reg: reg, metrics: devMetrics}
	table, err := scheduler.NewTable(reg, schedMetrics, bootstrapObject, d.handleAndroidDescription)
	if err != nil {
		return nil, err
	}
	d.table = table
	d.resetSnapshot()
	return d, nil
}

// Table returns the managed-frame table, for the connection loop's tick and
// write path.
func (d *Dispatcher) Table() *scheduler.Table {
	return d.table
}

// Readings returns the current snapshot. Safe to call from any goroutine
// (spec.md §5 "one writer, many readers").
func (d *Dispatcher) Readings() *readings.Readings {
	return d.current.Load()
}

// Reset discards the current snapshot and battery sub-manager, installs
// fresh ones, and clears the managed-frame table down to the bootstrap
// entry. Called by the connection loop on disconnect (spec.md §3
// Lifecycle, §8 "After a disconnect, the managed table contains only the
// bootstrap description entry").
func (d *Dispatcher) Reset() {
	d.table.ClearInventory()
	d.resetSnapshot()
}

func (d *Dispatcher) resetSnapshot() {
	r := readings.New()
	d.current.Store(r)
	d.battery.Store(battery.NewManager(d.table, d.reg, &r.Battery))
}

// OnFrame decodes a complete wire frame's payload and dispatches it to the
// handler registered for its object id (device_manager.py's on_frame).
// Structural decode failures are reported via Metrics and the frame is
// dropped without calling MarkArrival, leaving the managed frame's
// in_flight flag set so the scheduler's own timeout path re-issues it
// later (spec.md §6 "Payload unpack error").
func (d *Dispatcher) OnFrame(frame *protocol.Frame, now time.Time) {
	mf, ok := d.table.Frame(frame.ObjectID)
	if !ok {
		logger.Warn("device: response for unmanaged object id", "oid", frame.ObjectID)
		return
	}
	desc, ok := d.reg.ByID(frame.ObjectID)
	if !ok {
		logger.Warn("device: response for object id missing from registry", "oid", frame.ObjectID)
		return
	}
	value, err := decodeValue(desc, frame.Payload)
	if err != nil {
		d.metrics.IncDecodeError("payload")
		logger.Warn("device: payload decode failed", "name", desc.Name, "error", err)
		return
	}
	d.table.MarkArrival(frame.ObjectID, now)
	if mf.Handler != nil {
		mf.Handler(frame.ObjectID, value)
	}
}

// handleAndroidDescription sets the device name and enrolls the inventory
// and periodic-readings cohorts that are always present, regardless of
// what inventory subsequently discovers (device_manager.py's
// _cb_android_description plus the tail of its constructor that runs once
// the name is known).
func (d *Dispatcher) handleAndroidDescription(_ uint32, value any) {
	s, ok := value.(string)
	if !ok {
		logger.Warn("device: unexpected type for android_description", "value", value)
		return
	}
	name := strings.TrimSpace(s)
	if name == "" {
		name = "UNKNOWN"
	}
	r := d.current.Load()
	r.Name.Set(name)

	d.mustEnroll("inverter_sn", 0, true, d.handleInventory)
	d.mustEnroll("svnversion", 0, true, d.handleInventory)
	d.mustEnroll("parameter_file", 0, true, d.handleInventory)
	d.mustEnroll("dc_conv.dc_conv_struct[0].enabled", 0, true, d.handleInventory)
	d.mustEnroll("dc_conv.dc_conv_struct[1].enabled", 0, true, d.handleInventory)
	d.mustEnroll("rb485.available", 0, true, d.handleInventory)
	d.mustEnroll("power_mng.battery_type", 0, true, d.battery.Load().HandleBatteryType)

	for _, name := range []string{
		"g_sync.p_ac_load_sum_lp", "g_sync.p_ac_load[0]", "g_sync.p_ac_load[1]", "g_sync.p_ac_load[2]",
	} {
		d.mustEnroll(name, householdInterval, false, d.handleHousehold)
	}
	for _, name := range []string{
		"g_sync.p_ac_grid_sum_lp", "g_sync.p_ac_sc[0]", "g_sync.p_ac_sc[1]", "g_sync.p_ac_sc[2]",
		"g_sync.u_l_rms[0]", "g_sync.u_l_rms[1]", "g_sync.u_l_rms[2]",
	} {
		d.mustEnroll(name, gridInterval, false, d.handleGrid)
	}
	for _, name := range []string{"db.temp1", "db.temp2", "db.core_temp"} {
		d.mustEnroll(name, sensorsInterval, false, d.handleSensors)
	}
	for _, name := range []string{
		"prim_sm.state", "prim_sm.island_flag", "fault[0].flt", "fault[1].flt", "fault[2].flt", "fault[3].flt",
		"iso_struct.Riso", "iso_struct.Rp", "iso_struct.Rn",
	} {
		d.mustEnroll(name, inverterInterval, false, d.handleInverter)
	}
	for _, name := range []string{
		"energy.e_ac_total", "energy.e_grid_feed_total", "energy.e_grid_load_total", "energy.e_load_total",
	} {
		d.mustEnroll(name, energyInterval, false, d.handleEnergy)
	}
}

// handleInventory dispatches the bootstrap inventory objects: identity
// strings, the power-switch presence check, and the two solar-generator
// presence checks, each of which enrolls further objects when true
// (device_manager.py's _cb_inventory).
func (d *Dispatcher) handleInventory(oid uint32, value any) {
	r := d.current.Load()
	switch {
	case oid == d.mustID("inverter_sn"):
		if s, ok := value.(string); ok {
			r.SerialNumber.Set(s)
		}
	case oid == d.mustID("svnversion"):
		if s, ok := value.(string); ok {
			r.ControlSoftwareVersion.Set(s)
		}
	case oid == d.mustID("parameter_file"):
		if s, ok := value.(string); ok {
			r.ParameterFile.Set(s)
		}
	case oid == d.mustID("rb485.version_main"):
		if n, ok := value.(uint32); ok {
			r.PowerSwitch.SoftwareVersion.Set(n)
		}
	case oid == d.mustID("rb485.version_boot"):
		if n, ok := value.(uint32); ok {
			r.PowerSwitch.BootloaderVersion.Set(n)
		}
	case oid == d.mustID("rb485.available"):
		d.handlePowerSwitchAvailable(value)
	case oid == d.mustID("dc_conv.dc_conv_struct[0].enabled"):
		d.handleGeneratorPresence(value, &r.HaveGeneratorA,
			[]string{"g_sync.u_sg_avg[0]", "dc_conv.dc_conv_struct[0].p_dc_lp"},
			[]string{"dc_conv.dc_conv_struct[0].u_target", "dc_conv.dc_conv_struct[0].mpp.mpp_step"},
			"energy.e_dc_total[0]")
	case oid == d.mustID("dc_conv.dc_conv_struct[1].enabled"):
		d.handleGeneratorPresence(value, &r.HaveGeneratorB,
			[]string{"g_sync.u_sg_avg[1]", "dc_conv.dc_conv_struct[1].p_dc_lp"},
			[]string{"dc_conv.dc_conv_struct[1].u_target", "dc_conv.dc_conv_struct[1].mpp.mpp_step"},
			"energy.e_dc_total[1]")
	default:
		logger.Warn("device: handleInventory got unmapped object id", "oid", oid)
	}
}

func (d *Dispatcher) handlePowerSwitchAvailable(value any) {
	b, ok := value.(bool)
	if !ok {
		logger.Warn("device: unexpected type for rb485.available", "value", value)
		return
	}
	d.current.Load().PowerSwitchAvailable.Set(b)
	if !b {
		return
	}
	d.mustEnroll("rb485.version_main", 0, true, d.handleInventory)
	d.mustEnroll("rb485.version_boot", 0, true, d.handleInventory)
	for _, name := range []string{
		"rb485.u_l_grid[0]", "rb485.u_l_grid[1]", "rb485.u_l_grid[2]",
		"rb485.f_grid[0]", "rb485.f_grid[1]", "rb485.f_grid[2]",
		"rb485.f_wr[0]", "rb485.f_wr[1]", "rb485.f_wr[2]",
	} {
		d.mustEnroll(name, gridInterval, false, d.handlePowerSwitch)
	}
}

// handleGeneratorPresence mirrors the "check for solar generator A/B"
// branches: a nonzero enabled flag enrolls the fast cohort (voltage/power),
// the slow cohort (MPP tracking, polled every 120s since it rarely
// changes), and the generator's lifetime energy counter.
func (d *Dispatcher) handleGeneratorPresence(value any, present *readings.Value[bool], fast, slow []string, energyName string) {
	b, ok := value.(bool)
	if !ok {
		logger.Warn("device: unexpected type for generator presence flag", "value", value)
		return
	}
	present.Set(b)
	if !b {
		return
	}
	for _, name := range fast {
		d.mustEnroll(name, generatorFastPeriod, false, d.handleSolarGenerator)
	}
	for _, name := range slow {
		d.mustEnroll(name, generatorSlowPeriod, false, d.handleSolarGenerator)
	}
	d.mustEnroll(energyName, energyInterval, false, d.handleEnergy)
}

func (d *Dispatcher) handlePowerSwitch(oid uint32, value any) {
	f, ok := value.(float64)
	if !ok {
		logger.Warn("device: unexpected type for power switch reading", "oid", oid, "value", value)
		return
	}
	ps := &d.current.Load().PowerSwitch
	switch d.mustName(oid) {
	case "rb485.u_l_grid[0]":
		ps.GridVoltageL1.Set(f)
	case "rb485.u_l_grid[1]":
		ps.GridVoltageL2.Set(f)
	case "rb485.u_l_grid[2]":
		ps.GridVoltageL3.Set(f)
	case "rb485.f_grid[0]":
		ps.GridFrequencyL1.Set(f)
	case "rb485.f_grid[1]":
		ps.GridFrequencyL2.Set(f)
	case "rb485.f_grid[2]":
		ps.GridFrequencyL3.Set(f)
	case "rb485.f_wr[0]":
		ps.StorageFrequencyL1.Set(f)
	case "rb485.f_wr[1]":
		ps.StorageFrequencyL2.Set(f)
	case "rb485.f_wr[2]":
		ps.StorageFrequencyL3.Set(f)
	default:
		logger.Warn("device: handlePowerSwitch got unmapped object id", "oid", oid)
	}
}

func (d *Dispatcher) handleHousehold(oid uint32, value any) {
	f, ok := value.(float64)
	if !ok {
		logger.Warn("device: unexpected type for household reading", "oid", oid, "value", value)
		return
	}
	h := &d.current.Load().Household
	switch d.mustName(oid) {
	case "g_sync.p_ac_load_sum_lp":
		h.LoadTotal.Set(f)
	case "g_sync.p_ac_load[0]":
		h.LoadL1.Set(f)
	case "g_sync.p_ac_load[1]":
		h.LoadL2.Set(f)
	case "g_sync.p_ac_load[2]":
		h.LoadL3.Set(f)
	default:
		logger.Warn("device: handleHousehold got unmapped object id", "oid", oid)
	}
}

func (d *Dispatcher) handleGrid(oid uint32, value any) {
	f, ok := value.(float64)
	if !ok {
		logger.Warn("device: unexpected type for grid reading", "oid", oid, "value", value)
		return
	}
	g := &d.current.Load().Grid
	switch d.mustName(oid) {
	case "g_sync.p_ac_grid_sum_lp":
		g.PowerTotal.Set(f)
	case "g_sync.p_ac_sc[0]":
		g.PowerL1.Set(f)
	case "g_sync.p_ac_sc[1]":
		g.PowerL2.Set(f)
	case "g_sync.p_ac_sc[2]":
		g.PowerL3.Set(f)
	case "g_sync.u_l_rms[0]":
		g.VoltageL1.Set(f)
	case "g_sync.u_l_rms[1]":
		g.VoltageL2.Set(f)
	case "g_sync.u_l_rms[2]":
		g.VoltageL3.Set(f)
	default:
		logger.Warn("device: handleGrid got unmapped object id", "oid", oid)
	}
}

func (d *Dispatcher) handleSolarGenerator(oid uint32, value any) {
	f, ok := value.(float64)
	if !ok {
		logger.Warn("device: unexpected type for solar generator reading", "oid", oid, "value", value)
		return
	}
	r := d.current.Load()
	switch d.mustName(oid) {
	case "g_sync.u_sg_avg[0]":
		r.SolarGeneratorA.Voltage.Set(f)
	case "dc_conv.dc_conv_struct[0].p_dc_lp":
		r.SolarGeneratorA.Power.Set(f)
	case "dc_conv.dc_conv_struct[0].u_target":
		r.SolarGeneratorA.MPPTargetVoltage.Set(f)
	case "dc_conv.dc_conv_struct[0].mpp.mpp_step":
		r.SolarGeneratorA.MPPSearchStep.Set(f)
	case "g_sync.u_sg_avg[1]":
		r.SolarGeneratorB.Voltage.Set(f)
	case "dc_conv.dc_conv_struct[1].p_dc_lp":
		r.SolarGeneratorB.Power.Set(f)
	case "dc_conv.dc_conv_struct[1].u_target":
		r.SolarGeneratorB.MPPTargetVoltage.Set(f)
	case "dc_conv.dc_conv_struct[1].mpp.mpp_step":
		r.SolarGeneratorB.MPPSearchStep.Set(f)
	default:
		logger.Warn("device: handleSolarGenerator got unmapped object id", "oid", oid)
	}
}

func (d *Dispatcher) handleSensors(oid uint32, value any) {
	f, ok := value.(float64)
	if !ok {
		logger.Warn("device: unexpected type for sensor reading", "oid", oid, "value", value)
		return
	}
	r := d.current.Load()
	switch d.mustName(oid) {
	case "db.temp1":
		r.TemperatureHeatsink.Set(f)
	case "db.temp2":
		r.TemperatureHeatsinkBatt.Set(f)
	case "db.core_temp":
		r.TemperatureCore.Set(f)
	default:
		logger.Warn("device: handleSensors got unmapped object id", "oid", oid)
	}
}

func (d *Dispatcher) handleInverter(oid uint32, value any) {
	r := d.current.Load()
	name := d.mustName(oid)
	switch name {
	case "prim_sm.state", "prim_sm.island_flag", "fault[0].flt", "fault[1].flt", "fault[2].flt", "fault[3].flt":
		n, ok := value.(uint32)
		if !ok {
			logger.Warn("device: unexpected type for inverter status reading", "oid", oid, "value", value)
			return
		}
		switch name {
		case "prim_sm.state":
			r.InverterStatus.Set(n)
		case "prim_sm.island_flag":
			r.InverterGridSeparated.Set(n)
		case "fault[0].flt":
			r.Fault0.Set(n)
		case "fault[1].flt":
			r.Fault1.Set(n)
		case "fault[2].flt":
			r.Fault2.Set(n)
		case "fault[3].flt":
			r.Fault3.Set(n)
		}
	case "iso_struct.Riso", "iso_struct.Rp", "iso_struct.Rn":
		f, ok := value.(float64)
		if !ok {
			logger.Warn("device: unexpected type for insulation reading", "oid", oid, "value", value)
			return
		}
		switch name {
		case "iso_struct.Riso":
			r.InsulationTotal.Set(f)
		case "iso_struct.Rp":
			r.InsulationPositive.Set(f)
		case "iso_struct.Rn":
			r.InsulationNegative.Set(f)
		}
	default:
		logger.Warn("device: handleInverter got unmapped object id", "oid", oid)
	}
}

func (d *Dispatcher) handleEnergy(oid uint32, value any) {
	f, ok := value.(float64)
	if !ok {
		logger.Warn("device: unexpected type for energy reading", "oid", oid, "value", value)
		return
	}
	e := &d.current.Load().Energy
	switch d.mustName(oid) {
	case "energy.e_ac_total":
		e.ACSum.Set(f)
	case "energy.e_load_total":
		e.HouseholdSum.Set(f)
	case "energy.e_grid_feed_total":
		e.GridFeedSum.Set(f)
	case "energy.e_grid_load_total":
		e.GridLoadSum.Set(f)
	case "energy.e_dc_total[0]":
		e.SolarGeneratorASum.Set(f)
	case "energy.e_dc_total[1]":
		e.SolarGeneratorBSum.Set(f)
	default:
		logger.Warn("device: handleEnergy got unmapped object id", "oid", oid)
	}
}

func (d *Dispatcher) mustEnroll(name string, interval time.Duration, isInventory bool, handler scheduler.Handler) {
	if err := d.table.Enroll(name, interval, isInventory, handler); err != nil {
		logger.Error("device: failed to enroll object", "name", name, "error", err)
	}
}

func (d *Dispatcher) mustID(name string) uint32 {
	return d.reg.MustByName(name).ID
}

func (d *Dispatcher) mustName(oid uint32) string {
	desc, ok := d.reg.ByID(oid)
	if !ok {
		return ""
	}
	return desc.Name
}
