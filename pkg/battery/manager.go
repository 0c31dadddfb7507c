// Package battery implements the battery inventory sub-manager: discovery
// of battery modules by serial number and the readings cohorts that the
// discovery enrolls (spec.md §4.6, grounded on
// original_source/src/rctmon/battery_manager.py).
package battery

import (
	"fmt"
	"time"

	"github.com/svalouch/rctmon/internal/logger"
	"github.com/svalouch/rctmon/pkg/protocol"
	"github.com/svalouch/rctmon/pkg/readings"
	"github.com/svalouch/rctmon/pkg/scheduler"
)

// numModules is the fixed number of per-module serial/cycle-count slots the
// upstream protocol exposes (battery_manager.py's BAT_IDS_MODULE_SN/
// BAT_IDS_CYCLES both have exactly 7 entries).
const numModules = 7

const (
	cyclesInterval      = 300 * time.Second
	settingsInterval    = 300 * time.Second
	slowReadingInterval = 60 * time.Second
	fastReadingInterval = 10 * time.Second
)

// Enroller is the narrow interface the sub-manager uses to extend the poll
// set, kept separate from *scheduler.Table so this package has no direct
// dependency on the scheduler's internals (spec.md §9 design note on
// cyclic references).
type Enroller interface {
	Enroll(name string, interval time.Duration, isInventory bool, handler scheduler.Handler) error
}

// Manager discovers and tracks battery modules and stack-level readings.
type Manager struct {
	enroller Enroller
	readings *readings.Battery

	moduleSNIDs map[uint32]int // object id -> stack index, battery.module_sn[i]
	cyclesIDs   map[uint32]int // object id -> stack index, battery.stack_cycles[i]

	ids fieldIDs
}

// fieldIDs resolves the symbolic battery-readings names to their object ids
// once at construction, so the dispatch switch in handleReadings compares
// against named constants instead of repeating literal hex values already
// recorded once in pkg/protocol's registry.
type fieldIDs struct {
	bmsSN                    uint32
	soh, soc, socTarget      uint32
	temperature              uint32
	batStatus, status, stat2 uint32
	impedanceFine            uint32
	dischargedAmpHours       uint32
	storedEnergy, usedEnergy uint32
	efficiency               uint32
	voltage, current         uint32
	socMin                   uint32
	batteryVoltage           uint32
	batteryPower             uint32
	batteryState             uint32
	cycles                   uint32
}

// NewManager builds a Manager bound to reg for name resolution and bat for
// storage. It panics if the registry is missing any of the fixed battery
// object names, since that is a startup-time configuration error.
func NewManager(enroller Enroller, reg *protocol.Registry, bat *readings.Battery) *Manager {
	m := &Manager{
		enroller:    enroller,
		readings:    bat,
		moduleSNIDs: make(map[uint32]int, numModules),
		cyclesIDs:   make(map[uint32]int, numModules),
	}
	for i := 0; i < numModules; i++ {
		m.moduleSNIDs[reg.MustByName(moduleSNName(i)).ID] = i
		m.cyclesIDs[reg.MustByName(stackCyclesName(i)).ID] = i
	}
	m.ids = fieldIDs{
		bmsSN:              reg.MustByName("battery.bms_sn").ID,
		soh:                reg.MustByName("battery.soh").ID,
		soc:                reg.MustByName("battery.soc").ID,
		socTarget:          reg.MustByName("battery.soc_target").ID,
		temperature:        reg.MustByName("battery.temperature").ID,
		batStatus:          reg.MustByName("battery.bat_status").ID,
		status:             reg.MustByName("battery.status").ID,
		stat2:              reg.MustByName("battery.status2").ID,
		impedanceFine:      reg.MustByName("battery.bat_impedance.impedance_fine").ID,
		dischargedAmpHours: reg.MustByName("battery.discharged_amp_hours").ID,
		storedEnergy:       reg.MustByName("battery.stored_energy").ID,
		usedEnergy:         reg.MustByName("battery.used_energy").ID,
		efficiency:         reg.MustByName("battery.efficiency").ID,
		voltage:            reg.MustByName("battery.voltage").ID,
		current:            reg.MustByName("battery.current").ID,
		socMin:             reg.MustByName("power_mng.soc_min").ID,
		batteryVoltage:     reg.MustByName("power_mng.u_acc_mix_lp").ID,
		batteryPower:       reg.MustByName("power_mng.battery_power").ID,
		batteryState:       reg.MustByName("power_mng.state").ID,
		cycles:             reg.MustByName("battery.cycles").ID,
	}
	return m
}

// HandleBatteryType is bound to power_mng.battery_type (spec.md §4.4:
// "Battery type non-zero → enroll BMS serial and up to seven per-module
// serials..."). A nonzero type enrolls the BMS serial, all seven module
// serial slots, and the settings/slow/fast readings cohorts.
func (m *Manager) HandleBatteryType(_ uint32, value any) {
	n, ok := value.(uint32)
	if !ok {
		logger.Warn("battery: unexpected type for battery_type", "value", value)
		return
	}
	m.readings.Present.Set(n > 0)
	if n == 0 {
		return
	}

	m.mustEnroll("battery.bms_sn", 0, true, m.handleInventory)
	for i := 0; i < numModules; i++ {
		m.mustEnroll(moduleSNName(i), 0, true, m.handleModuleSN)
	}

	for _, name := range []string{"power_mng.soc_min", "battery.soh"} {
		m.mustEnroll(name, settingsInterval, false, m.handleReadings)
	}
	for _, name := range []string{
		"battery.soc", "battery.soc_target", "battery.temperature",
		"battery.bat_status", "battery.discharged_amp_hours", "battery.stored_energy",
		"battery.used_energy", "battery.efficiency", "battery.cycles",
	} {
		m.mustEnroll(name, slowReadingInterval, false, m.handleReadings)
	}
	for _, name := range []string{
		"battery.voltage", "power_mng.u_acc_mix_lp", "power_mng.battery_power",
		"battery.current", "battery.status", "battery.status2", "power_mng.state",
	} {
		m.mustEnroll(name, fastReadingInterval, false, m.handleReadings)
	}
}

func (m *Manager) handleInventory(oid uint32, value any) {
	if oid != m.ids.bmsSN {
		return
	}
	s, ok := value.(string)
	if !ok {
		logger.Warn("battery: unexpected type for bms_sn", "value", value)
		return
	}
	m.readings.BMSSerial.Set(s)
}

// handleModuleSN is bound to all seven battery.module_sn[i] objects
// (spec.md §4.6: "each per-module serial callback maps a fixed object id to
// a fixed index"). An empty string means the module slot is unpopulated; a
// duplicate non-empty serial is logged and ignored.
func (m *Manager) handleModuleSN(oid uint32, value any) {
	idx, ok := m.moduleSNIDs[oid]
	if !ok {
		logger.Warn("battery: module_sn callback got unmapped object id", "oid", oid)
		return
	}
	serial, ok := value.(string)
	if !ok {
		logger.Warn("battery: unexpected type for module_sn", "value", value)
		return
	}
	if serial == "" {
		logger.Info("battery: module not present", "index", idx)
		return
	}
	if !m.readings.RegisterModule(idx, serial) {
		logger.Warn("battery: attempt to add existing module ignored", "index", idx)
		return
	}
	m.mustEnroll(stackCyclesName(idx), cyclesInterval, false, m.handleCycles)
}

func (m *Manager) handleCycles(oid uint32, value any) {
	idx, ok := m.cyclesIDs[oid]
	if !ok {
		logger.Warn("battery: stack_cycles callback got unmapped object id", "oid", oid)
		return
	}
	n, ok := value.(uint32)
	if !ok {
		logger.Warn("battery: unexpected type for stack_cycles", "value", value)
		return
	}
	mod, ok := m.readings.Module(idx)
	if !ok {
		logger.Warn("battery: cycle count arrived for unregistered module", "index", idx)
		return
	}
	mod.CycleCount.Set(n)
}

// handleReadings dispatches the settings/slow/fast cohorts enrolled by
// HandleBatteryType (battery_manager.py's _cb_readings).
func (m *Manager) handleReadings(oid uint32, value any) {
	switch oid {
	case m.ids.soh:
		m.setFloat(&m.readings.SOH, value)
	case m.ids.soc:
		m.setFloat(&m.readings.SOC, value)
	case m.ids.socTarget:
		m.setFloat(&m.readings.SOCTarget, value)
	case m.ids.temperature:
		m.setFloat(&m.readings.Temperature, value)
	case m.ids.batStatus:
		m.setUint32(&m.readings.BatStatus, value)
	case m.ids.status:
		m.setUint32(&m.readings.Status, value)
	case m.ids.stat2:
		m.setUint32(&m.readings.Status2, value)
	case m.ids.impedanceFine:
		m.setFloat(&m.readings.ImpedanceFine, value)
	case m.ids.dischargedAmpHours:
		m.setFloat(&m.readings.DischargedAmpHours, value)
	case m.ids.storedEnergy:
		m.setFloat(&m.readings.StoredEnergy, value)
	case m.ids.usedEnergy:
		m.setFloat(&m.readings.UsedEnergy, value)
	case m.ids.efficiency:
		m.setFloat(&m.readings.Efficiency, value)
	case m.ids.voltage:
		m.setFloat(&m.readings.Voltage, value)
	case m.ids.current:
		m.setFloat(&m.readings.Current, value)
	case m.ids.socMin:
		m.setFloat(&m.readings.SOCMin, value)
	case m.ids.batteryVoltage:
		m.setFloat(&m.readings.BatteryVoltage, value)
	case m.ids.batteryPower:
		m.setFloat(&m.readings.BatteryPower, value)
	case m.ids.batteryState:
		m.setUint32(&m.readings.BatteryState, value)
	case m.ids.cycles:
		m.setUint32(&m.readings.Cycles, value)
	default:
		logger.Warn("battery: unhandled object id in readings callback", "oid", oid)
	}
}

func (m *Manager) setFloat(dst *readings.Value[float64], value any) {
	f, ok := value.(float64)
	if !ok {
		logger.Warn("battery: expected float64 value", "value", value)
		return
	}
	dst.Set(f)
}

func (m *Manager) setUint32(dst *readings.Value[uint32], value any) {
	n, ok := value.(uint32)
	if !ok {
		logger.Warn("battery: expected uint32 value", "value", value)
		return
	}
	dst.Set(n)
}

func (m *Manager) mustEnroll(name string, interval time.Duration, isInventory bool, handler scheduler.Handler) {
	if err := m.enroller.Enroll(name, interval, isInventory, handler); err != nil {
		logger.Error("battery: failed to enroll object", "name", name, "error", err)
	}
}

func moduleSNName(index int) string {
	return fmt.Sprintf("battery.module_sn[%d]", index)
}

func stackCyclesName(index int) string {
	return fmt.Sprintf("battery.stack_cycles[%d]", index)
}
