// Package promexp implements the scrape adapter: an on-demand Prometheus
// collector over the dispatcher's current readings snapshot, plus the HTTP
// handler that exposes it (spec.md §4.7 "Scrape adapter"). Grounded
// metric-for-metric on original_source/src/rctmon/models.py's
// Readings.collect()/SolarGeneratorReadings.collect()/etc. and
// battery_manager.py's BatteryManager.collect().
package promexp

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/svalouch/rctmon/pkg/device"
	"github.com/svalouch/rctmon/pkg/readings"
)

// Collector reads dispatcher.Readings() fresh on every Collect call. A
// metric is emitted only if its underlying leaf is known (spec.md §4.7), so
// Describe intentionally yields nothing: the set of descriptors varies with
// what the device has reported so far, the same dynamic shape the Python
// custom collector has. This makes Collector an unchecked collector in
// client_golang's terms, which is the documented way to model a collector
// whose metric set isn't static.
type Collector struct {
	dispatcher *device.Dispatcher
}

// NewCollector builds a Collector reading from dispatcher.
func NewCollector(dispatcher *device.Dispatcher) *Collector {
	return &Collector{dispatcher: dispatcher}
}

// Describe implements prometheus.Collector. Left empty on purpose; see the
// Collector doc comment.
func (c *Collector) Describe(_ chan<- *prometheus.Desc) {}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	r := c.dispatcher.Readings()
	name, ok := r.Name.Get()
	if !ok {
		return
	}

	collectInventory(ch, r, name)
	collectInverter(ch, r, name)
	collectGenerator(ch, r, name, "generator_a", r.HaveGeneratorA, &r.SolarGeneratorA)
	collectGenerator(ch, r, name, "generator_b", r.HaveGeneratorB, &r.SolarGeneratorB)
	collectTemperature(ch, r, name)
	collectInsulationAndFaults(ch, r, name)
	collectHousehold(ch, &r.Household, name)
	collectGrid(ch, &r.Grid, name)
	collectEnergy(ch, &r.Energy, name)
	collectPowerSwitch(ch, r, name)
	collectBattery(ch, &r.Battery, name)
}

func gauge(ch chan<- prometheus.Metric, fqName, help string, value float64, labelNames, labelValues []string) {
	desc := prometheus.NewDesc(fqName, help, labelNames, nil)
	ch <- prometheus.MustNewConstMetric(desc, prometheus.GaugeValue, value, labelValues...)
}

func counter(ch chan<- prometheus.Metric, fqName, help string, value float64, labelNames, labelValues []string) {
	desc := prometheus.NewDesc(fqName, help, labelNames, nil)
	ch <- prometheus.MustNewConstMetric(desc, prometheus.CounterValue, value, labelValues...)
}

func info(ch chan<- prometheus.Metric, fqName, help string, labelNames, labelValues []string) {
	desc := prometheus.NewDesc(fqName, help, labelNames, nil)
	ch <- prometheus.MustNewConstMetric(desc, prometheus.GaugeValue, 1, labelValues...)
}

// collectInventory mirrors device_manager.py's rctmon_inventory family: one
// sample per discovered optional component, present/absent as 1/0.
func collectInventory(ch chan<- prometheus.Metric, r *readings.Readings, name string) {
	components := []struct {
		component string
		present   readings.Value[bool]
	}{
		{"generator_a", r.HaveGeneratorA},
		{"generator_b", r.HaveGeneratorB},
		{"power_switch", r.PowerSwitchAvailable},
	}
	for _, c := range components {
		v, ok := c.present.Get()
		if !ok {
			continue
		}
		val := 0.0
		if v {
			val = 1.0
		}
		gauge(ch, "rctmon_inventory", "Whether an optional device component is present.", val,
			[]string{"inverter", "component"}, []string{name, c.component})
	}
}

func collectInverter(ch chan<- prometheus.Metric, r *readings.Readings, name string) {
	serial, hasSerial := r.SerialNumber.Get()
	paramFile, hasParamFile := r.ParameterFile.Get()
	softwareVersion, hasSoftwareVersion := r.ControlSoftwareVersion.Get()
	if hasSerial && hasParamFile && hasSoftwareVersion {
		info(ch, "rctmon_inverter", "Information about the inverter.",
			[]string{"inverter", "serial_number", "parameter_file", "control_software_version"},
			[]string{name, serial, paramFile, softwareVersion})
	}

	if v, ok := r.InverterStatus.Get(); ok {
		gauge(ch, "rctmon_inverter_status", "Inverter state machine status.", float64(v),
			[]string{"inverter"}, []string{name})
	}
	if v, ok := r.InverterGridSeparated.Get(); ok {
		gauge(ch, "rctmon_inverter_grid_separated", "Whether the inverter is separated from the grid.", float64(v),
			[]string{"inverter"}, []string{name})
	}
}

func collectGenerator(ch chan<- prometheus.Metric, _ *readings.Readings, name, generator string, have readings.Value[bool], g *readings.SolarGenerator) {
	if present, ok := have.Get(); !ok || !present {
		return
	}
	label := generatorLabel(generator)
	if v, ok := g.Voltage.Get(); ok {
		gauge(ch, "rctmon_generator_voltage_volt", "Solar generator voltage.", v,
			[]string{"inverter", "generator"}, []string{name, label})
	}
	if v, ok := g.Power.Get(); ok {
		gauge(ch, "rctmon_generator_power_watt", "Solar generator power.", v,
			[]string{"inverter", "generator"}, []string{name, label})
	}
	if v, ok := g.MPPTargetVoltage.Get(); ok {
		gauge(ch, "rctmon_generator_mpp_target_voltage_volt", "MPP tracker target voltage.", v,
			[]string{"inverter", "generator"}, []string{name, label})
	}
	if v, ok := g.MPPSearchStep.Get(); ok {
		gauge(ch, "rctmon_generator_mpp_search_step_volt", "MPP tracker search step.", v,
			[]string{"inverter", "generator"}, []string{name, label})
	}
}

// generatorLabel maps the snapshot's verbose generator key to the single-
// letter label the original emits on rctmon_generator_* (models.py
// Readings.collect()'s 'a'/'b'); the inventory gauge above keeps the
// verbose form since that's what device_manager.py's collect() uses there.
func generatorLabel(generator string) string {
	if generator == "generator_a" {
		return "a"
	}
	return "b"
}

func collectTemperature(ch chan<- prometheus.Metric, r *readings.Readings, name string) {
	sensors := []struct {
		sensor string
		value  readings.Value[float64]
	}{
		{"heatsink", r.TemperatureHeatsink},
		{"heatsink_battery_actuator", r.TemperatureHeatsinkBatt},
		{"core", r.TemperatureCore},
	}
	for _, s := range sensors {
		v, ok := s.value.Get()
		if !ok {
			continue
		}
		gauge(ch, "rctmon_temperature", "Temperature values in °C.", v,
			[]string{"inverter", "sensor"}, []string{name, s.sensor})
	}
}

func collectInsulationAndFaults(ch chan<- prometheus.Metric, r *readings.Readings, name string) {
	units := []struct {
		unit  string
		value readings.Value[float64]
	}{
		{"total", r.InsulationTotal},
		{"positive", r.InsulationPositive},
		{"negative", r.InsulationNegative},
	}
	for _, u := range units {
		v, ok := u.value.Get()
		if !ok {
			continue
		}
		gauge(ch, "rctmon_inverter_insulation", "Insulation in Ohm.", v,
			[]string{"inverter", "unit"}, []string{name, u.unit})
	}

	faults := []readings.Value[uint32]{r.Fault0, r.Fault1, r.Fault2, r.Fault3}
	for i, f := range faults {
		v, ok := f.Get()
		if !ok {
			continue
		}
		gauge(ch, "rctmon_inverter_faults", "Fault register bitmask.", float64(v),
			[]string{"inverter", "register"}, []string{name, strconv.Itoa(i)})
	}
}

func collectHousehold(ch chan<- prometheus.Metric, h *readings.Household, name string) {
	if v, ok := h.LoadTotal.Get(); ok {
		gauge(ch, "rctmon_household_load", "Household load (sum over phases).", v,
			[]string{"inverter"}, []string{name})
	}
	phases := []struct {
		phase string
		value readings.Value[float64]
	}{
		{"l1", h.LoadL1}, {"l2", h.LoadL2}, {"l3", h.LoadL3},
	}
	for _, p := range phases {
		v, ok := p.value.Get()
		if !ok {
			continue
		}
		gauge(ch, "rctmon_household_load_phase", "Household load by phase.", v,
			[]string{"inverter", "phase"}, []string{name, p.phase})
	}
}

// collectGrid mirrors models.py GridReadings.collect(). Note power_total has
// no emission path there (the `if power_total is not None: pass` branch is
// dead code in the original), so PowerTotal is tracked in the snapshot but
// has no scrape metric here; the push sink does not write it either.
func collectGrid(ch chan<- prometheus.Metric, g *readings.Grid, name string) {
	powerPhases := []struct {
		phase string
		value readings.Value[float64]
	}{
		{"l1", g.PowerL1}, {"l2", g.PowerL2}, {"l3", g.PowerL3},
	}
	for _, p := range powerPhases {
		if v, ok := p.value.Get(); ok {
			gauge(ch, "rctmon_grid_power_watt", "Power to or from the grid by phase.", v,
				[]string{"inverter", "phase"}, []string{name, p.phase})
		}
	}
	voltagePhases := []struct {
		phase string
		value readings.Value[float64]
	}{
		{"l1", g.VoltageL1}, {"l2", g.VoltageL2}, {"l3", g.VoltageL3},
	}
	for _, p := range voltagePhases {
		if v, ok := p.value.Get(); ok {
			gauge(ch, "rctmon_grid_voltage_volt", "Grid voltage by phase.", v,
				[]string{"inverter", "phase"}, []string{name, p.phase})
		}
	}
	p2pMeasurements := []struct {
		measurement string
		value       readings.Value[float64]
	}{
		{"1", g.PhaseToPhaseVoltage1}, {"2", g.PhaseToPhaseVoltage2}, {"3", g.PhaseToPhaseVoltage3},
	}
	for _, p := range p2pMeasurements {
		if v, ok := p.value.Get(); ok {
			gauge(ch, "rctmon_grid_voltage_phase_to_phase_volt", "Grid voltage phase to phase.", v,
				[]string{"inverter", "measurement"}, []string{name, p.measurement})
		}
	}
	if v, ok := g.Frequency.Get(); ok {
		gauge(ch, "rctmon_grid_frequency_hertz", "Grid frequency.", v,
			[]string{"inverter"}, []string{name})
	}
}

// collectEnergy mirrors models.py EnergyReadings.collect(). These are
// monotonically-increasing device counters exposed as gauges in the
// original (GaugeMetricFamily, not CounterMetricFamily) since rctmon only
// relays the device's own running totals rather than computing a delta;
// kept as gauges here for the same reason.
func collectEnergy(ch chan<- prometheus.Metric, e *readings.Energy, name string) {
	if v, ok := e.ACSum.Get(); ok {
		gauge(ch, "rctmon_energy_ac_sum", "Total inverter energy in Wh.", v,
			[]string{"inverter"}, []string{name})
	}
	if v, ok := e.HouseholdSum.Get(); ok {
		gauge(ch, "rctmon_energy_household_sum", "Total household energy in Wh.", v,
			[]string{"inverter"}, []string{name})
	}
	if v, ok := e.GridLoadSum.Get(); ok {
		gauge(ch, "rctmon_energy_grid_load_sum", "Total grid load energy in Wh.", v,
			[]string{"inverter"}, []string{name})
	}
	if v, ok := e.GridFeedSum.Get(); ok {
		gauge(ch, "rctmon_energy_grid_feed_sum", "Total grid feed energy in Wh.", v,
			[]string{"inverter"}, []string{name})
	}
	components := []struct {
		component string
		value     readings.Value[float64]
	}{
		{"generator_a", e.SolarGeneratorASum},
		{"generator_b", e.SolarGeneratorBSum},
	}
	for _, c := range components {
		if v, ok := c.value.Get(); ok {
			gauge(ch, "rctmon_energy_solar_generator_sum", "Total solar generator energy in Wh.", v,
				[]string{"inverter", "component"}, []string{name, c.component})
		}
	}
}

func collectPowerSwitch(ch chan<- prometheus.Metric, r *readings.Readings, name string) {
	present, ok := r.PowerSwitchAvailable.Get()
	if !ok || !present {
		return
	}
	ps := &r.PowerSwitch

	sw, hasSw := ps.SoftwareVersion.Get()
	bl, hasBl := ps.BootloaderVersion.Get()
	if hasSw && hasBl {
		info(ch, "rctmon_powerswitch", "Information about the Power Switch.",
			[]string{"inverter", "software_version", "bootloader_version"},
			[]string{name, strconv.FormatUint(uint64(sw), 10), strconv.FormatUint(uint64(bl), 10)})
	}

	voltages := []struct {
		phase string
		value readings.Value[float64]
	}{
		{"l1", ps.GridVoltageL1}, {"l2", ps.GridVoltageL2}, {"l3", ps.GridVoltageL3},
	}
	for _, p := range voltages {
		if v, ok := p.value.Get(); ok {
			gauge(ch, "rctmon_powerswitch_voltage_volt", "Grid voltage at powerswitch by phase.", v,
				[]string{"inverter", "phase"}, []string{name, p.phase})
		}
	}
	frequencies := []struct {
		phase string
		value readings.Value[float64]
	}{
		{"l1", ps.GridFrequencyL1}, {"l2", ps.GridFrequencyL2}, {"l3", ps.GridFrequencyL3},
	}
	for _, p := range frequencies {
		if v, ok := p.value.Get(); ok {
			gauge(ch, "rctmon_powerswitch_frequency_hertz", "Grid frequency at powerswitch by phase.", v,
				[]string{"inverter", "phase"}, []string{name, p.phase})
		}
	}
	storageFrequencies := []struct {
		phase string
		value readings.Value[float64]
	}{
		{"l1", ps.StorageFrequencyL1}, {"l2", ps.StorageFrequencyL2}, {"l3", ps.StorageFrequencyL3},
	}
	for _, p := range storageFrequencies {
		if v, ok := p.value.Get(); ok {
			gauge(ch, "rctmon_powerstorage_frequency_hertz", "Power Storage frequency by phase.", v,
				[]string{"inverter", "phase"}, []string{name, p.phase})
		}
	}
}

func collectBattery(ch chan<- prometheus.Metric, b *readings.Battery, name string) {
	if sn, ok := b.BMSSerial.Get(); ok {
		info(ch, "rctmon_bms_info", "Information about the battery management system (BMS).",
			[]string{"inverter", "serial_number"}, []string{name, sn})
	}

	type gaugeLeaf struct {
		fqName string
		help   string
		value  readings.Value[float64]
	}
	for _, g := range []gaugeLeaf{
		{"rctmon_battery_state_of_charge_min_percent", "Battery minimum state of charge.", b.SOCMin},
		{"rctmon_battery_voltage", "Battery Voltage.", b.BatteryVoltage},
		{"rctmon_battery_power", "Battery Power.", b.BatteryPower},
		{"rctmon_battery_state_of_charge_target_percent", "Battery target state of charge.", b.SOCTarget},
		{"rctmon_battery_state_of_charge_percent", "Battery state of charge.", b.SOC},
		{"rctmon_battery_state_of_health_percent", "Battery state of health.", b.SOH},
		{"rctmon_battery_temperature", "Battery temperature.", b.Temperature},
		{"rctmon_battery_impedance_fine", "Battery impedance (fine).", b.ImpedanceFine},
	} {
		if v, ok := g.value.Get(); ok {
			gauge(ch, g.fqName, g.help, v, []string{"inverter"}, []string{name})
		}
	}

	type gaugeLeafU32 struct {
		fqName string
		help   string
		value  readings.Value[uint32]
	}
	for _, g := range []gaugeLeafU32{
		{"rctmon_battery_state", "Battery state machine state.", b.BatteryState},
		{"rctmon_battery_bat_status", "Battery status.", b.BatStatus},
	} {
		if v, ok := g.value.Get(); ok {
			gauge(ch, g.fqName, g.help, float64(v), []string{"inverter"}, []string{name})
		}
	}

	if v, ok := b.DischargedAmpHours.Get(); ok {
		counter(ch, "rctmon_battery_discharge_amp_hours", "Battery cumulative discharge.", v,
			[]string{"inverter"}, []string{name})
	}
	if v, ok := b.StoredEnergy.Get(); ok {
		counter(ch, "rctmon_battery_stored_energy", "Battery cumulative stored energy.", v,
			[]string{"inverter"}, []string{name})
	}
	if v, ok := b.UsedEnergy.Get(); ok {
		counter(ch, "rctmon_battery_used_energy", "Battery cumulative used energy.", v,
			[]string{"inverter"}, []string{name})
	}

	modules := b.Modules()
	if len(modules) == 0 {
		return
	}
	for _, m := range modules {
		info(ch, "rctmon_battery_module", "Information about individual battery modules.",
			[]string{"inverter", "module", "serial_number"},
			[]string{name, strconv.Itoa(m.Index), m.Serial})
		if v, ok := m.CycleCount.Get(); ok {
			counter(ch, "rctmon_battery_module_cycles", "Number of cycles the battery has accumulated over its lifetime.", float64(v),
				[]string{"inverter", "module"}, []string{name, strconv.Itoa(m.Index)})
		}
	}
}
