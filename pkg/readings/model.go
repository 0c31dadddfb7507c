package readings

import "sync"

// SolarGenerator holds the per-generator leaves shared by generator A and B
// (grounded on original_source/src/rctmon/models.py SolarGeneratorReadings).
type SolarGenerator struct {
	Voltage          Value[float64]
	Power            Value[float64]
	MPPTargetVoltage Value[float64]
	MPPSearchStep    Value[float64]

	// CumulativeEnergy has no populating object id in the registry; no
	// handler ever Sets it, mirroring models.py's SolarGeneratorReadings.
	CumulativeEnergy Value[float64]
}

// PowerSwitch holds the rb485 power-switch/power-sensor readings, only
// populated when the device reports one present (models.py PowerSwitchReadings).
type PowerSwitch struct {
	SoftwareVersion   Value[uint32]
	BootloaderVersion Value[uint32]

	GridVoltageL1, GridVoltageL2, GridVoltageL3       Value[float64]
	GridFrequencyL1, GridFrequencyL2, GridFrequencyL3 Value[float64]

	StorageFrequencyL1, StorageFrequencyL2, StorageFrequencyL3 Value[float64]
}

// Household holds per-phase and total household load (models.py HouseholdReadings).
type Household struct {
	LoadTotal Value[float64]
	LoadL1    Value[float64]
	LoadL2    Value[float64]
	LoadL3    Value[float64]
}

// Grid holds per-phase grid power/voltage plus phase-to-phase voltages and
// frequency (models.py GridReadings).
type Grid struct {
	PowerTotal Value[float64]
	PowerL1    Value[float64]
	PowerL2    Value[float64]
	PowerL3    Value[float64]

	VoltageL1 Value[float64]
	VoltageL2 Value[float64]
	VoltageL3 Value[float64]

	// PhaseToPhaseVoltage{1,2,3} and Frequency have no populating object id
	// in the registry; no handler ever Sets them, mirroring models.py's
	// GridReadings, which carries the same unpopulated fields.
	PhaseToPhaseVoltage1 Value[float64]
	PhaseToPhaseVoltage2 Value[float64]
	PhaseToPhaseVoltage3 Value[float64]

	Frequency Value[float64]
}

// Energy holds cumulative energy counters (models.py EnergyReadings).
type Energy struct {
	ACSum              Value[float64]
	HouseholdSum       Value[float64]
	GridLoadSum        Value[float64]
	GridFeedSum        Value[float64]
	SolarGeneratorASum Value[float64]
	SolarGeneratorBSum Value[float64]
}

// BatteryModule is one discovered battery in the stack, keyed by its stack
// index 0..6 (spec.md §4.6, models.py BatteryInfo).
type BatteryModule struct {
	Index      int
	Serial     string
	CycleCount Value[uint32]
}

// Battery holds stack-level battery readings plus the sparse per-module map
// (spec.md §3 "Readings snapshot"). Modules is the one composite leaf in the
// model, guarded by the mutex rather than an atomic pointer since discovery
// inserts entries one at a time and readers need a consistent map snapshot
// (spec.md §9 design note "Readings model as bag of optionals").
type Battery struct {
	modulesMu sync.RWMutex
	modules   map[int]*BatteryModule

	// Present reports whether a battery type was ever reported nonzero
	// (power_mng.battery_type); unknown until the bootstrap inventory has
	// been answered.
	Present Value[bool]

	BMSSerial Value[string]

	SOCMin         Value[float64]
	BatteryVoltage Value[float64]
	BatteryPower   Value[float64]
	BatteryState   Value[uint32]

	SOC          Value[float64]
	SOH          Value[float64]
	SOCTarget    Value[float64]
	Temperature  Value[float64]
	BatStatus    Value[uint32]
	Status       Value[uint32]
	Status2      Value[uint32]
	ImpedanceFine       Value[float64]
	DischargedAmpHours  Value[float64]
	StoredEnergy        Value[float64]
	UsedEnergy          Value[float64]
	Efficiency          Value[float64]
	Voltage             Value[float64]
	Current             Value[float64]
	Cycles              Value[uint32]
}

// Module returns the registered module at index, if any.
func (b *Battery) Module(index int) (*BatteryModule, bool) {
	b.modulesMu.RLock()
	defer b.modulesMu.RUnlock()
	m, ok := b.modules[index]
	return m, ok
}

// RegisterModule records a newly discovered module at index. Returns false
// without modifying state if index is already registered (spec.md §4.6:
// "a duplicate non-empty serial logs a warning and does not overwrite").
func (b *Battery) RegisterModule(index int, serial string) bool {
	b.modulesMu.Lock()
	defer b.modulesMu.Unlock()
	if _, exists := b.modules[index]; exists {
		return false
	}
	b.modules[index] = &BatteryModule{Index: index, Serial: serial}
	return true
}

// Modules returns a snapshot slice of all registered modules, for exporters.
func (b *Battery) Modules() []*BatteryModule {
	b.modulesMu.RLock()
	defer b.modulesMu.RUnlock()
	out := make([]*BatteryModule, 0, len(b.modules))
	for _, m := range b.modules {
		out = append(out, m)
	}
	return out
}

// Readings is the full device snapshot (spec.md §3 "Readings snapshot").
// pkg/device installs an empty instance when it is built and replaces it
// wholesale (not mutated back to zero) on every reset, i.e. on connect and
// on disconnect; Name stays unknown until the device-description object is
// received. pkg/device holds the current instance behind an atomic pointer.
type Readings struct {
	Name Value[string]

	SerialNumber           Value[string]
	ParameterFile          Value[string]
	ControlSoftwareVersion Value[string]

	TemperatureHeatsink     Value[float64]
	TemperatureHeatsinkBatt Value[float64]
	TemperatureCore         Value[float64]

	HaveGeneratorA  Value[bool]
	SolarGeneratorA SolarGenerator
	HaveGeneratorB  Value[bool]
	SolarGeneratorB SolarGenerator

	InverterStatus         Value[uint32]
	InverterGridSeparated  Value[uint32]
	InsulationTotal        Value[float64]
	InsulationPositive     Value[float64]
	InsulationNegative     Value[float64]

	Fault0 Value[uint32]
	Fault1 Value[uint32]
	Fault2 Value[uint32]
	Fault3 Value[uint32]

	Household Household
	Grid      Grid
	Energy    Energy

	PowerSwitchAvailable Value[bool]
	PowerSwitch          PowerSwitch

	Battery Battery
}

// New returns an empty snapshot with every leaf unknown.
func New() *Readings {
	return &Readings{
		Battery: Battery{modules: make(map[int]*BatteryModule)},
	}
}
