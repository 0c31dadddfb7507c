// Package influxpush implements the time-series push sink: a periodic
// collect-into-buffer / best-effort-flush adapter satisfying
// daemon.Collector (spec.md §4.7 "Push adapter"). Grounded on
// original_source/src/rctmon/influx.py's InfluxDB wrapper and
// device_manager.py's/battery_manager.py's collect_influx() methods.
package influxpush

import (
	"strconv"
	"sync/atomic"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/svalouch/rctmon/internal/logger"
	"github.com/svalouch/rctmon/pkg/config"
	"github.com/svalouch/rctmon/pkg/readings"
)

// Sink pushes readings snapshots to InfluxDB on the connection loop's 5s
// collect cadence and drains its internal write buffer on the 5s flush
// cadence (spec.md §4.3 step 4). Points are lost, not retried, when the
// server is unreachable (influx.py: "Metrics may be lost when the database
// is not available").
type Sink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPI

	pointsWritten atomic.Uint64
}

// New dials an InfluxDB client and opens a non-blocking write API against
// cfg's org/bucket. The connection itself is lazy: nothing is sent to the
// network until the first Collect/Flush.
func New(cfg config.InfluxDBConfig) *Sink {
	client := influxdb2.NewClient(cfg.URL, cfg.Token)
	writeAPI := client.WriteAPI(cfg.Org, cfg.Bucket)

	s := &Sink{client: client, writeAPI: writeAPI}

	go func() {
		for err := range writeAPI.Errors() {
			logger.Warn("influxpush: write error", "error", err)
		}
	}()

	return s
}

// Collect implements daemon.Collector. It mirrors
// DeviceManager.collect_influx()'s "temperature" point and
// BatteryManager.collect_influx()'s "battery_overview"/"battery_module"
// points; a point is only written if at least one of its fields is known.
func (s *Sink) Collect(r *readings.Readings) {
	name, ok := r.Name.Get()
	if !ok {
		return
	}
	now := time.Now().UTC()

	s.collectTemperature(r, name, now)
	s.collectBatteryOverview(&r.Battery, name, now)
	s.collectBatteryModules(&r.Battery, name, now)
}

func (s *Sink) collectTemperature(r *readings.Readings, name string, ts time.Time) {
	fields := map[string]any{}
	if v, ok := r.TemperatureHeatsink.Get(); ok {
		fields["heatsink"] = v
	}
	if v, ok := r.TemperatureHeatsinkBatt.Get(); ok {
		fields["heatsink_battery_actuator"] = v
	}
	if v, ok := r.TemperatureCore.Get(); ok {
		fields["core"] = v
	}
	if v, ok := r.Battery.Temperature.Get(); ok {
		fields["battery"] = v
	}
	if len(fields) == 0 {
		return
	}
	s.writePoint("temperature", map[string]string{"inverter": name}, fields, ts)
}

func (s *Sink) collectBatteryOverview(b *readings.Battery, name string, ts time.Time) {
	fields := map[string]any{}
	if v, ok := b.BatteryVoltage.Get(); ok {
		fields["voltage"] = v
	}
	if v, ok := b.BatteryPower.Get(); ok {
		fields["power"] = v
	}
	if v, ok := b.BatteryState.Get(); ok {
		fields["state"] = v
	}
	if v, ok := b.SOCMin.Get(); ok {
		fields["soc_min"] = v
	}
	if v, ok := b.SOCTarget.Get(); ok {
		fields["soc_target"] = v
	}
	if v, ok := b.SOC.Get(); ok {
		fields["soc"] = v
	}
	if v, ok := b.SOH.Get(); ok {
		fields["soh"] = v
	}
	if v, ok := b.Temperature.Get(); ok {
		fields["temperature"] = v
	}
	if v, ok := b.BatStatus.Get(); ok {
		fields["status"] = v
	}
	if v, ok := b.ImpedanceFine.Get(); ok {
		fields["impedance_fine"] = v
	}
	if v, ok := b.DischargedAmpHours.Get(); ok {
		fields["discharged_amp_hours"] = v
	}
	if v, ok := b.StoredEnergy.Get(); ok {
		fields["stored_energy"] = v
	}
	if len(fields) == 0 {
		return
	}
	s.writePoint("battery_overview", map[string]string{"inverter": name}, fields, ts)
}

func (s *Sink) collectBatteryModules(b *readings.Battery, name string, ts time.Time) {
	for _, m := range b.Modules() {
		v, ok := m.CycleCount.Get()
		if !ok {
			continue
		}
		tags := map[string]string{"inverter": name, "module": strconv.Itoa(m.Index)}
		s.writePoint("battery_module", tags, map[string]any{"cycles": v}, ts)
	}
}

func (s *Sink) writePoint(measurement string, tags map[string]string, fields map[string]any, ts time.Time) {
	s.writeAPI.WritePoint(write.NewPoint(measurement, tags, fields, ts))
	s.pointsWritten.Add(1)
}

// Flush implements daemon.Collector, draining the client's internal write
// buffer to the server.
func (s *Sink) Flush() {
	s.writeAPI.Flush()
}

// PointsWritten returns the running total of points handed to the write
// API since startup (influx.py's rctmon_influx_points_written counter).
func (s *Sink) PointsWritten() uint64 {
	return s.pointsWritten.Load()
}

// Close flushes any pending points and releases the underlying client.
func (s *Sink) Close() {
	s.writeAPI.Flush()
	s.client.Close()
}
