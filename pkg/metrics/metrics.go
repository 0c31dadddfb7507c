// Package metrics implements rctmon's self-monitoring counters: bytes and
// frames moved across the device socket, decode errors by kind, and the
// device-up gauge. Grounded on
// original_source/src/rctmon/monitoring.py's MON_* collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds the self-monitoring collectors and satisfies the narrow
// Metrics interfaces declared by pkg/scheduler and pkg/device
// (AddFramesSent/IncFramesLost, IncDecodeError).
type Registry struct {
	reg *prometheus.Registry

	bytesSent      prometheus.Counter
	bytesReceived  prometheus.Counter
	framesSent     prometheus.Counter
	framesReceived prometheus.Counter
	framesLost     *prometheus.CounterVec
	decodeErrors   *prometheus.CounterVec
	deviceUp       prometheus.Gauge
	info           *prometheus.GaugeVec
}

// New builds a Registry backed by a fresh prometheus.Registry, registering
// every collector under it.
func New() *Registry {
	reg := prometheus.NewRegistry()
	return &Registry{
		reg: reg,

		bytesSent: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "rctmon_internal_bytes_sent_total",
			Help: "Total bytes written to the inverter's TCP socket.",
		}),
		bytesReceived: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "rctmon_internal_bytes_received_total",
			Help: "Total bytes read from the inverter's TCP socket.",
		}),
		framesSent: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "rctmon_internal_frames_sent_total",
			Help: "Total managed-frame requests sent to the inverter.",
		}),
		framesReceived: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "rctmon_internal_frames_received_total",
			Help: "Total complete frames decoded from the inverter.",
		}),
		framesLost: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "rctmon_internal_frames_lost_total",
			Help: "Total managed frames considered lost (timed out in flight), by kind.",
		}, []string{"kind"}),
		decodeErrors: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "rctmon_internal_decode_errors_total",
			Help: "Total frame/payload decode errors, by kind.",
		}, []string{"kind"}),
		deviceUp: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "rctmon_internal_device_up",
			Help: "1 if the TCP connection to the inverter is established, 0 otherwise.",
		}),
		info: promauto.With(reg).NewGaugeVec(prometheus.GaugeOpts{
			Name: "rctmon_internal_build_info",
			Help: "Build information, value is always 1.",
		}, []string{"version"}),
	}
}

// Registerer exposes the underlying registry to pkg/exporter/promexp's
// scrape handler.
func (r *Registry) Registerer() *prometheus.Registry {
	return r.reg
}

// AddFramesSent implements scheduler.Metrics.
func (r *Registry) AddFramesSent(n int) {
	r.framesSent.Add(float64(n))
}

// IncFramesLost implements scheduler.Metrics.
func (r *Registry) IncFramesLost(kind string) {
	r.framesLost.WithLabelValues(kind).Inc()
}

// IncDecodeError implements device.Metrics.
func (r *Registry) IncDecodeError(kind string) {
	r.decodeErrors.WithLabelValues(kind).Inc()
}

// AddBytesSent records bytes written to the device socket.
func (r *Registry) AddBytesSent(n int) {
	r.bytesSent.Add(float64(n))
}

// AddBytesReceived records bytes read from the device socket.
func (r *Registry) AddBytesReceived(n int) {
	r.bytesReceived.Add(float64(n))
}

// IncFramesReceived records one complete decoded frame.
func (r *Registry) IncFramesReceived() {
	r.framesReceived.Inc()
}

// SetDeviceUp reflects the connection-loop state (spec.md §9 "Device up").
func (r *Registry) SetDeviceUp(up bool) {
	if up {
		r.deviceUp.Set(1)
	} else {
		r.deviceUp.Set(0)
	}
}

// SetBuildInfo publishes a single gauge sample carrying the build version as
// a label, following the original's MON_INFO.info({'version': ...}) pattern.
func (r *Registry) SetBuildInfo(version string) {
	r.info.Reset()
	r.info.WithLabelValues(version).Set(1)
}
