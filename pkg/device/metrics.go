package device

// Metrics is the narrow metrics surface the dispatcher needs, mirroring the
// Counter style of scheduler.Metrics (spec.md §9 design note on narrow
// per-consumer interfaces; grounded on
// original_source/src/rctmon/monitoring.py's MON_DECODE_ERROR counter).
type Metrics interface {
	IncDecodeError(kind string)
}

type noopMetrics struct{}

func (noopMetrics) IncDecodeError(string) {}
