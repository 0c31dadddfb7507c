// Package readings holds the typed, hierarchical snapshot of device state
// (spec.md §3 "Readings snapshot", §4.5). Every leaf is independently
// optional and is written exactly once per dispatcher callback; reads from
// the scrape exporter's goroutine must never observe a torn value
// (spec.md §5).
package readings

import "sync/atomic"

// Value is a single optional leaf: "unknown" until first written, then
// holding the most recently received value. It is safe for one writer and
// any number of concurrent readers — the contract spec.md §5 calls
// "eventually consistent per leaf, never torn" — backed by a generic
// atomic pointer so a read either sees the old value or the new one, never
// a partial write.
type Value[T any] struct {
	p atomic.Pointer[T]
}

// Set stores val, making it visible to any subsequent Get.
func (v *Value[T]) Set(val T) {
	v.p.Store(&val)
}

// Get returns the stored value and true, or the zero value and false if
// nothing has been written yet.
func (v *Value[T]) Get() (T, bool) {
	p := v.p.Load()
	if p == nil {
		var zero T
		return zero, false
	}
	return *p, true
}
