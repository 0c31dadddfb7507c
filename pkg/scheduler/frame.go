// Package scheduler maintains the managed-frame table and decides, once per
// tick, which object ids should be (re-)requested from the inverter.
package scheduler

import "time"

// Handler consumes a decoded value arriving for an object id. One handler
// may serve several object ids (spec.md §4.4); the dispatcher looks the
// handler up per-frame and calls it with the frame's own id.
type Handler func(oid uint32, value any)

// ManagedFrame is the runtime bookkeeping record for one polled object id
// (spec.md §3 "Managed frame").
type ManagedFrame struct {
	ObjectID uint32
	Name     string

	// Interval is the polling cadence for non-inventory frames. Ignored for
	// inventory frames, which use the fixed 30s resend-while-unanswered rule
	// instead (spec.md §4.2).
	Interval time.Duration

	// IsInventory frames are sent once and only re-sent if unanswered;
	// non-inventory frames are polled on a fixed cadence.
	IsInventory bool

	// LastSent and LastReceived use the zero time.Time as the "never"
	// sentinel from spec.md §3.
	LastSent     time.Time
	LastReceived time.Time

	InFlight bool

	// RequestPayload is the precomputed wire bytes for a read of ObjectID,
	// computed once at enrollment and reused on every send.
	RequestPayload []byte

	Handler Handler
}

func (f *ManagedFrame) neverSent() bool {
	return f.LastSent.IsZero()
}

func (f *ManagedFrame) neverReceived() bool {
	return f.LastReceived.IsZero()
}
