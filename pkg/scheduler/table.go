package scheduler

import (
	"fmt"
	"sort"
	"time"

	"github.com/svalouch/rctmon/pkg/protocol"
)

// lossTimeoutFactor and inventoryResendInterval are the fixed constants from
// spec.md §4.2 / §5 "Timeouts".
const lossTimeoutFactor = 3
const inventoryResendInterval = 30 * time.Second

// Table is the managed-frame table: owned exclusively by the connection
// loop (spec.md §5), never accessed concurrently. It also implements the
// narrow "Enroller" interface handlers use to extend the poll set
// (spec.md §9 design note on cyclic references).
type Table struct {
	reg     *protocol.Registry
	metrics Metrics

	frames map[uint32]*ManagedFrame

	// bootstrapID survives ClearInventory: the device-description object
	// must remain enrolled so reconnection restarts discovery (spec.md §3
	// Lifecycle, §8 "After a disconnect...").
	bootstrapID uint32
}

// NewTable builds a Table and enrolls the bootstrap object (the
// human-readable device-description field) as an inventory frame.
func NewTable(reg *protocol.Registry, metrics Metrics, bootstrapName string, bootstrapHandler Handler) (*Table, error) {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	t := &Table{
		reg:     reg,
		metrics: metrics,
		frames:  make(map[uint32]*ManagedFrame),
	}
	desc, ok := reg.ByName(bootstrapName)
	if !ok {
		return nil, fmt.Errorf("scheduler: bootstrap object %q not found in registry", bootstrapName)
	}
	t.bootstrapID = desc.ID
	t.frames[desc.ID] = &ManagedFrame{
		ObjectID:       desc.ID,
		Name:           desc.Name,
		IsInventory:    true,
		RequestPayload: protocol.EncodeRead(desc.ID),
		Handler:        bootstrapHandler,
	}
	return t, nil
}

// Enroll adds (or replaces) a managed frame for the named object, resolving
// the name through the registry. Enrollment from within a handler dispatch
// is supported and becomes effective no earlier than the next Tick
// (spec.md §5 ordering guarantee (b)).
func (t *Table) Enroll(name string, interval time.Duration, isInventory bool, handler Handler) error {
	desc, ok := t.reg.ByName(name)
	if !ok {
		return fmt.Errorf("scheduler: object %q not found in registry", name)
	}
	t.frames[desc.ID] = &ManagedFrame{
		ObjectID:       desc.ID,
		Name:           desc.Name,
		Interval:       interval,
		IsInventory:    isInventory,
		RequestPayload: protocol.EncodeRead(desc.ID),
		Handler:        handler,
	}
	return nil
}

// ClearInventory removes every managed frame except the bootstrap entry and
// is called on disconnect (spec.md §3 Lifecycle).
func (t *Table) ClearInventory() {
	for id := range t.frames {
		if id == t.bootstrapID {
			continue
		}
		delete(t.frames, id)
	}
	if mf, ok := t.frames[t.bootstrapID]; ok {
		mf.LastSent = time.Time{}
		mf.LastReceived = time.Time{}
		mf.InFlight = false
	}
}

// Frame looks up the managed frame for an object id, for the dispatcher.
func (t *Table) Frame(oid uint32) (*ManagedFrame, bool) {
	mf, ok := t.frames[oid]
	return mf, ok
}

// MarkArrival records a successful response for oid.
func (t *Table) MarkArrival(oid uint32, now time.Time) {
	if mf, ok := t.frames[oid]; ok {
		mf.LastReceived = now
		mf.InFlight = false
	}
}

// Tick walks the table oldest-last_sent-first and returns the batched
// request bytes for every frame eligible to be (re-)sent this tick
// (spec.md §4.2).
func (t *Table) Tick(now time.Time) []byte {
	ordered := make([]*ManagedFrame, 0, len(t.frames))
	for _, mf := range t.frames {
		ordered = append(ordered, mf)
	}
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].LastSent.Before(ordered[j].LastSent)
	})

	var out []byte
	sent := 0
	for _, mf := range ordered {
		if t.eligible(mf, now) {
			mf.LastSent = now
			mf.InFlight = true
			out = append(out, mf.RequestPayload...)
			sent++
		}
	}
	if sent > 0 {
		t.metrics.AddFramesSent(sent)
	}
	return out
}

func (t *Table) eligible(mf *ManagedFrame, now time.Time) bool {
	if !mf.IsInventory {
		if mf.InFlight && !mf.LastSent.IsZero() && now.Sub(mf.LastSent) >= lossTimeoutFactor*mf.Interval {
			t.metrics.IncFramesLost("normal")
			mf.InFlight = false
		}
		return !mf.InFlight && (mf.neverSent() || now.Sub(mf.LastSent) >= mf.Interval)
	}

	// Inventory frame: never re-sent once an answer has arrived.
	if !mf.neverReceived() {
		return false
	}
	if mf.neverSent() {
		return true
	}
	if now.Sub(mf.LastSent) >= inventoryResendInterval {
		if mf.InFlight {
			t.metrics.IncFramesLost("inventory")
		}
		return true
	}
	return false
}
