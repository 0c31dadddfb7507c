package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/svalouch/rctmon/pkg/protocol"
)

func testRegistry() *protocol.Registry {
	return protocol.NewRegistry([]protocol.ObjectDescriptor{
		{ID: 1, Name: "android_description", DataType: protocol.DataTypeString},
		{ID: 2, Name: "battery.soc", DataType: protocol.DataTypeFloat32},
		{ID: 3, Name: "battery.voltage", DataType: protocol.DataTypeFloat32},
	})
}

func TestNewTable_EnrollsBootstrapAsInventory(t *testing.T) {
	t.Parallel()

	reg := testRegistry()
	tbl, err := NewTable(reg, nil, "android_description", func(uint32, any) {})
	require.NoError(t, err)

	mf, ok := tbl.Frame(1)
	require.True(t, ok)
	assert.True(t, mf.IsInventory)
}

func TestNewTable_UnknownBootstrapErrors(t *testing.T) {
	t.Parallel()

	reg := testRegistry()
	_, err := NewTable(reg, nil, "does_not_exist", func(uint32, any) {})
	assert.Error(t, err)
}

func TestTable_Tick_SendsEligibleNonInventoryFrame(t *testing.T) {
	t.Parallel()

	reg := testRegistry()
	tbl, err := NewTable(reg, nil, "android_description", func(uint32, any) {})
	require.NoError(t, err)

	require.NoError(t, tbl.Enroll("battery.soc", 10*time.Second, false, func(uint32, any) {}))

	now := time.Now()
	out := tbl.Tick(now)
	// Bootstrap (never sent, inventory) and battery.soc (never sent) both fire.
	assert.NotEmpty(t, out)

	mf, _ := tbl.Frame(2)
	assert.True(t, mf.InFlight)
	assert.Equal(t, now, mf.LastSent)
}

func TestTable_Tick_NonInventoryNotEligibleBeforeInterval(t *testing.T) {
	t.Parallel()

	reg := testRegistry()
	tbl, err := NewTable(reg, nil, "android_description", func(uint32, any) {})
	require.NoError(t, err)
	require.NoError(t, tbl.Enroll("battery.soc", 10*time.Second, false, func(uint32, any) {}))

	now := time.Now()
	tbl.Tick(now) // first send

	// Mark it arrived so it's no longer in flight, then tick again before interval elapses.
	tbl.MarkArrival(2, now.Add(time.Second))
	out := tbl.Tick(now.Add(2 * time.Second))

	mf, _ := tbl.Frame(2)
	assert.Equal(t, now, mf.LastSent, "should not have been re-sent before its interval elapsed")
	_ = out
}

func TestTable_Tick_LossDetectionResendsAfterThreeIntervals(t *testing.T) {
	t.Parallel()

	reg := testRegistry()
	var lossCount int
	metrics := &fakeMetrics{onLoss: func(kind string) {
		if kind == "normal" {
			lossCount++
		}
	}}
	tbl, err := NewTable(reg, metrics, "android_description", func(uint32, any) {})
	require.NoError(t, err)
	require.NoError(t, tbl.Enroll("battery.soc", 10*time.Second, false, func(uint32, any) {}))

	now := time.Now()
	tbl.Tick(now) // sends, in_flight=true

	// No response. At 3x interval (30s) the in_flight flag must clear, loss
	// counted, and the frame becomes eligible again (spec.md §8 scenario 4).
	later := now.Add(30 * time.Second)
	out := tbl.Tick(later)

	assert.Equal(t, 1, lossCount)
	assert.NotEmpty(t, out)
	mf, _ := tbl.Frame(2)
	assert.True(t, mf.InFlight)
	assert.Equal(t, later, mf.LastSent)
}

func TestTable_Tick_InventoryFrameStopsOnceAnswered(t *testing.T) {
	t.Parallel()

	reg := testRegistry()
	tbl, err := NewTable(reg, nil, "android_description", func(uint32, any) {})
	require.NoError(t, err)

	now := time.Now()
	tbl.Tick(now)
	tbl.MarkArrival(1, now)

	out := tbl.Tick(now.Add(time.Hour))
	assert.Empty(t, out, "inventory frame must not be re-sent after an answer arrived")
}

func TestTable_Tick_InventoryFrameResendsAfter30sUnanswered(t *testing.T) {
	t.Parallel()

	reg := testRegistry()
	var inventoryLoss int
	metrics := &fakeMetrics{onLoss: func(kind string) {
		if kind == "inventory" {
			inventoryLoss++
		}
	}}
	tbl, err := NewTable(reg, metrics, "android_description", func(uint32, any) {})
	require.NoError(t, err)

	now := time.Now()
	tbl.Tick(now) // bootstrap sent, in_flight=true, no answer

	out := tbl.Tick(now.Add(30 * time.Second))
	assert.NotEmpty(t, out)
	assert.Equal(t, 1, inventoryLoss)
}

func TestTable_ClearInventory_KeepsOnlyBootstrap(t *testing.T) {
	t.Parallel()

	reg := testRegistry()
	tbl, err := NewTable(reg, nil, "android_description", func(uint32, any) {})
	require.NoError(t, err)
	require.NoError(t, tbl.Enroll("battery.soc", 10*time.Second, false, func(uint32, any) {}))
	require.NoError(t, tbl.Enroll("battery.voltage", 10*time.Second, false, func(uint32, any) {}))

	tbl.ClearInventory()

	_, ok := tbl.Frame(2)
	assert.False(t, ok)
	_, ok = tbl.Frame(3)
	assert.False(t, ok)
	_, ok = tbl.Frame(1)
	assert.True(t, ok, "bootstrap entry must survive")
}

func TestTable_Tick_OrdersOldestLastSentFirst(t *testing.T) {
	t.Parallel()

	reg := testRegistry()
	tbl, err := NewTable(reg, nil, "android_description", func(uint32, any) {})
	require.NoError(t, err)
	require.NoError(t, tbl.Enroll("battery.soc", time.Second, false, func(uint32, any) {}))
	require.NoError(t, tbl.Enroll("battery.voltage", time.Second, false, func(uint32, any) {}))

	now := time.Now()
	out1 := tbl.Tick(now)

	mfSoc, _ := tbl.Frame(2)
	mfVolt, _ := tbl.Frame(3)
	assert.Equal(t, now, mfSoc.LastSent)
	assert.Equal(t, now, mfVolt.LastSent)
	assert.NotEmpty(t, out1)
}

type fakeMetrics struct {
	onLoss func(kind string)
	sent   int
}

func (f *fakeMetrics) AddFramesSent(n int)    { f.sent += n }
func (f *fakeMetrics) IncFramesLost(kind string) {
	if f.onLoss != nil {
		f.onLoss(kind)
	}
}
