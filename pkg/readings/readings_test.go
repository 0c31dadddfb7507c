package readings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValue_UnknownUntilSet(t *testing.T) {
	t.Parallel()

	var v Value[float64]
	_, ok := v.Get()
	assert.False(t, ok)

	v.Set(3.14)
	got, ok := v.Get()
	assert.True(t, ok)
	assert.Equal(t, 3.14, got)
}

func TestValue_OverwriteReplacesPreviousValue(t *testing.T) {
	t.Parallel()

	var v Value[string]
	v.Set("first")
	v.Set("second")
	got, ok := v.Get()
	assert.True(t, ok)
	assert.Equal(t, "second", got)
}

func TestNew_AllLeavesUnknown(t *testing.T) {
	t.Parallel()

	r := New()
	_, ok := r.Name.Get()
	assert.False(t, ok)
	_, ok = r.Battery.SOC.Get()
	assert.False(t, ok)
	assert.Empty(t, r.Battery.Modules())
}

func TestBattery_RegisterModule(t *testing.T) {
	t.Parallel()

	r := New()
	assert.True(t, r.Battery.RegisterModule(0, "ABC123"))
	assert.True(t, r.Battery.RegisterModule(2, "DEF456"))

	m, ok := r.Battery.Module(0)
	assert.True(t, ok)
	assert.Equal(t, "ABC123", m.Serial)

	_, ok = r.Battery.Module(1)
	assert.False(t, ok, "index 1 was never registered")

	assert.Len(t, r.Battery.Modules(), 2)
}

func TestBattery_RegisterModule_DuplicateIndexDoesNotOverwrite(t *testing.T) {
	t.Parallel()

	r := New()
	assert.True(t, r.Battery.RegisterModule(0, "ABC123"))
	assert.False(t, r.Battery.RegisterModule(0, "ZZZ999"))

	m, _ := r.Battery.Module(0)
	assert.Equal(t, "ABC123", m.Serial, "first serial must not be overwritten")
}

func TestBattery_ModuleCycleCount(t *testing.T) {
	t.Parallel()

	r := New()
	r.Battery.RegisterModule(3, "SER000")
	m, _ := r.Battery.Module(3)
	m.CycleCount.Set(42)

	got, ok := m.CycleCount.Get()
	assert.True(t, ok)
	assert.Equal(t, uint32(42), got)
}
