package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsPlant(t *testing.T) {
	t.Parallel()

	assert.True(t, IsPlant(CommandReadPlant))
	assert.True(t, IsPlant(CommandResponsePlant))
	assert.False(t, IsPlant(CommandRead))
	assert.False(t, IsPlant(CommandResponse))
}

func TestIsResponse(t *testing.T) {
	t.Parallel()

	assert.True(t, IsResponse(CommandResponse))
	assert.True(t, IsResponse(CommandLongResponse))
	assert.False(t, IsResponse(CommandRead))
	assert.False(t, IsResponse(CommandResponsePlant))
}

func TestIsLong(t *testing.T) {
	t.Parallel()

	assert.True(t, IsLong(CommandLongResponse))
	assert.True(t, IsLong(CommandLongWrite))
	assert.False(t, IsLong(CommandResponse))
}

func TestNeedsEscape(t *testing.T) {
	t.Parallel()

	assert.True(t, needsEscape(StartByte))
	assert.True(t, needsEscape(EscapeByte))
	assert.True(t, needsEscape(plantEscapeSentinel))
	assert.False(t, needsEscape(0x00))
	assert.False(t, needsEscape(0xFF))
}
