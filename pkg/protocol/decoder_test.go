package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecoder_RejectsPlantCommand(t *testing.T) {
	t.Parallel()

	oid := DefaultRegistry.MustByName("battery.soc").ID
	wire := encodeFrame(CommandResponsePlant, oid, []byte{0x00, 0x00, 0x00, 0x01})

	d := NewDecoder()
	_, frame, errKind := d.Consume(DefaultRegistry, wire)
	assert.Equal(t, ErrorKindInvalidCommand, errKind)
	assert.Nil(t, frame)
}

func TestDecoder_RejectsNonResponseCommand(t *testing.T) {
	t.Parallel()

	oid := DefaultRegistry.MustByName("battery.soc").ID
	wire := encodeFrame(CommandWrite, oid, []byte{0x00, 0x00, 0x00, 0x01})

	d := NewDecoder()
	_, frame, errKind := d.Consume(DefaultRegistry, wire)
	assert.Equal(t, ErrorKindInvalidCommand, errKind)
	assert.Nil(t, frame)
}

func TestDecoder_RejectsUnknownObjectID(t *testing.T) {
	t.Parallel()

	wire := encodeFrame(CommandResponse, 0xDEADBEEF, []byte{0x00, 0x00, 0x00, 0x01})

	d := NewDecoder()
	_, frame, errKind := d.Consume(DefaultRegistry, wire)
	assert.Equal(t, ErrorKindUnknownObjectID, errKind)
	assert.Nil(t, frame)
}

func TestDecoder_RejectsCRCMismatch(t *testing.T) {
	t.Parallel()

	oid := DefaultRegistry.MustByName("battery.soc").ID
	wire := encodeFrame(CommandResponse, oid, []byte{0x00, 0x00, 0x00, 0x01})
	wire[len(wire)-1] ^= 0xFF // corrupt last CRC byte

	d := NewDecoder()
	_, frame, errKind := d.Consume(DefaultRegistry, wire)
	assert.Equal(t, ErrorKindCRCMismatch, errKind)
	assert.Nil(t, frame)
}

func TestDecoder_OversizedNumericPayloadTriggersResync(t *testing.T) {
	t.Parallel()

	// battery.soc is a float32 (numeric); declare a length far beyond the
	// 30-byte numeric ceiling from spec.md §4.1 rule 4.
	desc := DefaultRegistry.MustByName("battery.soc")
	payload := make([]byte, 40)
	wire := encodeFrame(CommandResponse, desc.ID, payload)

	d := NewDecoder()
	consumed, frame, errKind := d.Consume(DefaultRegistry, wire)
	assert.Equal(t, ErrorKindFrameLengthExceeded, errKind)
	assert.Nil(t, frame)
	assert.Greater(t, consumed, 0)
	assert.Less(t, consumed, len(wire))
}

func TestDecoder_OversizedShortStringTriggersResync(t *testing.T) {
	t.Parallel()

	desc := DefaultRegistry.MustByName("battery.bms_sn")
	payload := make([]byte, 252) // exceeds the 251-byte short-string ceiling

	d := NewDecoder()
	wire := encodeFrame(CommandResponse, desc.ID, payload)
	_, frame, errKind := d.Consume(DefaultRegistry, wire)
	assert.Equal(t, ErrorKindFrameLengthExceeded, errKind)
	assert.Nil(t, frame)
}

func TestDecoder_LongResponseAllowsLargeString(t *testing.T) {
	t.Parallel()

	desc := DefaultRegistry.MustByName("battery.bms_sn")
	payload := make([]byte, 252)
	for i := range payload {
		payload[i] = 'a'
	}

	d := NewDecoder()
	wire := encodeFrame(CommandLongResponse, desc.ID, payload)
	_, frame, errKind := d.Consume(DefaultRegistry, wire)
	require.Equal(t, ErrorKindNone, errKind)
	require.NotNil(t, frame)
	assert.Len(t, frame.Payload, 252)
}

func TestDecoder_NeverStallsOnGarbageInput(t *testing.T) {
	t.Parallel()

	garbage := make([]byte, 512)
	for i := range garbage {
		garbage[i] = byte(i % 256)
	}

	d := NewDecoder()
	total := 0
	iterations := 0
	for total < len(garbage) {
		consumed, _, _ := d.Consume(DefaultRegistry, garbage[total:])
		require.Greater(t, consumed, 0, "decoder must always make forward progress")
		total += consumed
		iterations++
		require.Less(t, iterations, len(garbage)+1, "decoder looped without consuming all input")
	}
}

func TestDecoder_ResetDiscardsPartialFrame(t *testing.T) {
	t.Parallel()

	oid := DefaultRegistry.MustByName("battery.soc").ID
	wire := encodeFrame(CommandResponse, oid, []byte{0x00, 0x00, 0x00, 0x01})

	d := NewDecoder()
	// feed only the start byte and command byte, then reset.
	_, _, _ = d.Consume(DefaultRegistry, wire[:2])
	d.Reset()
	assert.Equal(t, StateIdle, d.state)

	_, frame, errKind := d.Consume(DefaultRegistry, wire)
	require.Equal(t, ErrorKindNone, errKind)
	require.NotNil(t, frame)
}
