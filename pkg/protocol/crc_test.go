package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// ============================================================================
// CRC16 tests
// ============================================================================

func TestCRC16_EmptyInput(t *testing.T) {
	t.Parallel()

	assert.Equal(t, uint16(0xFFFF), CRC16(nil))
}

func TestCRC16_KnownVector(t *testing.T) {
	t.Parallel()

	// "123456789" is the standard CRC16/CCITT-FALSE check vector, whose
	// accepted check value is 0x29B1.
	got := CRC16([]byte("123456789"))
	assert.Equal(t, uint16(0x29B1), got)
}

func TestCRC16_DifferentInputsDifferentChecksums(t *testing.T) {
	t.Parallel()

	a := CRC16([]byte{0x01, 0x02, 0x03})
	b := CRC16([]byte{0x01, 0x02, 0x04})
	assert.NotEqual(t, a, b)
}
