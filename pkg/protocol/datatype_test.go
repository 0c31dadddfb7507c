package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDataType_IsNumeric(t *testing.T) {
	t.Parallel()

	assert.True(t, DataTypeFloat32.IsNumeric())
	assert.True(t, DataTypeBool.IsNumeric())
	assert.True(t, DataTypeUInt32.IsNumeric())
	assert.False(t, DataTypeString.IsNumeric())
	assert.False(t, DataTypeTimeSeries.IsNumeric())
	assert.False(t, DataTypeEventTable.IsNumeric())
}

func TestDataType_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "float32", DataTypeFloat32.String())
	assert.Equal(t, "string", DataTypeString.String())
	assert.Equal(t, "unknown", DataTypeUnknown.String())
}
