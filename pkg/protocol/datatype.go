package protocol

// DataType identifies how a response payload should be unpacked.
type DataType byte

const (
	DataTypeUnknown DataType = iota
	DataTypeBool
	DataTypeUInt8
	DataTypeInt8
	DataTypeUInt16
	DataTypeInt16
	DataTypeUInt32
	DataTypeInt32
	DataTypeFloat32
	DataTypeString
	DataTypeTimeSeries
	DataTypeEventTable
)

// IsNumeric reports whether t is one of the fixed-width numeric types
// subject to the "declared length > 30 bytes" resync heuristic.
func (t DataType) IsNumeric() bool {
	switch t {
	case DataTypeBool, DataTypeUInt8, DataTypeInt8, DataTypeUInt16, DataTypeInt16,
		DataTypeUInt32, DataTypeInt32, DataTypeFloat32:
		return true
	default:
		return false
	}
}

func (t DataType) String() string {
	switch t {
	case DataTypeBool:
		return "bool"
	case DataTypeUInt8:
		return "uint8"
	case DataTypeInt8:
		return "int8"
	case DataTypeUInt16:
		return "uint16"
	case DataTypeInt16:
		return "int16"
	case DataTypeUInt32:
		return "uint32"
	case DataTypeInt32:
		return "int32"
	case DataTypeFloat32:
		return "float32"
	case DataTypeString:
		return "string"
	case DataTypeTimeSeries:
		return "time_series"
	case DataTypeEventTable:
		return "event_table"
	default:
		return "unknown"
	}
}
