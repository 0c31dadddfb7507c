package device

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	"github.com/svalouch/rctmon/pkg/protocol"
)

// decodeValue converts a frame's raw payload into a typed Go value according
// to desc's declared data type (spec.md §4.5: "Decode v according to
// registry[i].data_type; on structural failure, classify as payload error
// and drop"). Numeric types decode to the same Go type the rest of the
// package dispatches on: bool, uint32, float64, or string. Time-series and
// event-table payloads have no stable decoded representation in this
// implementation and are reported as errors so the caller classifies them
// as payload errors, same as a length mismatch.
func decodeValue(desc protocol.ObjectDescriptor, payload []byte) (any, error) {
	switch desc.DataType {
	case protocol.DataTypeBool:
		if len(payload) != 1 {
			return nil, fmt.Errorf("device: bool payload for %s has length %d, want 1", desc.Name, len(payload))
		}
		return payload[0] != 0, nil

	case protocol.DataTypeUInt8:
		if len(payload) != 1 {
			return nil, fmt.Errorf("device: uint8 payload for %s has length %d, want 1", desc.Name, len(payload))
		}
		return uint32(payload[0]), nil

	case protocol.DataTypeInt8:
		if len(payload) != 1 {
			return nil, fmt.Errorf("device: int8 payload for %s has length %d, want 1", desc.Name, len(payload))
		}
		return uint32(int8(payload[0])), nil

	case protocol.DataTypeUInt16:
		if len(payload) != 2 {
			return nil, fmt.Errorf("device: uint16 payload for %s has length %d, want 2", desc.Name, len(payload))
		}
		return uint32(binary.BigEndian.Uint16(payload)), nil

	case protocol.DataTypeInt16:
		if len(payload) != 2 {
			return nil, fmt.Errorf("device: int16 payload for %s has length %d, want 2", desc.Name, len(payload))
		}
		return uint32(int16(binary.BigEndian.Uint16(payload))), nil

	case protocol.DataTypeUInt32:
		if len(payload) != 4 {
			return nil, fmt.Errorf("device: uint32 payload for %s has length %d, want 4", desc.Name, len(payload))
		}
		return binary.BigEndian.Uint32(payload), nil

	case protocol.DataTypeInt32:
		if len(payload) != 4 {
			return nil, fmt.Errorf("device: int32 payload for %s has length %d, want 4", desc.Name, len(payload))
		}
		return uint32(int32(binary.BigEndian.Uint32(payload))), nil

	case protocol.DataTypeFloat32:
		if len(payload) != 4 {
			return nil, fmt.Errorf("device: float32 payload for %s has length %d, want 4", desc.Name, len(payload))
		}
		bits := binary.BigEndian.Uint32(payload)
		return float64(math.Float32frombits(bits)), nil

	case protocol.DataTypeString:
		return strings.TrimRight(string(payload), "\x00"), nil

	default:
		return nil, fmt.Errorf("device: %s has no decodable representation (%s)", desc.Name, desc.DataType)
	}
}
