package protocol

import "encoding/binary"

// State is a decoder state-machine state.
type State int

const (
	StateIdle State = iota
	StateReadingHeader
	StateReadingLength
	StateReadingID
	StateReadingPayload
	StateReadingCRC
	StateComplete
)

// ErrorKind classifies a decode failure for counting purposes (spec.md §4.1/§7).
type ErrorKind int

const (
	ErrorKindNone ErrorKind = iota
	ErrorKindCRCMismatch
	ErrorKindInvalidCommand
	ErrorKindFrameLengthExceeded
	ErrorKindPayloadUnpack
	ErrorKindUnknownObjectID
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorKindCRCMismatch:
		return "crc_mismatch"
	case ErrorKindInvalidCommand:
		return "invalid_command"
	case ErrorKindFrameLengthExceeded:
		return "frame_length_exceeded"
	case ErrorKindPayloadUnpack:
		return "payload_unpack"
	case ErrorKindUnknownObjectID:
		return "unknown_object_id"
	default:
		return "none"
	}
}

// maxNumericLength and maxShortStringLength are the resync heuristic
// thresholds from spec.md §4.1, rules 4 and 5.
const maxNumericLength = 30
const maxShortStringLength = 251

// resyncSkipBytes is the external-buffer advance applied by heuristics 4 and
// 5. Fixed at 2 (see SPEC_FULL.md §9 Open Question decisions: the upstream
// constant, not tied to the escape window).
const resyncSkipBytes = 2

// Decoder incrementally consumes bytes from the inverter's TCP stream and
// emits complete Frames. It holds no reference to the registry directly;
// Registry is passed to Consume so the decoder can be unit-tested with a
// minimal fixture registry.
type Decoder struct {
	state State

	escapePending bool

	cmd       Command
	length    int
	haveLen   [2]byte
	lenFilled int

	oid       uint32
	idBuf     [4]byte
	idFilled  int

	payload []byte

	crcBuf     [2]byte
	crcFilled  int

	body []byte // raw (unescaped) bytes from command byte through payload, for CRC check
}

// NewDecoder returns a Decoder in the IDLE state.
func NewDecoder() *Decoder {
	return &Decoder{state: StateIdle}
}

// Reset returns the decoder to IDLE, discarding any partial frame.
func (d *Decoder) Reset() {
	*d = Decoder{state: StateIdle}
}

// Consume feeds data to the decoder and reports how many leading bytes of
// data were absorbed. If a complete frame was produced, frame is non-nil.
// If a resync heuristic or CRC/structural failure fired, errKind is set and
// the partial frame is discarded; the caller should still advance its
// receive buffer by the returned consumed count and keep feeding the
// remainder. Consume never returns 0 when len(data) > 0 — the decoder
// always makes progress by at least one byte, so feeding adversarial input
// cannot hang the caller (spec.md §8 boundary behavior).
func (d *Decoder) Consume(reg *Registry, data []byte) (consumed int, frame *Frame, errKind ErrorKind) {
	if len(data) == 0 {
		return 0, nil, ErrorKindNone
	}

	i := 0
	for i < len(data) {
		b := data[i]
		i++

		if d.state == StateIdle {
			if b == StartByte {
				d.state = StateReadingHeader
				d.escapePending = false
				d.body = d.body[:0]
			}
			continue
		}

		// Unescape: EscapeByte introduces the next raw byte XORed with escapeXOR.
		if d.escapePending {
			b ^= escapeXOR
			d.escapePending = false
		} else if b == EscapeByte {
			d.escapePending = true
			continue
		}

		d.body = append(d.body, b)

		switch d.state {
		case StateReadingHeader:
			d.cmd = Command(b)
			d.state = StateReadingLength
			d.lenFilled = 0

			if IsPlant(d.cmd) {
				d.Reset()
				return i, nil, ErrorKindInvalidCommand
			}
			if !IsResponse(d.cmd) {
				d.Reset()
				return i, nil, ErrorKindInvalidCommand
			}

		case StateReadingLength:
			d.haveLen[d.lenFilled] = b
			d.lenFilled++
			if d.lenFilled == 2 {
				d.length = int(binary.BigEndian.Uint16(d.haveLen[:]))
				d.state = StateReadingID
				d.idFilled = 0
			}

		case StateReadingID:
			d.idBuf[d.idFilled] = b
			d.idFilled++
			if d.idFilled == 4 {
				d.oid = binary.BigEndian.Uint32(d.idBuf[:])
				d.state = StateReadingPayload
				d.payload = d.payload[:0]

				if reg != nil {
					if _, ok := reg.ByID(d.oid); !ok {
						d.Reset()
						return i, nil, ErrorKindUnknownObjectID
					}
				}
			}

		case StateReadingPayload:
			d.payload = append(d.payload, b)
			remaining := d.length - 4
			if len(d.payload) > remaining {
				d.Reset()
				return i, nil, ErrorKindFrameLengthExceeded
			}

			if ek := d.checkLengthHeuristics(reg); ek != ErrorKindNone {
				d.Reset()
				skip := min(resyncSkipBytes, len(data)-i)
				return i + skip, nil, ek
			}

			if len(d.payload) == remaining {
				d.state = StateReadingCRC
				d.crcFilled = 0
			}

		case StateReadingCRC:
			d.crcBuf[d.crcFilled] = b
			d.crcFilled++
			if d.crcFilled == 2 {
				got := binary.BigEndian.Uint16(d.crcBuf[:])
				// CRC covers everything from the command byte through the
				// payload, i.e. d.body minus the two CRC bytes just appended.
				want := CRC16(d.body[:len(d.body)-2])

				f := &Frame{Command: d.cmd, ObjectID: d.oid, Payload: append([]byte(nil), d.payload...)}
				d.Reset()

				if got != want {
					return i, nil, ErrorKindCRCMismatch
				}
				return i, f, ErrorKindNone
			}
		}
	}

	return i, nil, ErrorKindNone
}

// checkLengthHeuristics applies spec.md §4.1 resync heuristics 4 and 5 as
// soon as enough of the frame is known to evaluate them. It only ever
// examines state already buffered in d (the currently in-progress frame),
// never data not yet consumed.
func (d *Decoder) checkLengthHeuristics(reg *Registry) ErrorKind {
	if reg == nil {
		return ErrorKindNone
	}
	desc, ok := reg.ByID(d.oid)
	if !ok {
		return ErrorKindNone
	}

	declared := d.length - 4

	if desc.DataType.IsNumeric() {
		if declared > maxNumericLength || len(d.payload) > maxNumericLength {
			return ErrorKindFrameLengthExceeded
		}
	}

	if desc.DataType == DataTypeString && !IsLong(d.cmd) && declared > maxShortStringLength {
		return ErrorKindFrameLengthExceeded
	}

	return ErrorKindNone
}
