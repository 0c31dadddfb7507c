package protocol

import "encoding/binary"

// Frame is a fully decoded response: the object id, the command it arrived
// under, and the raw (already un-escaped) payload bytes. Value decoding
// against the registry's declared DataType happens one layer up, in the
// dispatcher — the codec itself only classifies structural failures.
type Frame struct {
	Command  Command
	ObjectID uint32
	Payload  []byte
}

// EncodeRead builds the wire bytes for a read-request targeting oid. The
// result is precomputed once per managed frame and reused on every send
// (spec.md §4.1: "computed once per managed frame and reused").
func EncodeRead(oid uint32) []byte {
	return encodeFrame(CommandRead, oid, nil)
}

// encodeFrame serializes command, the object id, and payload into a
// complete wire frame: start byte, escaped body, CRC trailer.
func encodeFrame(cmd Command, oid uint32, payload []byte) []byte {
	body := make([]byte, 0, 7+len(payload))
	body = append(body, byte(cmd))

	length := 4 + len(payload)
	var lenBuf [2]byte
	binary.BigEndian.PutUint16(lenBuf[:], uint16(length))
	body = append(body, lenBuf[:]...)

	var idBuf [4]byte
	binary.BigEndian.PutUint32(idBuf[:], oid)
	body = append(body, idBuf[:]...)
	body = append(body, payload...)

	crc := CRC16(body)
	var crcBuf [2]byte
	binary.BigEndian.PutUint16(crcBuf[:], crc)
	body = append(body, crcBuf[:]...)

	out := make([]byte, 0, len(body)+3)
	out = append(out, StartByte)
	for _, b := range body {
		if needsEscape(b) {
			out = append(out, EscapeByte, b^escapeXOR)
		} else {
			out = append(out, b)
		}
	}
	return out
}
