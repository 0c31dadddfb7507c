// Package protocol implements the RCT Power inverter binary wire protocol:
// request encoding, an incremental frame decoder, and the static object
// registry that maps object ids to names and data types.
package protocol

// Command is the single command byte that follows the start-of-frame byte.
type Command byte

const (
	CommandNone Command = 0x00

	CommandExtension Command = 0x3C

	CommandRead       Command = 0x01
	CommandWrite      Command = 0x02
	CommandLongWrite  Command = 0x03
	CommandReserved1  Command = 0x04
	CommandResponse     Command = 0x05
	CommandLongResponse Command = 0x06

	// Plant commands address cross-device (plant-wide) state. This daemon
	// never sends them and aborts any frame that carries one.
	CommandReadPlant           Command = 0x07
	CommandWritePlant          Command = 0x08
	CommandLongWritePlant      Command = 0x09
	CommandResponsePlant       Command = 0x0A
	CommandLongResponsePlant   Command = 0x0B
	CommandExtensionPlant      Command = 0x3D
)

// IsPlant reports whether cmd belongs to the plant-command family.
func IsPlant(cmd Command) bool {
	switch cmd {
	case CommandReadPlant, CommandWritePlant, CommandLongWritePlant,
		CommandResponsePlant, CommandLongResponsePlant, CommandExtensionPlant:
		return true
	default:
		return false
	}
}

// IsResponse reports whether cmd is a response or long-response.
func IsResponse(cmd Command) bool {
	return cmd == CommandResponse || cmd == CommandLongResponse
}

// IsLong reports whether cmd is a long variant (long response or long
// write), which permits payloads larger than 251 bytes.
func IsLong(cmd Command) bool {
	return cmd == CommandLongResponse || cmd == CommandLongWrite
}

// StartByte is the single byte marking the beginning of every frame.
const StartByte byte = 0x2B

// EscapeByte introduces an escaped byte; the byte that follows is XORed
// with escapeXOR to recover the original value. Any occurrence of
// StartByte, EscapeByte, or plantEscapeSentinel inside the CRC-covered
// portion of a frame must be escaped on the wire.
const EscapeByte byte = 0x2D

const escapeXOR byte = 0x20

// plantEscapeSentinel is the third byte value (besides StartByte and
// EscapeByte) that must be escaped, preserved from the upstream protocol.
const plantEscapeSentinel byte = 0x1D

// needsEscape reports whether b must be escaped when appended to a frame body.
func needsEscape(b byte) bool {
	return b == StartByte || b == EscapeByte || b == plantEscapeSentinel
}
