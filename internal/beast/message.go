// Package beast encodes and decodes the Mode S Beast binary frame format.
package beast

import (
	"squitter/internal/adsb"
)

// Beast mode message types
const (
	SyncByte   = 0x1A // Beast mode sync byte
	ModeAC     = 0x31 // Mode A/C
	ModeS      = 0x32 // Mode S Short (56 bits)
	ModeSLong  = 0x33 // Mode S Long (112 bits)
	ModeStatus = 0x34 // Status
)

// TicksPerSample converts a 2 MS/s sample offset to the 12 MHz Beast clock
const TicksPerSample = 6

// Message represents a single Beast frame
type Message struct {
	MessageType byte
	Timestamp   uint64 // 48-bit counter at 12 MHz
	Signal      byte
	Data        []byte
}

// FromHeader wraps an accepted extended squitter in a Mode S long Beast frame
func FromHeader(h adsb.Header) *Message {
	data := make([]byte, adsb.MessageBytes)
	copy(data, h.Raw[:])

	var ts uint64
	if h.Offset > 0 {
		ts = uint64(h.Offset) * TicksPerSample
	}

	return &Message{
		MessageType: ModeSLong,
		Timestamp:   ts & 0xFFFFFFFFFFFF,
		Data:        data,
	}
}

// payloadLength returns the data length carried by a message type
func payloadLength(messageType byte) int {
	switch messageType {
	case ModeAC, ModeStatus:
		return 2
	case ModeS:
		return 7
	case ModeSLong:
		return 14
	default:
		return 0
	}
}

// GetICAO extracts ICAO address from Mode S message
func (msg *Message) GetICAO() uint32 {
	if msg.MessageType != ModeS && msg.MessageType != ModeSLong {
		return 0
	}

	if len(msg.Data) < 4 {
		return 0
	}

	return (uint32(msg.Data[1]) << 16) | (uint32(msg.Data[2]) << 8) | uint32(msg.Data[3])
}

// GetDF extracts Downlink Format from Mode S message
func (msg *Message) GetDF() byte {
	if msg.MessageType != ModeS && msg.MessageType != ModeSLong {
		return 0
	}

	if len(msg.Data) < 1 {
		return 0
	}

	return (msg.Data[0] >> 3) & 0x1F
}

// Frame returns the payload of a Mode S long message as an adsb.Frame
func (msg *Message) Frame() (adsb.Frame, bool) {
	var f adsb.Frame
	if msg.MessageType != ModeSLong || len(msg.Data) != adsb.MessageBytes {
		return f, false
	}
	copy(f[:], msg.Data)
	return f, true
}

// IsValid performs basic validation on the message
func (msg *Message) IsValid() bool {
	n := payloadLength(msg.MessageType)
	return n > 0 && len(msg.Data) == n
}
