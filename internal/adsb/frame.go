package adsb

import (
	"encoding/hex"
	"strings"
)

// Mode S extended squitter geometry, in symbols (one symbol per sample at 2 MS/s)
const (
	PreambleSymbols = 16
	MessageBits     = 112
	MessageBytes    = MessageBits / 8
	MessageSymbols  = MessageBits * 2
	PacketSymbols   = PreambleSymbols + MessageSymbols
)

// Field boundaries inside a 112-bit frame
const (
	ChecksumBits = 24
	DataBits     = MessageBits - ChecksumBits // bits covered by the checksum
	DataBytes    = DataBits / 8
)

// Frame is a 112-bit Mode S long message, most significant bit first
type Frame [MessageBytes]byte

// ParseFrame parses a 28 character hex string into a Frame
func ParseFrame(s string) (Frame, error) {
	var f Frame
	s = strings.TrimSuffix(strings.TrimPrefix(strings.TrimSpace(s), "*"), ";")
	b, err := hex.DecodeString(s)
	if err != nil {
		return f, err
	}
	if len(b) != MessageBytes {
		return f, hex.ErrLength
	}
	copy(f[:], b)
	return f, nil
}

// Bit returns bit i (0 is the first transmitted bit)
func (f Frame) Bit(i int) uint8 {
	return (f[i/8] >> (7 - uint(i%8))) & 1
}

// SetBit sets bit i to v (0 or 1)
func (f *Frame) SetBit(i int, v uint8) {
	mask := byte(1) << (7 - uint(i%8))
	if v != 0 {
		f[i/8] |= mask
	} else {
		f[i/8] &^= mask
	}
}

// FlipBit inverts bit i
func (f *Frame) FlipBit(i int) {
	f[i/8] ^= 1 << (7 - uint(i%8))
}

// Checksum returns the 24-bit parity field carried in bits 88-111
func (f Frame) Checksum() uint32 {
	return uint32(f[11])<<16 | uint32(f[12])<<8 | uint32(f[13])
}

// Hex renders the frame as upper-case hex, the form used by dump1090 raw output
func (f Frame) Hex() string {
	return strings.ToUpper(hex.EncodeToString(f[:]))
}

func (f Frame) String() string {
	return f.Hex()
}

// words splits the frame into a 48-bit high word and a 64-bit low word
func (f Frame) words() (hi, lo uint64) {
	for i := 0; i < 6; i++ {
		hi = hi<<8 | uint64(f[i])
	}
	for i := 6; i < MessageBytes; i++ {
		lo = lo<<8 | uint64(f[i])
	}
	return hi, lo
}
