package adsb

import (
	"errors"
	"fmt"
)

var (
	// ErrCRCMismatch means the computed remainder disagrees with the parity field
	ErrCRCMismatch = errors.New("crc mismatch")

	// ErrFiltered means a valid frame did not match the downlink format filter
	ErrFiltered = errors.New("downlink format filtered")
)

// ICAO is a 24-bit aircraft address
type ICAO uint32

func (a ICAO) String() string {
	return fmt.Sprintf("%06X", uint32(a))
}

// Header holds the common fields of a CRC-validated extended squitter
type Header struct {
	DF       uint8  // downlink format, bits 0-4
	CA       uint8  // capability, bits 5-7
	ICAO     ICAO   // bits 8-31
	ME       uint64 // 56-bit message field, bits 32-87
	CRC      uint32 // parity, bits 88-111
	CRCValid bool

	Raw Frame

	// Offset is the sample offset of the preamble. Decoder.Decode sets it relative
	// to the magnitude window it was given; the pipeline rebases it to the stream.
	Offset int64
}

// ParseHeader splits a frame into its header fields.
// Frames failing the CRC check are rejected with ErrCRCMismatch.
func ParseHeader(f Frame) (Header, error) {
	crc := f.Checksum()
	if computed := Checksum(f[:DataBytes]); computed != crc {
		return Header{}, fmt.Errorf("%w: computed %06x, embedded %06x", ErrCRCMismatch, computed, crc)
	}

	var me uint64
	for i := 4; i < DataBytes; i++ {
		me = me<<8 | uint64(f[i])
	}

	return Header{
		DF:       f[0] >> 3,
		CA:       f[0] & 0x07,
		ICAO:     ICAO(uint32(f[1])<<16 | uint32(f[2])<<8 | uint32(f[3])),
		ME:       me,
		CRC:      crc,
		CRCValid: true,
		Raw:      f,
	}, nil
}

// TypeCode returns the first five bits of the message field
func (h Header) TypeCode() uint8 {
	return uint8(h.ME >> 51)
}

func (h Header) DownlinkFormat() Class { return DownlinkFormatClass(h.DF) }
func (h Header) Capability() Class     { return CapabilityClass(h.CA) }
func (h Header) TypeCodeClass() Class  { return TypeCodeClass(h.TypeCode()) }

// MEBits renders the message field as a 56 character binary string
func (h Header) MEBits() string {
	return fmt.Sprintf("%056b", h.ME)
}

// Filter restricts accepted frames to one downlink format
type Filter struct {
	df      uint8
	enabled bool
}

// AnyDF accepts every downlink format
func AnyDF() Filter { return Filter{} }

// OnlyDF accepts frames of a single downlink format
func OnlyDF(df uint8) Filter { return Filter{df: df & 0x1f, enabled: true} }

// FilterFromInt maps a config value to a Filter, negative meaning no filter
func FilterFromInt(df int) Filter {
	if df < 0 {
		return AnyDF()
	}
	return OnlyDF(uint8(df))
}

// Match reports whether df passes the filter
func (f Filter) Match(df uint8) bool {
	return !f.enabled || f.df == df
}

func (f Filter) String() string {
	if !f.enabled {
		return "any"
	}
	return fmt.Sprintf("DF%d", f.df)
}
