package adsb

// GeneratorPoly is the full 25-bit Mode S generator, 1111111111111010000001001
const GeneratorPoly = 0x1fff409

// MODES_GENERATOR_POLY is the generator without its implicit top bit (dump1090 form)
const MODES_GENERATOR_POLY = GeneratorPoly & 0xffffff

// Pre-computed CRC table for byte-at-a-time checksums
var crcTable [256]uint32

func init() {
	for i := 0; i < 256; i++ {
		c := uint32(i) << 16
		for j := 0; j < 8; j++ {
			if c&0x800000 != 0 {
				c = (c << 1) ^ MODES_GENERATOR_POLY
			} else {
				c = c << 1
			}
		}
		crcTable[i] = c & 0x00ffffff
	}
}

// Checksum computes the Mode S CRC-24 of data using the byte table.
//
// Over the 11 data bytes of a long frame it equals Remainder. Over all 14 bytes of a
// frame with a correct parity field it is zero.
func Checksum(data []byte) uint32 {
	var rem uint32
	for _, b := range data {
		rem = (rem << 8) ^ crcTable[uint32(b)^((rem&0xff0000)>>16)]
		rem &= 0xffffff
	}
	return rem
}

// Remainder computes the CRC-24 remainder of the first 88 bits of f by long division.
//
// The parity field is treated as zero. For every set bit from the most significant
// end the generator is XORed into the 25-bit window starting at that bit. The frame
// lives in two words, hi holding bits 0-47 and lo bits 48-111.
func Remainder(f Frame) uint32 {
	hi, lo := f.words()
	lo &^= 0xffffff

	for p := 0; p < DataBits; p++ {
		idx := uint(MessageBits - 1 - p)

		var bit uint64
		if idx >= 64 {
			bit = (hi >> (idx - 64)) & 1
		} else {
			bit = (lo >> idx) & 1
		}
		if bit == 0 {
			continue
		}

		gh, gl := shiftGenerator(idx - ChecksumBits)
		hi ^= gh
		lo ^= gl
	}

	return uint32(lo & 0xffffff)
}

// shiftGenerator returns GeneratorPoly << s as a 128-bit hi:lo pair
func shiftGenerator(s uint) (hi, lo uint64) {
	g := uint64(GeneratorPoly)
	if s >= 64 {
		return g << (s - 64), 0
	}
	// a shift by 64 yields zero, which is the s == 0 case
	return g >> (64 - s), g << s
}

// CRCValid reports whether the embedded parity field matches the computed remainder
func (f Frame) CRCValid() bool {
	return Checksum(f[:DataBytes]) == f.Checksum()
}

// WithChecksum returns a copy of f with a correct parity field
func (f Frame) WithChecksum() Frame {
	crc := Checksum(f[:DataBytes])
	f[11] = byte(crc >> 16)
	f[12] = byte(crc >> 8)
	f[13] = byte(crc)
	return f
}
