// Package iq converts raw RTL-SDR style I/Q byte streams into magnitude samples.
package iq

import (
	"errors"
	"fmt"
)

// DCOffset is the midpoint of an unsigned 8-bit I/Q sample
const DCOffset = 128

// MaxMagnitude is the largest value Magnitude can produce: (-128)² + (-128)²
const MaxMagnitude = DCOffset*DCOffset + DCOffset*DCOffset

// ErrMalformedChunk is returned when a chunk does not hold whole I/Q pairs
var ErrMalformedChunk = errors.New("malformed I/Q chunk")

// squares maps a raw sample byte to (b-128)², so the hot loop is two lookups and an add
var squares [256]uint16

func init() {
	for b := 0; b < 256; b++ {
		v := b - DCOffset
		squares[b] = uint16(v * v)
	}
}

// Magnitude converts interleaved I/Q bytes into one magnitude per pair.
//
// The magnitude is the sum of squares I²+Q² of the DC-corrected samples. All
// downstream comparisons are relative, so the square root is never taken.
func Magnitude(chunk []byte) ([]uint16, error) {
	if len(chunk)%2 != 0 {
		return nil, fmt.Errorf("%w: odd length %d", ErrMalformedChunk, len(chunk))
	}
	out := make([]uint16, len(chunk)/2)
	if _, err := MagnitudeInto(out, chunk); err != nil {
		return nil, err
	}
	return out, nil
}

// MagnitudeInto writes the magnitudes of chunk into dst and returns the number written.
// dst must have room for len(chunk)/2 values.
func MagnitudeInto(dst []uint16, chunk []byte) (int, error) {
	if len(chunk)%2 != 0 {
		return 0, fmt.Errorf("%w: odd length %d", ErrMalformedChunk, len(chunk))
	}
	n := len(chunk) / 2
	if len(dst) < n {
		return 0, fmt.Errorf("destination too small: have %d, need %d", len(dst), n)
	}

	for i := 0; i < n; i++ {
		dst[i] = squares[chunk[2*i]] + squares[chunk[2*i+1]]
	}
	return n, nil
}

// Sample returns the raw byte pair that encodes an exact magnitude level on the I axis.
// It is the inverse used by the signal synthesizer: level is clamped to the I range.
func Sample(level int) (i, q byte) {
	if level < 0 {
		level = 0
	}
	if level > DCOffset-1 {
		level = DCOffset - 1
	}
	return byte(DCOffset + level), DCOffset
}
