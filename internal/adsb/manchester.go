package adsb

import (
	"errors"
	"fmt"
)

var (
	// ErrAmbiguousSymbol means a Manchester pair had two equal symbols
	ErrAmbiguousSymbol = errors.New("ambiguous manchester symbol pair")

	// ErrSymbolCount means the symbol slice does not cover exactly one message
	ErrSymbolCount = errors.New("wrong number of message symbols")
)

// DecodeSymbols turns 224 message symbols into a Frame.
//
// A pair (first, second) is 1 when first > second and 0 when first < second. The
// first equal pair rejects the whole frame.
func DecodeSymbols(sym []uint16) (Frame, error) {
	var f Frame
	if len(sym) != MessageSymbols {
		return Frame{}, fmt.Errorf("%w: got %d, want %d", ErrSymbolCount, len(sym), MessageSymbols)
	}

	for bit := 0; bit < MessageBits; bit++ {
		first, second := sym[2*bit], sym[2*bit+1]
		switch {
		case first > second:
			f[bit/8] |= 1 << (7 - uint(bit%8))
		case first < second:
		default:
			return Frame{}, fmt.Errorf("%w: bit %d", ErrAmbiguousSymbol, bit)
		}
	}

	return f, nil
}

// EncodeSymbols renders f as Manchester symbols using the given pulse and floor levels
func EncodeSymbols(f Frame, high, low uint16) []uint16 {
	sym := make([]uint16, MessageSymbols)
	for bit := 0; bit < MessageBits; bit++ {
		if f.Bit(bit) == 1 {
			sym[2*bit], sym[2*bit+1] = high, low
		} else {
			sym[2*bit], sym[2*bit+1] = low, high
		}
	}
	return sym
}
