package adsb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestDecodeSymbols(t *testing.T) {
	known, err := ParseFrame(knownDF17)
	require.NoError(t, err)

	tests := []struct {
		name    string
		symbols func() []uint16
		want    Frame
		wantErr error
	}{
		{
			name:    "Known message",
			symbols: func() []uint16 { return EncodeSymbols(known, testHigh, testLow) },
			want:    known,
		},
		{
			name:    "All zero bits",
			symbols: func() []uint16 { return EncodeSymbols(Frame{}, 7, 3) },
			want:    Frame{},
		},
		{
			name: "Equal pair in the middle",
			symbols: func() []uint16 {
				s := EncodeSymbols(known, testHigh, testLow)
				s[100] = s[101]
				return s
			},
			wantErr: ErrAmbiguousSymbol,
		},
		{
			name: "Equal last pair",
			symbols: func() []uint16 {
				s := EncodeSymbols(known, testHigh, testLow)
				s[MessageSymbols-1] = s[MessageSymbols-2]
				return s
			},
			wantErr: ErrAmbiguousSymbol,
		},
		{
			name:    "Too few symbols",
			symbols: func() []uint16 { return make([]uint16, MessageSymbols-2) },
			wantErr: ErrSymbolCount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeSymbols(tt.symbols())
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, Frame{}, got, "no partial frame on failure")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestManchester_RoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var f Frame
		copy(f[:], rapid.SliceOfN(rapid.Byte(), MessageBytes, MessageBytes).Draw(t, "frame"))
		low := rapid.Uint16Range(0, 30000).Draw(t, "low")
		high := rapid.Uint16Range(low+1, 32768).Draw(t, "high")

		got, err := DecodeSymbols(EncodeSymbols(f, high, low))
		require.NoError(t, err)
		assert.Equal(t, f, got)
	})
}
