package adsb

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsPreamble(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p []uint16)
		want   bool
	}{
		{
			name:   "Clean pattern",
			mutate: func(p []uint16) {},
			want:   true,
		},
		{
			name:   "First pulse does not decay",
			mutate: func(p []uint16) { p[1] = p[0] },
		},
		{
			name:   "Second pulse does not decay",
			mutate: func(p []uint16) { p[3] = p[2] + 1 },
		},
		{
			name:   "Gap too loud",
			mutate: func(p []uint16) { p[4] = p[0] },
		},
		{
			name:   "Third pulse missing",
			mutate: func(p []uint16) { p[7] = p[6] },
		},
		{
			name:   "Fourth pulse missing",
			mutate: func(p []uint16) { p[9] = p[8] },
		},
		{
			name: "Noise floor at exactly high",
			mutate: func(p []uint16) {
				// high = 4000/8 = 500
				p[12] = 500
			},
		},
		{
			name:   "Noise floor just below high",
			mutate: func(p []uint16) { p[14] = 499 },
			want:   true,
		},
		{
			name:   "Symbol 15 is not part of the floor check",
			mutate: func(p []uint16) { p[15] = testHigh },
			want:   true,
		},
		{
			name:   "Symbol 10 is not part of the floor check",
			mutate: func(p []uint16) { p[10] = testHigh },
			want:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := preamblePattern()
			tt.mutate(p)
			assert.Equal(t, tt.want, IsPreamble(p, 0))
		})
	}
}

func TestIsPreamble_ZerosNeverMatch(t *testing.T) {
	assert.False(t, IsPreamble(make([]uint16, PreambleSymbols), 0))
}

func TestScanLimit(t *testing.T) {
	assert.Equal(t, 0, ScanLimit(0))
	assert.Equal(t, 0, ScanLimit(PacketSymbols-1))
	assert.Equal(t, 0, ScanLimit(PacketSymbols))
	assert.Equal(t, 10, ScanLimit(PacketSymbols+10))
}

func TestCandidates(t *testing.T) {
	f, err := ParseFrame(knownDF17)
	require.NoError(t, err)

	t.Run("Offset zero", func(t *testing.T) {
		m := window(f, 0)
		assert.Equal(t, []int{0}, slices.Collect(Candidates(m)))
	})

	t.Run("Two packets", func(t *testing.T) {
		m := append(make([]uint16, 5), packet(f)...)
		m = append(m, make([]uint16, 20)...)
		m = append(m, packet(f)...)
		m = append(m, 0)

		assert.Equal(t, []int{5, 265}, slices.Collect(Candidates(m)))
	})

	t.Run("Packet ending exactly at the buffer is not scanned", func(t *testing.T) {
		m := packet(f)
		assert.Empty(t, slices.Collect(Candidates(m)))
	})

	t.Run("Early stop", func(t *testing.T) {
		m := append(packet(f), packet(f)...)
		m = append(m, 0)
		var seen []int
		ScanPreambles(m, 0, len(m), func(offset int) bool {
			seen = append(seen, offset)
			return false
		})
		assert.Equal(t, []int{0}, seen)
	})

	t.Run("Sub range", func(t *testing.T) {
		m := append(packet(f), packet(f)...)
		m = append(m, 0)
		var seen []int
		ScanPreambles(m, 1, len(m), func(offset int) bool {
			seen = append(seen, offset)
			return true
		})
		assert.Equal(t, []int{PacketSymbols}, seen)
	})
}
