package adsb

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDecoder(filter Filter) *Decoder {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	logger.SetLevel(logrus.DebugLevel)
	return NewDecoder(filter, logger)
}

// df18 returns a TIS-B frame with a correct checksum
func df18() Frame {
	f, _ := ParseFrame(knownDF17)
	f[0] = 18<<3 | 2
	return f.WithChecksum()
}

func TestDecoder_Decode(t *testing.T) {
	known, err := ParseFrame(knownDF17)
	require.NoError(t, err)

	badCRC := known
	badCRC.FlipBit(60)

	tests := []struct {
		name    string
		filter  Filter
		window  func() []uint16
		wantErr error
		wantDF  uint8
		stats   Stats
	}{
		{
			name:   "DF17 at offset zero",
			filter: OnlyDF(17),
			window: func() []uint16 { return window(known, 0) },
			wantDF: 17,
			stats:  Stats{Preambles: 1, Accepted: 1},
		},
		{
			name:    "DF18 with DF17 filter",
			filter:  OnlyDF(17),
			window:  func() []uint16 { return window(df18(), 0) },
			wantErr: ErrFiltered,
			stats:   Stats{Preambles: 1, Filtered: 1},
		},
		{
			name:   "DF18 without filter",
			filter: AnyDF(),
			window: func() []uint16 { return window(df18(), 0) },
			wantDF: 18,
			stats:  Stats{Preambles: 1, Accepted: 1},
		},
		{
			name:   "Forced equal pair",
			filter: OnlyDF(17),
			window: func() []uint16 {
				m := window(known, 0)
				m[PreambleSymbols+50] = m[PreambleSymbols+51]
				return m
			},
			wantErr: ErrAmbiguousSymbol,
			stats:   Stats{Preambles: 1, Ambiguous: 1},
		},
		{
			name:    "Corrupted bit",
			filter:  OnlyDF(17),
			window:  func() []uint16 { return window(badCRC, 0) },
			wantErr: ErrCRCMismatch,
			stats:   Stats{Preambles: 1, CRCMismatch: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newTestDecoder(tt.filter)
			m := tt.window()

			offsets := 0
			for offset := range Candidates(m) {
				offsets++
				h, err := d.Decode(m, offset)
				if tt.wantErr != nil {
					assert.ErrorIs(t, err, tt.wantErr)
					assert.Equal(t, Header{}, h)
					continue
				}
				require.NoError(t, err)
				assert.Equal(t, tt.wantDF, h.DF)
				assert.True(t, h.CRCValid)
				assert.Equal(t, int64(offset), h.Offset)
			}

			assert.Equal(t, 1, offsets)
			assert.Equal(t, tt.stats, d.GetStats())
		})
	}
}

func TestDecoder_OffsetOutsideWindow(t *testing.T) {
	d := newTestDecoder(AnyDF())
	m := make([]uint16, PacketSymbols)

	_, err := d.Decode(m, 1)
	assert.ErrorIs(t, err, ErrSymbolCount)
	_, err = d.Decode(m, -1)
	assert.Error(t, err)
	assert.Equal(t, Stats{}, d.GetStats())
}

func TestDecoder_NilLogger(t *testing.T) {
	known, err := ParseFrame(knownDF17)
	require.NoError(t, err)

	d := NewDecoder(AnyDF(), nil)
	h, err := d.Decode(window(known, 0), 0)
	require.NoError(t, err)
	assert.Equal(t, ICAO(0x4840D6), h.ICAO)
	assert.Equal(t, AnyDF(), d.Filter())
}
