package adsb

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// Stats is a snapshot of decoder counters
type Stats struct {
	Preambles   uint64 // candidates handed to Decode
	Ambiguous   uint64 // rejected by the Manchester decoder
	CRCMismatch uint64 // rejected by the parity check
	Filtered    uint64 // valid but excluded by the DF filter
	Accepted    uint64 // decoded and matching the filter, before overlap suppression
}

// Decoder drives a preamble candidate through symbol decoding, CRC validation,
// field extraction and DF filtering. It is safe for concurrent use.
type Decoder struct {
	logger *logrus.Logger
	filter Filter

	preambles   atomic.Uint64
	ambiguous   atomic.Uint64
	crcMismatch atomic.Uint64
	filtered    atomic.Uint64
	accepted    atomic.Uint64
}

// NewDecoder creates a decoder accepting frames that pass filter
func NewDecoder(filter Filter, logger *logrus.Logger) *Decoder {
	return &Decoder{
		logger: logger,
		filter: filter,
	}
}

// Filter returns the downlink format filter in use
func (d *Decoder) Filter() Filter {
	return d.filter
}

// Decode decodes the packet whose preamble starts at offset in m. The returned
// header's Offset is that window offset; callers owning the stream position rebase it.
//
// The returned error is ErrAmbiguousSymbol, ErrCRCMismatch or ErrFiltered (possibly
// wrapped) when the candidate is discarded. A nil error means the header was accepted.
func (d *Decoder) Decode(m []uint16, offset int) (Header, error) {
	if offset < 0 || offset+PacketSymbols > len(m) {
		return Header{}, fmt.Errorf("%w: offset %d outside window of %d", ErrSymbolCount, offset, len(m))
	}
	d.preambles.Add(1)

	frame, err := DecodeSymbols(m[offset+PreambleSymbols : offset+PacketSymbols])
	if err != nil {
		if errors.Is(err, ErrAmbiguousSymbol) {
			d.ambiguous.Add(1)
		}
		return Header{}, err
	}

	header, err := ParseHeader(frame)
	if err != nil {
		d.crcMismatch.Add(1)
		return Header{}, err
	}
	header.Offset = int64(offset)

	if !d.filter.Match(header.DF) {
		d.filtered.Add(1)
		return Header{}, fmt.Errorf("%w: DF%d, want %s", ErrFiltered, header.DF, d.filter)
	}

	d.accepted.Add(1)
	if d.logger != nil && d.logger.IsLevelEnabled(logrus.DebugLevel) {
		d.logger.WithFields(logrus.Fields{
			"window_offset": offset,
			"df":            header.DF,
			"icao":          header.ICAO.String(),
			"tc":            header.TypeCode(),
		}).Debug("Accepted frame")
	}

	return header, nil
}

// GetStats returns a snapshot of the decoder counters
func (d *Decoder) GetStats() Stats {
	return Stats{
		Preambles:   d.preambles.Load(),
		Ambiguous:   d.ambiguous.Load(),
		CRCMismatch: d.crcMismatch.Load(),
		Filtered:    d.filtered.Load(),
		Accepted:    d.accepted.Load(),
	}
}
