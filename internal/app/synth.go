package app

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"squitter/internal/adsb"
	"squitter/internal/stream"
)

// identificationME is a TC4 aircraft identification message field
const identificationME uint64 = 0x202CC371C32CE0

// SynthOptions describes a synthetic recording
type SynthOptions struct {
	ICAO  adsb.ICAO
	Count int
	Gap   int // silent samples between packets
}

// IdentificationFrame builds a CRC-valid DF17 identification frame for icao
func IdentificationFrame(icao adsb.ICAO) adsb.Frame {
	var f adsb.Frame
	f[0] = 17<<3 | 5
	f[1] = byte(icao >> 16)
	f[2] = byte(icao >> 8)
	f[3] = byte(icao)
	for i := 0; i < 7; i++ {
		f[4+i] = byte(identificationME >> uint(48-8*i))
	}
	return f.WithChecksum()
}

// Synthesize renders opts as interleaved I/Q bytes
func Synthesize(opts SynthOptions) []byte {
	frame := IdentificationFrame(opts.ICAO)
	s := stream.NewSynth(stream.DefaultPulseLevel, stream.DefaultFloorLevel)
	for i := 0; i < opts.Count; i++ {
		s.Silence(opts.Gap).Packet(frame)
	}
	return s.Silence(opts.Gap).Bytes()
}

// WriteSynth writes a synthetic recording to path, compressing by extension
// (.gz or .zst) the same way the file source decompresses
func WriteSynth(path string, opts SynthOptions) (int64, error) {
	if opts.Count < 0 || opts.Gap < 0 {
		return 0, fmt.Errorf("count and gap must not be negative")
	}

	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create recording: %w", err)
	}
	defer f.Close()

	var w io.WriteCloser
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		w = gzip.NewWriter(f)
	case ".zst", ".zstd":
		w, err = zstd.NewWriter(f)
		if err != nil {
			return 0, fmt.Errorf("failed to create zstd writer: %w", err)
		}
	default:
		w = nopCloser{f}
	}

	data := Synthesize(opts)
	if _, err := w.Write(data); err != nil {
		return 0, fmt.Errorf("failed to write recording: %w", err)
	}
	if err := w.Close(); err != nil {
		return 0, fmt.Errorf("failed to finish recording: %w", err)
	}
	if err := f.Close(); err != nil {
		return 0, fmt.Errorf("failed to close recording: %w", err)
	}

	return int64(len(data)), nil
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
