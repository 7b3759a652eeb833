package stream

import (
	"squitter/internal/adsb"
	"squitter/internal/iq"
)

// Default amplitudes used by the synthesizer, in DC-corrected sample units
const (
	DefaultPulseLevel = 100
	DefaultFloorLevel = 5
)

// Synth renders Mode S packets as raw I/Q bytes at one sample per symbol
type Synth struct {
	pulse, floor [2]byte
	buf          []byte
}

// NewSynth creates a synthesizer with the given pulse and noise floor amplitudes
func NewSynth(pulseLevel, floorLevel int) *Synth {
	s := &Synth{}
	s.pulse[0], s.pulse[1] = iq.Sample(pulseLevel)
	s.floor[0], s.floor[1] = iq.Sample(floorLevel)
	return s
}

// Silence appends n samples at the noise floor
func (s *Synth) Silence(n int) *Synth {
	for i := 0; i < n; i++ {
		s.buf = append(s.buf, s.floor[0], s.floor[1])
	}
	return s
}

// Packet appends the preamble and Manchester symbols of f
func (s *Synth) Packet(f adsb.Frame) *Synth {
	for _, c := range "1010000101000000" {
		s.symbol(c == '1')
	}
	for bit := 0; bit < adsb.MessageBits; bit++ {
		one := f.Bit(bit) == 1
		s.symbol(one)
		s.symbol(!one)
	}
	return s
}

func (s *Synth) symbol(high bool) {
	if high {
		s.buf = append(s.buf, s.pulse[0], s.pulse[1])
	} else {
		s.buf = append(s.buf, s.floor[0], s.floor[1])
	}
}

// Len returns the number of samples rendered so far
func (s *Synth) Len() int {
	return len(s.buf) / 2
}

// Bytes returns the rendered I/Q stream
func (s *Synth) Bytes() []byte {
	return s.buf
}
