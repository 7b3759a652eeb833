// Package stream owns the sliding magnitude window and drives the decode pipeline
// over a chunked sample source.
package stream

import (
	"squitter/internal/adsb"
	"squitter/internal/iq"
)

// Carry is the number of magnitudes retained between cycles so a packet straddling
// two chunks is fully visible in the cycle where its tail arrives
const Carry = adsb.PacketSymbols

// State is the window manager's position in the acquisition cycle
type State int

const (
	AwaitingChunk State = iota
	Demodulating
	Scanning
	CarryOver
	Done
)

func (s State) String() string {
	switch s {
	case AwaitingChunk:
		return "awaiting_chunk"
	case Demodulating:
		return "demodulating"
	case Scanning:
		return "scanning"
	case CarryOver:
		return "carry_over"
	case Done:
		return "done"
	default:
		return "unknown"
	}
}

// Window is the working magnitude buffer: Carry retained magnitudes followed by
// the magnitudes of the current chunk
type Window struct {
	buf     []uint16
	state   State
	samples int64 // magnitudes demodulated before the current chunk
	loaded  int   // magnitudes in the current chunk
}

// NewWindow allocates a window sized for chunks of chunkSamples I/Q pairs.
// The carried region starts as zeros.
func NewWindow(chunkSamples int) *Window {
	if chunkSamples < 0 {
		chunkSamples = 0
	}
	return &Window{
		buf:   make([]uint16, Carry, Carry+chunkSamples),
		state: AwaitingChunk,
	}
}

// State returns the current cycle state
func (w *Window) State() State {
	return w.state
}

// Load demodulates chunk into the window after the carried magnitudes.
// On error the window is left as it was.
func (w *Window) Load(chunk []byte) error {
	w.state = Demodulating

	n := len(chunk) / 2
	need := Carry + n
	if cap(w.buf) < need {
		grown := make([]uint16, Carry, need)
		copy(grown, w.buf[:Carry])
		w.buf = grown
	}

	if _, err := iq.MagnitudeInto(w.buf[Carry:need], chunk); err != nil {
		w.state = AwaitingChunk
		return err
	}

	w.buf = w.buf[:need]
	w.loaded = n
	w.state = Scanning
	return nil
}

// Magnitudes returns the whole working buffer. It is valid until the next Load or
// CarryOver and must not be retained.
func (w *Window) Magnitudes() []uint16 {
	return w.buf
}

// Base returns the stream sample index of Magnitudes()[0]
func (w *Window) Base() int64 {
	return w.samples - Carry
}

// CarryOver moves the last Carry magnitudes to the head of the buffer
func (w *Window) CarryOver() {
	w.state = CarryOver
	copy(w.buf[:Carry], w.buf[len(w.buf)-Carry:])
	w.buf = w.buf[:Carry]
	w.samples += int64(w.loaded)
	w.loaded = 0
	w.state = AwaitingChunk
}

// Close marks the end of the stream
func (w *Window) Close() {
	w.state = Done
}

// Samples returns the number of magnitudes consumed by completed cycles
func (w *Window) Samples() int64 {
	return w.samples
}
