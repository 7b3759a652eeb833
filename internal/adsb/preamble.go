package adsb

import "iter"

// IsPreamble tests the 16-symbol pulse pattern 1010000101000000 at offset i.
//
// m must hold at least i+PreambleSymbols values. The "high" level is the mean of the
// four pulses halved; it is compared as sum > 8*m[k] so no precision is lost.
func IsPreamble(m []uint16, i int) bool {
	p := m[i : i+PreambleSymbols : i+PreambleSymbols]

	// two leading pulses with trailing decay, a gap, then two trailing pulses
	if !(p[0] > p[1] &&
		p[2] > p[3] &&
		p[4] < p[0] &&
		p[5] < p[0] &&
		p[6] < p[7] &&
		p[8] < p[9]) {
		return false
	}

	high := uint32(p[0]) + uint32(p[2]) + uint32(p[7]) + uint32(p[9])
	for k := 11; k < 15; k++ {
		if high <= 8*uint32(p[k]) {
			return false
		}
	}
	return true
}

// ScanLimit is the exclusive upper bound of candidate offsets in a sequence of length n
func ScanLimit(n int) int {
	if n < PacketSymbols {
		return 0
	}
	return n - PacketSymbols
}

// ScanPreambles calls fn for every preamble offset in [lo, hi), in ascending order.
// hi is clipped to ScanLimit(len(m)). Scanning stops early when fn returns false.
func ScanPreambles(m []uint16, lo, hi int, fn func(offset int) bool) {
	if limit := ScanLimit(len(m)); hi > limit {
		hi = limit
	}
	if lo < 0 {
		lo = 0
	}
	for i := lo; i < hi; i++ {
		if !IsPreamble(m, i) {
			continue
		}
		if !fn(i) {
			return
		}
	}
}

// Candidates lazily yields every preamble offset in m
func Candidates(m []uint16) iter.Seq[int] {
	return func(yield func(int) bool) {
		ScanPreambles(m, 0, len(m), yield)
	}
}
