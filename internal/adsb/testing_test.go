package adsb

const (
	testHigh uint16 = 1000
	testLow  uint16 = 10
)

// preamblePattern is the 1010000101000000 pulse pattern at test levels
func preamblePattern() []uint16 {
	pattern := "1010000101000000"
	out := make([]uint16, PreambleSymbols)
	for i, c := range pattern {
		if c == '1' {
			out[i] = testHigh
		} else {
			out[i] = testLow
		}
	}
	return out
}

// packet builds the magnitudes of a full packet carrying f
func packet(f Frame) []uint16 {
	m := preamblePattern()
	return append(m, EncodeSymbols(f, testHigh, testLow)...)
}

// window places a packet at offset and pads so that offset is scannable
func window(f Frame, offset int) []uint16 {
	m := make([]uint16, offset, offset+PacketSymbols+1)
	m = append(m, packet(f)...)
	return append(m, 0)
}
