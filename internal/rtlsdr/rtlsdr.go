// Package rtlsdr reads live I/Q samples from an RTL2832 based dongle.
package rtlsdr

import "errors"

// ReadAlignment is the granularity librtlsdr requires for synchronous reads
const ReadAlignment = 512

// ErrNoDevice is returned when no dongle is attached or support is compiled out
var ErrNoDevice = errors.New("no RTL-SDR devices found")

// pairAligner keeps chunks on I/Q pair boundaries. An odd trailing byte is held
// back and placed at the front of the next read instead of being dropped.
type pairAligner struct {
	held    byte
	holding bool
}

// prefix writes the held byte, if any, to buf[0] and returns the bytes used
func (a *pairAligner) prefix(buf []byte) int {
	if !a.holding {
		return 0
	}
	buf[0] = a.held
	a.holding = false
	return 1
}

// align returns the even-length prefix of buf, holding its last byte when odd
func (a *pairAligner) align(buf []byte) []byte {
	if len(buf)%2 == 0 {
		return buf
	}
	a.held = buf[len(buf)-1]
	a.holding = true
	return buf[:len(buf)-1]
}
