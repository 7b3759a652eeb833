// Package report renders accepted extended squitters for humans and for
// downstream decoders.
package report

import (
	"fmt"
	"strings"

	"squitter/internal/adsb"
)

// Format selects how accepted frames are written
type Format string

const (
	FormatText  Format = "text"  // multi-line report block
	FormatAVR   Format = "avr"   // *HEX; lines
	FormatBeast Format = "beast" // binary Beast frames
)

// ParseFormat validates a format name
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatText, FormatAVR, FormatBeast:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text, avr or beast)", s)
	}
}

// Extension returns the file extension used for daily output files
func (f Format) Extension() string {
	switch f {
	case FormatAVR:
		return ".avr"
	case FormatBeast:
		return ".bin"
	default:
		return ".log"
	}
}

// Text renders the report block for one header
func Text(h adsb.Header) string {
	var b strings.Builder

	status := "FAIL!"
	if h.CRCValid {
		status = "OK!"
	}

	fmt.Fprintf(&b, "\n[+] Raw hex message: %s (offset %d)\n", h.Raw.Hex(), h.Offset)
	fmt.Fprintf(&b, "\tDF: %d\t\t%s\n", h.DF, h.DownlinkFormat())
	fmt.Fprintf(&b, "\tCA: %d\t\t%s\n", h.CA, h.Capability())
	fmt.Fprintf(&b, "\tICAO: %s\n", h.ICAO)
	fmt.Fprintf(&b, "\tCRC: %06X\t%s\n", h.CRC, status)
	fmt.Fprintf(&b, "\tMessage: %s\n", h.MEBits())
	fmt.Fprintf(&b, "\t\tType Code: %d\t\t%s\n", h.TypeCode(), h.TypeCodeClass())

	return b.String()
}

// AVR renders the raw frame as a dump1090 style line
func AVR(h adsb.Header) string {
	return "*" + h.Raw.Hex() + ";\n"
}
