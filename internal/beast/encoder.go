package beast

import (
	"fmt"
	"io"
)

// Encode serialises msg, doubling every 0x1A after the sync byte
func Encode(msg *Message) ([]byte, error) {
	if !msg.IsValid() {
		return nil, fmt.Errorf("invalid beast message: type 0x%02x with %d data bytes", msg.MessageType, len(msg.Data))
	}

	out := make([]byte, 0, 2+2*(6+1+len(msg.Data)))
	out = append(out, SyncByte, msg.MessageType)

	put := func(b byte) {
		out = append(out, b)
		if b == SyncByte {
			out = append(out, SyncByte)
		}
	}

	for shift := 40; shift >= 0; shift -= 8 {
		put(byte(msg.Timestamp >> uint(shift)))
	}
	put(msg.Signal)
	for _, b := range msg.Data {
		put(b)
	}

	return out, nil
}

// Encoder writes Beast frames to an io.Writer
type Encoder struct {
	w io.Writer
}

// NewEncoder creates an encoder writing to w
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// Write encodes and writes one message
func (e *Encoder) Write(msg *Message) error {
	raw, err := Encode(msg)
	if err != nil {
		return err
	}
	if _, err := e.w.Write(raw); err != nil {
		return fmt.Errorf("failed to write beast frame: %w", err)
	}
	return nil
}
