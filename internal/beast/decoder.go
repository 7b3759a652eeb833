package beast

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// maxBuffer bounds the bytes kept while waiting for the rest of a frame
const maxBuffer = 2048

// Decoder decodes a Beast byte stream, possibly split across reads
type Decoder struct {
	logger *logrus.Logger
	buffer []byte
}

// NewDecoder creates a new Beast decoder
func NewDecoder(logger *logrus.Logger) *Decoder {
	return &Decoder{
		logger: logger,
		buffer: make([]byte, 0, 4096),
	}
}

// Decode appends data to the internal buffer and returns every complete message
func (d *Decoder) Decode(data []byte) ([]*Message, error) {
	d.buffer = append(d.buffer, data...)

	var messages []*Message

	for {
		start, pending := resync(d.buffer)
		if start == -1 {
			d.buffer = d.buffer[len(d.buffer)-pending:]
			break
		}
		d.buffer = d.buffer[start:]

		messageType := d.buffer[1]
		dataLen := payloadLength(messageType)
		if dataLen == 0 {
			d.logger.WithFields(logrus.Fields{
				"message_type": fmt.Sprintf("0x%02x", messageType),
			}).Debug("Unknown message type, skipping")
			d.buffer = d.buffer[1:]
			continue
		}

		body, consumed, ok := unescape(d.buffer[2:], 6+1+dataLen)
		if !ok {
			// frame incomplete, wait for more data
			break
		}
		if consumed < 0 {
			d.logger.Debug("Unescaped sync byte inside frame, resynchronising")
			d.buffer = d.buffer[1:]
			continue
		}

		var timestamp uint64
		for i := 0; i < 6; i++ {
			timestamp = (timestamp << 8) | uint64(body[i])
		}

		msg := &Message{
			MessageType: messageType,
			Timestamp:   timestamp,
			Signal:      body[6],
			Data:        body[7:],
		}

		d.logger.WithFields(logrus.Fields{
			"message_type": fmt.Sprintf("0x%02x", msg.MessageType),
			"data_length":  len(msg.Data),
		}).Debug("Successfully decoded Beast message")

		messages = append(messages, msg)
		d.buffer = d.buffer[2+consumed:]
	}

	if len(d.buffer) > maxBuffer {
		d.buffer = d.buffer[:0]
	}

	return messages, nil
}

// resync returns the index of the next frame start in buf, stepping over escaped
// 0x1A 0x1A pairs so the second byte of a pair is never taken for a sync byte.
// With no frame start, pending is 1 when buf ends in a sync byte whose successor
// has not arrived yet and 0 otherwise.
func resync(buf []byte) (start, pending int) {
	for i := 0; i < len(buf); {
		if buf[i] != SyncByte {
			i++
			continue
		}
		if i+1 == len(buf) {
			return -1, 1
		}
		if buf[i+1] == SyncByte {
			i += 2
			continue
		}
		return i, 0
	}
	return -1, 0
}

// unescape collects n logical bytes from raw, collapsing 0x1A 0x1A pairs. ok is
// false when raw ends first; consumed is -1 when a lone sync byte interrupts the frame.
func unescape(raw []byte, n int) (body []byte, consumed int, ok bool) {
	body = make([]byte, 0, n)
	i := 0
	for len(body) < n {
		if i >= len(raw) {
			return nil, 0, false
		}
		b := raw[i]
		if b == SyncByte {
			if i+1 >= len(raw) {
				return nil, 0, false
			}
			if raw[i+1] != SyncByte {
				return nil, -1, true
			}
			i++
		}
		body = append(body, b)
		i++
	}
	return body, i, true
}
