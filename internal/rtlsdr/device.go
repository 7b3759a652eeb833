//go:build cgo

package rtlsdr

import (
	"context"
	"errors"
	"fmt"

	rtlsdr "github.com/jpoirier/gortlsdr"
	"github.com/sirupsen/logrus"
)

// Device is an RTL-SDR dongle read synchronously, one chunk per call
type Device struct {
	device    *rtlsdr.Context
	logger    *logrus.Logger
	index     int
	isOpen    bool
	chunkSize int
	buf       []byte // chunkSize plus room for a byte carried from the last read
	pairs     pairAligner
}

// NewDevice checks that the device index exists
func NewDevice(index, chunkSize int, logger *logrus.Logger) (*Device, error) {
	count := rtlsdr.GetDeviceCount()
	if count == 0 {
		return nil, ErrNoDevice
	}

	if index < 0 || index >= count {
		return nil, fmt.Errorf("device index %d out of range (0-%d)", index, count-1)
	}
	if chunkSize <= 0 || chunkSize%ReadAlignment != 0 {
		return nil, fmt.Errorf("chunk size %d must be a positive multiple of %d", chunkSize, ReadAlignment)
	}

	return &Device{
		logger:    logger,
		index:     index,
		chunkSize: chunkSize,
		buf:       make([]byte, chunkSize+1),
	}, nil
}

// Configure opens and tunes the device. gain is in dB, 0 selects auto gain.
func (r *Device) Configure(frequency, sampleRate uint32, gain int) error {
	var err error

	r.device, err = rtlsdr.Open(r.index)
	if err != nil {
		return fmt.Errorf("failed to open device: %w", err)
	}
	r.isOpen = true

	if err := r.device.SetCenterFreq(int(frequency)); err != nil {
		return fmt.Errorf("failed to set frequency: %w", err)
	}

	if err := r.device.SetSampleRate(int(sampleRate)); err != nil {
		return fmt.Errorf("failed to set sample rate: %w", err)
	}

	if gain == 0 {
		if err := r.device.SetTunerGainMode(false); err != nil {
			return fmt.Errorf("failed to set auto gain: %w", err)
		}
	} else {
		if err := r.device.SetTunerGainMode(true); err != nil {
			return fmt.Errorf("failed to set manual gain mode: %w", err)
		}

		// tenths of dB
		if err := r.device.SetTunerGain(gain * 10); err != nil {
			return fmt.Errorf("failed to set gain: %w", err)
		}
	}

	if err := r.device.ResetBuffer(); err != nil {
		return fmt.Errorf("failed to reset buffer: %w", err)
	}

	r.logger.WithFields(logrus.Fields{
		"device_index": r.index,
		"device_name":  rtlsdr.GetDeviceName(r.index),
		"frequency":    frequency,
		"sample_rate":  sampleRate,
		"gain":         gain,
	}).Info("RTL-SDR device configured successfully")

	return nil
}

// NextChunk blocks for one chunk of samples. The slice is reused by the next call.
func (r *Device) NextChunk(ctx context.Context) ([]byte, error) {
	if !r.isOpen {
		return nil, errors.New("device not open")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for {
		off := r.pairs.prefix(r.buf)
		n, err := r.device.ReadSync(r.buf[off:off+r.chunkSize], r.chunkSize)
		if err != nil {
			return nil, fmt.Errorf("read failed: %w", err)
		}
		if n < r.chunkSize {
			r.logger.WithFields(logrus.Fields{
				"requested": r.chunkSize,
				"read":      n,
				"carried":   off,
			}).Debug("Short read from RTL-SDR")
		}

		// an empty chunk ends the stream, so a lone carried byte needs another read
		chunk := r.pairs.align(r.buf[:off+n])
		if len(chunk) > 0 || n == 0 {
			return chunk, nil
		}
	}
}

// Close closes the device
func (r *Device) Close() error {
	if r.device != nil && r.isOpen {
		if err := r.device.Close(); err != nil {
			return fmt.Errorf("failed to close device: %w", err)
		}
		r.isOpen = false
		r.logger.Info("RTL-SDR device closed")
	}

	return nil
}
