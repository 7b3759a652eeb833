//go:build !cgo

package rtlsdr

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

// Device is a stand-in used when the binary is built without cgo
type Device struct{}

// NewDevice always fails: librtlsdr cannot be linked without cgo
func NewDevice(index, chunkSize int, logger *logrus.Logger) (*Device, error) {
	return nil, fmt.Errorf("%w: RTL-SDR support requires a cgo build", ErrNoDevice)
}

// Configure returns an error for stub implementation
func (d *Device) Configure(frequency, sampleRate uint32, gain int) error {
	return fmt.Errorf("RTL-SDR hardware support is not available in this build")
}

// NextChunk returns an error for stub implementation
func (d *Device) NextChunk(ctx context.Context) ([]byte, error) {
	return nil, fmt.Errorf("RTL-SDR hardware support is not available in this build")
}

// Close is a no-op for stub implementation
func (d *Device) Close() error {
	return nil
}
