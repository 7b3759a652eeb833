package report

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"squitter/internal/adsb"
	"squitter/internal/beast"
)

// Writer delivers accepted headers to an output stream and an optional echo
type Writer struct {
	format Format
	out    io.Writer
	echo   io.Writer
	beast  *beast.Encoder
	logger *logrus.Logger

	mu      sync.Mutex
	written uint64
}

// NewWriter creates a report writer. echo may be nil; when set it always
// receives the text rendering.
func NewWriter(format Format, out, echo io.Writer, logger *logrus.Logger) *Writer {
	w := &Writer{
		format: format,
		out:    out,
		echo:   echo,
		logger: logger,
	}
	if format == FormatBeast {
		w.beast = beast.NewEncoder(out)
	}
	return w
}

// Begin marks the start of a run. Only the text format carries the marker line
// so avr and beast files stay parseable by other tools.
func (w *Writer) Begin(runID uuid.UUID, source string, started time.Time) error {
	line := fmt.Sprintf("# squitter run %s source=%s started=%s\n",
		runID, source, started.UTC().Format(time.RFC3339))

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.echo != nil {
		if _, err := io.WriteString(w.echo, line); err != nil {
			return fmt.Errorf("failed to write run marker: %w", err)
		}
	}
	if w.format != FormatText {
		return nil
	}
	if _, err := io.WriteString(w.out, line); err != nil {
		return fmt.Errorf("failed to write run marker: %w", err)
	}
	return nil
}

// Report writes one accepted header
func (w *Writer) Report(h adsb.Header) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	var err error
	switch w.format {
	case FormatAVR:
		_, err = io.WriteString(w.out, AVR(h))
	case FormatBeast:
		err = w.beast.Write(beast.FromHeader(h))
	default:
		_, err = io.WriteString(w.out, Text(h))
	}
	if err != nil {
		return fmt.Errorf("failed to write %s report: %w", w.format, err)
	}

	if w.echo != nil {
		if _, err := io.WriteString(w.echo, Text(h)); err != nil {
			w.logger.WithError(err).Debug("Failed to echo report")
		}
	}

	w.written++
	w.logger.WithFields(logrus.Fields{
		"icao":   h.ICAO.String(),
		"df":     h.DF,
		"tc":     h.TypeCode(),
		"offset": h.Offset,
	}).Debug("Reported frame")

	return nil
}

// Written returns the number of headers written so far
func (w *Writer) Written() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.written
}
