package report

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"squitter/internal/adsb"
	"squitter/internal/beast"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func knownHeader(t *testing.T) adsb.Header {
	t.Helper()
	f, err := adsb.ParseFrame("8D4840D6202CC371C32CE0576098")
	require.NoError(t, err)
	h, err := adsb.ParseHeader(f)
	require.NoError(t, err)
	h.Offset = 1234
	return h
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		ext     string
		wantErr bool
	}{
		{in: "text", want: FormatText, ext: ".log"},
		{in: "AVR", want: FormatAVR, ext: ".avr"},
		{in: "beast", want: FormatBeast, ext: ".bin"},
		{in: "sbs", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.ext, got.Extension())
		})
	}
}

func TestText(t *testing.T) {
	out := Text(knownHeader(t))

	for _, want := range []string{
		"[+] Raw hex message: 8D4840D6202CC371C32CE0576098 (offset 1234)",
		"DF: 17\t\tADS-B Message",
		"CA: 5\t\tLevel 2+ Transponder w/ ability to CA 7 airborne",
		"ICAO: 4840D6",
		"CRC: 576098\tOK!",
		"Message: 00100000001011001100001101110001110000110010110011100000",
		"Type Code: 4\t\tAircraft Identification",
	} {
		assert.Contains(t, out, want)
	}
}

func TestText_Unrecognized(t *testing.T) {
	h := knownHeader(t)
	h.ME = 0
	assert.Contains(t, Text(h), "Type Code: 0\t\tunrecognized")
}

func TestAVR(t *testing.T) {
	assert.Equal(t, "*8D4840D6202CC371C32CE0576098;\n", AVR(knownHeader(t)))
}

func TestWriter_Formats(t *testing.T) {
	h := knownHeader(t)
	runID := uuid.New()
	started := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("text", func(t *testing.T) {
		var out bytes.Buffer
		w := NewWriter(FormatText, &out, nil, testLogger())
		require.NoError(t, w.Begin(runID, "file", started))
		require.NoError(t, w.Report(h))

		assert.True(t, strings.HasPrefix(out.String(), "# squitter run "+runID.String()))
		assert.Contains(t, out.String(), "started=2024-03-01T12:00:00Z")
		assert.Contains(t, out.String(), "ICAO: 4840D6")
		assert.Equal(t, uint64(1), w.Written())
	})

	t.Run("avr", func(t *testing.T) {
		var out, echo bytes.Buffer
		w := NewWriter(FormatAVR, &out, &echo, testLogger())
		require.NoError(t, w.Begin(runID, "file", started))
		require.NoError(t, w.Report(h))
		require.NoError(t, w.Report(h))

		assert.Equal(t, strings.Repeat("*8D4840D6202CC371C32CE0576098;\n", 2), out.String())
		assert.Contains(t, echo.String(), runID.String())
		assert.Contains(t, echo.String(), "Type Code: 4")
	})

	t.Run("beast", func(t *testing.T) {
		var out bytes.Buffer
		w := NewWriter(FormatBeast, &out, nil, testLogger())
		require.NoError(t, w.Begin(runID, "rtlsdr", started))
		require.NoError(t, w.Report(h))

		messages, err := beast.NewDecoder(testLogger()).Decode(out.Bytes())
		require.NoError(t, err)
		require.Len(t, messages, 1)

		f, ok := messages[0].Frame()
		require.True(t, ok)
		assert.Equal(t, h.Raw, f)
		assert.Equal(t, uint64(1234*beast.TicksPerSample), messages[0].Timestamp)
	})
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestWriter_Errors(t *testing.T) {
	w := NewWriter(FormatAVR, failingWriter{}, nil, testLogger())
	err := w.Report(knownHeader(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, uint64(0), w.Written())

	w = NewWriter(FormatText, failingWriter{}, nil, testLogger())
	assert.Error(t, w.Begin(uuid.New(), "file", time.Now()))

	// a failing echo never fails the report
	var out bytes.Buffer
	w = NewWriter(FormatAVR, &out, failingWriter{}, testLogger())
	assert.NoError(t, w.Report(knownHeader(t)))
	assert.Equal(t, uint64(1), w.Written())
}
