package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"squitter/internal/adsb"
	"squitter/internal/stream"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// values gathers every counter and gauge, keyed by name plus the reason label when present
func values(t *testing.T, c *Collector) map[string]float64 {
	t.Helper()
	families, err := c.Registry().Gather()
	require.NoError(t, err)

	out := make(map[string]float64)
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			key := mf.GetName()
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "reason" {
					key += "/" + lp.GetValue()
				}
			}
			switch {
			case m.GetCounter() != nil:
				out[key] = m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				out[key] = m.GetGauge().GetValue()
			case m.GetHistogram() != nil:
				out[key] = float64(m.GetHistogram().GetSampleCount())
			}
		}
	}
	return out
}

func TestCollector_ObserveCycle(t *testing.T) {
	c := NewCollector(nil, testLogger())

	c.ObserveCycle(stream.Cycle{Samples: 1000, Candidates: 3, Accepted: 1, Duration: time.Millisecond})
	c.ObserveCycle(stream.Cycle{Samples: 500, Candidates: 0, Accepted: 0, Duration: time.Millisecond})

	v := values(t, c)
	assert.Equal(t, 2.0, v["squitter_chunks_total"])
	assert.Equal(t, 1500.0, v["squitter_samples_total"])
	assert.Equal(t, 3.0, v["squitter_preamble_candidates_total"])
	assert.Equal(t, 1.0, v["squitter_frames_accepted_total"])
	assert.Equal(t, 2.0, v["squitter_cycle_duration_seconds"])
	assert.Greater(t, v["squitter_last_cycle_timestamp"], 0.0)

	_, ok := v["squitter_candidates_rejected_total/crc"]
	assert.False(t, ok, "no decoder, no rejection counters")
}

func TestCollector_DecoderRejections(t *testing.T) {
	decoder := adsb.NewDecoder(adsb.OnlyDF(17), testLogger())
	c := NewCollector(decoder, testLogger())

	// a window of silence is no frame; Decode still counts it as a preamble and a
	// Manchester failure
	_, err := decoder.Decode(make([]uint16, adsb.PacketSymbols), 0)
	require.ErrorIs(t, err, adsb.ErrAmbiguousSymbol)

	v := values(t, c)
	assert.Equal(t, 1.0, v["squitter_candidates_rejected_total/ambiguous"])
	assert.Equal(t, 0.0, v["squitter_candidates_rejected_total/crc"])
	assert.Equal(t, 0.0, v["squitter_candidates_rejected_total/filtered"])
}

func TestCollector_Handler(t *testing.T) {
	c := NewCollector(nil, testLogger())
	c.ObserveCycle(stream.Cycle{Samples: 42, Accepted: 2})

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), "squitter_samples_total 42")
	assert.Contains(t, rec.Body.String(), "squitter_frames_accepted_total 2")
}
