// Package metrics exposes demodulator counters in Prometheus format.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"squitter/internal/adsb"
	"squitter/internal/stream"
)

const namespace = "squitter"

// Collector records per-cycle pipeline metrics and decoder outcomes
type Collector struct {
	registry *prometheus.Registry
	logger   *logrus.Logger

	chunksTotal     prometheus.Counter   // Cycles completed
	samplesTotal    prometheus.Counter   // Magnitudes scanned
	candidatesTotal prometheus.Counter   // Preamble matches
	acceptedTotal   prometheus.Counter   // Frames reported
	cycleDuration   prometheus.Histogram // Wall time per cycle
	lastCycle       prometheus.Gauge     // Unix timestamp of the last completed cycle
}

// NewCollector creates a collector on its own registry. decoder may be nil; when
// set its rejection counters are exported as well.
func NewCollector(decoder *adsb.Decoder, logger *logrus.Logger) *Collector {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	c := &Collector{
		registry: reg,
		logger:   logger,
		chunksTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_total",
			Help:      "Sample chunks processed",
		}),
		samplesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "samples_total",
			Help:      "I/Q samples demodulated",
		}),
		candidatesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "preamble_candidates_total",
			Help:      "Offsets matching the preamble pattern",
		}),
		acceptedTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_accepted_total",
			Help:      "Frames passing Manchester decoding, CRC and the DF filter",
		}),
		cycleDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cycle_duration_seconds",
			Help:      "Time spent demodulating and scanning one chunk",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}),
		lastCycle: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_cycle_timestamp",
			Help:      "Unix timestamp of the last completed cycle",
		}),
	}

	if decoder != nil {
		rejected := func(reason string, get func(adsb.Stats) uint64) {
			factory.NewCounterFunc(prometheus.CounterOpts{
				Namespace:   namespace,
				Name:        "candidates_rejected_total",
				Help:        "Preamble candidates discarded, by reason",
				ConstLabels: prometheus.Labels{"reason": reason},
			}, func() float64 {
				return float64(get(decoder.GetStats()))
			})
		}
		rejected("ambiguous", func(s adsb.Stats) uint64 { return s.Ambiguous })
		rejected("crc", func(s adsb.Stats) uint64 { return s.CRCMismatch })
		rejected("filtered", func(s adsb.Stats) uint64 { return s.Filtered })
	}

	return c
}

// ObserveCycle implements stream.Observer
func (c *Collector) ObserveCycle(cycle stream.Cycle) {
	c.chunksTotal.Inc()
	c.samplesTotal.Add(float64(cycle.Samples))
	c.candidatesTotal.Add(float64(cycle.Candidates))
	c.acceptedTotal.Add(float64(cycle.Accepted))
	c.cycleDuration.Observe(cycle.Duration.Seconds())
	c.lastCycle.SetToCurrentTime()
}

// Registry returns the registry holding every squitter metric
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled
func (c *Collector) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	server := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	c.logger.WithField("addr", listener.Addr().String()).Info("Serving metrics")

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve(listener)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to stop metrics server: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("metrics server failed: %w", err)
	}
}
