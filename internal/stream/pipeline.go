package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"squitter/internal/adsb"
	"squitter/internal/iq"
)

// Source produces raw I/Q chunks. An empty chunk or io.EOF ends the stream.
type Source interface {
	NextChunk(ctx context.Context) ([]byte, error)
}

// Sink receives every accepted header, in stream order
type Sink interface {
	Report(h adsb.Header) error
}

// Cycle describes one completed acquisition cycle
type Cycle struct {
	Samples    int
	Candidates int
	Accepted   int
	Duration   time.Duration
}

// Observer is notified after every cycle
type Observer interface {
	ObserveCycle(c Cycle)
}

// Options tunes the pipeline
type Options struct {
	ChunkSamples    int  // expected I/Q pairs per chunk, used to size the window
	Workers         int  // parallel scan workers, <= 1 scans sequentially
	SuppressOverlap bool // drop accepted frames starting inside a previous frame
	SkipMalformed   bool // skip chunks violating the byte layout instead of aborting
}

// Result summarises a finished run
type Result struct {
	Chunks     uint64
	Samples    int64
	Candidates uint64
	Accepted   uint64
	Suppressed uint64
	Malformed  uint64
	Elapsed    time.Duration
}

// Pipeline drives chunks from a Source through the decoder into a Sink
type Pipeline struct {
	decoder  *adsb.Decoder
	sink     Sink
	observer Observer
	logger   *logrus.Logger
	opts     Options

	accepted   atomic.Uint64
	suppressed atomic.Uint64
}

// Progress is a live view of a running pipeline
type Progress struct {
	Accepted   uint64 // reported to the sink
	Suppressed uint64 // dropped by overlap suppression
}

// NewPipeline creates a pipeline. sink and observer may be nil.
func NewPipeline(decoder *adsb.Decoder, sink Sink, observer Observer, opts Options, logger *logrus.Logger) *Pipeline {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Pipeline{
		decoder:  decoder,
		sink:     sink,
		observer: observer,
		logger:   logger,
		opts:     opts,
	}
}

// Run consumes src until end of stream, a fatal chunk error or ctx cancellation.
// Cancellation is only checked between cycles.
func (p *Pipeline) Run(ctx context.Context, src Source) (result Result, err error) {
	start := time.Now()
	defer func() { result.Elapsed = time.Since(start) }()

	window := NewWindow(p.opts.ChunkSamples)
	var guard overlapGuard

	for {
		if err := ctx.Err(); err != nil {
			window.Close()
			result.Samples = window.Samples()
			return result, err
		}

		chunk, err := src.NextChunk(ctx)
		if errors.Is(err, io.EOF) || (err == nil && len(chunk) == 0) {
			window.Close()
			p.logger.WithField("chunks", result.Chunks).Debug("End of stream")
			break
		}
		if err != nil {
			window.Close()
			result.Samples = window.Samples()
			return result, fmt.Errorf("failed to read chunk: %w", err)
		}

		cycleStart := time.Now()
		if err := window.Load(chunk); err != nil {
			if errors.Is(err, iq.ErrMalformedChunk) && p.opts.SkipMalformed {
				result.Malformed++
				p.logger.WithError(err).WithField("chunk", result.Chunks).Warn("Skipping malformed chunk")
				continue
			}
			window.Close()
			result.Samples = window.Samples()
			return result, fmt.Errorf("chunk %d: %w", result.Chunks, err)
		}
		result.Chunks++

		headers, candidates, err := p.scan(window.Magnitudes())
		if err != nil {
			window.Close()
			result.Samples = window.Samples()
			return result, err
		}

		accepted := 0
		base := window.Base()
		for _, h := range headers {
			h.Offset += base
			if p.emit(h, &guard, &result) {
				accepted++
			}
		}

		result.Candidates += uint64(candidates)

		if p.logger.IsLevelEnabled(logrus.DebugLevel) {
			p.logger.WithFields(logrus.Fields{
				"chunk":      result.Chunks,
				"state":      window.State().String(),
				"base":       base,
				"candidates": candidates,
				"accepted":   accepted,
			}).Debug("Window scanned")
		}

		window.CarryOver()

		if p.observer != nil {
			p.observer.ObserveCycle(Cycle{
				Samples:    len(chunk) / 2,
				Candidates: candidates,
				Accepted:   accepted,
				Duration:   time.Since(cycleStart),
			})
		}
	}

	result.Samples = window.Samples()
	return result, nil
}

// Progress returns the counts of the run in progress. It is safe to call while Run
// is executing, unlike the decoder counters it also reflects overlap suppression.
func (p *Pipeline) Progress() Progress {
	return Progress{
		Accepted:   p.accepted.Load(),
		Suppressed: p.suppressed.Load(),
	}
}

// overlapGuard rejects frames starting inside the span of the last admitted frame
type overlapGuard struct {
	nextFree int64
}

func (g *overlapGuard) admit(offset int64) bool {
	if offset < g.nextFree {
		return false
	}
	g.nextFree = offset + adsb.PacketSymbols
	return true
}

// emit applies overlap suppression to a stream-offset header and reports it.
// It returns false when the header was suppressed.
func (p *Pipeline) emit(h adsb.Header, guard *overlapGuard, result *Result) bool {
	if p.opts.SuppressOverlap && !guard.admit(h.Offset) {
		result.Suppressed++
		p.suppressed.Add(1)
		return false
	}
	result.Accepted++
	p.accepted.Add(1)
	p.report(h)
	return true
}

func (p *Pipeline) report(h adsb.Header) {
	if p.sink == nil {
		return
	}
	if err := p.sink.Report(h); err != nil {
		p.logger.WithError(err).WithField("icao", h.ICAO.String()).Warn("Failed to report frame")
	}
}

// scan finds and decodes every candidate in m. Headers come back in ascending
// window offset order whatever the number of workers.
func (p *Pipeline) scan(m []uint16) ([]adsb.Header, int, error) {
	limit := adsb.ScanLimit(len(m))
	workers := p.opts.Workers
	if workers > 1 && limit < workers*adsb.PacketSymbols {
		workers = 1
	}

	if workers == 1 {
		headers, candidates := p.scanRange(m, 0, limit)
		return headers, candidates, nil
	}

	type part struct {
		headers    []adsb.Header
		candidates int
	}
	parts := make([]part, workers)
	step := (limit + workers - 1) / workers

	var g errgroup.Group
	for w := 0; w < workers; w++ {
		lo, hi := w*step, min((w+1)*step, limit)
		g.Go(func() error {
			headers, candidates := p.scanRange(m, lo, hi)
			parts[w] = part{headers: headers, candidates: candidates}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, fmt.Errorf("scan failed: %w", err)
	}

	var headers []adsb.Header
	candidates := 0
	for _, pt := range parts {
		headers = append(headers, pt.headers...)
		candidates += pt.candidates
	}
	return headers, candidates, nil
}

// scanRange decodes candidates at offsets [lo, hi) of m. Every candidate reads its
// own PacketSymbols lookahead, which lies inside m.
func (p *Pipeline) scanRange(m []uint16, lo, hi int) ([]adsb.Header, int) {
	var headers []adsb.Header
	candidates := 0

	adsb.ScanPreambles(m, lo, hi, func(offset int) bool {
		candidates++
		h, err := p.decoder.Decode(m, offset)
		if err == nil {
			headers = append(headers, h)
		}
		return true
	})

	return headers, candidates
}
