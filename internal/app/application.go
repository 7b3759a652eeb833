package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"squitter/internal/adsb"
	"squitter/internal/logging"
	"squitter/internal/metrics"
	"squitter/internal/report"
	"squitter/internal/rtlsdr"
	"squitter/internal/source"
	"squitter/internal/stream"
)

// Application wires a sample source through the demodulation pipeline into
// the report writer
type Application struct {
	config Config
	logger *logrus.Logger
	runID  uuid.UUID
	stdout io.Writer

	decoder *adsb.Decoder
	rotator *logging.Rotator
}

// NewApplication creates a new application instance
func NewApplication(config Config) *Application {
	logger := logrus.New()
	if config.Verbose {
		logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}
	if config.LogFormat == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	return &Application{
		config: config,
		logger: logger,
		runID:  uuid.New(),
		stdout: os.Stdout,
	}
}

// Logger returns the application logger
func (app *Application) Logger() *logrus.Logger {
	return app.logger
}

// SetStdout redirects reports and echo written to standard output
func (app *Application) SetStdout(w io.Writer) {
	app.stdout = w
}

// Start runs until the stream ends or SIGINT/SIGTERM is received
func (app *Application) Start() (stream.Result, error) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return app.Run(ctx)
}

// Run demodulates the configured source until it is exhausted or ctx is cancelled.
// Cancellation is a normal shutdown and is not reported as an error.
func (app *Application) Run(ctx context.Context) (stream.Result, error) {
	if err := app.config.Validate(); err != nil {
		return stream.Result{}, fmt.Errorf("invalid configuration: %w", err)
	}

	app.logger.WithFields(logrus.Fields{
		"version":    Version,
		"build_time": BuildTime,
		"git_commit": GitCommit,
		"run_id":     app.runID.String(),
	}).Info("Starting squitter")

	src, closeSource, err := app.openSource()
	if err != nil {
		return stream.Result{}, fmt.Errorf("failed to open source: %w", err)
	}
	defer func() {
		if err := closeSource(); err != nil {
			app.logger.WithError(err).Warn("Failed to close source")
		}
	}()

	writer, err := app.openReport()
	if err != nil {
		return stream.Result{}, err
	}
	if app.rotator != nil {
		defer func() {
			if err := app.rotator.Close(); err != nil {
				app.logger.WithError(err).Warn("Failed to close output file")
			}
		}()
	}

	app.decoder = adsb.NewDecoder(adsb.FilterFromInt(app.config.FilterDF), app.logger)
	collector := metrics.NewCollector(app.decoder, app.logger)

	pipeline := stream.NewPipeline(app.decoder, writer, collector, stream.Options{
		ChunkSamples:    app.config.ChunkSize / 2,
		Workers:         app.config.Workers,
		SuppressOverlap: app.config.SuppressOverlap,
		SkipMalformed:   app.config.SkipMalformed,
	}, app.logger)

	if err := writer.Begin(app.runID, app.config.Source, time.Now()); err != nil {
		return stream.Result{}, err
	}

	app.logger.WithFields(logrus.Fields{
		"source":  app.config.Source,
		"filter":  app.decoder.Filter().String(),
		"workers": app.config.Workers,
		"format":  app.config.OutputFormat,
	}).Info("Demodulation started")

	runCtx, stop := context.WithCancel(ctx)
	defer stop()
	g, gctx := errgroup.WithContext(runCtx)

	var result stream.Result
	g.Go(func() error {
		defer stop()
		var err error
		result, err = pipeline.Run(gctx, src)
		return err
	})

	if app.rotator != nil {
		g.Go(func() error {
			app.rotator.Start(gctx)
			return nil
		})
	}

	if app.config.MetricsAddr != "" {
		g.Go(func() error {
			return collector.Serve(gctx, app.config.MetricsAddr)
		})
	}

	if app.config.StatsInterval > 0 {
		g.Go(func() error {
			app.reportStatistics(gctx, src, pipeline)
			return nil
		})
	}

	err = g.Wait()
	if err != nil && errors.Is(err, context.Canceled) && ctx.Err() != nil {
		app.logger.Info("Received shutdown signal")
		err = nil
	}

	app.logSummary(result)
	return result, err
}

// openSource returns the configured sample source and its cleanup function
func (app *Application) openSource() (stream.Source, func() error, error) {
	switch app.config.Source {
	case SourceRTLSDR:
		device, err := rtlsdr.NewDevice(app.config.DeviceIndex, app.config.ChunkSize, app.logger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize RTL-SDR: %w", err)
		}
		if err := device.Configure(app.config.Frequency, app.config.SampleRate, app.config.Gain); err != nil {
			device.Close()
			return nil, nil, fmt.Errorf("failed to configure RTL-SDR: %w", err)
		}
		return device, device.Close, nil

	default:
		file, err := source.OpenFile(app.config.InputFile, app.config.ChunkSize, app.logger)
		if err != nil {
			return nil, nil, err
		}
		return file, file.Close, nil
	}
}

// openReport builds the report writer. With an output directory reports go to
// the daily file and stdout echoes the text form on request; without one they
// go to stdout in the configured format.
func (app *Application) openReport() (*report.Writer, error) {
	format, err := report.ParseFormat(app.config.OutputFormat)
	if err != nil {
		return nil, err
	}

	if app.config.OutputDir == "" {
		return report.NewWriter(format, app.stdout, nil, app.logger), nil
	}

	app.rotator, err = logging.NewRotator(app.config.OutputDir, "frames", format.Extension(), app.config.RotateUTC, app.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize output rotator: %w", err)
	}

	if app.config.RetainDays > 0 {
		if _, err := app.rotator.Cleanup(app.config.RetainDays); err != nil {
			app.logger.WithError(err).Warn("Failed to clean up old output files")
		}
	}

	var echo io.Writer
	if app.config.Stdout {
		echo = app.stdout
	}
	return report.NewWriter(format, app.rotator, echo, app.logger), nil
}

// reportStatistics logs decoder counters periodically
func (app *Application) reportStatistics(ctx context.Context, src stream.Source, pipeline *stream.Pipeline) {
	ticker := time.NewTicker(app.config.StatsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			app.logger.WithFields(app.statisticsFields(src, pipeline)).Info("Demodulation statistics")
		}
	}
}

// statisticsFields merges decoder rejection counters with the pipeline's own
// accepted count, which excludes frames dropped by overlap suppression
func (app *Application) statisticsFields(src stream.Source, pipeline *stream.Pipeline) logrus.Fields {
	stats := app.decoder.GetStats()
	progress := pipeline.Progress()

	fields := logrus.Fields{
		"preambles":    humanize.Comma(int64(stats.Preambles)),
		"ambiguous":    humanize.Comma(int64(stats.Ambiguous)),
		"crc_mismatch": humanize.Comma(int64(stats.CRCMismatch)),
		"filtered":     humanize.Comma(int64(stats.Filtered)),
		"accepted":     humanize.Comma(int64(progress.Accepted)),
	}
	if progress.Suppressed > 0 {
		fields["suppressed"] = humanize.Comma(int64(progress.Suppressed))
	}
	if file, ok := src.(*source.File); ok {
		fields["read"] = humanize.Bytes(uint64(file.BytesRead()))
	}
	return fields
}

func (app *Application) logSummary(result stream.Result) {
	var rate float64
	if secs := result.Elapsed.Seconds(); secs > 0 {
		rate = float64(result.Samples) / secs
	}

	fields := logrus.Fields{
		"run_id":     app.runID.String(),
		"chunks":     humanize.Comma(int64(result.Chunks)),
		"samples":    humanize.Comma(result.Samples),
		"candidates": humanize.Comma(int64(result.Candidates)),
		"accepted":   humanize.Comma(int64(result.Accepted)),
		"elapsed":    result.Elapsed.Round(time.Millisecond).String(),
		"rate":       humanize.SI(rate, "S/s"),
	}
	if result.Suppressed > 0 {
		fields["suppressed"] = result.Suppressed
	}
	if result.Malformed > 0 {
		fields["malformed"] = result.Malformed
	}
	if app.rotator != nil {
		fields["output"] = app.rotator.CurrentFile()
	}

	app.logger.WithFields(fields).Info("Demodulation finished")
}
