package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"squitter/internal/adsb"
	"squitter/internal/app"
)

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(stdout io.Writer) *cobra.Command {
	config := app.DefaultConfig()
	var (
		configPath  string
		showVersion bool
	)

	rootCmd := &cobra.Command{
		Use:   "squitter",
		Short: "Mode S extended squitter demodulator",
		Long: `Demodulates 1090 MHz Mode S extended squitters from an RTL-SDR or a recording.

Reads interleaved unsigned 8-bit I/Q at 2 MS/s, finds preambles, decodes the
Manchester encoded 112-bit frames, validates CRC-24 and reports DF, CA, ICAO,
ME and type code for every accepted frame.

Example usage:
  squitter --input capture.bin
  squitter --source rtlsdr --gain 40 --output-dir ./frames --format avr --stdout`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVersion {
				app.ShowVersion(stdout)
				return nil
			}

			if configPath != "" {
				if err := applyConfigFile(cmd.Flags(), &config, configPath); err != nil {
					return err
				}
			}

			application := app.NewApplication(config)
			application.SetStdout(stdout)

			result, err := application.Start()
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.ErrOrStderr(), "%s frames accepted from %s samples\n",
				humanize.Comma(int64(result.Accepted)), humanize.Comma(result.Samples))
			return nil
		},
	}

	flags := rootCmd.Flags()
	flags.StringVarP(&configPath, "config", "c", "", "YAML configuration file; explicit flags override it")
	flags.StringVar(&config.Source, "source", config.Source, "Sample source: file or rtlsdr")
	flags.StringVarP(&config.InputFile, "input", "i", "", "Recording to read (.gz and .zst are decompressed)")
	flags.Uint32VarP(&config.Frequency, "frequency", "f", config.Frequency, "Frequency to tune to (Hz)")
	flags.Uint32VarP(&config.SampleRate, "sample-rate", "s", config.SampleRate, "Sample rate (Hz)")
	flags.IntVarP(&config.Gain, "gain", "g", config.Gain, "Gain in dB (0 for auto)")
	flags.IntVarP(&config.DeviceIndex, "device", "d", 0, "RTL-SDR device index")
	flags.IntVar(&config.ChunkSize, "chunk-size", config.ChunkSize, "Bytes per acquisition cycle")
	flags.IntVar(&config.FilterDF, "filter-df", config.FilterDF, "Only report this downlink format (-1 for all)")
	flags.IntVarP(&config.Workers, "workers", "w", config.Workers, "Parallel preamble scan workers")
	flags.BoolVar(&config.SuppressOverlap, "suppress-overlap", false, "Drop frames starting inside a previous frame")
	flags.BoolVar(&config.SkipMalformed, "skip-malformed", false, "Skip chunks with an odd byte count instead of failing")
	flags.StringVarP(&config.OutputDir, "output-dir", "o", "", "Directory for daily frame files (stdout if empty)")
	flags.StringVar(&config.OutputFormat, "format", config.OutputFormat, "Output format: text, avr or beast")
	flags.BoolVar(&config.Stdout, "stdout", false, "Echo reports to stdout when writing to files")
	flags.BoolVarP(&config.RotateUTC, "utc", "u", config.RotateUTC, "Use UTC dates for file rotation")
	flags.IntVar(&config.RetainDays, "retain-days", 0, "Remove frame files older than this many days (0 keeps all)")
	flags.StringVar(&config.MetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")
	flags.DurationVar(&config.StatsInterval, "stats-interval", config.StatsInterval, "Statistics log interval (0 disables)")
	flags.BoolVarP(&config.Verbose, "verbose", "v", false, "Verbose logging")
	flags.StringVar(&config.LogFormat, "log-format", config.LogFormat, "Log format: text or json")
	flags.BoolVar(&showVersion, "version", false, "Show version information")

	rootCmd.AddCommand(newSynthCmd(stdout))
	return rootCmd
}

// applyConfigFile loads path into config, then re-applies the flags set on the command line
func applyConfigFile(flags *pflag.FlagSet, config *app.Config, path string) error {
	fileConfig, err := app.LoadConfig(path)
	if err != nil {
		return err
	}

	changed := make(map[string]string)
	flags.Visit(func(f *pflag.Flag) {
		changed[f.Name] = f.Value.String()
	})

	*config = fileConfig
	for name, value := range changed {
		if err := flags.Set(name, value); err != nil {
			return fmt.Errorf("failed to re-apply flag --%s: %w", name, err)
		}
	}
	return nil
}

func newSynthCmd(stdout io.Writer) *cobra.Command {
	var (
		icao string
		out  string
		opts = app.SynthOptions{Count: 10, Gap: 1000}
	)

	cmd := &cobra.Command{
		Use:   "synth",
		Short: "Write a synthetic recording of DF17 identification frames",
		Long: `Renders CRC-valid DF17 frames as 2 MS/s unsigned 8-bit I/Q, separated by
silence, for testing the demodulator without a receiver.

Example usage:
  squitter synth --icao 4840D6 --count 100 --out capture.bin.gz`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := strconv.ParseUint(icao, 16, 24)
			if err != nil {
				return fmt.Errorf("invalid ICAO address %q: %w", icao, err)
			}
			opts.ICAO = adsb.ICAO(addr)

			n, err := app.WriteSynth(out, opts)
			if err != nil {
				return err
			}

			fmt.Fprintf(stdout, "Wrote %d frames for %s to %s (%s)\n",
				opts.Count, opts.ICAO, out, humanize.Bytes(uint64(n)))
			return nil
		},
	}

	cmd.Flags().StringVar(&icao, "icao", "4840D6", "ICAO address in hex")
	cmd.Flags().StringVar(&out, "out", "synth.bin", "Output file (.gz and .zst are compressed)")
	cmd.Flags().IntVarP(&opts.Count, "count", "n", opts.Count, "Number of frames")
	cmd.Flags().IntVar(&opts.Gap, "gap", opts.Gap, "Silent samples between frames")

	return cmd
}
