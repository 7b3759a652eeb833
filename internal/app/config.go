package app

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"squitter/internal/report"
	"squitter/internal/rtlsdr"
	"squitter/internal/source"
)

// Default configuration constants
const (
	DefaultFrequency     = 1090000000 // 1090 MHz
	DefaultSampleRate    = 2000000    // 2 MS/s, one sample per half microsecond symbol
	DefaultGain          = 0          // auto gain
	DefaultFilterDF      = 17
	DefaultStatsInterval = 30 * time.Second
)

// Source kinds
const (
	SourceFile   = "file"
	SourceRTLSDR = "rtlsdr"
)

// Config holds application configuration
type Config struct {
	Source      string `yaml:"source"`
	InputFile   string `yaml:"input_file"`
	Frequency   uint32 `yaml:"frequency"`
	SampleRate  uint32 `yaml:"sample_rate"`
	Gain        int    `yaml:"gain"`
	DeviceIndex int    `yaml:"device_index"`
	ChunkSize   int    `yaml:"chunk_size"`

	FilterDF        int  `yaml:"filter_df"` // negative accepts every downlink format
	Workers         int  `yaml:"workers"`
	SuppressOverlap bool `yaml:"suppress_overlap"`
	SkipMalformed   bool `yaml:"skip_malformed"`

	OutputDir    string `yaml:"output_dir"` // empty writes reports to stdout only
	OutputFormat string `yaml:"output_format"`
	Stdout       bool   `yaml:"stdout"`
	RotateUTC    bool   `yaml:"rotate_utc"`
	RetainDays   int    `yaml:"retain_days"`

	MetricsAddr   string        `yaml:"metrics_addr"`
	StatsInterval time.Duration `yaml:"stats_interval"`
	Verbose       bool          `yaml:"verbose"`
	LogFormat     string        `yaml:"log_format"`
}

// DefaultConfig returns the configuration used when no file or flag overrides it
func DefaultConfig() Config {
	return Config{
		Source:        SourceFile,
		Frequency:     DefaultFrequency,
		SampleRate:    DefaultSampleRate,
		Gain:          DefaultGain,
		ChunkSize:     source.DefaultChunkSize,
		FilterDF:      DefaultFilterDF,
		Workers:       1,
		OutputFormat:  string(report.FormatText),
		RotateUTC:     true,
		StatsInterval: DefaultStatsInterval,
		LogFormat:     "text",
	}
}

// LoadConfig reads a YAML file on top of DefaultConfig
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// Validate checks the configuration for values the pipeline cannot run with
func (c Config) Validate() error {
	switch c.Source {
	case SourceFile:
		if c.InputFile == "" {
			return fmt.Errorf("file source requires an input file")
		}
	case SourceRTLSDR:
		if c.ChunkSize%rtlsdr.ReadAlignment != 0 {
			return fmt.Errorf("chunk size %d must be a multiple of %d for rtlsdr", c.ChunkSize, rtlsdr.ReadAlignment)
		}
	default:
		return fmt.Errorf("unknown source %q (want %s or %s)", c.Source, SourceFile, SourceRTLSDR)
	}

	if c.SampleRate != DefaultSampleRate {
		return fmt.Errorf("sample rate must be %d, got %d", DefaultSampleRate, c.SampleRate)
	}
	if c.ChunkSize <= 0 || c.ChunkSize%2 != 0 {
		return fmt.Errorf("chunk size must be a positive even number of bytes, got %d", c.ChunkSize)
	}
	if c.FilterDF > 31 {
		return fmt.Errorf("filter DF must be between 0 and 31 or negative to disable, got %d", c.FilterDF)
	}
	if c.Gain < 0 {
		return fmt.Errorf("gain must not be negative, got %d", c.Gain)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	if _, err := report.ParseFormat(c.OutputFormat); err != nil {
		return err
	}
	if c.RetainDays < 0 {
		return fmt.Errorf("retain days must not be negative, got %d", c.RetainDays)
	}
	if c.StatsInterval < 0 {
		return fmt.Errorf("stats interval must not be negative, got %s", c.StatsInterval)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("unknown log format %q (want text or json)", c.LogFormat)
	}

	return nil
}
