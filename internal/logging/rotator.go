// Package logging writes decoded frame reports to daily files, compressing
// each finished day with gzip.
package logging

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/sirupsen/logrus"
)

const dateLayout = "2006-01-02"

// Rotator is an io.Writer over one file per day
type Rotator struct {
	dir    string
	prefix string
	ext    string
	useUTC bool
	logger *logrus.Logger
	now    func() time.Time

	mutex       sync.Mutex
	currentFile *os.File
	currentDate string
	closed      bool
	compressing sync.WaitGroup
}

// NewRotator creates dir if needed and opens today's file, named prefix_YYYY-MM-DD.ext
func NewRotator(dir, prefix, ext string, useUTC bool, logger *logrus.Logger) (*Rotator, error) {
	return newRotator(dir, prefix, ext, useUTC, logger, time.Now)
}

func newRotator(dir, prefix, ext string, useUTC bool, logger *logrus.Logger, now func() time.Time) (*Rotator, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	r := &Rotator{
		dir:    dir,
		prefix: prefix,
		ext:    ext,
		useUTC: useUTC,
		logger: logger,
		now:    now,
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()
	if err := r.rotate(r.today()); err != nil {
		return nil, fmt.Errorf("failed to initialize output file: %w", err)
	}

	return r, nil
}

func (r *Rotator) today() string {
	now := r.now()
	if r.useUTC {
		now = now.UTC()
	}
	return now.Format(dateLayout)
}

func (r *Rotator) path(date string) string {
	return filepath.Join(r.dir, fmt.Sprintf("%s_%s%s", r.prefix, date, r.ext))
}

// Start checks for a date change every minute until ctx is done
func (r *Rotator) Start(ctx context.Context) {
	r.logger.Debug("Starting output rotator")

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.checkRotation()
		}
	}
}

func (r *Rotator) checkRotation() {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.closed {
		return
	}

	date := r.today()
	if r.currentFile != nil && date == r.currentDate {
		return
	}

	r.logger.WithFields(logrus.Fields{
		"old_date": r.currentDate,
		"new_date": date,
	}).Info("Rotating output file")

	if err := r.rotate(date); err != nil {
		r.logger.WithError(err).Error("Failed to rotate output file")
	}
}

// rotate closes the current file, schedules its compression and opens the file for date.
// Callers hold the mutex.
func (r *Rotator) rotate(date string) error {
	if r.currentFile != nil {
		if err := r.currentFile.Close(); err != nil {
			r.logger.WithError(err).Error("Failed to close old output file")
		}
		r.currentFile = nil

		if r.currentDate != date {
			old := r.path(r.currentDate)
			r.compressing.Add(1)
			go func() {
				defer r.compressing.Done()
				r.compress(old)
			}()
		}
	}

	r.currentDate = date
	name := r.path(date)
	file, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to create output file %s: %w", name, err)
	}

	r.currentFile = file

	r.logger.WithField("file", name).Info("Opened output file")
	return nil
}

// compress gzips name into name.gz and removes the original
func (r *Rotator) compress(name string) {
	target := name + ".gz"

	if _, err := os.Stat(name); os.IsNotExist(err) {
		r.logger.WithField("file", name).Debug("Output file doesn't exist, skipping compression")
		return
	}

	if err := gzipFile(name, target); err != nil {
		r.logger.WithError(err).WithField("file", name).Error("Failed to compress output file")
		_ = os.Remove(target)
		return
	}

	if err := os.Remove(name); err != nil {
		r.logger.WithError(err).WithField("file", name).Error("Failed to remove original output file")
		return
	}

	r.logger.WithField("file", target).Info("Output file compressed")
}

func gzipFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	gz := gzip.NewWriter(out)
	gz.Name = filepath.Base(src)
	gz.ModTime = time.Now()

	if _, err := io.Copy(gz, in); err != nil {
		return err
	}
	if err := gz.Close(); err != nil {
		return err
	}
	return out.Close()
}

// Write appends p to the current day's file, rotating first if the date changed
func (r *Rotator) Write(p []byte) (int, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.closed {
		return 0, fmt.Errorf("output rotator is closed")
	}

	// a nil file means the last open failed; retry it
	if date := r.today(); r.currentFile == nil || date != r.currentDate {
		if err := r.rotate(date); err != nil {
			return 0, err
		}
	}

	return r.currentFile.Write(p)
}

// CurrentFile returns the path of the file being written
func (r *Rotator) CurrentFile() string {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.currentDate == "" {
		return ""
	}
	return r.path(r.currentDate)
}

// Files lists every output file for this prefix, compressed ones included
func (r *Rotator) Files() ([]string, error) {
	files, err := filepath.Glob(filepath.Join(r.dir, r.prefix+"_*"+r.ext+"*"))
	if err != nil {
		return nil, fmt.Errorf("failed to list output files: %w", err)
	}
	return files, nil
}

// Cleanup removes output files last modified more than maxDays ago
func (r *Rotator) Cleanup(maxDays int) (int, error) {
	if maxDays <= 0 {
		return 0, fmt.Errorf("maxDays must be positive")
	}

	files, err := r.Files()
	if err != nil {
		return 0, err
	}

	cutoff := r.now().AddDate(0, 0, -maxDays)
	current := r.CurrentFile()

	removed := 0
	for _, file := range files {
		if file == current {
			continue
		}

		info, err := os.Stat(file)
		if err != nil {
			r.logger.WithError(err).WithField("file", file).Warn("Failed to stat output file")
			continue
		}

		if info.ModTime().Before(cutoff) {
			if err := os.Remove(file); err != nil {
				r.logger.WithError(err).WithField("file", file).Error("Failed to remove old output file")
				continue
			}
			removed++
		}
	}

	r.logger.WithField("count", removed).Info("Cleaned up old output files")
	return removed, nil
}

// Close closes the current file and waits for pending compressions
func (r *Rotator) Close() error {
	r.mutex.Lock()
	var err error
	r.closed = true
	if r.currentFile != nil {
		err = r.currentFile.Close()
		r.currentFile = nil
	}
	r.mutex.Unlock()

	r.compressing.Wait()
	return err
}
