package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/sirupsen/logrus"
)

// File reads an RTL-SDR style recording (interleaved unsigned 8-bit I/Q) in
// fixed-size chunks. Recordings ending in .gz or .zst are decompressed on the fly.
type File struct {
	path      string
	chunkSize int
	logger    *logrus.Logger

	file   *os.File
	reader io.Reader
	closer func() error
	buf    []byte
	read   atomic.Int64
}

// OpenFile opens a recording for chunked reading
func OpenFile(path string, chunkSize int, logger *logrus.Logger) (*File, error) {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open recording: %w", err)
	}

	src := &File{
		path:      path,
		chunkSize: chunkSize,
		logger:    logger,
		file:      f,
		reader:    f,
		closer:    func() error { return nil },
		buf:       make([]byte, chunkSize),
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		gz, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to open gzip recording: %w", err)
		}
		src.reader = gz
		src.closer = gz.Close
	case ".zst", ".zstd":
		zr, err := zstd.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to open zstd recording: %w", err)
		}
		src.reader = zr
		src.closer = func() error { zr.Close(); return nil }
	}

	logger.WithFields(logrus.Fields{
		"file":       path,
		"chunk_size": chunkSize,
	}).Info("Opened recording")

	return src, nil
}

// NextChunk reads up to chunkSize bytes. The returned slice is reused by the next call.
func (s *File) NextChunk(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	n, err := io.ReadFull(s.reader, s.buf)
	s.read.Add(int64(n))
	switch {
	case err == nil:
		return s.buf[:n], nil
	case errors.Is(err, io.ErrUnexpectedEOF):
		return s.buf[:n], nil
	case errors.Is(err, io.EOF):
		return nil, io.EOF
	default:
		return nil, fmt.Errorf("failed to read %s: %w", s.path, err)
	}
}

// BytesRead returns the number of decompressed bytes delivered so far
func (s *File) BytesRead() int64 {
	return s.read.Load()
}

// Close releases the recording
func (s *File) Close() error {
	if err := s.closer(); err != nil {
		s.file.Close()
		return err
	}
	return s.file.Close()
}
