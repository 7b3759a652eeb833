package source

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// drain reads every chunk from a source and returns them concatenated
func drain(t *testing.T, next func(context.Context) ([]byte, error)) ([]byte, int) {
	t.Helper()
	var out []byte
	chunks := 0
	for {
		chunk, err := next(context.Background())
		if err == io.EOF {
			return out, chunks
		}
		require.NoError(t, err)
		out = append(out, chunk...)
		chunks++
	}
}

func sampleData(n int) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(i * 7)
	}
	return data
}

func TestBytes(t *testing.T) {
	tests := []struct {
		name      string
		size      int
		chunkSize int
		chunks    int
	}{
		{name: "Empty", size: 0, chunkSize: 8, chunks: 0},
		{name: "Exact multiple", size: 32, chunkSize: 8, chunks: 4},
		{name: "Short tail", size: 34, chunkSize: 8, chunks: 5},
		{name: "Default chunk size", size: 10, chunkSize: 0, chunks: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := sampleData(tt.size)
			out, chunks := drain(t, NewBytes(data, tt.chunkSize).NextChunk)
			assert.Equal(t, tt.chunks, chunks)
			assert.Equal(t, len(data), len(out))
			if len(data) > 0 {
				assert.Equal(t, data, out)
			}
		})
	}
}

func TestBytes_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewBytes(sampleData(4), 2).NextChunk(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFile(t *testing.T) {
	data := sampleData(10000)
	dir := t.TempDir()

	plain := filepath.Join(dir, "capture.bin")
	require.NoError(t, os.WriteFile(plain, data, 0644))

	var gzBuf bytes.Buffer
	gz := gzip.NewWriter(&gzBuf)
	_, err := gz.Write(data)
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	gzPath := filepath.Join(dir, "capture.bin.gz")
	require.NoError(t, os.WriteFile(gzPath, gzBuf.Bytes(), 0644))

	enc, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	zstPath := filepath.Join(dir, "capture.bin.zst")
	require.NoError(t, os.WriteFile(zstPath, enc.EncodeAll(data, nil), 0644))
	require.NoError(t, enc.Close())

	for _, path := range []string{plain, gzPath, zstPath} {
		t.Run(filepath.Base(path), func(t *testing.T) {
			src, err := OpenFile(path, 4096, testLogger())
			require.NoError(t, err)
			defer src.Close()

			out, chunks := drain(t, src.NextChunk)
			assert.Equal(t, 3, chunks)
			assert.Equal(t, data, out)
			assert.Equal(t, int64(len(data)), src.BytesRead())
		})
	}
}

func TestFile_Errors(t *testing.T) {
	_, err := OpenFile(filepath.Join(t.TempDir(), "missing.bin"), 0, testLogger())
	assert.Error(t, err)

	bogus := filepath.Join(t.TempDir(), "bogus.gz")
	require.NoError(t, os.WriteFile(bogus, []byte("not gzip at all"), 0644))
	_, err = OpenFile(bogus, 0, testLogger())
	assert.Error(t, err)
}
