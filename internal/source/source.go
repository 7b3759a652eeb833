// Package source provides the chunked I/Q sample sources consumed by the pipeline.
package source

import (
	"context"
	"io"
)

// DefaultChunkSize is the number of bytes read per chunk (128K I/Q pairs)
const DefaultChunkSize = 256 * 1024

// Bytes serves an in-memory I/Q buffer in fixed-size chunks
type Bytes struct {
	data      []byte
	chunkSize int
	offset    int
}

// NewBytes creates a source over data. chunkSize <= 0 uses DefaultChunkSize.
func NewBytes(data []byte, chunkSize int) *Bytes {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Bytes{data: data, chunkSize: chunkSize}
}

// NextChunk returns the next slice of at most chunkSize bytes, or io.EOF
func (b *Bytes) NextChunk(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if b.offset >= len(b.data) {
		return nil, io.EOF
	}
	end := min(b.offset+b.chunkSize, len(b.data))
	chunk := b.data[b.offset:end]
	b.offset = end
	return chunk, nil
}
