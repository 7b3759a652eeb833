package rtlsdr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPairAligner(t *testing.T) {
	tests := []struct {
		name  string
		reads [][]byte
		want  [][]byte
	}{
		{
			name:  "Even reads pass through",
			reads: [][]byte{{1, 2, 3, 4}, {5, 6}},
			want:  [][]byte{{1, 2, 3, 4}, {5, 6}},
		},
		{
			name:  "Odd byte starts the next chunk",
			reads: [][]byte{{1, 2, 3}, {4, 5, 6, 7}, {8}},
			want:  [][]byte{{1, 2}, {3, 4, 5, 6}, {7, 8}},
		},
		{
			name:  "Single byte reads",
			reads: [][]byte{{1}, {2}, {3}},
			want:  [][]byte{{}, {1, 2}, {}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var a pairAligner
			buf := make([]byte, 16)

			require.Len(t, tt.want, len(tt.reads))
			for i, read := range tt.reads {
				off := a.prefix(buf)
				n := copy(buf[off:], read)
				chunk := a.align(buf[:off+n])

				assert.Equal(t, 0, len(chunk)%2, "read %d", i)
				assert.Equal(t, tt.want[i], append([]byte{}, chunk...), "read %d", i)
			}
		})
	}
}
