package byteoffset

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/difftbx/pkg/errors"
)

func TestCompressKnownVectors(t *testing.T) {
	tests := []struct {
		name string
		in   []int32
		want []byte
	}{
		{
			name: "empty",
			in:   nil,
			want: []byte{},
		},
		{
			name: "single zero",
			in:   []int32{0},
			want: []byte{0x00},
		},
		{
			name: "small deltas",
			in:   []int32{1, 2, 3},
			want: []byte{0x01, 0x01, 0x01},
		},
		{
			name: "extremes of 8-bit range",
			in:   []int32{0, 127, 0},
			want: []byte{0x00, 0x7f, 0x81},
		},
		{
			name: "escape to 16-bit",
			in:   []int32{0, 128},
			want: []byte{0x00, 0x80, 0x80, 0x00},
		},
		{
			name: "negative 16-bit delta",
			in:   []int32{0, -128},
			want: []byte{0x00, 0x80, 0x80, 0xff},
		},
		{
			name: "escape to 32-bit",
			in:   []int32{0, 32768},
			want: []byte{0x00, 0x80, 0x00, 0x80, 0x00, 0x80, 0x00, 0x00},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compress(tt.in)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		in   []int32
	}{
		{"flat", []int32{5, 5, 5, 5}},
		{"pilatus-like with flags", []int32{0, 12, 3, -1, -2, 40000, 12}},
		{"full int32 swing", []int32{math.MinInt32, math.MaxInt32, 0, math.MinInt32}},
		{"16-bit boundary walk", []int32{0, 32767, 0, -32767, 0, 32768, 0, -32768}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			packed := Compress(tt.in)
			got, err := Decompress(packed, len(tt.in))
			require.NoError(t, err)
			assert.Equal(t, tt.in, got)
		})
	}
}

func TestRoundTripRandom(t *testing.T) {
	rng := rand.New(rand.NewSource(445))

	data := make([]int32, 4096)
	for i := range data {
		switch rng.Intn(4) {
		case 0:
			data[i] = int32(rng.Intn(100))
		case 1:
			data[i] = int32(rng.Intn(100000) - 50000)
		case 2:
			data[i] = int32(rng.Uint32())
		default:
			data[i] = -1
		}
	}

	packed := Compress(data)
	got, err := Decompress(packed, len(data))
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestDecompressTruncated(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		n    int
	}{
		{"empty stream", []byte{}, 1},
		{"missing 16-bit payload", []byte{0x80, 0x01}, 1},
		{"missing 32-bit payload", []byte{0x80, 0x00, 0x80, 0x01}, 1},
		{"fewer values than asked", Compress([]int32{1, 2}), 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decompress(tt.data, tt.n)
			assert.True(t, errors.IsErrorCode(err, errors.ErrCodec), "got %v", err)
		})
	}
}

func TestDecompressZeroValues(t *testing.T) {
	got, err := Decompress(nil, 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}
