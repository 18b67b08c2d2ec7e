package nal

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplitAnnexB(t *testing.T) {
	t.Parallel()

	stream := []byte{
		0xFF,                   // garbage before the first start code
		0x00, 0x00, 0x00, 0x01, 0x67, 0x64, 0x00,
		0x00, 0x00, 0x01, 0x68, 0xEE,
		0x00, 0x00, 0x00, 0x01, 0x65, 0x88, 0x00, 0x00, // trailing zeros
	}
	nalus := SplitAnnexB(stream)
	require.Equal(t, [][]byte{
		{0x67, 0x64},
		{0x68, 0xEE},
		{0x65, 0x88},
	}, nalus)
}

func TestSplitAnnexBLongStream(t *testing.T) {
	t.Parallel()

	var (
		stream []byte
		want   [][]byte
	)
	for i := range 64 {
		u := []byte{0x41, byte(i) | 0x80}
		stream = append(append(stream, 0x00, 0x00, 0x01), u...)
		want = append(want, u)
	}
	require.Equal(t, want, SplitAnnexB(stream))

	// an empty unit between two start codes is skipped
	require.Equal(t, [][]byte{{0x09, 0xF0}, {0x68}},
		SplitAnnexB([]byte{0x00, 0x00, 0x01, 0x09, 0xF0, 0x00, 0x00, 0x01, 0x00, 0x00, 0x01, 0x68}))
}

func TestSplitNALUs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		data   []byte
		nalus  [][]byte
		format Format
	}{
		{
			name:   "short",
			data:   []byte{0x09, 0xF0},
			nalus:  [][]byte{{0x09, 0xF0}},
			format: FormatRaw,
		},
		{
			name:   "annexb",
			data:   []byte{0x00, 0x00, 0x01, 0x09, 0xF0, 0x00, 0x00, 0x01, 0x68, 0xCE},
			nalus:  [][]byte{{0x09, 0xF0}, {0x68, 0xCE}},
			format: FormatAnnexB,
		},
		{
			name:   "avcc",
			data:   []byte{0x00, 0x00, 0x00, 0x02, 0x09, 0xF0, 0x00, 0x00, 0x00, 0x01, 0x0C},
			nalus:  [][]byte{{0x09, 0xF0}, {0x0C}},
			format: FormatAVCC,
		},
		{
			name:   "avcc salvage",
			data:   []byte{0x00, 0x00, 0x00, 0x01, 0x09, 0x00, 0x00, 0x00, 0x09, 0x41, 0x9A},
			nalus:  [][]byte{{0x09}, {0x41, 0x9A}},
			format: FormatAVCC,
		},
		{
			name:   "raw",
			data:   []byte{0x67, 0x64, 0x00, 0x1F, 0xAC},
			nalus:  [][]byte{{0x67, 0x64, 0x00, 0x1F, 0xAC}},
			format: FormatRaw,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			nalus, format := SplitNALUs(tt.data)
			require.Equal(t, tt.format, format)
			require.Equal(t, tt.nalus, nalus)
		})
	}
}

func TestRBSP(t *testing.T) {
	t.Parallel()

	require.Equal(t,
		[]byte{0x67, 0x00, 0x00, 0x01, 0x00, 0x00, 0x02},
		RBSP([]byte{0x67, 0x00, 0x00, 0x03, 0x01, 0x00, 0x00, 0x03, 0x02}))
	require.Equal(t, []byte{0x68, 0xCE}, RBSP([]byte{0x68, 0xCE}))
}

func TestSplitAccessUnit(t *testing.T) {
	t.Parallel()

	nalus, err := SplitAccessUnit([]byte{0x00, 0x00, 0x00, 0x01, 0x09, 0xF0, 0x00, 0x00, 0x01, 0x65, 0x88})
	require.NoError(t, err)
	require.Equal(t, [][]byte{{0x09, 0xF0}, {0x65, 0x88}}, nalus)

	nalus, err = SplitAVCC([]byte{0x00, 0x00, 0x00, 0x02, 0x09, 0xF0})
	require.NoError(t, err)
	require.Equal(t, [][]byte{{0x09, 0xF0}}, nalus)
}
