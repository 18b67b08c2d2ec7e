package ivf

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func fileHeader(fourcc string, frames uint32) []byte {
	b := make([]byte, 32)
	copy(b, "DKIF")
	binary.LittleEndian.PutUint16(b[6:], 32)
	copy(b[8:], fourcc)
	binary.LittleEndian.PutUint16(b[12:], 1920)
	binary.LittleEndian.PutUint16(b[14:], 1080)
	binary.LittleEndian.PutUint32(b[16:], 30)
	binary.LittleEndian.PutUint32(b[20:], 1)
	binary.LittleEndian.PutUint32(b[24:], frames)
	return b
}

func frame(pts uint64, data ...byte) []byte {
	b := make([]byte, 12, 12+len(data))
	binary.LittleEndian.PutUint32(b, uint32(len(data)))
	binary.LittleEndian.PutUint64(b[4:], pts)
	return append(b, data...)
}

func TestReader(t *testing.T) {
	t.Parallel()

	var file []byte
	file = append(file, fileHeader(FourCCAV1, 2)...)
	file = append(file, frame(0, 0x12, 0x00)...)
	file = append(file, frame(1, 0x12, 0x00, 0x32, 0x01, 0xAA)...)

	r, err := NewReader(bytes.NewReader(file), FourCCAV1)
	require.NoError(t, err)
	require.Equal(t, Header{FourCC: "AV01", Width: 1920, Height: 1080, Rate: 30, Scale: 1, NumFrames: 2}, r.Header)

	f, err := r.ReadFrame()
	require.NoError(t, err)
	require.Equal(t, &Frame{Index: 0, PTS: 0, Data: []byte{0x12, 0x00}}, f)

	f, err = r.ReadFrame()
	require.NoError(t, err)
	require.Equal(t, 1, f.Index)
	require.Equal(t, uint64(1), f.PTS)
	require.Len(t, f.Data, 5)

	_, err = r.ReadFrame()
	require.ErrorIs(t, err, io.EOF)
}

func TestReaderFourCC(t *testing.T) {
	t.Parallel()

	_, err := NewReader(bytes.NewReader(fileHeader("VP80", 0)), FourCCAV1)
	require.ErrorIs(t, err, ErrUnsupportedFourCC)

	r, err := NewReader(bytes.NewReader(fileHeader("VP80", 0)), "")
	require.NoError(t, err)
	require.Equal(t, "VP80", r.FourCC)
}

func TestReaderBadHeader(t *testing.T) {
	t.Parallel()

	b := fileHeader(FourCCAV1, 0)
	copy(b, "RIFF")
	_, err := NewReader(bytes.NewReader(b), FourCCAV1)
	require.Error(t, err)

	_, err = NewReader(bytes.NewReader(b[:16]), FourCCAV1)
	require.Error(t, err)
}

func TestReaderTruncatedFrame(t *testing.T) {
	t.Parallel()

	file := append(fileHeader(FourCCAV1, 1), frame(0, 1, 2, 3)[:13]...)
	r, err := NewReader(bytes.NewReader(file), FourCCAV1)
	require.NoError(t, err)

	_, err = r.ReadFrame()
	require.Error(t, err)
	require.NotErrorIs(t, err, io.EOF)
}
