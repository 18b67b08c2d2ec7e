package rtp

import (
	"bytes"
	"io"
	"testing"

	"github.com/pion/rtp"
	"github.com/stretchr/testify/require"
)

func packet(seq uint16, payload ...byte) *rtp.Packet {
	return &rtp.Packet{
		Header:  rtp.Header{Version: 2, PayloadType: 96, SequenceNumber: seq, Timestamp: 3000, SSRC: 1},
		Payload: payload,
	}
}

func interleaved(t *testing.T, channel uint8, pkt *rtp.Packet) []byte {
	t.Helper()

	b, err := pkt.Marshal()
	require.NoError(t, err)
	return append([]byte{'$', channel, byte(len(b) >> 8), byte(len(b))}, b...)
}

func TestReader(t *testing.T) {
	t.Parallel()

	var capture []byte
	capture = append(capture, interleaved(t, 0, packet(10, 0x65, 0x88))...)
	// RTCP receiver report on the control channel, then on the data channel
	capture = append(capture, '$', 1, 0, 8, 0x81, 201, 0, 1, 0, 0, 0, 1)
	capture = append(capture, '$', 0, 0, 8, 0x81, 201, 0, 1, 0, 0, 0, 1)
	capture = append(capture, interleaved(t, 0, packet(11, 0x41, 0x9A))...)

	r := NewReader(bytes.NewReader(capture), 0)
	pkt, err := r.ReadPacket()
	require.NoError(t, err)
	require.Equal(t, uint16(10), pkt.SequenceNumber)
	require.Equal(t, uint8(96), pkt.PayloadType)
	require.Equal(t, []byte{0x65, 0x88}, pkt.Payload)

	pkt, err = r.ReadPacket()
	require.NoError(t, err)
	require.Equal(t, uint16(11), pkt.SequenceNumber)

	_, err = r.ReadPacket()
	require.ErrorIs(t, err, io.EOF)
}

func TestReaderErrors(t *testing.T) {
	t.Parallel()

	_, err := NewReader(bytes.NewReader([]byte{'#', 0, 0, 1, 0}), 0).ReadPacket()
	require.ErrorIs(t, err, ErrBadInterleavedFrame)

	_, err = NewReader(bytes.NewReader([]byte{'$', 0, 0, 20, 0x80}), 0).ReadPacket()
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestH264Depacketizer(t *testing.T) {
	t.Parallel()

	t.Run("single nal unit", func(t *testing.T) {
		t.Parallel()

		var d H264Depacketizer
		nalus, err := d.Depacketize(packet(1, 0x67, 0x42, 0x00))
		require.NoError(t, err)
		require.Equal(t, [][]byte{{0x67, 0x42, 0x00}}, nalus)
	})

	t.Run("stap-a", func(t *testing.T) {
		t.Parallel()

		var d H264Depacketizer
		nalus, err := d.Depacketize(packet(1, 0x18, 0x00, 0x02, 0x67, 0x42, 0x00, 0x01, 0x68))
		require.NoError(t, err)
		require.Equal(t, [][]byte{{0x67, 0x42}, {0x68}}, nalus)

		_, err = d.Depacketize(packet(2, 0x18, 0x00, 0x05, 0x67))
		require.ErrorIs(t, err, ErrShortPayload)
	})

	t.Run("fu-a", func(t *testing.T) {
		t.Parallel()

		var d H264Depacketizer
		nalus, err := d.Depacketize(packet(1, 0x7C, 0x85, 0x01, 0x02))
		require.NoError(t, err)
		require.Empty(t, nalus)
		nalus, err = d.Depacketize(packet(2, 0x7C, 0x05, 0x03))
		require.NoError(t, err)
		require.Empty(t, nalus)
		nalus, err = d.Depacketize(packet(3, 0x7C, 0x45, 0x04))
		require.NoError(t, err)
		require.Equal(t, [][]byte{{0x65, 0x01, 0x02, 0x03, 0x04}}, nalus)
	})

	t.Run("fu-a loss", func(t *testing.T) {
		t.Parallel()

		var d H264Depacketizer
		_, err := d.Depacketize(packet(1, 0x7C, 0x85, 0x01))
		require.NoError(t, err)
		nalus, err := d.Depacketize(packet(3, 0x7C, 0x45, 0x04))
		require.NoError(t, err)
		require.Empty(t, nalus)
	})

	t.Run("empty", func(t *testing.T) {
		t.Parallel()

		var d H264Depacketizer
		_, err := d.Depacketize(packet(1))
		require.ErrorIs(t, err, ErrShortPayload)
	})
}

func TestAV1Depacketizer(t *testing.T) {
	t.Parallel()

	t.Run("length prefixed elements", func(t *testing.T) {
		t.Parallel()

		var d AV1Depacketizer
		obus, err := d.Depacketize(packet(1, 0x08, 0x01, 0x10, 0x02, 0x30, 0xAA))
		require.NoError(t, err)
		require.Equal(t, [][]byte{{0x10}, {0x30, 0xAA}}, obus)
	})

	t.Run("counted elements", func(t *testing.T) {
		t.Parallel()

		var d AV1Depacketizer
		// W=2: the second element runs to the end of the payload
		obus, err := d.Depacketize(packet(1, 0x20, 0x01, 0x10, 0x30, 0xAA, 0xBB))
		require.NoError(t, err)
		require.Equal(t, [][]byte{{0x10}, {0x30, 0xAA, 0xBB}}, obus)

		_, err = d.Depacketize(packet(2, 0x20, 0x05, 0x10))
		require.ErrorIs(t, err, ErrShortPayload)
	})

	t.Run("fragmented", func(t *testing.T) {
		t.Parallel()

		var d AV1Depacketizer
		obus, err := d.Depacketize(packet(1, 0x60, 0x01, 0x10, 0x30, 0xAA))
		require.NoError(t, err)
		require.Equal(t, [][]byte{{0x10}}, obus)

		obus, err = d.Depacketize(packet(2, 0xD0, 0xBB))
		require.NoError(t, err)
		require.Empty(t, obus)

		obus, err = d.Depacketize(packet(3, 0x90, 0xCC))
		require.NoError(t, err)
		require.Equal(t, [][]byte{{0x30, 0xAA, 0xBB, 0xCC}}, obus)
	})

	t.Run("fragment lost", func(t *testing.T) {
		t.Parallel()

		var d AV1Depacketizer
		_, err := d.Depacketize(packet(1, 0x50, 0x30, 0xAA))
		require.NoError(t, err)
		obus, err := d.Depacketize(packet(3, 0xA0, 0x01, 0xCC, 0x12))
		require.NoError(t, err)
		require.Equal(t, [][]byte{{0x12}}, obus)
	})
}
