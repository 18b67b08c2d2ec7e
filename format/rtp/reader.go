// Package rtp depacketizes H.264 and AV1 RTP payloads into the units the
// codec decoders take, and reads RTSP interleaved captures.
package rtp

import (
	"errors"
	"fmt"
	"io"

	"github.com/pion/rtp"
	"github.com/ugparu/bitsyntax/utils/logger"
)

const (
	interleavedMagic      = '$'
	interleavedHeaderSize = 4
	rtpHeaderSize         = 12
	rtcpSenderReport      = 200
	rtcpApp               = 204
)

// ErrBadInterleavedFrame is returned when a frame does not start with '$'.
var ErrBadInterleavedFrame = errors.New("rtp: interleaved frame without '$'")

// Reader reads RTP packets of one channel from an RTSP interleaved stream:
// '$', channel, 16-bit big endian length, packet.
type Reader struct {
	rdr     io.Reader
	channel uint8
	header  [interleavedHeaderSize]byte
	buf     []byte
}

// NewReader returns a reader of the packets sent on channel.
func NewReader(r io.Reader, channel uint8) *Reader {
	return &Reader{rdr: r, channel: channel}
}

func (rd *Reader) String() string {
	return "RTP_READER"
}

// ReadPacket returns the next RTP packet of the channel. Frames of other
// channels and RTCP packets are skipped. The payload is valid until the next
// call.
func (rd *Reader) ReadPacket() (*rtp.Packet, error) {
	for {
		if _, err := io.ReadFull(rd.rdr, rd.header[:]); err != nil {
			return nil, err
		}
		if rd.header[0] != interleavedMagic {
			return nil, ErrBadInterleavedFrame
		}
		length := int(rd.header[2])<<8 | int(rd.header[3]) //nolint:mnd
		if cap(rd.buf) < length {
			rd.buf = make([]byte, length)
		}
		rd.buf = rd.buf[:length]
		if _, err := io.ReadFull(rd.rdr, rd.buf); err != nil {
			return nil, fmt.Errorf("rtp: interleaved frame: %w", io.ErrUnexpectedEOF)
		}

		if rd.header[1] != rd.channel {
			continue
		}
		if length < rtpHeaderSize || isRTCP(rd.buf) {
			logger.Tracef(rd, "skipped %d bytes on channel %d", length, rd.header[1])
			continue
		}

		pkt := new(rtp.Packet)
		if err := pkt.Unmarshal(rd.buf); err != nil {
			return nil, fmt.Errorf("rtp: %w", err)
		}
		return pkt, nil
	}
}

func isRTCP(b []byte) bool {
	return b[1] >= rtcpSenderReport && b[1] <= rtcpApp
}
