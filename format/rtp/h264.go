package rtp

import (
	"bytes"
	"errors"

	"github.com/pion/rtp"
	"github.com/ugparu/bitsyntax/utils/logger"
)

const (
	naluTypeMask  = 0x1f
	nriMask       = 0xe0
	nalStapA      = 24
	nalFuA        = 28
	fuStartBit    = 0x80
	fuEndBit      = 0x40
	stapSizeBytes = 2
)

// ErrShortPayload is returned for payloads too short for their packetization
// mode.
var ErrShortPayload = errors.New("rtp: payload too short")

// H264Depacketizer reassembles NAL units from RFC 6184 payloads: single NAL
// unit packets, STAP-A and FU-A.
type H264Depacketizer struct {
	fu        bytes.Buffer
	fuStarted bool
	seq       sequence
}

func (d *H264Depacketizer) String() string {
	return "H264_DEPACKETIZER"
}

// Depacketize returns the NAL units completed by pkt. Single NAL units and
// STAP-A units borrow from the payload; FU-A units are valid until the next
// call.
func (d *H264Depacketizer) Depacketize(pkt *rtp.Packet) ([][]byte, error) {
	if d.seq.lost(pkt.SequenceNumber) && d.fuStarted {
		logger.Debugf(d, "sequence gap before %d, fragment dropped", pkt.SequenceNumber)
		d.fuStarted = false
	}

	payload := pkt.Payload
	if len(payload) == 0 {
		return nil, ErrShortPayload
	}
	switch typ := payload[0] & naluTypeMask; {
	case typ > 0 && typ < nalStapA:
		return [][]byte{payload}, nil
	case typ == nalStapA:
		return splitStapA(payload[1:])
	case typ == nalFuA:
		return d.fuA(payload)
	default:
		logger.Debugf(d, "unsupported packetization type %d", typ)
		return nil, nil
	}
}

func splitStapA(b []byte) ([][]byte, error) {
	var nalus [][]byte
	for len(b) > 0 {
		if len(b) < stapSizeBytes {
			return nalus, ErrShortPayload
		}
		size := int(b[0])<<8 | int(b[1]) //nolint:mnd
		b = b[stapSizeBytes:]
		if size == 0 || size > len(b) {
			return nalus, ErrShortPayload
		}
		nalus = append(nalus, b[:size])
		b = b[size:]
	}
	return nalus, nil
}

func (d *H264Depacketizer) fuA(payload []byte) ([][]byte, error) {
	if len(payload) < 3 { //nolint:mnd
		return nil, ErrShortPayload
	}
	indicator, header := payload[0], payload[1]

	if header&fuStartBit != 0 {
		d.fuStarted = true
		d.fu.Reset()
		d.fu.WriteByte(indicator&nriMask | header&naluTypeMask)
	} else if !d.fuStarted {
		logger.Tracef(d, "fragment without start dropped")
		return nil, nil
	}

	d.fu.Write(payload[2:])
	if header&fuEndBit == 0 {
		return nil, nil
	}
	d.fuStarted = false
	return [][]byte{d.fu.Bytes()}, nil
}

// sequence tracks RTP sequence numbers to detect loss.
type sequence struct {
	last  uint16
	valid bool
}

// lost records seq and reports whether packets were missing before it.
func (s *sequence) lost(seq uint16) bool {
	gap := s.valid && seq != s.last+1
	s.last, s.valid = seq, true
	return gap
}
