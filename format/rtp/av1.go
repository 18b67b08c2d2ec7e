package rtp

import (
	"github.com/pion/rtp"
	"github.com/ugparu/bitsyntax/utils/bits"
	"github.com/ugparu/bitsyntax/utils/logger"
)

// Aggregation header bits.
const (
	av1Z      = 0x80
	av1Y      = 0x40
	av1WMask  = 0x30
	av1WShift = 4
	av1N      = 0x08
)

// AV1Depacketizer reassembles OBU elements from AV1 RTP payloads. Elements
// normally carry OBUs without obu_size; pass each one to
// av1.Decoder.DecodeObu with its length.
type AV1Depacketizer struct {
	fragment []byte
	pending  bool
	seq      sequence
}

func (d *AV1Depacketizer) String() string {
	return "AV1_DEPACKETIZER"
}

// Depacketize returns the OBU elements completed by pkt. Whole elements
// borrow from the payload; reassembled ones are owned by the caller.
func (d *AV1Depacketizer) Depacketize(pkt *rtp.Packet) ([][]byte, error) {
	if d.seq.lost(pkt.SequenceNumber) && d.pending {
		logger.Debugf(d, "sequence gap before %d, fragment dropped", pkt.SequenceNumber)
		d.pending = false
	}
	if len(pkt.Payload) == 0 {
		return nil, ErrShortPayload
	}
	agg := pkt.Payload[0]
	if agg&av1N != 0 {
		logger.Debugf(d, "new coded video sequence at %d", pkt.SequenceNumber)
	}

	elems, err := splitElements(pkt.Payload[1:], int(agg&av1WMask>>av1WShift))
	if err != nil {
		return nil, err
	}
	if len(elems) == 0 {
		return nil, nil
	}

	var obus [][]byte
	first := 0
	if agg&av1Z != 0 {
		first = 1
		if !d.pending {
			logger.Tracef(d, "continuation without start dropped")
		} else {
			d.fragment = append(d.fragment, elems[0]...)
			if len(elems) > 1 || agg&av1Y == 0 {
				obus = append(obus, d.fragment)
				d.fragment, d.pending = nil, false
			}
		}
	} else if d.pending {
		logger.Debugf(d, "fragment not continued, dropped")
		d.fragment, d.pending = nil, false
	}

	last := len(elems)
	if agg&av1Y != 0 && last > first {
		last--
		d.fragment = append([]byte(nil), elems[last]...)
		d.pending = true
	}
	return append(obus, elems[first:last]...), nil
}

// splitElements splits the payload after the aggregation header. With w == 0
// every element has a leb128 length; otherwise there are w elements and the
// last one has none.
func splitElements(b []byte, w int) ([][]byte, error) {
	r := bits.NewReader(b)
	var elems [][]byte
	for r.BitsLeft() > 0 {
		if w != 0 && len(elems) == w-1 {
			rest, err := r.Remaining()
			if err != nil {
				return nil, err
			}
			return append(elems, rest), nil
		}
		size, _, err := r.ReadLEB128()
		if err != nil {
			return nil, err
		}
		elem, err := r.ReadBytes(int(size)) //nolint:gosec // a wrapped size fails the bounds check
		if err != nil {
			return nil, ErrShortPayload
		}
		elems = append(elems, elem)
	}
	if w != 0 && len(elems) != w {
		return nil, ErrShortPayload
	}
	return elems, nil
}
