package av1

import (
	"sync"

	"github.com/ugparu/bitsyntax/utils"
	"github.com/ugparu/bitsyntax/utils/bits"
	"github.com/ugparu/bitsyntax/utils/logger"
)

// Options configures a Decoder.
type Options struct {
	// OperatingPoint selects the operating point of scalable streams. Values
	// outside the sequence header's range select operating point 0.
	OperatingPoint int
}

// Decoder walks low overhead bitstream format OBUs and keeps the decoding
// context between calls. It is safe for concurrent use; each call holds the
// lock for one buffer.
type Decoder struct {
	mu  sync.Mutex
	ctx *Context
}

// NewDecoder returns a decoder with an empty context.
func NewDecoder(opts Options) *Decoder {
	return &Decoder{ctx: NewContext(opts.OperatingPoint)}
}

func (dec *Decoder) String() string {
	return "AV1_DECODER"
}

// SequenceHeader returns the active sequence header, nil before the first one.
func (dec *Decoder) SequenceHeader() *SequenceHeader {
	dec.mu.Lock()
	defer dec.mu.Unlock()
	return dec.ctx.SequenceHeader
}

// FrameHeader returns the last decoded frame header.
func (dec *Decoder) FrameHeader() *FrameHeader {
	dec.mu.Lock()
	defer dec.mu.Unlock()
	return dec.ctx.FrameHeader
}

// Decode decodes every OBU of buf, each of which must carry obu_size. OBUs
// outside the selected operating point are skipped. Decoding stops at the
// first error and the OBUs decoded before it are returned.
func (dec *Decoder) Decode(buf []byte) ([]*Obu, error) {
	dec.mu.Lock()
	defer dec.mu.Unlock()

	r := bits.NewReader(buf)
	var obus []*Obu
	for r.BitsLeft() > 0 {
		start := r.ByteOffset()
		obu, err := DecodeObu(dec.ctx, r, 0)
		if err != nil {
			return obus, err
		}
		if obu.Dropped {
			logger.Debugf(dec, "dropped %s at %d, operating point idc %#x",
				obu.Header.Type, start, dec.ctx.OperatingPointIdc)
			continue
		}
		obus = append(obus, obu)
	}
	return obus, nil
}

// DecodeObu decodes one OBU occupying size bytes of buf. The OBU may omit
// obu_size, as in RTP payloads or the last OBU of a container sample.
func (dec *Decoder) DecodeObu(buf []byte, size int) (*Obu, error) {
	if size <= 0 || size > len(buf) {
		return nil, ErrObuSizeOverrun
	}
	dec.mu.Lock()
	defer dec.mu.Unlock()
	return DecodeObu(dec.ctx, bits.NewReader(buf[:size]), size)
}

// EndFrame ends the current frame, as a temporal delimiter would.
func (dec *Decoder) EndFrame() {
	dec.mu.Lock()
	defer dec.mu.Unlock()
	dec.ctx.EndFrame()
}

// LoadRecord decodes the configOBUs of an av1C record and returns the codec
// parameters of its sequence header.
func (dec *Decoder) LoadRecord(record []byte) (*CodecParameters, error) {
	var rec CodecConfigurationRecord
	if _, err := rec.Unmarshal(record); err != nil {
		return nil, err
	}
	obus, err := dec.Decode(rec.ConfigOBUs)
	if err != nil {
		return nil, err
	}
	for _, obu := range obus {
		if sh, ok := obu.Body.(*SequenceHeader); ok {
			if sh.Profile != rec.SeqProfile {
				return nil, ErrConfRecordInvalid
			}
			return NewCodecParameters(&rec, sh), nil
		}
	}
	return nil, utils.NoCodecDataError{}
}
