package av1

import (
	"fmt"
	"math"

	"github.com/ugparu/bitsyntax"
	"github.com/ugparu/bitsyntax/codec"
)

// CodecParameters describes an AV1 stream by its av1C record and sequence
// header.
type CodecParameters struct {
	codec.BaseParameters
	Record         []byte
	RecordInfo     CodecConfigurationRecord
	SequenceHeader *SequenceHeader
}

var _ bitsyntax.VideoCodecParameters = (*CodecParameters)(nil)

// NewCodecParameters builds parameters from a record and the sequence header
// carried in its configOBUs.
func NewCodecParameters(rec *CodecConfigurationRecord, sh *SequenceHeader) *CodecParameters {
	buf := make([]byte, rec.Len())
	rec.Marshal(buf)
	return &CodecParameters{
		BaseParameters: codec.BaseParameters{CodecType: bitsyntax.AV1},
		Record:         buf,
		RecordInfo:     *rec,
		SequenceHeader: sh,
	}
}

func (par *CodecParameters) Width() uint {
	return uint(par.SequenceHeader.MaxFrameWidth())
}

func (par *CodecParameters) Height() uint {
	return uint(par.SequenceHeader.MaxFrameHeight())
}

// FPS is the timing info display rate rounded to the nearest integer, 0
// when not signalled.
func (par *CodecParameters) FPS() uint {
	fps, ok := par.SequenceHeader.FrameRate()
	if !ok {
		return 0
	}
	return uint(math.Round(fps))
}

// Tag returns the codecs parameter string, e.g. av01.0.04M.08.
func (par *CodecParameters) Tag() string {
	tier := 'M'
	if par.RecordInfo.SeqTier0 {
		tier = 'H'
	}
	return fmt.Sprintf("av01.%d.%02d%c.%02d",
		par.RecordInfo.SeqProfile, par.RecordInfo.SeqLevelIdx0, tier, par.RecordInfo.BitDepth())
}
