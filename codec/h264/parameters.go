package h264

import (
	"fmt"
	"math"

	"github.com/ugparu/bitsyntax"
	"github.com/ugparu/bitsyntax/codec"
	"github.com/ugparu/bitsyntax/utils/nal"
)

// CodecParameters describes an H.264 stream by its avcC record and decoded SPS.
type CodecParameters struct {
	codec.BaseParameters
	Record     []byte
	RecordInfo AVCDecoderConfRecord
	Sps        *Sps
}

var _ bitsyntax.VideoCodecParameters = (*CodecParameters)(nil)

// NewCodecParameters builds parameters from a record and its decoded first SPS.
func NewCodecParameters(conf *AVCDecoderConfRecord, sps *Sps) *CodecParameters {
	buf := make([]byte, conf.Len())
	conf.Marshal(buf)
	return &CodecParameters{
		BaseParameters: codec.BaseParameters{CodecType: bitsyntax.H264},
		Record:         buf,
		RecordInfo:     *conf,
		Sps:            sps,
	}
}

// NewCodecParametersFromSPSAndPPS builds an avcC record around one SPS and PPS
// NAL unit. sps must already be decoded.
func NewCodecParametersFromSPSAndPPS(spsNalu, ppsNalu []byte, sps *Sps) (*CodecParameters, error) {
	if len(spsNalu) < 4 { //nolint:mnd // header and three profile/level bytes
		return nil, ErrDecconfInvalid
	}
	conf := &AVCDecoderConfRecord{
		AVCProfileIndication: spsNalu[1],
		ProfileCompatibility: spsNalu[2],
		AVCLevelIndication:   spsNalu[3],
		LengthSizeMinusOne:   nal.MinNaluSize - 1,
		SPS:                  [][]byte{spsNalu},
		PPS:                  [][]byte{ppsNalu},
	}
	return NewCodecParameters(conf, sps), nil
}

func (par *CodecParameters) Width() uint {
	return uint(par.Sps.Width())
}

func (par *CodecParameters) Height() uint {
	return uint(par.Sps.Height())
}

// FPS is the VUI frame rate rounded to the nearest integer, 0 when unknown.
func (par *CodecParameters) FPS() uint {
	fps, ok := par.Sps.FrameRate()
	if !ok {
		return 0
	}
	return uint(math.Round(fps))
}

func (par *CodecParameters) Tag() string {
	return fmt.Sprintf("avc1.%02X%02X%02X",
		par.RecordInfo.AVCProfileIndication, par.RecordInfo.ProfileCompatibility, par.RecordInfo.AVCLevelIndication)
}
