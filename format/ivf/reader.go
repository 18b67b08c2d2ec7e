// Package ivf reads IVF files, the minimal container libvpx and libaom
// write elementary AV1 streams into.
package ivf

import (
	"errors"
	"fmt"
	"io"

	"github.com/pion/webrtc/v4/pkg/media/ivfreader"
	"github.com/ugparu/bitsyntax/utils/logger"
)

// FourCCAV1 is the fourcc of AV1 IVF files.
const FourCCAV1 = "AV01"

// ErrUnsupportedFourCC is returned by NewReader when the file does not hold
// the expected codec.
var ErrUnsupportedFourCC = errors.New("ivf: unsupported fourcc")

// Header is the 32-byte IVF file header.
type Header struct {
	FourCC string
	Width  uint16
	Height uint16
	// Rate and Scale form the timebase Scale/Rate of frame timestamps.
	Rate      uint32
	Scale     uint32
	NumFrames uint32
}

// Frame is one IVF frame: a temporal unit for AV1.
type Frame struct {
	Index int
	PTS   uint64
	Data  []byte
}

// Reader reads IVF frames one by one.
type Reader struct {
	Header
	rdr   *ivfreader.IVFReader
	index int
}

// NewReader reads the file header from r. An empty fourcc accepts any codec.
func NewReader(r io.Reader, fourcc string) (*Reader, error) {
	rdr, hdr, err := ivfreader.NewWith(r)
	if err != nil {
		return nil, fmt.Errorf("ivf: header: %w", err)
	}
	if fourcc != "" && hdr.FourCC != fourcc {
		return nil, fmt.Errorf("%w %q", ErrUnsupportedFourCC, hdr.FourCC)
	}
	ir := &Reader{
		Header: Header{
			FourCC:    hdr.FourCC,
			Width:     hdr.Width,
			Height:    hdr.Height,
			Rate:      hdr.TimebaseDenominator,
			Scale:     hdr.TimebaseNumerator,
			NumFrames: hdr.NumFrames,
		},
		rdr: rdr,
	}
	logger.Debugf(ir, "%s %dx%d, %d frames", ir.FourCC, ir.Width, ir.Height, ir.NumFrames)
	return ir, nil
}

func (ir *Reader) String() string {
	return "IVF_READER"
}

// ReadFrame returns the next frame, io.EOF after the last one.
func (ir *Reader) ReadFrame() (*Frame, error) {
	data, hdr, err := ir.rdr.ParseNextFrame()
	if errors.Is(err, io.EOF) {
		return nil, io.EOF
	}
	if err != nil {
		return nil, fmt.Errorf("ivf: frame %d: %w", ir.index, err)
	}
	f := &Frame{Index: ir.index, PTS: hdr.Timestamp, Data: data}
	ir.index++
	return f, nil
}
