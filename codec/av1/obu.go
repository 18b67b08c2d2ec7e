package av1

import (
	"fmt"

	"github.com/ugparu/bitsyntax/utils/bits"
)

// ObuType is obu_type.
type ObuType uint8

const (
	ObuReserved0            ObuType = 0
	ObuSequenceHeader       ObuType = 1
	ObuTemporalDelimiter    ObuType = 2
	ObuFrameHeader          ObuType = 3
	ObuTileGroup            ObuType = 4
	ObuMetadata             ObuType = 5
	ObuFrame                ObuType = 6
	ObuRedundantFrameHeader ObuType = 7
	ObuTileList             ObuType = 8
	ObuPadding              ObuType = 15
)

func (t ObuType) String() string {
	switch t {
	case ObuSequenceHeader:
		return "OBU_SEQUENCE_HEADER"
	case ObuTemporalDelimiter:
		return "OBU_TEMPORAL_DELIMITER"
	case ObuFrameHeader:
		return "OBU_FRAME_HEADER"
	case ObuTileGroup:
		return "OBU_TILE_GROUP"
	case ObuMetadata:
		return "OBU_METADATA"
	case ObuFrame:
		return "OBU_FRAME"
	case ObuRedundantFrameHeader:
		return "OBU_REDUNDANT_FRAME_HEADER"
	case ObuTileList:
		return "OBU_TILE_LIST"
	case ObuPadding:
		return "OBU_PADDING"
	}
	return fmt.Sprintf("OBU_RESERVED(%d)", uint8(t))
}

// Reserved reports whether the type is reserved for future use.
func (t ObuType) Reserved() bool {
	return t == 0 || (t >= 9 && t <= 14) //nolint:mnd
}

// ObuExtension is obu_extension_header().
type ObuExtension struct {
	TemporalID uint8
	SpatialID  uint8
}

// ObuHeader is obu_header().
type ObuHeader struct {
	Type         ObuType
	HasSizeField bool
	Extension    *ObuExtension
}

// Len returns the encoded size of the header in bytes.
func (h ObuHeader) Len() int {
	if h.Extension != nil {
		return 2 //nolint:mnd
	}
	return 1
}

// DecodeObuHeader reads obu_header() from an aligned cursor.
func DecodeObuHeader(r *bits.Reader) (ObuHeader, error) {
	f := bits.NewFieldReader(r)

	var h ObuHeader
	forbidden := f.Flag("obu_forbidden_bit")
	h.Type = ObuType(f.Bits(4, "obu_type")) //nolint:mnd,gosec
	hasExtension := f.Flag("obu_extension_flag")
	h.HasSizeField = f.Flag("obu_has_size_field")
	f.Skip(1, "obu_reserved_1bit")
	if hasExtension {
		h.Extension = &ObuExtension{
			TemporalID: uint8(f.Bits(3, "temporal_id")), //nolint:mnd,gosec
			SpatialID:  uint8(f.Bits(2, "spatial_id")),  //nolint:mnd,gosec
		}
		f.Skip(3, "extension_header_reserved_3bits") //nolint:mnd
	}
	if err := f.Err(); err != nil {
		return ObuHeader{}, wrap("obu_header", err)
	}
	if forbidden {
		return ObuHeader{}, ErrForbiddenBit
	}
	return h, nil
}

// Body is the decoded payload of an OBU.
type Body interface {
	isBody()
}

// TemporalDelimiter has an empty payload.
type TemporalDelimiter struct{}

// Padding carries the padding payload bytes.
type Padding struct {
	Data []byte
}

// Raw carries the payload of a reserved OBU type.
type Raw struct {
	Data []byte
}

// Frame is frame_obu(): a frame header followed by one tile group.
type Frame struct {
	Header    *FrameHeader
	TileGroup *TileGroup
}

func (TemporalDelimiter) isBody() {}
func (Padding) isBody()           {}
func (Raw) isBody()               {}
func (*Frame) isBody()            {}
func (*SequenceHeader) isBody()   {}
func (*FrameHeader) isBody()      {}
func (*TileGroup) isBody()        {}
func (*TileList) isBody()         {}

// Obu is one open bitstream unit. Payload borrows from the decoded buffer.
type Obu struct {
	Header ObuHeader
	// HeaderLen counts the header and obu_size bytes.
	HeaderLen int
	// Size is obu_size, the payload length in bytes.
	Size    int
	Payload []byte
	// Dropped is set when the OBU is outside the selected operating point;
	// Body is nil then.
	Dropped bool
	Body    Body
}

// Len returns the number of bytes the OBU occupies in the stream.
func (o *Obu) Len() int {
	return o.HeaderLen + o.Size
}

// inOperatingPoint implements the layer check of obu() from 5.3.1.
func inOperatingPoint(idc uint16, h ObuHeader) bool {
	if idc == 0 || h.Extension == nil {
		return true
	}
	switch h.Type {
	case ObuSequenceHeader, ObuTemporalDelimiter, ObuPadding:
		return true
	}
	inTemporal := (idc>>h.Extension.TemporalID)&1 == 1
	inSpatial := (idc>>(h.Extension.SpatialID+8))&1 == 1 //nolint:mnd
	return inTemporal && inSpatial
}

// DecodeObu reads one OBU starting at the aligned cursor. totalSize is the
// number of bytes the OBU occupies when it carries no obu_size field; pass 0
// when unknown. On success the cursor is left after the OBU.
func DecodeObu(ctx *Context, r *bits.Reader, totalSize int) (*Obu, error) {
	h, err := DecodeObuHeader(r)
	if err != nil {
		return nil, err
	}

	var size int
	sizeLen := 0
	if h.HasSizeField {
		v, n, err := r.ReadLEB128()
		if err != nil {
			return nil, wrap("obu_size", err)
		}
		size, sizeLen = int(v), n
	} else {
		if totalSize <= 0 {
			return nil, ErrMissingObuSize
		}
		size = totalSize - h.Len()
		if size < 0 {
			return nil, ErrObuSizeOverrun
		}
	}

	payload, err := r.ReadBytes(size)
	if err != nil {
		return nil, ErrObuSizeOverrun
	}
	obu := &Obu{Header: h, HeaderLen: h.Len() + sizeLen, Size: size, Payload: payload}

	if !inOperatingPoint(ctx.OperatingPointIdc, h) {
		obu.Dropped = true
		return obu, nil
	}
	if h.Extension != nil {
		ctx.TemporalID, ctx.SpatialID = h.Extension.TemporalID, h.Extension.SpatialID
	} else {
		ctx.TemporalID, ctx.SpatialID = 0, 0
	}

	pr := bits.NewReader(payload)
	switch h.Type {
	case ObuSequenceHeader:
		obu.Body, err = DecodeSequenceHeader(ctx, pr)
	case ObuTemporalDelimiter:
		ctx.SeenFrameHeader = false
		obu.Body = TemporalDelimiter{}
	case ObuFrameHeader, ObuRedundantFrameHeader:
		obu.Body, err = DecodeFrameHeader(ctx, pr)
	case ObuFrame:
		obu.Body, err = decodeFrame(ctx, pr)
	case ObuTileGroup:
		obu.Body, err = DecodeTileGroup(ctx, pr)
	case ObuMetadata:
		obu.Body, err = DecodeMetadata(pr)
	case ObuTileList:
		obu.Body, err = DecodeTileList(pr)
	case ObuPadding:
		obu.Body = Padding{Data: payload}
	default:
		obu.Body = Raw{Data: payload}
	}
	if err != nil {
		return nil, err
	}
	return obu, nil
}

func decodeFrame(ctx *Context, r *bits.Reader) (*Frame, error) {
	fh, err := DecodeFrameHeader(ctx, r)
	if err != nil {
		return nil, err
	}
	r.ByteAlign()
	tg, err := DecodeTileGroup(ctx, r)
	if err != nil {
		return nil, err
	}
	return &Frame{Header: fh, TileGroup: tg}, nil
}
