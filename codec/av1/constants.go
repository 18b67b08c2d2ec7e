package av1

// Symbols from section 3 of the AV1 bitstream specification.
const (
	NumRefFrames      = 8
	RefsPerFrame      = 7
	TotalRefsPerFrame = 8
	PrimaryRefNone    = 7

	MaxSegments    = 8
	SegLvlMax      = 8
	SegLvlAltQ     = 0
	SegLvlRefFrame = 5
	MaxLoopFilter  = 63

	SelectScreenContentTools = 2
	SelectIntegerMv          = 2

	SuperresNum       = 8
	SuperresDenomMin  = 9
	SuperresDenomBits = 3

	MaxTileWidth = 4096
	MaxTileArea  = 4096 * 2304
	MaxTileRows  = 64
	MaxTileCols  = 64

	RestorationTileSizeMax = 256

	WarpedModelPrecBits = 16
	GmAbsTransBits      = 12
	GmAbsTransOnlyBits  = 9
	GmAbsAlphaBits      = 12
	GmAlphaPrecBits     = 15
	GmTransPrecBits     = 6
	GmTransOnlyPrecBits = 3

	maxOperatingPoints  = 32
	allFrames           = 1<<NumRefFrames - 1
	defaultDisplayDelay = 10
)

// RefFrame names a reference frame slot as seen by the current frame.
type RefFrame uint8

const (
	IntraFrame RefFrame = iota
	LastFrame
	Last2Frame
	Last3Frame
	GoldenFrame
	BwdrefFrame
	Altref2Frame
	AltrefFrame
)

func (f RefFrame) String() string {
	switch f {
	case IntraFrame:
		return "INTRA_FRAME"
	case LastFrame:
		return "LAST_FRAME"
	case Last2Frame:
		return "LAST2_FRAME"
	case Last3Frame:
		return "LAST3_FRAME"
	case GoldenFrame:
		return "GOLDEN_FRAME"
	case BwdrefFrame:
		return "BWDREF_FRAME"
	case Altref2Frame:
		return "ALTREF2_FRAME"
	}
	return "ALTREF_FRAME"
}
