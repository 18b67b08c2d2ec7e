package av1

// RefSlot is one of the NumRefFrames reference slots together with the
// header level state saved by the reference frame update process.
type RefSlot struct {
	Valid        bool
	FrameID      uint32
	FrameType    FrameType
	OrderHint    uint32
	Showable     bool
	Size         FrameSize
	BitDepth     uint8
	SubsamplingX bool
	SubsamplingY bool

	SavedOrderHints  [TotalRefsPerFrame]uint32
	LoopFilterDeltas LoopFilterDeltas
	Segmentation     SegmentationFeatures
	GlobalMotion     [TotalRefsPerFrame]GlobalMotion
	// FilmGrain is nil when the frame carried no film grain parameters.
	FilmGrain *FilmGrainParams
}

// Context is the decoding state shared by the OBUs of one stream. It is not
// safe for concurrent use; Decoder serialises access to it.
type Context struct {
	// RequestedOperatingPoint is the operating point asked for by the caller.
	RequestedOperatingPoint int

	// OperatingPoint is the one in use for the current sequence header. It
	// falls back to 0 when the request is out of range.
	OperatingPoint    int
	OperatingPointIdc uint16
	SequenceHeader    *SequenceHeader
	BitDepth          uint8
	NumPlanes         uint8
	OrderHintBits     uint8

	// TemporalID and SpatialID come from the extension of the OBU being decoded.
	TemporalID uint8
	SpatialID  uint8

	SeenFrameHeader bool
	// FrameHeader is the last decoded frame header.
	FrameHeader *FrameHeader
	FrameSize   FrameSize
	Refs        [NumRefFrames]RefSlot

	orderHints [TotalRefsPerFrame]uint32
	tileNum    uint32
}

// NewContext returns an empty context selecting the given operating point.
func NewContext(operatingPoint int) *Context {
	return &Context{RequestedOperatingPoint: operatingPoint}
}

func (c *Context) String() string {
	return "AV1_CONTEXT"
}

// EndFrame marks the current frame complete so the next frame header OBU
// starts a new frame.
func (c *Context) EndFrame() {
	c.SeenFrameHeader = false
	c.tileNum = 0
}

func (c *Context) setSequenceHeader(sh *SequenceHeader) {
	op := c.RequestedOperatingPoint
	if op < 0 || op >= len(sh.OperatingPoints) {
		op = 0
	}
	c.OperatingPoint = op
	c.OperatingPointIdc = sh.OperatingPoints[op].Idc
	c.SequenceHeader = sh
	c.BitDepth = sh.ColorConfig.BitDepth
	c.NumPlanes = sh.ColorConfig.NumPlanes()
	c.OrderHintBits = sh.OrderHintBits
}

// relativeDist implements get_relative_dist().
func (c *Context) relativeDist(a, b uint32) int32 {
	if c.SequenceHeader == nil || !c.SequenceHeader.EnableOrderHint {
		return 0
	}
	diff := int32(a) - int32(b) //nolint:gosec // order hints are at most 8 bits
	m := int32(1) << (c.OrderHintBits - 1)
	return (diff & (m - 1)) - (diff & m)
}

// refresh is the reference frame update process: every slot selected by
// refresh_frame_flags takes the state of fh.
func (c *Context) refresh(fh *FrameHeader) {
	cc := &c.SequenceHeader.ColorConfig
	for i := range c.Refs {
		if fh.RefreshFrameFlags>>i&1 == 0 {
			continue
		}
		slot := RefSlot{
			Valid:            true,
			FrameID:          fh.CurrentFrameID,
			FrameType:        fh.FrameType,
			OrderHint:        fh.OrderHint,
			Showable:         fh.ShowableFrame,
			Size:             fh.FrameSize,
			BitDepth:         cc.BitDepth,
			SubsamplingX:     cc.SubsamplingX,
			SubsamplingY:     cc.SubsamplingY,
			SavedOrderHints:  fh.OrderHints,
			LoopFilterDeltas: fh.LoopFilter.Deltas,
			Segmentation:     fh.Segmentation.Features,
			GlobalMotion:     fh.GlobalMotion,
			FilmGrain:        fh.FilmGrain,
		}
		c.Refs[i] = slot
	}
}
