package av1

import (
	"github.com/ugparu/bitsyntax/utils/bits"
	"github.com/ugparu/bitsyntax/utils/logger"
)

// FrameType is frame_type.
type FrameType uint8

const (
	KeyFrame       FrameType = 0
	InterFrame     FrameType = 1
	IntraOnlyFrame FrameType = 2
	SwitchFrame    FrameType = 3
)

func (t FrameType) String() string {
	switch t {
	case KeyFrame:
		return "KEY_FRAME"
	case InterFrame:
		return "INTER_FRAME"
	case IntraOnlyFrame:
		return "INTRA_ONLY_FRAME"
	}
	return "SWITCH_FRAME"
}

// InterpolationFilter is interpolation_filter.
type InterpolationFilter uint8

const (
	FilterEightTap       InterpolationFilter = 0
	FilterEightTapSmooth InterpolationFilter = 1
	FilterEightTapSharp  InterpolationFilter = 2
	FilterBilinear       InterpolationFilter = 3
	FilterSwitchable     InterpolationFilter = 4
)

// TxMode is the transform mode derived by read_tx_mode().
type TxMode uint8

const (
	TxModeOnly4x4 TxMode = 0
	TxModeLargest TxMode = 1
	TxModeSelect  TxMode = 2
)

// FrameSize is the frame, superres and render size state of a frame.
type FrameSize struct {
	FrameWidth    uint32
	FrameHeight   uint32
	UpscaledWidth uint32
	RenderWidth   uint32
	RenderHeight  uint32
	UseSuperres   bool
	SuperresDenom uint32
	MiCols        uint32
	MiRows        uint32
}

// BufferRemovalTime is buffer_removal_time for one operating point.
type BufferRemovalTime struct {
	OperatingPoint int
	Time           uint32
}

// FrameHeader is uncompressed_header() together with the values it derives.
type FrameHeader struct {
	ShowExistingFrame bool
	FrameToShowMapIdx uint8
	// FramePresentationTime is temporal_point_info(), present when the
	// decoder model is signalled without an equal picture interval.
	FramePresentationTime *uint32
	DisplayFrameID        *uint32

	FrameType          FrameType
	FrameIsIntra       bool
	ShowFrame          bool
	ShowableFrame      bool
	ErrorResilientMode bool

	DisableCdfUpdate        bool
	AllowScreenContentTools bool
	ForceIntegerMv          bool
	CurrentFrameID          uint32
	FrameSizeOverride       bool
	OrderHint               uint32
	PrimaryRefFrame         uint8
	BufferRemovalTimes      []BufferRemovalTime
	RefreshFrameFlags       uint8
	// RefOrderHints is the explicit ref_order_hint list of error resilient
	// frames.
	RefOrderHints []uint32

	FrameSize
	AllowIntrabc bool

	FrameRefsShortSignaling bool
	LastFrameIdx            uint8
	GoldFrameIdx            uint8
	RefFrameIdx             [RefsPerFrame]uint8
	ExpectedFrameIDs        []uint32
	// FoundRef is the index into RefFrameIdx the frame size was copied from.
	FoundRef               *uint8
	AllowHighPrecisionMv   bool
	InterpolationFilter    InterpolationFilter
	IsMotionModeSwitchable bool
	UseRefFrameMvs         bool
	// OrderHints and RefFrameSignBias are indexed by RefFrame.
	OrderHints       [TotalRefsPerFrame]uint32
	RefFrameSignBias [TotalRefsPerFrame]bool

	DisableFrameEndUpdateCdf bool
	TileInfo                 TileInfo
	Quantization             QuantizationParams
	Segmentation             SegmentationParams
	DeltaQ                   DeltaQParams
	DeltaLf                  DeltaLfParams
	Lossless                 [MaxSegments]bool
	CodedLossless            bool
	AllLossless              bool
	SegQMLevel               [3][MaxSegments]uint8
	LoopFilter               LoopFilterParams
	Cdef                     CdefParams
	LoopRestoration          LoopRestorationParams
	TxMode                   TxMode
	ReferenceSelect          bool
	SkipModePresent          bool
	SkipModeFrame            [2]RefFrame
	AllowWarpedMotion        bool
	ReducedTxSet             bool
	// GlobalMotion is indexed by RefFrame; IntraFrame is always identity.
	GlobalMotion [TotalRefsPerFrame]GlobalMotion
	// FilmGrain is nil when no film grain is applied to the frame.
	FilmGrain *FilmGrainParams
}

// DecodeFrameHeader reads frame_header_obu(). A frame header repeated
// within a frame returns a copy of the first one without reading.
func DecodeFrameHeader(ctx *Context, r *bits.Reader) (*FrameHeader, error) {
	if ctx.SequenceHeader == nil {
		return nil, ErrSequenceHeaderNotFound
	}
	if ctx.SeenFrameHeader && ctx.FrameHeader != nil {
		logger.Debugf(ctx, "frame header copy, order hint %d", ctx.FrameHeader.OrderHint)
		cp := *ctx.FrameHeader
		return &cp, nil
	}

	d := &frameHeaderDecoder{
		f:    bits.NewFieldReader(r),
		ctx:  ctx,
		seq:  ctx.SequenceHeader,
		fh:   &FrameHeader{OrderHints: ctx.orderHints},
		refs: ctx.Refs,
	}
	if err := d.decode(); err != nil {
		return nil, wrap("frame_header", err)
	}
	fh := d.fh

	ctx.Refs = d.refs
	if !fh.ShowExistingFrame || fh.FrameType == KeyFrame {
		ctx.orderHints = fh.OrderHints
		ctx.FrameSize = fh.FrameSize
	}
	ctx.refresh(fh)
	ctx.FrameHeader = fh
	if fh.ShowExistingFrame {
		ctx.EndFrame()
	} else {
		ctx.SeenFrameHeader = true
		ctx.tileNum = 0
	}
	return fh, nil
}

// frameHeaderDecoder carries the state uncompressed_header() reads and
// derives. refs is a working copy of the context slots, written back only
// when the whole header decodes.
type frameHeaderDecoder struct {
	f     *bits.FieldReader
	ctx   *Context
	seq   *SequenceHeader
	fh    *FrameHeader
	refs  [NumRefFrames]RefSlot
	idLen int

	prevGmParams [TotalRefsPerFrame][6]int32
}

//nolint:mnd,gosec // field widths
func (d *frameHeaderDecoder) decode() error {
	f, seq, fh := d.f, d.seq, d.fh
	if seq.FrameIDNumbers != nil {
		d.idLen = seq.FrameIDNumbers.IDLen()
	}

	if seq.ReducedStillPictureHeader {
		fh.FrameType = KeyFrame
		fh.FrameIsIntra = true
		fh.ShowFrame = true
		fh.ErrorResilientMode = true
	} else {
		fh.ShowExistingFrame = f.Flag("show_existing_frame")
		if fh.ShowExistingFrame {
			return d.showExistingFrame()
		}
		fh.FrameType = FrameType(f.Bits(2, "frame_type"))
		fh.FrameIsIntra = fh.FrameType == IntraOnlyFrame || fh.FrameType == KeyFrame
		fh.ShowFrame = f.Flag("show_frame")
		if fh.ShowFrame {
			d.temporalPointInfo()
			fh.ShowableFrame = fh.FrameType != KeyFrame
		} else {
			fh.ShowableFrame = f.Flag("showable_frame")
		}
		if fh.FrameType == SwitchFrame || (fh.FrameType == KeyFrame && fh.ShowFrame) {
			fh.ErrorResilientMode = true
		} else {
			fh.ErrorResilientMode = f.Flag("error_resilient_mode")
		}
	}

	if fh.FrameType == KeyFrame && fh.ShowFrame {
		for i := range d.refs {
			d.refs[i].Valid = false
			d.refs[i].OrderHint = 0
		}
		for i := range RefsPerFrame {
			fh.OrderHints[int(LastFrame)+i] = 0
		}
	}

	fh.DisableCdfUpdate = f.Flag("disable_cdf_update")
	if seq.SeqForceScreenContentTools == SelectScreenContentTools {
		fh.AllowScreenContentTools = f.Flag("allow_screen_content_tools")
	} else {
		fh.AllowScreenContentTools = seq.SeqForceScreenContentTools == 1
	}
	if fh.AllowScreenContentTools {
		if seq.SeqForceIntegerMv == SelectIntegerMv {
			fh.ForceIntegerMv = f.Flag("force_integer_mv")
		} else {
			fh.ForceIntegerMv = seq.SeqForceIntegerMv == 1
		}
	}
	if fh.FrameIsIntra {
		fh.ForceIntegerMv = true
	}

	if d.idLen > 0 {
		fh.CurrentFrameID = f.Bits(d.idLen, "current_frame_id")
		d.markRefFrames()
	}

	switch {
	case fh.FrameType == SwitchFrame:
		fh.FrameSizeOverride = true
	case seq.ReducedStillPictureHeader:
	default:
		fh.FrameSizeOverride = f.Flag("frame_size_override_flag")
	}
	fh.OrderHint = f.Bits(int(seq.OrderHintBits), "order_hint")
	if fh.FrameIsIntra || fh.ErrorResilientMode {
		fh.PrimaryRefFrame = PrimaryRefNone
	} else {
		fh.PrimaryRefFrame = uint8(f.Bits(3, "primary_ref_frame"))
	}

	if dm := seq.DecoderModelInfo; dm != nil && f.Flag("buffer_removal_time_present_flag") {
		for i, op := range seq.OperatingPoints {
			if op.DecoderModel == nil {
				continue
			}
			inTemporal := (op.Idc>>d.ctx.TemporalID)&1 == 1
			inSpatial := (op.Idc>>(d.ctx.SpatialID+8))&1 == 1
			if op.Idc == 0 || (inTemporal && inSpatial) {
				n := int(dm.BufferRemovalTimeLengthMinus1) + 1
				fh.BufferRemovalTimes = append(fh.BufferRemovalTimes, BufferRemovalTime{
					OperatingPoint: i,
					Time:           f.Bits(n, "buffer_removal_time"),
				})
			}
		}
	}

	if fh.FrameType == SwitchFrame || (fh.FrameType == KeyFrame && fh.ShowFrame) {
		fh.RefreshFrameFlags = allFrames
	} else {
		fh.RefreshFrameFlags = uint8(f.Bits(8, "refresh_frame_flags"))
	}
	if (!fh.FrameIsIntra || fh.RefreshFrameFlags != allFrames) && fh.ErrorResilientMode && seq.EnableOrderHint {
		fh.RefOrderHints = make([]uint32, NumRefFrames)
		for i := range fh.RefOrderHints {
			hint := f.Bits(int(seq.OrderHintBits), "ref_order_hint")
			fh.RefOrderHints[i] = hint
			if hint != d.refs[i].OrderHint {
				d.refs[i].Valid = false
				d.refs[i].OrderHint = hint
			}
		}
	}
	if err := f.Err(); err != nil {
		return err
	}

	if fh.FrameIsIntra {
		d.frameSize()
		d.renderSize()
		if fh.AllowScreenContentTools && fh.UpscaledWidth == fh.FrameWidth {
			fh.AllowIntrabc = f.Flag("allow_intrabc")
		}
	} else if err := d.interFrameRefs(); err != nil {
		return err
	}

	if seq.ReducedStillPictureHeader || fh.DisableCdfUpdate {
		fh.DisableFrameEndUpdateCdf = true
	} else {
		fh.DisableFrameEndUpdateCdf = f.Flag("disable_frame_end_update_cdf")
	}
	if err := f.Err(); err != nil {
		return err
	}

	if fh.PrimaryRefFrame == PrimaryRefNone {
		d.setupPastIndependence()
	} else if err := d.loadPrevious(); err != nil {
		return err
	}

	d.tileInfo()
	d.quantizationParams()
	d.segmentationParams()
	d.deltaParams()
	d.losslessState()
	d.loopFilterParams()
	d.cdefParams()
	d.lrParams()
	d.txMode()
	if !fh.FrameIsIntra {
		fh.ReferenceSelect = f.Flag("reference_select")
	}
	d.skipModeParams()
	if !fh.FrameIsIntra && !fh.ErrorResilientMode && seq.EnableWarpedMotion {
		fh.AllowWarpedMotion = f.Flag("allow_warped_motion")
	}
	fh.ReducedTxSet = f.Flag("reduced_tx_set")
	d.globalMotionParams()
	d.filmGrainParams()
	return f.Err()
}

// showExistingFrame reads the show_existing_frame branch and, for key
// frames, runs the reference frame loading process.
func (d *frameHeaderDecoder) showExistingFrame() error {
	f, fh := d.f, d.fh
	fh.FrameToShowMapIdx = uint8(f.Bits(3, "frame_to_show_map_idx")) //nolint:mnd,gosec
	d.temporalPointInfo()
	if d.idLen > 0 {
		id := f.Bits(d.idLen, "display_frame_id")
		fh.DisplayFrameID = &id
	}
	if err := f.Err(); err != nil {
		return err
	}

	slot := &d.refs[fh.FrameToShowMapIdx]
	if !slot.Valid {
		return refNotFound(fh.FrameToShowMapIdx)
	}
	fh.FrameType = slot.FrameType
	fh.FrameIsIntra = fh.FrameType == KeyFrame || fh.FrameType == IntraOnlyFrame
	fh.ShowFrame = true
	fh.FrameSize = slot.Size
	fh.OrderHint = slot.OrderHint
	if d.seq.FilmGrainParamsPresent {
		fh.FilmGrain = slot.FilmGrain
	}

	if fh.FrameType == KeyFrame {
		fh.RefreshFrameFlags = allFrames
		fh.CurrentFrameID = slot.FrameID
		fh.OrderHints = slot.SavedOrderHints
		fh.LoopFilter.Deltas = slot.LoopFilterDeltas
		fh.Segmentation.Features = slot.Segmentation
		fh.GlobalMotion = slot.GlobalMotion
	}
	return nil
}

func (d *frameHeaderDecoder) temporalPointInfo() {
	dm := d.seq.DecoderModelInfo
	if dm == nil || d.seq.TimingInfo == nil || d.seq.TimingInfo.NumTicksPerPictureMinus1 != nil {
		return
	}
	t := d.f.Bits(int(dm.FramePresentationTimeLengthMinus1)+1, "frame_presentation_time")
	d.fh.FramePresentationTime = &t
}

// markRefFrames invalidates slots whose frame id is too far from
// current_frame_id.
func (d *frameHeaderDecoder) markRefFrames() {
	diff := uint32(1) << d.seq.FrameIDNumbers.DeltaLen()
	cur := d.fh.CurrentFrameID
	for i := range d.refs {
		id := d.refs[i].FrameID
		if cur > diff {
			if id > cur || id < cur-diff {
				d.refs[i].Valid = false
			}
		} else if id > cur && id < (uint32(1)<<d.idLen)+cur-diff {
			d.refs[i].Valid = false
		}
	}
}

// interFrameRefs reads the reference selection and motion vector fields of
// inter and switch frames.
//
//nolint:mnd,gosec // field widths
func (d *frameHeaderDecoder) interFrameRefs() error {
	f, seq, fh := d.f, d.seq, d.fh

	if seq.EnableOrderHint {
		fh.FrameRefsShortSignaling = f.Flag("frame_refs_short_signaling")
		if fh.FrameRefsShortSignaling {
			fh.LastFrameIdx = uint8(f.Bits(3, "last_frame_idx"))
			fh.GoldFrameIdx = uint8(f.Bits(3, "gold_frame_idx"))
			if err := f.Err(); err != nil {
				return err
			}
			d.setFrameRefs()
		}
	}
	for i := range RefsPerFrame {
		if !fh.FrameRefsShortSignaling {
			fh.RefFrameIdx[i] = uint8(f.Bits(3, "ref_frame_idx"))
		}
		if ids := seq.FrameIDNumbers; ids != nil {
			delta := f.Bits(ids.DeltaLen(), "delta_frame_id_minus_1") + 1
			mod := uint32(1) << d.idLen
			fh.ExpectedFrameIDs = append(fh.ExpectedFrameIDs, (fh.CurrentFrameID+mod-delta)%mod)
		}
	}
	if err := f.Err(); err != nil {
		return err
	}
	if !fh.ErrorResilientMode {
		for _, idx := range fh.RefFrameIdx {
			if !d.refs[idx].Valid {
				return refNotFound(idx)
			}
		}
	}

	if fh.FrameSizeOverride && !fh.ErrorResilientMode {
		d.frameSizeWithRefs()
	} else {
		d.frameSize()
		d.renderSize()
	}
	if !fh.ForceIntegerMv {
		fh.AllowHighPrecisionMv = f.Flag("allow_high_precision_mv")
	}
	if f.Flag("is_filter_switchable") {
		fh.InterpolationFilter = FilterSwitchable
	} else {
		fh.InterpolationFilter = InterpolationFilter(f.Bits(2, "interpolation_filter"))
	}
	fh.IsMotionModeSwitchable = f.Flag("is_motion_mode_switchable")
	if !fh.ErrorResilientMode && seq.EnableRefFrameMvs {
		fh.UseRefFrameMvs = f.Flag("use_ref_frame_mvs")
	}

	for i := range RefsPerFrame {
		ref := int(LastFrame) + i
		hint := d.refs[fh.RefFrameIdx[i]].OrderHint
		fh.OrderHints[ref] = hint
		fh.RefFrameSignBias[ref] = seq.EnableOrderHint && d.ctx.relativeDist(hint, fh.OrderHint) > 0
	}
	return f.Err()
}

// setupPastIndependence resets the state a frame would otherwise inherit
// from its primary reference frame.
func (d *frameHeaderDecoder) setupPastIndependence() {
	d.fh.LoopFilter.Deltas = defaultLoopFilterDeltas
	d.fh.Segmentation.Features = SegmentationFeatures{}
	for ref := range d.prevGmParams {
		d.prevGmParams[ref] = defaultGmParams
	}
}

// loadPrevious loads the saved state of the primary reference frame.
func (d *frameHeaderDecoder) loadPrevious() error {
	idx := d.fh.RefFrameIdx[d.fh.PrimaryRefFrame]
	slot := &d.refs[idx]
	if !slot.Valid {
		return refNotFound(idx)
	}
	d.fh.LoopFilter.Deltas = slot.LoopFilterDeltas
	d.fh.Segmentation.Features = slot.Segmentation
	for ref := range d.prevGmParams {
		d.prevGmParams[ref] = slot.GlobalMotion[ref].Params
	}
	return nil
}
