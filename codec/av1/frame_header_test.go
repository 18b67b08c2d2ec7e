package av1

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"github.com/ugparu/bitsyntax/utils"
	"github.com/ugparu/bitsyntax/utils/bits"
	"github.com/ugparu/bitsyntax/utils/bits/bitstest"
)

// writeKeyFrameHeader writes a shown key frame for writeSequenceHeader with
// a single tile, base_q_idx 100, loop filter deltas enabled and one CDEF
// strength.
func writeKeyFrameHeader(w *bitstest.Writer) *bitstest.Writer {
	// show_existing_frame, KEY_FRAME, show_frame
	w.Flag(false).Bits(0, 2).Flag(true)
	// disable_cdf_update, allow_screen_content_tools
	w.Flag(false).Flag(false)
	// frame_size_override_flag, order_hint
	w.Flag(false).Bits(0, 7)
	// render_and_frame_size_different, disable_frame_end_update_cdf
	w.Flag(false).Flag(false)
	// uniform tile spacing with one column and one row
	w.Flag(true).Flag(false).Flag(false)
	// base_q_idx, no delta q, no qmatrix, no segmentation, no delta_q_present
	w.Bits(100, 8).Flag(false).Flag(false).Flag(false).Flag(false).Flag(false).Flag(false)
	// loop filter levels and sharpness
	w.Bits(10, 6).Bits(8, 6).Bits(4, 6).Bits(4, 6).Bits(0, 3)
	// delta enabled and updated, no single delta updated
	w.Flag(true).Flag(true).Bits(0, 10)
	// cdef damping, bits, y strengths, uv strengths
	w.Bits(0, 2).Bits(0, 2).Bits(2, 4).Bits(3, 2).Bits(1, 4).Bits(0, 2)
	// tx_mode_select, reduced_tx_set
	return w.Flag(true).Flag(false)
}

// writeInterFrameHeader writes an inter frame with order hint 1 that
// refreshes slot 0, references slots 0 to 6 and signals translation only
// global motion for LAST_FRAME.
func writeInterFrameHeader(w *bitstest.Writer) *bitstest.Writer {
	// show_existing_frame, INTER_FRAME, show_frame, error_resilient_mode
	w.Flag(false).Bits(1, 2).Flag(true).Flag(false)
	w.Flag(false).Flag(false)
	// frame_size_override_flag, order_hint, primary_ref_frame, refresh_frame_flags
	w.Flag(false).Bits(1, 7).Bits(0, 3).Bits(0x01, 8)
	w.Flag(false)
	for i := range RefsPerFrame {
		w.Bits(uint64(i), 3)
	}
	w.Flag(false)
	// allow_high_precision_mv, is_filter_switchable, is_motion_mode_switchable
	w.Flag(true).Flag(true).Flag(false)
	w.Flag(false)
	w.Flag(true).Flag(false).Flag(false)
	w.Bits(120, 8).Flag(false).Flag(false).Flag(false).Flag(false).Flag(false).Flag(false)
	// loop filter off
	w.Bits(0, 6).Bits(0, 6).Bits(0, 3).Flag(false)
	w.Bits(0, 16)
	// tx_mode_select, reference_select, reduced_tx_set
	w.Flag(false).Flag(false).Flag(false)
	// LAST_FRAME: is_global, is_rot_zoom, is_translation, then two subexp
	// coded parameters
	w.Flag(true).Flag(false).Flag(true).Bits(0b0010, 4).Bits(0b0001, 4)
	return w.Bits(0, RefsPerFrame-1)
}

func keyFrameContext(t *testing.T) *Context {
	t.Helper()

	ctx := NewContext(0)
	_, err := DecodeSequenceHeader(ctx, bits.NewReader(sequenceHeader(0)))
	require.NoError(t, err)
	_, err = DecodeFrameHeader(ctx, bits.NewReader(writeKeyFrameHeader(bitstest.NewWriter()).Trailing().Data()))
	require.NoError(t, err)
	ctx.EndFrame()
	return ctx
}

func TestDecodeSequenceHeader(t *testing.T) {
	t.Parallel()

	ctx := NewContext(0)
	sh, err := DecodeSequenceHeader(ctx, bits.NewReader(sequenceHeader(0x0101)))
	require.NoError(t, err)

	want := &SequenceHeader{
		Profile: ProfileMain,
		OperatingPoints: []OperatingPoint{
			{Idc: 0x0101, SeqLevelIdx: 8, InitialDisplayDelay: 10},
		},
		FrameWidthBitsMinus1:       10,
		FrameHeightBitsMinus1:      9,
		MaxFrameWidthMinus1:        1919,
		MaxFrameHeightMinus1:       1079,
		EnableFilterIntra:          true,
		EnableIntraEdgeFilter:      true,
		EnableOrderHint:            true,
		SeqForceScreenContentTools: SelectScreenContentTools,
		SeqForceIntegerMv:          SelectIntegerMv,
		OrderHintBits:              7,
		EnableCdef:                 true,
		ColorConfig: ColorConfig{
			BitDepth:                8,
			ColorPrimaries:          CpUnspecified,
			TransferCharacteristics: TcUnspecified,
			MatrixCoefficients:      McUnspecified,
			SubsamplingX:            true,
			SubsamplingY:            true,
		},
	}
	if diff := cmp.Diff(want, sh); diff != "" {
		t.Fatalf("sequence header mismatch (-want +got):\n%s", diff)
	}

	require.Same(t, sh, ctx.SequenceHeader)
	require.Equal(t, uint16(0x0101), ctx.OperatingPointIdc)
	require.Equal(t, uint8(3), ctx.NumPlanes)
	require.Equal(t, uint8(7), ctx.OrderHintBits)
	_, ok := sh.FrameRate()
	require.False(t, ok)
}

func TestDecodeSequenceHeaderOperatingPointClamp(t *testing.T) {
	t.Parallel()

	ctx := NewContext(5)
	_, err := DecodeSequenceHeader(ctx, bits.NewReader(sequenceHeader(0x0103)))
	require.NoError(t, err)
	require.Zero(t, ctx.OperatingPoint)
	require.Equal(t, 5, ctx.RequestedOperatingPoint)
	require.Equal(t, uint16(0x0103), ctx.OperatingPointIdc)
}

func TestDecodeSequenceHeaderOperatingPointRequestKept(t *testing.T) {
	t.Parallel()

	ctx := NewContext(1)
	_, err := DecodeSequenceHeader(ctx, bits.NewReader(sequenceHeader(0x0103)))
	require.NoError(t, err)
	require.Zero(t, ctx.OperatingPoint)
	require.Equal(t, uint16(0x0103), ctx.OperatingPointIdc)

	// a later header with more operating points honours the request
	_, err = DecodeSequenceHeader(ctx, bits.NewReader(sequenceHeader(0x0103, 0x0101)))
	require.NoError(t, err)
	require.Equal(t, 1, ctx.OperatingPoint)
	require.Equal(t, uint16(0x0101), ctx.OperatingPointIdc)
}

func TestDecodeSequenceHeaderUnknownProfile(t *testing.T) {
	t.Parallel()

	w := bitstest.NewWriter().Bits(3, 3).Bits(0, 5)
	_, err := DecodeSequenceHeader(NewContext(0), bits.NewReader(w.Data()))
	var e *utils.UnknownValueError
	require.ErrorAs(t, err, &e)
	require.Equal(t, "seq_profile", e.Field)
}

func TestDecodeSequenceHeaderTimingInfo(t *testing.T) {
	t.Parallel()

	w := bitstest.NewWriter().Bits(0, 3).Flag(false).Flag(false)
	// timing info: 1001/60000 with equal_picture_interval, no decoder model
	w.Flag(true).Bits(1001, 32).Bits(60000, 32).Flag(true).UVLC(0).Flag(false)
	w.Flag(false).Bits(0, 5).Bits(0, 12).Bits(4, 5)
	w.Bits(10, 4).Bits(9, 4).Bits(1279, 11).Bits(719, 10).Flag(false)
	w.Flag(false).Flag(false).Flag(false)
	w.Flag(false).Flag(false).Flag(false).Flag(false)
	// no order hint, screen content tools forced off
	w.Flag(false)
	w.Flag(false).Bits(0, 1)
	w.Flag(false).Flag(false).Flag(false)
	w.Flag(false).Flag(false).Flag(false).Flag(false).Bits(0, 2).Flag(false)
	w.Flag(false).Trailing()

	sh, err := DecodeSequenceHeader(NewContext(0), bits.NewReader(w.Data()))
	require.NoError(t, err)
	require.Equal(t, &TimingInfo{NumUnitsInDisplayTick: 1001, TimeScale: 60000, NumTicksPerPictureMinus1: ptr(uint32(0))}, sh.TimingInfo)
	require.Equal(t, uint8(0), sh.SeqForceScreenContentTools)
	require.Equal(t, uint8(SelectIntegerMv), sh.SeqForceIntegerMv)
	require.Zero(t, sh.OrderHintBits)
	fps, ok := sh.FrameRate()
	require.True(t, ok)
	require.InDelta(t, 59.94, fps, 0.01)
	require.Equal(t, uint32(1280), sh.MaxFrameWidth())
}

func TestDecodeFrameHeaderWithoutSequenceHeader(t *testing.T) {
	t.Parallel()

	_, err := DecodeFrameHeader(NewContext(0), bits.NewReader([]byte{0x10}))
	require.ErrorIs(t, err, ErrSequenceHeaderNotFound)
}

func TestDecodeKeyFrameHeader(t *testing.T) {
	t.Parallel()

	ctx := NewContext(0)
	_, err := DecodeSequenceHeader(ctx, bits.NewReader(sequenceHeader(0)))
	require.NoError(t, err)
	fh, err := DecodeFrameHeader(ctx, bits.NewReader(writeKeyFrameHeader(bitstest.NewWriter()).Trailing().Data()))
	require.NoError(t, err)

	require.Equal(t, KeyFrame, fh.FrameType)
	require.True(t, fh.FrameIsIntra)
	require.True(t, fh.ShowFrame)
	require.False(t, fh.ShowableFrame)
	require.True(t, fh.ErrorResilientMode)
	require.True(t, fh.ForceIntegerMv)
	require.Equal(t, uint8(PrimaryRefNone), fh.PrimaryRefFrame)
	require.Equal(t, uint8(0xFF), fh.RefreshFrameFlags)
	require.Equal(t, FrameSize{
		FrameWidth:    1920,
		FrameHeight:   1080,
		UpscaledWidth: 1920,
		RenderWidth:   1920,
		RenderHeight:  1080,
		SuperresDenom: SuperresNum,
		MiCols:        480,
		MiRows:        270,
	}, fh.FrameSize)
	require.Equal(t, TileInfo{
		UniformTileSpacing: true,
		TileCols:           1,
		TileRows:           1,
		MiColStarts:        []uint32{0, 480},
		MiRowStarts:        []uint32{0, 270},
	}, fh.TileInfo)
	require.Equal(t, uint8(100), fh.Quantization.BaseQIdx)
	require.False(t, fh.CodedLossless)
	require.Equal(t, LoopFilterParams{
		Level:        [4]uint8{10, 8, 4, 4},
		DeltaEnabled: true,
		DeltaUpdate:  true,
		Deltas:       defaultLoopFilterDeltas,
	}, fh.LoopFilter)
	require.Equal(t, CdefParams{
		Damping:       3,
		YPriStrength:  []uint8{2},
		YSecStrength:  []uint8{4},
		UVPriStrength: []uint8{1},
		UVSecStrength: []uint8{0},
	}, fh.Cdef)
	require.Equal(t, TxModeSelect, fh.TxMode)
	require.Nil(t, fh.FilmGrain)
	for ref := IntraFrame; ref <= AltrefFrame; ref++ {
		require.Equal(t, GlobalMotion{Type: WarpIdentity, Params: defaultGmParams}, fh.GlobalMotion[ref])
	}

	for i, slot := range ctx.Refs {
		require.True(t, slot.Valid, "slot %d", i)
		require.Equal(t, KeyFrame, slot.FrameType)
		require.Equal(t, fh.FrameSize, slot.Size)
		require.Equal(t, defaultLoopFilterDeltas, slot.LoopFilterDeltas)
	}
	require.True(t, ctx.SeenFrameHeader)
	require.Equal(t, uint32(480), ctx.FrameSize.MiCols)
}

func TestDecodeFrameHeaderCopy(t *testing.T) {
	t.Parallel()

	ctx := NewContext(0)
	_, err := DecodeSequenceHeader(ctx, bits.NewReader(sequenceHeader(0)))
	require.NoError(t, err)
	first, err := DecodeFrameHeader(ctx, bits.NewReader(writeKeyFrameHeader(bitstest.NewWriter()).Trailing().Data()))
	require.NoError(t, err)

	// a repeated header is not read again
	again, err := DecodeFrameHeader(ctx, bits.NewReader(nil))
	require.NoError(t, err)
	require.NotSame(t, first, again)
	require.Equal(t, first, again)
}

func TestDecodeInterFrameHeader(t *testing.T) {
	t.Parallel()

	ctx := keyFrameContext(t)
	fh, err := DecodeFrameHeader(ctx, bits.NewReader(writeInterFrameHeader(bitstest.NewWriter()).Trailing().Data()))
	require.NoError(t, err)

	require.Equal(t, InterFrame, fh.FrameType)
	require.False(t, fh.FrameIsIntra)
	require.True(t, fh.ShowableFrame)
	require.Equal(t, uint32(1), fh.OrderHint)
	require.Equal(t, [RefsPerFrame]uint8{0, 1, 2, 3, 4, 5, 6}, fh.RefFrameIdx)
	require.True(t, fh.AllowHighPrecisionMv)
	require.Equal(t, FilterSwitchable, fh.InterpolationFilter)
	require.Equal(t, TxModeLargest, fh.TxMode)
	require.Equal(t, [TotalRefsPerFrame]bool{}, fh.RefFrameSignBias)
	require.Equal(t, defaultLoopFilterDeltas, fh.LoopFilter.Deltas)
	require.Equal(t, []uint8{0}, fh.Cdef.YPriStrength)

	require.Equal(t, GlobalMotion{
		Type:   WarpTranslation,
		Params: [6]int32{8192, -8192, 1 << WarpedModelPrecBits, 0, 0, 1 << WarpedModelPrecBits},
	}, fh.GlobalMotion[LastFrame])
	for ref := Last2Frame; ref <= AltrefFrame; ref++ {
		require.Equal(t, WarpIdentity, fh.GlobalMotion[ref].Type)
	}

	require.Equal(t, InterFrame, ctx.Refs[0].FrameType)
	require.Equal(t, uint32(1), ctx.Refs[0].OrderHint)
	require.Equal(t, fh.GlobalMotion, ctx.Refs[0].GlobalMotion)
	for i := 1; i < NumRefFrames; i++ {
		require.Equal(t, KeyFrame, ctx.Refs[i].FrameType)
		require.Zero(t, ctx.Refs[i].OrderHint)
	}
}

func TestDecodeInterFrameMissingReference(t *testing.T) {
	t.Parallel()

	ctx := keyFrameContext(t)
	ctx.Refs[4].Valid = false
	refs := ctx.Refs

	_, err := DecodeFrameHeader(ctx, bits.NewReader(writeInterFrameHeader(bitstest.NewWriter()).Trailing().Data()))
	require.ErrorIs(t, err, ErrReferenceFrameNotFound)
	var e *utils.MissingReferenceError
	require.ErrorAs(t, err, &e)
	require.Equal(t, uint64(4), e.ID)

	// a failed header leaves the context alone
	require.Equal(t, refs, ctx.Refs)
	require.False(t, ctx.SeenFrameHeader)
}

func TestShowExistingFrame(t *testing.T) {
	t.Parallel()

	t.Run("key frame", func(t *testing.T) {
		t.Parallel()

		ctx := keyFrameContext(t)
		w := bitstest.NewWriter().Flag(true).Bits(3, 3).Trailing()
		fh, err := DecodeFrameHeader(ctx, bits.NewReader(w.Data()))
		require.NoError(t, err)
		require.True(t, fh.ShowExistingFrame)
		require.Equal(t, uint8(3), fh.FrameToShowMapIdx)
		require.Equal(t, KeyFrame, fh.FrameType)
		require.Equal(t, uint8(0xFF), fh.RefreshFrameFlags)
		require.Equal(t, uint32(1920), fh.FrameWidth)
		require.False(t, ctx.SeenFrameHeader)
	})

	t.Run("empty slot", func(t *testing.T) {
		t.Parallel()

		ctx := NewContext(0)
		_, err := DecodeSequenceHeader(ctx, bits.NewReader(sequenceHeader(0)))
		require.NoError(t, err)
		w := bitstest.NewWriter().Flag(true).Bits(2, 3).Trailing()
		_, err = DecodeFrameHeader(ctx, bits.NewReader(w.Data()))
		require.True(t, errors.Is(err, ErrReferenceFrameNotFound))
	})
}

func TestReducedStillPicture(t *testing.T) {
	t.Parallel()

	seq := bitstest.NewWriter()
	// main profile, still_picture, reduced_still_picture_header, seq_level_idx
	seq.Bits(0, 3).Flag(true).Flag(true).Bits(0, 5)
	seq.Bits(7, 4).Bits(7, 4).Bits(255, 8).Bits(255, 8)
	seq.Flag(false).Flag(false).Flag(false)
	seq.Flag(false).Flag(false).Flag(false)
	seq.Flag(false).Flag(false).Flag(false).Flag(false).Bits(0, 2).Flag(false)
	seq.Flag(false).Trailing()

	ctx := NewContext(0)
	sh, err := DecodeSequenceHeader(ctx, bits.NewReader(seq.Data()))
	require.NoError(t, err)
	require.True(t, sh.ReducedStillPictureHeader)
	require.Len(t, sh.OperatingPoints, 1)
	require.Equal(t, uint8(SelectScreenContentTools), sh.SeqForceScreenContentTools)
	require.Zero(t, sh.OrderHintBits)

	w := bitstest.NewWriter()
	// disable_cdf_update, allow_screen_content_tools, render_and_frame_size_different
	w.Flag(false).Flag(false).Flag(false)
	w.Flag(true).Flag(false).Flag(false)
	// lossless: base_q_idx 0 and no deltas
	w.Bits(0, 8).Flag(false).Flag(false).Flag(false).Flag(false).Flag(false)
	w.Flag(false).Trailing()

	fh, err := DecodeFrameHeader(ctx, bits.NewReader(w.Data()))
	require.NoError(t, err)
	require.Equal(t, KeyFrame, fh.FrameType)
	require.True(t, fh.ShowFrame)
	require.True(t, fh.ErrorResilientMode)
	require.True(t, fh.DisableFrameEndUpdateCdf)
	require.Equal(t, uint32(256), fh.FrameWidth)
	require.Equal(t, uint32(64), fh.MiCols)
	require.True(t, fh.CodedLossless)
	require.True(t, fh.AllLossless)
	require.Equal(t, [MaxSegments]bool{true, true, true, true, true, true, true, true}, fh.Lossless)
	require.Equal(t, TxModeOnly4x4, fh.TxMode)
	require.Equal(t, uint8(3), fh.Cdef.Damping)
	require.False(t, fh.LoopRestoration.UsesLr)
}

func TestSetFrameRefs(t *testing.T) {
	t.Parallel()

	seq := &SequenceHeader{EnableOrderHint: true, OrderHintBits: 7}
	ctx := &Context{SequenceHeader: seq, OrderHintBits: 7}
	d := &frameHeaderDecoder{
		ctx: ctx,
		seq: seq,
		fh:  &FrameHeader{OrderHint: 10, LastFrameIdx: 0, GoldFrameIdx: 3},
	}
	for i, hint := range []uint32{9, 8, 7, 6, 12, 11, 5, 13} {
		d.refs[i] = RefSlot{Valid: true, OrderHint: hint}
	}

	d.setFrameRefs()
	// LAST, LAST2, LAST3, GOLDEN, BWDREF, ALTREF2, ALTREF
	require.Equal(t, [RefsPerFrame]uint8{0, 1, 2, 3, 5, 4, 7}, d.fh.RefFrameIdx)
}

func TestSetFrameRefsNoBackward(t *testing.T) {
	t.Parallel()

	seq := &SequenceHeader{EnableOrderHint: true, OrderHintBits: 7}
	ctx := &Context{SequenceHeader: seq, OrderHintBits: 7}
	d := &frameHeaderDecoder{
		ctx: ctx,
		seq: seq,
		fh:  &FrameHeader{OrderHint: 20, LastFrameIdx: 7, GoldFrameIdx: 0},
	}
	for i, hint := range []uint32{10, 11, 12, 13, 14, 15, 16, 19} {
		d.refs[i] = RefSlot{Valid: true, OrderHint: hint}
	}

	d.setFrameRefs()
	require.Equal(t, [RefsPerFrame]uint8{7, 6, 5, 0, 4, 3, 2}, d.fh.RefFrameIdx)
}

func TestRelativeDist(t *testing.T) {
	t.Parallel()

	ctx := &Context{SequenceHeader: &SequenceHeader{EnableOrderHint: true}, OrderHintBits: 3}
	require.Equal(t, int32(1), ctx.relativeDist(0, 7))
	require.Equal(t, int32(-1), ctx.relativeDist(7, 0))
	require.Equal(t, int32(-4), ctx.relativeDist(4, 0))
	require.Equal(t, int32(3), ctx.relativeDist(3, 0))

	ctx.SequenceHeader.EnableOrderHint = false
	require.Zero(t, ctx.relativeDist(3, 0))
}

func TestDecodeSubexp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		w       *bitstest.Writer
		numSyms int32
		want    int32
	}{
		{name: "first bucket", w: bitstest.NewWriter().Flag(false).Bits(5, 3), numSyms: 1025, want: 5},
		{name: "second bucket", w: bitstest.NewWriter().Flag(true).Flag(false).Bits(2, 3), numSyms: 1025, want: 10},
		{name: "third bucket", w: bitstest.NewWriter().Flag(true).Flag(true).Flag(false).Bits(1, 4), numSyms: 1025, want: 17},
		{name: "final ns", w: bitstest.NewWriter().Bits(3, 4), numSyms: 20, want: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := bits.NewFieldReader(bits.NewReader(tt.w.Data()))
			require.Equal(t, tt.want, decodeSubexp(f, tt.numSyms))
			require.NoError(t, f.Err())
		})
	}

	require.Equal(t, int32(9), inverseRecenter(4, 9))
	require.Equal(t, int32(3), inverseRecenter(4, 1))
	require.Equal(t, int32(5), inverseRecenter(4, 2))
}

func TestLoadFilmGrainParams(t *testing.T) {
	t.Parallel()

	saved := &FilmGrainParams{GrainSeed: 7, UpdateGrain: true, PointY: []FilmGrainPoint{{Value: 16, Scaling: 32}}}
	tests := []struct {
		name string
		slot RefSlot
		want *FilmGrainParams
		err  error
	}{
		{name: "saved parameters", slot: RefSlot{Valid: true, FilmGrain: saved}, want: &FilmGrainParams{
			GrainSeed: 0x1234,
			RefIdx:    func() *uint8 { i := uint8(2); return &i }(),
			PointY:    saved.PointY,
		}},
		{name: "slot without grain", slot: RefSlot{Valid: true}},
		{name: "invalid slot", slot: RefSlot{FilmGrain: saved}, err: ErrReferenceFrameNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			// apply_grain, grain_seed, update_grain, film_grain_params_ref_idx
			w := bitstest.NewWriter().Flag(true).Bits(0x1234, 16).Flag(false).Bits(2, 3)
			d := &frameHeaderDecoder{
				f:   bits.NewFieldReader(bits.NewReader(w.Trailing().Data())),
				ctx: NewContext(0),
				seq: &SequenceHeader{FilmGrainParamsPresent: true},
				fh:  &FrameHeader{FrameType: InterFrame, ShowFrame: true},
			}
			d.refs[2] = tt.slot
			d.filmGrainParams()

			if tt.err != nil {
				require.ErrorIs(t, d.f.Err(), tt.err)
				return
			}
			require.NoError(t, d.f.Err())
			require.Empty(t, cmp.Diff(tt.want, d.fh.FilmGrain))
			require.Equal(t, uint16(7), saved.GrainSeed)
		})
	}
}
