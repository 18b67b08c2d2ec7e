package av1

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"github.com/ugparu/bitsyntax/utils"
	"github.com/ugparu/bitsyntax/utils/bits"
	"github.com/ugparu/bitsyntax/utils/bits/bitstest"
)

func TestDecodeMetadata(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		w    *bitstest.Writer
		want Metadata
	}{
		{
			name: "hdr cll",
			w:    bitstest.NewWriter().LEB128(1).Bits(1000, 16).Bits(400, 16),
			want: HdrCll{MaxCll: 1000, MaxFall: 400},
		},
		{
			name: "hdr mdcv",
			w: bitstest.NewWriter().LEB128(2).
				Bits(34000, 16).Bits(16000, 16).Bits(13250, 16).Bits(34500, 16).Bits(7500, 16).Bits(3000, 16).
				Bits(15635, 16).Bits(16450, 16).Bits(10000000, 32).Bits(50, 32),
			want: HdrMdcv{
				PrimaryChromaticityX:    [3]uint16{34000, 13250, 7500},
				PrimaryChromaticityY:    [3]uint16{16000, 34500, 3000},
				WhitePointChromaticityX: 15635,
				WhitePointChromaticityY: 16450,
				LuminanceMax:            10000000,
				LuminanceMin:            50,
			},
		},
		{
			name: "scalability mode without structure",
			w:    bitstest.NewWriter().LEB128(3).Bits(uint64(ScalabilityL1T3), 8),
			want: &Scalability{ModeIdc: ScalabilityL1T3},
		},
		{
			name: "scalability structure",
			w: bitstest.NewWriter().LEB128(3).Bits(uint64(ScalabilitySS), 8).
				// two layers with dimensions and one temporal group
				Bits(1, 2).Flag(true).Flag(false).Flag(true).Bits(0, 3).
				Bits(640, 16).Bits(360, 16).Bits(1280, 16).Bits(720, 16).
				Bits(1, 8).Bits(0, 3).Flag(true).Flag(false).Bits(1, 3).Bits(1, 8),
			want: &Scalability{
				ModeIdc: ScalabilitySS,
				Structure: &ScalabilityStructure{
					SpatialLayersCnt: 2,
					SpatialLayers:    []SpatialLayer{{MaxWidth: 640, MaxHeight: 360}, {MaxWidth: 1280, MaxHeight: 720}},
					TemporalGroups: []TemporalGroup{
						{TemporalSwitchingUpPoint: true, RefPicDiffs: []uint8{1}},
					},
				},
			},
		},
		{
			name: "itu-t t.35",
			w:    bitstest.NewWriter().LEB128(4).Bytes(0xB5, 0x00, 0x3C, 0x00, 0x01),
			want: ItutT35{CountryCode: 0xB5, Payload: []byte{0x00, 0x3C, 0x00, 0x01}},
		},
		{
			name: "itu-t t.35 extension",
			w:    bitstest.NewWriter().LEB128(4).Bytes(0xFF, 0x07, 0xAA),
			want: ItutT35{CountryCode: 0xFF, CountryCodeExtension: ptr(uint8(0x07)), Payload: []byte{0xAA}},
		},
		{
			name: "timecode full",
			w: bitstest.NewWriter().LEB128(5).
				Bits(1, 5).Flag(true).Flag(false).Flag(false).Bits(24, 9).
				Bits(59, 6).Bits(58, 6).Bits(23, 5).Bits(4, 5).Bits(9, 4),
			want: Timecode{
				CountingType:     1,
				FullTimestamp:    true,
				NFrames:          24,
				SecondsValue:     ptr(uint8(59)),
				MinutesValue:     ptr(uint8(58)),
				HoursValue:       ptr(uint8(23)),
				TimeOffsetLength: 4,
				TimeOffsetValue:  9,
			},
		},
		{
			name: "timecode seconds and minutes",
			w: bitstest.NewWriter().LEB128(5).
				Bits(0, 5).Flag(false).Flag(true).Flag(false).Bits(12, 9).
				Flag(true).Bits(30, 6).Flag(true).Bits(15, 6).Flag(false).Bits(0, 5),
			want: Timecode{
				Discontinuity: true,
				NFrames:       12,
				SecondsValue:  ptr(uint8(30)),
				MinutesValue:  ptr(uint8(15)),
			},
		},
		{
			name: "timecode frames only",
			w: bitstest.NewWriter().LEB128(5).
				Bits(0, 5).Flag(false).Flag(false).Flag(true).Bits(3, 9).Flag(false).Bits(0, 5),
			want: Timecode{CntDropped: true, NFrames: 3},
		},
		{
			name: "user private",
			w:    bitstest.NewWriter().LEB128(20).Bytes(1, 2, 3),
			want: UserPrivate{Type: 20, Payload: []byte{1, 2, 3}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			md, err := DecodeMetadata(bits.NewReader(tt.w.Data()))
			require.NoError(t, err)
			require.Equal(t, tt.want.MetadataType(), md.MetadataType())
			if diff := cmp.Diff(tt.want, md); diff != "" {
				t.Fatalf("metadata mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDecodeMetadataUnknown(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		w     *bitstest.Writer
		field string
	}{
		{name: "type zero", w: bitstest.NewWriter().LEB128(0).Bytes(0), field: "metadata_type"},
		{name: "type above user private", w: bitstest.NewWriter().LEB128(32).Bytes(0), field: "metadata_type"},
		{name: "scalability mode", w: bitstest.NewWriter().LEB128(3).Bits(29, 8), field: "scalability_mode_idc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := DecodeMetadata(bits.NewReader(tt.w.Data()))
			var e *utils.UnknownValueError
			require.ErrorAs(t, err, &e)
			require.Equal(t, tt.field, e.Field)
		})
	}
}

func TestDecodeMetadataTruncated(t *testing.T) {
	t.Parallel()

	_, err := DecodeMetadata(bits.NewReader(bitstest.NewWriter().LEB128(1).Bits(1000, 16).Data()))
	require.ErrorIs(t, err, bits.ErrUnexpectedEndOfData)
	require.ErrorContains(t, err, "max_fall")
}

func TestDecodeTileList(t *testing.T) {
	t.Parallel()

	payload := bitstest.NewWriter().
		Bits(1, 8).Bits(0, 8).Bits(1, 16).
		Bits(0, 8).Bits(0, 8).Bits(1, 8).Bits(1, 16).Bytes(0xDE, 0xAD).
		Bits(1, 8).Bits(0, 8).Bits(0, 8).Bits(0, 16).Bytes(0x42).
		Data()

	tl, err := DecodeTileList(bits.NewReader(payload))
	require.NoError(t, err)
	require.Equal(t, uint32(2), tl.OutputFrameWidthInTiles)
	require.Equal(t, uint32(1), tl.OutputFrameHeightInTiles)
	require.Equal(t, []TileListEntry{
		{AnchorTileCol: 1, Data: []byte{0xDE, 0xAD}},
		{AnchorFrameIdx: 1, Data: []byte{0x42}},
	}, tl.Entries)

	// coded_tile_data is not copied
	require.Same(t, &payload[9], &tl.Entries[0].Data[0])
	require.Same(t, &payload[len(payload)-1], &tl.Entries[1].Data[0])

	_, err = DecodeTileList(bits.NewReader(payload[:len(payload)-1]))
	require.ErrorIs(t, err, bits.ErrUnexpectedEndOfData)
}

func TestDecodeTileGroup(t *testing.T) {
	t.Parallel()

	twoTiles := func() *Context {
		ctx := NewContext(0)
		ctx.SeenFrameHeader = true
		ctx.FrameHeader = &FrameHeader{TileInfo: TileInfo{TileCols: 2, TileRows: 1, TileColsLog2: 1, TileSizeBytes: 1}}
		return ctx
	}

	t.Run("whole frame", func(t *testing.T) {
		t.Parallel()

		ctx := twoTiles()
		// tile_start_and_end_present_flag, tg_start 0, tg_end 1
		payload := bitstest.NewWriter().Flag(true).Bits(0, 1).Bits(1, 1).Align().
			Bytes(0x01, 0xAA, 0xBB, 0xCC).Data()
		tg, err := DecodeTileGroup(ctx, bits.NewReader(payload))
		require.NoError(t, err)
		require.Equal(t, &TileGroup{
			StartAndEndPresent: true,
			End:                1,
			Tiles: []Tile{
				{Num: 0, Data: []byte{0xAA, 0xBB}},
				{Num: 1, Col: 1, Data: []byte{0xCC}},
			},
			LastInFrame: true,
		}, tg)
		require.False(t, ctx.SeenFrameHeader)
	})

	t.Run("first tile only", func(t *testing.T) {
		t.Parallel()

		ctx := twoTiles()
		payload := bitstest.NewWriter().Flag(true).Bits(0, 1).Bits(0, 1).Align().Bytes(0xAA).Data()
		tg, err := DecodeTileGroup(ctx, bits.NewReader(payload))
		require.NoError(t, err)
		require.Len(t, tg.Tiles, 1)
		require.False(t, tg.LastInFrame)
		require.True(t, ctx.SeenFrameHeader)
	})

	t.Run("inverted range", func(t *testing.T) {
		t.Parallel()

		payload := bitstest.NewWriter().Flag(true).Bits(1, 1).Bits(0, 1).Align().Bytes(0xAA).Data()
		_, err := DecodeTileGroup(twoTiles(), bits.NewReader(payload))
		require.ErrorIs(t, err, ErrInvalidTileGroup)
	})

	t.Run("tile size overrun", func(t *testing.T) {
		t.Parallel()

		payload := bitstest.NewWriter().Flag(false).Align().Bytes(0x05, 0xAA).Data()
		_, err := DecodeTileGroup(twoTiles(), bits.NewReader(payload))
		require.ErrorIs(t, err, bits.ErrUnexpectedEndOfData)
	})

	t.Run("no frame header", func(t *testing.T) {
		t.Parallel()

		_, err := DecodeTileGroup(NewContext(0), bits.NewReader([]byte{0}))
		require.ErrorIs(t, err, ErrFrameHeaderNotFound)
	})
}
