package av1

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/ugparu/bitsyntax/utils"
	"github.com/ugparu/bitsyntax/utils/bits/bitstest"
)

func keyFrameObu() []byte {
	return obu([]byte{hdrFrame}, writeKeyFrameHeader(bitstest.NewWriter()).Align().Bytes(0xAA, 0xBB).Data())
}

func TestDecoderDecode(t *testing.T) {
	t.Parallel()

	dec := NewDecoder(Options{})
	obus, err := dec.Decode(stream(
		obu([]byte{hdrTemporalDelimiter}, nil),
		obu([]byte{hdrSequenceHeader}, sequenceHeader(0)),
		keyFrameObu(),
	))
	require.NoError(t, err)
	require.Len(t, obus, 3)
	require.Equal(t, TemporalDelimiter{}, obus[0].Body)
	require.Same(t, dec.SequenceHeader(), obus[1].Body)

	frame, ok := obus[2].Body.(*Frame)
	require.True(t, ok)
	require.Same(t, dec.FrameHeader(), frame.Header)
	require.Equal(t, KeyFrame, frame.Header.FrameType)
	require.True(t, frame.TileGroup.LastInFrame)
	require.Equal(t, []Tile{{Data: []byte{0xAA, 0xBB}}}, frame.TileGroup.Tiles)
	for i, slot := range dec.ctx.Refs {
		require.True(t, slot.Valid, "slot %d", i)
	}

	obus, err = dec.Decode(obu([]byte{hdrFrame}, writeInterFrameHeader(bitstest.NewWriter()).Align().Bytes(0xCC).Data()))
	require.NoError(t, err)
	require.Len(t, obus, 1)
	frame = obus[0].Body.(*Frame) //nolint:forcetypeassert
	require.Equal(t, InterFrame, frame.Header.FrameType)
	require.Equal(t, uint32(1), frame.Header.OrderHint)
	require.Equal(t, []byte{0xCC}, frame.TileGroup.Tiles[0].Data)
	require.Equal(t, uint32(1), dec.ctx.Refs[0].OrderHint)
	require.Equal(t, uint32(0), dec.ctx.Refs[1].OrderHint)
}

func TestDecoderFrameHeaderCopy(t *testing.T) {
	t.Parallel()

	header := writeKeyFrameHeader(bitstest.NewWriter()).Trailing().Data()
	dec := NewDecoder(Options{})
	obus, err := dec.Decode(stream(
		obu([]byte{hdrSequenceHeader}, sequenceHeader(0)),
		obu([]byte{hdrFrameHeader}, header),
		obu([]byte{hdrFrameHeader}, header),
		obu([]byte{hdrTileGroup}, []byte{0xAA}),
	))
	require.NoError(t, err)
	require.Len(t, obus, 4)

	first, copied := obus[1].Body.(*FrameHeader), obus[2].Body.(*FrameHeader) //nolint:forcetypeassert
	require.NotSame(t, first, copied)
	require.Equal(t, first, copied)

	tg := obus[3].Body.(*TileGroup) //nolint:forcetypeassert
	require.True(t, tg.LastInFrame)
	require.False(t, dec.ctx.SeenFrameHeader)

	// frame is complete, a tile group needs a new frame header
	_, err = dec.Decode(obu([]byte{hdrTileGroup}, []byte{0xAA}))
	require.ErrorIs(t, err, ErrFrameHeaderNotFound)
}

func TestDecoderOperatingPointDrop(t *testing.T) {
	t.Parallel()

	dec := NewDecoder(Options{})
	obus, err := dec.Decode(stream(
		obu([]byte{hdrSequenceHeader}, sequenceHeader(0x101)),
		// temporal layer 1 frame header, garbage payload never parsed
		obu([]byte{hdrFrameHeader | extensionFlag, 0x20}, []byte{0xFF, 0xFF}),
		obu([]byte{hdrTemporalDelimiter | extensionFlag, 0x20}, nil),
	))
	require.NoError(t, err)
	require.Len(t, obus, 2)
	require.Equal(t, ObuSequenceHeader, obus[0].Header.Type)
	require.Equal(t, ObuTemporalDelimiter, obus[1].Header.Type)
	require.Equal(t, uint16(0x101), dec.ctx.OperatingPointIdc)
	require.Equal(t, uint8(1), dec.ctx.TemporalID)
}

func TestDecoderDecodePartial(t *testing.T) {
	t.Parallel()

	obus, err := NewDecoder(Options{}).Decode(stream(
		obu([]byte{hdrTemporalDelimiter}, nil),
		keyFrameObu(),
	))
	require.ErrorIs(t, err, ErrSequenceHeaderNotFound)
	require.Len(t, obus, 1)
}

func TestDecoderDecodeObu(t *testing.T) {
	t.Parallel()

	dec := NewDecoder(Options{})
	o, err := dec.DecodeObu([]byte{0x78, 9, 9, 0xFF}, 3)
	require.NoError(t, err)
	require.Equal(t, Padding{Data: []byte{9, 9}}, o.Body)

	_, err = dec.DecodeObu([]byte{0x78, 9, 9}, 0)
	require.ErrorIs(t, err, ErrObuSizeOverrun)
	_, err = dec.DecodeObu([]byte{0x78, 9, 9}, 4)
	require.ErrorIs(t, err, ErrObuSizeOverrun)
}

func TestDecoderConcurrent(t *testing.T) {
	t.Parallel()

	dec := NewDecoder(Options{})
	_, err := dec.Decode(obu([]byte{hdrSequenceHeader}, sequenceHeader(0)))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = dec.Decode(obu([]byte{hdrPadding}, []byte{1}))
			_ = dec.SequenceHeader()
		}()
	}
	wg.Wait()
	require.NotNil(t, dec.SequenceHeader())
}

func recordWith(header []byte, obus ...[]byte) []byte {
	return append(header, stream(obus...)...)
}

func TestDecoderLoadRecord(t *testing.T) {
	t.Parallel()

	record := recordWith([]byte{0x81, 0x08, 0x0C, 0x00}, obu([]byte{hdrSequenceHeader}, sequenceHeader(0)))
	par, err := NewDecoder(Options{}).LoadRecord(record)
	require.NoError(t, err)
	require.Equal(t, uint(1920), par.Width())
	require.Equal(t, uint(1080), par.Height())
	require.Equal(t, uint(0), par.FPS())
	require.Equal(t, "av01.0.08M.08", par.Tag())
	require.Equal(t, record, par.Record)
	require.True(t, par.RecordInfo.ChromaSubsamplingX)
	require.True(t, par.RecordInfo.ChromaSubsamplingY)
	require.Nil(t, par.RecordInfo.InitialPresentationDelayMinusOne)
}

func TestDecoderLoadRecordInvalid(t *testing.T) {
	t.Parallel()

	sh := obu([]byte{hdrSequenceHeader}, sequenceHeader(0))

	_, err := NewDecoder(Options{}).LoadRecord([]byte{0x81, 0x08})
	require.ErrorIs(t, err, ErrConfRecordInvalid)

	_, err = NewDecoder(Options{}).LoadRecord(recordWith([]byte{0x80, 0x08, 0x0C, 0x00}, sh))
	require.ErrorIs(t, err, ErrConfRecordInvalid)

	// record says high profile, sequence header says main
	_, err = NewDecoder(Options{}).LoadRecord(recordWith([]byte{0x81, 0x28, 0x0C, 0x00}, sh))
	require.ErrorIs(t, err, ErrConfRecordInvalid)

	_, err = NewDecoder(Options{}).LoadRecord(recordWith([]byte{0x81, 0x08, 0x0C, 0x00}, obu([]byte{hdrPadding}, []byte{0})))
	require.ErrorAs(t, err, &utils.NoCodecDataError{})
}

func TestCodecConfigurationRecord(t *testing.T) {
	t.Parallel()

	b := []byte{0x81, 0x4D, 0xE1, 0x13, 0x12, 0x00}
	var rec CodecConfigurationRecord
	n, err := rec.Unmarshal(b)
	require.NoError(t, err)
	require.Equal(t, len(b), n)
	require.Equal(t, CodecConfigurationRecord{
		SeqProfile:                       ProfileProfessional,
		SeqLevelIdx0:                     13,
		SeqTier0:                         true,
		HighBitdepth:                     true,
		TwelveBit:                        true,
		ChromaSamplePosition:             1,
		InitialPresentationDelayMinusOne: ptr(uint8(3)),
		ConfigOBUs:                       []byte{0x12, 0x00},
	}, rec)
	require.Equal(t, uint8(12), rec.BitDepth())

	out := make([]byte, rec.Len())
	require.Equal(t, len(b), rec.Marshal(out))
	require.Equal(t, b, out)

	par := NewCodecParameters(&rec, &SequenceHeader{})
	require.Equal(t, "av01.2.13H.12", par.Tag())
}
