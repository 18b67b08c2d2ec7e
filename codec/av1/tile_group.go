package av1

import (
	"github.com/ugparu/bitsyntax/utils/bits"
	"github.com/ugparu/bitsyntax/utils/logger"
)

// Tile is the coded data of one tile. Data borrows from the OBU payload.
type Tile struct {
	Num  uint32
	Row  uint32
	Col  uint32
	Data []byte
}

// TileGroup is tile_group_obu() with the tile payloads split but not decoded.
type TileGroup struct {
	StartAndEndPresent bool
	Start              uint32
	End                uint32
	Tiles              []Tile
	// LastInFrame is set when the group holds the final tile of the frame.
	LastInFrame bool
}

// DecodeTileGroup reads tile_group_obu() for the frame whose header was the
// last one decoded into ctx. The cursor must be byte aligned and the rest of
// it is the tile group.
func DecodeTileGroup(ctx *Context, r *bits.Reader) (*TileGroup, error) {
	if ctx.FrameHeader == nil || !ctx.SeenFrameHeader {
		return nil, ErrFrameHeaderNotFound
	}
	ti := &ctx.FrameHeader.TileInfo
	numTiles := ti.NumTiles()
	f := bits.NewFieldReader(r)

	tg := &TileGroup{End: numTiles - 1}
	if numTiles > 1 {
		tg.StartAndEndPresent = f.Flag("tile_start_and_end_present_flag")
	}
	if tg.StartAndEndPresent {
		tileBits := int(ti.TileColsLog2 + ti.TileRowsLog2)
		tg.Start = f.Bits(tileBits, "tg_start")
		tg.End = f.Bits(tileBits, "tg_end")
	}
	f.Align()
	if err := f.Err(); err != nil {
		return nil, wrap("tile_group", err)
	}
	if tg.Start > tg.End || tg.End >= numTiles {
		return nil, ErrInvalidTileGroup
	}

	tg.Tiles = make([]Tile, 0, tg.End-tg.Start+1)
	for num := tg.Start; num <= tg.End; num++ {
		var size int
		if num == tg.End {
			size = r.BitsLeft() / 8 //nolint:mnd
		} else {
			size = int(f.LE(int(ti.TileSizeBytes), "tile_size_minus_1")) + 1 //nolint:gosec // at most 4 bytes
		}
		tg.Tiles = append(tg.Tiles, Tile{
			Num:  num,
			Row:  num / ti.TileCols,
			Col:  num % ti.TileCols,
			Data: f.Bytes(size, "tile_data"),
		})
		if f.Err() != nil {
			break
		}
	}
	if err := f.Err(); err != nil {
		return nil, wrap("tile_group", err)
	}

	ctx.tileNum = tg.End + 1
	if tg.End == numTiles-1 {
		tg.LastInFrame = true
		logger.Debugf(ctx, "frame complete, %d tiles", numTiles)
		ctx.EndFrame()
	}
	return tg, nil
}
