package av1

import "github.com/ugparu/bitsyntax/utils/bits"

// TileListEntry is tile_list_entry(). Data borrows from the OBU payload.
type TileListEntry struct {
	AnchorFrameIdx uint8
	AnchorTileRow  uint8
	AnchorTileCol  uint8
	Data           []byte
}

// TileList is tile_list_obu() of large scale tile streams.
type TileList struct {
	OutputFrameWidthInTiles  uint32
	OutputFrameHeightInTiles uint32
	Entries                  []TileListEntry
}

// DecodeTileList reads tile_list_obu().
//
//nolint:mnd,gosec // field widths
func DecodeTileList(r *bits.Reader) (*TileList, error) {
	f := bits.NewFieldReader(r)
	tl := &TileList{
		OutputFrameWidthInTiles:  f.Bits(8, "output_frame_width_in_tiles_minus_1") + 1,
		OutputFrameHeightInTiles: f.Bits(8, "output_frame_height_in_tiles_minus_1") + 1,
	}
	count := int(f.Bits(16, "tile_count_minus_1")) + 1
	if f.Err() == nil {
		tl.Entries = make([]TileListEntry, 0, count)
	}
	for i := 0; i < count && f.Err() == nil; i++ {
		e := TileListEntry{
			AnchorFrameIdx: uint8(f.Bits(8, "anchor_frame_idx")),
			AnchorTileRow:  uint8(f.Bits(8, "anchor_tile_row")),
			AnchorTileCol:  uint8(f.Bits(8, "anchor_tile_col")),
		}
		size := int(f.Bits(16, "tile_data_size_minus_1")) + 1
		e.Data = f.Bytes(size, "coded_tile_data")
		tl.Entries = append(tl.Entries, e)
	}
	if err := f.Err(); err != nil {
		return nil, wrap("tile_list", err)
	}
	return tl, nil
}
