package av1

import "github.com/ugparu/bitsyntax/utils/bits"

// TileInfo is tile_info().
type TileInfo struct {
	UniformTileSpacing bool
	TileColsLog2       uint32
	TileRowsLog2       uint32
	TileCols           uint32
	TileRows           uint32
	// MiColStarts and MiRowStarts hold TileCols+1 and TileRows+1 entries,
	// the last one being MiCols and MiRows.
	MiColStarts         []uint32
	MiRowStarts         []uint32
	ContextUpdateTileID uint32
	// TileSizeBytes is tile_size_bytes_minus_1 + 1, 0 for single tile frames.
	TileSizeBytes uint32
}

// NumTiles returns TileCols * TileRows.
func (t *TileInfo) NumTiles() uint32 {
	return t.TileCols * t.TileRows
}

func tileLog2(blkSize, target uint32) uint32 {
	var k uint32
	for (blkSize << k) < target {
		k++
	}
	return k
}

//nolint:mnd // superblock geometry
func (d *frameHeaderDecoder) tileInfo() {
	f, fh := d.f, d.fh
	if f.Err() != nil {
		return
	}
	ti := &fh.TileInfo

	var sbCols, sbRows, sbShift uint32
	if d.seq.Use128x128Superblock {
		sbCols, sbRows, sbShift = (fh.MiCols+31)>>5, (fh.MiRows+31)>>5, 5
	} else {
		sbCols, sbRows, sbShift = (fh.MiCols+15)>>4, (fh.MiRows+15)>>4, 4
	}
	sbSize := sbShift + 2
	maxTileWidthSb := uint32(MaxTileWidth) >> sbSize
	maxTileAreaSb := uint32(MaxTileArea) >> (2 * sbSize)
	minLog2TileCols := tileLog2(maxTileWidthSb, sbCols)
	maxLog2TileCols := tileLog2(1, min(sbCols, MaxTileCols))
	maxLog2TileRows := tileLog2(1, min(sbRows, MaxTileRows))
	minLog2Tiles := max(minLog2TileCols, tileLog2(maxTileAreaSb, sbRows*sbCols))

	ti.UniformTileSpacing = f.Flag("uniform_tile_spacing_flag")
	if ti.UniformTileSpacing {
		ti.TileColsLog2 = incrementLog2(f, minLog2TileCols, maxLog2TileCols, "increment_tile_cols_log2")
		tileWidthSb := (sbCols + 1<<ti.TileColsLog2 - 1) >> ti.TileColsLog2
		ti.MiColStarts = uniformStarts(sbCols, tileWidthSb, sbShift, fh.MiCols)
		ti.TileCols = uint32(len(ti.MiColStarts) - 1) //nolint:gosec // bounded by sbCols

		minLog2TileRows := uint32(0)
		if minLog2Tiles > ti.TileColsLog2 {
			minLog2TileRows = minLog2Tiles - ti.TileColsLog2
		}
		ti.TileRowsLog2 = incrementLog2(f, minLog2TileRows, maxLog2TileRows, "increment_tile_rows_log2")
		tileHeightSb := (sbRows + 1<<ti.TileRowsLog2 - 1) >> ti.TileRowsLog2
		ti.MiRowStarts = uniformStarts(sbRows, tileHeightSb, sbShift, fh.MiRows)
		ti.TileRows = uint32(len(ti.MiRowStarts) - 1) //nolint:gosec // bounded by sbRows
	} else {
		var widestTileSb uint32
		ti.MiColStarts, widestTileSb = explicitStarts(f, sbCols, maxTileWidthSb, sbShift, fh.MiCols, "width_in_sbs_minus_1")
		ti.TileCols = uint32(len(ti.MiColStarts) - 1) //nolint:gosec // bounded by sbCols
		ti.TileColsLog2 = tileLog2(1, ti.TileCols)

		if minLog2Tiles > 0 {
			maxTileAreaSb = (sbRows * sbCols) >> (minLog2Tiles + 1)
		} else {
			maxTileAreaSb = sbRows * sbCols
		}
		maxTileHeightSb := max(maxTileAreaSb/max(widestTileSb, 1), 1)
		ti.MiRowStarts, _ = explicitStarts(f, sbRows, maxTileHeightSb, sbShift, fh.MiRows, "height_in_sbs_minus_1")
		ti.TileRows = uint32(len(ti.MiRowStarts) - 1) //nolint:gosec // bounded by sbRows
		ti.TileRowsLog2 = tileLog2(1, ti.TileRows)
	}

	if ti.TileColsLog2 > 0 || ti.TileRowsLog2 > 0 {
		ti.ContextUpdateTileID = f.Bits(int(ti.TileRowsLog2+ti.TileColsLog2), "context_update_tile_id")
		ti.TileSizeBytes = f.Bits(2, "tile_size_bytes_minus_1") + 1
	}
}

func incrementLog2(f *bits.FieldReader, lo, hi uint32, field string) uint32 {
	v := lo
	for v < hi && f.Flag(field) {
		v++
	}
	return v
}

func uniformStarts(sbCount, tileSb, sbShift, miCount uint32) []uint32 {
	var starts []uint32
	for start := uint32(0); start < sbCount; start += tileSb {
		starts = append(starts, start<<sbShift)
	}
	return append(starts, miCount)
}

// explicitStarts reads the ns() coded tile sizes of non-uniform spacing and
// returns the start positions together with the largest tile size.
func explicitStarts(f *bits.FieldReader, sbCount, maxSb, sbShift, miCount uint32, field string) ([]uint32, uint32) {
	var starts []uint32
	var widest uint32
	for start := uint32(0); start < sbCount && f.Err() == nil; {
		starts = append(starts, start<<sbShift)
		size := f.NS(min(sbCount-start, maxSb), field) + 1
		widest = max(widest, size)
		start += size
	}
	return append(starts, miCount), widest
}
