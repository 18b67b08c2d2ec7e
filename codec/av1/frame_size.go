package av1

//nolint:mnd // field widths
func (d *frameHeaderDecoder) frameSize() {
	f, seq, fh := d.f, d.seq, d.fh
	if fh.FrameSizeOverride {
		fh.FrameWidth = f.Bits(int(seq.FrameWidthBitsMinus1)+1, "frame_width_minus_1") + 1
		fh.FrameHeight = f.Bits(int(seq.FrameHeightBitsMinus1)+1, "frame_height_minus_1") + 1
	} else {
		fh.FrameWidth = seq.MaxFrameWidth()
		fh.FrameHeight = seq.MaxFrameHeight()
	}
	d.superresParams()
	fh.computeImageSize()
}

func (d *frameHeaderDecoder) superresParams() {
	f, fh := d.f, d.fh
	fh.UseSuperres = d.seq.EnableSuperres && f.Flag("use_superres")
	if fh.UseSuperres {
		fh.SuperresDenom = f.Bits(SuperresDenomBits, "coded_denom") + SuperresDenomMin
	} else {
		fh.SuperresDenom = SuperresNum
	}
	fh.UpscaledWidth = fh.FrameWidth
	fh.FrameWidth = (fh.UpscaledWidth*SuperresNum + fh.SuperresDenom/2) / fh.SuperresDenom //nolint:mnd
}

func (s *FrameSize) computeImageSize() {
	s.MiCols = 2 * ((s.FrameWidth + 7) >> 3)  //nolint:mnd
	s.MiRows = 2 * ((s.FrameHeight + 7) >> 3) //nolint:mnd
}

func (d *frameHeaderDecoder) renderSize() {
	f, fh := d.f, d.fh
	if f.Flag("render_and_frame_size_different") {
		fh.RenderWidth = f.Bits(16, "render_width_minus_1") + 1   //nolint:mnd
		fh.RenderHeight = f.Bits(16, "render_height_minus_1") + 1 //nolint:mnd
	} else {
		fh.RenderWidth = fh.UpscaledWidth
		fh.RenderHeight = fh.FrameHeight
	}
}

// frameSizeWithRefs implements frame_size_with_refs(): the size is either
// copied from one of the active references or coded explicitly.
func (d *frameHeaderDecoder) frameSizeWithRefs() {
	f, fh := d.f, d.fh
	for i := range RefsPerFrame {
		if !f.Flag("found_ref") {
			continue
		}
		ref := d.refs[fh.RefFrameIdx[i]].Size
		idx := uint8(i) //nolint:gosec // i < RefsPerFrame
		fh.FoundRef = &idx
		fh.UpscaledWidth = ref.UpscaledWidth
		fh.FrameWidth = fh.UpscaledWidth
		fh.FrameHeight = ref.FrameHeight
		fh.RenderWidth = ref.RenderWidth
		fh.RenderHeight = ref.RenderHeight
		d.superresParams()
		fh.computeImageSize()
		return
	}
	d.frameSize()
	d.renderSize()
}

// setFrameRefs implements the set_frame_refs() process of 7.8, which
// derives ref_frame_idx from last_frame_idx, gold_frame_idx and the order
// hints of the slots.
func (d *frameHeaderDecoder) setFrameRefs() {
	fh := d.fh

	var refIdx [RefsPerFrame]int
	for i := range refIdx {
		refIdx[i] = -1
	}
	refIdx[LastFrame-LastFrame] = int(fh.LastFrameIdx)
	refIdx[GoldenFrame-LastFrame] = int(fh.GoldFrameIdx)

	var used [NumRefFrames]bool
	used[fh.LastFrameIdx] = true
	used[fh.GoldFrameIdx] = true

	curFrameHint := int32(1) << (d.seq.OrderHintBits - 1)
	var shifted [NumRefFrames]int32
	for i := range shifted {
		shifted[i] = curFrameHint + d.ctx.relativeDist(d.refs[i].OrderHint, fh.OrderHint)
	}

	// find returns the unused slot with the extreme hint on one side of the
	// current frame: backward slots have hint >= curFrameHint.
	find := func(backward, latest bool) int {
		ref := -1
		var best int32
		for i, hint := range shifted {
			if used[i] || (hint >= curFrameHint) != backward {
				continue
			}
			if ref < 0 || (latest && hint >= best) || (!latest && hint < best) {
				ref, best = i, hint
			}
		}
		return ref
	}
	assign := func(frame RefFrame, ref int) {
		if ref >= 0 {
			refIdx[frame-LastFrame] = ref
			used[ref] = true
		}
	}

	assign(AltrefFrame, find(true, true))
	assign(BwdrefFrame, find(true, false))
	assign(Altref2Frame, find(true, false))
	for _, frame := range [...]RefFrame{Last2Frame, Last3Frame, BwdrefFrame, Altref2Frame, AltrefFrame} {
		if refIdx[frame-LastFrame] < 0 {
			assign(frame, find(false, true))
		}
	}

	ref := -1
	var earliest int32
	for i, hint := range shifted {
		if ref < 0 || hint < earliest {
			ref, earliest = i, hint
		}
	}
	for i := range refIdx {
		if refIdx[i] < 0 {
			refIdx[i] = ref
		}
		fh.RefFrameIdx[i] = uint8(refIdx[i]) //nolint:gosec // slot index
	}
}
