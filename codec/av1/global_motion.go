package av1

import "github.com/ugparu/bitsyntax/utils/bits"

// WarpModelType is GmType.
type WarpModelType uint8

const (
	WarpIdentity    WarpModelType = 0
	WarpTranslation WarpModelType = 1
	WarpRotZoom     WarpModelType = 2
	WarpAffine      WarpModelType = 3
)

func (t WarpModelType) String() string {
	switch t {
	case WarpIdentity:
		return "IDENTITY"
	case WarpTranslation:
		return "TRANSLATION"
	case WarpRotZoom:
		return "ROTZOOM"
	}
	return "AFFINE"
}

// GlobalMotion is the global motion model of one reference frame.
type GlobalMotion struct {
	Type   WarpModelType
	Params [6]int32
}

var defaultGmParams = [6]int32{0, 0, 1 << WarpedModelPrecBits, 0, 0, 1 << WarpedModelPrecBits}

func (d *frameHeaderDecoder) globalMotionParams() {
	f, fh := d.f, d.fh
	for ref := range fh.GlobalMotion {
		fh.GlobalMotion[ref] = GlobalMotion{Type: WarpIdentity, Params: defaultGmParams}
	}
	if f.Err() != nil || fh.FrameIsIntra {
		return
	}

	for ref := LastFrame; ref <= AltrefFrame; ref++ {
		gm := &fh.GlobalMotion[ref]
		switch {
		case !f.Flag("is_global"):
			continue
		case f.Flag("is_rot_zoom"):
			gm.Type = WarpRotZoom
		case f.Flag("is_translation"):
			gm.Type = WarpTranslation
		default:
			gm.Type = WarpAffine
		}

		if gm.Type >= WarpRotZoom {
			d.globalParam(gm, ref, 2)
			d.globalParam(gm, ref, 3)
			if gm.Type == WarpAffine {
				d.globalParam(gm, ref, 4)
				d.globalParam(gm, ref, 5)
			} else {
				gm.Params[4] = -gm.Params[3]
				gm.Params[5] = gm.Params[2]
			}
		}
		d.globalParam(gm, ref, 0)
		d.globalParam(gm, ref, 1)
	}
}

// globalParam implements read_global_param().
func (d *frameHeaderDecoder) globalParam(gm *GlobalMotion, ref RefFrame, idx int) {
	absBits, precBits := GmAbsAlphaBits, GmAlphaPrecBits
	if idx < 2 {
		if gm.Type == WarpTranslation {
			lowPrec := 0
			if !d.fh.AllowHighPrecisionMv {
				lowPrec = 1
			}
			absBits, precBits = GmAbsTransOnlyBits-lowPrec, GmTransOnlyPrecBits-lowPrec
		} else {
			absBits, precBits = GmAbsTransBits, GmTransPrecBits
		}
	}
	precDiff := WarpedModelPrecBits - precBits

	var round, sub int32
	if idx%3 == 2 { //nolint:mnd
		round, sub = 1<<WarpedModelPrecBits, 1<<precBits
	}
	mx := int32(1) << absBits
	r := (d.prevGmParams[ref][idx] >> precDiff) - sub
	gm.Params[idx] = (decodeSignedSubexpWithRef(d.f, -mx, mx+1, r) << precDiff) + round
}

func decodeSignedSubexpWithRef(f *bits.FieldReader, low, high, r int32) int32 {
	return decodeUnsignedSubexpWithRef(f, high-low, r-low) + low
}

func decodeUnsignedSubexpWithRef(f *bits.FieldReader, mx, r int32) int32 {
	v := decodeSubexp(f, mx)
	if r<<1 <= mx {
		return inverseRecenter(r, v)
	}
	return mx - 1 - inverseRecenter(mx-1-r, v)
}

//nolint:mnd,gosec // numSyms is below 1 << 14
func decodeSubexp(f *bits.FieldReader, numSyms int32) int32 {
	const k = 3
	var i, mk int32
	for f.Err() == nil {
		b2 := int32(k)
		if i > 0 {
			b2 = k + i - 1
		}
		a := int32(1) << b2
		if numSyms <= mk+3*a {
			return int32(f.NS(uint32(numSyms-mk), "subexp_final_bits")) + mk
		}
		if !f.Flag("subexp_more_bits") {
			return int32(f.Bits(int(b2), "subexp_bits")) + mk
		}
		i++
		mk += a
	}
	return 0
}

func inverseRecenter(r, v int32) int32 {
	switch {
	case v > 2*r:
		return v
	case v&1 == 1:
		return r - (v+1)>>1
	}
	return r + v>>1
}
