package h264

import "github.com/ugparu/bitsyntax/utils/bits"

const (
	scalingList4x4Size = 16
	scalingList8x8Size = 64
	scaling4x4Lists    = 6
	defaultScale       = 8
	scaleModulo        = 256
	minDeltaScale      = -128
	maxDeltaScale      = 127
)

// ScalingList is one scaling_list() as transmitted.
type ScalingList struct {
	Scales                  []int32
	UseDefaultScalingMatrix bool
}

// ScalingMatrix holds the transmitted lists. A nil entry is a list whose
// *_scaling_list_present_flag was 0; the fall-back rule of Table 7-2 applies.
type ScalingMatrix struct {
	Lists4x4 [scaling4x4Lists]*ScalingList
	Lists8x8 []*ScalingList
}

// readScalingList implements scaling_list() from 7.3.2.1.1.1.
func readScalingList(r *bits.FieldReader, size int) *ScalingList {
	l := &ScalingList{Scales: make([]int32, size)}
	lastScale, nextScale := int32(defaultScale), int32(defaultScale)
	for j := range size {
		if nextScale != 0 {
			delta := r.SE("delta_scale")
			if delta < minDeltaScale || delta > maxDeltaScale {
				r.Fail(unknown("delta_scale", uint64(int64(delta)))) //nolint:gosec // reported as two's complement
				return l
			}
			nextScale = (lastScale + delta + scaleModulo) % scaleModulo
			if nextScale < 0 {
				nextScale += scaleModulo
			}
			l.UseDefaultScalingMatrix = j == 0 && nextScale == 0
		}
		if nextScale != 0 {
			l.Scales[j] = nextScale
		} else {
			l.Scales[j] = lastScale
		}
		lastScale = l.Scales[j]
	}
	return l
}

// readScalingMatrix reads six 4x4 lists followed by n8x8 8x8 lists.
func readScalingMatrix(r *bits.FieldReader, n8x8 int) *ScalingMatrix {
	m := &ScalingMatrix{Lists8x8: make([]*ScalingList, n8x8)}
	for i := range m.Lists4x4 {
		if r.Flag("scaling_list_present_flag") {
			m.Lists4x4[i] = readScalingList(r, scalingList4x4Size)
		}
	}
	for i := range m.Lists8x8 {
		if r.Flag("scaling_list_present_flag") {
			m.Lists8x8[i] = readScalingList(r, scalingList8x8Size)
		}
	}
	return m
}
