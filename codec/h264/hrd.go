package h264

import "github.com/ugparu/bitsyntax/utils/bits"

const maxCpbCnt = 32

// HrdSchedule is one SchedSelIdx entry.
type HrdSchedule struct {
	BitRateValueMinus1 uint32
	CpbSizeValueMinus1 uint32
	Cbr                bool
}

// Hrd is hrd_parameters() from E.1.2.
type Hrd struct {
	BitRateScale                       uint8
	CpbSizeScale                       uint8
	Schedules                          []HrdSchedule
	InitialCpbRemovalDelayLengthMinus1 uint8
	CpbRemovalDelayLengthMinus1        uint8
	DpbOutputDelayLengthMinus1         uint8
	TimeOffsetLength                   uint8
}

//nolint:mnd,gosec // field widths from E.1.2
func decodeHrd(r *bits.FieldReader) *Hrd {
	cnt := r.UE("cpb_cnt_minus1") + 1
	if cnt > maxCpbCnt {
		r.Fail(unknown("cpb_cnt_minus1", uint64(cnt-1)))
		return nil
	}
	h := &Hrd{
		BitRateScale: uint8(r.Bits(4, "bit_rate_scale")),
		CpbSizeScale: uint8(r.Bits(4, "cpb_size_scale")),
		Schedules:    make([]HrdSchedule, cnt),
	}
	for i := range h.Schedules {
		h.Schedules[i] = HrdSchedule{
			BitRateValueMinus1: r.UE("bit_rate_value_minus1"),
			CpbSizeValueMinus1: r.UE("cpb_size_value_minus1"),
			Cbr:                r.Flag("cbr_flag"),
		}
	}
	h.InitialCpbRemovalDelayLengthMinus1 = uint8(r.Bits(5, "initial_cpb_removal_delay_length_minus1"))
	h.CpbRemovalDelayLengthMinus1 = uint8(r.Bits(5, "cpb_removal_delay_length_minus1"))
	h.DpbOutputDelayLengthMinus1 = uint8(r.Bits(5, "dpb_output_delay_length_minus1"))
	h.TimeOffsetLength = uint8(r.Bits(5, "time_offset_length"))
	return h
}
