package av1

import "github.com/ugparu/bitsyntax/utils/bits"

// ColorPrimaries is color_primaries.
type ColorPrimaries uint8

const (
	CpBT709       ColorPrimaries = 1
	CpUnspecified ColorPrimaries = 2
	CpBT470M      ColorPrimaries = 4
	CpBT470BG     ColorPrimaries = 5
	CpBT601       ColorPrimaries = 6
	CpSMPTE240    ColorPrimaries = 7
	CpGenericFilm ColorPrimaries = 8
	CpBT2020      ColorPrimaries = 9
	CpXYZ         ColorPrimaries = 10
	CpSMPTE431    ColorPrimaries = 11
	CpSMPTE432    ColorPrimaries = 12
	CpEBU3213     ColorPrimaries = 22
)

func decodeColorPrimaries(v uint32) (ColorPrimaries, error) {
	switch {
	case v == 1, v == 2, v >= 4 && v <= 12, v == 22: //nolint:mnd
		return ColorPrimaries(v), nil //nolint:gosec // f(8)
	}
	return 0, unknown("color_primaries", uint64(v))
}

// TransferCharacteristics is transfer_characteristics.
type TransferCharacteristics uint8

const (
	TcBT709        TransferCharacteristics = 1
	TcUnspecified  TransferCharacteristics = 2
	TcBT470M       TransferCharacteristics = 4
	TcBT470BG      TransferCharacteristics = 5
	TcBT601        TransferCharacteristics = 6
	TcSMPTE240     TransferCharacteristics = 7
	TcLinear       TransferCharacteristics = 8
	TcLog100       TransferCharacteristics = 9
	TcLog100Sqrt10 TransferCharacteristics = 10
	TcIEC61966     TransferCharacteristics = 11
	TcBT1361       TransferCharacteristics = 12
	TcSRGB         TransferCharacteristics = 13
	TcBT2020Ten    TransferCharacteristics = 14
	TcBT2020Twelve TransferCharacteristics = 15
	TcSMPTE2084    TransferCharacteristics = 16
	TcSMPTE428     TransferCharacteristics = 17
	TcHLG          TransferCharacteristics = 18
)

func decodeTransferCharacteristics(v uint32) (TransferCharacteristics, error) {
	switch {
	case v == 1, v == 2, v >= 4 && v <= 18: //nolint:mnd
		return TransferCharacteristics(v), nil //nolint:gosec // f(8)
	}
	return 0, unknown("transfer_characteristics", uint64(v))
}

// MatrixCoefficients is matrix_coefficients.
type MatrixCoefficients uint8

const (
	McIdentity    MatrixCoefficients = 0
	McBT709       MatrixCoefficients = 1
	McUnspecified MatrixCoefficients = 2
	McFCC         MatrixCoefficients = 4
	McBT470BG     MatrixCoefficients = 5
	McBT601       MatrixCoefficients = 6
	McSMPTE240    MatrixCoefficients = 7
	McSMPTEYCgCo  MatrixCoefficients = 8
	McBT2020NCL   MatrixCoefficients = 9
	McBT2020CL    MatrixCoefficients = 10
	McSMPTE2085   MatrixCoefficients = 11
	McChromatNCL  MatrixCoefficients = 12
	McChromatCL   MatrixCoefficients = 13
	McICtCp       MatrixCoefficients = 14
)

func decodeMatrixCoefficients(v uint32) (MatrixCoefficients, error) {
	switch {
	case v <= 2, v >= 4 && v <= 14: //nolint:mnd
		return MatrixCoefficients(v), nil //nolint:gosec // f(8)
	}
	return 0, unknown("matrix_coefficients", uint64(v))
}

// ChromaSamplePosition is chroma_sample_position.
type ChromaSamplePosition uint8

const (
	CspUnknown   ChromaSamplePosition = 0
	CspVertical  ChromaSamplePosition = 1
	CspColocated ChromaSamplePosition = 2
)

// ColorConfig is color_config().
type ColorConfig struct {
	BitDepth                uint8
	MonoChrome              bool
	ColorDescriptionPresent bool
	ColorPrimaries          ColorPrimaries
	TransferCharacteristics TransferCharacteristics
	MatrixCoefficients      MatrixCoefficients
	// ColorRange is set for full swing.
	ColorRange           bool
	SubsamplingX         bool
	SubsamplingY         bool
	ChromaSamplePosition ChromaSamplePosition
	SeparateUVDeltaQ     bool
}

// NumPlanes returns 1 for monochrome streams and 3 otherwise.
func (c *ColorConfig) NumPlanes() uint8 {
	if c.MonoChrome {
		return 1
	}
	return 3 //nolint:mnd
}

func decodeColorConfig(f *bits.FieldReader, profile SequenceProfile) (ColorConfig, error) {
	var c ColorConfig

	highBitdepth := f.Flag("high_bitdepth")
	switch {
	case profile == ProfileProfessional && highBitdepth:
		if f.Flag("twelve_bit") {
			c.BitDepth = 12
		} else {
			c.BitDepth = 10
		}
	case highBitdepth:
		c.BitDepth = 10
	default:
		c.BitDepth = 8
	}

	if profile != ProfileHigh {
		c.MonoChrome = f.Flag("mono_chrome")
	}

	c.ColorPrimaries = CpUnspecified
	c.TransferCharacteristics = TcUnspecified
	c.MatrixCoefficients = McUnspecified
	c.ColorDescriptionPresent = f.Flag("color_description_present_flag")
	if c.ColorDescriptionPresent {
		cp := f.Bits(8, "color_primaries")          //nolint:mnd
		tc := f.Bits(8, "transfer_characteristics") //nolint:mnd
		mc := f.Bits(8, "matrix_coefficients")      //nolint:mnd
		if err := f.Err(); err != nil {
			return c, err
		}
		var err error
		if c.ColorPrimaries, err = decodeColorPrimaries(cp); err != nil {
			return c, err
		}
		if c.TransferCharacteristics, err = decodeTransferCharacteristics(tc); err != nil {
			return c, err
		}
		if c.MatrixCoefficients, err = decodeMatrixCoefficients(mc); err != nil {
			return c, err
		}
	}

	switch {
	case c.MonoChrome:
		c.ColorRange = f.Flag("color_range")
		c.SubsamplingX, c.SubsamplingY = true, true
		c.ChromaSamplePosition = CspUnknown
		return c, f.Err()
	case c.ColorPrimaries == CpBT709 && c.TransferCharacteristics == TcSRGB && c.MatrixCoefficients == McIdentity:
		c.ColorRange = true
	default:
		c.ColorRange = f.Flag("color_range")
		switch profile {
		case ProfileMain:
			c.SubsamplingX, c.SubsamplingY = true, true
		case ProfileHigh:
		default:
			if c.BitDepth == 12 { //nolint:mnd
				c.SubsamplingX = f.Flag("subsampling_x")
				if c.SubsamplingX {
					c.SubsamplingY = f.Flag("subsampling_y")
				}
			} else {
				c.SubsamplingX = true
			}
		}
		if c.SubsamplingX && c.SubsamplingY {
			csp := f.Bits(2, "chroma_sample_position") //nolint:mnd
			if f.Err() == nil && csp > uint32(CspColocated) {
				return c, unknown("chroma_sample_position", uint64(csp))
			}
			c.ChromaSamplePosition = ChromaSamplePosition(csp) //nolint:gosec // f(2)
		}
	}
	c.SeparateUVDeltaQ = f.Flag("separate_uv_delta_q")
	return c, f.Err()
}
