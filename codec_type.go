package bitsyntax

// CodecType identifies the codec of a stream.
type CodecType uint32

// Codecs with a syntax decoder under codec/.
const (
	H264 CodecType = iota + 1
	AV1
)

func (ct CodecType) String() string {
	switch ct {
	case H264:
		return "H264"
	case AV1:
		return "AV1"
	}
	return "UNKNOWN"
}
