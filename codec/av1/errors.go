package av1

import (
	"errors"
	"fmt"

	"github.com/ugparu/bitsyntax/utils"
)

const codecName = "av1"

var (
	ErrSequenceHeaderNotFound = errors.New("av1: sequence header not found")
	ErrFrameHeaderNotFound    = errors.New("av1: frame header not found")
	ErrReferenceFrameNotFound = errors.New("av1: reference frame not found")
	ErrMissingObuSize         = errors.New("av1: obu has no size field and no size was given")
	ErrForbiddenBit           = errors.New("av1: obu_forbidden_bit is set")
	ErrObuSizeOverrun         = errors.New("av1: obu_size exceeds the buffer")
	ErrInvalidTileGroup       = errors.New("av1: tile group range outside the frame")
	ErrConfRecordInvalid      = errors.New("av1: AV1CodecConfigurationRecord invalid")
)

func unknown(field string, v uint64) error {
	return &utils.UnknownValueError{Codec: codecName, Field: field, Value: v}
}

func refNotFound(idx uint8) error {
	return &utils.MissingReferenceError{
		Codec:    codecName,
		Kind:     "reference frame",
		ID:       uint64(idx),
		Sentinel: ErrReferenceFrameNotFound,
	}
}

func wrap(structure string, err error) error {
	return fmt.Errorf("%s: %s: %w", codecName, structure, err)
}
