package h264

import (
	"errors"
	"fmt"

	"github.com/ugparu/bitsyntax/utils"
)

const codecName = "h264"

var (
	ErrSpsNotFound    = errors.New("h264: sps not found")
	ErrPpsNotFound    = errors.New("h264: pps not found")
	ErrForbiddenBit   = errors.New("h264: forbidden_zero_bit is set")
	ErrEmptyNalu      = errors.New("h264: empty nal unit")
	ErrDecconfInvalid = errors.New("h264: AVCDecoderConfRecord invalid")
)

func unknown(field string, v uint64) error {
	return &utils.UnknownValueError{Codec: codecName, Field: field, Value: v}
}

func unsupported(field string, v uint64) error {
	return &utils.UnsupportedValueError{Codec: codecName, Field: field, Value: v}
}

func spsNotFound(id uint32) error {
	return &utils.MissingReferenceError{Codec: codecName, Kind: "sps", ID: uint64(id), Sentinel: ErrSpsNotFound}
}

func ppsNotFound(id uint32) error {
	return &utils.MissingReferenceError{Codec: codecName, Kind: "pps", ID: uint64(id), Sentinel: ErrPpsNotFound}
}

func wrap(structure string, err error) error {
	return fmt.Errorf("%s: %s: %w", codecName, structure, err)
}
