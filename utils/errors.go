package utils

import "fmt"

// UnknownValueError is returned when a syntax element carries a code the
// codec does not define.
type UnknownValueError struct {
	Codec string
	Field string
	Value uint64
}

// Error returns the error message for UnknownValueError.
func (e *UnknownValueError) Error() string {
	return fmt.Sprintf("%s: unknown %s value %d", e.Codec, e.Field, e.Value)
}

// UnsupportedValueError is returned for codes that are defined by the codec
// but not handled by this package.
type UnsupportedValueError struct {
	Codec string
	Field string
	Value uint64
}

// Error returns the error message for UnsupportedValueError.
func (e *UnsupportedValueError) Error() string {
	return fmt.Sprintf("%s: unsupported %s value %d", e.Codec, e.Field, e.Value)
}

// MissingReferenceError reports a reference to a parameter set or frame that
// has not been decoded. Sentinel is matched by errors.Is.
type MissingReferenceError struct {
	Codec    string
	Kind     string
	ID       uint64
	Sentinel error
}

// Error returns the error message for MissingReferenceError.
func (e *MissingReferenceError) Error() string {
	return fmt.Sprintf("%s: %s %d not found", e.Codec, e.Kind, e.ID)
}

// Unwrap exposes the sentinel.
func (e *MissingReferenceError) Unwrap() error {
	return e.Sentinel
}

// NoCodecDataError represents an error indicating that no codec data was provided.
type NoCodecDataError struct {
}

// Error returns the error message for NoCodecDataError.
func (NoCodecDataError) Error() string {
	return "No codec data"
}
