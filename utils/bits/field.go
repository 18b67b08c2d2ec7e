package bits

import "fmt"

// FieldError names the syntax element whose read failed.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// FieldReader reads named syntax elements and keeps the first error. Once an
// error is recorded every further read is a no-op returning the zero value,
// so a structure can be read straight through and checked once with Err.
type FieldReader struct {
	r   *Reader
	err error
}

// NewFieldReader wraps r.
func NewFieldReader(r *Reader) *FieldReader {
	return &FieldReader{r: r}
}

// Reader returns the underlying cursor.
func (f *FieldReader) Reader() *Reader {
	return f.r
}

// Err returns the first recorded error.
func (f *FieldReader) Err() error {
	return f.err
}

// Fail records err unless an error is already recorded.
func (f *FieldReader) Fail(err error) {
	if f.err == nil && err != nil {
		f.err = err
	}
}

func (f *FieldReader) fail(field string, err error) {
	f.Fail(&FieldError{Field: field, Err: err})
}

// Flag reads u(1).
func (f *FieldReader) Flag(field string) bool {
	if f.err != nil {
		return false
	}
	v, err := f.r.ReadBit()
	if err != nil {
		f.fail(field, err)
	}
	return v
}

// Bits reads u(n), 1 <= n <= 32. A zero width yields 0.
func (f *FieldReader) Bits(n int, field string) uint32 {
	if f.err != nil || n == 0 {
		return 0
	}
	v, err := f.r.ReadBits(n)
	if err != nil {
		f.fail(field, err)
	}
	return v
}

// Bits64 reads u(n), 0 <= n <= 64.
func (f *FieldReader) Bits64(n int, field string) uint64 {
	if f.err != nil {
		return 0
	}
	v, err := f.r.ReadBits64(n)
	if err != nil {
		f.fail(field, err)
	}
	return v
}

// UE reads ue(v) limited to 32 bits.
func (f *FieldReader) UE(field string) uint32 {
	if f.err != nil {
		return 0
	}
	v, err := f.r.ReadUE32()
	if err != nil {
		f.fail(field, err)
	}
	return v
}

// SE reads se(v) limited to 32 bits.
func (f *FieldReader) SE(field string) int32 {
	if f.err != nil {
		return 0
	}
	v, err := f.r.ReadSE32()
	if err != nil {
		f.fail(field, err)
	}
	return v
}

// UVLC reads uvlc().
func (f *FieldReader) UVLC(field string) uint32 {
	if f.err != nil {
		return 0
	}
	v, err := f.r.ReadUVLC()
	if err != nil {
		f.fail(field, err)
	}
	return v
}

// LEB128 reads leb128().
func (f *FieldReader) LEB128(field string) uint64 {
	if f.err != nil {
		return 0
	}
	v, _, err := f.r.ReadLEB128()
	if err != nil {
		f.fail(field, err)
	}
	return v
}

// SU reads su(n).
func (f *FieldReader) SU(n int, field string) int32 {
	if f.err != nil {
		return 0
	}
	v, err := f.r.ReadSU(n)
	if err != nil {
		f.fail(field, err)
	}
	return v
}

// NS reads ns(n).
func (f *FieldReader) NS(n uint32, field string) uint32 {
	if f.err != nil {
		return 0
	}
	v, err := f.r.ReadNS(n)
	if err != nil {
		f.fail(field, err)
	}
	return v
}

// LE reads le(n).
func (f *FieldReader) LE(n int, field string) uint64 {
	if f.err != nil {
		return 0
	}
	v, err := f.r.ReadLE(n)
	if err != nil {
		f.fail(field, err)
	}
	return v
}

// Bytes returns n aligned bytes borrowed from the buffer.
func (f *FieldReader) Bytes(n int, field string) []byte {
	if f.err != nil {
		return nil
	}
	v, err := f.r.ReadBytes(n)
	if err != nil {
		f.fail(field, err)
	}
	return v
}

// Skip advances over n reserved bits.
func (f *FieldReader) Skip(n int, field string) {
	if f.err != nil {
		return
	}
	if err := f.r.SkipBits(n); err != nil {
		f.fail(field, err)
	}
}

// Align skips to the next byte boundary.
func (f *FieldReader) Align() {
	if f.err == nil {
		f.r.ByteAlign()
	}
}
