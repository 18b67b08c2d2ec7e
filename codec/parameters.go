package codec

import (
	"fmt"
	"math"

	"github.com/ugparu/bitsyntax"
)

// BaseParameters carries the fields shared by every codec's parameters.
type BaseParameters struct {
	bitsyntax.CodecType
}

func (par *BaseParameters) Type() bitsyntax.CodecType {
	if par == nil {
		return math.MaxUint32
	}
	return par.CodecType
}

func (par *BaseParameters) String() string {
	if par == nil {
		return "EMPTY_CODEC_PARAMETERS"
	}
	return fmt.Sprintf("CODEC_PARAMETERS codec=%v", par.CodecType)
}
