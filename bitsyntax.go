// Package bitsyntax decodes the header syntax of H.264 and AV1 bitstreams.
// Codec specific decoders live under codec/, shared plumbing under utils/.
package bitsyntax

// CodecParameters defines the interface for stream level codec configuration.
type CodecParameters interface {
	Type() CodecType // Returns the codec type.
	Tag() string     // Returns the RFC 6381 codec string.
}

// VideoCodecParameters extends CodecParameters with video-specific properties.
type VideoCodecParameters interface {
	CodecParameters // Inherits all CodecParameters methods.
	Width() uint    // Returns the video frame width in pixels.
	Height() uint   // Returns the video frame height in pixels.
	FPS() uint      // Returns the video frame rate (frames per second), 0 when not signalled.
}
