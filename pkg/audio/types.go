// ABOUTME: Audio type definitions
// ABOUTME: Defines the negotiated PCM format and frame/duration/sample helpers
package audio

import "encoding/binary"

const (
	// SampleWidth is the size in bytes of one signed 16-bit sample
	SampleWidth = 2

	MaxInt16 = 32767
	MinInt16 = -32768
)

// Format describes a signed 16-bit interleaved PCM stream
type Format struct {
	SampleRate int
	Channels   int
}

// FrameBytes returns the size of one frame in bytes
func (f Format) FrameBytes() int {
	return f.Channels * SampleWidth
}

// Valid reports whether the format can be used to open a stream
func (f Format) Valid() bool {
	return f.SampleRate > 0 && f.Channels > 0
}

// FramesFor returns the number of frames needed to cover durationMs, rounded up
func FramesFor(durationMs int64, sampleRate int) int64 {
	if durationMs <= 0 || sampleRate <= 0 {
		return 0
	}
	return (durationMs*int64(sampleRate) + 999) / 1000
}

// MillisFor converts a frame count to milliseconds, rounded down
func MillisFor(frames int64, sampleRate int) int64 {
	if sampleRate <= 0 {
		return 0
	}
	return frames * 1000 / int64(sampleRate)
}

// Clamp16 saturates a wide sample into the int16 range
func Clamp16(v int32) int16 {
	if v > MaxInt16 {
		return MaxInt16
	}
	if v < MinInt16 {
		return MinInt16
	}
	return int16(v)
}

// ClampFloat16 saturates a float sample into the int16 range (truncating)
func ClampFloat16(v float32) int16 {
	if v > MaxInt16 {
		return MaxInt16
	}
	if v < MinInt16 {
		return MinInt16
	}
	return int16(v)
}

// ScaleToInt16 converts a signed sample of the given bit depth to 16-bit
func ScaleToInt16(sample int32, bitDepth int) int16 {
	switch {
	case bitDepth == 16:
		return int16(sample)
	case bitDepth > 16:
		return int16(sample >> (bitDepth - 16))
	case bitDepth > 0:
		return int16(sample << (16 - bitDepth))
	}
	return 0
}

// SampleFrom24Bit converts 24-bit packed bytes to int32 (little-endian)
func SampleFrom24Bit(b [3]byte) int32 {
	val := int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16
	// Sign extend from 24-bit to 32-bit
	if val&0x800000 != 0 {
		val |= ^0xFFFFFF
	}
	return val
}

// PutSamples encodes samples as little-endian 16-bit PCM into dst.
// dst must hold at least len(samples)*2 bytes.
func PutSamples(dst []byte, samples []int16) {
	for i, s := range samples {
		binary.LittleEndian.PutUint16(dst[i*2:], uint16(s))
	}
}

// ReadSamples decodes little-endian 16-bit PCM from src into dst and
// returns the number of samples decoded
func ReadSamples(dst []int16, src []byte) int {
	n := len(src) / 2
	if n > len(dst) {
		n = len(dst)
	}
	for i := 0; i < n; i++ {
		dst[i] = int16(binary.LittleEndian.Uint16(src[i*2:]))
	}
	return n
}
