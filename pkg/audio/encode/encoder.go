// ABOUTME: Encoder interface definition
// ABOUTME: Common interface for all audio encoders
package encode

// Encoder writes interleaved 16-bit PCM samples to an output
type Encoder interface {
	// Write encodes samples; len(samples) must be a whole number of frames
	Write(samples []int16) error

	// Close finalizes the output (headers, sizes)
	Close() error
}
