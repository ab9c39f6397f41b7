// ABOUTME: Real-time PCM effects applied inside the audio callback
// ABOUTME: Currently provides the Haas-effect stereo widener
// Package effect holds in-place processors for interleaved int16 chunks.
// Processors keep their own history between calls and expose Reset for
// discontinuities such as seeks or tune changes.
package effect
