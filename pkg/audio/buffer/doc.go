// ABOUTME: Fixed-capacity sample buffers used on the real-time path
// ABOUTME: Provides RingBuffer, SnapshotBuffer and the visualization DoubleBuffer
// Package buffer provides the arena-style sample stores used by the audio
// callback: a circular delay line, a growable scratch snapshot and a
// lock-free front/back double buffer for visualization readers.
//
// None of the types allocate once constructed (SnapshotBuffer grows only
// until it has seen the largest chunk).
package buffer
