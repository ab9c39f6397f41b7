// ABOUTME: Background pre-render package
// ABOUTME: Renders a tune into memory for instant seeking and export
// Package prerender renders a whole tune into memory on a background
// goroutine so seeking becomes a buffer lookup.
//
// A PreRenderer is itself a decode.Source and can replace the live tune as
// the sink's source once its render has started. Reads past the rendered
// part return silence.
package prerender
