// ABOUTME: Playback error taxonomy
// ABOUTME: Separates configuration, input and output failures for callers
package playback

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidState is returned for commands that make no sense in the current state
	ErrInvalidState = errors.New("invalid playback state")
	// ErrNotInitialized is the panic value for commands issued before Init
	ErrNotInitialized = errors.New("playback controller not initialized")
	// ErrNoTune is returned by commands that need a loaded tune
	ErrNoTune = errors.New("no tune loaded")
	// ErrNoInstantSeek is returned when the tune cannot be opened a second time for pre-rendering
	ErrNoInstantSeek = errors.New("tune does not support instant seek")
)

// ConfigError reports an invalid or unsupported configuration
type ConfigError struct {
	Field   string
	Message string
	Err     error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("playback config error in field '%s': %s", e.Field, e.Message)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// InputError reports a tune that could not be opened or decoded
type InputError struct {
	Path string
	Err  error
}

func (e *InputError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("input error: %v", e.Err)
	}
	return fmt.Sprintf("input error for %s: %v", e.Path, e.Err)
}

func (e *InputError) Unwrap() error { return e.Err }

// OutputError reports an audio stream that could not be opened or started
type OutputError struct {
	Op  string
	Err error
}

func (e *OutputError) Error() string {
	return fmt.Sprintf("output error during %s: %v", e.Op, e.Err)
}

func (e *OutputError) Unwrap() error { return e.Err }

// Status classifies an error for the user-facing message
type Status int

const (
	StatusOK Status = iota
	StatusConfigError
	StatusInputError
	StatusOutputError
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusConfigError:
		return "configuration error"
	case StatusInputError:
		return "input error"
	case StatusOutputError:
		return "output error"
	default:
		return "error"
	}
}

// StatusOf maps an error returned by the controller to its status
func StatusOf(err error) Status {
	var (
		cfgErr *ConfigError
		inErr  *InputError
		outErr *OutputError
	)
	switch {
	case err == nil:
		return StatusOK
	case errors.As(err, &cfgErr):
		return StatusConfigError
	case errors.As(err, &inErr):
		return StatusInputError
	case errors.As(err, &outErr):
		return StatusOutputError
	default:
		return StatusError
	}
}
