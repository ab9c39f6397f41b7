// ABOUTME: Stream session bookkeeping
// ABOUTME: A session freezes the audio config for the lifetime of one opened stream
package output

import (
	"time"

	"github.com/google/uuid"
)

// Session identifies one opened stream. The config it carries is the
// snapshot the render path works against; changing any stream field
// requires closing the session and opening a new one.
type Session struct {
	ID       string
	Config   AudioConfig
	Backend  string
	OpenedAt time.Time
}

func newSession(cfg AudioConfig, backend string) *Session {
	return &Session{
		ID:       uuid.New().String(),
		Config:   cfg,
		Backend:  backend,
		OpenedAt: time.Now(),
	}
}
