// ABOUTME: Playback states
// ABOUTME: Defines the controller state machine values
package playback

// State is a playback state
type State int32

const (
	Undefined State = iota
	Stopped
	Playing
	Paused
	Seeking
)

func (s State) String() string {
	switch s {
	case Undefined:
		return "undefined"
	case Stopped:
		return "stopped"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	case Seeking:
		return "seeking"
	default:
		return "unknown"
	}
}
