// Package audio defines the playable media boundary the player drives and a
// speaker-backed implementation of it.
package audio

import "errors"

// Event is a lifecycle signal emitted by a Resource.
type Event int

const (
	EventCanPlay Event = iota
	EventError
	EventEnded
	EventTimeUpdate
)

func (e Event) String() string {
	switch e {
	case EventCanPlay:
		return "canplay"
	case EventError:
		return "error"
	case EventEnded:
		return "ended"
	case EventTimeUpdate:
		return "timeupdate"
	default:
		return "unknown"
	}
}

var (
	// ErrNoSource rejects a play request on a resource with no source set.
	ErrNoSource = errors.New("no audio source")
	// ErrAborted rejects a play request whose source was replaced or closed.
	ErrAborted = errors.New("playback request aborted")
	// ErrUnsupportedFormat is reported for data that is neither WAV nor MP3.
	ErrUnsupportedFormat = errors.New("unsupported audio format")
)

// Listener receives lifecycle events.
type Listener func(Event)

// Resource is a single playable media handle.
//
// Listeners are always invoked from the resource's own goroutines, never from
// inside a Resource method call, so a listener may call back into its owner.
type Resource interface {
	SetSource(url string)
	Source() string

	// SetVolume sets the output gain in [0, 1].
	SetVolume(v float64)
	SetMuted(muted bool)

	SetCurrentTime(seconds float64)
	CurrentTime() float64
	// Duration is NaN until the source is ready.
	Duration() float64

	// Play requests playback. The returned channel receives exactly one value:
	// nil once playback started, or the reason it could not.
	Play() <-chan error
	Pause()
	Paused() bool

	Subscribe(l Listener) (unsubscribe func())
	Close() error
}

// Factory constructs a fresh Resource.
type Factory func() Resource
