package playback

// EventKind labels the notifications a media engine emits.
type EventKind string

const (
	// EventReady fires once the engine knows the recording duration.
	EventReady EventKind = "ready"
	// EventTick reports the advancing playback position, and is also emitted
	// once after a seek.
	EventTick EventKind = "tick"
	// EventPaused fires when playback stops short of the end, including the
	// automatic stop of a bounded play.
	EventPaused EventKind = "paused"
	// EventEnded fires when the position reaches the recording duration.
	EventEnded EventKind = "ended"
)

// Event is one engine notification. Time is the playback position in
// seconds; Duration is only meaningful on EventReady.
type Event struct {
	Kind     EventKind
	Time     float64
	Duration float64
}

// Bridge is the capability contract every media engine must satisfy. The
// annotation core only ever talks to this interface, so any audio backend
// can be substituted without touching the timeline logic.
type Bridge interface {
	Play() error
	Pause() error
	Seek(t float64) error
	// PlayRange plays [start, end] and stops automatically when the
	// position reaches end. It is a bounded play, not a seek-and-continue.
	PlayRange(start, end float64) error
	CurrentTime() float64
	Duration() float64
	Events() <-chan Event
	Close() error
}
