package playback

import (
	"fmt"
	"sync"
	"time"

	"github.com/shrutilabs/shruti-backend/internal/logger"
)

const noStop = -1.0

// Clock is a wall-clock playback engine. It does not decode audio; it
// advances a position over a known duration and emits the same event stream
// a real media backend would, which is all the annotation core consumes.
// Review sessions drive it server-side and tests drive it at high rate.
type Clock struct {
	mu       sync.Mutex
	log      *logger.Logger
	duration float64
	pos      float64
	playing  bool
	stopAt   float64
	rate     float64
	closed   bool

	interval time.Duration
	events   chan Event
	done     chan struct{}
}

// NewClock creates an engine over a recording of the given duration.
// interval is the tick period; rate scales how much playback time passes per
// wall-clock second (1 = real time). The Ready event is emitted immediately.
func NewClock(duration float64, interval time.Duration, rate float64, log *logger.Logger) *Clock {
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	if rate <= 0 {
		rate = 1
	}
	if duration < 0 {
		duration = 0
	}
	c := &Clock{
		log:      log.With("component", "PlaybackClock"),
		duration: duration,
		stopAt:   noStop,
		rate:     rate,
		interval: interval,
		events:   make(chan Event, 64),
		done:     make(chan struct{}),
	}
	c.emit(Event{Kind: EventReady, Duration: duration})
	go c.run()
	return c
}

func (c *Clock) run() {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	last := time.Now()
	for {
		select {
		case <-c.done:
			return
		case now := <-ticker.C:
			elapsed := now.Sub(last).Seconds()
			last = now
			c.advance(elapsed)
		}
	}
}

func (c *Clock) advance(elapsed float64) {
	c.mu.Lock()
	if !c.playing {
		c.mu.Unlock()
		return
	}
	c.pos += elapsed * c.rate

	var out []Event
	switch {
	case c.stopAt >= 0 && c.pos >= c.stopAt:
		c.pos = c.stopAt
		c.playing = false
		c.stopAt = noStop
		out = append(out, Event{Kind: EventTick, Time: c.pos}, Event{Kind: EventPaused, Time: c.pos})
	case c.pos >= c.duration:
		c.pos = c.duration
		c.playing = false
		out = append(out, Event{Kind: EventTick, Time: c.pos}, Event{Kind: EventEnded, Time: c.pos})
	default:
		out = append(out, Event{Kind: EventTick, Time: c.pos})
	}
	c.mu.Unlock()

	for _, ev := range out {
		c.emit(ev)
	}
}

func (c *Clock) Play() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return fmt.Errorf("playback clock closed")
	}
	if c.pos >= c.duration {
		c.pos = 0
	}
	c.stopAt = noStop
	c.playing = true
	return nil
}

func (c *Clock) Pause() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return fmt.Errorf("playback clock closed")
	}
	wasPlaying := c.playing
	c.playing = false
	c.stopAt = noStop
	pos := c.pos
	c.mu.Unlock()

	if wasPlaying {
		c.emit(Event{Kind: EventPaused, Time: pos})
	}
	return nil
}

func (c *Clock) Seek(t float64) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return fmt.Errorf("playback clock closed")
	}
	c.pos = clamp(t, 0, c.duration)
	pos := c.pos
	c.mu.Unlock()

	c.emit(Event{Kind: EventTick, Time: pos})
	return nil
}

func (c *Clock) PlayRange(start, end float64) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return fmt.Errorf("playback clock closed")
	}
	if start >= end {
		c.mu.Unlock()
		return fmt.Errorf("play range start %v must precede end %v", start, end)
	}
	c.pos = clamp(start, 0, c.duration)
	c.stopAt = clamp(end, 0, c.duration)
	c.playing = true
	pos := c.pos
	c.mu.Unlock()

	c.emit(Event{Kind: EventTick, Time: pos})
	return nil
}

func (c *Clock) CurrentTime() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pos
}

func (c *Clock) Duration() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.duration
}

func (c *Clock) Events() <-chan Event {
	return c.events
}

func (c *Clock) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	c.playing = false
	close(c.done)
	return nil
}

func (c *Clock) emit(ev Event) {
	select {
	case c.events <- ev:
	default:
		c.log.Warn("Dropping playback event; buffer full", "kind", ev.Kind)
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if hi > 0 && v > hi {
		return hi
	}
	return v
}
