package playback

import (
	"testing"
	"time"

	"github.com/shrutilabs/shruti-backend/internal/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	return log
}

// collect drains events until an event of the given kind arrives or the
// timeout expires.
func collect(t *testing.T, c *Clock, until EventKind, timeout time.Duration) []Event {
	t.Helper()
	var out []Event
	deadline := time.After(timeout)
	for {
		select {
		case ev := <-c.Events():
			out = append(out, ev)
			if ev.Kind == until {
				return out
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %q, got %d events", until, len(out))
		}
	}
}

func TestClockEmitsReadyWithDuration(t *testing.T) {
	c := NewClock(42, time.Millisecond, 1, testLogger(t))
	defer c.Close()

	evs := collect(t, c, EventReady, time.Second)
	last := evs[len(evs)-1]
	if last.Duration != 42 {
		t.Fatalf("ready duration = %v, want 42", last.Duration)
	}
}

func TestPlayRangeStopsAtEnd(t *testing.T) {
	// rate 200 with 1ms ticks crosses the 1 second range quickly.
	c := NewClock(10, time.Millisecond, 200, testLogger(t))
	defer c.Close()

	if err := c.Seek(0.5); err != nil {
		t.Fatalf("Seek: %v", err)
	}
	if err := c.PlayRange(1.0, 2.0); err != nil {
		t.Fatalf("PlayRange: %v", err)
	}

	evs := collect(t, c, EventPaused, 2*time.Second)
	sawRangeStart := false
	for _, ev := range evs {
		if ev.Kind != EventTick {
			continue
		}
		if ev.Time == 1.0 {
			sawRangeStart = true
		}
		if ev.Time > 2.0 {
			t.Fatalf("tick advanced past range end: %v", ev.Time)
		}
	}
	if !sawRangeStart {
		t.Fatalf("no tick at range start 1.0")
	}
	if got := c.CurrentTime(); got != 2.0 {
		t.Fatalf("position after bounded play = %v, want 2.0", got)
	}

	// No further ticks once stopped.
	select {
	case ev := <-c.Events():
		if ev.Kind == EventTick {
			t.Fatalf("tick after bounded stop: %+v", ev)
		}
	case <-time.After(20 * time.Millisecond):
	}
}

func TestPlayRangeRejectsInvertedRange(t *testing.T) {
	c := NewClock(10, time.Millisecond, 1, testLogger(t))
	defer c.Close()

	if err := c.PlayRange(2.0, 1.0); err == nil {
		t.Fatalf("PlayRange(2,1) should fail")
	}
}

func TestUnboundedPlayEndsAtDuration(t *testing.T) {
	c := NewClock(0.5, time.Millisecond, 100, testLogger(t))
	defer c.Close()

	if err := c.Play(); err != nil {
		t.Fatalf("Play: %v", err)
	}
	evs := collect(t, c, EventEnded, 2*time.Second)
	last := evs[len(evs)-1]
	if last.Time != 0.5 {
		t.Fatalf("ended at %v, want 0.5", last.Time)
	}
}

func TestSeekEmitsTick(t *testing.T) {
	c := NewClock(10, time.Hour, 1, testLogger(t))
	defer c.Close()

	collect(t, c, EventReady, time.Second)
	if err := c.Seek(3.25); err != nil {
		t.Fatalf("Seek: %v", err)
	}
	evs := collect(t, c, EventTick, time.Second)
	last := evs[len(evs)-1]
	if last.Time != 3.25 {
		t.Fatalf("seek tick at %v, want 3.25", last.Time)
	}
}
