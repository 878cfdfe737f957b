package timeline

import (
	"fmt"

	"github.com/shrutilabs/shruti-backend/internal/logger"
	"github.com/shrutilabs/shruti-backend/internal/playback"
	"github.com/shrutilabs/shruti-backend/internal/segment"
	"github.com/shrutilabs/shruti-backend/internal/timecode"
)

// SelectionState is the trio of segment indices the UI depends on. Each is
// an index into the series or segment.None.
type SelectionState struct {
	Active   int `json:"active"`
	Selected int `json:"selected"`
	Editing  int `json:"editing"`
}

// Controller keeps playback position and segment selection in lock-step for
// one open recording. It owns the series and selection state exclusively and
// must only be driven from a single goroutine; edits and ticks interleave at
// whole-event boundaries.
type Controller struct {
	log    *logger.Logger
	series *segment.Series
	bridge playback.Bridge

	sel      SelectionState
	lastTime float64
	playing  bool
}

func NewController(series *segment.Series, bridge playback.Bridge, log *logger.Logger) *Controller {
	return &Controller{
		log:    log.With("component", "TimelineController"),
		series: series,
		bridge: bridge,
		sel: SelectionState{
			Active:   segment.None,
			Selected: segment.None,
			Editing:  segment.None,
		},
	}
}

// Series exposes the underlying store for read access (snapshots, export).
func (c *Controller) Series() *segment.Series { return c.series }

// Selection returns the current selection snapshot.
func (c *Controller) Selection() SelectionState { return c.sel }

// LastTime returns the last playback position the controller observed.
func (c *Controller) LastTime() float64 { return c.lastTime }

// Playing reports whether the last engine event left playback running.
func (c *Controller) Playing() bool { return c.playing }

// HandleEvent dispatches one engine notification.
func (c *Controller) HandleEvent(ev playback.Event) {
	switch ev.Kind {
	case playback.EventReady:
		c.series.SetDuration(ev.Duration)
	case playback.EventTick:
		c.Tick(ev.Time)
	case playback.EventPaused:
		c.Pause()
	case playback.EventEnded:
		c.playing = false
		c.Tick(ev.Time)
	}
}

// Tick recomputes the active segment from the playback position. Selection
// and editing are never touched by ticks; absence of a match clears the
// highlight.
func (c *Controller) Tick(t float64) {
	c.lastTime = t
	c.sel.Active = c.series.FindActive(t)
}

// Pause recomputes the active segment once more from the last known time and
// then freezes it: the highlight stays while paused, even in a gap.
func (c *Controller) Pause() {
	c.playing = false
	if idx := c.series.FindActive(c.lastTime); idx != segment.None {
		c.sel.Active = idx
	}
}

// Activate handles a user clicking a segment: it becomes both selected and
// active, and the engine plays exactly its interval.
func (c *Controller) Activate(i int) error {
	seg, err := c.series.At(i)
	if err != nil {
		return err
	}
	c.sel.Selected = i
	c.sel.Active = i
	if err := c.bridge.PlayRange(seg.Start, seg.End); err != nil {
		return fmt.Errorf("play segment %d: %w", i, err)
	}
	c.playing = true
	return nil
}

// StartEditing marks the segment whose edit form is open.
func (c *Controller) StartEditing(i int) error {
	if _, err := c.series.At(i); err != nil {
		return err
	}
	c.sel.Editing = i
	return nil
}

// StopEditing closes the edit form without structural changes.
func (c *Controller) StopEditing() {
	c.sel.Editing = segment.None
}

// Seek forwards a position change to the engine; the resulting tick updates
// the active segment.
func (c *Controller) Seek(t float64) error {
	return c.bridge.Seek(t)
}

// Play resumes unbounded playback.
func (c *Controller) Play() error {
	if err := c.bridge.Play(); err != nil {
		return err
	}
	c.playing = true
	return nil
}

// RequestPause asks the engine to stop; the paused event drives Pause.
func (c *Controller) RequestPause() error {
	return c.bridge.Pause()
}

// InsertSegment inserts into the series and shifts every selection index at
// or beyond the landing position up by one.
func (c *Controller) InsertSegment(seg segment.Segment) (int, error) {
	idx, err := c.series.InsertSorted(seg)
	if err != nil {
		return segment.None, err
	}
	c.sel.Active = shiftAfterInsert(c.sel.Active, idx)
	c.sel.Selected = shiftAfterInsert(c.sel.Selected, idx)
	c.sel.Editing = shiftAfterInsert(c.sel.Editing, idx)
	return idx, nil
}

// DeleteSegment removes the segment and renormalizes all three indices:
// the deleted index maps to None, higher indices shift down.
func (c *Controller) DeleteSegment(i int) (segment.Segment, error) {
	removed, err := c.series.RemoveAt(i)
	if err != nil {
		return segment.Segment{}, err
	}
	c.sel.Active = shiftAfterDelete(c.sel.Active, i)
	c.sel.Selected = shiftAfterDelete(c.sel.Selected, i)
	c.sel.Editing = shiftAfterDelete(c.sel.Editing, i)
	return removed, nil
}

// ResizeSegment applies a boundary edit. Indices are untouched, but when the
// resized segment no longer contains the last playback position the active
// segment is recomputed.
func (c *Controller) ResizeSegment(i int, start, end float64) error {
	if err := c.series.UpdateBounds(i, start, end); err != nil {
		return err
	}
	seg, err := c.series.At(i)
	if err != nil {
		return err
	}
	if !seg.Contains(c.lastTime) {
		c.sel.Active = c.series.FindActive(c.lastTime)
	}
	return nil
}

// ResizeSegmentFromText parses user-entered boundary text before any
// mutation: a malformed timecode surfaces with the series untouched.
func (c *Controller) ResizeSegmentFromText(i int, startText, endText string) error {
	start, err := timecode.Parse(startText)
	if err != nil {
		return err
	}
	end, err := timecode.Parse(endText)
	if err != nil {
		return err
	}
	return c.ResizeSegment(i, start, end)
}

// UpdateWord edits a word segment's token; content edits never move indices.
func (c *Controller) UpdateWord(i int, token string) error {
	return c.series.UpdateWord(i, token)
}

// UpdatePhrase edits a phrase segment's content.
func (c *Controller) UpdatePhrase(i int, content segment.PhraseContent) error {
	return c.series.UpdatePhrase(i, content)
}

func shiftAfterInsert(idx, insertedAt int) int {
	if idx == segment.None || idx < insertedAt {
		return idx
	}
	return idx + 1
}

func shiftAfterDelete(idx, deletedAt int) int {
	switch {
	case idx == segment.None:
		return segment.None
	case idx == deletedAt:
		return segment.None
	case idx > deletedAt:
		return idx - 1
	default:
		return idx
	}
}
