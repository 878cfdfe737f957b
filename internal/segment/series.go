package segment

import "fmt"

// None is the index value meaning "no segment".
const None = -1

// Series is the ordered collection of segments for one recording, sorted by
// start time ascending. Overlapping segments are permitted; ordering by start
// is the only structural invariant, and it is maintained on insert. A
// boundary edit is allowed to leave a segment out of slot (see UpdateBounds),
// so ordering is advisory for scanning rather than re-enforced after edits.
type Series struct {
	segments []Segment
	// duration of the recording in seconds; 0 means unknown, in which case
	// the upper range check is skipped.
	duration float64
}

// NewSeries creates an empty series. totalDuration may be 0 when the
// recording duration is not yet known.
func NewSeries(totalDuration float64) *Series {
	return &Series{duration: totalDuration}
}

// FromSegments builds a series from already-decoded segments, sorting them by
// start so the ordering invariant holds regardless of source order.
func FromSegments(segments []Segment, totalDuration float64) *Series {
	s := NewSeries(totalDuration)
	for _, seg := range segments {
		// Bounds of freshly transcribed segments are trusted; insertion
		// position still goes through the sorted scan.
		idx := s.insertPosition(seg.Start)
		s.segments = append(s.segments, Segment{})
		copy(s.segments[idx+1:], s.segments[idx:])
		s.segments[idx] = seg
	}
	return s
}

func (s *Series) Len() int { return len(s.segments) }

// Duration returns the known recording duration, 0 when unknown.
func (s *Series) Duration() float64 { return s.duration }

// SetDuration records the recording duration once the playback engine
// reports it.
func (s *Series) SetDuration(d float64) {
	if d > 0 {
		s.duration = d
	}
}

// At returns the segment at index i.
func (s *Series) At(i int) (Segment, error) {
	if i < 0 || i >= len(s.segments) {
		return Segment{}, fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, i, len(s.segments))
	}
	return s.segments[i], nil
}

// Segments returns a copy of the current sequence in series order.
func (s *Series) Segments() []Segment {
	out := make([]Segment, len(s.segments))
	copy(out, s.segments)
	return out
}

// InsertSorted validates bounds, inserts the segment before the first
// existing segment whose start exceeds the new start (ties land after the
// existing equal entries), and returns the resulting index.
func (s *Series) InsertSorted(seg Segment) (int, error) {
	if err := s.checkBounds(seg.Start, seg.End); err != nil {
		return None, err
	}
	seg.Duration = seg.End - seg.Start
	idx := s.insertPosition(seg.Start)
	s.segments = append(s.segments, Segment{})
	copy(s.segments[idx+1:], s.segments[idx:])
	s.segments[idx] = seg
	return idx, nil
}

// UpdateBounds replaces the segment's start/end after validation, recomputes
// its duration and latches the edited flag. The segment keeps its slot even
// when the new start would sort elsewhere; callers depending on strict order
// restore it by reloading the series.
func (s *Series) UpdateBounds(i int, start, end float64) error {
	if i < 0 || i >= len(s.segments) {
		return fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, i, len(s.segments))
	}
	if err := s.checkBounds(start, end); err != nil {
		return err
	}
	seg := &s.segments[i]
	seg.Start = start
	seg.End = end
	seg.Duration = end - start
	seg.Edited = true
	return nil
}

// UpdateWord replaces the token of a word-level segment.
func (s *Series) UpdateWord(i int, token string) error {
	if i < 0 || i >= len(s.segments) {
		return fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, i, len(s.segments))
	}
	seg := &s.segments[i]
	if seg.Kind != KindWord || seg.Word == nil {
		return fmt.Errorf("%w: segment %d is not word-level", ErrInvalidBounds, i)
	}
	seg.Word.Token = token
	seg.Edited = true
	return nil
}

// UpdatePhrase replaces the content of a phrase-level segment.
func (s *Series) UpdatePhrase(i int, content PhraseContent) error {
	if i < 0 || i >= len(s.segments) {
		return fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, i, len(s.segments))
	}
	seg := &s.segments[i]
	if seg.Kind != KindPhrase || seg.Phrase == nil {
		return fmt.Errorf("%w: segment %d is not phrase-level", ErrInvalidBounds, i)
	}
	c := content
	seg.Phrase = &c
	seg.Edited = true
	return nil
}

// RemoveAt removes and returns the segment at i. Indices above i shift down;
// callers holding derived indices must renormalize.
func (s *Series) RemoveAt(i int) (Segment, error) {
	if i < 0 || i >= len(s.segments) {
		return Segment{}, fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, i, len(s.segments))
	}
	removed := s.segments[i]
	s.segments = append(s.segments[:i], s.segments[i+1:]...)
	return removed, nil
}

// FindActive returns the lowest index whose segment contains t, or None.
// A linear scan is deliberate: series hold hundreds of segments, and the
// first-match-by-index rule resolves overlaps.
func (s *Series) FindActive(t float64) int {
	for i, seg := range s.segments {
		if seg.Contains(t) {
			return i
		}
	}
	return None
}

// EditedCount reports how many segments carry the edited flag.
func (s *Series) EditedCount() int {
	n := 0
	for _, seg := range s.segments {
		if seg.Edited {
			n++
		}
	}
	return n
}

func (s *Series) insertPosition(start float64) int {
	for i, seg := range s.segments {
		if seg.Start > start {
			return i
		}
	}
	return len(s.segments)
}

func (s *Series) checkBounds(start, end float64) error {
	if start < 0 || end < 0 {
		return fmt.Errorf("%w: negative bound (start=%v end=%v)", ErrInvalidBounds, start, end)
	}
	if start >= end {
		return fmt.Errorf("%w: start %v must precede end %v", ErrInvalidBounds, start, end)
	}
	if s.duration > 0 && end > s.duration {
		return fmt.Errorf("%w: end %v exceeds recording duration %v", ErrInvalidBounds, end, s.duration)
	}
	return nil
}
