package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/shrutilabs/shruti-backend/internal/logger"
	"github.com/shrutilabs/shruti-backend/internal/playback"
	"github.com/shrutilabs/shruti-backend/internal/repos"
	"github.com/shrutilabs/shruti-backend/internal/segment"
	"github.com/shrutilabs/shruti-backend/internal/sse"
	"github.com/shrutilabs/shruti-backend/internal/timeline"
	"github.com/shrutilabs/shruti-backend/internal/types"
)

// newTestSession wires a session around a fast simulated clock so bounded
// playback completes in milliseconds of wall time.
func newTestSession(t *testing.T, segments []segment.Segment, duration float64) *reviewSession {
	return newTestSessionWith(t, segments, duration, nil, time.Minute)
}

func newTestSessionWith(t *testing.T, segments []segment.Segment, duration float64, emitter SSEEmitter, idle time.Duration) *reviewSession {
	t.Helper()
	log, err := logger.New("dev")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	series := segment.FromSegments(segments, duration)
	clock := playback.NewClock(duration, 2*time.Millisecond, 200, log)
	session := &reviewSession{
		id:          uuid.New(),
		recordingID: uuid.New(),
		kind:        types.RecordingKindWord,
		language:    "Hindi",
		controller:  timeline.NewController(series, clock, log),
		clock:       clock,
		cmds:        make(chan reviewCommand, 16),
		done:        make(chan struct{}),
		idleTimeout: idle,
		log:         log,
		emitter:     emitter,
	}
	session.expire = session.shutdown
	go session.loop()
	t.Cleanup(session.shutdown)
	return session
}

func waitForPaused(t *testing.T, session *reviewSession) *SessionSnapshot {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		snapshot, err := session.execute(context.Background(), func(c *timeline.Controller) error { return nil })
		if err != nil {
			t.Fatalf("snapshot: %v", err)
		}
		if !snapshot.Playing {
			return snapshot
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("session never paused")
	return nil
}

func TestSessionActivatePlaysSegmentAndStops(t *testing.T) {
	segments := []segment.Segment{
		segment.NewWord(1.0, 2.0, "ek", "Hindi"),
		segment.NewWord(3.0, 4.0, "do", "Hindi"),
	}
	session := newTestSession(t, segments, 10)

	snapshot, err := session.execute(context.Background(), func(c *timeline.Controller) error {
		return c.Activate(1)
	})
	if err != nil {
		t.Fatalf("Activate: %v", err)
	}
	if snapshot.Selection.Selected != 1 || snapshot.Selection.Active != 1 {
		t.Fatalf("selection after activate = %+v", snapshot.Selection)
	}

	final := waitForPaused(t, session)
	if final.Position < 3.9 || final.Position > 4.0 {
		t.Errorf("stopped at %v, want segment end 4.0", final.Position)
	}
}

func TestSessionEditsInterleaveWithTicks(t *testing.T) {
	segments := []segment.Segment{
		segment.NewWord(1.0, 2.0, "ek", "Hindi"),
		segment.NewWord(3.0, 4.0, "do", "Hindi"),
		segment.NewWord(5.0, 6.0, "teen", "Hindi"),
	}
	session := newTestSession(t, segments, 10)

	if _, err := session.execute(context.Background(), func(c *timeline.Controller) error {
		return c.Play()
	}); err != nil {
		t.Fatalf("Play: %v", err)
	}

	// Structural edits while ticks are flowing must never corrupt state.
	for i := 0; i < 20; i++ {
		snapshot, err := session.execute(context.Background(), func(c *timeline.Controller) error {
			seg := segment.NewWord(7.0, 7.5, "extra", "Hindi")
			if _, iErr := c.InsertSegment(seg); iErr != nil {
				return iErr
			}
			_, dErr := c.DeleteSegment(c.Series().Len() - 1)
			return dErr
		})
		if err != nil {
			t.Fatalf("edit %d: %v", i, err)
		}
		if snapshot.Selection.Active != segment.None {
			seg := snapshot.Segments[snapshot.Selection.Active]
			if snapshot.Position < seg.Start || snapshot.Position > seg.End {
				t.Fatalf("active segment %d does not contain position %v", snapshot.Selection.Active, snapshot.Position)
			}
		}
		if len(snapshot.Segments) != 3 {
			t.Fatalf("segment count drifted to %d", len(snapshot.Segments))
		}
	}
}

func TestSessionSnapshotRendersNativeText(t *testing.T) {
	segments := []segment.Segment{
		segment.NewWord(0.25, 1.0, "shabd", "Hindi"),
	}
	session := newTestSession(t, segments, 5)

	snapshot, err := session.execute(context.Background(), func(c *timeline.Controller) error { return nil })
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	view := snapshot.Segments[0]
	if view.StartText != "0:00.250" || view.EndText != "0:01.000" {
		t.Errorf("native text = %q..%q", view.StartText, view.EndText)
	}
	if view.Content != "shabd" {
		t.Errorf("Content = %q", view.Content)
	}
	if snapshot.Duration != 5 {
		t.Errorf("Duration = %v, want 5", snapshot.Duration)
	}
}

func TestSessionExecuteAfterClose(t *testing.T) {
	session := newTestSession(t, nil, 5)
	session.shutdown()

	if _, err := session.execute(context.Background(), func(c *timeline.Controller) error { return nil }); err == nil {
		t.Fatal("expected error executing on a closed session")
	}
}

func TestSessionShutdownIdempotent(t *testing.T) {
	session := newTestSession(t, nil, 5)
	session.shutdown()
	session.shutdown()
}

func TestInsertedSegmentInheritsLanguage(t *testing.T) {
	input := InsertSegmentInput{StartText: "0:01.000", EndText: "0:02.000", Token: "naya"}

	word, err := buildSegment(types.RecordingKindWord, "Hindi", input)
	if err != nil {
		t.Fatalf("buildSegment word: %v", err)
	}
	if word.Language != "Hindi" {
		t.Errorf("word language = %q, want %q", word.Language, "Hindi")
	}

	input.Text = "naya vakya"
	input.Speaker = "S1"
	phrase, err := buildSegment(types.RecordingKindPhrase, "Tamil", input)
	if err != nil {
		t.Fatalf("buildSegment phrase: %v", err)
	}
	if phrase.Language != "Tamil" {
		t.Errorf("phrase language = %q, want %q", phrase.Language, "Tamil")
	}
}

func TestSessionInsertInheritsRecordingLanguage(t *testing.T) {
	session := newTestSession(t, []segment.Segment{
		segment.NewWord(1.0, 2.0, "ek", "Hindi"),
	}, 10)

	seg, err := buildSegment(session.kind, session.language, InsertSegmentInput{
		StartText: "0:03.000", EndText: "0:04.000", Token: "do",
	})
	if err != nil {
		t.Fatalf("buildSegment: %v", err)
	}
	if _, err := session.execute(context.Background(), func(c *timeline.Controller) error {
		_, iErr := c.InsertSegment(seg)
		return iErr
	}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	var languages []string
	if _, err := session.execute(context.Background(), func(c *timeline.Controller) error {
		for _, s := range c.Series().Segments() {
			languages = append(languages, s.Language)
		}
		return nil
	}); err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	for i, lang := range languages {
		if lang != "Hindi" {
			t.Errorf("segment %d language = %q, want %q", i, lang, "Hindi")
		}
	}
}

func TestSessionExpiresWhenIdle(t *testing.T) {
	session := newTestSessionWith(t, nil, 5, nil, 20*time.Millisecond)

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case <-session.done:
			return
		default:
			time.Sleep(5 * time.Millisecond)
		}
	}
	t.Fatal("idle session never expired")
}

func TestSessionPublishesThroughEmitter(t *testing.T) {
	emitter := &captureEmitter{}
	session := newTestSessionWith(t, []segment.Segment{
		segment.NewWord(1.0, 2.0, "ek", "Hindi"),
	}, 5, emitter, time.Minute)

	if _, err := session.execute(context.Background(), func(c *timeline.Controller) error {
		return c.Play()
	}); err != nil {
		t.Fatalf("Play: %v", err)
	}
	waitForPaused(t, session)

	channel := sse.RecordingChannel(session.recordingID)
	if n := emitter.count(sse.SSEEventReviewTick, channel); n == 0 {
		t.Error("no tick events reached the emitter")
	}
	if n := emitter.count(sse.SSEEventReviewEnded, channel); n == 0 {
		t.Error("no ended event reached the emitter")
	}
}

func TestIdleSessionRemovedFromService(t *testing.T) {
	t.Setenv("REVIEW_IDLE_TIMEOUT_MS", "20")
	log, err := logger.New("dev")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	stub := newStubRecordingService("Hindi")
	svc := NewReviewService(log, stub, nil)
	t.Cleanup(svc.CloseAll)

	snapshot, err := svc.Open(context.Background(), stub.recording.ID)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	// Each Snapshot is a command and resets the idle timer, so sleep well
	// past the timeout between checks.
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		time.Sleep(100 * time.Millisecond)
		if _, err := svc.Snapshot(context.Background(), snapshot.SessionID); err != nil {
			return
		}
	}
	t.Fatal("idle session still reachable through the service")
}

func TestServiceInsertInheritsLanguageOnSave(t *testing.T) {
	log, err := logger.New("dev")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	stub := newStubRecordingService("Tamil")
	svc := NewReviewService(log, stub, nil)
	t.Cleanup(svc.CloseAll)

	snapshot, err := svc.Open(context.Background(), stub.recording.ID)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := svc.Insert(context.Background(), snapshot.SessionID, InsertSegmentInput{
		StartText: "0:03.000", EndText: "0:04.000", Token: "pudhiya",
	}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if _, err := svc.Save(context.Background(), snapshot.SessionID); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if len(stub.saved) != 2 {
		t.Fatalf("saved %d segments, want 2", len(stub.saved))
	}
	for i, seg := range stub.saved {
		if seg.Language != "Tamil" {
			t.Errorf("saved segment %d language = %q, want %q", i, seg.Language, "Tamil")
		}
	}
}

// stubRecordingService backs session tests with one in-memory recording.
type stubRecordingService struct {
	recording *types.Recording
	segments  []segment.Segment
	saved     []segment.Segment
}

func newStubRecordingService(language string) *stubRecordingService {
	return &stubRecordingService{
		recording: &types.Recording{
			ID:            uuid.New(),
			FileName:      "sample.json",
			Language:      language,
			Kind:          types.RecordingKindWord,
			TotalDuration: 5,
		},
		segments: []segment.Segment{segment.NewWord(1.0, 2.0, "ek", language)},
	}
}

func (s *stubRecordingService) Import(ctx context.Context, input ImportRecordingInput) (*types.Recording, error) {
	return nil, fmt.Errorf("not supported")
}

func (s *stubRecordingService) List(ctx context.Context, filter repos.RecordingFilter) ([]*types.Recording, error) {
	return []*types.Recording{s.recording}, nil
}

func (s *stubRecordingService) Get(ctx context.Context, recordingID uuid.UUID) (*types.Recording, error) {
	return s.recording, nil
}

func (s *stubRecordingService) LoadSeries(ctx context.Context, recordingID uuid.UUID) (*types.Recording, *segment.Series, error) {
	return s.recording, segment.FromSegments(s.segments, s.recording.TotalDuration), nil
}

func (s *stubRecordingService) Save(ctx context.Context, recordingID uuid.UUID, segments []segment.Segment) (*types.Recording, error) {
	s.saved = segments
	return s.recording, nil
}

func (s *stubRecordingService) Export(ctx context.Context, recordingID uuid.UUID) (*ExportDocument, error) {
	return nil, fmt.Errorf("not supported")
}

func (s *stubRecordingService) Delete(ctx context.Context, recordingIDs []uuid.UUID) error {
	return nil
}

// captureEmitter records emitted messages; Emit runs on the session loop
// goroutine, so access is locked.
type captureEmitter struct {
	mu   sync.Mutex
	msgs []sse.SSEMessage
}

func (e *captureEmitter) Emit(ctx context.Context, msg sse.SSEMessage) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.msgs = append(e.msgs, msg)
}

func (e *captureEmitter) count(event sse.SSEEvent, channel string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, m := range e.msgs {
		if m.Event == event && m.Channel == channel {
			n++
		}
	}
	return n
}
