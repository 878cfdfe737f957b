package services

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shrutilabs/shruti-backend/internal/apierr"
	"github.com/shrutilabs/shruti-backend/internal/logger"
	"github.com/shrutilabs/shruti-backend/internal/playback"
	"github.com/shrutilabs/shruti-backend/internal/segment"
	"github.com/shrutilabs/shruti-backend/internal/sse"
	"github.com/shrutilabs/shruti-backend/internal/timecode"
	"github.com/shrutilabs/shruti-backend/internal/timeline"
	"github.com/shrutilabs/shruti-backend/internal/types"
	"github.com/shrutilabs/shruti-backend/internal/utils"
)

// SegmentView is one segment rendered for the review UI: bounds both as
// seconds and as text in the recording kind's native encoding.
type SegmentView struct {
	Index     int     `json:"index"`
	Start     float64 `json:"start"`
	End       float64 `json:"end"`
	StartText string  `json:"start_text"`
	EndText   string  `json:"end_text"`
	Content   string  `json:"content"`
	Speaker   string  `json:"speaker,omitempty"`
	Emotion   string  `json:"emotion,omitempty"`
	Edited    bool    `json:"edited"`
}

// SessionSnapshot is the full review state returned by every session call, so
// the client never has to diff server state.
type SessionSnapshot struct {
	SessionID   uuid.UUID               `json:"session_id"`
	RecordingID uuid.UUID               `json:"recording_id"`
	Kind        string                  `json:"kind"`
	Position    float64                 `json:"position"`
	Duration    float64                 `json:"duration"`
	Playing     bool                    `json:"playing"`
	Selection   timeline.SelectionState `json:"selection"`
	Segments    []SegmentView           `json:"segments"`
}

// InsertSegmentInput carries a user-created segment. Bounds arrive as text in
// whatever encoding the annotator typed.
type InsertSegmentInput struct {
	StartText   string `json:"start_text"`
	EndText     string `json:"end_text"`
	Token       string `json:"token,omitempty"`
	Text        string `json:"text,omitempty"`
	Speaker     string `json:"speaker,omitempty"`
	Emotion     string `json:"emotion,omitempty"`
	EndOfSpeech bool   `json:"end_of_speech,omitempty"`
}

// UpdateContentInput edits a segment's content in place.
type UpdateContentInput struct {
	Token       string `json:"token,omitempty"`
	Text        string `json:"text,omitempty"`
	Speaker     string `json:"speaker,omitempty"`
	Emotion     string `json:"emotion,omitempty"`
	EndOfSpeech bool   `json:"end_of_speech,omitempty"`
}

type ReviewService interface {
	Open(ctx context.Context, recordingID uuid.UUID) (*SessionSnapshot, error)
	Snapshot(ctx context.Context, sessionID uuid.UUID) (*SessionSnapshot, error)
	Play(ctx context.Context, sessionID uuid.UUID) (*SessionSnapshot, error)
	Pause(ctx context.Context, sessionID uuid.UUID) (*SessionSnapshot, error)
	Seek(ctx context.Context, sessionID uuid.UUID, timeText string) (*SessionSnapshot, error)
	Activate(ctx context.Context, sessionID uuid.UUID, index int) (*SessionSnapshot, error)
	StartEditing(ctx context.Context, sessionID uuid.UUID, index int) (*SessionSnapshot, error)
	StopEditing(ctx context.Context, sessionID uuid.UUID) (*SessionSnapshot, error)
	Insert(ctx context.Context, sessionID uuid.UUID, input InsertSegmentInput) (*SessionSnapshot, error)
	Delete(ctx context.Context, sessionID uuid.UUID, index int) (*SessionSnapshot, error)
	Resize(ctx context.Context, sessionID uuid.UUID, index int, startText, endText string) (*SessionSnapshot, error)
	UpdateContent(ctx context.Context, sessionID uuid.UUID, index int, input UpdateContentInput) (*SessionSnapshot, error)
	Save(ctx context.Context, sessionID uuid.UUID) (*types.Recording, error)
	CloseSession(ctx context.Context, sessionID uuid.UUID) error
	CloseAll()
}

// reviewCommand is one operation applied inside the session's event loop.
// The loop is the only goroutine that touches the controller, so commands
// and playback events interleave at whole-operation boundaries.
type reviewCommand struct {
	apply func(c *timeline.Controller) error
	reply chan commandResult
}

type commandResult struct {
	snapshot *SessionSnapshot
	err      error
}

type reviewSession struct {
	id          uuid.UUID
	recordingID uuid.UUID
	kind        string
	language    string
	controller  *timeline.Controller
	clock       *playback.Clock
	cmds        chan reviewCommand
	done        chan struct{}
	closeOnce   sync.Once
	idleTimeout time.Duration
	expire      func()
	log         *logger.Logger
	emitter     SSEEmitter
}

type reviewService struct {
	mu        sync.RWMutex
	log       *logger.Logger
	sessions  map[uuid.UUID]*reviewSession
	recording RecordingService
	emitter   SSEEmitter

	tickInterval time.Duration
	playbackRate float64
	idleTimeout  time.Duration
}

func NewReviewService(log *logger.Logger, recording RecordingService, emitter SSEEmitter) ReviewService {
	serviceLog := log.With("service", "ReviewService")
	intervalMs := utils.GetEnvAsInt("REVIEW_TICK_INTERVAL_MS", 250, log)
	rate := utils.GetEnvAsFloat("REVIEW_PLAYBACK_RATE", 1.0, log)
	idleMs := utils.GetEnvAsInt("REVIEW_IDLE_TIMEOUT_MS", 1800000, log)
	return &reviewService{
		log:          serviceLog,
		sessions:     make(map[uuid.UUID]*reviewSession),
		recording:    recording,
		emitter:      emitter,
		tickInterval: time.Duration(intervalMs) * time.Millisecond,
		playbackRate: rate,
		idleTimeout:  time.Duration(idleMs) * time.Millisecond,
	}
}

func (rs *reviewService) Open(ctx context.Context, recordingID uuid.UUID) (*SessionSnapshot, error) {
	recording, series, err := rs.recording.LoadSeries(ctx, recordingID)
	if err != nil {
		return nil, err
	}

	sessionID := uuid.New()
	clock := playback.NewClock(recording.TotalDuration, rs.tickInterval, rs.playbackRate, rs.log)
	controller := timeline.NewController(series, clock, rs.log)

	session := &reviewSession{
		id:          sessionID,
		recordingID: recordingID,
		kind:        recording.Kind,
		language:    recording.Language,
		controller:  controller,
		clock:       clock,
		cmds:        make(chan reviewCommand, 16),
		done:        make(chan struct{}),
		idleTimeout: rs.idleTimeout,
		log:         rs.log.With("sessionID", sessionID, "recordingID", recordingID),
		emitter:     rs.emitter,
	}
	session.expire = func() {
		rs.mu.Lock()
		delete(rs.sessions, sessionID)
		rs.mu.Unlock()
		session.shutdown()
		session.log.Info("Expired idle review session")
	}

	rs.mu.Lock()
	rs.sessions[sessionID] = session
	rs.mu.Unlock()

	go session.loop()
	session.log.Info("Opened review session", "segments", series.Len())

	return session.execute(ctx, func(c *timeline.Controller) error { return nil })
}

// loop owns the controller. Playback events and user commands are applied
// one at a time; ticks never observe a half-applied edit. A session nobody
// has commanded for idleTimeout expires so its clock does not tick forever.
func (s *reviewSession) loop() {
	idle := time.NewTimer(s.idleTimeout)
	defer idle.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-idle.C:
			if s.expire != nil {
				s.expire()
			}
			return
		case ev, ok := <-s.clock.Events():
			if !ok {
				return
			}
			prevActive := s.controller.Selection().Active
			s.controller.HandleEvent(ev)
			s.publish(ev, prevActive)
		case cmd := <-s.cmds:
			err := cmd.apply(s.controller)
			cmd.reply <- commandResult{snapshot: s.snapshotLocked(), err: err}
			if !idle.Stop() {
				select {
				case <-idle.C:
				default:
				}
			}
			idle.Reset(s.idleTimeout)
		}
	}
}

// shutdown tears the session down; safe to call more than once (explicit
// close, service shutdown, and idle expiry can race).
func (s *reviewSession) shutdown() {
	s.closeOnce.Do(func() {
		close(s.done)
		_ = s.clock.Close()
	})
}

func (s *reviewSession) publish(ev playback.Event, prevActive int) {
	if s.emitter == nil {
		return
	}
	ctx := context.Background()
	channel := sse.RecordingChannel(s.recordingID)
	sel := s.controller.Selection()

	switch ev.Kind {
	case playback.EventTick:
		s.emitter.Emit(ctx, sse.SSEMessage{
			Channel: channel,
			Event:   sse.SSEEventReviewTick,
			Data: map[string]any{
				"session_id": s.id,
				"position":   ev.Time,
				"active":     sel.Active,
			},
		})
	case playback.EventPaused:
		s.emitter.Emit(ctx, sse.SSEMessage{
			Channel: channel,
			Event:   sse.SSEEventReviewPaused,
			Data: map[string]any{
				"session_id": s.id,
				"position":   ev.Time,
				"active":     sel.Active,
			},
		})
	case playback.EventEnded:
		s.emitter.Emit(ctx, sse.SSEMessage{
			Channel: channel,
			Event:   sse.SSEEventReviewEnded,
			Data: map[string]any{
				"session_id": s.id,
				"position":   ev.Time,
			},
		})
	}

	if sel.Active != prevActive {
		s.emitter.Emit(ctx, sse.SSEMessage{
			Channel: channel,
			Event:   sse.SSEEventSegmentActive,
			Data: map[string]any{
				"session_id": s.id,
				"active":     sel.Active,
			},
		})
	}
}

// snapshotLocked renders the session state; only called from the loop.
func (s *reviewSession) snapshotLocked() *SessionSnapshot {
	series := s.controller.Series()
	segments := series.Segments()
	views := make([]SegmentView, 0, len(segments))
	for i, seg := range segments {
		view := SegmentView{
			Index:     i,
			Start:     seg.Start,
			End:       seg.End,
			StartText: segment.NativeTimeText(seg.Kind, seg.Start),
			EndText:   segment.NativeTimeText(seg.Kind, seg.End),
			Content:   segment.ContentText(seg),
			Edited:    seg.Edited,
		}
		if seg.Kind == segment.KindPhrase && seg.Phrase != nil {
			view.Speaker = seg.Phrase.Speaker
			view.Emotion = seg.Phrase.Emotion
		}
		views = append(views, view)
	}
	return &SessionSnapshot{
		SessionID:   s.id,
		RecordingID: s.recordingID,
		Kind:        s.kind,
		Position:    s.controller.LastTime(),
		Duration:    series.Duration(),
		Playing:     s.controller.Playing(),
		Selection:   s.controller.Selection(),
		Segments:    views,
	}
}

// execute runs one command inside the loop and waits for the result.
func (s *reviewSession) execute(ctx context.Context, apply func(c *timeline.Controller) error) (*SessionSnapshot, error) {
	cmd := reviewCommand{apply: apply, reply: make(chan commandResult, 1)}
	select {
	case s.cmds <- cmd:
	case <-s.done:
		return nil, fmt.Errorf("review session closed")
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case res := <-cmd.reply:
		return res.snapshot, res.err
	case <-s.done:
		// The loop may have replied just before shutdown; prefer the reply.
		select {
		case res := <-cmd.reply:
			return res.snapshot, res.err
		default:
		}
		return nil, fmt.Errorf("review session closed")
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (rs *reviewService) session(sessionID uuid.UUID) (*reviewSession, error) {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	session, ok := rs.sessions[sessionID]
	if !ok {
		return nil, apierr.New(http.StatusNotFound, "session_not_found", fmt.Errorf("review session %s not found", sessionID))
	}
	return session, nil
}

func (rs *reviewService) run(ctx context.Context, sessionID uuid.UUID, apply func(c *timeline.Controller) error) (*SessionSnapshot, error) {
	session, err := rs.session(sessionID)
	if err != nil {
		return nil, err
	}
	return session.execute(ctx, apply)
}

func (rs *reviewService) Snapshot(ctx context.Context, sessionID uuid.UUID) (*SessionSnapshot, error) {
	return rs.run(ctx, sessionID, func(c *timeline.Controller) error { return nil })
}

func (rs *reviewService) Play(ctx context.Context, sessionID uuid.UUID) (*SessionSnapshot, error) {
	return rs.run(ctx, sessionID, func(c *timeline.Controller) error { return c.Play() })
}

func (rs *reviewService) Pause(ctx context.Context, sessionID uuid.UUID) (*SessionSnapshot, error) {
	return rs.run(ctx, sessionID, func(c *timeline.Controller) error { return c.RequestPause() })
}

func (rs *reviewService) Seek(ctx context.Context, sessionID uuid.UUID, timeText string) (*SessionSnapshot, error) {
	t, err := parseTimeText(timeText)
	if err != nil {
		return nil, err
	}
	return rs.run(ctx, sessionID, func(c *timeline.Controller) error { return c.Seek(t) })
}

func (rs *reviewService) Activate(ctx context.Context, sessionID uuid.UUID, index int) (*SessionSnapshot, error) {
	return rs.run(ctx, sessionID, func(c *timeline.Controller) error { return c.Activate(index) })
}

func (rs *reviewService) StartEditing(ctx context.Context, sessionID uuid.UUID, index int) (*SessionSnapshot, error) {
	return rs.run(ctx, sessionID, func(c *timeline.Controller) error { return c.StartEditing(index) })
}

func (rs *reviewService) StopEditing(ctx context.Context, sessionID uuid.UUID) (*SessionSnapshot, error) {
	return rs.run(ctx, sessionID, func(c *timeline.Controller) error {
		c.StopEditing()
		return nil
	})
}

func (rs *reviewService) Insert(ctx context.Context, sessionID uuid.UUID, input InsertSegmentInput) (*SessionSnapshot, error) {
	session, err := rs.session(sessionID)
	if err != nil {
		return nil, err
	}
	seg, err := buildSegment(session.kind, session.language, input)
	if err != nil {
		return nil, err
	}
	return session.execute(ctx, func(c *timeline.Controller) error {
		_, iErr := c.InsertSegment(seg)
		return iErr
	})
}

func (rs *reviewService) Delete(ctx context.Context, sessionID uuid.UUID, index int) (*SessionSnapshot, error) {
	return rs.run(ctx, sessionID, func(c *timeline.Controller) error {
		_, dErr := c.DeleteSegment(index)
		return dErr
	})
}

func (rs *reviewService) Resize(ctx context.Context, sessionID uuid.UUID, index int, startText, endText string) (*SessionSnapshot, error) {
	return rs.run(ctx, sessionID, func(c *timeline.Controller) error {
		return c.ResizeSegmentFromText(index, startText, endText)
	})
}

func (rs *reviewService) UpdateContent(ctx context.Context, sessionID uuid.UUID, index int, input UpdateContentInput) (*SessionSnapshot, error) {
	session, err := rs.session(sessionID)
	if err != nil {
		return nil, err
	}
	return session.execute(ctx, func(c *timeline.Controller) error {
		if session.kind == types.RecordingKindPhrase {
			return c.UpdatePhrase(index, segment.PhraseContent{
				Text:        input.Text,
				Speaker:     input.Speaker,
				Emotion:     input.Emotion,
				EndOfSpeech: input.EndOfSpeech,
			})
		}
		return c.UpdateWord(index, input.Token)
	})
}

func (rs *reviewService) Save(ctx context.Context, sessionID uuid.UUID) (*types.Recording, error) {
	session, err := rs.session(sessionID)
	if err != nil {
		return nil, err
	}
	var segments []segment.Segment
	if _, err := session.execute(ctx, func(c *timeline.Controller) error {
		segments = c.Series().Segments()
		return nil
	}); err != nil {
		return nil, err
	}
	return rs.recording.Save(ctx, session.recordingID, segments)
}

func (rs *reviewService) CloseSession(ctx context.Context, sessionID uuid.UUID) error {
	rs.mu.Lock()
	session, ok := rs.sessions[sessionID]
	if ok {
		delete(rs.sessions, sessionID)
	}
	rs.mu.Unlock()
	if !ok {
		return apierr.New(http.StatusNotFound, "session_not_found", fmt.Errorf("review session %s not found", sessionID))
	}
	session.shutdown()
	session.log.Info("Closed review session")
	return nil
}

func (rs *reviewService) CloseAll() {
	rs.mu.Lock()
	sessions := rs.sessions
	rs.sessions = make(map[uuid.UUID]*reviewSession)
	rs.mu.Unlock()
	for _, session := range sessions {
		session.shutdown()
	}
}

// parseTimeText accepts any of the supported textual encodings, so seek and
// insert fields take whatever the annotator types.
func parseTimeText(text string) (float64, error) {
	return timecode.Parse(text)
}

// buildSegment creates a user-inserted segment. Language is inherited from
// the parent recording at creation time, never taken from the input.
func buildSegment(kind, language string, input InsertSegmentInput) (segment.Segment, error) {
	start, err := parseTimeText(input.StartText)
	if err != nil {
		return segment.Segment{}, err
	}
	end, err := parseTimeText(input.EndText)
	if err != nil {
		return segment.Segment{}, err
	}
	if kind == types.RecordingKindPhrase {
		return segment.NewPhrase(start, end, segment.PhraseContent{
			Text:        input.Text,
			Speaker:     input.Speaker,
			Emotion:     input.Emotion,
			EndOfSpeech: input.EndOfSpeech,
		}, language), nil
	}
	return segment.NewWord(start, end, input.Token, language), nil
}
