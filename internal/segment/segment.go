package segment

import "errors"

var (
	// ErrInvalidBounds is returned when start >= end, a bound is negative,
	// or a bound exceeds the recording duration when that is known.
	ErrInvalidBounds = errors.New("invalid segment bounds")
	// ErrIndexOutOfRange indicates a caller-side index bug; it never maps to
	// a user-facing validation message.
	ErrIndexOutOfRange = errors.New("segment index out of range")
)

// Kind discriminates the two segment variants.
type Kind string

const (
	KindWord   Kind = "word"
	KindPhrase Kind = "phrase"
)

// WordContent is the payload of a word-level segment: one token.
type WordContent struct {
	Token string
}

// PhraseContent is the payload of a phrase-level segment.
type PhraseContent struct {
	Text        string
	Speaker     string
	Emotion     string
	EndOfSpeech bool
}

// Segment is one time-bounded annotation unit. Exactly one of Word or Phrase
// is set, matching Kind. Duration is derived and recomputed on every
// boundary edit, never set independently.
type Segment struct {
	Start    float64
	End      float64
	Duration float64
	Language string
	Edited   bool
	Kind     Kind
	Word     *WordContent
	Phrase   *PhraseContent
}

// NewWord builds a word-level segment. Bounds are validated by the series on
// insert, not here.
func NewWord(start, end float64, token, language string) Segment {
	return Segment{
		Start:    start,
		End:      end,
		Duration: end - start,
		Language: language,
		Kind:     KindWord,
		Word:     &WordContent{Token: token},
	}
}

// NewPhrase builds a phrase-level segment.
func NewPhrase(start, end float64, content PhraseContent, language string) Segment {
	c := content
	return Segment{
		Start:    start,
		End:      end,
		Duration: end - start,
		Language: language,
		Kind:     KindPhrase,
		Phrase:   &c,
	}
}

// Contains reports whether t falls inside the segment, bounds inclusive.
func (s Segment) Contains(t float64) bool {
	return s.Start <= t && t <= s.End
}
