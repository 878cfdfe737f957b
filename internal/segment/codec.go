package segment

import (
	"encoding/json"
	"fmt"

	"github.com/shrutilabs/shruti-backend/internal/timecode"
)

// WordDocument is the wire shape of one word-level entry, field order and
// names matching the transcription pipeline output.
type WordDocument struct {
	Start    float64 `json:"start"`
	Word     string  `json:"word"`
	End      float64 `json:"end"`
	Duration float64 `json:"duration"`
	Language string  `json:"language,omitempty"`
	Edited   bool    `json:"edited,omitempty"`
}

// PhraseDocument is the wire shape of one phrase-level entry. Start and end
// are HH:MM:SS:mmm timecodes, not numbers.
type PhraseDocument struct {
	Start       string `json:"start"`
	End         string `json:"end"`
	Speaker     string `json:"speaker"`
	Text        string `json:"text"`
	Emotion     string `json:"emotion"`
	Language    string `json:"language,omitempty"`
	EndOfSpeech bool   `json:"end_of_speech"`
	Edited      bool   `json:"edited,omitempty"`
}

// DecodeWordDocuments converts raw word entries into segments. The recording
// language is inherited by entries that do not carry their own.
func DecodeWordDocuments(raw json.RawMessage, language string) ([]Segment, error) {
	var docs []WordDocument
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &docs); err != nil {
			return nil, fmt.Errorf("decode word documents: %w", err)
		}
	}
	segments := make([]Segment, 0, len(docs))
	for _, d := range docs {
		lang := d.Language
		if lang == "" {
			lang = language
		}
		seg := NewWord(d.Start, d.End, d.Word, lang)
		seg.Edited = d.Edited
		segments = append(segments, seg)
	}
	return segments, nil
}

// DecodePhraseDocuments converts raw phrase entries into segments, parsing
// the textual timecodes. A malformed timecode fails the whole decode.
func DecodePhraseDocuments(raw json.RawMessage, language string) ([]Segment, error) {
	var docs []PhraseDocument
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &docs); err != nil {
			return nil, fmt.Errorf("decode phrase documents: %w", err)
		}
	}
	segments := make([]Segment, 0, len(docs))
	for i, d := range docs {
		start, err := timecode.Parse(d.Start)
		if err != nil {
			return nil, fmt.Errorf("phrase %d start: %w", i, err)
		}
		end, err := timecode.Parse(d.End)
		if err != nil {
			return nil, fmt.Errorf("phrase %d end: %w", i, err)
		}
		lang := d.Language
		if lang == "" {
			lang = language
		}
		seg := NewPhrase(start, end, PhraseContent{
			Text:        d.Text,
			Speaker:     d.Speaker,
			Emotion:     d.Emotion,
			EndOfSpeech: d.EndOfSpeech,
		}, lang)
		seg.Edited = d.Edited
		segments = append(segments, seg)
	}
	return segments, nil
}

// EncodeDocuments renders segments back to their native wire shape: word
// segments as numeric-seconds entries, phrase segments as HH:MM:SS:mmm
// entries. Mixed-kind series are rejected; a recording is one kind.
func EncodeDocuments(segments []Segment) (json.RawMessage, error) {
	if len(segments) == 0 {
		return json.RawMessage("[]"), nil
	}
	kind := segments[0].Kind
	for i, seg := range segments {
		if seg.Kind != kind {
			return nil, fmt.Errorf("segment %d kind %q differs from series kind %q", i, seg.Kind, kind)
		}
	}
	switch kind {
	case KindWord:
		docs := make([]WordDocument, 0, len(segments))
		for _, seg := range segments {
			docs = append(docs, WordDocument{
				Start:    seg.Start,
				Word:     seg.Word.Token,
				End:      seg.End,
				Duration: seg.Duration,
				Language: seg.Language,
				Edited:   seg.Edited,
			})
		}
		return json.Marshal(docs)
	case KindPhrase:
		docs := make([]PhraseDocument, 0, len(segments))
		for _, seg := range segments {
			docs = append(docs, PhraseDocument{
				Start:       timecode.Format(seg.Start, timecode.StyleFrame),
				End:         timecode.Format(seg.End, timecode.StyleFrame),
				Speaker:     seg.Phrase.Speaker,
				Text:        seg.Phrase.Text,
				Emotion:     seg.Phrase.Emotion,
				Language:    seg.Language,
				EndOfSpeech: seg.Phrase.EndOfSpeech,
				Edited:      seg.Edited,
			})
		}
		return json.Marshal(docs)
	default:
		return nil, fmt.Errorf("unknown segment kind %q", kind)
	}
}

// NativeTimeText renders a bound in the segment kind's native encoding:
// clock style for words, frame style for phrases.
func NativeTimeText(kind Kind, seconds float64) string {
	if kind == KindPhrase {
		return timecode.Format(seconds, timecode.StyleFrame)
	}
	return timecode.Format(seconds, timecode.StyleClock)
}

// ContentText returns the display text of a segment regardless of kind.
func ContentText(seg Segment) string {
	switch seg.Kind {
	case KindWord:
		if seg.Word != nil {
			return seg.Word.Token
		}
	case KindPhrase:
		if seg.Phrase != nil {
			return seg.Phrase.Text
		}
	}
	return ""
}
