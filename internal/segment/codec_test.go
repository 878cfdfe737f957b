package segment

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/shrutilabs/shruti-backend/internal/timecode"
)

func TestDecodeWordDocuments(t *testing.T) {
	raw := json.RawMessage(`[
		{"start": 0.5, "word": "નમસ્તે", "end": 1.2, "duration": 0.7},
		{"start": 1.4, "word": "ભાઈ", "end": 1.9, "duration": 0.5, "language": "Gujarati"}
	]`)

	segs, err := DecodeWordDocuments(raw, "Gujarati")
	if err != nil {
		t.Fatalf("DecodeWordDocuments: %v", err)
	}
	if len(segs) != 2 {
		t.Fatalf("len = %d, want 2", len(segs))
	}
	if segs[0].Kind != KindWord || segs[0].Word.Token != "નમસ્તે" {
		t.Fatalf("segment 0 = %+v", segs[0])
	}
	if segs[0].Language != "Gujarati" {
		t.Fatalf("language not inherited: %q", segs[0].Language)
	}
	if segs[0].Start != 0.5 || segs[0].End != 1.2 {
		t.Fatalf("bounds = [%v,%v]", segs[0].Start, segs[0].End)
	}
}

func TestDecodePhraseDocuments(t *testing.T) {
	raw := json.RawMessage(`[
		{"start": "00:00:05:000", "end": "00:00:10:500", "speaker": "Speaker A", "text": "હેલો", "emotion": "happy", "end_of_speech": false},
		{"start": "00:00:11:000", "end": "00:00:12:000", "speaker": "Speaker B", "text": "બાય", "emotion": "neutral", "end_of_speech": true}
	]`)

	segs, err := DecodePhraseDocuments(raw, "Gujarati")
	if err != nil {
		t.Fatalf("DecodePhraseDocuments: %v", err)
	}
	if len(segs) != 2 {
		t.Fatalf("len = %d, want 2", len(segs))
	}
	if segs[0].Start != 5 || segs[0].End != 10.5 {
		t.Fatalf("bounds = [%v,%v], want [5,10.5]", segs[0].Start, segs[0].End)
	}
	if segs[1].Phrase.Speaker != "Speaker B" || !segs[1].Phrase.EndOfSpeech {
		t.Fatalf("phrase 1 = %+v", segs[1].Phrase)
	}
}

func TestDecodePhraseDocumentsMalformedTimecode(t *testing.T) {
	raw := json.RawMessage(`[{"start": "bogus", "end": "00:00:01:000", "speaker": "A", "text": "x", "emotion": "neutral", "end_of_speech": true}]`)

	_, err := DecodePhraseDocuments(raw, "Hindi")
	if !errors.Is(err, timecode.ErrMalformedTimecode) {
		t.Fatalf("error = %v, want ErrMalformedTimecode", err)
	}
}

func TestEncodeDocumentsRoundTrip(t *testing.T) {
	phrase := NewPhrase(5, 10.5, PhraseContent{Text: "હેલો", Speaker: "Speaker A", Emotion: "happy"}, "Gujarati")
	raw, err := EncodeDocuments([]Segment{phrase})
	if err != nil {
		t.Fatalf("EncodeDocuments: %v", err)
	}
	if !strings.Contains(string(raw), `"start":"00:00:05:000"`) {
		t.Fatalf("phrase start not frame-encoded: %s", raw)
	}

	back, err := DecodePhraseDocuments(raw, "Gujarati")
	if err != nil {
		t.Fatalf("decode round trip: %v", err)
	}
	if back[0].Start != 5 || back[0].End != 10.5 {
		t.Fatalf("round trip bounds = [%v,%v]", back[0].Start, back[0].End)
	}

	if _, err := EncodeDocuments([]Segment{phrase, NewWord(0, 1, "x", "Hindi")}); err == nil {
		t.Fatalf("mixed-kind encode should fail")
	}
}

func TestNativeTimeText(t *testing.T) {
	if got := NativeTimeText(KindWord, 65.25); got != "1:05.250" {
		t.Fatalf("word native = %q", got)
	}
	if got := NativeTimeText(KindPhrase, 65.25); got != "00:01:05:250" {
		t.Fatalf("phrase native = %q", got)
	}
}
