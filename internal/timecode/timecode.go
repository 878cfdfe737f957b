package timecode

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrMalformedTimecode is returned when a textual time cannot be decoded by
// any recognized encoding.
var ErrMalformedTimecode = errors.New("malformed timecode")

// Style selects the textual encoding produced by Format.
type Style int

const (
	// StyleClock renders M:SS.mmm, or H:MM:SS.mmm when hours are nonzero.
	// Word-level convention.
	StyleClock Style = iota
	// StyleFrame renders HH:MM:SS:mmm with a colon-separated millisecond
	// component. Phrase-level convention.
	StyleFrame
)

// Parse decodes a textual time into seconds.
//
// Recognized shapes, decided by splitting on ':':
//   - 4 parts: H:MM:SS:mmm, last part is milliseconds
//   - 3 parts: H:MM:SS.mmm when the last part carries a '.', else H:MM:SS
//   - 2 parts: M:SS.mmm
//   - no ':':  bare seconds
func Parse(text string) (float64, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, fmt.Errorf("%w: empty string", ErrMalformedTimecode)
	}

	if !strings.Contains(text, ":") {
		secs, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrMalformedTimecode, text)
		}
		if !validSeconds(secs) {
			return 0, fmt.Errorf("%w: %q", ErrMalformedTimecode, text)
		}
		return secs, nil
	}

	parts := strings.Split(text, ":")
	switch len(parts) {
	case 4:
		h, err1 := parseComponent(parts[0])
		m, err2 := parseComponent(parts[1])
		s, err3 := parseComponent(parts[2])
		ms, err4 := parseComponent(parts[3])
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
			return 0, fmt.Errorf("%w: %q", ErrMalformedTimecode, text)
		}
		return float64(h)*3600 + float64(m)*60 + float64(s) + float64(ms)/1000.0, nil
	case 3:
		h, err1 := parseComponent(parts[0])
		m, err2 := parseComponent(parts[1])
		if err1 != nil || err2 != nil {
			return 0, fmt.Errorf("%w: %q", ErrMalformedTimecode, text)
		}
		if strings.Contains(parts[2], ".") {
			s, err := parseFraction(parts[2])
			if err != nil {
				return 0, fmt.Errorf("%w: %q", ErrMalformedTimecode, text)
			}
			return float64(h)*3600 + float64(m)*60 + s, nil
		}
		s, err := parseComponent(parts[2])
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrMalformedTimecode, text)
		}
		return float64(h)*3600 + float64(m)*60 + float64(s), nil
	case 2:
		m, err1 := parseComponent(parts[0])
		s, err2 := parseFraction(parts[1])
		if err1 != nil || err2 != nil {
			return 0, fmt.Errorf("%w: %q", ErrMalformedTimecode, text)
		}
		return float64(m)*60 + s, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrMalformedTimecode, text)
	}
}

// Format encodes seconds as text in the given style. Milliseconds are
// floored to three digits, never rounded up.
func Format(seconds float64, style Style) string {
	if seconds < 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		seconds = 0
	}
	// The tiny epsilon counters binary float representation of exact
	// millisecond values; it is far below the 1ms precision floor.
	totalMs := int64(math.Floor(seconds*1000.0 + 1e-6))
	h := totalMs / 3600000
	m := (totalMs % 3600000) / 60000
	s := (totalMs % 60000) / 1000
	ms := totalMs % 1000

	switch style {
	case StyleFrame:
		return fmt.Sprintf("%02d:%02d:%02d:%03d", h, m, s, ms)
	default:
		if h > 0 {
			return fmt.Sprintf("%d:%02d:%02d.%03d", h, m, s, ms)
		}
		return fmt.Sprintf("%d:%02d.%03d", h*60+m, s, ms)
	}
}

func parseComponent(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("empty component")
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("negative component")
	}
	return n, nil
}

func parseFraction(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("empty component")
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, err
	}
	if !validSeconds(f) {
		return 0, fmt.Errorf("invalid seconds value")
	}
	return f, nil
}

func validSeconds(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0) && f >= 0
}
