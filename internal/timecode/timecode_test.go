package timecode

import (
	"errors"
	"math"
	"testing"
)

func TestParse(t *testing.T) {
	cases := []struct {
		name    string
		text    string
		want    float64
		wantErr bool
	}{
		{name: "bare_seconds", text: "12.5", want: 12.5},
		{name: "bare_whole_seconds", text: "7", want: 7},
		{name: "minutes_seconds_millis", text: "1:05.250", want: 65.25},
		{name: "minutes_seconds_no_millis", text: "0:05", want: 5},
		{name: "hours_minutes_seconds_millis", text: "1:02:03.500", want: 3723.5},
		{name: "hours_minutes_whole_seconds", text: "01:02:03", want: 3723},
		{name: "frame_style", text: "00:01:30:250", want: 90.25},
		{name: "frame_style_hours", text: "02:00:00:001", want: 7200.001},
		{name: "leading_whitespace", text: " 0:03.000 ", want: 3},
		{name: "empty", text: "", wantErr: true},
		{name: "garbage", text: "abc", wantErr: true},
		{name: "too_many_parts", text: "1:2:3:4:5", wantErr: true},
		{name: "negative_bare", text: "-4", wantErr: true},
		{name: "negative_component", text: "-1:10.000", wantErr: true},
		{name: "alpha_component", text: "1:xx.000", wantErr: true},
		{name: "frame_alpha_millis", text: "00:00:01:abc", wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Parse(tc.text)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("Parse(%q)=%v, want error", tc.text, got)
				}
				if !errors.Is(err, ErrMalformedTimecode) {
					t.Fatalf("Parse(%q) error = %v, want ErrMalformedTimecode", tc.text, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) unexpected error: %v", tc.text, err)
			}
			if math.Abs(got-tc.want) > 0.0005 {
				t.Fatalf("Parse(%q)=%v, want %v", tc.text, got, tc.want)
			}
		})
	}
}

func TestFormat(t *testing.T) {
	cases := []struct {
		name    string
		seconds float64
		style   Style
		want    string
	}{
		{name: "clock_no_hours", seconds: 65.25, style: StyleClock, want: "1:05.250"},
		{name: "clock_zero", seconds: 0, style: StyleClock, want: "0:00.000"},
		{name: "clock_with_hours", seconds: 3723.5, style: StyleClock, want: "1:02:03.500"},
		{name: "clock_millis_floored", seconds: 1.9999, style: StyleClock, want: "0:01.999"},
		{name: "frame", seconds: 90.25, style: StyleFrame, want: "00:01:30:250"},
		{name: "frame_hours", seconds: 7200.001, style: StyleFrame, want: "02:00:00:001"},
		{name: "frame_zero", seconds: 0, style: StyleFrame, want: "00:00:00:000"},
		{name: "negative_clamped", seconds: -3, style: StyleClock, want: "0:00.000"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Format(tc.seconds, tc.style)
			if got != tc.want {
				t.Fatalf("Format(%v)=%q, want %q", tc.seconds, got, tc.want)
			}
		})
	}
}

func TestRoundTrip(t *testing.T) {
	values := []float64{0, 0.001, 1.5, 59.999, 60, 61.25, 3599.5, 3600, 3661.001, 86399.999}
	styles := []Style{StyleClock, StyleFrame}

	for _, v := range values {
		for _, style := range styles {
			text := Format(v, style)
			got, err := Parse(text)
			if err != nil {
				t.Fatalf("Parse(Format(%v))=%q failed: %v", v, text, err)
			}
			if math.Abs(got-v) > 0.001 {
				t.Fatalf("round trip %v -> %q -> %v drifted more than 1ms", v, text, got)
			}
		}
	}
}

func TestParseLenientEquivalence(t *testing.T) {
	a, err := Parse("0:05")
	if err != nil {
		t.Fatalf("Parse(0:05): %v", err)
	}
	b, err := Parse("0:05.000")
	if err != nil {
		t.Fatalf("Parse(0:05.000): %v", err)
	}
	if a != b {
		t.Fatalf("0:05 parsed to %v, 0:05.000 parsed to %v, want equal", a, b)
	}
}
