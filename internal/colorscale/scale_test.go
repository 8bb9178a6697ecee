package colorscale

import (
	"testing"

	"github.com/jonkt/weatherlight/lights"
)

func TestColorForTempClamps(t *testing.T) {
	coldest := lights.Color{Red: 0xe1, Green: 0xe1, Blue: 0xff}
	if got := ColorForTemp(-80); got != coldest {
		t.Errorf("ColorForTemp(-80) = %v, want coldest stop %v", got, coldest)
	}
	hottest := lights.Color{Red: 0x0d, Green: 0x00, Blue: 0x01}
	if got := ColorForTemp(120); got != hottest {
		t.Errorf("ColorForTemp(120) = %v, want hottest stop %v", got, hottest)
	}
}

func TestColorForTempExactStops(t *testing.T) {
	tests := []struct {
		temp float64
		want lights.Color
	}{
		{-50, lights.Color{Red: 0xe1, Green: 0xe1, Blue: 0xff}},
		{0, lights.Color{Red: 0x00, Green: 0x03, Blue: 0x3a}},
		{21, lights.Color{Red: 0xfc, Green: 0x83, Blue: 0x00}},
		{70, lights.Color{Red: 0x0d, Green: 0x00, Blue: 0x01}},
	}
	for _, tt := range tests {
		if got := ColorForTemp(tt.temp); got != tt.want {
			t.Errorf("ColorForTemp(%v) = %v, want %v", tt.temp, got, tt.want)
		}
	}
}

func TestColorForTempInterpolates(t *testing.T) {
	// Midway between #00ff13 (10) and #01ff0b (11).
	want := lights.Color{Red: 0x00, Green: 0xff, Blue: 0x0f}
	if got := ColorForTemp(10.5); got != want {
		t.Errorf("ColorForTemp(10.5) = %v, want %v", got, want)
	}
	// Midway between #e1e1ff (-50) and #dfdfff (-49).
	want = lights.Color{Red: 0xe0, Green: 0xe0, Blue: 0xff}
	if got := ColorForTemp(-49.5); got != want {
		t.Errorf("ColorForTemp(-49.5) = %v, want %v", got, want)
	}
}

func TestParseHex(t *testing.T) {
	c, ok := ParseHex("#00ff0f")
	if !ok || c != (lights.Color{Red: 0, Green: 255, Blue: 15}) {
		t.Errorf("ParseHex(#00ff0f) = %v, %v", c, ok)
	}
	for _, bad := range []string{"", "#fff", "00ff0f", "#zzzzzz", "#00ff0f0"} {
		if _, ok := ParseHex(bad); ok {
			t.Errorf("ParseHex(%q) accepted invalid input", bad)
		}
	}
}

func TestFormatHex(t *testing.T) {
	if got := FormatHex(lights.Color{Red: 0, Green: 255, Blue: 15}); got != "#00ff0f" {
		t.Errorf("FormatHex = %q, want #00ff0f", got)
	}
}
