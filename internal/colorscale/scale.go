// Package colorscale maps a temperature in degrees Celsius onto the fixed
// gradient the light displays: icy near-white blues, deep night blues
// around freezing, greens through the mild range, then oranges and reds
// darkening toward black at extreme heat.
package colorscale

import (
	"fmt"
	"strconv"

	"github.com/jonkt/weatherlight/lights"
)

// rawScale holds the gradient stops, one per degree. Temperatures between
// stops interpolate linearly per channel.
var rawScale = []struct {
	temp float64
	hex  string
}{
	{-50, "#e1e1ff"}, {-49, "#dfdfff"}, {-48, "#dfdfff"}, {-47, "#dcdcff"}, {-46, "#dcdcff"},
	{-45, "#dadaff"}, {-44, "#dadaff"}, {-43, "#d7d7ff"}, {-42, "#d2d2ff"}, {-41, "#cbcbff"},
	{-40, "#c4c4ff"}, {-39, "#bdbdff"}, {-38, "#b6b6ff"}, {-37, "#afafff"}, {-36, "#a9a9ff"},
	{-35, "#a4a4ff"}, {-34, "#9e9eff"}, {-33, "#9898ff"}, {-32, "#9292ff"}, {-31, "#8c8cff"},
	{-30, "#8787ff"}, {-29, "#8181ff"}, {-28, "#7373f4"}, {-27, "#6565e7"}, {-26, "#5757da"},
	{-25, "#4b4bcd"}, {-24, "#4040c1"}, {-23, "#3737b6"}, {-22, "#2e2eab"}, {-21, "#2626a0"},
	{-20, "#1f1f96"}, {-19, "#19198c"}, {-18, "#141483"}, {-17, "#11127e"}, {-16, "#0e1078"},
	{-15, "#0b0f73"}, {-14, "#0a0d6e"}, {-13, "#080d6b"}, {-12, "#060b66"}, {-11, "#050a62"},
	{-10, "#04095d"}, {-9, "#030859"}, {-8, "#020856"}, {-7, "#010752"}, {-6, "#01064e"},
	{-5, "#01054a"}, {-4, "#000546"}, {-3, "#000443"}, {-2, "#000440"}, {-1, "#00033d"},
	{0, "#00033a"}, {1, "#000b57"}, {2, "#001d7c"}, {3, "#003bab"}, {4, "#0068e4"},
	{5, "#008cd7"}, {6, "#009e98"}, {7, "#00b466"}, {8, "#00cb40"}, {9, "#00e425"},
	{10, "#00ff13"}, {11, "#01ff0b"}, {12, "#07ff05"}, {13, "#17ff02"}, {14, "#33ff01"},
	{15, "#60ff00"}, {16, "#89f400"}, {17, "#9cda00"}, {18, "#b1c100"}, {19, "#c8ab00"},
	{20, "#e19600"}, {21, "#fc8300"}, {22, "#ff7300"}, {23, "#ff6600"}, {24, "#ff5900"},
	{25, "#ff4d00"}, {26, "#ff4300"}, {27, "#ff3900"}, {28, "#ff3000"}, {29, "#ff2800"},
	{30, "#ff2100"}, {31, "#ff1b00"}, {32, "#ff1500"}, {33, "#ff1000"}, {34, "#ff0c00"},
	{35, "#ff0900"}, {36, "#ff0600"}, {37, "#ff0400"}, {38, "#ff0300"}, {39, "#ff0100"},
	{40, "#ff0101"}, {41, "#ff0003"}, {42, "#ff0006"}, {43, "#ff000a"}, {44, "#f1000b"},
	{45, "#dc000a"}, {46, "#cb000a"}, {47, "#b80009"}, {48, "#a90008"}, {49, "#980008"},
	{50, "#8a0007"}, {51, "#7c0006"}, {52, "#6e0006"}, {53, "#630005"}, {54, "#570005"},
	{55, "#4e0004"}, {56, "#440004"}, {57, "#3c0003"}, {58, "#330003"}, {59, "#2d0003"},
	{60, "#260003"}, {61, "#200002"}, {62, "#1b0002"}, {63, "#160002"}, {64, "#120001"},
	{65, "#0e0001"}, {66, "#0d0001"}, {67, "#0d0001"}, {68, "#0d0001"}, {69, "#0d0001"},
	{70, "#0d0001"},
}

type stop struct {
	temp  float64
	color lights.Color
}

var scale = parseScale()

func parseScale() []stop {
	out := make([]stop, len(rawScale))
	for i, s := range rawScale {
		c, _ := ParseHex(s.hex)
		out[i] = stop{temp: s.temp, color: c}
	}
	return out
}

// ColorForTemp interpolates the gradient at the given temperature.
// Temperatures outside the scale clamp to its ends.
func ColorForTemp(tempC float64) lights.Color {
	if tempC <= scale[0].temp {
		return scale[0].color
	}
	if tempC >= scale[len(scale)-1].temp {
		return scale[len(scale)-1].color
	}
	for i := 1; i < len(scale); i++ {
		if tempC > scale[i].temp {
			continue
		}
		lo, hi := scale[i-1], scale[i]
		span := hi.temp - lo.temp
		var value float64
		if span != 0 {
			value = (tempC - lo.temp) / span
		}
		return lights.Color{
			Red:   lerpChannel(lo.color.Red, hi.color.Red, value),
			Green: lerpChannel(lo.color.Green, hi.color.Green, value),
			Blue:  lerpChannel(lo.color.Blue, hi.color.Blue, value),
		}
	}
	return lights.Color{Red: 255, Green: 255, Blue: 255}
}

func lerpChannel(from, to uint8, value float64) uint8 {
	return uint8(float32(from) + (float32(to)-float32(from))*float32(value))
}

// ParseHex parses a "#rrggbb" string.
func ParseHex(hex string) (lights.Color, bool) {
	if len(hex) != 7 || hex[0] != '#' {
		return lights.Color{}, false
	}
	r, errR := strconv.ParseUint(hex[1:3], 16, 8)
	g, errG := strconv.ParseUint(hex[3:5], 16, 8)
	b, errB := strconv.ParseUint(hex[5:7], 16, 8)
	if errR != nil || errG != nil || errB != nil {
		return lights.Color{}, false
	}
	return lights.Color{Red: uint8(r), Green: uint8(g), Blue: uint8(b)}, true
}

// FormatHex renders a color as "#rrggbb".
func FormatHex(c lights.Color) string {
	return fmt.Sprintf("#%02x%02x%02x", c.Red, c.Green, c.Blue)
}
