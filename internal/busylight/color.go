// Package busylight drives Kuando Busylight USB HID devices. It owns the
// wire protocol framing for both supported report layouts, the color
// correction math, a background pulse scheduler and reconnect handling for
// devices that come and go.
package busylight

import (
	"math"

	"github.com/jonkt/weatherlight/lights"
)

// Degamma converts a perceptual 8-bit channel value to the linear value the
// LED driver expects, using the two segment sRGB inverse transfer function.
func Degamma(v uint8) uint8 {
	f := float64(v) / 255.0
	var lin float64
	if f <= 0.04045 {
		lin = f / 12.92
	} else {
		lin = math.Pow((f+0.055)/1.055, 2.4)
	}
	out := math.Round(lin * 255.0)
	if out < 0 {
		out = 0
	}
	if out > 255 {
		out = 255
	}
	return uint8(out)
}

// DegammaColor applies Degamma to every channel.
func DegammaColor(c lights.Color) lights.Color {
	return lights.Color{
		Red:   Degamma(c.Red),
		Green: Degamma(c.Green),
		Blue:  Degamma(c.Blue),
	}
}

// ApplyBrightness dims a color to a perceived brightness percentage. The
// curve is a plain power law, not the sRGB transfer function: it models a
// dimming control rather than a color correction, so it must stay separate
// from Degamma.
func ApplyBrightness(c lights.Color, pct uint8) lights.Color {
	return scaleColor(c, float64(pct))
}

// scaleColor is the float variant of ApplyBrightness used by the pulse
// envelope, where the interpolated percentage is fractional.
func scaleColor(c lights.Color, pct float64) lights.Color {
	if pct <= 0 {
		return lights.Color{}
	}
	if pct > 100 {
		pct = 100
	}
	f := math.Pow(pct/100.0, 2.8)
	return lights.Color{
		Red:   uint8(float64(c.Red) * f),
		Green: uint8(float64(c.Green) * f),
		Blue:  uint8(float64(c.Blue) * f),
	}
}
