// Package lifx drives a group of LIFX bulbs over the LAN protocol as the
// status light. The bulbs fade between levels in firmware, so a pulse is a
// half period toggle with a matching transition rather than a frame loop.
package lifx

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/pdf/golifx"
	"github.com/pdf/golifx/common"
	"github.com/pdf/golifx/protocol"
	"go.uber.org/zap"

	"github.com/jonkt/weatherlight/internal/logging"
	"github.com/jonkt/weatherlight/lights"
)

var logger = logging.New("lifx")

const solidTransition = 250 * time.Millisecond

type Config struct {
	GroupName string
}

type LifxLights struct {
	config Config
	client *golifx.Client

	groupMu sync.RWMutex
	group   common.Group

	pulseMu   sync.Mutex
	pulseDone chan struct{}
}

func NewLifx(ctx context.Context, config Config) (*LifxLights, error) {
	client, err := golifx.NewClient(&protocol.V2{})
	if err != nil {
		return nil, err
	}

	l := &LifxLights{
		config: config,
		client: client,
	}
	go l.Start(ctx)
	return l, nil
}

func (l *LifxLights) Start(ctx context.Context) {
	discoveryInterval := 15 * time.Second
	ticker := time.NewTicker(discoveryInterval)
	defer ticker.Stop()

	l.client.SetDiscoveryInterval(discoveryInterval)

	timeout := 5 * time.Second
	ctxWithTimeout, cancel := context.WithTimeout(ctx, timeout)
	l.discover(ctxWithTimeout)
	cancel()

	for {
		select {
		case <-ticker.C:
			ctxWithTimeout, cancel := context.WithTimeout(ctx, timeout)
			l.discover(ctxWithTimeout)
			cancel()
		case <-ctx.Done():
			l.StopPulse()
			return
		}
	}
}

func (l *LifxLights) discover(ctx context.Context) {
	logger.With(zap.String("group", l.config.GroupName)).Info("LIFX discovery starting...")

	completed := make(chan error, 1)

	var g common.Group
	go func() {
		var err error
		g, err = l.client.GetGroupByLabel(l.config.GroupName)
		if err != nil {
			logger.With(zap.Error(err)).Warn("Failed to get LIFX group by label")
		}
		completed <- err
	}()

	select {
	case <-ctx.Done():
		logger.With(zap.Error(ctx.Err())).Warn("LIFX discovery timed out.")
	case <-completed:
		if g != nil {
			logger.With(zap.String("group", g.GetLabel())).Info("LIFX group found")
			l.groupMu.Lock()
			l.group = g
			l.groupMu.Unlock()
		} else {
			logger.Warn("Couldn't discover group.")
		}
	}

	logger.Info("LIFX discovery complete")
}

func (l *LifxLights) SetSolid(color lights.Color) {
	l.StopPulse()
	l.setGroupColor(color, 100, solidTransition)
}

func (l *LifxLights) SetPulse(color lights.Color, highPct uint8, lowPct uint8, period time.Duration) {
	l.StopPulse()
	if period <= 0 {
		return
	}

	done := make(chan struct{})
	l.pulseMu.Lock()
	l.pulseDone = done
	l.pulseMu.Unlock()

	go l.runPulse(color, highPct, lowPct, period/2, done)
}

func (l *LifxLights) runPulse(color lights.Color, highPct, lowPct uint8, half time.Duration, done chan struct{}) {
	ticker := time.NewTicker(half)
	defer ticker.Stop()

	high := true
	l.setGroupColor(color, highPct, half)
	for {
		select {
		case <-ticker.C:
			high = !high
			pct := highPct
			if !high {
				pct = lowPct
			}
			l.setGroupColor(color, pct, half)
		case <-done:
			return
		}
	}
}

func (l *LifxLights) StopPulse() {
	l.pulseMu.Lock()
	if l.pulseDone != nil {
		close(l.pulseDone)
		l.pulseDone = nil
	}
	l.pulseMu.Unlock()
}

func (l *LifxLights) Off() {
	l.StopPulse()
	l.setGroupColor(lights.Color{}, 100, solidTransition)
}

func (l *LifxLights) Connected() bool {
	l.groupMu.RLock()
	defer l.groupMu.RUnlock()
	return l.group != nil
}

func (l *LifxLights) LightCount() int {
	l.groupMu.RLock()
	defer l.groupMu.RUnlock()
	if l.group == nil {
		return 0
	}
	return len(l.group.Lights())
}

func (l *LifxLights) setGroupColor(color lights.Color, pct uint8, transition time.Duration) {
	l.groupMu.RLock()
	group := l.group
	l.groupMu.RUnlock()
	if group == nil {
		return
	}

	lifxColor := newLifxColor(color, pct)

	logger.With(zap.Any("color", color),
		zap.Any("lifxColor", lifxColor)).
		Debug("Setting LIFX group color")

	if err := group.SetColor(lifxColor, transition); err != nil {
		logger.With(zap.Error(err)).Warn("Failed to set color for LIFX group")
	}
}

func newLifxColor(color lights.Color, pct uint8) common.Color {
	// Convert RGB to HSB using uint16
	hue, saturation, brightness := rgbToHsb(color.Red, color.Green, color.Blue)

	if pct < 100 {
		brightness = uint16(float64(brightness) * float64(pct) / 100.0)
	}

	return adjustColor(common.Color{
		Hue:        hue,
		Saturation: saturation,
		Brightness: brightness,
		Kelvin:     3500,
	})
}

func adjustColor(color common.Color) common.Color {
	blackThreshold := 0.015 * 0xFFFF
	if color.Brightness <= uint16(blackThreshold) && color.Saturation <= uint16(blackThreshold) {
		// blackish color - turn off the light
		return common.Color{
			Hue:        0,
			Saturation: 0,
			Brightness: 0,
			Kelvin:     3500,
		}
	}
	return color
}

func rgbToHsb(r, g, b uint8) (uint16, uint16, uint16) {
	red := float64(r) / 255.0
	green := float64(g) / 255.0
	blue := float64(b) / 255.0

	max := math.Max(red, math.Max(green, blue))
	min := math.Min(red, math.Min(green, blue))
	delta := max - min

	var h, s, v float64
	v = max // Brightness is the max of RGB

	if delta == 0 {
		h = 0
		s = 0
	} else { // Chromatic data...
		s = delta / max // Saturation is degree of variation from grey.

		deltaR := (((max - red) / 6) + (delta / 2)) / delta
		deltaG := (((max - green) / 6) + (delta / 2)) / delta
		deltaB := (((max - blue) / 6) + (delta / 2)) / delta

		if red == max {
			h = deltaB - deltaG // Color is closer to red
		} else if green == max {
			h = (1.0 / 3.0) + deltaR - deltaB // Color is closer to green
		} else if blue == max {
			h = (2.0 / 3.0) + deltaG - deltaR // Color is closer to blue
		}

		if h < 0 {
			h += 1
		}
		if h > 1 {
			h -= 1
		}
	}

	hue := uint16(math.Round(h * 0xFFFF))
	saturation := uint16(math.Round(s * 0xFFFF))
	brightness := uint16(math.Round(v * 0xFFFF))

	return hue, saturation, brightness
}
