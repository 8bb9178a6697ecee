package busylight

import (
	"context"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jonkt/weatherlight/internal/hid"
	"github.com/jonkt/weatherlight/lights"
)

const (
	defaultFrameInterval  = 33 * time.Millisecond
	defaultIdleInterval   = 100 * time.Millisecond
	defaultKeepAliveTicks = 20
)

// animationState is the single long-lived piece of shared mutable state.
// The scheduler snapshots it once per tick. seq increments whenever the
// parameters actually change, telling the scheduler to restart the cycle.
type animationState struct {
	active  bool
	color   lights.Color
	highPct uint8
	lowPct  uint8
	period  time.Duration
	seq     uint64
}

func (a animationState) sameParams(b animationState) bool {
	return a.active == b.active &&
		a.color == b.color &&
		a.highPct == b.highPct &&
		a.lowPct == b.lowPct &&
		a.period == b.period
}

// Controller is the thread safe facade over one busylight. It owns the
// device session and the background scheduler that animates pulses and
// keeps the hardware watchdog fed. It implements lights.Service.
//
// Lock order matters here: the animation lock is released before any device
// write, so a slow or hung HID transport can never stall a caller that only
// wants to update animation parameters.
type Controller struct {
	session *Session

	mu   sync.Mutex
	anim animationState

	frameInterval  time.Duration
	idleInterval   time.Duration
	keepAliveTicks int

	done chan struct{}
}

// New connects to the first supported device and starts the scheduler. A
// missing device or dead HID transport is tolerated; the controller then
// runs dark until a later send rediscovers hardware. The scheduler stops
// when ctx is canceled.
func New(ctx context.Context, mgr hid.Manager) *Controller {
	c := &Controller{
		session:        NewSession(mgr),
		frameInterval:  defaultFrameInterval,
		idleInterval:   defaultIdleInterval,
		keepAliveTicks: defaultKeepAliveTicks,
		done:           make(chan struct{}),
	}
	if err := c.session.Connect(); err != nil {
		logger.With(zap.Error(err)).Warn("Starting without busylight")
	}
	go c.run(ctx)
	return c
}

// SetSolid stops any pulse and pushes one gamma corrected frame straight
// through the session, bypassing the scheduler.
func (c *Controller) SetSolid(color lights.Color) {
	c.mu.Lock()
	c.anim.active = false
	c.mu.Unlock()
	c.session.Write(DegammaColor(color))
}

// SetPulse replaces the animation parameters and lets the scheduler pick
// them up on its next tick. Calling it again with identical parameters is a
// no-op, so rapid duplicate calls do not restart the cycle.
func (c *Controller) SetPulse(color lights.Color, highPct uint8, lowPct uint8, period time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	next := animationState{
		active:  true,
		color:   color,
		highPct: highPct,
		lowPct:  lowPct,
		period:  period,
	}
	if c.anim.sameParams(next) {
		return
	}
	next.seq = c.anim.seq + 1
	c.anim = next
}

// StopPulse halts the animation without blanking the light. Callers that
// want darkness follow up with Off.
func (c *Controller) StopPulse() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.anim.active = false
}

// Off switches the light off.
func (c *Controller) Off() {
	c.SetSolid(lights.Color{})
}

// Connected reports whether a device is currently attached.
func (c *Controller) Connected() bool {
	return c.session.Connected()
}

// Device returns the snapshot of the connected device.
func (c *Controller) Device() (DeviceDescriptor, bool) {
	return c.session.Descriptor()
}

// Done is closed once the scheduler has exited after context cancelation.
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

// Close releases the device handle. Cancel the scheduler context first so
// nothing is left writing to the device.
func (c *Controller) Close() {
	c.session.Close()
}

// run is the scheduler loop. Idle it ticks slowly and resends the current
// frame every keepAliveTicks ticks so the device watchdog does not blank
// the light. While pulsing it renders the brightness envelope at frame
// rate. The shared state is the only command channel: transitions happen
// purely because a tick observes a different snapshot.
func (c *Controller) run(ctx context.Context) {
	defer close(c.done)

	var (
		idleTicks  int
		cycleSeq   uint64
		cycleStart time.Time
	)
	for {
		c.mu.Lock()
		anim := c.anim
		c.mu.Unlock()

		interval := c.idleInterval
		switch {
		case !anim.active:
			idleTicks++
			if idleTicks >= c.keepAliveTicks {
				idleTicks = 0
				c.session.KeepAlive()
			}
		case anim.period <= 0:
			// Degenerate period. Keep idling instead of dividing by zero.
			idleTicks = 0
		default:
			idleTicks = 0
			if anim.seq != cycleSeq {
				cycleSeq = anim.seq
				cycleStart = time.Now()
			}
			c.session.Write(pulseFrame(anim, time.Since(cycleStart)))
			interval = c.frameInterval
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(interval):
		}
	}
}

// pulseFrame renders one frame of the brightness envelope: a triangle wave
// over the period split into a high-to-low and a low-to-high half, each
// half eased with a sine so the reversal points do not strobe. Only the
// brightness percentage is interpolated; the hue stays fixed.
func pulseFrame(anim animationState, elapsed time.Duration) lights.Color {
	phase := float64(elapsed%anim.period) / float64(anim.period)
	high := float64(anim.highPct)
	low := float64(anim.lowPct)
	var pct float64
	if phase < 0.5 {
		pct = high + (low-high)*ease(phase*2)
	} else {
		pct = low + (high-low)*ease((phase-0.5)*2)
	}
	return scaleColor(anim.color, pct)
}

// ease maps linear progress in [0,1] onto a sine with zero slope at both
// ends. ease(0) == 0 and ease(1) == 1 exactly, so the envelope meets the
// plain high and low percentages at the reversal points.
func ease(p float64) float64 {
	return 0.5 + 0.5*math.Sin(math.Pi*p-math.Pi/2)
}
