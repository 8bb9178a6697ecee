package busylight

import (
	"context"
	"testing"
	"time"

	"github.com/jonkt/weatherlight/internal/hid"
	"github.com/jonkt/weatherlight/lights"
)

var _ lights.Service = (*Controller)(nil)

func newTestController(t *testing.T, mgr hid.Manager) *Controller {
	t.Helper()
	c := &Controller{
		session:        NewSession(mgr),
		frameInterval:  time.Millisecond,
		idleInterval:   time.Millisecond,
		keepAliveTicks: 2,
		done:           make(chan struct{}),
	}
	if err := c.session.Connect(); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	return c
}

func waitDone(t *testing.T, c *Controller) {
	t.Helper()
	select {
	case <-c.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestSetSolidAppliesDegamma(t *testing.T) {
	mgr := newTestManager(vendorKuando)
	c := newTestController(t, mgr)

	c.SetSolid(lights.Color{Red: 128, Green: 0, Blue: 255})

	frame := mgr.LastOpened().LastWrite()
	if frame == nil {
		t.Fatal("no frame written")
	}
	if frame[3] != 55 || frame[4] != 0 || frame[5] != 255 {
		t.Errorf("frame color = %v, want degamma'd [55 0 255]", frame[3:6])
	}
}

func TestOffBlanksLight(t *testing.T) {
	mgr := newTestManager(vendorKuando)
	c := newTestController(t, mgr)

	c.SetSolid(lights.Color{Red: 255, Green: 255, Blue: 255})
	c.Off()

	frame := mgr.LastOpened().LastWrite()
	if frame[3] != 0 || frame[4] != 0 || frame[5] != 0 {
		t.Errorf("frame color = %v, want black", frame[3:6])
	}
}

func TestSetPulseIdempotent(t *testing.T) {
	mgr := newTestManager(vendorKuando)
	c := newTestController(t, mgr)
	color := lights.Color{Red: 0, Green: 0, Blue: 255}

	c.SetPulse(color, 60, 30, 5*time.Second)
	c.mu.Lock()
	seq := c.anim.seq
	c.mu.Unlock()

	c.SetPulse(color, 60, 30, 5*time.Second)
	c.mu.Lock()
	again := c.anim.seq
	c.mu.Unlock()
	if again != seq {
		t.Errorf("identical SetPulse bumped seq %d -> %d, cycle would restart", seq, again)
	}

	c.SetPulse(color, 60, 20, 5*time.Second)
	c.mu.Lock()
	changed := c.anim.seq
	c.mu.Unlock()
	if changed == seq {
		t.Error("changed parameters did not bump seq")
	}
}

func TestStopPulseKeepsLastFrame(t *testing.T) {
	mgr := newTestManager(vendorKuando)
	c := newTestController(t, mgr)

	c.SetPulse(lights.Color{Red: 255}, 100, 0, time.Second)
	c.StopPulse()

	// StopPulse must not blank or write anything on its own.
	if got := len(mgr.LastOpened().Writes()); got != 0 {
		t.Errorf("StopPulse issued %d writes, want 0", got)
	}
	c.mu.Lock()
	active := c.anim.active
	c.mu.Unlock()
	if active {
		t.Error("animation still active after StopPulse")
	}
}

func TestSchedulerRendersPulse(t *testing.T) {
	mgr := newTestManager(vendorKuando)
	c := newTestController(t, mgr)
	c.SetPulse(lights.Color{Red: 200}, 100, 0, 200*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	go c.run(ctx)

	time.Sleep(100 * time.Millisecond)
	cancel()
	waitDone(t, c)

	writes := mgr.LastOpened().Writes()
	if len(writes) < 5 {
		t.Fatalf("only %d frames rendered", len(writes))
	}
	levels := map[uint8]bool{}
	for _, frame := range writes {
		if len(frame) != 65 {
			t.Fatalf("frame length = %d, want 65", len(frame))
		}
		if frame[4] != 0 || frame[5] != 0 {
			t.Fatalf("hue drifted: frame color %v", frame[3:6])
		}
		levels[frame[3]] = true
	}
	if len(levels) < 2 {
		t.Errorf("red level never varied across %d frames", len(writes))
	}
}

func TestSchedulerKeepAliveWhileIdle(t *testing.T) {
	mgr := newTestManager(vendorKuando)
	c := newTestController(t, mgr)
	ctx, cancel := context.WithCancel(context.Background())
	go c.run(ctx)

	time.Sleep(50 * time.Millisecond)
	cancel()
	waitDone(t, c)

	writes := mgr.LastOpened().Writes()
	if len(writes) == 0 {
		t.Fatal("no keep-alive frames while idle")
	}
	for _, frame := range writes {
		if frame[3] != 0 || frame[4] != 0 || frame[5] != 0 {
			t.Errorf("keep-alive changed color: %v", frame[3:6])
		}
	}
}

func TestSchedulerZeroPeriod(t *testing.T) {
	mgr := newTestManager(vendorKuando)
	c := newTestController(t, mgr)
	c.SetPulse(lights.Color{Red: 200}, 100, 0, 0)
	ctx, cancel := context.WithCancel(context.Background())
	go c.run(ctx)

	time.Sleep(30 * time.Millisecond)
	cancel()
	waitDone(t, c)

	// Zero period must neither crash nor render frames.
	if got := len(mgr.LastOpened().Writes()); got != 0 {
		t.Errorf("zero period rendered %d frames, want 0", got)
	}
}

func TestPulseFrameEnvelope(t *testing.T) {
	anim := animationState{
		color:   lights.Color{Red: 200},
		highPct: 100,
		lowPct:  20,
		period:  time.Second,
	}
	tests := []struct {
		elapsed time.Duration
		want    lights.Color
	}{
		{0, lights.Color{Red: 200}},                      // cycle start, exactly high
		{250 * time.Millisecond, lights.Color{Red: 47}},  // mid descent, eased 60%
		{500 * time.Millisecond, lights.Color{Red: 2}},   // reversal, exactly low
		{1250 * time.Millisecond, lights.Color{Red: 47}}, // wraps modulo period
	}
	for _, tt := range tests {
		if got := pulseFrame(anim, tt.elapsed); got != tt.want {
			t.Errorf("pulseFrame(%v) = %v, want %v", tt.elapsed, got, tt.want)
		}
	}
}

func TestEaseBoundaries(t *testing.T) {
	if got := ease(0); got != 0 {
		t.Errorf("ease(0) = %v, want 0", got)
	}
	if got := ease(1); got != 1 {
		t.Errorf("ease(1) = %v, want 1", got)
	}
	if got := ease(0.5); got != 0.5 {
		t.Errorf("ease(0.5) = %v, want 0.5", got)
	}
}
