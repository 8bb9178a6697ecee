package lights

import (
	"time"
)

type Color struct {
	Red   uint8
	Green uint8
	Blue  uint8
}

// Service drives a single status light. Implementations must be safe for
// concurrent use; none of the methods return errors because a missing or
// flaky light must never break the caller.
type Service interface {
	SetSolid(color Color)
	SetPulse(color Color, highPct uint8, lowPct uint8, period time.Duration)
	StopPulse()
	Off()
	Connected() bool
}
