package busylight

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jonkt/weatherlight/internal/hid"
	"github.com/jonkt/weatherlight/internal/logging"
	"github.com/jonkt/weatherlight/internal/metrics"
	"github.com/jonkt/weatherlight/lights"
)

var logger = logging.New("busylight")

// Kuando ships the extended protocol under its own vendor id (10171) and
// the legacy protocol under a Microchip OEM id.
const (
	vendorKuando uint16 = 0x27BB
	vendorOEM    uint16 = 0x04D8
)

var (
	// ErrNoDevice means enumeration worked but nothing matched the vendor
	// allow list.
	ErrNoDevice = errors.New("busylight: no supported device found")
	// ErrTransportUnavailable means the host HID subsystem could not be
	// initialized. The session stays up but every send is a no-op.
	ErrTransportUnavailable = errors.New("busylight: hid transport unavailable")
)

func classify(vendor uint16) (Protocol, bool) {
	switch vendor {
	case vendorKuando:
		return ProtocolExtended, true
	case vendorOEM:
		return ProtocolLegacy, true
	default:
		return 0, false
	}
}

// DeviceDescriptor is an immutable snapshot of the connected device taken at
// connect time. It is discarded on disconnect and rebuilt on reconnect.
type DeviceDescriptor struct {
	VendorID  uint16
	ProductID uint16
	Product   string
	Path      string
	Protocol  Protocol
}

// Session owns at most one open device handle plus the report buffer for it.
// All methods are safe for concurrent use. The send methods never return
// errors: a transport failure degrades to "disconnected until the next
// successful discovery" and must not reach callers.
type Session struct {
	mgr hid.Manager

	mu          sync.Mutex
	dev         hid.Device
	desc        *DeviceDescriptor
	protocol    Protocol
	buf         [extendedReportLen]byte
	lastAttempt time.Time

	// reconnectEvery caps how often a failed or absent device triggers a
	// fresh discovery pass. Tests shorten it.
	reconnectEvery time.Duration
}

// NewSession wraps a HID manager. A nil manager models an unavailable host
// HID subsystem: Connect reports ErrTransportUnavailable and sends no-op.
func NewSession(mgr hid.Manager) *Session {
	return &Session{
		mgr:            mgr,
		reconnectEvery: 2 * time.Second,
	}
}

// Connect runs one full discovery pass: enumerate everything, filter by
// vendor id, open the first match by path and install the report framing for
// its protocol. Calling it on a connected session closes the old handle
// first. The OS path may go stale across unplugs, so reconnects always come
// back through here rather than reopening a remembered path.
func (s *Session) Connect() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastAttempt = time.Now()
	return s.connectLocked()
}

func (s *Session) connectLocked() error {
	s.closeLocked()
	if s.mgr == nil {
		return ErrTransportUnavailable
	}
	infos, err := s.mgr.Enumerate()
	if err != nil {
		return fmt.Errorf("enumerate hid devices: %w", err)
	}
	for _, info := range infos {
		protocol, ok := classify(info.VendorID)
		if !ok {
			continue
		}
		dev, err := s.mgr.OpenPath(info.Path)
		if err != nil {
			return fmt.Errorf("open %s: %w", info.Path, err)
		}
		s.dev = dev
		s.protocol = protocol
		s.desc = &DeviceDescriptor{
			VendorID:  info.VendorID,
			ProductID: info.ProductID,
			Product:   info.Product,
			Path:      info.Path,
			Protocol:  protocol,
		}
		// Carry the pending color across the framing reset so the frame
		// that triggered a reconnect can be resent unchanged.
		r, g, b := s.buf[3], s.buf[4], s.buf[5]
		initFrame(&s.buf, protocol)
		s.buf[3], s.buf[4], s.buf[5] = r, g, b
		logger.With(
			zap.String("vendorId", fmt.Sprintf("%#04x", info.VendorID)),
			zap.String("productId", fmt.Sprintf("%#04x", info.ProductID)),
			zap.String("product", info.Product),
			zap.String("protocol", protocol.String()),
		).Info("Busylight connected")
		return nil
	}
	return ErrNoDevice
}

// Write sends one color frame. While disconnected it doubles as a rate
// limited recovery pump: at most one rediscovery per reconnectEvery, and the
// frame is delivered if the device came back.
func (s *Session) Write(c lights.Color) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dev == nil && !s.reconnectLocked() {
		return
	}
	setColor(&s.buf, c)
	s.sendLocked()
}

// KeepAlive resends the current frame unchanged so the hardware watchdog
// does not blank the light during idle stretches.
func (s *Session) KeepAlive() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dev == nil && !s.reconnectLocked() {
		return
	}
	s.sendLocked()
}

// sendLocked writes the current buffer. On failure it marks the session
// disconnected right away, runs at most one rate limited rediscovery and
// resends the pending frame once, best effort.
func (s *Session) sendLocked() {
	_, err := s.dev.Write(finalize(&s.buf, s.protocol))
	if err == nil {
		metrics.FramesSent.WithLabelValues(s.protocol.String()).Inc()
		return
	}
	metrics.WriteFailures.Inc()
	logger.With(zap.Error(err)).Warn("Busylight write failed")
	s.closeLocked()
	if !s.reconnectLocked() {
		return
	}
	if _, err := s.dev.Write(finalize(&s.buf, s.protocol)); err != nil {
		metrics.WriteFailures.Inc()
		logger.With(zap.Error(err)).Warn("Busylight resend after reconnect failed")
		s.closeLocked()
		return
	}
	metrics.FramesSent.WithLabelValues(s.protocol.String()).Inc()
}

// reconnectLocked runs a full discovery pass at most once per
// reconnectEvery. Reports whether a device is connected afterwards.
func (s *Session) reconnectLocked() bool {
	if s.mgr == nil {
		return false
	}
	if time.Since(s.lastAttempt) < s.reconnectEvery {
		return false
	}
	s.lastAttempt = time.Now()
	if err := s.connectLocked(); err != nil {
		metrics.Reconnects.WithLabelValues("error").Inc()
		if !errors.Is(err, ErrNoDevice) {
			logger.With(zap.Error(err)).Warn("Busylight reconnect failed")
		}
		return false
	}
	metrics.Reconnects.WithLabelValues("ok").Inc()
	return true
}

// Connected reports whether a device handle is currently open.
func (s *Session) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dev != nil
}

// Descriptor returns the snapshot captured at connect time, if connected.
func (s *Session) Descriptor() (DeviceDescriptor, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.desc == nil {
		return DeviceDescriptor{}, false
	}
	return *s.desc, true
}

// Close releases the device handle. The session stays usable; a later send
// may rediscover the device.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeLocked()
}

func (s *Session) closeLocked() {
	if s.dev != nil {
		_ = s.dev.Close()
	}
	s.dev = nil
	s.desc = nil
}
