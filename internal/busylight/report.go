package busylight

import (
	"github.com/jonkt/weatherlight/lights"
)

// Protocol identifies which of the two Busylight report layouts a connected
// device speaks. It is fixed at connect time by the vendor id and only ever
// changes through a full reconnect.
type Protocol uint8

const (
	// ProtocolLegacy devices take a 9 byte report with no checksum.
	ProtocolLegacy Protocol = iota
	// ProtocolExtended devices take a 65 byte report with a timeout block
	// and a trailing additive checksum.
	ProtocolExtended
)

func (p Protocol) String() string {
	switch p {
	case ProtocolLegacy:
		return "legacy"
	case ProtocolExtended:
		return "extended"
	default:
		return "unknown"
	}
}

const (
	legacyReportLen   = 9
	extendedReportLen = 65
)

// initFrame writes the fixed framing bytes for the given protocol into buf.
// After this only the color bytes at offsets 3..5 and, for the extended
// layout, the checksum trailer at 63..64 change between sends.
func initFrame(buf *[extendedReportLen]byte, p Protocol) {
	for i := range buf {
		buf[i] = 0
	}
	switch p {
	case ProtocolLegacy:
		buf[8] = 0x80
	case ProtocolExtended:
		buf[1] = 16
		buf[59] = 0xFF
		buf[60] = 0xFF
		buf[61] = 0xFF
		buf[62] = 0xFF
	}
}

// setColor stores the channel values at their fixed offsets.
func setColor(buf *[extendedReportLen]byte, c lights.Color) {
	buf[3] = c.Red
	buf[4] = c.Green
	buf[5] = c.Blue
}

// finalize recomputes the checksum trailer where the layout has one and
// returns the exact byte slice to put on the wire. The checksum is a 16 bit
// big endian sum over bytes 0..62 and must be refreshed on every send
// because the color bytes it covers mutate between calls.
func finalize(buf *[extendedReportLen]byte, p Protocol) []byte {
	if p == ProtocolLegacy {
		return buf[:legacyReportLen]
	}
	var sum uint32
	for _, b := range buf[:63] {
		sum += uint32(b)
	}
	buf[63] = byte(sum >> 8)
	buf[64] = byte(sum)
	return buf[:extendedReportLen]
}
