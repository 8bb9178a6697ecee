// Package hid wraps host HID access behind small interfaces so device
// sessions can be exercised against scripted fakes.
package hid

// DeviceInfo is an enumeration-time snapshot of one HID device.
type DeviceInfo struct {
	Path      string
	VendorID  uint16
	ProductID uint16
	Product   string
}

// Device represents an opened HID device capable of output-report writes.
// The first byte of the written buffer is the report ID.
type Device interface {
	Write(p []byte) (int, error)
	Close() error
}

// Manager enumerates and opens HID devices.
type Manager interface {
	Enumerate() ([]DeviceInfo, error)
	OpenPath(path string) (Device, error)
}

// NewManager initializes the host HID subsystem and returns a manager backed
// by it. An error here means the host transport is unavailable; callers are
// expected to degrade rather than abort.
func NewManager() (Manager, error) {
	return newHidapiManager()
}
