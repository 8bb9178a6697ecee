package hid

import (
	"errors"
	"sync"
)

// MockManager is an in-memory Manager for tests. Enumeration returns the
// configured Devices; OpenPath hands out MockDevice handles and records them.
type MockManager struct {
	mu      sync.Mutex
	Devices []DeviceInfo
	EnumErr error
	OpenErr error

	enumerations int
	opened       []*MockDevice
}

func (m *MockManager) Enumerate() ([]DeviceInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.enumerations++
	if m.EnumErr != nil {
		return nil, m.EnumErr
	}
	out := make([]DeviceInfo, len(m.Devices))
	copy(out, m.Devices)
	return out, nil
}

func (m *MockManager) OpenPath(path string) (Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.OpenErr != nil {
		return nil, m.OpenErr
	}
	for _, info := range m.Devices {
		if info.Path == path {
			d := &MockDevice{Path: path}
			m.opened = append(m.opened, d)
			return d, nil
		}
	}
	return nil, errors.New("no such path: " + path)
}

// Enumerations reports how many times Enumerate was called.
func (m *MockManager) Enumerations() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.enumerations
}

// Opened returns every device handle handed out so far, oldest first.
func (m *MockManager) Opened() []*MockDevice {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*MockDevice, len(m.opened))
	copy(out, m.opened)
	return out
}

// LastOpened returns the most recently opened handle, or nil.
func (m *MockManager) LastOpened() *MockDevice {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.opened) == 0 {
		return nil
	}
	return m.opened[len(m.opened)-1]
}

// MockDevice records writes. Setting Fail makes every Write return an error
// until cleared, emulating an unplugged device.
type MockDevice struct {
	mu     sync.Mutex
	Path   string
	fail   bool
	closed bool
	writes [][]byte
}

func (d *MockDevice) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return 0, errors.New("device closed")
	}
	if d.fail {
		return 0, errors.New("write failed")
	}
	buf := make([]byte, len(p))
	copy(buf, p)
	d.writes = append(d.writes, buf)
	return len(p), nil
}

func (d *MockDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

// SetFail toggles write failures.
func (d *MockDevice) SetFail(fail bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fail = fail
}

// Writes returns a copy of all successful writes so far.
func (d *MockDevice) Writes() [][]byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([][]byte, len(d.writes))
	copy(out, d.writes)
	return out
}

// LastWrite returns the most recent successful write, or nil.
func (d *MockDevice) LastWrite() []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.writes) == 0 {
		return nil
	}
	return d.writes[len(d.writes)-1]
}

// Closed reports whether Close was called.
func (d *MockDevice) Closed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}
