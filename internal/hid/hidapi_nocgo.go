//go:build !cgo

package hid

import "errors"

// The hidapi binding (github.com/sstallion/go-hid) requires cgo. Without it
// the host transport is unavailable; NewManager reports that and callers
// degrade as usual.
func newHidapiManager() (Manager, error) {
	return nil, errors.New("hidapi unavailable: built without cgo")
}
