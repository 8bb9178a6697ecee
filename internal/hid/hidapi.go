//go:build cgo

package hid

import (
	"fmt"

	hidapi "github.com/sstallion/go-hid"
)

type hidapiManager struct{}

func newHidapiManager() (Manager, error) {
	if err := hidapi.Init(); err != nil {
		return nil, fmt.Errorf("hidapi init: %w", err)
	}
	return &hidapiManager{}, nil
}

func (m *hidapiManager) Enumerate() ([]DeviceInfo, error) {
	var out []DeviceInfo
	err := hidapi.Enumerate(hidapi.VendorIDAny, hidapi.ProductIDAny, func(info *hidapi.DeviceInfo) error {
		out = append(out, DeviceInfo{
			Path:      info.Path,
			VendorID:  info.VendorID,
			ProductID: info.ProductID,
			Product:   info.ProductStr,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("hid enumerate: %w", err)
	}
	return out, nil
}

func (m *hidapiManager) OpenPath(path string) (Device, error) {
	dev, err := hidapi.OpenPath(path)
	if err != nil {
		return nil, fmt.Errorf("hid open %s: %w", path, err)
	}
	return dev, nil
}
