package usbhost

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/gousb"
	"github.com/moffa90/go-fastboot/transport"
)

var errClosed = errors.New("device handle closed")

// device adapts a gousb.Device to transport.Device.
type device struct {
	dev  *gousb.Device
	desc *gousb.DeviceDesc
	open bool

	cfg  *gousb.Config
	intf *gousb.Interface
	in   map[uint8]*gousb.InEndpoint
	out  map[uint8]*gousb.OutEndpoint
}

var (
	_ transport.Device  = (*device)(nil)
	_ transport.Locator = (*device)(nil)
)

// newDevice wraps a handle returned by gousb.Context.OpenDevices, which is
// already open.
func newDevice(d *gousb.Device) *device {
	return &device{dev: d, desc: d.Desc, open: true}
}

func (d *device) Serial() (string, error) {
	if d.dev == nil {
		return "", errClosed
	}
	return d.dev.SerialNumber()
}

// Location is the bus and device address. The kernel assigns a new address
// every time the device re-enumerates.
func (d *device) Location() string {
	return busAddress(d.desc)
}

func (d *device) Configs() ([]transport.ConfigDesc, error) {
	return configDescs(d.desc), nil
}

func (d *device) Open() error {
	if d.dev == nil {
		return errClosed
	}
	// Detaching the kernel driver is not supported on every platform.
	_ = d.dev.SetAutoDetach(true)
	d.open = true
	return nil
}

func (d *device) IsOpen() bool {
	return d.open && d.dev != nil
}

func (d *device) SetConfiguration(config int) error {
	if d.dev == nil {
		return errClosed
	}
	d.release()

	cfg, err := d.dev.Config(config)
	if err != nil {
		return err
	}
	d.cfg = cfg
	return nil
}

func (d *device) ClaimInterface(iface int) error {
	if d.cfg == nil {
		return fmt.Errorf("claim interface %d: no configuration selected", iface)
	}
	if d.intf != nil {
		d.intf.Close()
	}

	intf, err := d.cfg.Interface(iface, 0)
	if err != nil {
		return err
	}
	d.intf = intf
	d.in = make(map[uint8]*gousb.InEndpoint)
	d.out = make(map[uint8]*gousb.OutEndpoint)
	return nil
}

func (d *device) BulkIn(ctx context.Context, endpoint uint8, maxLen int) ([]byte, error) {
	if d.intf == nil {
		return nil, fmt.Errorf("endpoint 0x%02x: interface not claimed", endpoint)
	}

	ep, ok := d.in[endpoint]
	if !ok {
		var err error
		ep, err = d.intf.InEndpoint(int(endpoint & 0x0F))
		if err != nil {
			return nil, err
		}
		d.in[endpoint] = ep
	}

	buf := make([]byte, maxLen)
	n, err := ep.ReadContext(ctx, buf)
	if err != nil {
		return nil, err
	}
	return buf[:n], nil
}

func (d *device) BulkOut(ctx context.Context, endpoint uint8, data []byte) error {
	if d.intf == nil {
		return fmt.Errorf("endpoint 0x%02x: interface not claimed", endpoint)
	}

	ep, ok := d.out[endpoint]
	if !ok {
		var err error
		ep, err = d.intf.OutEndpoint(int(endpoint & 0x0F))
		if err != nil {
			return err
		}
		d.out[endpoint] = ep
	}

	n, err := ep.WriteContext(ctx, data)
	if err != nil {
		return err
	}
	if n != len(data) {
		return fmt.Errorf("wrote %d of %d bytes: %w", n, len(data), io.ErrShortWrite)
	}
	return nil
}

func (d *device) Close() error {
	if d.dev == nil {
		return nil
	}
	d.release()
	err := d.dev.Close()
	d.dev = nil
	d.open = false
	return err
}

// release drops the claimed interface and the selected configuration.
func (d *device) release() {
	if d.intf != nil {
		d.intf.Close()
		d.intf = nil
	}
	if d.cfg != nil {
		_ = d.cfg.Close()
		d.cfg = nil
	}
	d.in, d.out = nil, nil
}
