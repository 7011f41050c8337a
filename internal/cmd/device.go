package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/moffa90/go-fastboot/internal/log"
	"github.com/moffa90/go-fastboot/transport"
	"github.com/moffa90/go-fastboot/usbhost"
)

var errNoDevice = errors.New("no fastboot device found")

// selectDevice returns the device with serial, or the only visible device
// when serial is empty. Every other handle is closed.
func selectDevice(ctx context.Context, host transport.Host, serial string) (transport.Device, error) {
	devices, err := host.Devices(ctx)
	if err != nil {
		return nil, err
	}

	closeAll := func(keep transport.Device) {
		for _, d := range devices {
			if d != keep {
				_ = d.Close()
			}
		}
	}

	if serial == "" {
		switch len(devices) {
		case 0:
			return nil, errNoDevice
		case 1:
			return devices[0], nil
		default:
			closeAll(nil)
			return nil, fmt.Errorf("%d fastboot devices found, choose one with --serial", len(devices))
		}
	}

	for _, d := range devices {
		if s, err := d.Serial(); err == nil && s == serial {
			closeAll(d)
			return d, nil
		}
	}
	closeAll(nil)
	return nil, fmt.Errorf("%w with serial %q", errNoDevice, serial)
}

// connection is a bound device and the host that enumerated it.
type connection struct {
	binding   *transport.Binding
	closeHost func() error
}

func (c *connection) Close() error {
	err := c.binding.Close()
	if hostErr := c.closeHost(); err == nil {
		err = hostErr
	}
	return err
}

// host returns the test host or a libusb host with its close function.
func (g *Globals) host(logger *slog.Logger) (transport.Host, func() error) {
	if g.deps.host != nil {
		return g.deps.host, func() error { return nil }
	}
	h := usbhost.New(usbhost.WithLogger(logger))
	return h, h.Close
}

// connect binds the selected device.
func (g *Globals) connect(ctx context.Context, logger *slog.Logger, raw log.RawLogger) (*connection, error) {
	host, closeHost := g.host(logger)

	dev, err := selectDevice(ctx, host, g.Serial)
	if err != nil {
		_ = closeHost()
		return nil, err
	}

	opts := []transport.Option{transport.WithLogger(logger)}
	if raw != nil {
		opts = append(opts, transport.WithRawLogger(raw))
	}
	if g.deps.timer != nil {
		opts = append(opts, transport.WithTimer(g.deps.timer))
	}

	b := transport.New(host, opts...)
	if err := b.Bind(dev); err != nil {
		_ = dev.Close()
		_ = closeHost()
		return nil, err
	}

	logger.Debug("selected device", "serial", b.Serial())
	return &connection{binding: b, closeHost: closeHost}, nil
}
