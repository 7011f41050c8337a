package usbhost

import (
	"context"
	"fmt"

	"github.com/google/gousb"
	"github.com/moffa90/go-fastboot/transport"
)

// Host implements transport.Host on libusb.
type Host struct {
	config Config
	usb    *gousb.Context
	events connectEvents
}

// New initializes libusb and starts watching for connect events.
// It panics if libusb cannot be initialized, as gousb does.
func New(opts ...Option) *Host {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	h := &Host{
		config: cfg,
		usb:    gousb.NewContext(),
	}

	m, err := newMonitor(cfg.Root, cfg.Logger)
	if err != nil {
		h.logInfo("usbfs not watchable, polling for connect events",
			"root", cfg.Root,
			"interval", cfg.PollInterval,
			"error", err,
		)
		h.events = newPoller(cfg.PollInterval, h.scan, cfg.Logger)
	} else {
		h.events = m
	}

	return h
}

// Devices opens every device exposing a fastboot interface.
func (h *Host) Devices(ctx context.Context) ([]transport.Device, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	h.events.reset()

	devs, err := h.usb.OpenDevices(hasFastboot)
	if err != nil {
		if len(devs) == 0 {
			return nil, fmt.Errorf("open devices: %w", err)
		}
		// gousb returns the devices it managed to open alongside the error
		h.logDebug("some devices could not be opened", "error", err)
	}

	out := make([]transport.Device, 0, len(devs))
	for _, d := range devs {
		out = append(out, newDevice(d))
	}

	h.logDebug("enumerated fastboot devices", "count", len(out))
	return out, nil
}

// WaitForConnect blocks until a device appears on the bus or ctx is done.
func (h *Host) WaitForConnect(ctx context.Context) error {
	h.logDebug("waiting for usb connect event")
	return h.events.wait(ctx)
}

// Close stops the event watch and releases libusb.
func (h *Host) Close() error {
	watchErr := h.events.close()
	if err := h.usb.Close(); err != nil {
		return fmt.Errorf("close libusb: %w", err)
	}
	return watchErr
}

// scan lists the bus addresses of fastboot devices without opening them.
func (h *Host) scan() (map[string]bool, error) {
	seen := make(map[string]bool)
	_, err := h.usb.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		if hasFastboot(desc) {
			seen[busAddress(desc)] = true
		}
		return false
	})
	return seen, err
}

func (h *Host) logDebug(msg string, kv ...interface{}) {
	if h.config.Logger != nil {
		h.config.Logger.Debug(msg, kv...)
	}
}

func (h *Host) logInfo(msg string, kv ...interface{}) {
	if h.config.Logger != nil {
		h.config.Logger.Info(msg, kv...)
	}
}
