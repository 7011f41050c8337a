package fastboottest

import (
	"context"
	"sync"

	"github.com/moffa90/go-fastboot/transport"
)

// Host is a simulated USB host with simulated bootloaders attached.
type Host struct {
	mu           sync.Mutex
	bootloaders  []*Bootloader
	enumerations int
	connectWaits int
}

var _ transport.Host = (*Host)(nil)

// NewHost creates a host with the given devices attached.
func NewHost(bootloaders ...*Bootloader) *Host {
	return &Host{bootloaders: bootloaders}
}

// Devices returns a fresh handle for every attached device currently on the bus.
func (h *Host) Devices(ctx context.Context) ([]transport.Device, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.enumerations++

	var out []transport.Device
	for _, bl := range h.bootloaders {
		bl.mu.Lock()
		var h *Handle
		switch {
		case bl.linger > 0:
			bl.linger--
			h = &Handle{bl: bl, generation: bl.generation - 1}
		case !bl.gone && bl.absent == 0:
			h = &Handle{bl: bl, generation: bl.generation}
		default:
			if bl.absent > 0 {
				bl.absent--
			}
		}
		bl.mu.Unlock()

		if h != nil {
			out = append(out, h)
		}
	}
	return out, nil
}

// WaitForConnect brings every absent device back on the bus and returns.
func (h *Host) WaitForConnect(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.connectWaits++

	for _, bl := range h.bootloaders {
		bl.mu.Lock()
		bl.absent = 0
		bl.mu.Unlock()
	}
	return nil
}

// Enumerations returns how many times Devices was called.
func (h *Host) Enumerations() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.enumerations
}

// ConnectWaits returns how many times WaitForConnect was called.
func (h *Host) ConnectWaits() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.connectWaits
}
