package fastboottest

import (
	"context"
	"errors"
	"fmt"

	"github.com/moffa90/go-fastboot/transport"
)

// Endpoint addresses of the simulated fastboot interface.
const (
	EndpointIn  = 0x81
	EndpointOut = 0x01
)

var (
	errDisconnected = errors.New("device disconnected")
	errNotOpen      = errors.New("device not open")
	errNoResponse   = errors.New("no response pending")
)

// Handle is one enumeration of a simulated bootloader. It implements
// transport.Device and stops working once the device resets.
type Handle struct {
	bl         *Bootloader
	generation int

	open    bool
	claimed bool
}

var _ transport.Device = (*Handle)(nil)

func (h *Handle) Serial() (string, error) {
	return h.bl.serial, nil
}

// Location identifies the enumeration: it changes every time the device resets.
func (h *Handle) Location() string {
	return fmt.Sprintf("%s/%03d", h.bl.serial, h.generation+1)
}

func (h *Handle) Configs() ([]transport.ConfigDesc, error) {
	return []transport.ConfigDesc{{
		Number: 1,
		Interfaces: []transport.InterfaceDesc{{
			Number:   0,
			Class:    transport.FastbootClass,
			SubClass: transport.FastbootSubClass,
			Protocol: transport.FastbootProtocol,
			Endpoints: []transport.EndpointDesc{
				{Address: EndpointIn, MaxPacketSize: 512},
				{Address: EndpointOut, MaxPacketSize: 512},
			},
		}},
	}}, nil
}

func (h *Handle) Open() error {
	if err := h.alive(); err != nil {
		return err
	}
	h.open = true
	return nil
}

func (h *Handle) IsOpen() bool {
	return h.open
}

func (h *Handle) SetConfiguration(config int) error {
	if config != 1 {
		return errors.New("no such configuration")
	}
	return h.alive()
}

func (h *Handle) ClaimInterface(iface int) error {
	if iface != 0 {
		return errors.New("no such interface")
	}
	if err := h.alive(); err != nil {
		return err
	}
	h.claimed = true
	return nil
}

func (h *Handle) BulkIn(ctx context.Context, endpoint uint8, maxLen int) ([]byte, error) {
	if endpoint != EndpointIn {
		return nil, errors.New("not an IN endpoint")
	}
	if err := h.ready(); err != nil {
		return nil, err
	}

	h.bl.mu.Lock()
	defer h.bl.mu.Unlock()
	if h.generation != h.bl.generation {
		return nil, errDisconnected
	}
	frame, ok := h.bl.next(maxLen)
	if !ok {
		return nil, errNoResponse
	}
	return frame, nil
}

func (h *Handle) BulkOut(ctx context.Context, endpoint uint8, data []byte) error {
	if endpoint != EndpointOut {
		return errors.New("not an OUT endpoint")
	}
	if err := h.ready(); err != nil {
		return err
	}

	h.bl.mu.Lock()
	defer h.bl.mu.Unlock()
	if h.generation != h.bl.generation {
		return errDisconnected
	}
	h.bl.receive(append([]byte(nil), data...))
	return nil
}

func (h *Handle) Close() error {
	h.open = false
	h.claimed = false
	return nil
}

func (h *Handle) alive() error {
	h.bl.mu.Lock()
	defer h.bl.mu.Unlock()
	if h.generation != h.bl.generation {
		return errDisconnected
	}
	return nil
}

func (h *Handle) ready() error {
	if !h.open || !h.claimed {
		return errNotOpen
	}
	return nil
}
