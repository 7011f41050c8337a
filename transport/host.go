package transport

import "context"

// Host is the host USB stack.
type Host interface {
	// Devices returns the handles currently visible on the bus.
	// Handles are not opened until Device.Open is called.
	Devices(ctx context.Context) ([]Device, error)

	// WaitForConnect blocks until the host reports a newly connected device.
	WaitForConnect(ctx context.Context) error
}

// Device is one USB device handle supplied by the host.
type Device interface {
	// Serial returns the device's serial number string
	Serial() (string, error)

	// Configs returns the configuration descriptors
	Configs() ([]ConfigDesc, error)

	Open() error
	IsOpen() bool
	SetConfiguration(config int) error
	ClaimInterface(iface int) error

	// BulkIn reads at most maxLen bytes from an IN endpoint
	BulkIn(ctx context.Context, endpoint uint8, maxLen int) ([]byte, error)

	// BulkOut writes data to an OUT endpoint
	BulkOut(ctx context.Context, endpoint uint8, data []byte) error

	Close() error
}

// Locator is implemented by devices that know their position on the bus.
// A device that re-enumerates comes back at a new location.
type Locator interface {
	Location() string
}

// location returns d's bus position, or "" when d does not report one.
func location(d Device) string {
	if l, ok := d.(Locator); ok {
		return l.Location()
	}
	return ""
}

// ConfigDesc describes one device configuration.
type ConfigDesc struct {
	Number     int
	Interfaces []InterfaceDesc
}

// InterfaceDesc describes one interface (default alternate setting).
type InterfaceDesc struct {
	Number   int
	Class    uint8
	SubClass uint8
	Protocol uint8

	Endpoints []EndpointDesc
}

// EndpointDesc describes one endpoint.
type EndpointDesc struct {
	// Address includes the direction bit (0x80 = IN)
	Address uint8

	// MaxPacketSize is wMaxPacketSize
	MaxPacketSize int
}

// IsIn returns true if this is an IN endpoint (device to host).
func (e EndpointDesc) IsIn() bool {
	return e.Address&0x80 != 0
}

// Number returns the endpoint number (0-15).
func (e EndpointDesc) Number() uint8 {
	return e.Address & 0x0F
}

// Fastboot interface identification (class, subclass, protocol).
const (
	FastbootClass    = 0xFF
	FastbootSubClass = 0x42
	FastbootProtocol = 0x03
)

// IsFastboot reports whether the interface advertises the fastboot triple.
func (i InterfaceDesc) IsFastboot() bool {
	return i.Class == FastbootClass && i.SubClass == FastbootSubClass && i.Protocol == FastbootProtocol
}
