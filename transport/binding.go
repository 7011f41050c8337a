package transport

import (
	"context"
	"fmt"
)

// Binding owns one fastboot device handle and its bulk endpoint pair.
//
// A Binding is not safe for concurrent use. Fastboot is half duplex and the
// engine above it serializes every exchange.
type Binding struct {
	host   Host
	config Config

	device  Device
	serial  string
	in      uint8
	out     uint8
	claimed bool
}

// New creates a Binding that enumerates devices through host.
// Call Bind with a device handle before connecting.
//
// Example:
//
//	b := transport.New(host, transport.WithLogger(logger))
//	if err := b.Bind(dev); err != nil {
//	    return err
//	}
//	if err := b.Connect(ctx); err != nil {
//	    return err
//	}
func New(host Host, opts ...Option) *Binding {
	if host == nil {
		panic("host cannot be nil")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Binding{
		host:   host,
		config: cfg,
	}
}

// endpointPair is the validated bulk endpoint pair of one device.
type endpointPair struct {
	in, out uint8
}

// resolveEndpoints validates the device topology: the first configuration's
// first interface must have exactly one IN and one OUT endpoint.
func resolveEndpoints(d Device) (endpointPair, error) {
	configs, err := d.Configs()
	if err != nil {
		return endpointPair{}, &SetupError{Reason: fmt.Sprintf("read descriptors: %v", err)}
	}
	if len(configs) == 0 {
		return endpointPair{}, &SetupError{Reason: "device has no configuration"}
	}
	if len(configs[0].Interfaces) == 0 {
		return endpointPair{}, &SetupError{Reason: "configuration has no interface"}
	}

	eps := configs[0].Interfaces[0].Endpoints
	if len(eps) != 2 {
		return endpointPair{}, &SetupError{
			Reason: fmt.Sprintf("expected 2 endpoints, got %d", len(eps)),
		}
	}
	if eps[0].IsIn() == eps[1].IsIn() {
		return endpointPair{}, &SetupError{
			Reason: fmt.Sprintf("ambiguous endpoint directions 0x%02x and 0x%02x", eps[0].Address, eps[1].Address),
		}
	}

	if eps[0].IsIn() {
		return endpointPair{in: eps[0].Address, out: eps[1].Address}, nil
	}
	return endpointPair{in: eps[1].Address, out: eps[0].Address}, nil
}

// Bind validates d and makes it the bound device. The device serial number
// becomes the identity used by Reconnect.
func (b *Binding) Bind(d Device) error {
	if d == nil {
		return &SetupError{Reason: "no device handle"}
	}

	eps, err := resolveEndpoints(d)
	if err != nil {
		return err
	}

	serial, err := d.Serial()
	if err != nil {
		return &SetupError{Reason: fmt.Sprintf("read serial number: %v", err)}
	}
	if serial == "" {
		return &SetupError{Reason: "device did not report a serial number"}
	}

	b.device = d
	b.serial = serial
	b.in, b.out = eps.in, eps.out
	b.claimed = false

	b.logDebug("bound device",
		"serial", serial,
		"ep_in", fmt.Sprintf("0x%02x", eps.in),
		"ep_out", fmt.Sprintf("0x%02x", eps.out),
	)
	return nil
}

// Serial returns the serial number captured by Bind.
func (b *Binding) Serial() string {
	return b.serial
}

// Connect opens the bound device, selects the configuration and claims the
// interface. Calling it on a connected binding does nothing.
func (b *Binding) Connect(ctx context.Context) error {
	if b.device == nil {
		return &SetupError{Reason: "no device bound"}
	}
	if b.claimed && b.device.IsOpen() {
		return nil
	}

	if !b.device.IsOpen() {
		if err := b.device.Open(); err != nil {
			return fmt.Errorf("open device %s: %w", b.serial, err)
		}
	}
	if err := b.device.SetConfiguration(b.config.Configuration); err != nil {
		return fmt.Errorf("set configuration %d: %w", b.config.Configuration, err)
	}
	if err := b.device.ClaimInterface(b.config.Interface); err != nil {
		return fmt.Errorf("claim interface %d: %w", b.config.Interface, err)
	}

	b.claimed = true
	b.logDebug("connected", "serial", b.serial)
	return nil
}

// Reconnect enumerates the host devices, rebinds the one whose serial matches
// and connects it. When no device matches, it returns UsbConnectionError and
// leaves the binding unchanged.
func (b *Binding) Reconnect(ctx context.Context) error {
	return b.reconnect(ctx, "")
}

// reconnect is Reconnect ignoring any match found at the stale location.
func (b *Binding) reconnect(ctx context.Context, stale string) error {
	if b.serial == "" {
		return &SetupError{Reason: "no device bound"}
	}

	devices, err := b.host.Devices(ctx)
	if err != nil {
		return fmt.Errorf("enumerate devices: %w", err)
	}

	var match Device
	for _, d := range devices {
		if match == nil {
			if serial, err := d.Serial(); err == nil && serial == b.serial {
				if stale == "" || location(d) != stale {
					match = d
					continue
				}
				b.logDebug("device still at its old location", "serial", serial, "location", stale)
			}
		}
		if d != b.device {
			_ = d.Close()
		}
	}
	if match == nil {
		return &UsbConnectionError{Serial: b.serial, Visible: len(devices)}
	}

	eps, err := resolveEndpoints(match)
	if err != nil {
		_ = match.Close()
		return err
	}

	if b.device != nil && b.device != match {
		_ = b.device.Close()
	}
	b.device = match
	b.in, b.out = eps.in, eps.out
	b.claimed = false

	return b.Connect(ctx)
}

// TransferIn reads one bulk IN transfer of at most maxLen bytes.
func (b *Binding) TransferIn(ctx context.Context, maxLen int) ([]byte, error) {
	if b.device == nil {
		return nil, &SetupError{Reason: "no device bound"}
	}

	data, err := b.device.BulkIn(ctx, b.in, maxLen)
	if err != nil {
		return nil, fmt.Errorf("bulk in: %w", err)
	}
	if b.config.RawLogger != nil {
		b.config.RawLogger.Log(true, data)
	}
	return data, nil
}

// TransferOut writes one bulk OUT transfer.
func (b *Binding) TransferOut(ctx context.Context, data []byte) error {
	if b.device == nil {
		return &SetupError{Reason: "no device bound"}
	}

	if b.config.RawLogger != nil {
		b.config.RawLogger.Log(false, data)
	}
	if err := b.device.BulkOut(ctx, b.out, data); err != nil {
		return fmt.Errorf("bulk out: %w", err)
	}
	return nil
}

// Close releases the bound device handle.
func (b *Binding) Close() error {
	if b.device == nil {
		return nil
	}
	err := b.device.Close()
	b.claimed = false
	return err
}

func (b *Binding) logDebug(msg string, kv ...interface{}) {
	if b.config.Logger != nil {
		b.config.Logger.Debug(msg, kv...)
	}
}

func (b *Binding) logInfo(msg string, kv ...interface{}) {
	if b.config.Logger != nil {
		b.config.Logger.Info(msg, kv...)
	}
}
