// Package transport binds a fastboot device exposed by the host USB stack.
//
// A Binding owns the live device handle and its bulk endpoint pair. It validates
// the device topology (one configuration, one interface, exactly one bulk-IN and
// one bulk-OUT endpoint), opens and claims the interface, and moves raw transfers
// in both directions.
//
// # Reconnecting
//
// The bootloader re-enumerates on the bus after reboots, slot switches and
// lock state changes. WaitForReconnect finds the device again by its serial
// number, following a fixed schedule:
//
//	attempt now
//	wait 3s, attempt
//	wait 30s, attempt
//	wait for a device-connect event from the host, attempt once more
//
// The pauses are driven by a backoff.Timer, so tests can replace real time:
//
//	b := transport.New(host, transport.WithTimer(fakeTimer))
//
// # Host Independence
//
// This package does not talk to USB hardware. The host stack is consumed through
// the Host and Device interfaces; package usbhost implements them on libusb.
package transport
