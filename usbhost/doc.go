// Package usbhost implements transport.Host on libusb through gousb.
//
// # Enumeration
//
// Devices opens every device exposing an interface with the fastboot triple
// (class 0xff, subclass 0x42, protocol 0x03). The returned handles are already
// open at the libusb level; Close releases them.
//
// # Connect events
//
// WaitForConnect watches the usbfs tree (/dev/bus/usb by default) with
// fsnotify. Any file or directory created under the tree counts as a connect
// event. Events that arrive while nobody is waiting are remembered, so a
// device that reappears between an enumeration and the following wait is not
// missed. A new enumeration discards the remembered event.
//
// When the usbfs tree cannot be watched (macOS, Windows, containers without
// /dev/bus/usb) the host falls back to polling the bus for new addresses.
//
// # Usage
//
//	host := usbhost.New(usbhost.WithLogger(logger))
//	defer host.Close()
//
//	devices, err := host.Devices(ctx)
package usbhost
