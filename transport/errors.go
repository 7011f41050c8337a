package transport

import (
	"errors"
	"fmt"
)

// SetupError indicates a device whose topology does not match a fastboot
// bootloader: wrong endpoint count, ambiguous directions, or no serial number.
// It is fatal and never retried.
type SetupError struct {
	Reason string
}

func (e *SetupError) Error() string {
	return fmt.Sprintf("usb setup: %s", e.Reason)
}

// UsbConnectionError indicates that no visible device matched the bound serial.
type UsbConnectionError struct {
	Serial  string
	Visible int
}

func (e *UsbConnectionError) Error() string {
	return fmt.Sprintf("no usb device with serial %q among %d visible devices", e.Serial, e.Visible)
}

// IsSetupError returns true if err is or wraps a SetupError.
func IsSetupError(err error) bool {
	var se *SetupError
	return errors.As(err, &se)
}

// IsUsbConnectionError returns true if err is or wraps a UsbConnectionError.
func IsUsbConnectionError(err error) bool {
	var ce *UsbConnectionError
	return errors.As(err, &ce)
}
