package protocol

import (
	"errors"
	"fmt"
)

// DeviceError is returned when the bootloader answers FAIL, or when a transfer
// expectation is violated (announced length mismatch, oversized payload).
// It is never retried.
type DeviceError struct {
	// Status is the status that ended the exchange, usually FAIL
	Status Status

	// Message is the bootloader's message or a description of the violation
	Message string
}

func (e *DeviceError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("bootloader returned %s", e.Status)
	}
	return fmt.Sprintf("bootloader returned %s: %s", e.Status, e.Message)
}

// ProtocolError indicates bytes that could not be decoded as a fastboot frame.
type ProtocolError struct {
	// Operation is what was being decoded or built
	Operation string

	// Reason describes the malformed input
	Reason string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%s: protocol error: %s", e.Operation, e.Reason)
}

// IsDeviceError returns true if err is or wraps a DeviceError.
func IsDeviceError(err error) bool {
	var de *DeviceError
	return errors.As(err, &de)
}

// IsProtocolError returns true if err is or wraps a ProtocolError.
func IsProtocolError(err error) bool {
	var pe *ProtocolError
	return errors.As(err, &pe)
}
