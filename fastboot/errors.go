package fastboot

import (
	"errors"
	"fmt"
)

// BusyError indicates a command was issued while another was still active.
// Callers must wait for each command to complete before sending the next.
type BusyError struct {
	// Command is the command that was rejected
	Command string

	// Active is the command still in flight
	Active string
}

func (e *BusyError) Error() string {
	return fmt.Sprintf("cannot send %q: command %q is still active", e.Command, e.Active)
}

// ImageTooLargeError indicates an image above the bootloader's download limit
// with no ImageSplitter configured.
type ImageTooLargeError struct {
	Partition string
	Size      int64
	Max       int64
}

func (e *ImageTooLargeError) Error() string {
	return fmt.Sprintf("image for %s is %d bytes, bootloader accepts at most %d",
		e.Partition, e.Size, e.Max)
}

// SlotError indicates an unknown slot name or an unexpected current-slot value.
type SlotError struct {
	Slot string
}

func (e *SlotError) Error() string {
	return fmt.Sprintf("invalid slot %q: must be current, other, a or b", e.Slot)
}

// IsBusyError returns true if err is or wraps a BusyError.
func IsBusyError(err error) bool {
	var be *BusyError
	return errors.As(err, &be)
}
