package flasher

import (
	"fmt"

	"github.com/moffa90/go-fastboot/script"
)

// ArgError indicates an instruction with a missing or unusable argument.
type ArgError struct {
	Command script.Command
	Reason  string
}

func (e *ArgError) Error() string {
	return fmt.Sprintf("%s: %s", e.Command, e.Reason)
}

// UnsupportedCommandError indicates a recognized command this package does
// not execute.
type UnsupportedCommandError struct {
	// Command is the instruction as written
	Command string
}

func (e *UnsupportedCommandError) Error() string {
	return fmt.Sprintf("unsupported command %q", e.Command)
}
