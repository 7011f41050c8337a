package script

import "fmt"

// ParseError indicates a script line that cannot be interpreted.
type ParseError struct {
	// Line is the 1-based line number in the script, 0 for a single line
	Line int

	// Text is the offending line
	Text string

	// Reason describes the problem
	Reason string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s: %q", e.Line, e.Reason, e.Text)
	}
	return fmt.Sprintf("%s: %q", e.Reason, e.Text)
}
