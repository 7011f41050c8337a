package protocol

import "fmt"

// Status is the four-character code that starts every response.
type Status string

// Response status codes.
const (
	// StatusOkay completes a command successfully
	StatusOkay Status = "OKAY"

	// StatusFail completes a command with an error message
	StatusFail Status = "FAIL"

	// StatusData acknowledges a download and carries the accepted length
	StatusData Status = "DATA"

	// StatusInfo is an informational line; the command is still running
	StatusInfo Status = "INFO"

	// StatusText is free-form progress text; the command is still running
	StatusText Status = "TEXT"
)

// ParseStatus validates a four-byte status prefix.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusOkay, StatusFail, StatusData, StatusInfo, StatusText:
		return st, nil
	default:
		return "", &ProtocolError{
			Operation: "decode response",
			Reason:    fmt.Sprintf("unknown status %q", s),
		}
	}
}

// Terminal reports whether the status ends the current command.
func (s Status) Terminal() bool {
	return s == StatusOkay || s == StatusFail
}

// Informational reports whether more packets follow this one.
func (s Status) Informational() bool {
	return s == StatusInfo || s == StatusText
}

// Packet is one frame exchanged with the bootloader.
// The set of implementations is closed: Command and Response.
type Packet interface {
	packet()
}

// Command is a host-to-device frame.
type Command struct {
	// Text is the raw ASCII command, e.g. "getvar:product"
	Text string
}

// Response is a device-to-host frame.
type Response struct {
	// Status is the decoded status prefix
	Status Status

	// Message is the trimmed text following the status.
	// For DATA responses it describes the announced length.
	Message string

	// DataLength is the byte count announced by a DATA response
	DataLength uint32
}

func (Command) packet()  {}
func (Response) packet() {}

func (c Command) String() string {
	return "> " + c.Text
}

func (r Response) String() string {
	if r.Status == StatusData {
		return fmt.Sprintf("< %s %08x", r.Status, r.DataLength)
	}
	if r.Message == "" {
		return "< " + string(r.Status)
	}
	return fmt.Sprintf("< %s %s", r.Status, r.Message)
}
