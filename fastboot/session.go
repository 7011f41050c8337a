package fastboot

import (
	"time"

	"github.com/moffa90/go-fastboot/protocol"
)

// SessionStatus is the outcome of a session.
type SessionStatus string

const (
	// SessionUninitialized has not received a terminal response yet
	SessionUninitialized SessionStatus = ""

	SessionOkay SessionStatus = "OKAY"
	SessionFail SessionStatus = "FAIL"
)

// Session is one command/response exchange. Values returned by the client
// are snapshots and never change afterwards.
type Session struct {
	Status  SessionStatus
	Packets []protocol.Packet

	StartedAt  time.Time
	FinishedAt time.Time
}

// Active reports whether the session holds packets and the last one is not
// OKAY or FAIL.
func (s Session) Active() bool {
	if len(s.Packets) == 0 {
		return false
	}
	resp, ok := s.Packets[len(s.Packets)-1].(protocol.Response)
	if !ok {
		return true
	}
	return !resp.Status.Terminal()
}

// Command returns the text of the first command in the session.
func (s Session) Command() string {
	for _, p := range s.Packets {
		if cmd, ok := p.(protocol.Command); ok {
			return cmd.Text
		}
	}
	return ""
}

// Last returns the most recent response, if any.
func (s Session) Last() (protocol.Response, bool) {
	for i := len(s.Packets) - 1; i >= 0; i-- {
		if resp, ok := s.Packets[i].(protocol.Response); ok {
			return resp, true
		}
	}
	return protocol.Response{}, false
}

// snapshot copies the packet slice so later appends are not visible.
func (s *Session) snapshot() Session {
	out := *s
	out.Packets = append([]protocol.Packet(nil), s.Packets...)
	return out
}

// append records p. A terminal response sets the session status and reports true.
func (s *Session) append(p protocol.Packet) bool {
	if len(s.Packets) == 0 {
		s.StartedAt = time.Now()
	}
	s.Packets = append(s.Packets, p)

	resp, ok := p.(protocol.Response)
	if !ok || !resp.Status.Terminal() {
		return false
	}

	s.FinishedAt = time.Now()
	if resp.Status == protocol.StatusFail {
		s.Status = SessionFail
	} else {
		s.Status = SessionOkay
	}
	return true
}
