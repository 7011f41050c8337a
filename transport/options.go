package transport

import (
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Logger is an optional logging interface. *slog.Logger satisfies it.
type Logger interface {
	Debug(msg string, keysAndValues ...interface{})
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// RawLogger receives every bulk transfer. in is true for device to host.
type RawLogger interface {
	Log(in bool, data []byte)
}

// Config holds the binding configuration.
type Config struct {
	// Logger is used for reconnect and setup diagnostics (optional)
	Logger Logger

	// RawLogger receives a copy of every transfer (optional)
	RawLogger RawLogger

	// Schedule lists the pauses between reconnect attempts
	Schedule ReconnectSchedule

	// Timer drives the schedule pauses. nil uses real time.
	Timer backoff.Timer

	// Configuration is the configuration value selected on connect
	Configuration int

	// Interface is the interface number claimed on connect
	Interface int
}

func defaultConfig() Config {
	return Config{
		Schedule:      DefaultSchedule,
		Configuration: 1,
		Interface:     0,
	}
}

// Option is a functional option for configuring a Binding.
type Option func(*Config)

// WithLogger sets a logger for setup and reconnect diagnostics.
func WithLogger(logger Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithRawLogger enables hex tracing of every transfer.
//
// Example:
//
//	raw := log.NewRaw(traceFile)
//	b := transport.New(host, transport.WithRawLogger(raw))
func WithRawLogger(raw RawLogger) Option {
	return func(c *Config) {
		c.RawLogger = raw
	}
}

// WithSchedule replaces the pauses between reconnect attempts.
// The connect-event wait always follows the last pause.
func WithSchedule(delays ...time.Duration) Option {
	return func(c *Config) {
		c.Schedule = append(ReconnectSchedule(nil), delays...)
	}
}

// WithTimer sets the timer that drives the reconnect pauses.
func WithTimer(t backoff.Timer) Option {
	return func(c *Config) {
		c.Timer = t
	}
}
