package usbhost

import "time"

// Logger is an optional logging interface. *slog.Logger satisfies it.
type Logger interface {
	Debug(msg string, keysAndValues ...interface{})
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// DefaultRoot is the usbfs tree watched for connect events on Linux.
const DefaultRoot = "/dev/bus/usb"

// Config holds the host configuration.
type Config struct {
	// Logger receives enumeration and watch diagnostics (optional)
	Logger Logger

	// Root is the usbfs directory watched for connect events
	Root string

	// PollInterval is used when Root cannot be watched
	PollInterval time.Duration
}

func defaultConfig() Config {
	return Config{
		Root:         DefaultRoot,
		PollInterval: 500 * time.Millisecond,
	}
}

// Option is a functional option for configuring a Host.
type Option func(*Config)

// WithLogger sets a logger.
func WithLogger(logger Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithRoot changes the watched usbfs directory.
func WithRoot(root string) Option {
	return func(c *Config) {
		c.Root = root
	}
}

// WithPollInterval sets the bus polling interval used without usbfs events.
func WithPollInterval(d time.Duration) Option {
	return func(c *Config) {
		c.PollInterval = d
	}
}
