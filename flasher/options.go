package flasher

import (
	"context"
	"time"

	"github.com/moffa90/go-fastboot/archive"
	"github.com/moffa90/go-fastboot/script"
)

// Logger is an optional logging interface. *slog.Logger satisfies it.
type Logger interface {
	Debug(msg string, keysAndValues ...interface{})
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// Sleeper pauses for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// UpdateInstaller installs a combined update package described by a
// fastboot-info.txt manifest.
type UpdateInstaller interface {
	Install(ctx context.Context, update *archive.Archive, manifest string, wipe bool) error
}

// Step describes the instruction about to run.
type Step struct {
	// Index is 1-based
	Index int

	Total       int
	Instruction script.Instruction
}

// StepCallback is called before each instruction runs.
type StepCallback func(Step)

// Config holds the flasher configuration.
type Config struct {
	// Logger is used for dispatch diagnostics (optional)
	Logger Logger

	// Sleeper implements sleep and the oem pauses
	Sleeper Sleeper

	// UpdateInstaller handles the update command (optional)
	UpdateInstaller UpdateInstaller

	// StepCallback is called before each instruction (optional)
	StepCallback StepCallback

	// DefaultSleep is used by sleep without an argument
	DefaultSleep time.Duration

	// OemPause is the pause taken for the no-op oem commands
	OemPause time.Duration
}

func defaultConfig() Config {
	return Config{
		Sleeper:      sleepContext,
		DefaultSleep: 5 * time.Second,
		OemPause:     10 * time.Millisecond,
	}
}

// Option is a functional option for configuring the Flasher.
type Option func(*Config)

// WithLogger sets a logger for the flasher.
func WithLogger(logger Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithSleeper replaces the pause implementation, mainly for tests.
func WithSleeper(s Sleeper) Option {
	return func(c *Config) {
		if s != nil {
			c.Sleeper = s
		}
	}
}

// WithUpdateInstaller sets the installer used by the update command.
//
// Example:
//
//	f := flasher.New(client, flasher.WithUpdateInstaller(manifest.New(client, nil)))
func WithUpdateInstaller(u UpdateInstaller) Option {
	return func(c *Config) {
		c.UpdateInstaller = u
	}
}

// WithStepCallback sets a callback invoked before each instruction.
//
// Example:
//
//	f := flasher.New(client, flasher.WithStepCallback(func(s flasher.Step) {
//	    fmt.Printf("[%d/%d] %s\n", s.Index, s.Total, s.Instruction)
//	}))
func WithStepCallback(cb StepCallback) Option {
	return func(c *Config) {
		c.StepCallback = cb
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
