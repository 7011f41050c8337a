package fastboot

import "time"

// Progress phases.
const (
	PhaseDownloading = "downloading"
	PhaseFlashing    = "flashing"
	PhaseComplete    = "complete"
)

// Progress contains information about a running download or flash.
// Passed to ProgressCallback once per transferred chunk.
type Progress struct {
	// Phase describes the current operation phase:
	//   "downloading" - streaming the payload to the bootloader
	//   "flashing"    - waiting for the bootloader to write the partition
	//   "complete"    - the partition was written
	Phase string

	// Partition is the fully resolved partition name, empty for bare downloads
	Partition string

	// BytesSent is the number of payload bytes written so far
	BytesSent int64

	// TotalBytes is the payload size
	TotalBytes int64

	// Percentage is the completion percentage (0.0 to 100.0)
	Percentage float64

	// ElapsedTime is the time elapsed since the download started
	ElapsedTime time.Duration
}

// ProgressCallback is called during downloads to report progress.
// Implementations should return quickly to avoid stalling the transfer.
//
// Example:
//
//	client := fastboot.New(binding,
//	    fastboot.WithProgressCallback(func(p fastboot.Progress) {
//	        fmt.Printf("[%s] %s %.1f%%\n", p.Phase, p.Partition, p.Percentage)
//	    }),
//	)
type ProgressCallback func(Progress)

// SessionHook is called with a snapshot of every session the instant it
// terminates with OKAY or FAIL.
type SessionHook func(Session)

// Logger is an optional logging interface that can be provided to the client.
// *slog.Logger satisfies it.
//
// Example with the standard log package:
//
//	type StdLogger struct{}
//	func (l *StdLogger) Debug(msg string, kv ...interface{}) { log.Println(msg, kv) }
//	func (l *StdLogger) Info(msg string, kv ...interface{})  { log.Println(msg, kv) }
//	func (l *StdLogger) Error(msg string, kv ...interface{}) { log.Println(msg, kv) }
//
//	client := fastboot.New(binding, fastboot.WithLogger(&StdLogger{}))
type Logger interface {
	// Debug logs a debug message with optional key-value pairs
	Debug(msg string, keysAndValues ...interface{})

	// Info logs an info message with optional key-value pairs
	Info(msg string, keysAndValues ...interface{})

	// Error logs an error message with optional key-value pairs
	Error(msg string, keysAndValues ...interface{})
}
