package fastboot

// ImageSplitter breaks an image larger than the bootloader's download limit
// into pieces that can each be downloaded and flashed in turn, usually by
// re-encoding it as a series of sparse images.
type ImageSplitter interface {
	Split(data []byte, maxSize int64) ([][]byte, error)
}

// Config holds the client configuration.
type Config struct {
	// ProgressCallback is called during downloads to report progress (optional)
	ProgressCallback ProgressCallback

	// Logger is used for logging packets and operations (optional)
	Logger Logger

	// SessionHook receives every terminated session (optional)
	SessionHook SessionHook

	// ImageSplitter handles images above max-download-size (optional).
	// Without one such images fail with ImageTooLargeError.
	ImageSplitter ImageSplitter

	// ChunkSize is the OUT transfer size used while downloading
	ChunkSize int
}

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		ChunkSize: chunkSize,
	}
}

// Option is a functional option for configuring the Client.
type Option func(*Config)

// WithProgressCallback sets a callback function to track download progress.
//
// Example:
//
//	client := fastboot.New(binding,
//	    fastboot.WithProgressCallback(func(p fastboot.Progress) {
//	        fmt.Printf("%.1f%% complete\n", p.Percentage)
//	    }),
//	)
func WithProgressCallback(callback ProgressCallback) Option {
	return func(c *Config) {
		c.ProgressCallback = callback
	}
}

// WithLogger sets a logger for the client operations.
//
// Example:
//
//	client := fastboot.New(binding, fastboot.WithLogger(slog.Default()))
func WithLogger(logger Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithSessionHook sets a hook that receives every terminated session.
//
// Example:
//
//	client := fastboot.New(binding, fastboot.WithSessionHook(func(s fastboot.Session) {
//	    fmt.Println(s.Command(), s.Status)
//	}))
func WithSessionHook(hook SessionHook) Option {
	return func(c *Config) {
		c.SessionHook = hook
	}
}

// WithImageSplitter sets the splitter used for images above max-download-size.
func WithImageSplitter(splitter ImageSplitter) Option {
	return func(c *Config) {
		c.ImageSplitter = splitter
	}
}
