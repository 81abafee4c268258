package programmer

import "time"

// Config holds the session configuration.
type Config struct {
	// ProgressCallback is called during jobs to report progress (optional)
	ProgressCallback ProgressCallback

	// Logger is used for logging operations (optional)
	Logger Logger

	// Confirm gates every read command. A nil Confirm approves all reads.
	Confirm ConfirmFunc

	// Metrics receives per-transaction observations (optional)
	Metrics Metrics

	// CommandDelay is a pause after every frame is written, before the
	// response is read
	CommandDelay time.Duration

	// MissingLimit stops waiting on a range read after this many consecutive
	// bytes time out; the rest are marked missing. Zero waits for every byte.
	MissingLimit int

	// VerifyAfterWrite makes Program read back what it wrote
	VerifyAfterWrite bool
}

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		VerifyAfterWrite: true,
	}
}

// Option is a functional option for configuring the Session.
type Option func(*Config)

// WithProgressCallback sets a callback function to track job progress.
func WithProgressCallback(callback ProgressCallback) Option {
	return func(c *Config) {
		c.ProgressCallback = callback
	}
}

// WithLogger sets a logger for session operations.
//
// Example:
//
//	s := programmer.New(port, programmer.WithLogger(myLogger))
func WithLogger(logger Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithConfirm installs the voltage-safety gate queried before reads.
//
// Example:
//
//	s := programmer.New(port, programmer.WithConfirm(func(start, end uint16) bool {
//	    return askUser("5V supply connected?")
//	}))
func WithConfirm(confirm ConfirmFunc) Option {
	return func(c *Config) {
		c.Confirm = confirm
	}
}

// WithMetrics sets a sink for transaction metrics.
func WithMetrics(m Metrics) Option {
	return func(c *Config) {
		c.Metrics = m
	}
}

// WithCommandDelay sets a pause between writing a frame and reading its
// response. Ignored if negative.
func WithCommandDelay(d time.Duration) Option {
	return func(c *Config) {
		if d >= 0 {
			c.CommandDelay = d
		}
	}
}

// WithMissingLimit sets how many consecutive timed-out bytes end a range
// read early. Ignored if negative.
func WithMissingLimit(n int) Option {
	return func(c *Config) {
		if n >= 0 {
			c.MissingLimit = n
		}
	}
}

// WithVerifyAfterWrite enables or disables read-back in Program.
// Default is true.
func WithVerifyAfterWrite(verify bool) Option {
	return func(c *Config) {
		c.VerifyAfterWrite = verify
	}
}
