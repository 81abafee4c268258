package programmer

import "time"

// Progress phases reported through ProgressCallback.
const (
	PhaseHandshake = "handshake"
	PhaseWriting   = "writing"
	PhaseReading   = "reading"
	PhaseVerifying = "verifying"
	PhaseComplete  = "complete"
)

// Progress contains information about a running job.
// Passed to ProgressCallback during page writes, range reads and Program.
type Progress struct {
	// Phase is one of the Phase* constants
	Phase string

	// Current is the number of pages written or bytes read so far
	Current int

	// Total is the number of pages or bytes the phase will handle
	Total int

	// Percentage is the completion percentage of the phase (0.0 to 100.0)
	Percentage float64

	// Bytes is the number of payload bytes transferred so far
	Bytes int

	// Elapsed is the time since the phase started
	Elapsed time.Duration
}

// ProgressCallback is called after every page written and every page worth
// of bytes read. Implementations should return quickly.
//
// Example:
//
//	s := programmer.New(port,
//	    programmer.WithProgressCallback(func(p programmer.Progress) {
//	        fmt.Printf("[%s] %.1f%% - %d/%d\n", p.Phase, p.Percentage, p.Current, p.Total)
//	    }),
//	)
type ProgressCallback func(Progress)

// ConfirmFunc is the voltage-safety gate. It is asked before any read
// command is sent; returning false declines the read and nothing reaches the
// wire. start and end are inclusive.
type ConfirmFunc func(start, end uint16) bool

// Logger is an optional logging interface that can be provided to the session.
// This allows integration with any logging framework.
//
// Example with standard log package:
//
//	type StdLogger struct{}
//	func (l *StdLogger) Debug(msg string, kv ...interface{}) { log.Println(msg, kv) }
//	func (l *StdLogger) Info(msg string, kv ...interface{})  { log.Println(msg, kv) }
//	func (l *StdLogger) Error(msg string, kv ...interface{}) { log.Println(msg, kv) }
//
//	s := programmer.New(port, programmer.WithLogger(&StdLogger{}))
type Logger interface {
	Debug(msg string, keysAndValues ...interface{})
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// Metrics receives one observation per wire transaction.
type Metrics interface {
	// Transaction records a completed transaction. status is the
	// protocol.Status string of the acknowledgement, or "data"/"missing"
	// for read transactions.
	Transaction(kind string, status string, elapsed time.Duration)

	// Bytes records payload bytes moved in direction "write" or "read".
	Bytes(direction string, n int)
}
