package programmer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/moffa90/go-eeprom/geometry"
	"github.com/moffa90/go-eeprom/protocol"
)

// State is the connection state of a Session.
type State int

const (
	StateDisconnected State = iota
	StateConnected
)

func (s State) String() string {
	if s == StateConnected {
		return "connected"
	}
	return "disconnected"
}

// Session drives the programmer bridge over a byte channel.
// Every transaction is a blocking write followed by blocking single-byte reads.
//
// The channel's Read must give up after its own timeout; returning (0, nil),
// io.EOF or an error with a Timeout() method reporting true is taken as
// "nothing arrived".
//
// Session is not safe for concurrent use.
type Session struct {
	channel io.ReadWriter
	geo     geometry.Geometry
	config  Config
	state   State
}

// New creates a Session on an already opened channel. The session starts
// disconnected; call Handshake before any transaction.
//
// Example:
//
//	port, _ := link.Open(link.Config{Port: "/dev/ttyACM0", BaudRate: 115200, Timeout: time.Second})
//	s := programmer.New(port,
//	    programmer.WithProgressCallback(progressFunc),
//	    programmer.WithConfirm(askUser),
//	)
func New(channel io.ReadWriter, opts ...Option) *Session {
	if channel == nil {
		panic("channel cannot be nil")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Session{
		channel: channel,
		geo:     geometry.Default(),
		config:  cfg,
	}
}

// State returns the current connection state.
func (s *Session) State() State {
	return s.state
}

// Geometry returns the device geometry the session checks addresses against.
func (s *Session) Geometry() geometry.Geometry {
	return s.geo
}

// Handshake sends 0xAA and waits for ACK. On success the session is
// connected. Anything else leaves it disconnected and returns a
// *ConnectionError.
func (s *Session) Handshake(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("handshake: %w", err)
	}

	frame, _ := protocol.BuildHandshakeCmd()
	res, err := s.transact(ctx, protocol.KindHandshake, frame)
	if err != nil {
		s.state = StateDisconnected
		return &ConnectionError{Err: err}
	}

	if !res.Success() {
		s.state = StateDisconnected
		s.logError("handshake not acknowledged", "status", res.Status.String(), "response", fmt.Sprintf("0x%02X", res.Response))
		if res.Status == protocol.StatusNoResponse {
			return &ConnectionError{TimedOut: true}
		}
		return &ConnectionError{
			Response: res.Response,
			Err:      &protocol.ProtocolError{Operation: "handshake", Response: res.Response},
		}
	}

	s.state = StateConnected
	s.logDebug("handshake acknowledged")
	return nil
}

// abortMaxReplies bounds how many replies Abort reads. An idle device NAKs
// the Cancel byte and then ACKs the Handshake.
const abortMaxReplies = 2

// Abort resynchronises a device that may be stuck inside a stream write,
// for example after a job was interrupted mid-page. It sends Cancel then
// Handshake. A device waiting for more stream data takes this as the end
// of the stream and answers ACK. An idle device answers NAK to the Cancel
// byte first, so Abort keeps reading until it sees ACK or the read times
// out. The returned Result carries the last reply, and the session is
// connected afterwards only if that reply was ACK.
//
// Abort is never called implicitly.
func (s *Session) Abort(ctx context.Context) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, fmt.Errorf("abort: %w", err)
	}

	start := time.Now()
	cancel, _ := protocol.BuildCancelCmd()
	handshake, _ := protocol.BuildHandshakeCmd()
	if err := s.send(ctx, append(cancel, handshake...)); err != nil {
		s.state = StateDisconnected
		return Result{}, fmt.Errorf("abort: %w", err)
	}

	res := Result{Status: protocol.StatusNoResponse}
	for i := 0; i < abortMaxReplies; i++ {
		b, ok, err := s.receive()
		if err != nil {
			s.state = StateDisconnected
			return Result{}, fmt.Errorf("abort: %w", err)
		}
		if !ok {
			break
		}
		res = Result{Status: protocol.ParseAck([]byte{b}), Response: b}
		if res.Success() {
			break
		}
		s.logDebug("abort reply skipped", "response", fmt.Sprintf("0x%02X", b))
	}
	s.observe(protocol.KindCancel.String(), res.Status.String(), time.Since(start))

	if res.Success() {
		s.state = StateConnected
	} else {
		s.state = StateDisconnected
	}
	s.logInfo("abort sent", "status", res.Status.String())
	return res, nil
}

func (s *Session) requireConnected() error {
	if s.state != StateConnected {
		return ErrNotConnected
	}
	return nil
}

// transact writes one frame and reads its one-byte acknowledgement.
func (s *Session) transact(ctx context.Context, kind protocol.Kind, frame []byte) (Result, error) {
	start := time.Now()
	if err := s.send(ctx, frame); err != nil {
		return Result{}, err
	}

	b, ok, err := s.receive()
	if err != nil {
		return Result{}, err
	}

	res := Result{Status: protocol.StatusNoResponse}
	if ok {
		res = Result{Status: protocol.ParseAck([]byte{b}), Response: b}
	}
	s.observe(kind.String(), res.Status.String(), time.Since(start))
	return res, nil
}

// send writes a frame, then applies the configured command delay.
func (s *Session) send(ctx context.Context, frame []byte) error {
	n, err := s.channel.Write(frame)
	if err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	if n != len(frame) {
		return fmt.Errorf("write frame: %w (%d of %d bytes)", io.ErrShortWrite, n, len(frame))
	}
	s.logDebug("frame sent", "bytes", fmt.Sprintf("% X", frame))

	if s.config.CommandDelay > 0 {
		timer := time.NewTimer(s.config.CommandDelay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
		}
	}
	return nil
}

// receive reads a single byte. ok is false when the read timed out.
func (s *Session) receive() (b byte, ok bool, err error) {
	var buf [1]byte
	n, err := s.channel.Read(buf[:])
	if n == 1 {
		return buf[0], true, nil
	}
	if err == nil || errors.Is(err, io.EOF) || isTimeout(err) {
		return 0, false, nil
	}
	return 0, false, fmt.Errorf("read response: %w", err)
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}

func (s *Session) confirmed(start, end uint16) bool {
	if s.config.Confirm == nil {
		return true
	}
	return s.config.Confirm(start, end)
}

func (s *Session) observe(kind, status string, elapsed time.Duration) {
	if s.config.Metrics != nil {
		s.config.Metrics.Transaction(kind, status, elapsed)
	}
}

func (s *Session) countBytes(direction string, n int) {
	if s.config.Metrics != nil && n > 0 {
		s.config.Metrics.Bytes(direction, n)
	}
}

// reportProgress calls the progress callback if configured.
func (s *Session) reportProgress(progress Progress) {
	if s.config.ProgressCallback != nil {
		s.config.ProgressCallback(progress)
	}
}

// logDebug logs a debug message if a logger is configured.
func (s *Session) logDebug(msg string, keysAndValues ...interface{}) {
	if s.config.Logger != nil {
		s.config.Logger.Debug(msg, keysAndValues...)
	}
}

// logInfo logs an info message if a logger is configured.
func (s *Session) logInfo(msg string, keysAndValues ...interface{}) {
	if s.config.Logger != nil {
		s.config.Logger.Info(msg, keysAndValues...)
	}
}

// logError logs an error message if a logger is configured.
func (s *Session) logError(msg string, keysAndValues ...interface{}) {
	if s.config.Logger != nil {
		s.config.Logger.Error(msg, keysAndValues...)
	}
}
