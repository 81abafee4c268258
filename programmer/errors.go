package programmer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/moffa90/go-eeprom/protocol"
)

var (
	ErrConnectionFailed = errors.New("programmer: connection failed")
	ErrNotConnected     = errors.New("programmer: not connected, handshake first")
	ErrDeclined         = errors.New("programmer: read declined by safety gate")
	ErrEmptyPayload     = errors.New("programmer: empty payload")
)

// ConnectionError indicates that a handshake was not acknowledged.
type ConnectionError struct {
	// Response is the byte received instead of ACK; meaningless if TimedOut
	Response byte

	// TimedOut is set when nothing arrived before the read timeout
	TimedOut bool

	// Err is the cause: the channel error on I/O failure, or a
	// *protocol.ProtocolError when a byte other than ACK came back
	Err error
}

func (e *ConnectionError) Error() string {
	var pe *protocol.ProtocolError
	switch {
	case errors.As(e.Err, &pe):
		return pe.Error()
	case e.Err != nil:
		return fmt.Sprintf("handshake failed: %v", e.Err)
	case e.TimedOut:
		return "handshake failed: no response"
	default:
		return fmt.Sprintf("handshake failed: %s (0x%02X)", protocol.ResponseName(e.Response), e.Response)
	}
}

func (e *ConnectionError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrConnectionFailed, e.Err}
	}
	return []error{ErrConnectionFailed}
}

// ShortReadError lists the addresses a range read did not receive.
type ShortReadError struct {
	Start   uint16
	End     uint16
	Missing []uint16
}

func (e *ShortReadError) Error() string {
	return fmt.Sprintf("short read 0x%04X-0x%04X: %d of %d bytes missing, first at 0x%04X",
		e.Start, e.End, len(e.Missing), int(e.End-e.Start)+1, e.Missing[0])
}

// TransactionError summarises the pages of a write job that were not
// acknowledged.
type TransactionError struct {
	Failed []WriteOutcome
	Total  int
}

func (e *TransactionError) Error() string {
	addrs := make([]string, 0, len(e.Failed))
	for _, o := range e.Failed {
		addrs = append(addrs, fmt.Sprintf("0x%04X(%s)", o.StartAddr, o.Status))
	}
	return fmt.Sprintf("%d of %d pages not acknowledged: %s", len(e.Failed), e.Total, strings.Join(addrs, ", "))
}

// VerificationError indicates that read-back data differs from what was written.
type VerificationError struct {
	Mismatches []Mismatch
}

func (e *VerificationError) Error() string {
	m := e.Mismatches[0]
	if m.Missing {
		return fmt.Sprintf("verification failed: %d mismatches, first at 0x%04X (missing)", len(e.Mismatches), m.Addr)
	}
	return fmt.Sprintf("verification failed: %d mismatches, first at 0x%04X: want 0x%02X, got 0x%02X",
		len(e.Mismatches), m.Addr, m.Want, m.Got)
}
