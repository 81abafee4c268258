package protocol

import (
	"errors"
	"fmt"
)

var (
	ErrAddressWidth     = errors.New("protocol: address exceeds 16-bit wire width")
	ErrEmptyPayload     = errors.New("protocol: stream payload is empty")
	ErrPayloadTooLarge  = errors.New("protocol: stream payload too large")
	ErrInvertedRange    = errors.New("protocol: range start is after range end")
	ErrUnknownKind      = errors.New("protocol: unknown frame kind")
	ErrUnpairedSentinel = errors.New("protocol: unpaired 0xFF in escaped data")
)

// ProtocolError describes a transaction the bridge did not acknowledge.
type ProtocolError struct {
	// Operation is the command that failed
	Operation string

	// Response is the byte received instead of Ack
	Response byte
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%s failed: %s (0x%02X)", e.Operation, ResponseName(e.Response), e.Response)
}

// IsProtocolError returns true if the error is a ProtocolError.
func IsProtocolError(err error) bool {
	var pe *ProtocolError
	return errors.As(err, &pe)
}

// ResponseName returns a human-readable name for a response byte.
func ResponseName(code byte) string {
	switch code {
	case Ack:
		return "ACK"
	case Nak:
		return "NAK"
	default:
		return fmt.Sprintf("unexpected response 0x%02X", code)
	}
}
