package protocol

import "fmt"

// Kind identifies one of the command frames understood by the bridge.
type Kind int

const (
	KindHandshake Kind = iota
	KindWriteByte
	KindWriteByteStream
	KindReadByte
	KindReadByteStream
	KindCancel
)

func (k Kind) String() string {
	switch k {
	case KindHandshake:
		return "handshake"
	case KindWriteByte:
		return "write byte"
	case KindWriteByteStream:
		return "write byte stream"
	case KindReadByte:
		return "read byte"
	case KindReadByteStream:
		return "read byte stream"
	case KindCancel:
		return "cancel"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Frame is a command before encoding. Only the fields used by Kind are read.
type Frame struct {
	Kind Kind

	// Addr is the target address, or the first address of a range read
	Addr uint32

	// End is the last address (inclusive) of a range read
	End uint32

	// Data is the byte written by a WriteByte frame
	Data byte

	// Payload is the already escaped stream of a WriteByteStream frame
	Payload []byte
}

// Status classifies the single byte a transaction waits for.
type Status int

const (
	// StatusAck means the bridge answered with Ack
	StatusAck Status = iota

	// StatusNak means the bridge answered with any byte other than Ack
	StatusNak

	// StatusNoResponse means nothing arrived before the read timeout
	StatusNoResponse
)

func (s Status) String() string {
	switch s {
	case StatusAck:
		return "ack"
	case StatusNak:
		return "nak"
	case StatusNoResponse:
		return "no response"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}
