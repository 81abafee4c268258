package protocol

// ProtocolVersion identifies the bridge command set implemented by this library.
const ProtocolVersion = "1.0"

// Command opcodes sent by the host as the first byte of a frame.
const (
	// CmdWriteByte writes one data byte at a 16-bit address
	CmdWriteByte = 0x01

	// CmdWriteStream writes an escaped byte stream to sequential addresses
	CmdWriteStream = 0x02

	// CmdReadByte reads one byte at a 16-bit address
	CmdReadByte = 0x03

	// CmdReadStream reads every byte in an inclusive address range
	CmdReadStream = 0x04

	// CmdCancel terminates a running stream write
	CmdCancel = 0xFF

	// CmdHandshake asks the bridge to acknowledge that it is ready
	CmdHandshake = 0xAA
)

// Response codes returned by the bridge.
const (
	// Ack signals a completed instruction
	Ack = 0x06

	// Nak signals an instruction the bridge did not understand or could not complete
	Nak = 0x15
)

// Frame sizing.
//
//	WriteByte:       [CMD][ADDR_H][ADDR_L][DATA]
//	WriteByteStream: [CMD][ADDR_H][ADDR_L][ESCAPED...][CANCEL][HANDSHAKE]
//	ReadByte:        [CMD][ADDR_H][ADDR_L]
//	ReadByteStream:  [CMD][START_H][START_L][END_H][END_L]
const (
	// AddressSize is the wire width of an address in bytes
	AddressSize = 2

	// MaxAddress is the largest address representable on the wire
	MaxAddress = 0xFFFF

	// HeaderSize is opcode plus one address
	HeaderSize = 1 + AddressSize

	// WriteByteFrameSize is the size of a WriteByte frame
	WriteByteFrameSize = HeaderSize + 1

	// ReadByteFrameSize is the size of a ReadByte frame
	ReadByteFrameSize = HeaderSize

	// ReadStreamFrameSize is opcode plus start and end addresses
	ReadStreamFrameSize = 1 + 2*AddressSize

	// StreamTrailerSize is the cancel sentinel plus the closing handshake
	StreamTrailerSize = 2

	// MaxStreamPayload bounds one escaped stream payload: a 64-byte page
	// made entirely of 0xFF doubles to 128 bytes.
	MaxStreamPayload = 128
)
