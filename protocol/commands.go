package protocol

import (
	"encoding/binary"
	"fmt"
)

// BuildHandshakeCmd constructs a Handshake frame.
//
// Frame structure:
//
//	[0xAA]
func BuildHandshakeCmd() ([]byte, error) {
	return []byte{CmdHandshake}, nil
}

// BuildCancelCmd constructs a Cancel frame, the out-of-band stream terminator.
//
// Frame structure:
//
//	[0xFF]
func BuildCancelCmd() ([]byte, error) {
	return []byte{CmdCancel}, nil
}

// BuildWriteByteCmd constructs a Write Byte frame.
//
// Frame structure:
//
//	[0x01][ADDR_H][ADDR_L][DATA]
func BuildWriteByteCmd(addr uint32, data byte) ([]byte, error) {
	frame := make([]byte, 0, WriteByteFrameSize)
	frame, err := appendHeader(frame, CmdWriteByte, addr)
	if err != nil {
		return nil, err
	}
	return append(frame, data), nil
}

// BuildWriteStreamHeader constructs the opcode and address that open a stream write.
// The escaped payload and the trailer follow it on the wire.
//
// Frame structure:
//
//	[0x02][ADDR_H][ADDR_L]
func BuildWriteStreamHeader(addr uint32) ([]byte, error) {
	return appendHeader(make([]byte, 0, HeaderSize), CmdWriteStream, addr)
}

// BuildWriteByteStreamCmd constructs a complete Write Byte Stream frame.
// The payload must already be escaped (see Escape).
//
// Frame structure:
//
//	[0x02][ADDR_H][ADDR_L][ESCAPED...][0xFF][0xAA]
func BuildWriteByteStreamCmd(addr uint32, escaped []byte) ([]byte, error) {
	if len(escaped) == 0 {
		return nil, ErrEmptyPayload
	}
	if len(escaped) > MaxStreamPayload {
		return nil, fmt.Errorf("%w: %d bytes exceeds maximum %d", ErrPayloadTooLarge, len(escaped), MaxStreamPayload)
	}

	frame := make([]byte, 0, HeaderSize+len(escaped)+StreamTrailerSize)
	frame, err := appendHeader(frame, CmdWriteStream, addr)
	if err != nil {
		return nil, err
	}
	frame = append(frame, escaped...)
	return append(frame, CmdCancel, CmdHandshake), nil
}

// BuildReadByteCmd constructs a Read Byte frame.
//
// Frame structure:
//
//	[0x03][ADDR_H][ADDR_L]
func BuildReadByteCmd(addr uint32) ([]byte, error) {
	return appendHeader(make([]byte, 0, ReadByteFrameSize), CmdReadByte, addr)
}

// BuildReadByteStreamCmd constructs a Read Byte Stream frame covering start..end inclusive.
// The bridge answers with end-start+1 raw bytes.
//
// Frame structure:
//
//	[0x04][START_H][START_L][END_H][END_L]
func BuildReadByteStreamCmd(start, end uint32) ([]byte, error) {
	if start > end {
		return nil, fmt.Errorf("%w: 0x%04X > 0x%04X", ErrInvertedRange, start, end)
	}
	frame, err := appendHeader(make([]byte, 0, ReadStreamFrameSize), CmdReadStream, start)
	if err != nil {
		return nil, err
	}
	return appendAddress(frame, end)
}

// Encode serializes any Frame by dispatching to the matching Build function.
func Encode(f Frame) ([]byte, error) {
	switch f.Kind {
	case KindHandshake:
		return BuildHandshakeCmd()
	case KindWriteByte:
		return BuildWriteByteCmd(f.Addr, f.Data)
	case KindWriteByteStream:
		return BuildWriteByteStreamCmd(f.Addr, f.Payload)
	case KindReadByte:
		return BuildReadByteCmd(f.Addr)
	case KindReadByteStream:
		return BuildReadByteStreamCmd(f.Addr, f.End)
	case KindCancel:
		return BuildCancelCmd()
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, int(f.Kind))
	}
}

// DecodeAddress reads a big-endian wire address.
func DecodeAddress(hi, lo byte) uint16 {
	return binary.BigEndian.Uint16([]byte{hi, lo})
}

func appendHeader(frame []byte, cmd byte, addr uint32) ([]byte, error) {
	frame = append(frame, cmd)
	return appendAddress(frame, addr)
}

func appendAddress(frame []byte, addr uint32) ([]byte, error) {
	if addr > MaxAddress {
		return nil, fmt.Errorf("%w: 0x%X", ErrAddressWidth, addr)
	}
	return binary.BigEndian.AppendUint16(frame, uint16(addr)), nil
}
