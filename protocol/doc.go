// Package protocol implements the byte-level command set of the serial EEPROM
// programmer bridge.
//
// # Protocol Overview
//
// Every transaction starts with a one-byte opcode. Addresses are 16-bit
// big-endian. There is no length field and no checksum: the bridge knows the
// size of every frame from its opcode, except for stream writes, which end
// with an out-of-band sentinel.
//
//	Handshake:       [0xAA]                                   -> [ACK]
//	WriteByte:       [0x01][ADDR_H][ADDR_L][DATA]             -> [ACK]
//	WriteByteStream: [0x02][ADDR_H][ADDR_L][ESCAPED...][0xFF][0xAA] -> [ACK]
//	ReadByte:        [0x03][ADDR_H][ADDR_L]                   -> [DATA]
//	ReadByteStream:  [0x04][START_H][START_L][END_H][END_L]   -> [DATA x (END-START+1)]
//
// ACK is 0x06. Anything else, usually NAK (0x15), is a failure.
//
// # Escaping
//
// Inside a stream write 0xFF is both a legal data value and the terminator.
// Escape doubles each data 0xFF; the receiver uses StreamDecoder, which reads
// 0xFF 0xFF as one data byte and 0xFF followed by anything else as the end of
// the stream.
//
//	escaped := protocol.Escape(chunk)
//	frame, err := protocol.BuildWriteByteStreamCmd(addr, escaped)
//
// Read responses are not escaped: the host already knows how many bytes to
// expect.
//
// # Command Builders
//
// Use the Build* functions, or Encode with a Frame value:
//
//	frame, err := protocol.Encode(protocol.Frame{Kind: protocol.KindReadByte, Addr: 0x0FE6})
//
// Builders fail with ErrAddressWidth when an address does not fit in 16 bits
// and with ErrPayloadTooLarge when a stream payload exceeds MaxStreamPayload.
package protocol
