package programmer

import (
	"context"
	"fmt"
	"time"

	"github.com/moffa90/go-eeprom/protocol"
)

// WriteByte writes one byte and waits for its acknowledgement.
// A NAK or timeout is reported in the Result, not as an error.
func (s *Session) WriteByte(ctx context.Context, addr uint16, data byte) (Result, error) {
	if err := s.requireConnected(); err != nil {
		return Result{}, err
	}
	if err := s.geo.CheckAddr(uint32(addr)); err != nil {
		return Result{}, fmt.Errorf("write byte: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return Result{}, fmt.Errorf("write byte: %w", err)
	}

	frame, err := protocol.BuildWriteByteCmd(uint32(addr), data)
	if err != nil {
		return Result{}, fmt.Errorf("write byte: %w", err)
	}

	res, err := s.transact(ctx, protocol.KindWriteByte, frame)
	if err != nil {
		return Result{}, fmt.Errorf("write byte at 0x%04X: %w", addr, err)
	}
	if res.Success() {
		s.countBytes("write", 1)
	}
	return res, nil
}

// WriteByteStream sends an already escaped payload as one stream write,
// closes it with 0xFF 0xAA and waits for one acknowledgement.
//
// The bridge writes the stream as a single page operation, so the unescaped
// data must not cross a page boundary. WritePages takes care of that.
func (s *Session) WriteByteStream(ctx context.Context, addr uint16, escaped []byte) (Result, error) {
	if err := s.requireConnected(); err != nil {
		return Result{}, err
	}
	if err := s.geo.CheckAddr(uint32(addr)); err != nil {
		return Result{}, fmt.Errorf("write stream: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return Result{}, fmt.Errorf("write stream: %w", err)
	}

	frame, err := protocol.BuildWriteByteStreamCmd(uint32(addr), escaped)
	if err != nil {
		return Result{}, fmt.Errorf("write stream: %w", err)
	}

	res, err := s.transact(ctx, protocol.KindWriteByteStream, frame)
	if err != nil {
		return Result{}, fmt.Errorf("write stream at 0x%04X: %w", addr, err)
	}
	return res, nil
}

// ReadByte reads one address. The safety gate is asked first; a declined
// read returns a ByteResult in state ByteDeclined without touching the wire.
func (s *Session) ReadByte(ctx context.Context, addr uint16) (ByteResult, error) {
	if err := s.requireConnected(); err != nil {
		return ByteResult{}, err
	}
	if err := s.geo.CheckAddr(uint32(addr)); err != nil {
		return ByteResult{}, fmt.Errorf("read byte: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return ByteResult{}, fmt.Errorf("read byte: %w", err)
	}

	if !s.confirmed(addr, addr) {
		s.logInfo("read declined", "addr", fmt.Sprintf("0x%04X", addr))
		return ByteResult{Addr: addr, State: ByteDeclined}, nil
	}

	frame, err := protocol.BuildReadByteCmd(uint32(addr))
	if err != nil {
		return ByteResult{}, fmt.Errorf("read byte: %w", err)
	}

	start := time.Now()
	if err := s.send(ctx, frame); err != nil {
		return ByteResult{}, fmt.Errorf("read byte at 0x%04X: %w", addr, err)
	}
	b, ok, err := s.receive()
	if err != nil {
		return ByteResult{}, fmt.Errorf("read byte at 0x%04X: %w", addr, err)
	}

	if !ok {
		s.observe(protocol.KindReadByte.String(), "missing", time.Since(start))
		return ByteResult{Addr: addr, State: ByteMissing}, nil
	}
	s.observe(protocol.KindReadByte.String(), "data", time.Since(start))
	s.countBytes("read", 1)
	return ByteResult{Addr: addr, Value: b, State: ByteOK}, nil
}
