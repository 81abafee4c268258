package programmer

import (
	"context"
	"fmt"
	"time"

	"github.com/moffa90/go-eeprom/protocol"
)

// readProgressStep is how many bytes are read between progress reports.
const readProgressStep = 64

// ReadRange reads [start, end] back from the device.
//
// The safety gate is asked before anything is sent. If it declines, the
// result has Declined set and every byte in state ByteDeclined; this is not
// an error. Otherwise one Read Byte Stream frame is sent and exactly
// end-start+1 single-byte reads follow, in address order. A read that times
// out marks its address ByteMissing and reading continues.
//
// Address and connection problems fail before any I/O. A channel error or a
// cancelled context stops the read; the partial result is returned with the
// error and the remaining addresses are marked missing.
func (s *Session) ReadRange(ctx context.Context, start, end uint16) (*RangeResult, error) {
	if err := s.requireConnected(); err != nil {
		return nil, err
	}
	if err := s.geo.CheckRange(uint32(start), uint32(end)); err != nil {
		return nil, fmt.Errorf("read range: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("read range: %w", err)
	}

	count := int(end-start) + 1
	result := &RangeResult{Start: start, End: end, Bytes: make([]ByteResult, 0, count)}

	if !s.confirmed(start, end) {
		s.logInfo("read declined",
			"start", fmt.Sprintf("0x%04X", start),
			"end", fmt.Sprintf("0x%04X", end),
		)
		result.Declined = true
		for i := 0; i < count; i++ {
			result.Bytes = append(result.Bytes, ByteResult{Addr: start + uint16(i), State: ByteDeclined})
		}
		return result, nil
	}

	frame, err := protocol.BuildReadByteStreamCmd(uint32(start), uint32(end))
	if err != nil {
		return nil, fmt.Errorf("read range: %w", err)
	}

	startTime := time.Now()
	if err := s.send(ctx, frame); err != nil {
		return nil, fmt.Errorf("read range: %w", err)
	}

	missingRun := 0
	received := 0
	for i := 0; i < count; i++ {
		addr := start + uint16(i)

		if s.config.MissingLimit > 0 && missingRun >= s.config.MissingLimit {
			// Gave up on the line; the rest is missing without further reads
			result.Bytes = append(result.Bytes, ByteResult{Addr: addr, State: ByteMissing})
		} else {
			if err := ctx.Err(); err != nil {
				fillMissing(result, i, count)
				return result, fmt.Errorf("read range cancelled at 0x%04X: %w", addr, err)
			}

			b, ok, err := s.receive()
			if err != nil {
				fillMissing(result, i, count)
				return result, fmt.Errorf("read range at 0x%04X: %w", addr, err)
			}
			if !ok {
				missingRun++
				result.Bytes = append(result.Bytes, ByteResult{Addr: addr, State: ByteMissing})
			} else {
				missingRun = 0
				received++
				result.Bytes = append(result.Bytes, ByteResult{Addr: addr, Value: b, State: ByteOK})
			}
		}

		if (i+1)%readProgressStep == 0 || i+1 == count {
			s.reportProgress(Progress{
				Phase:      PhaseReading,
				Current:    i + 1,
				Total:      count,
				Percentage: float64(i+1) / float64(count) * 100,
				Bytes:      received,
				Elapsed:    time.Since(startTime),
			})
		}
	}

	status := "data"
	if received < count {
		status = "missing"
		s.logError("short read",
			"start", fmt.Sprintf("0x%04X", start),
			"end", fmt.Sprintf("0x%04X", end),
			"missing", count-received,
		)
	}
	s.observe(protocol.KindReadByteStream.String(), status, time.Since(startTime))
	s.countBytes("read", received)

	return result, nil
}

func fillMissing(result *RangeResult, from, count int) {
	for i := from; i < count; i++ {
		result.Bytes = append(result.Bytes, ByteResult{Addr: result.Start + uint16(i), State: ByteMissing})
	}
}
