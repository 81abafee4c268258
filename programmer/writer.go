package programmer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/moffa90/go-eeprom/geometry"
	"github.com/moffa90/go-eeprom/image"
	"github.com/moffa90/go-eeprom/protocol"
)

// WritePages writes payload starting at addr as a sequence of stream
// writes, one per page touched. No stream crosses a page boundary.
//
// A page that is NAKed or not answered is recorded as a failed outcome and
// writing continues with the next page; callers must inspect every outcome.
// The returned outcomes are in address order and together cover the
// payload exactly.
//
// The context is checked before each page. On cancellation, or on a channel
// error, the outcomes recorded so far are returned with the error. A page
// already on the wire is finished first, but a channel error in the middle
// of a stream may leave the device waiting for more data; see Abort.
func (s *Session) WritePages(ctx context.Context, addr uint16, payload []byte) ([]WriteOutcome, error) {
	if err := s.requireConnected(); err != nil {
		return nil, err
	}

	chunks, err := s.geo.Split(uint32(addr), len(payload))
	if err != nil {
		if errors.Is(err, geometry.ErrEmptyPayload) {
			return nil, ErrEmptyPayload
		}
		return nil, fmt.Errorf("write pages: %w", err)
	}

	s.logDebug("writing pages",
		"addr", fmt.Sprintf("0x%04X", addr),
		"bytes", len(payload),
		"pages", len(chunks),
	)

	startTime := time.Now()
	outcomes := make([]WriteOutcome, 0, len(chunks))
	written := 0

	for i, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return outcomes, fmt.Errorf("write pages cancelled before 0x%04X: %w", chunk.Addr, err)
		}

		data := make([]byte, chunk.Len)
		copy(data, payload[chunk.Offset:chunk.Offset+chunk.Len])

		res, err := s.WriteByteStream(ctx, uint16(chunk.Addr), protocol.Escape(data))
		if err != nil {
			return outcomes, fmt.Errorf("page %d: %w", chunk.Page.Index, err)
		}

		outcomes = append(outcomes, WriteOutcome{
			StartAddr: uint16(chunk.Addr),
			Data:      data,
			Status:    res.Status,
			Response:  res.Response,
		})

		if res.Success() {
			s.countBytes("write", len(data))
		} else {
			s.logError("page not acknowledged",
				"page", chunk.Page.Index,
				"addr", fmt.Sprintf("0x%04X", chunk.Addr),
				"status", res.Status.String(),
			)
		}

		written += len(data)
		s.reportProgress(Progress{
			Phase:      PhaseWriting,
			Current:    i + 1,
			Total:      len(chunks),
			Percentage: float64(i+1) / float64(len(chunks)) * 100,
			Bytes:      written,
			Elapsed:    time.Since(startTime),
		})
	}

	return outcomes, nil
}

// WriteImage writes each segment of an image with WritePages and returns
// all outcomes in segment order.
func (s *Session) WriteImage(ctx context.Context, img *image.Image) ([]WriteOutcome, error) {
	if img == nil {
		return nil, fmt.Errorf("image cannot be nil")
	}
	if err := s.requireConnected(); err != nil {
		return nil, err
	}
	for _, seg := range img.Segments {
		if len(seg.Data) == 0 {
			continue
		}
		if err := s.geo.CheckRange(seg.Addr, seg.End()); err != nil {
			return nil, fmt.Errorf("segment at 0x%04X: %w", seg.Addr, err)
		}
	}

	var outcomes []WriteOutcome
	for _, seg := range img.Segments {
		if len(seg.Data) == 0 {
			continue
		}
		out, err := s.WritePages(ctx, uint16(seg.Addr), seg.Data)
		outcomes = append(outcomes, out...)
		if err != nil {
			return outcomes, fmt.Errorf("segment at 0x%04X: %w", seg.Addr, err)
		}
	}
	return outcomes, nil
}
