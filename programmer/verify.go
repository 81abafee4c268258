package programmer

import (
	"context"
	"fmt"
	"time"
)

// Verify reads back len(expected) bytes at addr and compares them.
// Missing bytes count as mismatches. A declined read returns ErrDeclined.
func (s *Session) Verify(ctx context.Context, addr uint16, expected []byte) (*VerifyResult, error) {
	if len(expected) == 0 {
		return nil, ErrEmptyPayload
	}
	last := uint32(addr) + uint32(len(expected)) - 1
	if err := s.requireConnected(); err != nil {
		return nil, err
	}
	if err := s.geo.CheckRange(uint32(addr), last); err != nil {
		return nil, fmt.Errorf("verify: %w", err)
	}

	read, err := s.ReadRange(ctx, addr, uint16(last))
	if err != nil {
		return nil, fmt.Errorf("verify: %w", err)
	}
	if read.Declined {
		return nil, fmt.Errorf("verify: %w", ErrDeclined)
	}

	result := &VerifyResult{Start: addr, Read: read}
	for i, b := range read.Bytes {
		switch {
		case b.State != ByteOK:
			result.Mismatches = append(result.Mismatches, Mismatch{Addr: b.Addr, Want: expected[i], Missing: true})
		case b.Value != expected[i]:
			result.Mismatches = append(result.Mismatches, Mismatch{Addr: b.Addr, Want: expected[i], Got: b.Value})
		}
	}

	if !result.OK() {
		s.logError("verification failed",
			"addr", fmt.Sprintf("0x%04X", addr),
			"mismatches", len(result.Mismatches),
		)
	}
	return result, nil
}

// Program performs a complete write job:
//  1. Handshake, unless already connected
//  2. Write the payload page by page
//  3. Read it back and compare, if enabled and every page was acknowledged
//
// The returned Report is non-nil whenever any page was attempted. Failed
// pages do not make Program return an error; use Report.Err.
//
// Example:
//
//	report, err := s.Program(ctx, 0x0000, rom)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := report.Err(); err != nil {
//	    log.Printf("write incomplete: %v", err)
//	}
func (s *Session) Program(ctx context.Context, addr uint16, data []byte) (*Report, error) {
	startTime := time.Now()

	if s.state != StateConnected {
		s.reportProgress(Progress{Phase: PhaseHandshake})
		if err := s.Handshake(ctx); err != nil {
			return nil, err
		}
	}

	outcomes, err := s.WritePages(ctx, addr, data)
	report := &Report{Outcomes: outcomes}
	if err != nil {
		report.Elapsed = time.Since(startTime)
		if len(outcomes) == 0 {
			return nil, err
		}
		return report, err
	}

	if s.config.VerifyAfterWrite && len(report.Failed()) == 0 {
		s.reportProgress(Progress{
			Phase:   PhaseVerifying,
			Total:   len(data),
			Elapsed: time.Since(startTime),
		})
		verify, err := s.Verify(ctx, addr, data)
		if err != nil {
			report.Elapsed = time.Since(startTime)
			return report, err
		}
		report.Verify = verify
	}

	report.Elapsed = time.Since(startTime)
	s.reportProgress(Progress{
		Phase:      PhaseComplete,
		Current:    len(outcomes),
		Total:      len(outcomes),
		Percentage: 100,
		Bytes:      report.BytesWritten(),
		Elapsed:    report.Elapsed,
	})

	s.logInfo("programming complete",
		"pages", len(outcomes),
		"failed", len(report.Failed()),
		"bytes", report.BytesWritten(),
		"elapsed", report.Elapsed.String(),
	)
	return report, nil
}
