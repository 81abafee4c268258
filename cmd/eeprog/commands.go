package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/moffa90/go-eeprom/image"
	"github.com/moffa90/go-eeprom/programmer"
	"github.com/moffa90/go-eeprom/protocol"
)

// maxListedMismatches caps the mismatch lines printed by write and verify.
const maxListedMismatches = 16

func runHandshake(ctx context.Context, e *env, args []string) error {
	fs := e.newFlagSet()
	if err := e.parse(fs, args); err != nil {
		return err
	}
	s, err := e.session()
	if err != nil {
		return err
	}
	if err := s.Handshake(ctx); err != nil {
		return err
	}
	fmt.Fprintln(e.stdout, "bridge acknowledged handshake")
	return nil
}

func runWrite(ctx context.Context, e *env, args []string) error {
	fs := e.newFlagSet()
	var addr addrValue
	fs.Var(&addr, "addr", "load address for raw images (default 0x0000)")
	in := fs.String("in", "", "image file to write")
	format := fs.String("format", string(image.FormatAuto), "image format: raw, ihex or auto")
	verify := fs.Bool("verify", false, "read back and compare after writing (default from config)")
	if err := e.parse(fs, args); err != nil {
		return err
	}
	if *in == "" {
		return fmt.Errorf("%w: -in is required", errUsage)
	}
	if isSet(fs, "verify") {
		e.cfg.Verify = *verify
	}

	img, err := loadImage(*in, *format, addr.v)
	if err != nil {
		return err
	}
	e.log.Info().Str("file", *in).Int("bytes", img.Size()).Int("segments", len(img.Segments)).Msg("image loaded")

	s, err := e.session()
	if err != nil {
		return err
	}
	if err := s.Handshake(ctx); err != nil {
		return err
	}

	outcomes, err := s.WriteImage(ctx, img)
	if err != nil {
		e.abortIfCancelled(ctx, s)
		return err
	}
	if err := e.reportOutcomes(outcomes); err != nil {
		return err
	}
	if !e.cfg.Verify {
		return nil
	}

	for _, seg := range img.Segments {
		if len(seg.Data) == 0 {
			continue
		}
		result, err := s.Verify(ctx, uint16(seg.Addr), seg.Data)
		if err != nil {
			return err
		}
		if err := e.reportVerify(result); err != nil {
			return err
		}
	}
	fmt.Fprintln(e.stdout, "verified")
	return nil
}

func runRead(ctx context.Context, e *env, args []string) error {
	fs := e.newFlagSet()
	var start, end addrValue
	fs.Var(&start, "start", "first address")
	fs.Var(&end, "end", "last address, inclusive")
	out := fs.String("out", "", "write raw bytes to this file instead of a hex dump")
	if err := e.parse(fs, args); err != nil {
		return err
	}
	if !start.set || !end.set {
		return fmt.Errorf("%w: -start and -end are required", errUsage)
	}
	if end.v < start.v {
		return fmt.Errorf("%w: -end 0x%04X is before -start 0x%04X", errUsage, end.v, start.v)
	}

	s, err := e.session()
	if err != nil {
		return err
	}
	if err := s.Handshake(ctx); err != nil {
		return err
	}

	result, err := s.ReadRange(ctx, start.v, end.v)
	if err != nil {
		return err
	}
	data, err := result.Data()
	if err != nil {
		return err
	}

	if *out != "" {
		if err := os.WriteFile(*out, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", *out, err)
		}
		fmt.Fprintf(e.stdout, "wrote %d bytes to %s\n", len(data), *out)
		return nil
	}
	dump(e.stdout, start.v, data)
	return nil
}

func runWriteByte(ctx context.Context, e *env, args []string) error {
	fs := e.newFlagSet()
	var addr addrValue
	var value byteValue
	fs.Var(&addr, "addr", "address to write")
	fs.Var(&value, "value", "byte to write")
	if err := e.parse(fs, args); err != nil {
		return err
	}
	if !addr.set || !value.set {
		return fmt.Errorf("%w: -addr and -value are required", errUsage)
	}

	s, err := e.session()
	if err != nil {
		return err
	}
	if err := s.Handshake(ctx); err != nil {
		return err
	}
	result, err := s.WriteByte(ctx, addr.v, value.v)
	if err != nil {
		return err
	}
	if err := writeByteError(addr.v, value.v, result); err != nil {
		return err
	}
	fmt.Fprintf(e.stdout, "0x%04X <- 0x%02X\n", addr.v, value.v)
	return nil
}

// writeByteError turns an unacknowledged byte write into an error. A reply
// other than ACK is a *protocol.ProtocolError.
func writeByteError(addr uint16, value byte, result programmer.Result) error {
	switch result.Status {
	case protocol.StatusAck:
		return nil
	case protocol.StatusNoResponse:
		return fmt.Errorf("write 0x%02X at 0x%04X: %s", value, addr, result.Status)
	default:
		return &protocol.ProtocolError{
			Operation: fmt.Sprintf("write 0x%02X at 0x%04X", value, addr),
			Response:  result.Response,
		}
	}
}

func runVersion(ctx context.Context, e *env, args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("%w: unexpected argument %q", errUsage, args[0])
	}
	fmt.Fprintf(e.stdout, "eeprog, bridge protocol %s\n", protocol.ProtocolVersion)
	return nil
}

func runReadByte(ctx context.Context, e *env, args []string) error {
	fs := e.newFlagSet()
	var addr addrValue
	fs.Var(&addr, "addr", "address to read")
	if err := e.parse(fs, args); err != nil {
		return err
	}
	if !addr.set {
		return fmt.Errorf("%w: -addr is required", errUsage)
	}

	s, err := e.session()
	if err != nil {
		return err
	}
	if err := s.Handshake(ctx); err != nil {
		return err
	}
	b, err := s.ReadByte(ctx, addr.v)
	if err != nil {
		return err
	}
	switch b.State {
	case programmer.ByteDeclined:
		return programmer.ErrDeclined
	case programmer.ByteMissing:
		return fmt.Errorf("read 0x%04X: no response", addr.v)
	}
	fmt.Fprintf(e.stdout, "0x%04X: 0x%02X\n", b.Addr, b.Value)
	return nil
}

func runVerify(ctx context.Context, e *env, args []string) error {
	fs := e.newFlagSet()
	var addr addrValue
	fs.Var(&addr, "addr", "load address for raw images (default 0x0000)")
	in := fs.String("in", "", "image file to compare against")
	format := fs.String("format", string(image.FormatAuto), "image format: raw, ihex or auto")
	if err := e.parse(fs, args); err != nil {
		return err
	}
	if *in == "" {
		return fmt.Errorf("%w: -in is required", errUsage)
	}

	img, err := loadImage(*in, *format, addr.v)
	if err != nil {
		return err
	}

	s, err := e.session()
	if err != nil {
		return err
	}
	for _, seg := range img.Segments {
		if err := s.Geometry().CheckRange(seg.Addr, seg.End()); err != nil {
			return fmt.Errorf("segment at 0x%04X: %w", seg.Addr, err)
		}
	}
	if err := s.Handshake(ctx); err != nil {
		return err
	}

	var failed error
	for _, seg := range img.Segments {
		if len(seg.Data) == 0 {
			continue
		}
		result, err := s.Verify(ctx, uint16(seg.Addr), seg.Data)
		if err != nil {
			return err
		}
		if err := e.reportVerify(result); err != nil && failed == nil {
			failed = err
		}
	}
	if failed != nil {
		return failed
	}
	fmt.Fprintln(e.stdout, "verified")
	return nil
}

func runFill(ctx context.Context, e *env, args []string) error {
	fs := e.newFlagSet()
	var start, end addrValue
	value := byteValue{v: 0xFF, set: true}
	fs.Var(&start, "start", "first address")
	fs.Var(&end, "end", "last address, inclusive")
	fs.Var(&value, "value", "fill byte (default 0xFF)")
	if err := e.parse(fs, args); err != nil {
		return err
	}
	if !start.set || !end.set {
		return fmt.Errorf("%w: -start and -end are required", errUsage)
	}
	if end.v < start.v {
		return fmt.Errorf("%w: -end 0x%04X is before -start 0x%04X", errUsage, end.v, start.v)
	}

	s, err := e.session()
	if err != nil {
		return err
	}

	data := bytes.Repeat([]byte{value.v}, int(end.v-start.v)+1)
	report, err := s.Program(ctx, start.v, data)
	if err != nil {
		e.abortIfCancelled(ctx, s)
		return err
	}
	if err := e.reportOutcomes(report.Outcomes); err != nil {
		return err
	}
	if report.Verify != nil {
		if err := e.reportVerify(report.Verify); err != nil {
			return err
		}
		fmt.Fprintln(e.stdout, "verified")
	}
	return nil
}

func loadImage(path, format string, base uint16) (*image.Image, error) {
	f, err := image.ParseFormat(format)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errUsage, err)
	}
	img, err := image.Parse(path, f, uint32(base))
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return img, nil
}

func isSet(fs *flag.FlagSet, name string) bool {
	set := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

// reportOutcomes prints a write summary and fails when any page failed.
func (e *env) reportOutcomes(outcomes []programmer.WriteOutcome) error {
	written, failed := 0, 0
	for _, o := range outcomes {
		if o.Success() {
			written += len(o.Data)
			continue
		}
		failed++
		e.log.Warn().Str("page", o.String()).Msg("page not acknowledged")
	}
	fmt.Fprintf(e.stdout, "wrote %d bytes in %d pages", written, len(outcomes))
	if failed > 0 {
		fmt.Fprintf(e.stdout, ", %d failed", failed)
	}
	fmt.Fprintln(e.stdout)

	if failed > 0 {
		report := &programmer.Report{Outcomes: outcomes}
		return report.Err()
	}
	return nil
}

// reportVerify prints mismatches and returns the verification error.
func (e *env) reportVerify(v *programmer.VerifyResult) error {
	for i, m := range v.Mismatches {
		if i == maxListedMismatches {
			fmt.Fprintf(e.stdout, "... %d more\n", len(v.Mismatches)-i)
			break
		}
		if m.Missing {
			fmt.Fprintf(e.stdout, "0x%04X: want 0x%02X, no response\n", m.Addr, m.Want)
			continue
		}
		fmt.Fprintf(e.stdout, "0x%04X: want 0x%02X, got 0x%02X\n", m.Addr, m.Want, m.Got)
	}
	return v.Err()
}

// abortIfCancelled resets the bridge after a job was interrupted mid-stream.
func (e *env) abortIfCancelled(ctx context.Context, s *programmer.Session) {
	if !errors.Is(ctx.Err(), context.Canceled) || s.State() != programmer.StateConnected {
		return
	}
	result, err := s.Abort(context.Background())
	if err != nil {
		e.log.Warn().Err(err).Msg("abort failed")
		return
	}
	e.log.Info().Str("status", result.Status.String()).Msg("bridge aborted")
}

// dump writes data as 16-byte hex lines labelled with device addresses.
func dump(w io.Writer, start uint16, data []byte) {
	var line strings.Builder
	for off := 0; off < len(data); off += 16 {
		line.Reset()
		fmt.Fprintf(&line, "%04X:", int(start)+off)
		end := off + 16
		if end > len(data) {
			end = len(data)
		}
		for _, b := range data[off:end] {
			fmt.Fprintf(&line, " %02X", b)
		}
		fmt.Fprintln(w, line.String())
	}
}
