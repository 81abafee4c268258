package image

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/marcinbor85/gohex"
)

// Format selects how an image file is decoded.
type Format string

const (
	FormatAuto Format = "auto"
	FormatRaw  Format = "raw"
	FormatHex  Format = "ihex"
)

const maxRawImageSize = 1 << 16

// ParseFormat maps a flag or config value to a Format. The empty string is
// FormatAuto.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return FormatAuto, nil
	case "raw", "bin":
		return FormatRaw, nil
	case "ihex", "hex":
		return FormatHex, nil
	default:
		return "", fmt.Errorf("image: unknown format %q (want raw, ihex or auto)", s)
	}
}

// Parse loads an image file. For FormatAuto the extension decides: .hex,
// .ihex and .ihx are Intel HEX, anything else is raw binary. base is the
// load address of a raw image and is ignored for Intel HEX.
//
// Example:
//
//	img, err := image.Parse("rom.hex", image.FormatAuto, 0)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("%d bytes in %d segments\n", img.Size(), len(img.Segments))
func Parse(path string, format Format, base uint32) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if format == FormatAuto {
		format = detectFormat(path)
	}
	if format == FormatHex {
		return ParseHex(f)
	}
	return ParseRaw(f, base)
}

func detectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".hex", ".ihex", ".ihx":
		return FormatHex
	default:
		return FormatRaw
	}
}

// ParseRaw reads a binary image and places it at base.
func ParseRaw(r io.Reader, base uint32) (*Image, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxRawImageSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	if len(data) > maxRawImageSize {
		return nil, fmt.Errorf("image: raw image larger than %d bytes", maxRawImageSize)
	}
	return FromBytes(base, data)
}

// ParseHex decodes Intel HEX from any io.Reader.
//
// Supported record types are 00 (data), 01 (end of file), 04 (extended
// linear address) and 05 (start linear address, ignored). Every record
// checksum is verified. Checksum failures wrap ErrChecksum and every other
// malformed record wraps ErrBadRecord.
func ParseHex(r io.Reader) (*Image, error) {
	mem := gohex.NewMemory()
	if err := mem.ParseIntelHex(r); err != nil {
		var pe *gohex.ParseError
		if !errors.As(err, &pe) {
			return nil, fmt.Errorf("failed to read file: %w", err)
		}
		kind := ErrBadRecord
		if pe.ErrorType == gohex.CHECKSUM_ERROR {
			kind = ErrChecksum
		}
		return nil, fmt.Errorf("line %d: %w: %s", pe.LineNum, kind, pe.Message)
	}

	segments := mem.GetDataSegments()
	pieces := make([]Segment, 0, len(segments))
	for _, seg := range segments {
		pieces = append(pieces, Segment{Addr: seg.Address, Data: seg.Data})
	}
	return Merge(pieces)
}
