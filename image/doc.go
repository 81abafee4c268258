// Package image loads the data to be programmed into an EEPROM.
//
// # Formats
//
// Two file formats are supported:
//
//	raw   - a plain binary, placed at a caller-chosen base address
//	ihex  - Intel HEX, addresses taken from the records
//
// Intel HEX lines look like:
//
//	:LLAAAATT[DD...]CC
//
//	LL   - number of data bytes
//	AAAA - 16-bit big-endian offset
//	TT   - record type (00 data, 01 EOF, 04 extended linear, 05 start linear)
//	CC   - two's complement of the sum of all preceding bytes
//
// # Usage
//
//	img, err := image.Parse("rom.hex", image.FormatAuto, 0)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, seg := range img.Segments {
//	    fmt.Printf("0x%04X: %d bytes\n", seg.Addr, len(seg.Data))
//	}
//
// Pieces are sorted and adjacent ones joined, so an image read from a HEX
// file with 16-byte records becomes one segment per contiguous run.
// Overlapping data is rejected. Intel HEX is decoded with
// github.com/marcinbor85/gohex.
package image
