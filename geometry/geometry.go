// Package geometry does the address arithmetic for a page-organised EEPROM:
// which page an address falls in, and how a write splits into page-bounded
// chunks.
package geometry

import (
	"errors"
	"fmt"
)

const (
	// DefaultPageSize is the page size of a 28C256-class device
	DefaultPageSize = 64

	// DefaultAddressSpace is the capacity of a 28C256-class device (15-bit addressing)
	DefaultAddressSpace = 32768

	// maxAddressSpace is the most a 16-bit wire address can reach
	maxAddressSpace = 1 << 16
)

var (
	ErrOutOfRange    = errors.New("geometry: address out of range")
	ErrEmptyPayload  = errors.New("geometry: empty payload")
	ErrBadPageSize   = errors.New("geometry: page size must be positive and divide the address space")
	ErrAddressSpace  = errors.New("geometry: address space must be between one page and 65536 bytes")
	ErrInvertedRange = errors.New("geometry: range start is after range end")
)

// AddressError reports an address outside the device.
type AddressError struct {
	Addr  uint32
	Limit uint32
}

func (e *AddressError) Error() string {
	return fmt.Sprintf("address 0x%04X outside [0x0000, 0x%04X]", e.Addr, e.Limit-1)
}

func (e *AddressError) Unwrap() error {
	return ErrOutOfRange
}

// Geometry describes page size and capacity. The zero value has no pages
// and rejects every address; use Default or New.
type Geometry struct {
	pageSize     uint32
	addressSpace uint32
}

// Page describes one aligned page.
type Page struct {
	Index     uint32
	StartAddr uint32
	EndAddr   uint32
}

// Contains reports whether addr lies within the page.
func (p Page) Contains(addr uint32) bool {
	return addr >= p.StartAddr && addr <= p.EndAddr
}

// Default returns the fixed 64-byte page, 32 KiB geometry.
func Default() Geometry {
	return Geometry{pageSize: DefaultPageSize, addressSpace: DefaultAddressSpace}
}

// New validates and returns a geometry.
func New(pageSize uint16, addressSpace uint32) (Geometry, error) {
	if pageSize == 0 {
		return Geometry{}, ErrBadPageSize
	}
	if addressSpace < uint32(pageSize) || addressSpace > maxAddressSpace {
		return Geometry{}, fmt.Errorf("%w: got %d", ErrAddressSpace, addressSpace)
	}
	if addressSpace%uint32(pageSize) != 0 {
		return Geometry{}, fmt.Errorf("%w: %d %% %d != 0", ErrBadPageSize, addressSpace, pageSize)
	}
	return Geometry{pageSize: uint32(pageSize), addressSpace: addressSpace}, nil
}

// MustNew is like New but panics on an invalid geometry.
func MustNew(pageSize uint16, addressSpace uint32) Geometry {
	g, err := New(pageSize, addressSpace)
	if err != nil {
		panic(err)
	}
	return g
}

func (g Geometry) PageSize() uint32     { return g.pageSize }
func (g Geometry) AddressSpace() uint32 { return g.addressSpace }

// PageCount returns the number of pages on the device. The zero Geometry
// has no pages.
func (g Geometry) PageCount() uint32 {
	if g.pageSize == 0 {
		return 0
	}
	return g.addressSpace / g.pageSize
}

// PageOf returns the page containing addr.
func (g Geometry) PageOf(addr uint32) (Page, error) {
	if err := g.CheckAddr(addr); err != nil {
		return Page{}, err
	}
	index := addr / g.pageSize
	start := index * g.pageSize
	return Page{Index: index, StartAddr: start, EndAddr: start + g.pageSize - 1}, nil
}

// CheckAddr returns an *AddressError if addr is not on the device.
func (g Geometry) CheckAddr(addr uint32) error {
	if addr >= g.addressSpace {
		return &AddressError{Addr: addr, Limit: g.addressSpace}
	}
	return nil
}

// CheckRange validates the inclusive range [start, end].
func (g Geometry) CheckRange(start, end uint32) error {
	if err := g.CheckAddr(start); err != nil {
		return err
	}
	if err := g.CheckAddr(end); err != nil {
		return err
	}
	if start > end {
		return fmt.Errorf("%w: 0x%04X > 0x%04X", ErrInvertedRange, start, end)
	}
	return nil
}
