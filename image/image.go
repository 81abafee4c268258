package image

import (
	"errors"
	"fmt"
	"sort"
)

var (
	ErrEmptyImage = errors.New("image: no data")
	ErrBadRecord  = errors.New("image: malformed hex record")
	ErrChecksum   = errors.New("image: record checksum mismatch")
)

// Image is a set of addressed byte runs to be written to the device.
type Image struct {
	// Segments are sorted by address, non-overlapping, and never adjacent
	Segments []Segment
}

// Segment is a contiguous run of bytes starting at Addr.
type Segment struct {
	Addr uint32
	Data []byte
}

// End returns the last address covered by the segment.
func (s Segment) End() uint32 {
	return s.Addr + uint32(len(s.Data)) - 1
}

// OverlapError reports two pieces of an image that claim the same address.
type OverlapError struct {
	Addr uint32
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("image: overlapping data at 0x%04X", e.Addr)
}

// Size returns the total number of data bytes in the image.
func (img *Image) Size() int {
	n := 0
	for _, s := range img.Segments {
		n += len(s.Data)
	}
	return n
}

// Span returns the lowest and highest addresses in the image.
// It returns ErrEmptyImage when the image holds no data.
func (img *Image) Span() (lo, hi uint32, err error) {
	if len(img.Segments) == 0 {
		return 0, 0, ErrEmptyImage
	}
	return img.Segments[0].Addr, img.Segments[len(img.Segments)-1].End(), nil
}

// Merge sorts pieces by address, joins adjacent ones, and fails with an
// *OverlapError if any two share an address. Empty pieces are dropped.
func Merge(pieces []Segment) (*Image, error) {
	sorted := make([]Segment, 0, len(pieces))
	for _, p := range pieces {
		if len(p.Data) > 0 {
			sorted = append(sorted, p)
		}
	}
	if len(sorted) == 0 {
		return nil, ErrEmptyImage
	}
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Addr < sorted[j].Addr })

	img := &Image{Segments: make([]Segment, 0, len(sorted))}
	cur := Segment{Addr: sorted[0].Addr, Data: append([]byte(nil), sorted[0].Data...)}
	for _, p := range sorted[1:] {
		next := uint64(cur.Addr) + uint64(len(cur.Data))
		switch {
		case uint64(p.Addr) < next:
			return nil, &OverlapError{Addr: p.Addr}
		case uint64(p.Addr) == next:
			cur.Data = append(cur.Data, p.Data...)
		default:
			img.Segments = append(img.Segments, cur)
			cur = Segment{Addr: p.Addr, Data: append([]byte(nil), p.Data...)}
		}
	}
	img.Segments = append(img.Segments, cur)
	return img, nil
}

// FromBytes returns a single-segment image of data placed at base.
func FromBytes(base uint32, data []byte) (*Image, error) {
	return Merge([]Segment{{Addr: base, Data: data}})
}
