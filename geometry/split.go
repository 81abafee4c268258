package geometry

// Chunk is the part of a write that lands in one page.
type Chunk struct {
	Page Page

	// Addr is the first device address written by this chunk
	Addr uint32

	// Offset and Len select the chunk's bytes from the payload
	Offset int
	Len    int
}

// End returns the last address written by the chunk.
func (c Chunk) End() uint32 {
	return c.Addr + uint32(c.Len) - 1
}

// Split plans a write of n bytes starting at start. Each chunk stays inside
// one page; chunks are in address order and together cover exactly n bytes.
//
// The first chunk runs from start to the end of its page. Every following
// chunk begins on a page boundary. The last one carries whatever is left.
func (g Geometry) Split(start uint32, n int) ([]Chunk, error) {
	if n <= 0 {
		return nil, ErrEmptyPayload
	}
	last := uint64(start) + uint64(n) - 1
	if last >= uint64(g.addressSpace) {
		if err := g.CheckAddr(start); err != nil {
			return nil, err
		}
		return nil, &AddressError{Addr: uint32(last), Limit: g.addressSpace}
	}

	first, err := g.PageOf(start)
	if err != nil {
		return nil, err
	}
	final, err := g.PageOf(uint32(last))
	if err != nil {
		return nil, err
	}

	chunks := make([]Chunk, 0, final.Index-first.Index+1)
	cursor := start
	offset := 0
	for index := first.Index; index <= final.Index; index++ {
		page := Page{
			Index:     index,
			StartAddr: index * g.pageSize,
			EndAddr:   index*g.pageSize + g.pageSize - 1,
		}
		size := int(page.EndAddr - cursor + 1)
		if remaining := n - offset; remaining < size {
			size = remaining
		}
		chunks = append(chunks, Chunk{Page: page, Addr: cursor, Offset: offset, Len: size})
		cursor += uint32(size)
		offset += size
	}
	return chunks, nil
}
