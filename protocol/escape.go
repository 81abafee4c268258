package protocol

// Escape doubles every 0xFF so that data bytes cannot be mistaken for the
// stream terminator. All other bytes pass through unchanged.
func Escape(payload []byte) []byte {
	result := make([]byte, 0, len(payload)+countSentinels(payload))
	for _, b := range payload {
		if b == CmdCancel {
			result = append(result, CmdCancel, CmdCancel)
			continue
		}
		result = append(result, b)
	}
	return result
}

// Unescape collapses every 0xFF pair back into one data byte.
// A single 0xFF left at the end cannot be data and yields ErrUnpairedSentinel.
func Unescape(escaped []byte) ([]byte, error) {
	result := make([]byte, 0, len(escaped))
	for i := 0; i < len(escaped); i++ {
		b := escaped[i]
		if b != CmdCancel {
			result = append(result, b)
			continue
		}
		if i+1 >= len(escaped) || escaped[i+1] != CmdCancel {
			return nil, ErrUnpairedSentinel
		}
		result = append(result, CmdCancel)
		i++
	}
	return result, nil
}

// EscapedLen returns len(Escape(payload)) without allocating.
func EscapedLen(payload []byte) int {
	return len(payload) + countSentinels(payload)
}

func countSentinels(payload []byte) int {
	n := 0
	for _, b := range payload {
		if b == CmdCancel {
			n++
		}
	}
	return n
}

// StreamDecoder is the receiving side of a stream write. It applies the
// look-ahead rule one byte at a time:
//   - 0xFF 0xFF is a single data byte 0xFF
//   - 0xFF followed by any other byte ends the stream, and that byte is the
//     next command (normally the closing Handshake)
//
// Pairs are consumed left to right, so an escaped payload ending in 0xFF 0xFF
// followed by the 0xFF 0xAA trailer decodes without ambiguity.
type StreamDecoder struct {
	pending bool
}

// Feed consumes one byte. When data is true, value is a payload byte. When
// done is true, the stream has ended and value is the byte that followed the
// terminator. Otherwise the byte was held for look-ahead.
func (d *StreamDecoder) Feed(b byte) (value byte, data bool, done bool) {
	if d.pending {
		d.pending = false
		if b == CmdCancel {
			return CmdCancel, true, false
		}
		return b, false, true
	}
	if b == CmdCancel {
		d.pending = true
		return 0, false, false
	}
	return b, true, false
}

// Pending reports whether a 0xFF is waiting for its look-ahead byte.
func (d *StreamDecoder) Pending() bool {
	return d.pending
}

// Reset discards any held sentinel.
func (d *StreamDecoder) Reset() {
	d.pending = false
}
