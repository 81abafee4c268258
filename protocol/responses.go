package protocol

// IsAck reports whether a response byte acknowledges a transaction.
func IsAck(b byte) bool {
	return b == Ack
}

// ParseAck classifies the bytes read after a transaction.
// An empty read is a timeout; otherwise only the first byte counts.
func ParseAck(resp []byte) Status {
	if len(resp) == 0 {
		return StatusNoResponse
	}
	if IsAck(resp[0]) {
		return StatusAck
	}
	return StatusNak
}
