// Package programmer drives a serial EEPROM programmer bridge: handshake,
// single-byte transactions, page-bounded stream writes and range reads.
//
// # Basic Usage
//
//	port, err := link.Open(link.Config{Port: "/dev/ttyACM0", BaudRate: 115200, Timeout: time.Second})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer port.Close()
//
//	s := programmer.New(port)
//	if err := s.Handshake(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
//	outcomes, err := s.WritePages(ctx, 0x0FE6, data)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, o := range outcomes {
//	    if !o.Success() {
//	        log.Printf("page at 0x%04X failed: %s", o.StartAddr, o.Status)
//	    }
//	}
//
// Program wraps handshake, WritePages and Verify in one call and returns a
// Report.
//
// # Partial Success
//
// A page that is NAKed or times out does not stop WritePages. Each page gets
// a WriteOutcome and the caller decides what to retry. The same goes for
// reads: a byte that does not arrive is marked ByteMissing in the
// RangeResult rather than failing the whole read.
//
// Errors are returned only when no useful work can be done:
//   - ErrNotConnected: no successful handshake yet
//   - *ConnectionError: the handshake was not acknowledged
//   - geometry.ErrOutOfRange: an address is not on the device
//   - channel I/O errors and context cancellation, with the work done so far
//
// # Safety Gate
//
// Reading requires the programmer's supply to be set correctly. Install a
// ConfirmFunc and it is asked before every read command:
//
//	s := programmer.New(port, programmer.WithConfirm(func(start, end uint16) bool {
//	    return askUser("is the supply at 5V?")
//	}))
//
// A declined read sends nothing and returns a result with Declined set.
//
// # Context Support
//
// The context is checked between transactions. A page already on the wire
// is finished (or times out) before cancellation is seen. If a job is cut
// short in the middle of a stream, Abort puts the bridge back in a known
// state.
//
// # Hardware Independence
//
// Any io.ReadWriter works as the channel, including devicesim.Device for
// tests. Read must return within the link's timeout; (0, nil), io.EOF and
// timeout errors all mean "no byte".
package programmer
