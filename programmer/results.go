package programmer

import (
	"fmt"
	"time"

	"github.com/moffa90/go-eeprom/protocol"
)

// Result is the acknowledgement of a single write transaction.
type Result struct {
	Status protocol.Status

	// Response is the byte received; zero when Status is StatusNoResponse
	Response byte
}

// Success reports whether the transaction was acknowledged.
func (r Result) Success() bool {
	return r.Status == protocol.StatusAck
}

// WriteOutcome records one page-bounded stream write.
type WriteOutcome struct {
	StartAddr uint16

	// Data is the chunk as written, before escaping
	Data []byte

	Status   protocol.Status
	Response byte
}

// Success reports whether the page was acknowledged.
func (o WriteOutcome) Success() bool {
	return o.Status == protocol.StatusAck
}

// EndAddr returns the last address covered by the outcome.
func (o WriteOutcome) EndAddr() uint16 {
	return o.StartAddr + uint16(len(o.Data)) - 1
}

func (o WriteOutcome) String() string {
	return fmt.Sprintf("0x%04X-0x%04X %d bytes %s", o.StartAddr, o.EndAddr(), len(o.Data), o.Status)
}

// ByteState tells whether a read byte is real data.
type ByteState int

const (
	ByteOK ByteState = iota
	ByteMissing
	ByteDeclined
)

func (s ByteState) String() string {
	switch s {
	case ByteOK:
		return "ok"
	case ByteMissing:
		return "missing"
	case ByteDeclined:
		return "declined"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ByteResult is one address of a read. Value is only meaningful when State
// is ByteOK.
type ByteResult struct {
	Addr  uint16
	Value byte
	State ByteState
}

// RangeResult is the outcome of ReadRange. Bytes always holds one entry per
// address in [Start, End], in address order.
type RangeResult struct {
	Start    uint16
	End      uint16
	Declined bool
	Bytes    []ByteResult
}

// Data returns the values read. It fails with ErrDeclined if the gate
// declined, or a *ShortReadError if any byte is missing.
func (r *RangeResult) Data() ([]byte, error) {
	if r.Declined {
		return nil, ErrDeclined
	}
	if missing := r.Missing(); len(missing) > 0 {
		return nil, &ShortReadError{Start: r.Start, End: r.End, Missing: missing}
	}
	data := make([]byte, len(r.Bytes))
	for i, b := range r.Bytes {
		data[i] = b.Value
	}
	return data, nil
}

// Missing lists the addresses that timed out.
func (r *RangeResult) Missing() []uint16 {
	var missing []uint16
	for _, b := range r.Bytes {
		if b.State == ByteMissing {
			missing = append(missing, b.Addr)
		}
	}
	return missing
}

// Mismatch is one address whose read-back differs from the expected value.
type Mismatch struct {
	Addr    uint16
	Want    byte
	Got     byte
	Missing bool
}

// VerifyResult compares a span of the device with expected data.
type VerifyResult struct {
	Start      uint16
	Mismatches []Mismatch
	Read       *RangeResult
}

// OK reports whether every byte matched.
func (v *VerifyResult) OK() bool {
	return len(v.Mismatches) == 0
}

// Err returns a *VerificationError when any byte did not match.
func (v *VerifyResult) Err() error {
	if v.OK() {
		return nil
	}
	return &VerificationError{Mismatches: v.Mismatches}
}

// Report is the result of Program.
type Report struct {
	Outcomes []WriteOutcome

	// Verify is nil when read-back is disabled or the write was cut short
	Verify *VerifyResult

	Elapsed time.Duration
}

// Failed returns the outcomes that were not acknowledged.
func (r *Report) Failed() []WriteOutcome {
	var failed []WriteOutcome
	for _, o := range r.Outcomes {
		if !o.Success() {
			failed = append(failed, o)
		}
	}
	return failed
}

// BytesWritten returns the payload bytes covered by acknowledged pages.
func (r *Report) BytesWritten() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Success() {
			n += len(o.Data)
		}
	}
	return n
}

// Err folds the report into a single error: a *TransactionError when pages
// failed, otherwise the verification error if any.
func (r *Report) Err() error {
	if failed := r.Failed(); len(failed) > 0 {
		return &TransactionError{Failed: failed, Total: len(r.Outcomes)}
	}
	if r.Verify != nil {
		return r.Verify.Err()
	}
	return nil
}
