package programmer

import (
	"bytes"
	"time"

	"github.com/moffa90/go-eeprom/protocol"
)

// MockChannel is a scripted byte channel. Each Read returns the next
// queued reply byte, or (0, nil) once the queue is empty.
type MockChannel struct {
	written  bytes.Buffer
	replies  []byte
	readErr  error
	writeErr error
	reads    int
}

func NewMockChannel(replies ...byte) *MockChannel {
	return &MockChannel{replies: replies}
}

func (m *MockChannel) Read(p []byte) (int, error) {
	m.reads++
	if m.readErr != nil {
		return 0, m.readErr
	}
	if len(m.replies) == 0 || len(p) == 0 {
		return 0, nil
	}
	p[0] = m.replies[0]
	m.replies = m.replies[1:]
	return 1, nil
}

func (m *MockChannel) Write(p []byte) (int, error) {
	if m.writeErr != nil {
		return 0, m.writeErr
	}
	return m.written.Write(p)
}

func (m *MockChannel) Queue(replies ...byte) {
	m.replies = append(m.replies, replies...)
}

func (m *MockChannel) SetReadError(err error) {
	m.readErr = err
}

func (m *MockChannel) SetWriteError(err error) {
	m.writeErr = err
}

// FirmwareChannel answers the way the bridge firmware does while idle:
// ACK for a Handshake byte and NAK for any other instruction byte.
type FirmwareChannel struct {
	MockChannel
}

func (f *FirmwareChannel) Write(p []byte) (int, error) {
	for _, b := range p {
		if b == protocol.CmdHandshake {
			f.Queue(protocol.Ack)
		} else {
			f.Queue(protocol.Nak)
		}
	}
	return f.written.Write(p)
}

// MockLogger records messages by level.
type MockLogger struct {
	debugMsgs []string
	infoMsgs  []string
	errorMsgs []string
}

func (l *MockLogger) Debug(msg string, kv ...interface{}) {
	l.debugMsgs = append(l.debugMsgs, msg)
}

func (l *MockLogger) Info(msg string, kv ...interface{}) {
	l.infoMsgs = append(l.infoMsgs, msg)
}

func (l *MockLogger) Error(msg string, kv ...interface{}) {
	l.errorMsgs = append(l.errorMsgs, msg)
}

// MockMetrics counts observations.
type MockMetrics struct {
	transactions map[string]int
	bytes        map[string]int
}

func NewMockMetrics() *MockMetrics {
	return &MockMetrics{transactions: make(map[string]int), bytes: make(map[string]int)}
}

func (m *MockMetrics) Transaction(kind, status string, elapsed time.Duration) {
	m.transactions[kind+"/"+status]++
}

func (m *MockMetrics) Bytes(direction string, n int) {
	m.bytes[direction] += n
}

// timeoutError looks like the error a serial driver returns on read timeout.
type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }
