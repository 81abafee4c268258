// Package devicesim is an in-memory programmer bridge with an attached
// 28C256-class EEPROM. It speaks the same wire protocol as the real bridge
// and can stand in for a serial port anywhere an io.ReadWriter is accepted.
//
// Writes feed the bridge's receive state machine; reads return whatever
// the bridge has queued and (0, nil) when nothing is pending, which the
// programmer treats as a read timeout.
package devicesim

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/moffa90/go-eeprom/geometry"
	"github.com/moffa90/go-eeprom/protocol"
)

type rxState int

const (
	waitInstruction rxState = iota
	waitHeader
	waitStream
)

// headerLen is the number of bytes each opcode takes after itself.
var headerLen = map[byte]int{
	protocol.CmdWriteByte:   protocol.AddressSize + 1,
	protocol.CmdWriteStream: protocol.AddressSize,
	protocol.CmdReadByte:    protocol.AddressSize,
	protocol.CmdReadStream:  2 * protocol.AddressSize,
}

// Device is a simulated bridge plus EEPROM. It is safe for concurrent use.
type Device struct {
	mu sync.Mutex

	geo    geometry.Geometry
	mem    []byte
	config config
	log    zerolog.Logger

	state   rxState
	cmd     byte
	header  []byte
	addr    uint16
	decoder protocol.StreamDecoder
	stream  []byte
	out     []byte

	stats Stats
}

// Stats counts what the device has been asked to do.
type Stats struct {
	Handshakes   int
	ByteWrites   int
	StreamWrites int
	ByteReads    int
	StreamReads  int
	Naks         int
}

// New returns a device with every cell erased to 0xFF.
func New(opts ...Option) *Device {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	geo := geometry.Default()
	mem := make([]byte, geo.AddressSpace())
	for i := range mem {
		mem[i] = 0xFF
	}

	return &Device{
		geo:    geo,
		mem:    mem,
		config: cfg,
		log:    cfg.logger.With().Str("component", "devicesim").Logger(),
	}
}

// Write feeds bytes from the host into the bridge.
func (d *Device) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, b := range p {
		d.receive(b)
	}
	return len(p), nil
}

// Read hands back queued reply bytes. With nothing queued it returns
// (0, nil), as a serial port does when its read timeout expires.
func (d *Device) Read(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	n := copy(p, d.out)
	d.out = d.out[n:]
	return n, nil
}

// Peek returns a copy of the memory in [start, start+n).
func (d *Device) Peek(start uint16, n int) []byte {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]byte, n)
	copy(out, d.mem[start:])
	return out
}

// Load writes data straight into memory, bypassing the protocol.
func (d *Device) Load(start uint16, data []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()

	copy(d.mem[start:], data)
}

// Stats returns a snapshot of the request counters.
func (d *Device) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.stats
}

// Pending returns the number of reply bytes not yet read by the host.
func (d *Device) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return len(d.out)
}

// InStream reports whether the bridge is in the middle of a stream write.
func (d *Device) InStream() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.state == waitStream
}

func (d *Device) receive(b byte) {
	switch d.state {
	case waitInstruction:
		d.instruction(b)
	case waitHeader:
		d.header = append(d.header, b)
		if len(d.header) == headerLen[d.cmd] {
			d.execute()
		}
	case waitStream:
		value, data, done := d.decoder.Feed(b)
		if data {
			d.stream = append(d.stream, value)
			return
		}
		if done {
			d.finishStream()
			d.state = waitInstruction
			// The byte after the terminator is the next command. The host
			// always sends Handshake here and the stream reply covers it.
			if value != protocol.CmdHandshake {
				d.instruction(value)
			}
		}
	}
}

func (d *Device) instruction(b byte) {
	switch b {
	case protocol.CmdHandshake:
		d.stats.Handshakes++
		d.reply(d.config.handshakeReply)
	case protocol.CmdWriteByte, protocol.CmdWriteStream, protocol.CmdReadByte, protocol.CmdReadStream:
		d.cmd = b
		d.header = d.header[:0]
		d.state = waitHeader
	default:
		d.log.Debug().Uint8("opcode", b).Msg("unknown instruction")
		d.nak()
	}
}

func (d *Device) execute() {
	d.state = waitInstruction
	addr := protocol.DecodeAddress(d.header[0], d.header[1])

	switch d.cmd {
	case protocol.CmdWriteByte:
		d.stats.ByteWrites++
		if d.refuse(uint32(addr)) {
			return
		}
		d.mem[addr] = d.header[2]
		d.ack()

	case protocol.CmdReadByte:
		d.stats.ByteReads++
		if d.geo.CheckAddr(uint32(addr)) != nil {
			d.nak()
			return
		}
		d.reply(d.mem[addr])

	case protocol.CmdReadStream:
		d.stats.StreamReads++
		end := protocol.DecodeAddress(d.header[2], d.header[3])
		if d.geo.CheckRange(uint32(addr), uint32(end)) != nil {
			d.nak()
			return
		}
		data := d.mem[addr : int(end)+1]
		if limit := d.config.shortReads; limit >= 0 && limit < len(data) {
			data = data[:limit]
		}
		if !d.config.silent {
			d.out = append(d.out, data...)
		}

	case protocol.CmdWriteStream:
		d.addr = addr
		d.stream = d.stream[:0]
		d.decoder.Reset()
		d.state = waitStream
	}
}

// finishStream commits a stream write if it stays inside one page.
func (d *Device) finishStream() {
	d.stats.StreamWrites++
	if len(d.stream) == 0 {
		d.nak()
		return
	}

	end := uint32(d.addr) + uint32(len(d.stream)) - 1
	first, err := d.geo.PageOf(uint32(d.addr))
	if err != nil || end > first.EndAddr {
		d.log.Debug().
			Uint16("addr", d.addr).
			Int("bytes", len(d.stream)).
			Msg("stream crosses page boundary")
		d.nak()
		return
	}
	if d.refuse(uint32(d.addr)) {
		return
	}

	copy(d.mem[d.addr:], d.stream)
	d.log.Debug().Uint16("addr", d.addr).Int("bytes", len(d.stream)).Msg("page written")
	d.ack()
}

// refuse answers for a write the configuration says must fail and reports
// whether it did.
func (d *Device) refuse(addr uint32) bool {
	page, err := d.geo.PageOf(addr)
	if err != nil {
		d.nak()
		return true
	}
	if d.config.nakPages[page.Index] {
		d.nak()
		return true
	}
	if d.config.mutePages[page.Index] {
		return true
	}
	return false
}

func (d *Device) ack() {
	d.reply(protocol.Ack)
}

func (d *Device) nak() {
	d.stats.Naks++
	d.reply(protocol.Nak)
}

func (d *Device) reply(b byte) {
	if d.config.silent {
		return
	}
	d.out = append(d.out, b)
}
