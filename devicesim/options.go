package devicesim

import (
	"github.com/rs/zerolog"

	"github.com/moffa90/go-eeprom/protocol"
)

type config struct {
	handshakeReply byte
	nakPages       map[uint32]bool
	mutePages      map[uint32]bool
	shortReads     int
	silent         bool
	logger         zerolog.Logger
}

func defaultConfig() config {
	return config{
		handshakeReply: protocol.Ack,
		nakPages:       make(map[uint32]bool),
		mutePages:      make(map[uint32]bool),
		shortReads:     -1,
		logger:         zerolog.Nop(),
	}
}

// Option configures a Device.
type Option func(*config)

// WithHandshakeReply makes the device answer Handshake with b instead of ACK.
func WithHandshakeReply(b byte) Option {
	return func(c *config) {
		c.handshakeReply = b
	}
}

// WithNakPages makes every write into the given page indices fail with NAK.
func WithNakPages(pages ...uint32) Option {
	return func(c *config) {
		for _, p := range pages {
			c.nakPages[p] = true
		}
	}
}

// WithMutePages makes writes into the given page indices go unanswered.
// The data is not stored.
func WithMutePages(pages ...uint32) Option {
	return func(c *config) {
		for _, p := range pages {
			c.mutePages[p] = true
		}
	}
}

// WithShortReads caps every stream read at n bytes, so the host times out
// on the rest.
func WithShortReads(n int) Option {
	return func(c *config) {
		if n >= 0 {
			c.shortReads = n
		}
	}
}

// WithSilent makes the device swallow everything and never reply, like a
// bridge that is not powered.
func WithSilent() Option {
	return func(c *config) {
		c.silent = true
	}
}

// WithLogger sets a zerolog logger for frame-level tracing.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}
