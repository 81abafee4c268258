package protocol

import (
	"bytes"
	"errors"
	"math/rand"
	"testing"
)

func TestEscape(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  []byte
	}{
		{name: "empty", input: []byte{}, want: []byte{}},
		{name: "no sentinel", input: []byte{0x00, 0xAA, 0xFE}, want: []byte{0x00, 0xAA, 0xFE}},
		{name: "single sentinel", input: []byte{0xFF}, want: []byte{0xFF, 0xFF}},
		{name: "sentinel in middle", input: []byte{0x01, 0xFF, 0x02}, want: []byte{0x01, 0xFF, 0xFF, 0x02}},
		{name: "run of sentinels", input: []byte{0xFF, 0xFF}, want: []byte{0xFF, 0xFF, 0xFF, 0xFF}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Escape(tt.input)
			if !bytes.Equal(got, tt.want) {
				t.Errorf("Escape(% X) = % X, want % X", tt.input, got, tt.want)
			}
			if EscapedLen(tt.input) != len(tt.want) {
				t.Errorf("EscapedLen() = %d, want %d", EscapedLen(tt.input), len(tt.want))
			}
		})
	}
}

func TestEscapeWithoutSentinelIsIdentity(t *testing.T) {
	payload := make([]byte, 0xFF)
	for i := range payload {
		payload[i] = byte(i)
	}
	if got := Escape(payload); !bytes.Equal(got, payload) {
		t.Errorf("Escape changed payload without 0xFF")
	}
}

func TestUnescapeRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 200; i++ {
		payload := make([]byte, rng.Intn(130))
		for j := range payload {
			// bias towards the sentinel so runs show up
			if rng.Intn(3) == 0 {
				payload[j] = 0xFF
			} else {
				payload[j] = byte(rng.Intn(256))
			}
		}
		got, err := Unescape(Escape(payload))
		if err != nil {
			t.Fatalf("Unescape(Escape(% X)) error: %v", payload, err)
		}
		if !bytes.Equal(got, payload) {
			t.Fatalf("round trip = % X, want % X", got, payload)
		}
	}
}

func TestUnescapeUnpaired(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
	}{
		{name: "lone sentinel", input: []byte{0xFF}},
		{name: "odd run", input: []byte{0xFF, 0xFF, 0xFF}},
		{name: "sentinel before data", input: []byte{0xFF, 0x01}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Unescape(tt.input); !errors.Is(err, ErrUnpairedSentinel) {
				t.Errorf("Unescape(% X) error = %v, want ErrUnpairedSentinel", tt.input, err)
			}
		})
	}
}

// decodeStream runs a full stream (escaped payload + trailer) through the
// decoder and returns the payload and the command byte that ended it.
func decodeStream(t *testing.T, wire []byte) ([]byte, byte) {
	t.Helper()
	var d StreamDecoder
	var out []byte
	for i, b := range wire {
		value, data, done := d.Feed(b)
		if data {
			out = append(out, value)
		}
		if done {
			if i != len(wire)-1 {
				t.Fatalf("stream ended at byte %d of %d", i, len(wire))
			}
			return out, value
		}
	}
	t.Fatalf("stream never terminated: % X", wire)
	return nil, 0
}

func TestStreamDecoderLookAhead(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
	}{
		{name: "plain", payload: []byte{0xAE, 0xAE, 0xAE}},
		{name: "ends with sentinel", payload: []byte{0x01, 0xFF}},
		{name: "only sentinels", payload: []byte{0xFF, 0xFF, 0xFF}},
		{name: "sentinel then handshake value", payload: []byte{0xFF, 0xAA}},
		{name: "starts with sentinel", payload: []byte{0xFF, 0x00}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wire := append(Escape(tt.payload), CmdCancel, CmdHandshake)
			got, next := decodeStream(t, wire)
			if !bytes.Equal(got, tt.payload) {
				t.Errorf("decoded % X, want % X", got, tt.payload)
			}
			if next != CmdHandshake {
				t.Errorf("next command = 0x%02X, want 0xAA", next)
			}
		})
	}
}

func TestStreamDecoderReset(t *testing.T) {
	var d StreamDecoder
	d.Feed(0xFF)
	if !d.Pending() {
		t.Fatal("expected pending sentinel")
	}
	d.Reset()
	if d.Pending() {
		t.Fatal("Reset() left sentinel pending")
	}
	if v, data, done := d.Feed(0x42); !data || done || v != 0x42 {
		t.Errorf("Feed after Reset = (0x%02X, %v, %v)", v, data, done)
	}
}

func BenchmarkEscape(b *testing.B) {
	data := make([]byte, 64)
	for i := range data {
		data[i] = byte(i * 4)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Escape(data)
	}
}
