package protocol

import (
	"bytes"
	"errors"
	"testing"
)

func TestBuildWriteByteCmd(t *testing.T) {
	tests := []struct {
		name    string
		addr    uint32
		data    byte
		want    []byte
		wantErr bool
		errMsg  string
	}{
		{
			name: "reference address",
			addr: 0x0FE6,
			data: 0xAE,
			want: []byte{0x01, 0x0F, 0xE6, 0xAE},
		},
		{
			name: "top of device",
			addr: 0x7FFF,
			data: 0x00,
			want: []byte{0x01, 0x7F, 0xFF, 0x00},
		},
		{
			name: "data is sentinel value",
			addr: 0x0000,
			data: 0xFF,
			want: []byte{0x01, 0x00, 0x00, 0xFF},
		},
		{
			name:    "address too wide",
			addr:    0x10000,
			wantErr: true,
			errMsg:  "16-bit wire width",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame, err := BuildWriteByteCmd(tt.addr, tt.data)

			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error containing %q, got nil", tt.errMsg)
				}
				if !bytes.Contains([]byte(err.Error()), []byte(tt.errMsg)) {
					t.Errorf("error = %v, want substring %q", err, tt.errMsg)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !bytes.Equal(frame, tt.want) {
				t.Errorf("frame = % X, want % X", frame, tt.want)
			}
		})
	}
}

func TestBuildWriteByteStreamCmd(t *testing.T) {
	tests := []struct {
		name    string
		addr    uint32
		escaped []byte
		want    []byte
		wantErr error
	}{
		{
			name:    "plain payload",
			addr:    0x0FE6,
			escaped: []byte{0xAE, 0xAE},
			want:    []byte{0x02, 0x0F, 0xE6, 0xAE, 0xAE, 0xFF, 0xAA},
		},
		{
			name:    "escaped sentinel at end",
			addr:    0x0040,
			escaped: []byte{0x01, 0xFF, 0xFF},
			want:    []byte{0x02, 0x00, 0x40, 0x01, 0xFF, 0xFF, 0xFF, 0xAA},
		},
		{
			name:    "full page of sentinels",
			addr:    0x0000,
			escaped: bytes.Repeat([]byte{0xFF}, MaxStreamPayload),
		},
		{
			name:    "empty payload",
			addr:    0x0000,
			escaped: nil,
			wantErr: ErrEmptyPayload,
		},
		{
			name:    "payload too large",
			addr:    0x0000,
			escaped: make([]byte, MaxStreamPayload+1),
			wantErr: ErrPayloadTooLarge,
		},
		{
			name:    "address too wide",
			addr:    0x12345,
			escaped: []byte{0x01},
			wantErr: ErrAddressWidth,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame, err := BuildWriteByteStreamCmd(tt.addr, tt.escaped)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if frame[0] != CmdWriteStream {
				t.Errorf("CMD = 0x%02X, want 0x%02X", frame[0], CmdWriteStream)
			}
			if frame[len(frame)-2] != CmdCancel || frame[len(frame)-1] != CmdHandshake {
				t.Errorf("trailer = % X, want FF AA", frame[len(frame)-2:])
			}
			if got := len(frame); got != HeaderSize+len(tt.escaped)+StreamTrailerSize {
				t.Errorf("len = %d, want %d", got, HeaderSize+len(tt.escaped)+StreamTrailerSize)
			}
			if tt.want != nil && !bytes.Equal(frame, tt.want) {
				t.Errorf("frame = % X, want % X", frame, tt.want)
			}
		})
	}
}

func TestBuildReadByteStreamCmd(t *testing.T) {
	tests := []struct {
		name    string
		start   uint32
		end     uint32
		want    []byte
		wantErr error
	}{
		{
			name:  "reference range",
			start: 0x0FE6,
			end:   0x0FED,
			want:  []byte{0x04, 0x0F, 0xE6, 0x0F, 0xED},
		},
		{
			name:  "single address",
			start: 0x7FFF,
			end:   0x7FFF,
			want:  []byte{0x04, 0x7F, 0xFF, 0x7F, 0xFF},
		},
		{
			name:    "inverted range",
			start:   0x0010,
			end:     0x000F,
			wantErr: ErrInvertedRange,
		},
		{
			name:    "end too wide",
			start:   0x0000,
			end:     0x10000,
			wantErr: ErrAddressWidth,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame, err := BuildReadByteStreamCmd(tt.start, tt.end)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !bytes.Equal(frame, tt.want) {
				t.Errorf("frame = % X, want % X", frame, tt.want)
			}
		})
	}
}

func TestEncode(t *testing.T) {
	tests := []struct {
		name  string
		frame Frame
		want  []byte
	}{
		{name: "handshake", frame: Frame{Kind: KindHandshake}, want: []byte{0xAA}},
		{name: "cancel", frame: Frame{Kind: KindCancel}, want: []byte{0xFF}},
		{name: "write byte", frame: Frame{Kind: KindWriteByte, Addr: 0x7FFD, Data: 0xAA}, want: []byte{0x01, 0x7F, 0xFD, 0xAA}},
		{name: "read byte", frame: Frame{Kind: KindReadByte, Addr: 0x1234}, want: []byte{0x03, 0x12, 0x34}},
		{name: "read stream", frame: Frame{Kind: KindReadByteStream, Addr: 0x0000, End: 0x003F}, want: []byte{0x04, 0x00, 0x00, 0x00, 0x3F}},
		{
			name:  "write stream",
			frame: Frame{Kind: KindWriteByteStream, Addr: 0x0100, Payload: Escape([]byte{0xFF})},
			want:  []byte{0x02, 0x01, 0x00, 0xFF, 0xFF, 0xFF, 0xAA},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Encode(tt.frame)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !bytes.Equal(got, tt.want) {
				t.Errorf("Encode() = % X, want % X", got, tt.want)
			}
		})
	}

	if _, err := Encode(Frame{Kind: Kind(42)}); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("unknown kind error = %v, want ErrUnknownKind", err)
	}
}

func BenchmarkBuildWriteByteStreamCmd(b *testing.B) {
	payload := Escape(bytes.Repeat([]byte{0xAE}, 64))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = BuildWriteByteStreamCmd(0x0FC0, payload)
	}
}
