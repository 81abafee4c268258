package image

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseHex(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []Segment
		wantErr bool
		errMsg  string
	}{
		{
			name: "single record",
			input: ":080FE600AEAEAEAEAEAEAEAE93\n" +
				":00000001FF\n",
			want: []Segment{{Addr: 0x0FE6, Data: bytes.Repeat([]byte{0xAE}, 8)}},
		},
		{
			name: "adjacent records merge",
			input: ":0400000001020304F2\n" +
				":0400040005060708DE\n" +
				":00000001FF\n",
			want: []Segment{{Addr: 0x0000, Data: []byte{1, 2, 3, 4, 5, 6, 7, 8}}},
		},
		{
			name: "gap keeps segments apart",
			input: ":02010000FF00FE\n" +
				":0400000001020304F2\n" +
				":00000001FF\n",
			want: []Segment{
				{Addr: 0x0000, Data: []byte{1, 2, 3, 4}},
				{Addr: 0x0100, Data: []byte{0xFF, 0x00}},
			},
		},
		{
			name: "extended linear address",
			input: ":020000040001F9\n" +
				":010002009964\n" +
				":00000001FF\n",
			want: []Segment{{Addr: 0x10002, Data: []byte{0x99}}},
		},
		{
			name: "start linear address ignored",
			input: ":0400000500000000F7\n" +
				":0400000001020304F2\n" +
				":00000001FF\n",
			want: []Segment{{Addr: 0x0000, Data: []byte{1, 2, 3, 4}}},
		},
		{
			name:    "bad checksum",
			input:   ":0400000001020304F3\n:00000001FF\n",
			wantErr: true,
			errMsg:  "checksum mismatch",
		},
		{
			name:    "missing colon",
			input:   "0400000001020304F2\n:00000001FF\n",
			wantErr: true,
			errMsg:  "malformed hex record",
		},
		{
			name:    "invalid hex",
			input:   ":04000000010203GGF2\n:00000001FF\n",
			wantErr: true,
			errMsg:  "image:",
		},
		{
			name:    "length mismatch",
			input:   ":0500000001020304F1\n:00000001FF\n",
			wantErr: true,
			errMsg:  "image:",
		},
		{
			name:    "unknown record type",
			input:   ":00000006FA\n:00000001FF\n",
			wantErr: true,
			errMsg:  "malformed hex record",
		},
		{
			name: "overlap",
			input: ":020000001122CB\n" +
				":0100010033CB\n" +
				":00000001FF\n",
			wantErr: true,
			errMsg:  "overlap",
		},
		{
			name:    "no data",
			input:   ":00000001FF\n",
			wantErr: true,
			errMsg:  "no data",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := ParseHex(strings.NewReader(tt.input))

			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error containing %q, got nil", tt.errMsg)
				}
				if !strings.Contains(err.Error(), tt.errMsg) {
					t.Errorf("error = %v, want substring %q", err, tt.errMsg)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(img.Segments) != len(tt.want) {
				t.Fatalf("got %d segments, want %d", len(img.Segments), len(tt.want))
			}
			for i, seg := range img.Segments {
				if seg.Addr != tt.want[i].Addr {
					t.Errorf("segment %d Addr = 0x%04X, want 0x%04X", i, seg.Addr, tt.want[i].Addr)
				}
				if !bytes.Equal(seg.Data, tt.want[i].Data) {
					t.Errorf("segment %d Data = % X, want % X", i, seg.Data, tt.want[i].Data)
				}
			}
		})
	}
}

func TestParseHexErrorKinds(t *testing.T) {
	if _, err := ParseHex(strings.NewReader(":0400000001020304F3\n:00000001FF\n")); !errors.Is(err, ErrChecksum) {
		t.Errorf("checksum error = %v, want ErrChecksum", err)
	}
	if _, err := ParseHex(strings.NewReader(":00000006FA\n:00000001FF\n")); !errors.Is(err, ErrBadRecord) {
		t.Errorf("record error = %v, want ErrBadRecord", err)
	}
	if _, err := ParseHex(strings.NewReader("0400000001020304F2\n")); !errors.Is(err, ErrBadRecord) || errors.Is(err, ErrChecksum) {
		t.Errorf("syntax error = %v, want ErrBadRecord only", err)
	}
}

func TestParseRaw(t *testing.T) {
	img, err := ParseRaw(bytes.NewReader([]byte{0xDE, 0xAD, 0xBE, 0xEF}), 0x0FE6)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(img.Segments) != 1 || img.Segments[0].Addr != 0x0FE6 {
		t.Fatalf("segments = %+v", img.Segments)
	}
	if img.Size() != 4 {
		t.Errorf("Size() = %d, want 4", img.Size())
	}

	if _, err := ParseRaw(bytes.NewReader(nil), 0); !errors.Is(err, ErrEmptyImage) {
		t.Errorf("empty raw error = %v, want ErrEmptyImage", err)
	}
	if _, err := ParseRaw(bytes.NewReader(make([]byte, maxRawImageSize+1)), 0); err == nil {
		t.Error("oversized raw image accepted")
	}
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()

	hexPath := filepath.Join(dir, "rom.hex")
	if err := os.WriteFile(hexPath, []byte(":0400000001020304F2\n:00000001FF\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	binPath := filepath.Join(dir, "rom.bin")
	if err := os.WriteFile(binPath, []byte{0x01, 0x02}, 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		path     string
		format   Format
		base     uint32
		wantAddr uint32
		wantSize int
	}{
		{name: "auto hex", path: hexPath, format: FormatAuto, base: 0x1000, wantAddr: 0x0000, wantSize: 4},
		{name: "auto raw", path: binPath, format: FormatAuto, base: 0x1000, wantAddr: 0x1000, wantSize: 2},
		{name: "forced raw on hex file", path: hexPath, format: FormatRaw, base: 0x0000, wantAddr: 0x0000, wantSize: 32},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := Parse(tt.path, tt.format, tt.base)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if img.Segments[0].Addr != tt.wantAddr || img.Size() != tt.wantSize {
				t.Errorf("got addr 0x%04X size %d, want 0x%04X size %d",
					img.Segments[0].Addr, img.Size(), tt.wantAddr, tt.wantSize)
			}
		})
	}

	if _, err := Parse(filepath.Join(dir, "missing.bin"), FormatAuto, 0); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{in: "", want: FormatAuto},
		{in: "AUTO", want: FormatAuto},
		{in: "bin", want: FormatRaw},
		{in: "hex", want: FormatHex},
		{in: "ihex", want: FormatHex},
		{in: "srec", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMergeAndSpan(t *testing.T) {
	img, err := Merge([]Segment{
		{Addr: 0x0040, Data: []byte{3}},
		{Addr: 0x0000, Data: []byte{1}},
		{Addr: 0x0001, Data: []byte{2}},
		{Addr: 0x0100, Data: nil},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(img.Segments) != 2 {
		t.Fatalf("got %d segments, want 2", len(img.Segments))
	}
	lo, hi, err := img.Span()
	if err != nil || lo != 0x0000 || hi != 0x0040 {
		t.Errorf("Span() = 0x%04X, 0x%04X, %v", lo, hi, err)
	}
	if got := img.Segments[0].End(); got != 0x0001 {
		t.Errorf("End() = 0x%04X, want 0x0001", got)
	}

	var empty Image
	if _, _, err := empty.Span(); !errors.Is(err, ErrEmptyImage) {
		t.Errorf("empty Span() error = %v", err)
	}

	var oe *OverlapError
	_, err = Merge([]Segment{
		{Addr: 0x0000, Data: []byte{0x11, 0x22}},
		{Addr: 0x0001, Data: []byte{0x33}},
	})
	if !errors.As(err, &oe) || oe.Addr != 0x0001 {
		t.Errorf("overlap error = %v, want *OverlapError at 0x0001", err)
	}
}
