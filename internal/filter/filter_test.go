package filter

import (
	"bytes"
	"compress/zlib"
	"errors"
	"testing"

	"github.com/robert-malhotra/go-tiledb/internal/binary"
)

func TestDeflateRoundtrip(t *testing.T) {
	original := []byte("Hello, World! This is test data for compression testing.")

	f := NewDeflate(6)
	compressed, err := f.Encode(original)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	decompressed, err := f.Decode(compressed)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if !bytes.Equal(decompressed, original) {
		t.Errorf("Decompressed data mismatch:\ngot:  %q\nwant: %q", decompressed, original)
	}
}

func TestDeflateDecodesZlib(t *testing.T) {
	original := []byte("data compressed by another zlib writer")

	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	w.Write(original)
	w.Close()

	decompressed, err := NewDeflate(-1).Decode(buf.Bytes())
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !bytes.Equal(decompressed, original) {
		t.Errorf("Decompressed data mismatch:\ngot:  %q\nwant: %q", decompressed, original)
	}
}

func TestZstdRoundtrip(t *testing.T) {
	original := bytes.Repeat([]byte("tile data "), 100)

	f := NewZstd(0)
	compressed, err := f.Encode(original)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if len(compressed) >= len(original) {
		t.Errorf("expected repetitive data to compress, got %d >= %d bytes", len(compressed), len(original))
	}

	decompressed, err := f.Decode(compressed)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !bytes.Equal(decompressed, original) {
		t.Error("Decompressed data mismatch")
	}
}

func TestZstdDecodeGarbage(t *testing.T) {
	if _, err := NewZstd(3).Decode([]byte{1, 2, 3, 4, 5}); err == nil {
		t.Error("expected error decoding invalid zstd frame")
	}
}

func TestShuffleUnshuffle(t *testing.T) {
	// Original: [A0 A1 A2 A3] [B0 B1 B2 B3] [C0 C1 C2 C3] [D0 D1 D2 D3]
	// Shuffled: [A0 B0 C0 D0] [A1 B1 C1 D1] [A2 B2 C2 D2] [A3 B3 C3 D3]
	original := []byte{
		0x01, 0x02, 0x03, 0x04,
		0x11, 0x12, 0x13, 0x14,
		0x21, 0x22, 0x23, 0x24,
		0x31, 0x32, 0x33, 0x34,
	}
	shuffled := []byte{
		0x01, 0x11, 0x21, 0x31,
		0x02, 0x12, 0x22, 0x32,
		0x03, 0x13, 0x23, 0x33,
		0x04, 0x14, 0x24, 0x34,
	}

	f := NewShuffle(4)

	encoded, err := f.Encode(original)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if !bytes.Equal(encoded, shuffled) {
		t.Errorf("Shuffled data mismatch:\ngot:  %v\nwant: %v", encoded, shuffled)
	}

	unshuffled, err := f.Decode(shuffled)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !bytes.Equal(unshuffled, original) {
		t.Errorf("Unshuffled data mismatch:\ngot:  %v\nwant: %v", unshuffled, original)
	}
}

func TestShuffleTrailingBytes(t *testing.T) {
	original := []byte{1, 2, 3, 4, 5}
	f := NewShuffle(2)

	encoded, err := f.Encode(original)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if encoded[4] != 5 {
		t.Errorf("trailing byte moved: %v", encoded)
	}
	decoded, err := f.Decode(encoded)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !bytes.Equal(decoded, original) {
		t.Errorf("round trip mismatch: %v", decoded)
	}
}

func TestShuffleSingleByte(t *testing.T) {
	data := []byte{1, 2, 3, 4, 5}
	f := NewShuffle(1)

	result, err := f.Decode(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if !bytes.Equal(result, data) {
		t.Errorf("Single-byte shuffle should be identity")
	}
}

func TestFletcher32Valid(t *testing.T) {
	data := []byte("test data for checksum")

	f := NewFletcher32()
	input, err := f.Encode(data)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if len(input) != len(data)+4 {
		t.Fatalf("expected %d bytes, got %d", len(data)+4, len(input))
	}
	checksum := binary.Fletcher32(data)
	if input[len(data)] != byte(checksum) || input[len(data)+3] != byte(checksum>>24) {
		t.Errorf("checksum not appended little-endian")
	}

	output, err := f.Decode(input)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if !bytes.Equal(output, data) {
		t.Errorf("Output mismatch:\ngot:  %v\nwant: %v", output, data)
	}
}

func TestFletcher32Invalid(t *testing.T) {
	data := []byte("test data for checksum")

	input := make([]byte, len(data)+4)
	copy(input, data)
	input[len(data)] = 0xDE
	input[len(data)+1] = 0xAD
	input[len(data)+2] = 0xBE
	input[len(data)+3] = 0xEF

	_, err := NewFletcher32().Decode(input)
	if !errors.Is(err, ErrChecksumMismatch) {
		t.Errorf("Expected ErrChecksumMismatch, got %v", err)
	}

	if _, err := NewFletcher32().Decode([]byte{1, 2}); err == nil {
		t.Error("Expected error for short input")
	}
}

func TestFilterIDs(t *testing.T) {
	tests := []struct {
		f  Filter
		id ID
	}{
		{NewDeflate(6), Gzip},
		{NewZstd(3), Zstd},
		{NewShuffle(4), Shuffle},
		{NewFletcher32(), Fletcher32},
	}
	for _, tt := range tests {
		if tt.f.ID() != tt.id {
			t.Errorf("expected ID %s, got %s", tt.id, tt.f.ID())
		}
	}
}

func TestPipelineEmpty(t *testing.T) {
	p, err := NewPipeline(nil, 4)
	if err != nil {
		t.Fatalf("NewPipeline failed: %v", err)
	}

	if !p.Empty() {
		t.Error("Expected empty pipeline")
	}

	data := []byte("unchanged")
	result, err := p.Decode(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if !bytes.Equal(result, data) {
		t.Error("Empty pipeline should pass data through unchanged")
	}
}

func TestPipelineRoundtrip(t *testing.T) {
	infos := []Info{
		{ID: Shuffle},
		{ID: Zstd, Level: 5},
		{ID: Gzip, Level: 1},
		{ID: Fletcher32},
	}
	p, err := NewPipeline(infos, 8)
	if err != nil {
		t.Fatalf("NewPipeline failed: %v", err)
	}
	if p.Len() != 4 {
		t.Errorf("expected 4 filters, got %d", p.Len())
	}

	original := make([]byte, 8*64)
	for i := range original {
		original[i] = byte(i % 8)
	}

	stored, err := p.Encode(original)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	decoded, err := p.Decode(stored)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !bytes.Equal(decoded, original) {
		t.Error("pipeline round trip mismatch")
	}

	// Corrupting the stored tile must be caught by the checksum.
	stored[0] ^= 0xFF
	if _, err := p.Decode(stored); !errors.Is(err, ErrChecksumMismatch) {
		t.Errorf("expected ErrChecksumMismatch, got %v", err)
	}
}

func TestPipelineUnknownFilter(t *testing.T) {
	if _, err := NewPipeline([]Info{{ID: 200}}, 1); !errors.Is(err, ErrUnknownFilter) {
		t.Errorf("expected ErrUnknownFilter, got %v", err)
	}
}

func TestInfosSerialization(t *testing.T) {
	infos := []Info{{ID: Gzip, Level: 9}, {ID: Fletcher32}}

	var buf bytes.Buffer
	if err := WriteInfos(binary.NewWriter(&buf), infos); err != nil {
		t.Fatalf("WriteInfos failed: %v", err)
	}
	if buf.Len() != 4+2*5 {
		t.Errorf("expected %d bytes, got %d", 4+2*5, buf.Len())
	}

	got, err := ReadInfos(binary.NewReader(bytes.NewReader(buf.Bytes())))
	if err != nil {
		t.Fatalf("ReadInfos failed: %v", err)
	}
	if len(got) != 2 || got[0] != infos[0] || got[1] != infos[1] {
		t.Errorf("ReadInfos = %v, want %v", got, infos)
	}

	bad := []byte{1, 0, 0, 0, 99, 0, 0, 0, 0}
	if _, err := ReadInfos(binary.NewReader(bytes.NewReader(bad))); !errors.Is(err, ErrUnknownFilter) {
		t.Errorf("expected ErrUnknownFilter, got %v", err)
	}
}

func TestParse(t *testing.T) {
	id, err := Parse("zstd")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if id != Zstd {
		t.Errorf("expected zstd, got %s", id)
	}
	if _, err := Parse("lz4"); !errors.Is(err, ErrUnknownFilter) {
		t.Errorf("expected ErrUnknownFilter, got %v", err)
	}
}
