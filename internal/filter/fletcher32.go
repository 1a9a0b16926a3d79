package filter

import (
	"encoding/binary"
	"fmt"

	binpkg "github.com/robert-malhotra/go-tiledb/internal/binary"
)

// Fletcher32Filter implements the Fletcher-32 checksum filter.
// Encode appends a checksum to the data and Decode verifies and strips it.
type Fletcher32Filter struct{}

// NewFletcher32 creates a new Fletcher-32 filter.
func NewFletcher32() *Fletcher32Filter {
	return &Fletcher32Filter{}
}

func (f *Fletcher32Filter) ID() ID {
	return Fletcher32
}

// Encode returns the input followed by its little-endian checksum.
func (f *Fletcher32Filter) Encode(input []byte) ([]byte, error) {
	out := make([]byte, len(input)+4)
	copy(out, input)
	binary.LittleEndian.PutUint32(out[len(input):], binpkg.Fletcher32(input))
	return out, nil
}

// Decode verifies the Fletcher-32 checksum and returns the data without it.
// The checksum is stored as the last 4 bytes of the input.
func (f *Fletcher32Filter) Decode(input []byte) ([]byte, error) {
	if len(input) < 4 {
		return nil, fmt.Errorf("fletcher32: input too short for checksum")
	}

	data := input[:len(input)-4]
	stored := binary.LittleEndian.Uint32(input[len(input)-4:])

	if computed := binpkg.Fletcher32(data); computed != stored {
		return nil, fmt.Errorf("fletcher32: %w: stored 0x%08x, computed 0x%08x",
			ErrChecksumMismatch, stored, computed)
	}

	return data, nil
}
