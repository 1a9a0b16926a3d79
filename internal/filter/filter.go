package filter

import (
	"errors"
	"fmt"
)

// ID identifies a filter in a serialized filter list.
type ID uint8

const (
	None       ID = 0
	Gzip       ID = 1
	Zstd       ID = 2
	Shuffle    ID = 9
	Fletcher32 ID = 14
)

// ErrUnknownFilter is returned for filter IDs with no registered constructor.
var ErrUnknownFilter = errors.New("unknown filter")

// ErrChecksumMismatch is returned when a checksummed tile fails verification.
var ErrChecksumMismatch = errors.New("checksum mismatch")

// Filter transforms tile data. Encode is applied on write and Decode
// reverses it on read.
type Filter interface {
	// ID returns the filter identifier.
	ID() ID

	// Encode transforms raw tile data to its stored form.
	Encode(input []byte) ([]byte, error)

	// Decode transforms stored tile data back to its raw form.
	Decode(input []byte) ([]byte, error)
}

// Info is the serialized description of one filter in a list.
type Info struct {
	ID    ID
	Level int32
}

// String returns the filter name.
func (id ID) String() string {
	if name, ok := filterNames[id]; ok {
		return name
	}
	return fmt.Sprintf("filter(%d)", uint8(id))
}

// Registry maps filter IDs to constructors. elemSize is the size of one
// cell value of the attribute the filter runs on.
var Registry = map[ID]func(level int32, elemSize int) Filter{
	None:       func(int32, int) Filter { return noop{} },
	Gzip:       func(level int32, _ int) Filter { return NewDeflate(int(level)) },
	Zstd:       func(level int32, _ int) Filter { return NewZstd(int(level)) },
	Shuffle:    func(_ int32, elemSize int) Filter { return NewShuffle(elemSize) },
	Fletcher32: func(int32, int) Filter { return NewFletcher32() },
}

var filterNames = map[ID]string{
	None:       "none",
	Gzip:       "gzip",
	Zstd:       "zstd",
	Shuffle:    "shuffle",
	Fletcher32: "fletcher32",
}

// Parse returns the filter ID named by s.
func Parse(s string) (ID, error) {
	for id, name := range filterNames {
		if name == s {
			return id, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownFilter, s)
}

// New creates a filter from its serialized description.
func New(info Info, elemSize int) (Filter, error) {
	constructor, ok := Registry[info.ID]
	if !ok {
		return nil, fmt.Errorf("%w: ID %d", ErrUnknownFilter, info.ID)
	}
	return constructor(info.Level, elemSize), nil
}

type noop struct{}

func (noop) ID() ID                              { return None }
func (noop) Encode(input []byte) ([]byte, error) { return input, nil }
func (noop) Decode(input []byte) ([]byte, error) { return input, nil }
