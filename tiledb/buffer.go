package tiledb

import (
	"fmt"
	"slices"
)

// AttributeBuffer is a caller-owned buffer for one attribute.
//
// For fixed-size attributes Values holds the cells and *ValuesSize is the
// number of valid bytes. For var-sized attributes Offsets holds one byte
// offset into Values per cell and *OffsetsSize is the number of valid
// bytes of Offsets. Reads update the size counters in place to report what
// was produced; writes read them to learn what to consume.
type AttributeBuffer struct {
	Values     []byte
	ValuesSize *uint64

	Offsets     []uint64
	OffsetsSize *uint64
}

// IsVar reports whether the buffer carries an offsets array.
func (b *AttributeBuffer) IsVar() bool {
	return b.OffsetsSize != nil || b.Offsets != nil
}

// BufferSet maps attribute names to buffers, keeping the order in which
// they were first set.
type BufferSet struct {
	names []string
	bufs  map[string]*AttributeBuffer
}

// NewBufferSet returns an empty set.
func NewBufferSet() *BufferSet {
	return &BufferSet{bufs: make(map[string]*AttributeBuffer)}
}

// Set registers b for name, replacing any previous buffer.
func (s *BufferSet) Set(name string, b *AttributeBuffer) {
	if _, ok := s.bufs[name]; !ok {
		s.names = append(s.names, name)
	}
	s.bufs[name] = b
}

// Get returns the buffer registered for name.
func (s *BufferSet) Get(name string) (*AttributeBuffer, bool) {
	b, ok := s.bufs[name]
	return b, ok
}

// Names returns the attribute names in registration order.
func (s *BufferSet) Names() []string { return slices.Clone(s.names) }

// Len returns the number of registered buffers.
func (s *BufferSet) Len() int { return len(s.names) }

// Reset removes every buffer.
func (s *BufferSet) Reset() {
	s.names = nil
	s.bufs = make(map[string]*AttributeBuffer)
}

// MergeMode says how a buffer was merged.
type MergeMode string

const (
	// MergeAdopt moves the source buffer into the destination set.
	MergeAdopt MergeMode = "adopt"
	// MergeCopy copies the source bytes into the destination's own buffer.
	MergeCopy MergeMode = "copy"
)

// Merge absorbs every buffer of src. Where s already has a buffer for an
// attribute, the byte counts of both buffers must be equal and the source
// bytes are copied into the existing destination slices; otherwise the
// source buffer is adopted as is. Every attribute is validated before any
// buffer is touched, so on error neither set changes. On success src is
// left empty.
func (s *BufferSet) Merge(src *BufferSet) (map[string]MergeMode, error) {
	modes := make(map[string]MergeMode, src.Len())
	for _, name := range src.names {
		sb := src.bufs[name]
		if sb.ValuesSize == nil || (sb.IsVar() && sb.OffsetsSize == nil) {
			return nil, fmt.Errorf("%w: attribute %q", ErrNullBuffer, name)
		}
		db, ok := s.bufs[name]
		if !ok {
			modes[name] = MergeAdopt
			continue
		}
		if err := checkCopy(name, db, sb); err != nil {
			return nil, err
		}
		modes[name] = MergeCopy
	}

	for _, name := range src.names {
		sb := src.bufs[name]
		if modes[name] == MergeAdopt {
			s.Set(name, sb)
			continue
		}
		db := s.bufs[name]
		copy(db.Values, sb.Values[:*sb.ValuesSize])
		if sb.IsVar() {
			copy(db.Offsets, sb.Offsets[:*sb.OffsetsSize/8])
		}
	}
	src.Reset()
	return modes, nil
}

func checkCopy(name string, dst, src *AttributeBuffer) error {
	if dst.ValuesSize == nil || src.ValuesSize == nil {
		return fmt.Errorf("%w: attribute %q", ErrNullBuffer, name)
	}
	if dst.IsVar() != src.IsVar() {
		return fmt.Errorf("%w: attribute %q: cannot merge var-sized and fixed-size buffers", ErrBufferSizeMismatch, name)
	}
	if *dst.ValuesSize != *src.ValuesSize {
		return fmt.Errorf("%w: attribute %q: existing buffer size %d, incoming buffer size %d",
			ErrBufferSizeMismatch, name, *dst.ValuesSize, *src.ValuesSize)
	}
	n := *src.ValuesSize
	if uint64(len(dst.Values)) < n || uint64(len(src.Values)) < n {
		return fmt.Errorf("%w: attribute %q: %d bytes do not fit in the buffers", ErrBufferSizeMismatch, name, n)
	}
	if !src.IsVar() {
		return nil
	}
	if dst.OffsetsSize == nil || src.OffsetsSize == nil {
		return fmt.Errorf("%w: attribute %q offsets", ErrNullBuffer, name)
	}
	if *dst.OffsetsSize != *src.OffsetsSize {
		return fmt.Errorf("%w: attribute %q: existing offsets size %d, incoming offsets size %d",
			ErrBufferSizeMismatch, name, *dst.OffsetsSize, *src.OffsetsSize)
	}
	k := *src.OffsetsSize / 8
	if uint64(len(dst.Offsets)) < k || uint64(len(src.Offsets)) < k {
		return fmt.Errorf("%w: attribute %q: %d offsets do not fit in the buffers", ErrBufferSizeMismatch, name, k)
	}
	return nil
}

// CheckVarAttrOffsets validates the offsets of a var-sized attribute
// against its values buffer. offsetsSize and valuesSize are byte counts.
// The offsets must be strictly ascending and each must point inside the
// values buffer. No offsets at all is valid.
func CheckVarAttrOffsets(offsets []uint64, offsetsSize, valuesSize *uint64) error {
	if offsetsSize == nil || valuesSize == nil {
		return fmt.Errorf("%w: cannot use null offset buffers", ErrNullBuffer)
	}
	n := *offsetsSize / 8
	if n == 0 {
		return nil
	}
	if offsets == nil {
		return fmt.Errorf("%w: cannot use null offset buffers", ErrNullBuffer)
	}
	if n > uint64(len(offsets)) {
		return fmt.Errorf("%w: offsets size %d exceeds the %d offsets supplied", ErrInvalidOffsets, *offsetsSize, len(offsets))
	}

	prev := offsets[0]
	if prev >= *valuesSize {
		return fmt.Errorf("%w: offset %d specified for buffer of size %d", ErrInvalidOffsets, prev, *valuesSize)
	}
	for _, off := range offsets[1:n] {
		if off <= prev {
			return fmt.Errorf("%w: offsets must be given in strictly ascending order", ErrInvalidOffsets)
		}
		if off >= *valuesSize {
			return fmt.Errorf("%w: offset %d specified for buffer of size %d", ErrInvalidOffsets, off, *valuesSize)
		}
		prev = off
	}
	return nil
}
