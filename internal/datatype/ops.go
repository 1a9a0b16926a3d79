package datatype

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"strconv"
)

var (
	ErrInvalidDomain     = errors.New("invalid domain")
	ErrInvalidTileExtent = errors.New("invalid tile extent")
	ErrOverflow          = errors.New("value exceeds the datatype range")
	ErrShortBuffer       = errors.New("buffer too short for datatype")
)

// Ops is the set of typed operations on raw little-endian scalar values of a
// single datatype. Obtain one with Of.
type Ops interface {
	Datatype() Datatype
	Size() int

	// Compare returns -1, 0 or +1 comparing the values at the start of a and b.
	Compare(a, b []byte) int

	// CheckDomain validates a [low, high] pair.
	CheckDomain(domain []byte) error

	// CheckTileExtent validates a tile extent against a valid domain.
	CheckTileExtent(domain, extent []byte) error

	// DomainRange returns the tile extent that covers the whole domain with a
	// single tile.
	DomainRange(domain []byte) ([]byte, error)

	// Span returns the number of coordinates in [lo, hi]. Integer types only.
	Span(lo, hi []byte) (uint64, error)

	// Distance returns v - base for v >= base. Integer types only.
	Distance(base, v []byte) (uint64, error)

	// Add returns base + n. Integer types only.
	Add(base []byte, n uint64) ([]byte, error)

	Format(b []byte) string
	Parse(s string) ([]byte, error)
}

// table is the single dispatch point from a datatype tag to its typed
// operations. Adding a coordinate type means adding one entry here.
var table = map[Datatype]Ops{
	Int8:    integer[int8]{},
	Uint8:   integer[uint8]{},
	Int16:   integer[int16]{},
	Uint16:  integer[uint16]{},
	Int32:   integer[int32]{},
	Uint32:  integer[uint32]{},
	Int64:   integer[int64]{},
	Uint64:  integer[uint64]{},
	Float32: float[float32]{},
	Float64: float[float64]{},
}

// Of returns the typed operations for dt. String and ANY datatypes are not
// valid coordinate types and yield ErrUnsupported.
func Of(dt Datatype) (Ops, error) {
	ops, ok := table[dt]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, dt)
	}
	return ops, nil
}

func checkLen(b []byte, n, size int) error {
	if len(b) < n*size {
		return fmt.Errorf("%w: need %d bytes, have %d", ErrShortBuffer, n*size, len(b))
	}
	return nil
}

func pair[T Scalar](b []byte) (T, T) {
	size := TypeOf[T]().Size()
	return Decode[T](b), Decode[T](b[size:])
}

type integer[T Integer] struct{}

func (integer[T]) Datatype() Datatype { return TypeOf[T]() }
func (integer[T]) Size() int          { return TypeOf[T]().Size() }

func (integer[T]) Compare(a, b []byte) int {
	return cmp.Compare(Decode[T](a), Decode[T](b))
}

// diff returns hi - lo as an exact unsigned distance, assuming lo <= hi.
// Signed values are sign-extended before the subtraction, so the result is
// correct modulo 2^64 for every integer width.
func diff[T Integer](lo, hi T) uint64 {
	return uint64(hi) - uint64(lo)
}

func (o integer[T]) CheckDomain(domain []byte) error {
	if err := checkLen(domain, 2, o.Size()); err != nil {
		return err
	}
	lo, hi := pair[T](domain)
	if lo > hi {
		return fmt.Errorf("%w: lower bound %v is larger than upper bound %v", ErrInvalidDomain, lo, hi)
	}
	if diff(lo, hi) == math.MaxUint64 {
		return fmt.Errorf("%w: domain range (upper - lower + 1) exceeds the maximum uint64 value", ErrInvalidDomain)
	}
	return nil
}

func (o integer[T]) CheckTileExtent(domain, extent []byte) error {
	if err := checkLen(domain, 2, o.Size()); err != nil {
		return err
	}
	if err := checkLen(extent, 1, o.Size()); err != nil {
		return err
	}
	lo, hi := pair[T](domain)
	e := Decode[T](extent)
	if e <= 0 {
		return fmt.Errorf("%w: tile extent must be greater than 0", ErrInvalidTileExtent)
	}

	rng := diff(lo, hi) + 1
	ue := uint64(e)
	if ue > rng {
		return fmt.Errorf("%w: tile extent %v exceeds dimension domain range %d", ErrInvalidTileExtent, e, rng)
	}
	if rng%ue == 0 {
		return nil
	}

	// The last tile is partial, so the tiled domain ends at
	// lo + ceil(rng/e)*e - 1 which must still be representable.
	tiles := (rng-1)/ue + 1
	if tiles > math.MaxUint64/ue {
		return fmt.Errorf("%w: number of tiles overflows", ErrOverflow)
	}
	span := tiles*ue - 1
	room := uint64(maxOf[T]()) - uint64(lo)
	if span > room {
		return fmt.Errorf("%w: domain max expanded to a multiple of tile extent %v exceeds the max value of %s; reduce the domain max by one tile extent",
			ErrOverflow, e, TypeOf[T]())
	}
	return nil
}

func (o integer[T]) DomainRange(domain []byte) ([]byte, error) {
	if err := checkLen(domain, 2, o.Size()); err != nil {
		return nil, err
	}
	lo, hi := pair[T](domain)
	d := diff(lo, hi)
	if d == math.MaxUint64 || d+1 > uint64(maxOf[T]()) {
		return nil, fmt.Errorf("%w: domain range exceeds the max value of %s", ErrOverflow, TypeOf[T]())
	}
	return Encode(T(d + 1)), nil
}

func (o integer[T]) Span(lo, hi []byte) (uint64, error) {
	if err := checkLen(lo, 1, o.Size()); err != nil {
		return 0, err
	}
	if err := checkLen(hi, 1, o.Size()); err != nil {
		return 0, err
	}
	l, h := Decode[T](lo), Decode[T](hi)
	if l > h {
		return 0, fmt.Errorf("%w: lower bound %v is larger than upper bound %v", ErrInvalidDomain, l, h)
	}
	d := diff(l, h)
	if d == math.MaxUint64 {
		return 0, fmt.Errorf("%w: range does not fit in uint64", ErrOverflow)
	}
	return d + 1, nil
}

func (o integer[T]) Distance(base, v []byte) (uint64, error) {
	if err := checkLen(base, 1, o.Size()); err != nil {
		return 0, err
	}
	if err := checkLen(v, 1, o.Size()); err != nil {
		return 0, err
	}
	b, x := Decode[T](base), Decode[T](v)
	if x < b {
		return 0, fmt.Errorf("%w: %v is below %v", ErrInvalidDomain, x, b)
	}
	return diff(b, x), nil
}

func (o integer[T]) Add(base []byte, n uint64) ([]byte, error) {
	if err := checkLen(base, 1, o.Size()); err != nil {
		return nil, err
	}
	b := Decode[T](base)
	if n > uint64(maxOf[T]())-uint64(b) {
		return nil, fmt.Errorf("%w: %v + %d", ErrOverflow, b, n)
	}
	return Encode(T(uint64(b) + n)), nil
}

func (integer[T]) Format(b []byte) string {
	return fmt.Sprint(Decode[T](b))
}

func (o integer[T]) Parse(s string) ([]byte, error) {
	var zero T
	bits := o.Size() * 8
	if zero-1 < zero {
		v, err := strconv.ParseInt(s, 10, bits)
		if err != nil {
			return nil, err
		}
		return Encode(T(v)), nil
	}
	v, err := strconv.ParseUint(s, 10, bits)
	if err != nil {
		return nil, err
	}
	return Encode(T(v)), nil
}

type float[T Float] struct{}

func (float[T]) Datatype() Datatype { return TypeOf[T]() }
func (float[T]) Size() int          { return TypeOf[T]().Size() }

func (float[T]) Compare(a, b []byte) int {
	return cmp.Compare(Decode[T](a), Decode[T](b))
}

func finite[T Float](v T) bool {
	f := float64(v)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func (o float[T]) CheckDomain(domain []byte) error {
	if err := checkLen(domain, 2, o.Size()); err != nil {
		return err
	}
	lo, hi := pair[T](domain)
	if !finite(lo) || !finite(hi) {
		return fmt.Errorf("%w: domain contains NaN or infinity", ErrInvalidDomain)
	}
	if lo > hi {
		return fmt.Errorf("%w: lower bound %v is larger than upper bound %v", ErrInvalidDomain, lo, hi)
	}
	return nil
}

// CheckTileExtent accepts any finite positive extent up to the domain range
// plus one. The extent does not have to divide the range evenly.
func (o float[T]) CheckTileExtent(domain, extent []byte) error {
	if err := checkLen(domain, 2, o.Size()); err != nil {
		return err
	}
	if err := checkLen(extent, 1, o.Size()); err != nil {
		return err
	}
	lo, hi := pair[T](domain)
	e := Decode[T](extent)
	if !finite(e) || e <= 0 {
		return fmt.Errorf("%w: tile extent must be a finite value greater than 0", ErrInvalidTileExtent)
	}
	if e > hi-lo+1 {
		return fmt.Errorf("%w: tile extent %v exceeds dimension domain range", ErrInvalidTileExtent, e)
	}
	return nil
}

func (o float[T]) DomainRange(domain []byte) ([]byte, error) {
	if err := checkLen(domain, 2, o.Size()); err != nil {
		return nil, err
	}
	lo, hi := pair[T](domain)
	r := hi - lo
	if !finite(r) {
		return nil, fmt.Errorf("%w: domain range is not finite", ErrOverflow)
	}
	if r <= 0 {
		return nil, fmt.Errorf("%w: domain range is zero", ErrInvalidTileExtent)
	}
	return Encode(r), nil
}

func (float[T]) Span(lo, hi []byte) (uint64, error) {
	return 0, fmt.Errorf("%w: %s coordinates are not countable", ErrUnsupported, TypeOf[T]())
}

func (float[T]) Distance(base, v []byte) (uint64, error) {
	return 0, fmt.Errorf("%w: %s coordinates are not countable", ErrUnsupported, TypeOf[T]())
}

func (float[T]) Add(base []byte, n uint64) ([]byte, error) {
	return nil, fmt.Errorf("%w: %s coordinates are not countable", ErrUnsupported, TypeOf[T]())
}

func (o float[T]) Format(b []byte) string {
	return strconv.FormatFloat(float64(Decode[T](b)), 'g', -1, o.Size()*8)
}

func (o float[T]) Parse(s string) ([]byte, error) {
	v, err := strconv.ParseFloat(s, o.Size()*8)
	if err != nil {
		return nil, err
	}
	return Encode(T(v)), nil
}
