package datatype

import (
	"encoding/binary"
	"math"
)

// Integer is the set of Go integer types that back integer datatypes.
type Integer interface {
	int8 | int16 | int32 | int64 | uint8 | uint16 | uint32 | uint64
}

// Float is the set of Go floating-point types.
type Float interface {
	float32 | float64
}

// Scalar is the closed set of Go types a coordinate value can have.
type Scalar interface {
	Integer | Float
}

// TypeOf returns the datatype tag for the Go type T.
func TypeOf[T Scalar]() Datatype {
	var v T
	switch any(v).(type) {
	case int8:
		return Int8
	case int16:
		return Int16
	case int32:
		return Int32
	case int64:
		return Int64
	case uint8:
		return Uint8
	case uint16:
		return Uint16
	case uint32:
		return Uint32
	case uint64:
		return Uint64
	case float32:
		return Float32
	default:
		return Float64
	}
}

// Decode reads one little-endian value of type T from the start of b.
// b must hold at least the size of T.
func Decode[T Scalar](b []byte) T {
	var v T
	switch p := any(&v).(type) {
	case *int8:
		*p = int8(b[0])
	case *uint8:
		*p = b[0]
	case *int16:
		*p = int16(binary.LittleEndian.Uint16(b))
	case *uint16:
		*p = binary.LittleEndian.Uint16(b)
	case *int32:
		*p = int32(binary.LittleEndian.Uint32(b))
	case *uint32:
		*p = binary.LittleEndian.Uint32(b)
	case *int64:
		*p = int64(binary.LittleEndian.Uint64(b))
	case *uint64:
		*p = binary.LittleEndian.Uint64(b)
	case *float32:
		*p = math.Float32frombits(binary.LittleEndian.Uint32(b))
	case *float64:
		*p = math.Float64frombits(binary.LittleEndian.Uint64(b))
	}
	return v
}

// Put writes v in little-endian order to the start of b.
func Put[T Scalar](b []byte, v T) {
	switch x := any(v).(type) {
	case int8:
		b[0] = uint8(x)
	case uint8:
		b[0] = x
	case int16:
		binary.LittleEndian.PutUint16(b, uint16(x))
	case uint16:
		binary.LittleEndian.PutUint16(b, x)
	case int32:
		binary.LittleEndian.PutUint32(b, uint32(x))
	case uint32:
		binary.LittleEndian.PutUint32(b, x)
	case int64:
		binary.LittleEndian.PutUint64(b, uint64(x))
	case uint64:
		binary.LittleEndian.PutUint64(b, x)
	case float32:
		binary.LittleEndian.PutUint32(b, math.Float32bits(x))
	case float64:
		binary.LittleEndian.PutUint64(b, math.Float64bits(x))
	}
}

// Encode returns the little-endian encoding of vals.
func Encode[T Scalar](vals ...T) []byte {
	size := TypeOf[T]().Size()
	out := make([]byte, len(vals)*size)
	for i, v := range vals {
		Put(out[i*size:], v)
	}
	return out
}

// DecodeSlice decodes every complete value in b.
func DecodeSlice[T Scalar](b []byte) []T {
	size := TypeOf[T]().Size()
	n := len(b) / size
	out := make([]T, n)
	for i := range out {
		out[i] = Decode[T](b[i*size:])
	}
	return out
}

func maxOf[T Integer]() T {
	var v T
	switch p := any(&v).(type) {
	case *int8:
		*p = math.MaxInt8
	case *int16:
		*p = math.MaxInt16
	case *int32:
		*p = math.MaxInt32
	case *int64:
		*p = math.MaxInt64
	case *uint8:
		*p = math.MaxUint8
	case *uint16:
		*p = math.MaxUint16
	case *uint32:
		*p = math.MaxUint32
	case *uint64:
		*p = math.MaxUint64
	}
	return v
}
