// Package datatype provides the scalar datatype tags used by array schemas
// and the typed operations dispatched on them.
//
// Values are stored type-erased, as little-endian bytes tagged with a
// [Datatype]. Every operation that needs the concrete numeric type goes
// through [Of], which maps a tag to an [Ops] implementation. The mapping is a
// single table, so supporting another coordinate type is one entry:
//
//	Datatype | Go type | Ops
//	---------|---------|------------------
//	INT8     | int8    | integer[int8]
//	UINT8    | uint8   | integer[uint8]
//	INT16    | int16   | integer[int16]
//	UINT16   | uint16  | integer[uint16]
//	INT32    | int32   | integer[int32]
//	UINT32   | uint32  | integer[uint32]
//	INT64    | int64   | integer[int64]
//	UINT64   | uint64  | integer[uint64]
//	FLOAT32  | float32 | float[float32]
//	FLOAT64  | float64 | float[float64]
//
// Character, string and ANY datatypes are valid attribute types but not
// coordinate types; [Of] returns [ErrUnsupported] for them.
//
// # Typed Access
//
// Callers that know the Go type use the generic helpers directly:
//
//	raw := datatype.Encode[int32](1, 100)
//	lo := datatype.Decode[int32](raw)
//	vals := datatype.DecodeSlice[int32](raw)
//
// # Integer Arithmetic
//
// Integer ranges are computed as exact uint64 distances so that the full range
// of every width, signed or not, is handled without overflow. Checks that can
// overflow (tile extents that expand the domain, domain ranges used as a
// single tile) report [ErrOverflow].
package datatype
