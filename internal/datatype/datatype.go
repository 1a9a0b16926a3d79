package datatype

import (
	"errors"
	"fmt"
	"strings"
)

// Datatype identifies the type of a dimension, attribute or coordinate value.
// The numeric values are part of the serialized schema format.
type Datatype uint8

const (
	Int32       Datatype = 0
	Int64       Datatype = 1
	Float32     Datatype = 2
	Float64     Datatype = 3
	Char        Datatype = 4
	Int8        Datatype = 5
	Uint8       Datatype = 6
	Int16       Datatype = 7
	Uint16      Datatype = 8
	Uint32      Datatype = 9
	Uint64      Datatype = 10
	StringASCII Datatype = 11
	StringUTF8  Datatype = 12
	StringUTF16 Datatype = 13
	StringUTF32 Datatype = 14
	StringUCS2  Datatype = 15
	StringUCS4  Datatype = 16
	Any         Datatype = 17
)

// ErrUnsupported is returned when an operation is not defined for a datatype.
var ErrUnsupported = errors.New("unsupported datatype")

// ErrUnknown is returned when a datatype tag or name is not recognized.
var ErrUnknown = errors.New("unknown datatype")

var names = map[Datatype]string{
	Int32:       "INT32",
	Int64:       "INT64",
	Float32:     "FLOAT32",
	Float64:     "FLOAT64",
	Char:        "CHAR",
	Int8:        "INT8",
	Uint8:       "UINT8",
	Int16:       "INT16",
	Uint16:      "UINT16",
	Uint32:      "UINT32",
	Uint64:      "UINT64",
	StringASCII: "STRING_ASCII",
	StringUTF8:  "STRING_UTF8",
	StringUTF16: "STRING_UTF16",
	StringUTF32: "STRING_UTF32",
	StringUCS2:  "STRING_UCS2",
	StringUCS4:  "STRING_UCS4",
	Any:         "ANY",
}

// String returns the canonical upper-case name of the datatype.
func (dt Datatype) String() string {
	if s, ok := names[dt]; ok {
		return s
	}
	return fmt.Sprintf("Datatype(%d)", uint8(dt))
}

// Valid reports whether dt is a known datatype tag.
func (dt Datatype) Valid() bool {
	_, ok := names[dt]
	return ok
}

// Size returns the size in bytes of a single value of the datatype.
func (dt Datatype) Size() int {
	switch dt {
	case Int8, Uint8, Char, StringASCII, StringUTF8, Any:
		return 1
	case Int16, Uint16, StringUTF16, StringUCS2:
		return 2
	case Int32, Uint32, Float32, StringUTF32, StringUCS4:
		return 4
	case Int64, Uint64, Float64:
		return 8
	default:
		return 0
	}
}

// IsInteger reports whether dt is a signed or unsigned integer type.
func (dt Datatype) IsInteger() bool {
	switch dt {
	case Int8, Uint8, Int16, Uint16, Int32, Uint32, Int64, Uint64:
		return true
	}
	return false
}

// IsFloat reports whether dt is a floating-point type.
func (dt Datatype) IsFloat() bool {
	return dt == Float32 || dt == Float64
}

// IsString reports whether dt is a character or string type.
func (dt Datatype) IsString() bool {
	switch dt {
	case Char, StringASCII, StringUTF8, StringUTF16, StringUTF32, StringUCS2, StringUCS4:
		return true
	}
	return false
}

// Parse returns the datatype named by s. Matching is case-insensitive.
func Parse(s string) (Datatype, error) {
	u := strings.ToUpper(strings.TrimSpace(s))
	for dt, name := range names {
		if name == u {
			return dt, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknown, s)
}

// FromTag validates a serialized datatype tag.
func FromTag(tag uint8) (Datatype, error) {
	dt := Datatype(tag)
	if !dt.Valid() {
		return 0, fmt.Errorf("%w: tag %d", ErrUnknown, tag)
	}
	return dt, nil
}
