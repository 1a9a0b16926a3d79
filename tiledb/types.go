package tiledb

import (
	"fmt"
	"strings"

	"github.com/robert-malhotra/go-tiledb/internal/datatype"
	"github.com/robert-malhotra/go-tiledb/internal/layout"
)

// Datatype is the type tag of dimension, attribute and coordinate values.
type Datatype = datatype.Datatype

const (
	Int32       = datatype.Int32
	Int64       = datatype.Int64
	Float32     = datatype.Float32
	Float64     = datatype.Float64
	Char        = datatype.Char
	Int8        = datatype.Int8
	Uint8       = datatype.Uint8
	Int16       = datatype.Int16
	Uint16      = datatype.Uint16
	Uint32      = datatype.Uint32
	Uint64      = datatype.Uint64
	StringASCII = datatype.StringASCII
	StringUTF8  = datatype.StringUTF8
	StringUTF16 = datatype.StringUTF16
	StringUTF32 = datatype.StringUTF32
	StringUCS2  = datatype.StringUCS2
	StringUCS4  = datatype.StringUCS4
	Any         = datatype.Any
)

// Layout is the cell order in which a query fills or drains its buffers.
type Layout uint8

const (
	RowMajor Layout = iota
	ColMajor
	GlobalOrder
	Unordered
)

var layoutNames = [...]string{"row-major", "col-major", "global-order", "unordered"}

func (l Layout) String() string {
	if int(l) < len(layoutNames) {
		return layoutNames[l]
	}
	return fmt.Sprintf("Layout(%d)", uint8(l))
}

// ParseLayout returns the layout named s, e.g. "row-major".
func ParseLayout(s string) (Layout, error) {
	for i, name := range layoutNames {
		if strings.EqualFold(s, name) {
			return Layout(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown layout %q", ErrQuery, s)
}

// order maps a layout to a dense cell order. Unordered has none.
func (l Layout) order() (layout.Order, error) {
	switch l {
	case RowMajor:
		return layout.RowMajor, nil
	case ColMajor:
		return layout.ColMajor, nil
	case GlobalOrder:
		return layout.GlobalOrder, nil
	default:
		return 0, fmt.Errorf("%w: layout %s is not supported for dense arrays", ErrQuery, l)
	}
}

// QueryType selects the read or write path of a query.
type QueryType uint8

const (
	Read QueryType = iota
	Write
)

func (t QueryType) String() string {
	switch t {
	case Read:
		return "read"
	case Write:
		return "write"
	default:
		return fmt.Sprintf("QueryType(%d)", uint8(t))
	}
}

// QueryStatus is the lifecycle state of a query.
type QueryStatus uint8

const (
	Uninitialized QueryStatus = iota
	InProgress
	Completed
	Incomplete
	Failed
)

var statusNames = [...]string{"UNINITIALIZED", "INPROGRESS", "COMPLETED", "INCOMPLETE", "FAILED"}

func (s QueryStatus) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return fmt.Sprintf("QueryStatus(%d)", uint8(s))
}

// ParseQueryType returns the query type named s, "read" or "write".
func ParseQueryType(s string) (QueryType, error) {
	switch strings.ToLower(s) {
	case "read":
		return Read, nil
	case "write":
		return Write, nil
	default:
		return 0, fmt.Errorf("%w: unknown query type %q", ErrQuery, s)
	}
}

// ParseQueryStatus returns the status named s, e.g. "INCOMPLETE".
func ParseQueryStatus(s string) (QueryStatus, error) {
	for i, name := range statusNames {
		if strings.EqualFold(s, name) {
			return QueryStatus(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown query status %q", ErrQuery, s)
}
