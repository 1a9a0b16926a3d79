package layout

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidBox is returned for boxes with inverted or mismatched ranges.
var ErrInvalidBox = errors.New("invalid box")

// Order is a cell traversal order.
type Order uint8

const (
	// RowMajor visits cells with the last dimension varying fastest.
	RowMajor Order = iota
	// ColMajor visits cells with the first dimension varying fastest.
	ColMajor
	// GlobalOrder visits space tiles in row-major order and the cells of
	// each tile in row-major order.
	GlobalOrder
)

func (o Order) String() string {
	switch o {
	case RowMajor:
		return "row-major"
	case ColMajor:
		return "col-major"
	case GlobalOrder:
		return "global-order"
	default:
		return fmt.Sprintf("Order(%d)", uint8(o))
	}
}

// Range is an inclusive range of cell positions along one dimension.
// Positions are offsets from the dimension's domain low bound.
type Range struct {
	Lo, Hi uint64
}

// Len returns the number of positions in the range.
func (r Range) Len() uint64 {
	return r.Hi - r.Lo + 1
}

// Box is a hyper-rectangle of cells, one Range per dimension.
type Box []Range

// Validate checks that every range is non-inverted and that the total cell
// count fits in a uint64.
func (b Box) Validate() error {
	if len(b) == 0 {
		return fmt.Errorf("%w: no dimensions", ErrInvalidBox)
	}
	total := uint64(1)
	for i, r := range b {
		if r.Lo > r.Hi {
			return fmt.Errorf("%w: dimension %d range [%d, %d] is inverted", ErrInvalidBox, i, r.Lo, r.Hi)
		}
		n := r.Hi - r.Lo
		if n == math.MaxUint64 || total > math.MaxUint64/(n+1) {
			return fmt.Errorf("%w: cell count overflows", ErrInvalidBox)
		}
		total *= n + 1
	}
	return nil
}

// NumCells returns the number of cells in the box. The box must be valid.
func (b Box) NumCells() uint64 {
	n := uint64(1)
	for _, r := range b {
		n *= r.Len()
	}
	return n
}

// Contains reports whether coord lies inside the box.
func (b Box) Contains(coord []uint64) bool {
	if len(coord) != len(b) {
		return false
	}
	for i, r := range b {
		if coord[i] < r.Lo || coord[i] > r.Hi {
			return false
		}
	}
	return true
}

// Intersect returns the overlap of b and o, and false if they are disjoint.
func (b Box) Intersect(o Box) (Box, bool) {
	if len(b) != len(o) {
		return nil, false
	}
	out := make(Box, len(b))
	for i := range b {
		lo := max(b[i].Lo, o[i].Lo)
		hi := min(b[i].Hi, o[i].Hi)
		if lo > hi {
			return nil, false
		}
		out[i] = Range{Lo: lo, Hi: hi}
	}
	return out, true
}

// Equal reports whether both boxes cover the same cells.
func (b Box) Equal(o Box) bool {
	if len(b) != len(o) {
		return false
	}
	for i := range b {
		if b[i] != o[i] {
			return false
		}
	}
	return true
}

// Clone returns a copy of the box.
func (b Box) Clone() Box {
	return append(Box(nil), b...)
}

// RowMajorIndex returns the position of coord in a row-major traversal of
// the box. coord must lie inside the box.
func (b Box) RowMajorIndex(coord []uint64) uint64 {
	var idx uint64
	for i, r := range b {
		idx = idx*r.Len() + (coord[i] - r.Lo)
	}
	return idx
}

// ColMajorIndex returns the position of coord in a column-major traversal
// of the box. coord must lie inside the box.
func (b Box) ColMajorIndex(coord []uint64) uint64 {
	var idx uint64
	for i := len(b) - 1; i >= 0; i-- {
		idx = idx*b[i].Len() + (coord[i] - b[i].Lo)
	}
	return idx
}

// TileGrid returns the box of tile coordinates that overlap b, for tiles of
// the given extents anchored at position 0.
func (b Box) TileGrid(extents []uint64) Box {
	out := make(Box, len(b))
	for i, r := range b {
		out[i] = Range{Lo: r.Lo / extents[i], Hi: r.Hi / extents[i]}
	}
	return out
}

// TileBox returns the cells of the tile at tile coordinate t, clipped to b.
func (b Box) TileBox(extents, t []uint64) Box {
	out := make(Box, len(b))
	for i, r := range b {
		lo := t[i] * extents[i]
		hi := lo + extents[i] - 1
		if hi < lo {
			hi = math.MaxUint64
		}
		out[i] = Range{Lo: max(lo, r.Lo), Hi: min(hi, r.Hi)}
	}
	return out
}
