// Package layout provides the cell-order arithmetic shared by the read and
// write paths of dense arrays.
//
// Coordinates are handled as uint64 positions relative to each dimension's
// domain low bound, so the same code serves every integer coordinate
// datatype. A [Box] is one inclusive [Range] per dimension.
//
// # Cell Orders
//
// Three traversal orders are supported:
//
//   - [RowMajor]: the last dimension varies fastest.
//   - [ColMajor]: the first dimension varies fastest.
//   - [GlobalOrder]: space tiles are visited in row-major order, and the
//     cells inside each tile in row-major order. Tiles are anchored at
//     position 0 and clipped to the box being traversed.
//
// For example, a 4x4 box with 2x2 tiles is visited in global order as
//
//	 0  1 |  4  5
//	 2  3 |  6  7
//	------+------
//	 8  9 | 12 13
//	10 11 | 14 15
//
// # Iteration
//
// An [Iterator] is resumable: a reader that fills its result buffers stops
// at the current cell and continues from it on the next pass.
//
//	it, err := layout.NewIterator(box, layout.GlobalOrder, extents)
//	for coord := it.Peek(); coord != nil; coord = it.Peek() {
//	    idx := fragmentBox.RowMajorIndex(coord)
//	    ...
//	    it.Advance()
//	}
//
// # Stored Order
//
// Fragments store every attribute in row-major order of their own box, so
// [Box.RowMajorIndex] maps any cell to its position in stored data
// regardless of the order it was written or is being read in.
package layout
