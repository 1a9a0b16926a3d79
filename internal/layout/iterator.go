package layout

import "fmt"

// odometer steps a coordinate through a box, one dimension rolling over
// into the next.
type odometer struct {
	box      Box
	cur      []uint64
	lastFast bool
	done     bool
}

func newOdometer(box Box, lastFast bool) odometer {
	cur := make([]uint64, len(box))
	for i, r := range box {
		cur[i] = r.Lo
	}
	return odometer{box: box, cur: cur, lastFast: lastFast}
}

// step advances the coordinate and reports false once it wraps around.
func (o *odometer) step() bool {
	n := len(o.box)
	for k := 0; k < n; k++ {
		d := k
		if o.lastFast {
			d = n - 1 - k
		}
		if o.cur[d] < o.box[d].Hi {
			o.cur[d]++
			return true
		}
		o.cur[d] = o.box[d].Lo
	}
	o.done = true
	return false
}

// Iterator visits every cell of a box in a given order.
//
// The slice returned by Peek is reused between calls; callers that keep a
// coordinate must copy it.
type Iterator struct {
	box     Box
	order   Order
	extents []uint64

	tiles odometer
	cells odometer
	done  bool
	pos   uint64
}

// NewIterator creates an iterator over box. extents are the space tile
// extents used by GlobalOrder; they are ignored for the other orders.
func NewIterator(box Box, order Order, extents []uint64) (*Iterator, error) {
	if err := box.Validate(); err != nil {
		return nil, err
	}
	it := &Iterator{box: box.Clone(), order: order}

	switch order {
	case RowMajor:
		it.cells = newOdometer(it.box, true)
	case ColMajor:
		it.cells = newOdometer(it.box, false)
	case GlobalOrder:
		if len(extents) != len(box) {
			return nil, fmt.Errorf("%w: %d tile extents for %d dimensions", ErrInvalidBox, len(extents), len(box))
		}
		for i, e := range extents {
			if e == 0 {
				return nil, fmt.Errorf("%w: zero tile extent on dimension %d", ErrInvalidBox, i)
			}
		}
		it.extents = append([]uint64(nil), extents...)
		it.tiles = newOdometer(it.box.TileGrid(it.extents), true)
		it.cells = newOdometer(it.box.TileBox(it.extents, it.tiles.cur), true)
	default:
		return nil, fmt.Errorf("unsupported order %s", order)
	}
	return it, nil
}

// Done reports whether every cell has been visited.
func (it *Iterator) Done() bool {
	return it.done
}

// Pos returns the number of cells visited so far.
func (it *Iterator) Pos() uint64 {
	return it.pos
}

// Peek returns the current cell, or nil when the iterator is done.
func (it *Iterator) Peek() []uint64 {
	if it.done {
		return nil
	}
	return it.cells.cur
}

// Advance moves to the next cell.
func (it *Iterator) Advance() {
	if it.done {
		return
	}
	it.pos++
	if it.cells.step() {
		return
	}
	if it.order != GlobalOrder || !it.tiles.step() {
		it.done = true
		return
	}
	it.cells = newOdometer(it.box.TileBox(it.extents, it.tiles.cur), true)
}
