package tiledb

import (
	"context"
	"encoding/binary"
	"fmt"
	"slices"

	"github.com/robert-malhotra/go-tiledb/internal/fragment"
	"github.com/robert-malhotra/go-tiledb/internal/layout"
)

// Reader is the default ReadPath of dense arrays.
//
// Each cell of the subarray takes its value from the newest fragment
// covering it, or a zero fill value where no fragment does. Cells are
// copied in the query layout until a buffer runs out of space; the next
// Read resumes at the first cell that did not fit.
type Reader struct {
	sm       *StorageManager
	schema   *ArraySchema
	frags    []*FragmentMetadata
	buffers  *BufferSet
	subarray []byte
	layout   Layout

	it         *layout.Iterator
	overlap    []*FragmentMetadata // newest first
	incomplete bool
	noResults  bool
}

// NewReader creates a reader that loads tiles through sm.
func NewReader(sm *StorageManager) *Reader {
	return &Reader{sm: sm, buffers: NewBufferSet(), layout: RowMajor}
}

func (r *Reader) SetArraySchema(schema *ArraySchema) { r.schema = schema }

// SetFragmentMetadata sets the fragments to read from.
func (r *Reader) SetFragmentMetadata(frags []*FragmentMetadata) {
	r.frags = slices.Clone(frags)
	fragment.SortByTimestamp(r.frags)
}

func (r *Reader) SetBuffer(name string, buf *AttributeBuffer) error {
	if r.schema != nil {
		if _, ok := r.schema.Attribute(name); !ok {
			return fmt.Errorf("%w: unknown attribute %q", ErrQuery, name)
		}
	}
	r.buffers.Set(name, buf)
	return nil
}

func (r *Reader) SetSubarray(subarray []byte) error {
	r.subarray = slices.Clone(subarray)
	return nil
}

func (r *Reader) SetLayout(l Layout) error {
	if _, err := l.order(); err != nil {
		return err
	}
	r.layout = l
	return nil
}

func (r *Reader) Incomplete() bool { return r.incomplete }
func (r *Reader) NoResults() bool  { return r.noResults }
func (r *Reader) FragmentNum() int { return len(r.frags) }

func (r *Reader) FragmentURIs() []string {
	uris := make([]string, len(r.frags))
	for i, f := range r.frags {
		uris[i] = f.URI
	}
	return uris
}

func (r *Reader) LastFragmentURI() string {
	if len(r.frags) == 0 {
		return ""
	}
	return r.frags[len(r.frags)-1].URI
}

// Init validates the configuration, positions the reader at the first
// cell of the subarray and prefetches the tiles it will need.
func (r *Reader) Init(ctx context.Context) error {
	if r.sm == nil {
		return fmt.Errorf("%w: reader has no storage manager", ErrQuery)
	}
	if r.schema == nil {
		return fmt.Errorf("%w: array schema not set", ErrQuery)
	}
	if r.buffers.Len() == 0 {
		return fmt.Errorf("%w: no buffers set", ErrQuery)
	}
	attrs, err := r.attributes()
	if err != nil {
		return err
	}

	domain := r.schema.Domain()
	box, err := domain.box(r.subarray)
	if err != nil {
		return err
	}
	order, err := r.layout.order()
	if err != nil {
		return err
	}
	it, err := layout.NewIterator(box, order, domain.tileExtents())
	if err != nil {
		return fmt.Errorf("%w: %w", ErrQuery, err)
	}

	var overlap []*FragmentMetadata
	for i := len(r.frags) - 1; i >= 0; i-- {
		if _, ok := r.frags[i].Domain.Intersect(box); ok {
			overlap = append(overlap, r.frags[i])
		}
	}
	if err := r.prefetch(ctx, box, overlap, attrs); err != nil {
		return err
	}

	r.it = it
	r.overlap = overlap
	r.incomplete = false
	r.noResults = len(overlap) == 0
	return nil
}

func (r *Reader) attributes() ([]*Attribute, error) {
	attrs := make([]*Attribute, 0, r.buffers.Len())
	for _, name := range r.buffers.Names() {
		attr, ok := r.schema.Attribute(name)
		if !ok {
			return nil, fmt.Errorf("%w: unknown attribute %q", ErrQuery, name)
		}
		buf, _ := r.buffers.Get(name)
		if buf.ValuesSize == nil || (attr.IsVar() && buf.OffsetsSize == nil) {
			return nil, fmt.Errorf("%w: attribute %q", ErrNullBuffer, name)
		}
		attrs = append(attrs, attr)
	}
	return attrs, nil
}

// prefetch decodes, in parallel, every tile of the overlapping fragments
// that holds a cell of box.
func (r *Reader) prefetch(ctx context.Context, box layout.Box, frags []*FragmentMetadata, attrs []*Attribute) error {
	var tasks []func() error
	for _, f := range frags {
		f := f
		inter, _ := f.Domain.Intersect(box)
		first, last := f.TileSpan(inter)
		for _, attr := range attrs {
			attr := attr
			tasks = append(tasks, func() error {
				_, err := r.sm.loadTiles(ctx, f, attr, first, last)
				return err
			})
			if attr.IsVar() {
				tasks = append(tasks, func() error {
					_, err := r.sm.loadVar(ctx, f, attr)
					return err
				})
			}
		}
	}
	return r.sm.run(tasks)
}

type readTarget struct {
	attr *Attribute
	buf  *AttributeBuffer

	valuesCap, offsetsCap uint64
	values, offsets       uint64
}

// Read copies cells into the buffers until they are full or every cell of
// the subarray has been returned, then sets the size counters to the
// bytes produced.
func (r *Reader) Read(ctx context.Context) error {
	if r.it == nil {
		return fmt.Errorf("%w: reader is not initialized", ErrQuery)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	targets := make([]*readTarget, 0, r.buffers.Len())
	for _, name := range r.buffers.Names() {
		buf, _ := r.buffers.Get(name)
		attr, _ := r.schema.Attribute(name)
		t := &readTarget{
			attr:      attr,
			buf:       buf,
			valuesCap: min(*buf.ValuesSize, uint64(len(buf.Values))),
		}
		if attr.IsVar() {
			t.offsetsCap = min(*buf.OffsetsSize/8, uint64(len(buf.Offsets)))
		}
		targets = append(targets, t)
	}

	r.incomplete = false
	if r.noResults {
		for _, t := range targets {
			r.setSizes(t)
		}
		return nil
	}

	c := &cellLoader{sm: r.sm, ctx: ctx, tiles: make(map[string][]byte)}
	cells := make([][]byte, len(targets))
	for !r.it.Done() {
		coord := r.it.Peek()
		frag := r.resolve(coord)
		for i, t := range targets {
			v, err := c.value(frag, t.attr, coord)
			if err != nil {
				return err
			}
			cells[i] = v
		}
		if !fits(targets, cells) {
			r.incomplete = true
			break
		}
		for i, t := range targets {
			if t.attr.IsVar() {
				t.buf.Offsets[t.offsets] = t.values
				t.offsets++
			}
			copy(t.buf.Values[t.values:], cells[i])
			t.values += uint64(len(cells[i]))
		}
		r.it.Advance()
	}

	for _, t := range targets {
		r.setSizes(t)
	}
	return nil
}

func fits(targets []*readTarget, cells [][]byte) bool {
	for i, t := range targets {
		if t.values+uint64(len(cells[i])) > t.valuesCap {
			return false
		}
		if t.attr.IsVar() && t.offsets+1 > t.offsetsCap {
			return false
		}
	}
	return true
}

func (r *Reader) setSizes(t *readTarget) {
	*t.buf.ValuesSize = t.values
	if t.attr.IsVar() {
		*t.buf.OffsetsSize = t.offsets * 8
	}
}

// resolve returns the newest fragment holding coord, or nil.
func (r *Reader) resolve(coord []uint64) *FragmentMetadata {
	for _, f := range r.overlap {
		if f.Domain.Contains(coord) {
			return f
		}
	}
	return nil
}

// cellLoader fetches cell values, remembering the tiles used by one Read.
type cellLoader struct {
	sm    *StorageManager
	ctx   context.Context
	tiles map[string][]byte
}

func (c *cellLoader) tile(f *FragmentMetadata, attr *Attribute, t uint64) ([]byte, error) {
	key := tileKey(f.URI, attr.Name, t)
	if data, ok := c.tiles[key]; ok {
		return data, nil
	}
	tiles, err := c.sm.loadTiles(c.ctx, f, attr, t, t)
	if err != nil {
		return nil, err
	}
	c.tiles[key] = tiles[0]
	return tiles[0], nil
}

func (c *cellLoader) vars(f *FragmentMetadata, attr *Attribute) ([]byte, error) {
	key := fragment.VarKey(f.URI, attr.Name)
	if data, ok := c.tiles[key]; ok {
		return data, nil
	}
	data, err := c.sm.loadVar(c.ctx, f, attr)
	if err != nil {
		return nil, err
	}
	c.tiles[key] = data
	return data, nil
}

// value returns the bytes of one cell: CellSize bytes for fixed-size
// attributes and the cell's values for var-sized ones.
func (c *cellLoader) value(f *FragmentMetadata, attr *Attribute, coord []uint64) ([]byte, error) {
	if f == nil {
		if attr.IsVar() {
			return make([]byte, attr.Type.Size()), nil
		}
		return make([]byte, attr.CellSize()), nil
	}

	if !attr.IsVar() {
		t, cell := f.Locate(coord)
		data, err := c.tile(f, attr, t)
		if err != nil {
			return nil, err
		}
		cs := attr.CellSize()
		if (cell+1)*cs > uint64(len(data)) {
			return nil, fmt.Errorf("%w: fragment %q attribute %q: cell %d past end of tile %d", ErrStorage, f.URI, attr.Name, cell, t)
		}
		return data[cell*cs : (cell+1)*cs], nil
	}

	idx := f.Domain.RowMajorIndex(coord)
	start, err := c.offset(f, attr, idx)
	if err != nil {
		return nil, err
	}
	values, err := c.vars(f, attr)
	if err != nil {
		return nil, err
	}
	end := uint64(len(values))
	if idx+1 < f.CellNum() {
		if end, err = c.offset(f, attr, idx+1); err != nil {
			return nil, err
		}
	}
	if start > end || end > uint64(len(values)) {
		return nil, fmt.Errorf("%w: fragment %q attribute %q: cell %d spans [%d, %d) of %d value bytes",
			ErrStorage, f.URI, attr.Name, idx, start, end, len(values))
	}
	return values[start:end], nil
}

// offset returns the stored offset of the idx-th cell in row-major order.
func (c *cellLoader) offset(f *FragmentMetadata, attr *Attribute, idx uint64) (uint64, error) {
	t, cell := idx/f.TileCells, idx%f.TileCells
	data, err := c.tile(f, attr, t)
	if err != nil {
		return 0, err
	}
	if (cell+1)*8 > uint64(len(data)) {
		return 0, fmt.Errorf("%w: fragment %q attribute %q: offset %d past end of tile %d", ErrStorage, f.URI, attr.Name, cell, t)
	}
	return binary.LittleEndian.Uint64(data[cell*8:]), nil
}
