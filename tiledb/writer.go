package tiledb

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"path"
	"slices"
	"time"

	"github.com/robert-malhotra/go-tiledb/internal/datatype"
	"github.com/robert-malhotra/go-tiledb/internal/filter"
	"github.com/robert-malhotra/go-tiledb/internal/fragment"
	"github.com/robert-malhotra/go-tiledb/internal/layout"
)

// Writer is the default WritePath of dense arrays. It writes the whole
// subarray as one new fragment.
//
// Row-major and col-major writes commit the fragment in Write. Global
// order writes store the tile data in Write and commit it in Finalize.
type Writer struct {
	sm       *StorageManager
	schema   *ArraySchema
	buffers  *BufferSet
	subarray []byte
	layout   Layout
	fragURI  string

	box       layout.Box
	pending   *FragmentMetadata
	committed string
}

// NewWriter creates a writer that stores fragments through sm.
func NewWriter(sm *StorageManager) *Writer {
	return &Writer{sm: sm, buffers: NewBufferSet(), layout: RowMajor}
}

func (w *Writer) SetArraySchema(schema *ArraySchema) { w.schema = schema }

func (w *Writer) SetBuffer(name string, buf *AttributeBuffer) error {
	if w.schema != nil {
		if _, ok := w.schema.Attribute(name); !ok {
			return fmt.Errorf("%w: unknown attribute %q", ErrQuery, name)
		}
	}
	w.buffers.Set(name, buf)
	return nil
}

func (w *Writer) SetSubarray(subarray []byte) error {
	w.subarray = slices.Clone(subarray)
	return nil
}

func (w *Writer) SetLayout(l Layout) error {
	if _, err := l.order(); err != nil {
		return err
	}
	w.layout = l
	return nil
}

// SetFragmentURI sets the location of the fragment to create. By default a
// fresh __<uuid>_<timestamp> name under the array is used.
func (w *Writer) SetFragmentURI(uri string) { w.fragURI = uri }

// FragmentURI returns the fragment the last Write created, committed or
// not.
func (w *Writer) FragmentURI() string {
	if w.pending != nil {
		return w.pending.URI
	}
	return w.committed
}

// Init checks that every attribute of the schema has a buffer and resolves
// the subarray.
func (w *Writer) Init(ctx context.Context) error {
	if w.sm == nil {
		return fmt.Errorf("%w: writer has no storage manager", ErrQuery)
	}
	if w.schema == nil {
		return fmt.Errorf("%w: array schema not set", ErrQuery)
	}
	for _, attr := range w.schema.Attributes() {
		if _, ok := w.buffers.Get(attr.Name); !ok {
			return fmt.Errorf("%w: all attributes must be set for writes; missing %q", ErrQuery, attr.Name)
		}
	}
	box, err := w.schema.Domain().box(w.subarray)
	if err != nil {
		return err
	}
	if _, err := w.layout.order(); err != nil {
		return err
	}
	w.box = box
	w.pending = nil
	return nil
}

func (w *Writer) check(attr *Attribute, buf *AttributeBuffer, cells uint64) error {
	if buf.ValuesSize == nil {
		return fmt.Errorf("%w: attribute %q", ErrNullBuffer, attr.Name)
	}
	if !attr.IsVar() {
		want := cells * attr.CellSize()
		if *buf.ValuesSize != want || uint64(len(buf.Values)) < want {
			return fmt.Errorf("%w: attribute %q: buffer holds %d bytes, subarray needs %d",
				ErrBufferSizeMismatch, attr.Name, *buf.ValuesSize, want)
		}
		return nil
	}

	if buf.OffsetsSize == nil {
		return fmt.Errorf("%w: attribute %q offsets", ErrNullBuffer, attr.Name)
	}
	if *buf.OffsetsSize != cells*8 {
		return fmt.Errorf("%w: attribute %q: %d offset bytes, subarray needs %d",
			ErrBufferSizeMismatch, attr.Name, *buf.OffsetsSize, cells*8)
	}
	if err := CheckVarAttrOffsets(buf.Offsets, buf.OffsetsSize, buf.ValuesSize); err != nil {
		return fmt.Errorf("attribute %q: %w", attr.Name, err)
	}
	if cells > 0 && buf.Offsets[0] != 0 {
		return fmt.Errorf("%w: attribute %q: first offset must be 0", ErrInvalidOffsets, attr.Name)
	}
	if uint64(len(buf.Values)) < *buf.ValuesSize {
		return fmt.Errorf("%w: attribute %q: values size %d exceeds the %d bytes supplied",
			ErrBufferSizeMismatch, attr.Name, *buf.ValuesSize, len(buf.Values))
	}
	return nil
}

// Write encodes every attribute into tiles and stores a new fragment.
func (w *Writer) Write(ctx context.Context) error {
	if w.box == nil {
		return fmt.Errorf("%w: writer is not initialized", ErrQuery)
	}
	cells := w.box.NumCells()
	attrs := w.schema.Attributes()
	for _, attr := range attrs {
		buf, _ := w.buffers.Get(attr.Name)
		if err := w.check(attr, buf, cells); err != nil {
			return err
		}
	}

	extents := w.schema.Domain().tileExtents()
	perm, err := w.permutation(extents)
	if err != nil {
		return err
	}

	uri := w.fragURI
	if uri == "" {
		uri = path.Join(w.schema.URI(), fragment.NewName(time.Now()))
	}
	name := fragmentName(uri)
	ts := time.Now().UnixMilli()
	if _, t, err := fragment.ParseName(name); err == nil {
		ts = t
	}

	meta := &FragmentMetadata{
		URI:        uri,
		Name:       name,
		Timestamp:  ts,
		Domain:     w.box.Clone(),
		TileCells:  tileCells(w.box, extents),
		Attributes: make([]fragment.Attribute, len(attrs)),
	}

	tasks := make([]func() error, len(attrs))
	for i, attr := range attrs {
		i, attr := i, attr
		buf, _ := w.buffers.Get(attr.Name)
		tasks[i] = func() error {
			stored, err := w.writeAttribute(ctx, meta, attr, buf, perm)
			if err != nil {
				return err
			}
			meta.Attributes[i] = stored
			return nil
		}
	}
	if err := w.sm.run(tasks); err != nil {
		return err
	}

	if w.layout == GlobalOrder {
		w.pending = meta
		return nil
	}
	return w.commit(ctx, meta)
}

// Finalize commits a fragment staged by a global order Write.
func (w *Writer) Finalize(ctx context.Context) error {
	if w.pending == nil {
		return nil
	}
	meta := w.pending
	if err := w.commit(ctx, meta); err != nil {
		return err
	}
	w.pending = nil
	return nil
}

func (w *Writer) commit(ctx context.Context, meta *FragmentMetadata) error {
	var buf bytes.Buffer
	if err := meta.Encode(&buf); err != nil {
		return fmt.Errorf("%w: encode fragment metadata: %w", ErrStorage, err)
	}
	if err := w.sm.store.Put(ctx, fragment.MetadataKey(meta.URI), buf.Bytes()); err != nil {
		return fmt.Errorf("%w: commit fragment %q: %w", ErrStorage, meta.URI, err)
	}
	w.committed = meta.URI
	w.sm.metrics.FragmentCommitted()
	w.sm.logger.Debug("fragment committed", "uri", meta.URI, "cells", meta.CellNum(), "tiles", meta.TileNum())
	return nil
}

// permutation maps the k-th cell of the input buffers to its row-major
// position in the fragment. It is nil for row-major input.
func (w *Writer) permutation(extents []uint64) ([]uint64, error) {
	if w.layout == RowMajor {
		return nil, nil
	}
	order, err := w.layout.order()
	if err != nil {
		return nil, err
	}
	it, err := layout.NewIterator(w.box, order, extents)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQuery, err)
	}
	perm := make([]uint64, 0, w.box.NumCells())
	for ; !it.Done(); it.Advance() {
		perm = append(perm, w.box.RowMajorIndex(it.Peek()))
	}
	return perm, nil
}

// tileCells returns the cells per stored tile: one space tile, clipped to
// the fragment.
func tileCells(box layout.Box, extents []uint64) uint64 {
	n := uint64(1)
	for i, r := range box {
		e := r.Len()
		if extents[i] > 0 {
			e = min(e, extents[i])
		}
		if n > math.MaxUint64/e {
			return math.MaxUint64
		}
		n *= e
	}
	return n
}

func (w *Writer) writeAttribute(ctx context.Context, meta *FragmentMetadata, attr *Attribute, buf *AttributeBuffer, perm []uint64) (fragment.Attribute, error) {
	stored := fragment.Attribute{Name: attr.Name, Var: attr.IsVar()}
	cells := meta.CellNum()

	var raw, values []byte
	elemSize := attr.Type.Size()
	if attr.IsVar() {
		var offsets []uint64
		offsets, values = reorderVar(buf.Offsets[:cells], buf.Values[:*buf.ValuesSize], perm)
		raw = datatype.Encode(offsets...)
		elemSize = 8
	} else {
		raw = reorderFixed(buf.Values[:cells*attr.CellSize()], attr.CellSize(), perm)
	}

	pipeline, err := attr.pipeline(elemSize)
	if err != nil {
		return stored, fmt.Errorf("%w: %w", ErrQuery, err)
	}
	data, offsets, err := encodeTiles(pipeline, fragment.SplitTiles(raw, attr.CellSize(), meta.TileCells))
	if err != nil {
		return stored, fmt.Errorf("%w: attribute %q: %w", ErrStorage, attr.Name, err)
	}
	stored.TileOffsets = offsets
	if err := w.sm.store.Put(ctx, fragment.DataKey(meta.URI, attr.Name), data); err != nil {
		return stored, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	written := len(data)

	if attr.IsVar() {
		vp, err := attr.pipeline(attr.Type.Size())
		if err != nil {
			return stored, fmt.Errorf("%w: %w", ErrQuery, err)
		}
		encoded, err := vp.Encode(values)
		if err != nil {
			return stored, fmt.Errorf("%w: attribute %q values: %w", ErrStorage, attr.Name, err)
		}
		if err := w.sm.store.Put(ctx, fragment.VarKey(meta.URI, attr.Name), encoded); err != nil {
			return stored, fmt.Errorf("%w: %w", ErrStorage, err)
		}
		stored.VarSize = uint64(len(values))
		written += len(encoded)
	}
	w.sm.metrics.AddBytesWritten(written)
	return stored, nil
}

func reorderFixed(data []byte, cellSize uint64, perm []uint64) []byte {
	if perm == nil {
		return data
	}
	out := make([]byte, len(data))
	for k, idx := range perm {
		copy(out[idx*cellSize:(idx+1)*cellSize], data[uint64(k)*cellSize:])
	}
	return out
}

// reorderVar returns the cells of a var-sized attribute in row-major order
// with offsets rebased onto the reordered values.
func reorderVar(offsets []uint64, values []byte, perm []uint64) ([]uint64, []byte) {
	n := len(offsets)
	end := func(k int) uint64 {
		if k+1 < n {
			return offsets[k+1]
		}
		return uint64(len(values))
	}
	if perm == nil {
		return slices.Clone(offsets), values
	}

	src := make([]int, n)
	for k, idx := range perm {
		src[idx] = k
	}
	outOffsets := make([]uint64, n)
	outValues := make([]byte, 0, len(values))
	for j, k := range src {
		outOffsets[j] = uint64(len(outValues))
		outValues = append(outValues, values[offsets[k]:end(k)]...)
	}
	return outOffsets, outValues
}

// encodeTiles runs each tile through the pipeline and concatenates the
// results. It returns the tile boundaries, one more than the tile count.
func encodeTiles(p *filter.Pipeline, tiles [][]byte) ([]byte, []uint64, error) {
	var data []byte
	offsets := make([]uint64, 0, len(tiles)+1)
	offsets = append(offsets, 0)
	for _, tile := range tiles {
		enc, err := p.Encode(tile)
		if err != nil {
			return nil, nil, err
		}
		data = append(data, enc...)
		offsets = append(offsets, uint64(len(data)))
	}
	return data, offsets, nil
}
