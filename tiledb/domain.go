package tiledb

import (
	"bytes"
	"fmt"
	"io"

	"github.com/robert-malhotra/go-tiledb/internal/binary"
	"github.com/robert-malhotra/go-tiledb/internal/datatype"
	"github.com/robert-malhotra/go-tiledb/internal/layout"
)

// Domain is an ordered set of dimensions sharing one datatype.
type Domain struct {
	typ  Datatype
	dims []*Dimension
}

// NewDomain creates an empty domain of the given datatype.
func NewDomain(typ Datatype) *Domain {
	return &Domain{typ: typ}
}

// AddDimension appends a copy of dim. The dimension must have the domain's
// datatype and a name not used by another dimension.
func (d *Domain) AddDimension(dim *Dimension) error {
	if dim == nil {
		return fmt.Errorf("%w: cannot add nil dimension", ErrDimension)
	}
	if dim.Type() != d.typ {
		return fmt.Errorf("%w: dimension %q has type %s, domain has type %s",
			ErrDimension, dim.Name(), dim.Type(), d.typ)
	}
	if !dim.IsAnonymous() {
		if _, ok := d.DimensionByName(dim.Name()); ok {
			return fmt.Errorf("%w: duplicate dimension name %q", ErrDimension, dim.Name())
		}
	}
	d.dims = append(d.dims, dim.Clone())
	return nil
}

// Type returns the datatype shared by all dimensions.
func (d *Domain) Type() Datatype { return d.typ }

// DimNum returns the number of dimensions.
func (d *Domain) DimNum() int { return len(d.dims) }

// Dimension returns the i-th dimension, or nil if i is out of range. The
// dimension is owned by the domain.
func (d *Domain) Dimension(i int) *Dimension {
	if i < 0 || i >= len(d.dims) {
		return nil
	}
	return d.dims[i]
}

// DimensionByName returns the dimension with the given name.
func (d *Domain) DimensionByName(name string) (*Dimension, bool) {
	for _, dim := range d.dims {
		if dim.Name() == name {
			return dim, true
		}
	}
	return nil, false
}

// Clone returns a deep copy of d.
func (d *Domain) Clone() *Domain {
	c := &Domain{typ: d.typ, dims: make([]*Dimension, len(d.dims))}
	for i, dim := range d.dims {
		c.dims[i] = dim.Clone()
	}
	return c
}

// SetNullTileExtentsToRange sets every unset tile extent to its dimension's
// whole domain range.
func (d *Domain) SetNullTileExtentsToRange() error {
	for _, dim := range d.dims {
		if err := dim.SetNullTileExtentToRange(); err != nil {
			return err
		}
	}
	return nil
}

// Serialize writes [type:uint8][dim_num:uint32] followed by each dimension.
func (d *Domain) Serialize(w io.Writer) error {
	bw := binary.NewWriter(w)
	if err := bw.WriteUint8(uint8(d.typ)); err != nil {
		return err
	}
	if err := bw.WriteUint32(uint32(len(d.dims))); err != nil {
		return err
	}
	for _, dim := range d.dims {
		if err := dim.Serialize(w); err != nil {
			return err
		}
	}
	return nil
}

// DeserializeDomain reads a domain written by Serialize.
func DeserializeDomain(r io.Reader) (*Domain, error) {
	return readDomain(binary.NewReader(r))
}

func readDomain(br *binary.Reader) (*Domain, error) {
	tag, err := br.ReadUint8()
	if err != nil {
		return nil, fmt.Errorf("%w: cannot deserialize domain type: %w", ErrDeserialization, err)
	}
	typ, err := datatype.FromTag(tag)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot deserialize domain type: %w", ErrDeserialization, err)
	}
	n, err := br.ReadUint32()
	if err != nil {
		return nil, fmt.Errorf("%w: cannot deserialize dimension count: %w", ErrDeserialization, err)
	}

	d := NewDomain(typ)
	for i := uint32(0); i < n; i++ {
		dim, err := readDimension(br, typ)
		if err != nil {
			return nil, err
		}
		if err := d.AddDimension(dim); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrDeserialization, err)
		}
	}
	return d, nil
}

// Dump writes a human-readable description of d.
func (d *Domain) Dump(w io.Writer) error {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "=== Domain ===\n")
	fmt.Fprintf(&buf, "- Dimensions type: %s\n", d.typ)
	if _, err := w.Write(buf.Bytes()); err != nil {
		return err
	}
	for _, dim := range d.dims {
		if _, err := io.WriteString(w, "\n"); err != nil {
			return err
		}
		if err := dim.Dump(w); err != nil {
			return err
		}
	}
	return nil
}

// box converts a subarray to cell positions relative to each dimension's
// low bound. A nil subarray selects the whole domain. The subarray must
// already be validated.
func (d *Domain) box(subarray []byte) (layout.Box, error) {
	ops, err := datatype.Of(d.typ)
	if err != nil {
		return nil, fmt.Errorf("%w: %w: domain type %s", ErrQuery, ErrUnsupportedDatatype, d.typ)
	}
	size := ops.Size()
	box := make(layout.Box, len(d.dims))
	for i, dim := range d.dims {
		dom := dim.domain
		if dom == nil {
			return nil, fmt.Errorf("%w: dimension %q has no domain", ErrQuery, dim.name)
		}
		lo, hi := dom[:size], dom[size:2*size]
		if subarray != nil {
			lo, hi = subarray[2*i*size:(2*i+1)*size], subarray[(2*i+1)*size:(2*i+2)*size]
		}
		start, err := ops.Distance(dom[:size], lo)
		if err != nil {
			return nil, fmt.Errorf("%w: dimension %q: %w", ErrQuery, dim.name, err)
		}
		end, err := ops.Distance(dom[:size], hi)
		if err != nil {
			return nil, fmt.Errorf("%w: dimension %q: %w", ErrQuery, dim.name, err)
		}
		box[i] = layout.Range{Lo: start, Hi: end}
	}
	if err := box.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQuery, err)
	}
	return box, nil
}

// tileExtents returns the tile extent of every dimension in cells. Unset
// extents span the whole dimension.
func (d *Domain) tileExtents() []uint64 {
	size := d.typ.Size()
	out := make([]uint64, len(d.dims))
	for i, dim := range d.dims {
		if dim.tileExtent == nil {
			out[i] = 0
			if ops, err := datatype.Of(d.typ); err == nil && dim.domain != nil {
				if n, err := ops.Distance(dim.domain[:size], dim.domain[size:]); err == nil {
					out[i] = n + 1
				}
			}
			continue
		}
		out[i] = uintLE(dim.tileExtent)
	}
	return out
}

// uintLE reads a little-endian unsigned value of len(b) bytes. Positive
// integer extents of any width decode exactly.
func uintLE(b []byte) uint64 {
	var v uint64
	for i := len(b) - 1; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v
}
