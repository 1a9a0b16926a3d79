package tiledb

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/robert-malhotra/go-tiledb/internal/binary"
	"github.com/robert-malhotra/go-tiledb/internal/datatype"
)

// Dimension is one axis of an array domain. Its domain and tile extent are
// little-endian values of the dimension's datatype.
type Dimension struct {
	name       string
	typ        Datatype
	domain     []byte
	tileExtent []byte
}

// NewDimension creates a dimension with no domain and no tile extent.
// An empty name makes the dimension anonymous.
func NewDimension(name string, typ Datatype) *Dimension {
	return &Dimension{name: name, typ: typ}
}

// Clone returns a deep copy of d.
func (d *Dimension) Clone() *Dimension {
	return &Dimension{
		name:       d.name,
		typ:        d.typ,
		domain:     slices.Clone(d.domain),
		tileExtent: slices.Clone(d.tileExtent),
	}
}

// Name returns the dimension name.
func (d *Dimension) Name() string { return d.name }

// Type returns the dimension datatype.
func (d *Dimension) Type() Datatype { return d.typ }

// IsAnonymous reports whether the dimension has an empty name.
func (d *Dimension) IsAnonymous() bool { return d.name == "" }

// Domain returns a copy of the [low, high] pair, or nil if unset.
func (d *Dimension) Domain() []byte { return slices.Clone(d.domain) }

// TileExtent returns a copy of the tile extent, or nil if unset.
func (d *Dimension) TileExtent() []byte { return slices.Clone(d.tileExtent) }

func (d *Dimension) ops() (datatype.Ops, error) {
	ops, err := datatype.Of(d.typ)
	if err != nil {
		return nil, fmt.Errorf("%w: %w: dimension %q has type %s", ErrDimension, ErrUnsupportedDatatype, d.name, d.typ)
	}
	return ops, nil
}

// SetDomain replaces the domain with the [low, high] pair in domain, which
// must hold exactly two values of the dimension's type. An invalid domain,
// or one that would invalidate the current tile extent, leaves the
// dimension unchanged.
func (d *Dimension) SetDomain(domain []byte) error {
	ops, err := d.ops()
	if err != nil {
		return err
	}
	if len(domain) != 2*ops.Size() {
		return fmt.Errorf("%w: domain must hold 2 %s values (%d bytes), got %d bytes",
			ErrDimension, d.typ, 2*ops.Size(), len(domain))
	}
	if err := ops.CheckDomain(domain); err != nil {
		return fmt.Errorf("%w: dimension %q: %w", ErrDimension, d.name, err)
	}
	if d.tileExtent != nil {
		if err := ops.CheckTileExtent(domain, d.tileExtent); err != nil {
			return fmt.Errorf("%w: dimension %q: current tile extent: %w", ErrDimension, d.name, err)
		}
	}
	d.domain = slices.Clone(domain)
	return nil
}

// SetTileExtent replaces the tile extent. A nil or empty extent clears it.
// The domain must be set first. An invalid extent leaves the dimension
// unchanged.
func (d *Dimension) SetTileExtent(extent []byte) error {
	if len(extent) == 0 {
		d.tileExtent = nil
		return nil
	}
	ops, err := d.ops()
	if err != nil {
		return err
	}
	if len(extent) != ops.Size() {
		return fmt.Errorf("%w: tile extent must hold 1 %s value (%d bytes), got %d bytes",
			ErrDimension, d.typ, ops.Size(), len(extent))
	}
	if d.domain == nil {
		return fmt.Errorf("%w: dimension %q: tile extent check failed; domain not set", ErrDimension, d.name)
	}
	if err := ops.CheckTileExtent(d.domain, extent); err != nil {
		return fmt.Errorf("%w: dimension %q: %w", ErrDimension, d.name, err)
	}
	d.tileExtent = slices.Clone(extent)
	return nil
}

// SetNullTileExtentToRange sets an unset tile extent so that the whole
// domain is one tile: high-low+1 for integer types and high-low for
// floating-point types. It does nothing if the extent is already set.
func (d *Dimension) SetNullTileExtentToRange() error {
	if d.tileExtent != nil {
		return nil
	}
	ops, err := d.ops()
	if err != nil {
		return err
	}
	if d.domain == nil {
		return fmt.Errorf("%w: dimension %q: cannot set null tile extent to domain range; domain not set", ErrDimension, d.name)
	}
	extent, err := ops.DomainRange(d.domain)
	if err != nil {
		return fmt.Errorf("%w: dimension %q: cannot set null tile extent to domain range: %w", ErrDimension, d.name, err)
	}
	d.tileExtent = extent
	return nil
}

// Serialize writes the dimension as
//
//	[name_length:uint32][name][domain_present:uint8][low][high][tile_extent_present:uint8][extent]
//
// The datatype is not written; the owning domain stores it.
func (d *Dimension) Serialize(w io.Writer) error {
	bw := binary.NewWriter(w)
	if err := bw.WriteString(d.name); err != nil {
		return err
	}
	if err := bw.WriteBool(d.domain != nil); err != nil {
		return err
	}
	if err := bw.WriteBytes(d.domain); err != nil {
		return err
	}
	if err := bw.WriteBool(d.tileExtent != nil); err != nil {
		return err
	}
	return bw.WriteBytes(d.tileExtent)
}

// Deserialize replaces the dimension with one read from r, whose values
// have type typ. On failure the dimension is left unchanged.
func (d *Dimension) Deserialize(r io.Reader, typ Datatype) error {
	nd, err := readDimension(binary.NewReader(r), typ)
	if err != nil {
		return err
	}
	*d = *nd
	return nil
}

// DeserializeDimension reads a dimension written by Serialize.
func DeserializeDimension(r io.Reader, typ Datatype) (*Dimension, error) {
	return readDimension(binary.NewReader(r), typ)
}

func readDimension(br *binary.Reader, typ Datatype) (*Dimension, error) {
	fail := func(what string, err error) error {
		return fmt.Errorf("%w: cannot deserialize dimension %s: %w", ErrDeserialization, what, err)
	}

	if !typ.Valid() {
		return nil, fail("type", fmt.Errorf("%w: %s", datatype.ErrUnknown, typ))
	}
	size := typ.Size()

	name, err := br.ReadString()
	if err != nil {
		return nil, fail("name", err)
	}
	nd := &Dimension{name: name, typ: typ}

	present, err := readFlag(br)
	if err != nil {
		return nil, fail("domain", err)
	}
	if present {
		if nd.domain, err = br.ReadBytes(2 * size); err != nil {
			return nil, fail("domain", err)
		}
	}

	present, err = readFlag(br)
	if err != nil {
		return nil, fail("tile extent", err)
	}
	if present {
		if nd.domain == nil {
			return nil, fail("tile extent", errors.New("tile extent present without a domain"))
		}
		if nd.tileExtent, err = br.ReadBytes(size); err != nil {
			return nil, fail("tile extent", err)
		}
	}

	// Numeric values must satisfy the same rules as the setters.
	if ops, err := datatype.Of(typ); err == nil && nd.domain != nil {
		if err := ops.CheckDomain(nd.domain); err != nil {
			return nil, fail("domain", err)
		}
		if nd.tileExtent != nil {
			if err := ops.CheckTileExtent(nd.domain, nd.tileExtent); err != nil {
				return nil, fail("tile extent", err)
			}
		}
	}
	return nd, nil
}

func readFlag(br *binary.Reader) (bool, error) {
	v, err := br.ReadUint8()
	if err != nil {
		return false, err
	}
	if v > 1 {
		return false, fmt.Errorf("invalid presence flag %d", v)
	}
	return v == 1, nil
}

// Dump writes a human-readable description of d.
func (d *Dimension) Dump(w io.Writer) error {
	name := d.name
	if d.IsAnonymous() {
		name = "<anonymous>"
	}
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "### Dimension ###\n")
	fmt.Fprintf(&buf, "- Name: %s\n", name)
	fmt.Fprintf(&buf, "- Type: %s\n", d.typ)

	ops, err := datatype.Of(d.typ)
	switch {
	case d.domain == nil:
		fmt.Fprintf(&buf, "- Domain: null\n")
	case err != nil:
		fmt.Fprintf(&buf, "- Domain: %x\n", d.domain)
	default:
		fmt.Fprintf(&buf, "- Domain: [%s,%s]\n", ops.Format(d.domain), ops.Format(d.domain[ops.Size():]))
	}
	switch {
	case d.tileExtent == nil:
		fmt.Fprintf(&buf, "- Tile extent: null\n")
	case err != nil:
		fmt.Fprintf(&buf, "- Tile extent: %x\n", d.tileExtent)
	default:
		fmt.Fprintf(&buf, "- Tile extent: %s\n", ops.Format(d.tileExtent))
	}
	_, werr := w.Write(buf.Bytes())
	return werr
}
