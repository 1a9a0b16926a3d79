package tiledb

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"slices"
	"strings"

	"github.com/robert-malhotra/go-tiledb/internal/binary"
	"github.com/robert-malhotra/go-tiledb/internal/datatype"
	"github.com/robert-malhotra/go-tiledb/internal/filter"
)

// VarNum is the CellValNum of var-sized attributes.
const VarNum uint32 = math.MaxUint32

// FilterInfo describes one tile filter of an attribute's pipeline.
type FilterInfo = filter.Info

// Attribute is a named value stored in every cell of an array.
type Attribute struct {
	Name string
	Type Datatype

	// CellValNum is the number of values per cell, or VarNum.
	CellValNum uint32

	// Filters are applied to each tile in order on write and in reverse
	// on read.
	Filters []FilterInfo
}

// NewAttribute creates a fixed-size attribute with one value per cell.
func NewAttribute(name string, typ Datatype) *Attribute {
	return &Attribute{Name: name, Type: typ, CellValNum: 1}
}

// IsVar reports whether cells hold a variable number of values.
func (a *Attribute) IsVar() bool { return a.CellValNum == VarNum }

// CellSize returns the bytes per cell in the fixed buffer: the value size
// times CellValNum, or the size of one offset for var-sized attributes.
func (a *Attribute) CellSize() uint64 {
	if a.IsVar() {
		return 8
	}
	return uint64(a.Type.Size()) * uint64(a.CellValNum)
}

// Clone returns a deep copy of a.
func (a *Attribute) Clone() *Attribute {
	c := *a
	c.Filters = slices.Clone(a.Filters)
	return &c
}

func (a *Attribute) check() error {
	if a.Name == "" {
		return fmt.Errorf("%w: attribute name is empty", ErrSchema)
	}
	if !a.Type.Valid() {
		return fmt.Errorf("%w: attribute %q: %w: %s", ErrSchema, a.Name, datatype.ErrUnknown, a.Type)
	}
	if a.CellValNum == 0 {
		return fmt.Errorf("%w: attribute %q: cell val num is zero", ErrSchema, a.Name)
	}
	if _, err := a.pipeline(a.Type.Size()); err != nil {
		return fmt.Errorf("%w: attribute %q: %w", ErrSchema, a.Name, err)
	}
	return nil
}

// pipeline builds the attribute's filters for tiles of elemSize-byte
// elements. Offset tiles of var-sized attributes use 8.
func (a *Attribute) pipeline(elemSize int) (*filter.Pipeline, error) {
	return filter.NewPipeline(a.Filters, elemSize)
}

// Serialize writes [name][type:uint8][cell_val_num:uint32][filters].
func (a *Attribute) Serialize(w io.Writer) error {
	bw := binary.NewWriter(w)
	if err := bw.WriteString(a.Name); err != nil {
		return err
	}
	if err := bw.WriteUint8(uint8(a.Type)); err != nil {
		return err
	}
	if err := bw.WriteUint32(a.CellValNum); err != nil {
		return err
	}
	return filter.WriteInfos(bw, a.Filters)
}

// DeserializeAttribute reads an attribute written by Serialize.
func DeserializeAttribute(r io.Reader) (*Attribute, error) {
	return readAttribute(binary.NewReader(r))
}

func readAttribute(br *binary.Reader) (*Attribute, error) {
	fail := func(err error) error {
		return fmt.Errorf("%w: cannot deserialize attribute: %w", ErrDeserialization, err)
	}
	name, err := br.ReadString()
	if err != nil {
		return nil, fail(err)
	}
	tag, err := br.ReadUint8()
	if err != nil {
		return nil, fail(err)
	}
	typ, err := datatype.FromTag(tag)
	if err != nil {
		return nil, fail(err)
	}
	cvn, err := br.ReadUint32()
	if err != nil {
		return nil, fail(err)
	}
	filters, err := filter.ReadInfos(br)
	if err != nil {
		return nil, fail(err)
	}
	return &Attribute{Name: name, Type: typ, CellValNum: cvn, Filters: filters}, nil
}

// Dump writes a human-readable description of a.
func (a *Attribute) Dump(w io.Writer) error {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "### Attribute ###\n")
	fmt.Fprintf(&buf, "- Name: %s\n", a.Name)
	fmt.Fprintf(&buf, "- Type: %s\n", a.Type)
	if a.IsVar() {
		fmt.Fprintf(&buf, "- Cell val num: var\n")
	} else {
		fmt.Fprintf(&buf, "- Cell val num: %d\n", a.CellValNum)
	}
	names := make([]string, len(a.Filters))
	for i, f := range a.Filters {
		names[i] = f.ID.String()
	}
	fmt.Fprintf(&buf, "- Filters: %d [%s]\n", len(a.Filters), strings.Join(names, ", "))
	_, err := w.Write(buf.Bytes())
	return err
}
