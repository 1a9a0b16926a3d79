package tiledb

import (
	"bytes"
	"fmt"
	"io"

	"github.com/robert-malhotra/go-tiledb/internal/binary"
)

// SchemaVersion is the array schema format version written by Serialize.
const SchemaVersion uint32 = 1

// ArraySchema describes a dense array: its domain and the attributes
// stored in every cell.
type ArraySchema struct {
	uri    string
	domain *Domain
	attrs  []*Attribute
}

// NewArraySchema creates a schema over domain with no attributes.
func NewArraySchema(domain *Domain) *ArraySchema {
	return &ArraySchema{domain: domain}
}

// URI returns the array location the schema was loaded from or created at.
func (s *ArraySchema) URI() string { return s.uri }

// SetURI sets the array location.
func (s *ArraySchema) SetURI(uri string) { s.uri = uri }

// Domain returns the array domain.
func (s *ArraySchema) Domain() *Domain { return s.domain }

// AddAttribute appends a copy of a. Attribute names must be unique.
func (s *ArraySchema) AddAttribute(a *Attribute) error {
	if a == nil {
		return fmt.Errorf("%w: cannot add nil attribute", ErrSchema)
	}
	if _, ok := s.Attribute(a.Name); ok {
		return fmt.Errorf("%w: duplicate attribute name %q", ErrSchema, a.Name)
	}
	s.attrs = append(s.attrs, a.Clone())
	return nil
}

// Attributes returns the attributes in definition order.
func (s *ArraySchema) Attributes() []*Attribute { return s.attrs }

// AttributeNames returns the attribute names in definition order.
func (s *ArraySchema) AttributeNames() []string {
	names := make([]string, len(s.attrs))
	for i, a := range s.attrs {
		names[i] = a.Name
	}
	return names
}

// Attribute returns the attribute named name.
func (s *ArraySchema) Attribute(name string) (*Attribute, bool) {
	for _, a := range s.attrs {
		if a.Name == name {
			return a, true
		}
	}
	return nil, false
}

func (s *ArraySchema) clone() *ArraySchema {
	c := &ArraySchema{uri: s.uri, domain: s.domain.Clone(), attrs: make([]*Attribute, len(s.attrs))}
	for i, a := range s.attrs {
		c.attrs[i] = a.Clone()
	}
	return c
}

// Check validates the schema for a dense array: at least one dimension,
// every dimension with a domain, an integer domain type, and at least one
// attribute with a name distinct from every dimension name.
func (s *ArraySchema) Check() error {
	if s.domain == nil || s.domain.DimNum() == 0 {
		return fmt.Errorf("%w: domain has no dimensions", ErrSchema)
	}
	if !s.domain.Type().IsInteger() {
		return fmt.Errorf("%w: %w: dense arrays need an integer domain, got %s",
			ErrSchema, ErrUnsupportedDatatype, s.domain.Type())
	}
	for i := 0; i < s.domain.DimNum(); i++ {
		dim := s.domain.Dimension(i)
		if dim.domain == nil {
			return fmt.Errorf("%w: dimension %d (%q) has no domain", ErrSchema, i, dim.Name())
		}
	}
	if len(s.attrs) == 0 {
		return fmt.Errorf("%w: array has no attributes", ErrSchema)
	}
	for _, a := range s.attrs {
		if err := a.check(); err != nil {
			return err
		}
		if _, ok := s.domain.DimensionByName(a.Name); ok {
			return fmt.Errorf("%w: attribute %q has the name of a dimension", ErrSchema, a.Name)
		}
	}
	return nil
}

// Serialize writes [version:uint32][domain][attribute_num:uint32][attributes].
// The URI is not written.
func (s *ArraySchema) Serialize(w io.Writer) error {
	bw := binary.NewWriter(w)
	if err := bw.WriteUint32(SchemaVersion); err != nil {
		return err
	}
	if err := s.domain.Serialize(w); err != nil {
		return err
	}
	if err := bw.WriteUint32(uint32(len(s.attrs))); err != nil {
		return err
	}
	for _, a := range s.attrs {
		if err := a.Serialize(w); err != nil {
			return err
		}
	}
	return nil
}

// DeserializeArraySchema reads a schema written by Serialize.
func DeserializeArraySchema(r io.Reader) (*ArraySchema, error) {
	br := binary.NewReader(r)
	version, err := br.ReadUint32()
	if err != nil {
		return nil, fmt.Errorf("%w: cannot deserialize schema version: %w", ErrDeserialization, err)
	}
	if version != SchemaVersion {
		return nil, fmt.Errorf("%w: unsupported schema version %d", ErrDeserialization, version)
	}
	domain, err := readDomain(br)
	if err != nil {
		return nil, err
	}
	n, err := br.ReadUint32()
	if err != nil {
		return nil, fmt.Errorf("%w: cannot deserialize attribute count: %w", ErrDeserialization, err)
	}
	s := NewArraySchema(domain)
	for i := uint32(0); i < n; i++ {
		a, err := readAttribute(br)
		if err != nil {
			return nil, err
		}
		if err := s.AddAttribute(a); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrDeserialization, err)
		}
	}
	return s, nil
}

// Dump writes a human-readable description of the schema.
func (s *ArraySchema) Dump(w io.Writer) error {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "- Array URI: %s\n", s.uri)
	fmt.Fprintf(&buf, "- Array type: dense\n")
	fmt.Fprintf(&buf, "- Attributes: %d\n\n", len(s.attrs))
	if _, err := w.Write(buf.Bytes()); err != nil {
		return err
	}
	if err := s.domain.Dump(w); err != nil {
		return err
	}
	for _, a := range s.attrs {
		if _, err := io.WriteString(w, "\n"); err != nil {
			return err
		}
		if err := a.Dump(w); err != nil {
			return err
		}
	}
	return nil
}
