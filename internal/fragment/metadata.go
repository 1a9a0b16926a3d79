package fragment

import (
	"bytes"
	encbin "encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/robert-malhotra/go-tiledb/internal/binary"
	"github.com/robert-malhotra/go-tiledb/internal/layout"
)

// FormatVersion is the fragment metadata format version written by Encode.
const FormatVersion uint32 = 1

var (
	// ErrCorrupt is returned when fragment metadata fails to decode.
	ErrCorrupt = errors.New("corrupt fragment metadata")
	// ErrVersion is returned for metadata written in an unknown format.
	ErrVersion = errors.New("unsupported fragment metadata version")
)

var magic = [4]byte{'T', 'D', 'B', 'F'}

// Attribute describes how one attribute is stored in a fragment.
type Attribute struct {
	Name string
	Var  bool

	// TileOffsets holds the byte boundaries of the stored tiles in the
	// attribute's data object: tile i spans [TileOffsets[i], TileOffsets[i+1]).
	TileOffsets []uint64

	// VarSize is the stored size of the var-sized values object.
	VarSize uint64
}

// TileNum returns the number of stored tiles.
func (a *Attribute) TileNum() int {
	if len(a.TileOffsets) == 0 {
		return 0
	}
	return len(a.TileOffsets) - 1
}

// Metadata describes one committed fragment of a dense array.
type Metadata struct {
	// URI is the storage prefix of the fragment. It is not serialized; the
	// loader sets it from the key the metadata was read from.
	URI string

	Name      string
	Timestamp int64

	// Domain is the non-empty domain of the fragment in cell positions
	// relative to the array domain's low bounds. Cells are stored in
	// row-major order of this box.
	Domain layout.Box

	// TileCells is the number of cells per stored tile.
	TileCells uint64

	Attributes []Attribute
}

// CellNum returns the number of cells in the fragment.
func (m *Metadata) CellNum() uint64 {
	return m.Domain.NumCells()
}

// TileNum returns the number of tiles per attribute.
func (m *Metadata) TileNum() uint64 {
	if m.TileCells == 0 {
		return 0
	}
	return (m.CellNum() + m.TileCells - 1) / m.TileCells
}

// Attribute returns the stored attribute named name.
func (m *Metadata) Attribute(name string) (*Attribute, bool) {
	for i := range m.Attributes {
		if m.Attributes[i].Name == name {
			return &m.Attributes[i], true
		}
	}
	return nil, false
}

// Encode writes the metadata followed by its Fletcher-32 checksum.
func (m *Metadata) Encode(w io.Writer) error {
	var buf bytes.Buffer
	sum := binary.NewFletcher32()
	bw := binary.NewWriter(io.MultiWriter(&buf, sum))

	if err := bw.WriteBytes(magic[:]); err != nil {
		return err
	}
	if err := bw.WriteUint32(FormatVersion); err != nil {
		return err
	}
	if err := bw.WriteString(m.Name); err != nil {
		return err
	}
	if err := bw.WriteInt64(m.Timestamp); err != nil {
		return err
	}
	if err := bw.WriteUint32(uint32(len(m.Domain))); err != nil {
		return err
	}
	for _, r := range m.Domain {
		if err := bw.WriteUint64(r.Lo); err != nil {
			return err
		}
		if err := bw.WriteUint64(r.Hi); err != nil {
			return err
		}
	}
	if err := bw.WriteUint64(m.TileCells); err != nil {
		return err
	}
	if err := bw.WriteUint32(uint32(len(m.Attributes))); err != nil {
		return err
	}
	for _, a := range m.Attributes {
		if err := bw.WriteString(a.Name); err != nil {
			return err
		}
		if err := bw.WriteBool(a.Var); err != nil {
			return err
		}
		if err := bw.WriteUint32(uint32(len(a.TileOffsets))); err != nil {
			return err
		}
		if err := bw.WriteUint64s(a.TileOffsets); err != nil {
			return err
		}
		if err := bw.WriteUint64(a.VarSize); err != nil {
			return err
		}
	}

	buf.Write(sum.Sum(nil))

	_, err := w.Write(buf.Bytes())
	return err
}

// Decode reads metadata written by Encode.
func Decode(data []byte) (*Metadata, error) {
	if len(data) < len(magic)+4 {
		return nil, fmt.Errorf("%w: %d bytes", ErrCorrupt, len(data))
	}
	body := data[:len(data)-4]
	stored := encbin.LittleEndian.Uint32(data[len(data)-binary.Fletcher32Size:])
	if !binary.VerifyFletcher32(body, stored) {
		return nil, fmt.Errorf("%w: checksum mismatch", ErrCorrupt)
	}
	if !bytes.Equal(body[:len(magic)], magic[:]) {
		return nil, fmt.Errorf("%w: bad magic", ErrCorrupt)
	}

	m, err := decodeBody(binary.NewReader(bytes.NewReader(body[len(magic):])), len(body)-len(magic))
	if err != nil {
		if errors.Is(err, ErrVersion) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	return m, nil
}

func decodeBody(r *binary.Reader, size int) (*Metadata, error) {
	version, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	if version != FormatVersion {
		return nil, fmt.Errorf("%w: %d", ErrVersion, version)
	}

	m := &Metadata{}
	if m.Name, err = r.ReadString(); err != nil {
		return nil, err
	}
	if m.Timestamp, err = r.ReadInt64(); err != nil {
		return nil, err
	}

	dimNum, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	// Each range takes 16 bytes; a count larger than the input is corrupt.
	if uint64(dimNum)*16 > uint64(size) {
		return nil, fmt.Errorf("dimension count %d exceeds input", dimNum)
	}
	m.Domain = make(layout.Box, dimNum)
	for i := range m.Domain {
		if m.Domain[i].Lo, err = r.ReadUint64(); err != nil {
			return nil, err
		}
		if m.Domain[i].Hi, err = r.ReadUint64(); err != nil {
			return nil, err
		}
	}
	if err := m.Domain.Validate(); err != nil {
		return nil, err
	}
	if m.TileCells, err = r.ReadUint64(); err != nil {
		return nil, err
	}
	if m.TileCells == 0 {
		return nil, errors.New("zero tile capacity")
	}

	attrNum, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < attrNum; i++ {
		var a Attribute
		if a.Name, err = r.ReadString(); err != nil {
			return nil, err
		}
		if a.Var, err = r.ReadBool(); err != nil {
			return nil, err
		}
		n, err := r.ReadUint32()
		if err != nil {
			return nil, err
		}
		if uint64(n)*8 > uint64(size) {
			return nil, fmt.Errorf("tile count %d exceeds input", n)
		}
		if a.TileOffsets, err = r.ReadUint64s(int(n)); err != nil {
			return nil, err
		}
		if uint64(a.TileNum()) != m.TileNum() {
			return nil, fmt.Errorf("attribute %q has %d tiles, want %d", a.Name, a.TileNum(), m.TileNum())
		}
		if a.VarSize, err = r.ReadUint64(); err != nil {
			return nil, err
		}
		m.Attributes = append(m.Attributes, a)
	}

	if r.Pos() != int64(size) {
		return nil, fmt.Errorf("%d trailing bytes", int64(size)-r.Pos())
	}
	return m, nil
}
