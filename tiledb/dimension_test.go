package tiledb

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/robert-malhotra/go-tiledb/internal/datatype"
)

func TestDimensionSetDomain(t *testing.T) {
	tests := []struct {
		name    string
		dt      Datatype
		domain  []byte
		wantErr bool
	}{
		{"int32", Int32, datatype.Encode[int32](1, 100), false},
		{"int32 single cell", Int32, datatype.Encode[int32](7, 7), false},
		{"int32 inverted", Int32, datatype.Encode[int32](100, 1), true},
		{"uint8", Uint8, datatype.Encode[uint8](0, 255), false},
		{"int64 negative", Int64, datatype.Encode[int64](-1000, -10), false},
		{"float32", Float32, datatype.Encode[float32](-1, 1), false},
		{"float64 inverted", Float64, datatype.Encode(1.0, -1.0), true},
		{"wrong length", Int32, datatype.Encode[int32](1, 2, 3), true},
		{"nil", Int32, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDimension("d", tt.dt)
			err := d.SetDomain(tt.domain)
			if tt.wantErr {
				if !errors.Is(err, ErrDimension) {
					t.Fatalf("expected ErrDimension, got %v", err)
				}
				if d.Domain() != nil {
					t.Errorf("domain changed on failure: %x", d.Domain())
				}
				return
			}
			if err != nil {
				t.Fatalf("SetDomain failed: %v", err)
			}
			if !bytes.Equal(d.Domain(), tt.domain) {
				t.Errorf("Domain() = %x, want %x", d.Domain(), tt.domain)
			}
		})
	}
}

func TestDimensionSetDomainKeepsPrevious(t *testing.T) {
	d := NewDimension("rows", Int32)
	if err := d.SetDomain(datatype.Encode[int32](1, 10)); err != nil {
		t.Fatal(err)
	}
	if err := d.SetDomain(datatype.Encode[int32](5, 4)); err == nil {
		t.Fatal("expected error for inverted domain")
	}
	if got := datatype.DecodeSlice[int32](d.Domain()); got[0] != 1 || got[1] != 10 {
		t.Errorf("domain = %v, want [1 10]", got)
	}
}

func TestDimensionSetDomainInvalidatesExtent(t *testing.T) {
	d := NewDimension("rows", Int32)
	if err := d.SetDomain(datatype.Encode[int32](1, 100)); err != nil {
		t.Fatal(err)
	}
	if err := d.SetTileExtent(datatype.Encode[int32](50)); err != nil {
		t.Fatal(err)
	}
	if err := d.SetDomain(datatype.Encode[int32](1, 10)); !errors.Is(err, ErrDimension) {
		t.Fatalf("expected ErrDimension, got %v", err)
	}
	if got := datatype.DecodeSlice[int32](d.Domain()); got[1] != 100 {
		t.Errorf("domain high = %d, want 100", got[1])
	}
}

func TestDimensionSetTileExtent(t *testing.T) {
	tests := []struct {
		name    string
		dt      Datatype
		domain  []byte
		extent  []byte
		wantErr bool
	}{
		{"divides", Int32, datatype.Encode[int32](1, 100), datatype.Encode[int32](10), false},
		{"whole span", Int32, datatype.Encode[int32](1, 100), datatype.Encode[int32](100), false},
		{"zero", Int32, datatype.Encode[int32](1, 100), datatype.Encode[int32](0), true},
		{"negative", Int64, datatype.Encode[int64](1, 100), datatype.Encode[int64](-1), true},
		{"exceeds span", Int32, datatype.Encode[int32](1, 100), datatype.Encode[int32](101), true},
		{"overflow", Uint8, datatype.Encode[uint8](0, 250), datatype.Encode[uint8](100), true},
		{"float uneven", Float64, datatype.Encode(0.0, 1.0), datatype.Encode(0.3), false},
		{"wrong length", Int32, datatype.Encode[int32](1, 100), datatype.Encode[int64](10), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDimension("d", tt.dt)
			if err := d.SetDomain(tt.domain); err != nil {
				t.Fatal(err)
			}
			err := d.SetTileExtent(tt.extent)
			if tt.wantErr {
				if !errors.Is(err, ErrDimension) {
					t.Fatalf("expected ErrDimension, got %v", err)
				}
				if d.TileExtent() != nil {
					t.Errorf("extent changed on failure: %x", d.TileExtent())
				}
				return
			}
			if err != nil {
				t.Fatalf("SetTileExtent failed: %v", err)
			}
			if !bytes.Equal(d.TileExtent(), tt.extent) {
				t.Errorf("TileExtent() = %x, want %x", d.TileExtent(), tt.extent)
			}
		})
	}
}

func TestDimensionTileExtentRequiresDomain(t *testing.T) {
	d := NewDimension("d", Int32)
	if err := d.SetTileExtent(datatype.Encode[int32](10)); !errors.Is(err, ErrDimension) {
		t.Fatalf("expected ErrDimension, got %v", err)
	}
}

func TestDimensionClearTileExtent(t *testing.T) {
	d := NewDimension("d", Int32)
	if err := d.SetDomain(datatype.Encode[int32](1, 100)); err != nil {
		t.Fatal(err)
	}
	if err := d.SetTileExtent(datatype.Encode[int32](10)); err != nil {
		t.Fatal(err)
	}
	if err := d.SetTileExtent(nil); err != nil {
		t.Fatalf("clearing extent failed: %v", err)
	}
	if d.TileExtent() != nil {
		t.Errorf("expected unset extent, got %x", d.TileExtent())
	}
}

func TestDimensionSetNullTileExtentToRange(t *testing.T) {
	tests := []struct {
		name   string
		dt     Datatype
		domain []byte
		want   []byte
	}{
		{"int8", Int8, datatype.Encode[int8](-10, 10), datatype.Encode[int8](21)},
		{"uint16", Uint16, datatype.Encode[uint16](0, 999), datatype.Encode[uint16](1000)},
		{"int32", Int32, datatype.Encode[int32](1, 100), datatype.Encode[int32](100)},
		{"uint32", Uint32, datatype.Encode[uint32](5, 5), datatype.Encode[uint32](1)},
		{"int64", Int64, datatype.Encode[int64](-5, 5), datatype.Encode[int64](11)},
		{"uint64", Uint64, datatype.Encode[uint64](10, 19), datatype.Encode[uint64](10)},
		{"float64", Float64, datatype.Encode(1.0, 3.0), datatype.Encode(2.0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDimension("d", tt.dt)
			if err := d.SetDomain(tt.domain); err != nil {
				t.Fatal(err)
			}
			if err := d.SetNullTileExtentToRange(); err != nil {
				t.Fatalf("SetNullTileExtentToRange failed: %v", err)
			}
			if !bytes.Equal(d.TileExtent(), tt.want) {
				t.Errorf("TileExtent() = %x, want %x", d.TileExtent(), tt.want)
			}
		})
	}
}

func TestDimensionSetNullTileExtentNoop(t *testing.T) {
	d := NewDimension("d", Int32)
	if err := d.SetDomain(datatype.Encode[int32](1, 100)); err != nil {
		t.Fatal(err)
	}
	if err := d.SetTileExtent(datatype.Encode[int32](10)); err != nil {
		t.Fatal(err)
	}
	if err := d.SetNullTileExtentToRange(); err != nil {
		t.Fatal(err)
	}
	if got := datatype.Decode[int32](d.TileExtent()); got != 10 {
		t.Errorf("extent = %d, want 10", got)
	}
}

func TestDimensionSetNullTileExtentErrors(t *testing.T) {
	d := NewDimension("d", Uint8)
	if err := d.SetDomain(datatype.Encode[uint8](0, math.MaxUint8)); err != nil {
		t.Fatal(err)
	}
	if err := d.SetNullTileExtentToRange(); !errors.Is(err, ErrDimension) {
		t.Errorf("expected ErrDimension for range overflow, got %v", err)
	}

	f := NewDimension("f", Float32)
	if err := f.SetDomain(datatype.Encode[float32](2, 2)); err != nil {
		t.Fatal(err)
	}
	if err := f.SetNullTileExtentToRange(); !errors.Is(err, ErrDimension) {
		t.Errorf("expected ErrDimension for zero float range, got %v", err)
	}

	s := NewDimension("s", StringASCII)
	err := s.SetNullTileExtentToRange()
	if !errors.Is(err, ErrDimension) || !errors.Is(err, ErrUnsupportedDatatype) {
		t.Errorf("expected ErrDimension and ErrUnsupportedDatatype, got %v", err)
	}

	u := NewDimension("u", Int32)
	if err := u.SetNullTileExtentToRange(); !errors.Is(err, ErrDimension) {
		t.Errorf("expected ErrDimension without domain, got %v", err)
	}
}

func TestDimensionIsAnonymous(t *testing.T) {
	if !NewDimension("", Int32).IsAnonymous() {
		t.Error("expected empty name to be anonymous")
	}
	if NewDimension("x", Int32).IsAnonymous() {
		t.Error("expected named dimension not to be anonymous")
	}
}

func TestDimensionSerializeRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		dim    func(t *testing.T) *Dimension
		wantTE bool
	}{
		{"with extent", func(t *testing.T) *Dimension {
			d := NewDimension("rows", Int64)
			mustSet(t, d.SetDomain(datatype.Encode[int64](-100, 100)))
			mustSet(t, d.SetTileExtent(datatype.Encode[int64](20)))
			return d
		}, true},
		{"without extent", func(t *testing.T) *Dimension {
			d := NewDimension("cols", Float32)
			mustSet(t, d.SetDomain(datatype.Encode[float32](0, 1)))
			return d
		}, false},
		{"anonymous empty", func(t *testing.T) *Dimension {
			return NewDimension("", Uint16)
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orig := tt.dim(t)
			var buf bytes.Buffer
			if err := orig.Serialize(&buf); err != nil {
				t.Fatalf("Serialize failed: %v", err)
			}

			got, err := DeserializeDimension(&buf, orig.Type())
			if err != nil {
				t.Fatalf("DeserializeDimension failed: %v", err)
			}
			if got.Name() != orig.Name() {
				t.Errorf("name = %q, want %q", got.Name(), orig.Name())
			}
			if !bytes.Equal(got.Domain(), orig.Domain()) {
				t.Errorf("domain = %x, want %x", got.Domain(), orig.Domain())
			}
			if !bytes.Equal(got.TileExtent(), orig.TileExtent()) {
				t.Errorf("extent = %x, want %x", got.TileExtent(), orig.TileExtent())
			}
			if (got.TileExtent() != nil) != tt.wantTE {
				t.Errorf("extent present = %v, want %v", got.TileExtent() != nil, tt.wantTE)
			}
		})
	}
}

func TestDimensionSerializeLayout(t *testing.T) {
	d := NewDimension("ab", Int8)
	mustSet(t, d.SetDomain(datatype.Encode[int8](1, 9)))
	mustSet(t, d.SetTileExtent(datatype.Encode[int8](3)))

	var buf bytes.Buffer
	if err := d.Serialize(&buf); err != nil {
		t.Fatal(err)
	}
	want := []byte{2, 0, 0, 0, 'a', 'b', 1, 1, 9, 1, 3}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Errorf("serialized = %v, want %v", buf.Bytes(), want)
	}
}

func TestDimensionDeserializeFailureKeepsState(t *testing.T) {
	src := NewDimension("rows", Int32)
	mustSet(t, src.SetDomain(datatype.Encode[int32](1, 100)))
	mustSet(t, src.SetTileExtent(datatype.Encode[int32](10)))
	var buf bytes.Buffer
	if err := src.Serialize(&buf); err != nil {
		t.Fatal(err)
	}
	full := buf.Bytes()

	inverted := append([]byte(nil), full...)
	// Swap low and high in place.
	copy(inverted[9:13], datatype.Encode[int32](100))
	copy(inverted[13:17], datatype.Encode[int32](1))

	badFlag := append([]byte(nil), full...)
	badFlag[8] = 7

	inputs := map[string][]byte{
		"truncated name":   full[:5],
		"truncated domain": full[:12],
		"truncated extent": full[:len(full)-1],
		"inverted domain":  inverted,
		"bad flag":         badFlag,
		"empty":            nil,
	}

	for name, data := range inputs {
		t.Run(name, func(t *testing.T) {
			d := NewDimension("keep", Int32)
			mustSet(t, d.SetDomain(datatype.Encode[int32](-5, 5)))
			err := d.Deserialize(bytes.NewReader(data), Int32)
			if !errors.Is(err, ErrDeserialization) {
				t.Fatalf("expected ErrDeserialization, got %v", err)
			}
			if d.Name() != "keep" {
				t.Errorf("name changed to %q", d.Name())
			}
			if got := datatype.DecodeSlice[int32](d.Domain()); got[0] != -5 || got[1] != 5 {
				t.Errorf("domain changed to %v", got)
			}
			if d.TileExtent() != nil {
				t.Errorf("extent changed to %x", d.TileExtent())
			}
		})
	}
}

func TestDimensionDeserializeUnknownType(t *testing.T) {
	d := NewDimension("d", Int32)
	if err := d.Deserialize(bytes.NewReader([]byte{0, 0, 0, 0, 0, 0}), Datatype(99)); !errors.Is(err, ErrDeserialization) {
		t.Fatalf("expected ErrDeserialization, got %v", err)
	}
}

func TestDimensionClone(t *testing.T) {
	d := NewDimension("rows", Int32)
	mustSet(t, d.SetDomain(datatype.Encode[int32](1, 10)))
	c := d.Clone()
	mustSet(t, c.SetDomain(datatype.Encode[int32](1, 20)))
	if got := datatype.DecodeSlice[int32](d.Domain()); got[1] != 10 {
		t.Errorf("clone shares domain with original: %v", got)
	}
}

func TestDimensionDump(t *testing.T) {
	d := NewDimension("", Int32)
	mustSet(t, d.SetDomain(datatype.Encode[int32](1, 100)))
	mustSet(t, d.SetTileExtent(datatype.Encode[int32](10)))

	var sb strings.Builder
	if err := d.Dump(&sb); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"<anonymous>", "INT32", "[1,100]", "Tile extent: 10"} {
		if !strings.Contains(sb.String(), want) {
			t.Errorf("dump missing %q:\n%s", want, sb.String())
		}
	}
}

func mustSet(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatal(err)
	}
}
