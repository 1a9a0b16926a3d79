package main

import (
	"fmt"
	"strings"

	"github.com/robert-malhotra/go-tiledb/internal/datatype"
	"github.com/robert-malhotra/go-tiledb/tiledb"
)

// parseSubarray reads "lo,hi,lo,hi,..." in the domain's datatype. An empty
// string selects the whole domain.
func parseSubarray(domain *tiledb.Domain, s string) ([]byte, error) {
	if s == "" {
		return nil, nil
	}
	ops, err := datatype.Of(domain.Type())
	if err != nil {
		return nil, err
	}
	fields := strings.Split(s, ",")
	if len(fields) != 2*domain.DimNum() {
		return nil, fmt.Errorf("subarray needs %d bounds, got %d", 2*domain.DimNum(), len(fields))
	}
	var out []byte
	for _, f := range fields {
		v, err := ops.Parse(strings.TrimSpace(f))
		if err != nil {
			return nil, fmt.Errorf("subarray bound %q: %w", f, err)
		}
		out = append(out, v...)
	}
	return out, nil
}

// encodeCells encodes the cells of one attribute. Cells are separated by
// commas. String attributes take each cell literally; numeric values within
// one cell are separated by semicolons.
func encodeCells(attr *tiledb.Attribute, s string) (offsets []uint64, values []byte, err error) {
	cells := strings.Split(s, ",")
	for i, cell := range cells {
		if attr.IsVar() {
			offsets = append(offsets, uint64(len(values)))
		}
		var v []byte
		if attr.Type.IsString() || attr.Type == datatype.Any {
			v = []byte(cell)
		} else if v, err = parseNumbers(attr.Type, cell); err != nil {
			return nil, nil, fmt.Errorf("attribute %q cell %d: %w", attr.Name, i, err)
		}
		if !attr.IsVar() && uint64(len(v)) != attr.CellSize() {
			return nil, nil, fmt.Errorf("attribute %q cell %d: %d bytes, cells hold %d", attr.Name, i, len(v), attr.CellSize())
		}
		values = append(values, v...)
	}
	return offsets, values, nil
}

func parseNumbers(dt tiledb.Datatype, cell string) ([]byte, error) {
	ops, err := datatype.Of(dt)
	if err != nil {
		return nil, err
	}
	var out []byte
	for _, f := range strings.Split(cell, ";") {
		v, err := ops.Parse(strings.TrimSpace(f))
		if err != nil {
			return nil, err
		}
		out = append(out, v...)
	}
	return out, nil
}

// formatCells is the inverse of encodeCells for the results of one read.
func formatCells(attr *tiledb.Attribute, buf *tiledb.AttributeBuffer) ([]string, error) {
	values := buf.Values[:*buf.ValuesSize]
	var cells [][]byte
	if attr.IsVar() {
		n := *buf.OffsetsSize / 8
		for i := uint64(0); i < n; i++ {
			end := uint64(len(values))
			if i+1 < n {
				end = buf.Offsets[i+1]
			}
			cells = append(cells, values[buf.Offsets[i]:end])
		}
	} else {
		cs := attr.CellSize()
		for off := uint64(0); off+cs <= uint64(len(values)); off += cs {
			cells = append(cells, values[off:off+cs])
		}
	}

	out := make([]string, len(cells))
	if attr.Type.IsString() || attr.Type == datatype.Any {
		for i, c := range cells {
			out[i] = string(c)
		}
		return out, nil
	}
	ops, err := datatype.Of(attr.Type)
	if err != nil {
		return nil, err
	}
	size := ops.Size()
	for i, c := range cells {
		parts := make([]string, 0, len(c)/size)
		for off := 0; off+size <= len(c); off += size {
			parts = append(parts, ops.Format(c[off:]))
		}
		out[i] = strings.Join(parts, ";")
	}
	return out, nil
}
