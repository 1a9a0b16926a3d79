package tiledb

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type queryJSON struct {
	Type     string       `json:"type"`
	Status   string       `json:"status"`
	Layout   string       `json:"layout"`
	Subarray []byte       `json:"subarray,omitempty"`
	Buffers  []bufferJSON `json:"buffers"`
}

type bufferJSON struct {
	Name    string   `json:"name"`
	Var     bool     `json:"var,omitempty"`
	Offsets []uint64 `json:"offsets,omitempty"`
	Values  []byte   `json:"values"`
}

// MarshalJSON encodes the query state and the valid bytes of its buffers,
// so that a query executed in one process can be absorbed by another with
// UnmarshalQuery and CopyState.
func (q *Query) MarshalJSON() ([]byte, error) {
	out := queryJSON{
		Type:     q.typ.String(),
		Status:   q.status.String(),
		Layout:   q.layout.String(),
		Subarray: q.subarray,
		Buffers:  make([]bufferJSON, 0, q.buffers.Len()),
	}
	for _, name := range q.buffers.Names() {
		buf, _ := q.buffers.Get(name)
		b := bufferJSON{Name: name, Values: buf.Values[:min(*buf.ValuesSize, uint64(len(buf.Values)))]}
		if buf.IsVar() {
			b.Var = true
			b.Offsets = buf.Offsets[:min(*buf.OffsetsSize/8, uint64(len(buf.Offsets)))]
		}
		out.Buffers = append(out.Buffers, b)
	}
	return json.Marshal(out)
}

// UnmarshalQuery decodes a query encoded by MarshalJSON against schema.
// The returned query owns its buffers and has no storage manager; it is
// meant as the source of CopyState or CopyBuffers.
func UnmarshalQuery(data []byte, schema *ArraySchema) (*Query, error) {
	var in queryJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("%w: query: %w", ErrDeserialization, err)
	}
	typ, err := ParseQueryType(in.Type)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDeserialization, err)
	}
	status, err := ParseQueryStatus(in.Status)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDeserialization, err)
	}
	l, err := ParseLayout(in.Layout)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDeserialization, err)
	}

	q, err := NewQuery(nil, typ, schema, nil)
	if err != nil {
		return nil, err
	}
	if err := q.SetLayout(l); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDeserialization, err)
	}
	if err := q.SetSubarray(in.Subarray); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDeserialization, err)
	}
	for _, b := range in.Buffers {
		valuesSize := uint64(len(b.Values))
		if b.Var {
			offsetsSize := uint64(len(b.Offsets)) * 8
			err = q.SetVarBuffer(b.Name, b.Offsets, &offsetsSize, b.Values, &valuesSize)
		} else {
			err = q.SetBuffer(b.Name, b.Values, &valuesSize)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrDeserialization, err)
		}
	}
	q.status = status
	return q, nil
}
