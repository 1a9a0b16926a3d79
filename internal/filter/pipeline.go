package filter

import (
	"fmt"

	"github.com/robert-malhotra/go-tiledb/internal/binary"
)

// Pipeline is an ordered list of filters applied to every tile of one
// attribute.
type Pipeline struct {
	infos   []Info
	filters []Filter
}

// NewPipeline creates a filter pipeline from serialized filter descriptions.
func NewPipeline(infos []Info, elemSize int) (*Pipeline, error) {
	p := &Pipeline{
		infos:   append([]Info(nil), infos...),
		filters: make([]Filter, 0, len(infos)),
	}

	for _, info := range infos {
		f, err := New(info, elemSize)
		if err != nil {
			return nil, fmt.Errorf("creating filter %s: %w", info.ID, err)
		}
		p.filters = append(p.filters, f)
	}

	return p, nil
}

// Encode applies the filters in order.
func (p *Pipeline) Encode(input []byte) ([]byte, error) {
	data := input
	for _, f := range p.filters {
		var err error
		data, err = f.Encode(data)
		if err != nil {
			return nil, fmt.Errorf("filter %s encode: %w", f.ID(), err)
		}
	}
	return data, nil
}

// Decode applies the filters in reverse order (last filter first).
func (p *Pipeline) Decode(input []byte) ([]byte, error) {
	data := input
	for i := len(p.filters) - 1; i >= 0; i-- {
		var err error
		data, err = p.filters[i].Decode(data)
		if err != nil {
			return nil, fmt.Errorf("filter %s decode: %w", p.filters[i].ID(), err)
		}
	}
	return data, nil
}

// Infos returns the serialized descriptions of the pipeline's filters.
func (p *Pipeline) Infos() []Info {
	return append([]Info(nil), p.infos...)
}

// Empty returns true if the pipeline has no filters.
func (p *Pipeline) Empty() bool {
	return len(p.filters) == 0
}

// Len returns the number of filters in the pipeline.
func (p *Pipeline) Len() int {
	return len(p.filters)
}

// WriteInfos serializes a filter list as a uint32 count followed by
// (id:uint8, level:int32) pairs.
func WriteInfos(w *binary.Writer, infos []Info) error {
	if err := w.WriteUint32(uint32(len(infos))); err != nil {
		return err
	}
	for _, info := range infos {
		if err := w.WriteUint8(uint8(info.ID)); err != nil {
			return err
		}
		if err := w.WriteInt32(info.Level); err != nil {
			return err
		}
	}
	return nil
}

// ReadInfos decodes a filter list written by WriteInfos. Unknown IDs are
// rejected.
func ReadInfos(r *binary.Reader) ([]Info, error) {
	n, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	var infos []Info
	for i := uint32(0); i < n; i++ {
		id, err := r.ReadUint8()
		if err != nil {
			return nil, err
		}
		if _, ok := Registry[ID(id)]; !ok {
			return nil, fmt.Errorf("%w: ID %d", ErrUnknownFilter, id)
		}
		level, err := r.ReadInt32()
		if err != nil {
			return nil, err
		}
		infos = append(infos, Info{ID: ID(id), Level: level})
	}
	return infos, nil
}
