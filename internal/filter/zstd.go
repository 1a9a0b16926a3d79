package filter

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// decoder is shared by all zstd filters; DecodeAll is safe for concurrent use.
var decoder = sync.OnceValues(func() (*zstd.Decoder, error) {
	return zstd.NewReader(nil)
})

// ZstdFilter implements the zstd compression filter.
type ZstdFilter struct {
	level int

	once    sync.Once
	encoder *zstd.Encoder
	err     error
}

// NewZstd creates a zstd filter. level uses the zstd command-line scale;
// values below 1 select level 3.
func NewZstd(level int) *ZstdFilter {
	if level < 1 {
		level = 3
	}
	return &ZstdFilter{level: level}
}

func (f *ZstdFilter) ID() ID {
	return Zstd
}

func (f *ZstdFilter) Encode(input []byte) ([]byte, error) {
	f.once.Do(func() {
		f.encoder, f.err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(f.level)))
	})
	if f.err != nil {
		return nil, fmt.Errorf("zstd encoder: %w", f.err)
	}
	return f.encoder.EncodeAll(input, make([]byte, 0, len(input))), nil
}

func (f *ZstdFilter) Decode(input []byte) ([]byte, error) {
	d, err := decoder()
	if err != nil {
		return nil, fmt.Errorf("zstd decoder: %w", err)
	}
	out, err := d.DecodeAll(input, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd decompress: %w", err)
	}
	return out, nil
}
