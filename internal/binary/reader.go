package binary

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"math"
)

// ErrTooLong is returned when a length-prefixed field exceeds the limit.
var ErrTooLong = errors.New("length-prefixed field too long")

// maxPrealloc caps how much ReadBytes allocates before data arrives.
const maxPrealloc = 1 << 20

// Reader decodes little-endian values from a byte stream.
type Reader struct {
	r   io.Reader
	pos int64
}

// NewReader creates a reader over r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// Pos returns the number of bytes consumed so far.
func (r *Reader) Pos() int64 {
	return r.pos
}

// ReadBytes reads exactly n bytes.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if n <= 0 {
		return nil, nil
	}
	if n <= maxPrealloc {
		buf := make([]byte, n)
		m, err := io.ReadFull(r.r, buf)
		r.pos += int64(m)
		if err != nil {
			return nil, unexpected(err)
		}
		return buf, nil
	}

	var buf bytes.Buffer
	m, err := io.CopyN(&buf, r.r, int64(n))
	r.pos += m
	if err != nil {
		return nil, unexpected(err)
	}
	return buf.Bytes(), nil
}

// ReadUint8 reads an unsigned 8-bit integer.
func (r *Reader) ReadUint8() (uint8, error) {
	buf, err := r.ReadBytes(1)
	if err != nil {
		return 0, err
	}
	return buf[0], nil
}

// ReadBool reads a one-byte presence flag. Any non-zero byte is true.
func (r *Reader) ReadBool() (bool, error) {
	v, err := r.ReadUint8()
	return v != 0, err
}

// ReadUint16 reads an unsigned 16-bit integer.
func (r *Reader) ReadUint16() (uint16, error) {
	buf, err := r.ReadBytes(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(buf), nil
}

// ReadUint32 reads an unsigned 32-bit integer.
func (r *Reader) ReadUint32() (uint32, error) {
	buf, err := r.ReadBytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf), nil
}

// ReadUint64 reads an unsigned 64-bit integer.
func (r *Reader) ReadUint64() (uint64, error) {
	buf, err := r.ReadBytes(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(buf), nil
}

// ReadInt32 reads a signed 32-bit integer.
func (r *Reader) ReadInt32() (int32, error) {
	v, err := r.ReadUint32()
	return int32(v), err
}

// ReadInt64 reads a signed 64-bit integer.
func (r *Reader) ReadInt64() (int64, error) {
	v, err := r.ReadUint64()
	return int64(v), err
}

// ReadBlob reads a uint32 length followed by that many bytes.
func (r *Reader) ReadBlob() ([]byte, error) {
	n, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	if uint64(n) > math.MaxInt32 {
		return nil, ErrTooLong
	}
	return r.ReadBytes(int(n))
}

// ReadString reads a uint32 length followed by that many bytes as a string.
func (r *Reader) ReadString() (string, error) {
	b, err := r.ReadBlob()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ReadUint64s reads n unsigned 64-bit integers.
func (r *Reader) ReadUint64s(n int) ([]uint64, error) {
	buf, err := r.ReadBytes(n * 8)
	if err != nil {
		return nil, err
	}
	out := make([]uint64, n)
	for i := range out {
		out[i] = binary.LittleEndian.Uint64(buf[i*8:])
	}
	return out, nil
}

func unexpected(err error) error {
	if errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return err
}
