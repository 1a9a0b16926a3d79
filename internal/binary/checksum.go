package binary

import "hash"

// Size of a Fletcher-32 checksum in bytes.
const Fletcher32Size = 4

type fletcher32 struct {
	sum1, sum2 uint32
	odd        bool
	carry      byte
}

var _ hash.Hash32 = (*fletcher32)(nil)

// NewFletcher32 returns a streaming Fletcher-32 digest. The input is read as
// little-endian 16-bit words; a trailing odd byte is padded with zero when
// the sum is taken, so splitting the input across writes does not change
// the result.
func NewFletcher32() hash.Hash32 {
	return &fletcher32{}
}

func (f *fletcher32) add(word uint32) {
	f.sum1 = (f.sum1 + word) % 65535
	f.sum2 = (f.sum2 + f.sum1) % 65535
}

func (f *fletcher32) Write(p []byte) (int, error) {
	n := len(p)
	if f.odd && len(p) > 0 {
		f.add(uint32(f.carry) | uint32(p[0])<<8)
		f.odd = false
		p = p[1:]
	}
	for len(p) >= 2 {
		f.add(uint32(p[0]) | uint32(p[1])<<8)
		p = p[2:]
	}
	if len(p) == 1 {
		f.carry, f.odd = p[0], true
	}
	return n, nil
}

func (f *fletcher32) Sum32() uint32 {
	s1, s2 := f.sum1, f.sum2
	if f.odd {
		s1 = (s1 + uint32(f.carry)) % 65535
		s2 = (s2 + s1) % 65535
	}
	return s2<<16 | s1
}

func (f *fletcher32) Sum(b []byte) []byte {
	s := f.Sum32()
	return append(b, byte(s), byte(s>>8), byte(s>>16), byte(s>>24))
}

func (f *fletcher32) Reset()         { *f = fletcher32{} }
func (f *fletcher32) Size() int      { return Fletcher32Size }
func (f *fletcher32) BlockSize() int { return 2 }

// Fletcher32 returns the Fletcher-32 checksum of data.
func Fletcher32(data []byte) uint32 {
	h := NewFletcher32()
	h.Write(data)
	return h.Sum32()
}

// VerifyFletcher32 reports whether data matches an expected checksum.
func VerifyFletcher32(data []byte, expected uint32) bool {
	return Fletcher32(data) == expected
}
