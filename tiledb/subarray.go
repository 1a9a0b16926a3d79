package tiledb

import (
	"fmt"

	"github.com/robert-malhotra/go-tiledb/internal/datatype"
)

// Scalar is the set of Go types usable as coordinates.
type Scalar = datatype.Scalar

// Subarray encodes low/high coordinate pairs, one pair per dimension, as a
// subarray buffer.
func Subarray[T Scalar](bounds ...T) []byte {
	return datatype.Encode(bounds...)
}

// CheckSubarrayBounds validates subarray against every dimension of domain:
// each low bound must be at least the dimension's low, each high bound at
// most the dimension's high, and low must not exceed high. The first
// failing check is reported. A nil subarray selects the whole domain and
// always passes.
func CheckSubarrayBounds(domain *Domain, subarray []byte) error {
	if subarray == nil {
		return nil
	}
	ops, err := datatype.Of(domain.Type())
	if err != nil {
		return fmt.Errorf("%w: %w: domain type %s", ErrSubarray, ErrUnsupportedDatatype, domain.Type())
	}
	size := ops.Size()
	if want := 2 * domain.DimNum() * size; len(subarray) != want {
		return fmt.Errorf("%w: subarray has %d bytes, want %d", ErrSubarray, len(subarray), want)
	}

	for i := 0; i < domain.DimNum(); i++ {
		dim := domain.Dimension(i)
		dom := dim.domain
		if dom == nil {
			return fmt.Errorf("%w: dimension %q has no domain", ErrSubarray, dim.Name())
		}
		lo := subarray[2*i*size:]
		hi := subarray[(2*i+1)*size:]
		if ops.Compare(lo, dom) < 0 || ops.Compare(hi, dom[size:]) > 0 {
			return fmt.Errorf("%w: dimension %d range [%s, %s] exceeds domain [%s, %s]",
				ErrSubarrayOutOfBounds, i, ops.Format(lo), ops.Format(hi), ops.Format(dom), ops.Format(dom[size:]))
		}
		if ops.Compare(lo, hi) > 0 {
			return fmt.Errorf("%w: dimension %d range [%s, %s]",
				ErrSubarrayInverted, i, ops.Format(lo), ops.Format(hi))
		}
	}
	return nil
}
