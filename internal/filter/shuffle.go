package filter

// ShuffleFilter implements the byte shuffle filter.
// This filter rearranges bytes to improve compression by grouping
// similar byte positions together (e.g., all MSBs, then all next bytes, etc.).
type ShuffleFilter struct {
	elemSize int
}

// NewShuffle creates a shuffle filter for elements of elemSize bytes.
func NewShuffle(elemSize int) *ShuffleFilter {
	if elemSize < 1 {
		elemSize = 1
	}
	return &ShuffleFilter{elemSize: elemSize}
}

func (f *ShuffleFilter) ID() ID {
	return Shuffle
}

// Encode groups byte j of every element together.
// Input is organized as: [elem0][elem1]...[elemM]
// Output is organized as: [all byte 0s][all byte 1s]...[all byte N-1s]
// Trailing bytes that do not form a whole element are kept in place.
func (f *ShuffleFilter) Encode(input []byte) ([]byte, error) {
	numElems := len(input) / f.elemSize
	if f.elemSize <= 1 || numElems == 0 {
		return input, nil
	}

	output := make([]byte, len(input))
	for i := 0; i < numElems; i++ {
		for j := 0; j < f.elemSize; j++ {
			output[j*numElems+i] = input[i*f.elemSize+j]
		}
	}
	tail := numElems * f.elemSize
	copy(output[tail:], input[tail:])
	return output, nil
}

// Decode reverses the shuffle transformation.
func (f *ShuffleFilter) Decode(input []byte) ([]byte, error) {
	numElems := len(input) / f.elemSize
	if f.elemSize <= 1 || numElems == 0 {
		return input, nil
	}

	output := make([]byte, len(input))
	for i := 0; i < numElems; i++ {
		for j := 0; j < f.elemSize; j++ {
			// In shuffled format, byte j of all elements is at offset j*numElems
			output[i*f.elemSize+j] = input[j*numElems+i]
		}
	}
	tail := numElems * f.elemSize
	copy(output[tail:], input[tail:])
	return output, nil
}

// SetElementSize sets the element size for the shuffle filter.
func (f *ShuffleFilter) SetElementSize(size int) {
	if size < 1 {
		size = 1
	}
	f.elemSize = size
}
