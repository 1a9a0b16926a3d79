// Package filter implements the tile filter pipeline.
//
// Every attribute carries an ordered list of filters. When a fragment is
// written, each tile of the attribute is passed through the filters in order;
// when it is read back, the filters are applied in reverse order to recover
// the raw cell values.
//
// # Supported Filters
//
//   - none (ID 0): passes data through unchanged.
//
//   - gzip (ID 1): DEFLATE compression with zlib framing via [Deflate],
//     using Go's standard compress/zlib package. The level is 0-9.
//
//   - zstd (ID 2): Zstandard compression via [ZstdFilter], backed by
//     github.com/klauspost/compress/zstd. The level uses the zstd
//     command-line scale.
//
//   - shuffle (ID 9): byte shuffling via [ShuffleFilter]. Groups byte i of
//     every cell value together, which improves compression of numeric data.
//     The element size is the attribute's datatype size.
//
//   - fletcher32 (ID 14): checksum via [Fletcher32Filter]. Appends a 32-bit
//     Fletcher checksum on write and verifies it on read.
//
// # Filter Pipeline
//
// The [Pipeline] type manages the filters of one attribute:
//
//	pipeline, err := filter.NewPipeline(attr.Filters, attr.Type.Size())
//	stored, err := pipeline.Encode(tile)
//	tile, err = pipeline.Decode(stored)
//
// For example, an attribute with filters [shuffle, zstd, fletcher32] is
// shuffled, compressed and checksummed on write; on read the checksum is
// verified first, then the tile is decompressed and unshuffled.
//
// # Serialized Form
//
// A filter list is stored in the array schema as a uint32 count followed by
// one (id:uint8, level:int32) pair per filter; see [WriteInfos] and
// [ReadInfos].
package filter
