// Package binary provides the little-endian stream codec used by every
// serialized structure in an array: dimensions, domains, attributes, array
// schemas and fragment metadata.
//
// Unlike a random-access file format, these structures are written and read
// sequentially, so [Reader] and [Writer] wrap a plain [io.Reader] or
// [io.Writer] and track only the number of bytes consumed or produced.
//
// # Truncation
//
// A read that runs past the end of the input reports [io.ErrUnexpectedEOF],
// including a read that starts exactly at the end. Callers that decode a
// fixed layout can therefore treat any error as malformed input.
//
// # Length-Prefixed Fields
//
// Strings and byte blobs are written as a uint32 length followed by the
// bytes. [Reader.ReadBytes] does not trust the length for allocation: large
// lengths are read incrementally so that a corrupted prefix cannot force a
// huge allocation before the input runs out.
//
// # Checksums
//
// [Fletcher32] is the checksum applied by the tile filter pipeline and
// appended to fragment metadata.
package binary
