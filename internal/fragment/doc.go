// Package fragment defines how a dense write is laid out in storage.
//
// Every write query produces one immutable fragment under the array's URI:
//
//	<array>/__array_schema.tdb
//	<array>/__<uuid>_<millis>/<attr>.tdb
//	<array>/__<uuid>_<millis>/<attr>_var.tdb
//	<array>/__<uuid>_<millis>/__fragment_metadata.tdb
//
// The fragment directory name embeds a random uuid and the write time in
// milliseconds; see [NewName] and [ParseName]. The metadata object is written
// last, so a fragment without one is an uncommitted write and is ignored by
// [FragmentURIs].
//
// # Data Objects
//
// A fragment covers a box of cells (its non-empty domain). Each attribute's
// cells are stored in row-major order of that box, split into tiles of a
// fixed number of cells ([SplitTiles]). Each tile is passed through the
// attribute's filter pipeline and the encoded tiles are concatenated; the
// tile boundaries are recorded in [Attribute.TileOffsets].
//
// Var-sized attributes store one uint64 offset per cell in the data object,
// tiled like fixed-size data, and the concatenated values in a separate var
// object that is filtered as a single tile.
//
// # Metadata Format
//
// [Metadata.Encode] writes, in little-endian order:
//
//	magic "TDBF" | version:uint32 | name | timestamp:int64
//	dim_num:uint32 | dim_num x (lo:uint64, hi:uint64)
//	tile_cells:uint64 | attr_num:uint32
//	attr_num x (name | var:uint8 | n:uint32 | n x offset:uint64 | var_size:uint64)
//	fletcher32:uint32
//
// Strings are a uint32 length followed by the bytes. [Decode] verifies the
// checksum before parsing and rejects trailing bytes.
//
// # Fragment Order
//
// When fragments overlap, the newest one wins. [SortByTimestamp] orders
// fragments oldest first, breaking timestamp ties by name.
package fragment
