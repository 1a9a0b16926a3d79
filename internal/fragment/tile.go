package fragment

import "github.com/robert-malhotra/go-tiledb/internal/layout"

// SplitTiles splits row-major cell data into tiles of tileCells cells of
// cellSize bytes each. The last tile may be partial.
func SplitTiles(data []byte, cellSize, tileCells uint64) [][]byte {
	tileSize := cellSize * tileCells
	if tileSize == 0 {
		return nil
	}
	tiles := make([][]byte, 0, (uint64(len(data))+tileSize-1)/tileSize)
	for offset := uint64(0); offset < uint64(len(data)); offset += tileSize {
		end := min(offset+tileSize, uint64(len(data)))
		tiles = append(tiles, data[offset:end])
	}
	return tiles
}

// Locate returns the tile holding the cell at coord and the cell's index
// within that tile. coord must lie inside the fragment's domain.
func (m *Metadata) Locate(coord []uint64) (tile, cell uint64) {
	idx := m.Domain.RowMajorIndex(coord)
	return idx / m.TileCells, idx % m.TileCells
}

// TileSpan returns the first and last tile holding any cell of box, which
// must lie inside the fragment's domain. The cells of box are all stored in
// tiles within the span, although not every tile of the span is
// necessarily needed.
func (m *Metadata) TileSpan(box layout.Box) (first, last uint64) {
	lo := make([]uint64, len(box))
	hi := make([]uint64, len(box))
	for i, r := range box {
		lo[i], hi[i] = r.Lo, r.Hi
	}
	return m.Domain.RowMajorIndex(lo) / m.TileCells, m.Domain.RowMajorIndex(hi) / m.TileCells
}
