package video

import "github.com/castlerock/dmgcore/dmg/bit"

// TileRow represents one row of a tile pattern (8 pixels), stored as the
// Game Boy's native 2-bits-per-pixel bit-plane format: two bytes, where bit
// 7 is the leftmost pixel and each pixel's 2-bit color index is formed by
// combining the matching bit from both planes.
type TileRow struct {
	Low  byte
	High byte
}

// GetPixel extracts a pixel color index (0-3) from the tile row. pixelX is
// 0-7, where 0 is the leftmost pixel.
func (t TileRow) GetPixel(pixelX int) int {
	bitIndex := uint8(7 - pixelX)

	pixel := 0
	if bit.IsSet(bitIndex, t.Low) {
		pixel |= 1
	}
	if bit.IsSet(bitIndex, t.High) {
		pixel |= 2
	}

	return pixel
}

// GetPixelFlipped extracts a pixel color index with horizontal flip applied,
// used when rendering a sprite with its FlipX attribute set.
func (t TileRow) GetPixelFlipped(pixelX int) int {
	bitIndex := uint8(pixelX)

	pixel := 0
	if bit.IsSet(bitIndex, t.Low) {
		pixel |= 1
	}
	if bit.IsSet(bitIndex, t.High) {
		pixel |= 2
	}

	return pixel
}

// Tile is a complete 8x8 tile pattern: 8 rows, 16 bytes in VRAM.
type Tile struct {
	Index int // VRAM tile pattern index (0-383), set by FetchTileWithIndex
	Rows  [8]TileRow
}

// GetPixel returns the color index (0-3) at (x, y), or 0 if out of range.
func (t *Tile) GetPixel(x, y int) int {
	if y < 0 || y >= 8 || x < 0 || x >= 8 {
		return 0
	}
	return t.Rows[y].GetPixel(x)
}

// Pixels renders the tile as an 8x8 array of GBColor index values (0-3,
// pre-palette). Used by debug visualizers that don't need live rendering.
func (t *Tile) Pixels() [8][8]GBColor {
	var pixels [8][8]GBColor
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			pixels[y][x] = GBColor(t.Rows[y].GetPixel(x))
		}
	}
	return pixels
}

// MemoryReader is the minimal read access tile fetching needs, satisfied by
// *memory.MMU as well as any debug snapshot of memory.
type MemoryReader interface {
	Read(addr uint16) byte
}

// FetchTile reads a complete 16-byte tile from memory starting at baseAddr.
// The returned Tile's Index is left unset; use FetchTileWithIndex if the
// caller needs to track which VRAM slot the tile came from.
func FetchTile(memory MemoryReader, baseAddr uint16) Tile {
	var tile Tile
	for row := 0; row < 8; row++ {
		rowAddr := baseAddr + uint16(row*2)
		tile.Rows[row] = TileRow{
			Low:  memory.Read(rowAddr),
			High: memory.Read(rowAddr + 1),
		}
	}
	return tile
}

// FetchTileWithIndex reads a tile and stamps its VRAM pattern index.
func FetchTileWithIndex(memory MemoryReader, baseAddr uint16, index int) Tile {
	tile := FetchTile(memory, baseAddr)
	tile.Index = index
	return tile
}
