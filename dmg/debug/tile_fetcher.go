package debug

import "github.com/castlerock/dmgcore/dmg/video"

// FetchTileForIndex fetches a tile using the same addressing rules as the
// GPU's background/window fetcher, so debug visualization matches what the
// PPU actually draws.
func FetchTileForIndex(reader MemoryReader, tileIndex byte, baseAddr uint16, signed bool) video.Tile {
	var tileAddr uint16

	if signed {
		// baseAddr is 0x9000, as in the GPU's signed mode; index 0 maps to 0x9000, index 0x80 (-128) to 0x8800.
		signedIndex := int8(tileIndex)
		tileAddr = uint16(int(baseAddr) + int(signedIndex)*16)
	} else {
		tileAddr = baseAddr + uint16(tileIndex)*16
	}

	return video.FetchTileWithIndex(reader, tileAddr, int(tileIndex))
}

// GetTileForBackgroundIndex remaps a background/window tile index into the
// combined 384-tile table built from both addressing ranges.
func GetTileForBackgroundIndex(tiles []video.Tile, tileIndex byte, useSigned bool) video.Tile {
	if !useSigned {
		return tiles[tileIndex]
	}

	if tileIndex < 128 {
		arrayIndex := int(tileIndex) + 256
		if arrayIndex < len(tiles) {
			return tiles[arrayIndex]
		}
		return tiles[0]
	}

	return tiles[tileIndex]
}
