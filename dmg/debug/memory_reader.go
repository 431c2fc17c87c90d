package debug

import (
	"github.com/castlerock/dmgcore/dmg/bit"
	"github.com/castlerock/dmgcore/dmg/video"
)

// MemoryReader is the read-only access debug extraction needs, satisfied by
// *memory.MMU. Keeping it separate from the production bus interfaces lets
// debug tooling run against any recorded snapshot, not just a live MMU.
type MemoryReader interface {
	Read(addr uint16) uint8
	ReadBit(bit uint8, addr uint16) bool
}

// ExtractOAMDataFromReader decodes all 40 OAM entries and flags which are
// visible on currentLine at the given sprite height.
func ExtractOAMDataFromReader(reader MemoryReader, currentLine int, spriteHeight int) *OAMData {
	data := &OAMData{
		Sprites:      make([]SpriteInfo, OAMSpriteCount),
		CurrentLine:  currentLine,
		SpriteHeight: spriteHeight,
	}

	activeCount := 0

	for i := 0; i < OAMSpriteCount; i++ {
		baseAddr := uint16(OAMBaseAddr + i*OAMBytesPerSprite)

		rawY := reader.Read(baseAddr)
		rawX := reader.Read(baseAddr + 1)
		tileIndex := reader.Read(baseAddr + 2)
		attributes := reader.Read(baseAddr + 3)

		adjustedY := int(rawY) - SpriteYOffset
		adjustedX := int(rawX) - SpriteXOffset

		isVisible := adjustedY <= currentLine && adjustedY+spriteHeight > currentLine
		if isVisible {
			activeCount++
		}

		sprite := video.Sprite{
			Y:         uint8(adjustedY),
			X:         uint8(adjustedX),
			TileIndex: tileIndex,
			Flags:     attributes,
		}
		sprite.PaletteOBP1 = bit.IsSet(4, attributes)
		sprite.FlipX = bit.IsSet(5, attributes)
		sprite.FlipY = bit.IsSet(6, attributes)
		sprite.BehindBG = bit.IsSet(7, attributes)

		data.Sprites[i] = SpriteInfo{
			Index:     i,
			Sprite:    sprite,
			IsVisible: isVisible,
		}
	}

	data.ActiveSprites = activeCount
	return data
}

// ExtractVRAMDataFromReader decodes all 384 tile patterns plus tilemap state.
func ExtractVRAMDataFromReader(reader MemoryReader) *VRAMData {
	data := &VRAMData{
		TilePatterns: make([]TilePattern, TilePatternCount),
	}

	for i := 0; i < TilePatternCount; i++ {
		baseAddr := uint16(VRAMBaseAddr + i*TileDataSize)
		tile := video.FetchTileWithIndex(reader, baseAddr, i)
		data.TilePatterns[i] = TilePattern{
			Index:  i,
			Pixels: tile.Pixels(),
		}
	}

	data.TilemapInfo = extractTilemapInfoFromReader(reader)

	return data
}

func extractTilemapInfoFromReader(reader MemoryReader) TilemapInfo {
	lcdc := reader.Read(0xFF40)

	return TilemapInfo{
		BackgroundActive: lcdc&0x01 != 0,
		WindowActive:     lcdc&0x20 != 0,
		LCDCValue:        lcdc,
	}
}
