package memory

import (
	"fmt"
	"io"
)

const titleLength = 16

const (
	entryPointAddress       = 0x100
	logoAddress             = 0x104
	titleAddress            = 0x134
	manufacturerCodeAddress = 0x13F
	cgbFlagAddress          = 0x143
	newLicenseCodeAddress   = 0x144
	sgbFlagAddress          = 0x146
	cartridgeTypeAddress    = 0x147
	romSizeAddress          = 0x148
	ramSizeAddress          = 0x149
	destinationCodeAddress  = 0x14A
	oldLicenseCodeAddress   = 0x14B
	versionNumberAddress    = 0x14C
	headerChecksumAddress   = 0x14D
	globalChecksumAddress   = 0x14E
)

// MBCType identifies which memory bank controller a cartridge header
// declares, decoded from the cartridge type byte at 0x147.
type MBCType uint8

const (
	NoMBCType MBCType = iota
	MBC1Type
	MBC1MultiType
	MBC2Type
	MBC3Type
	MBC5Type
	MBCUnknownType
)

// ramBankCounts maps the 0x149 RAM size code to a count of 8KB banks.
var ramBankCounts = map[uint8]uint8{
	0x00: 0,
	0x01: 1, // 2KB, smaller than a full bank but only one is ever banked in
	0x02: 1,
	0x03: 4,
	0x04: 16,
	0x05: 8,
}

// Cartridge holds ROM data and header-derived metadata for a loaded game.
type Cartridge struct {
	data           []byte
	title          string
	headerChecksum uint16
	globalChecksum uint16
	version        uint8
	cartType       uint8
	romSize        uint8
	ramSize        uint8

	mbcType      MBCType
	ramBankCount uint8
	hasBattery   bool
	hasRTC       bool
	hasRumble    bool
	rtcSnapshot  []uint8

	// mbc is populated once the cartridge is attached to an MMU via
	// NewWithCartridge, and is what SaveRAM/LoadRAM persist through.
	mbc MBC
}

// NewCartridge creates an empty cartridge, useful only for debugging purposes.
func NewCartridge() *Cartridge {
	return &Cartridge{
		data:    make([]byte, 0x8000),
		mbcType: NoMBCType,
	}
}

// NewCartridgeWithData initializes a new Cartridge from a slice of bytes,
// decoding the header fields that select the MBC type and RAM/battery
// configuration.
func NewCartridgeWithData(bytes []byte) *Cartridge {
	titleBytes := bytes[titleAddress : titleAddress+titleLength]

	cart := &Cartridge{
		data:           make([]byte, len(bytes)),
		title:          cleanGameboyTitle(titleBytes),
		headerChecksum: combineBytes(bytes[headerChecksumAddress], bytes[headerChecksumAddress+1]),
		globalChecksum: combineBytes(bytes[globalChecksumAddress], bytes[globalChecksumAddress+1]),
		version:        bytes[versionNumberAddress],
		cartType:       bytes[cartridgeTypeAddress],
		romSize:        bytes[romSizeAddress],
		ramSize:        bytes[ramSizeAddress],
	}

	copy(cart.data, bytes)
	cart.decodeMBC()

	return cart
}

func combineBytes(high, low byte) uint16 {
	return uint16(high)<<8 | uint16(low)
}

// decodeMBC fills in the MBC type, RAM bank count and feature flags from
// the cartridge type byte at 0x147. See pandocs for the full type table;
// only the controllers this emulator implements are distinguished, the
// rest fall back to MBCUnknownType.
func (c *Cartridge) decodeMBC() {
	c.ramBankCount = ramBankCounts[c.ramSize]

	switch c.cartType {
	case 0x00, 0x08, 0x09:
		c.mbcType = NoMBCType
		c.hasBattery = c.cartType == 0x09
	case 0x01, 0x02, 0x03:
		c.mbcType = MBC1Type
		c.hasBattery = c.cartType == 0x03
	case 0x05, 0x06:
		c.mbcType = MBC2Type
		c.hasBattery = c.cartType == 0x06
		c.ramBankCount = 0 // MBC2 RAM is built into the chip, not header-sized
	case 0x0F, 0x10, 0x11, 0x12, 0x13:
		c.mbcType = MBC3Type
		c.hasRTC = c.cartType == 0x0F || c.cartType == 0x10
		c.hasBattery = c.cartType == 0x0F || c.cartType == 0x10 || c.cartType == 0x13
	case 0x19, 0x1A, 0x1B, 0x1C, 0x1D, 0x1E:
		c.mbcType = MBC5Type
		c.hasRumble = c.cartType >= 0x1C
		c.hasBattery = c.cartType == 0x1B || c.cartType == 0x1E
	default:
		c.mbcType = MBCUnknownType
	}
}

// Title returns the cleaned, printable game title from the header.
func (c *Cartridge) Title() string {
	return c.title
}

// MBCType reports which memory bank controller the header declared.
func (c *Cartridge) MBCType() MBCType {
	return c.mbcType
}

// HasBattery reports whether the header declares battery-backed RAM.
func (c *Cartridge) HasBattery() bool {
	return c.hasBattery
}

// SaveRAM writes the cartridge's battery-backed RAM to w. It is a no-op
// returning nil if the cartridge has no battery, no RAM, or has not yet
// been attached to an MMU.
func (c *Cartridge) SaveRAM(w io.Writer) error {
	backed, ok := c.mbc.(BatteryBacked)
	if !ok {
		return nil
	}
	ram := backed.RAM()
	if ram == nil {
		return nil
	}
	_, err := w.Write(ram)
	return err
}

// LoadRAM restores previously saved battery-backed RAM into the
// cartridge's MBC. The cartridge must already be attached to an MMU (via
// NewWithCartridge) for its MBC instance to exist.
func (c *Cartridge) LoadRAM(r io.Reader) error {
	backed, ok := c.mbc.(BatteryBacked)
	if !ok {
		return fmt.Errorf("memory: cartridge %q has no battery-backed RAM to load", c.title)
	}
	ram := backed.RAM()
	if ram == nil {
		return fmt.Errorf("memory: cartridge %q has no battery-backed RAM to load", c.title)
	}
	if _, err := io.ReadFull(r, ram); err != nil && err != io.ErrUnexpectedEOF {
		return err
	}
	return nil
}

// ReadByte reads a byte at the specified address. Does not check bounds, so the caller must make sure the
// address is valid for the cartridge.
func (c Cartridge) ReadByte(addr uint16) uint8 {
	return c.data[addr]
}
