package memory

import (
	"errors"
	"fmt"
	"log/slog"
	"time"
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
	headerEnd               = 0x150
)

var (
	ErrROMTooSmall          = errors.New("rom too small to contain a header")
	ErrUnknownCartridgeType = errors.New("unknown cartridge type")
	ErrUnknownRAMSize       = errors.New("unknown ram size")
	ErrHeaderChecksum       = errors.New("header checksum mismatch")
	ErrGlobalChecksum       = errors.New("global checksum mismatch")
)

// MBCType identifies the memory bank controller on the cartridge.
type MBCType uint8

const (
	NoMBCType MBCType = iota
	MBC1Type
	MBC2Type
	MBC3Type
	MBC5Type
)

func (t MBCType) String() string {
	switch t {
	case NoMBCType:
		return "ROM"
	case MBC1Type:
		return "MBC1"
	case MBC2Type:
		return "MBC2"
	case MBC3Type:
		return "MBC3"
	case MBC5Type:
		return "MBC5"
	}
	return fmt.Sprintf("MBCType(%d)", uint8(t))
}

type cartFeatures struct {
	mbc     MBCType
	ram     bool
	battery bool
	rtc     bool
	rumble  bool
}

// cartridgeTypes maps header byte 0x147 to the hardware on the board.
var cartridgeTypes = map[uint8]cartFeatures{
	0x00: {mbc: NoMBCType},
	0x01: {mbc: MBC1Type},
	0x02: {mbc: MBC1Type, ram: true},
	0x03: {mbc: MBC1Type, ram: true, battery: true},
	0x05: {mbc: MBC2Type},
	0x06: {mbc: MBC2Type, battery: true},
	0x08: {mbc: NoMBCType, ram: true},
	0x09: {mbc: NoMBCType, ram: true, battery: true},
	0x0F: {mbc: MBC3Type, rtc: true, battery: true},
	0x10: {mbc: MBC3Type, rtc: true, ram: true, battery: true},
	0x11: {mbc: MBC3Type},
	0x12: {mbc: MBC3Type, ram: true},
	0x13: {mbc: MBC3Type, ram: true, battery: true},
	0x19: {mbc: MBC5Type},
	0x1A: {mbc: MBC5Type, ram: true},
	0x1B: {mbc: MBC5Type, ram: true, battery: true},
	0x1C: {mbc: MBC5Type, rumble: true},
	0x1D: {mbc: MBC5Type, rumble: true, ram: true},
	0x1E: {mbc: MBC5Type, rumble: true, ram: true, battery: true},
}

// ramSizes maps header byte 0x149 to external RAM size in bytes.
var ramSizes = map[uint8]int{
	0x00: 0,
	0x01: 0x800,
	0x02: 0x2000,
	0x03: 0x8000,
	0x04: 0x20000,
	0x05: 0x10000,
}

// Header holds the parsed cartridge header (0x100-0x14F).
type Header struct {
	Title            string
	ManufacturerCode string
	CGBFlag          uint8
	SGBFlag          uint8
	Licensee         string
	CartridgeType    uint8
	MBC              MBCType
	HasRAM           bool
	HasBattery       bool
	HasRTC           bool
	HasRumble        bool
	ROMSize          int
	RAMSize          int
	Destination      uint8
	Version          uint8
	HeaderChecksum   uint8
	GlobalChecksum   uint16

	computedHeaderChecksum uint8
	computedGlobalChecksum uint16
}

// ParseHeader decodes the header of a ROM image. Only structural problems
// are returned as errors, checksum mismatches are reported by ChecksumErrors.
func ParseHeader(rom []byte) (*Header, error) {
	if len(rom) < headerEnd {
		return nil, fmt.Errorf("%w: %d bytes", ErrROMTooSmall, len(rom))
	}

	cartType := rom[cartridgeTypeAddress]
	features, ok := cartridgeTypes[cartType]
	if !ok {
		return nil, fmt.Errorf("%w: 0x%02X", ErrUnknownCartridgeType, cartType)
	}

	ramSize, ok := ramSizes[rom[ramSizeAddress]]
	if !ok {
		return nil, fmt.Errorf("%w: 0x%02X", ErrUnknownRAMSize, rom[ramSizeAddress])
	}
	if features.mbc == MBC2Type {
		// built in 512x4 bit RAM, the header declares none
		ramSize = mbc2RAMSize
	} else if !features.ram {
		ramSize = 0
	}

	cgbFlag := rom[cgbFlagAddress]
	titleEnd := titleAddress + titleLength
	if cgbFlag&0x80 != 0 {
		// the last title byte is the CGB flag, the 4 before it the manufacturer code
		titleEnd = manufacturerCodeAddress
	}

	h := &Header{
		Title:            cleanGameboyTitle(rom[titleAddress:titleEnd]),
		CGBFlag:          cgbFlag,
		SGBFlag:          rom[sgbFlagAddress],
		Licensee:         licensee(rom),
		CartridgeType:    cartType,
		MBC:              features.mbc,
		HasRAM:           ramSize > 0,
		HasBattery:       features.battery,
		HasRTC:           features.rtc,
		HasRumble:        features.rumble,
		ROMSize:          romSize(rom[romSizeAddress], len(rom)),
		RAMSize:          ramSize,
		Destination:      rom[destinationCodeAddress],
		Version:          rom[versionNumberAddress],
		HeaderChecksum:   rom[headerChecksumAddress],
		GlobalChecksum:   uint16(rom[globalChecksumAddress])<<8 | uint16(rom[globalChecksumAddress+1]),
	}
	h.computedHeaderChecksum = headerChecksum(rom)
	h.computedGlobalChecksum = globalChecksum(rom)
	if cgbFlag&0x80 != 0 {
		h.ManufacturerCode = cleanCode(rom[manufacturerCodeAddress:cgbFlagAddress])
	}

	return h, nil
}

// CGBSupported reports whether the cartridge can use CGB features.
func (h *Header) CGBSupported() bool {
	return h.CGBFlag&0x80 != 0
}

// CGBOnly reports whether the cartridge refuses to run on a DMG.
func (h *Header) CGBOnly() bool {
	return h.CGBFlag == 0xC0
}

// ChecksumErrors returns one error per mismatching checksum.
// Real cartridges sometimes ship with bad checksums, so these are warnings.
func (h *Header) ChecksumErrors() []error {
	var errs []error
	if h.computedHeaderChecksum != h.HeaderChecksum {
		errs = append(errs, fmt.Errorf("%w: header says 0x%02X, computed 0x%02X",
			ErrHeaderChecksum, h.HeaderChecksum, h.computedHeaderChecksum))
	}
	if h.computedGlobalChecksum != h.GlobalChecksum {
		errs = append(errs, fmt.Errorf("%w: header says 0x%04X, computed 0x%04X",
			ErrGlobalChecksum, h.GlobalChecksum, h.computedGlobalChecksum))
	}
	return errs
}

// headerChecksum computes x = x - rom[i] - 1 over 0x134-0x14C.
func headerChecksum(rom []byte) uint8 {
	var x uint8
	for _, b := range rom[titleAddress:headerChecksumAddress] {
		x = x - b - 1
	}
	return x
}

// globalChecksum sums every ROM byte except the two checksum bytes themselves.
func globalChecksum(rom []byte) uint16 {
	var sum uint16
	for i, b := range rom {
		if i == globalChecksumAddress || i == globalChecksumAddress+1 {
			continue
		}
		sum += uint16(b)
	}
	return sum
}

// Cartridge is a loaded ROM image together with its controller.
type Cartridge struct {
	Header *Header
	ROM    []byte
	MBC    MBC
}

// NewCartridge parses the header, logs checksum warnings and selects the MBC.
// A nil clock defaults to the system clock.
func NewCartridge(rom []byte, clock Clock) (*Cartridge, error) {
	h, err := ParseHeader(rom)
	if err != nil {
		return nil, err
	}

	for _, warn := range h.ChecksumErrors() {
		slog.Warn("Cartridge checksum", "title", h.Title, "error", warn)
	}

	if h.ROMSize != len(rom) {
		slog.Warn("ROM size does not match header", "header", h.ROMSize, "actual", len(rom))
	}

	if clock == nil {
		clock = systemClockFunc(time.Now)
	}

	data := make([]byte, len(rom))
	copy(data, rom)

	slog.Info("Loaded cartridge",
		"title", h.Title,
		"type", fmt.Sprintf("0x%02X", h.CartridgeType),
		"mbc", h.MBC.String(),
		"rom_size", len(data),
		"ram_size", h.RAMSize,
		"cgb", h.CGBSupported())

	return &Cartridge{
		Header: h,
		ROM:    data,
		MBC:    newMBC(h, data, clock),
	}, nil
}

// emptyCartridge is a blank 32KB ROM-only cartridge, equivalent to turning
// on a Gameboy without a cartridge in.
func emptyCartridge() *Cartridge {
	rom := make([]byte, 0x8000)
	return &Cartridge{
		Header: &Header{Title: "(Untitled)", MBC: NoMBCType, ROMSize: len(rom)},
		ROM:    rom,
		MBC:    NewNoMBC(rom, 0),
	}
}
