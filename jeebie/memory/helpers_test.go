package memory

import "time"

// testROM builds a ROM image where every byte of bank n is n, with a valid
// header describing the given cartridge type and sizes.
func testROM(cartType, romCode, ramCode uint8) []byte {
	rom := make([]byte, romSize(romCode, 0))
	for i := range rom {
		rom[i] = uint8(i / romBankSize)
	}
	for i := titleAddress; i < headerEnd; i++ {
		rom[i] = 0
	}
	copy(rom[titleAddress:], "TESTROM")
	rom[cartridgeTypeAddress] = cartType
	rom[romSizeAddress] = romCode
	rom[ramSizeAddress] = ramCode
	rom[oldLicenseCodeAddress] = 0x01
	fixChecksums(rom)
	return rom
}

func fixChecksums(rom []byte) {
	rom[headerChecksumAddress] = headerChecksum(rom)
	sum := globalChecksum(rom)
	rom[globalChecksumAddress] = uint8(sum >> 8)
	rom[globalChecksumAddress+1] = uint8(sum)
}

type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }
