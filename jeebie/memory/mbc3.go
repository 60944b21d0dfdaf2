package memory

import (
	"encoding/binary"
	"time"
)

// rtc register indexes, selected by writing 0x08-0x0C to 0x4000-0x5FFF
const (
	rtcSeconds = iota
	rtcMinutes
	rtcHours
	rtcDaysLow
	rtcDaysHigh
	rtcRegisterCount
)

// writable bits of each rtc register
var rtcMasks = [rtcRegisterCount]uint8{0x3F, 0x3F, 0x1F, 0xFF, 0xC1}

const (
	rtcHaltBit  = 0x40
	rtcCarryBit = 0x80

	// 5 live + 5 latched registers as uint32 and a uint64 unix timestamp
	rtcSaveSize = rtcRegisterCount*4*2 + 8
)

// realTimeClock keeps the live counters up to date lazily: every access first
// folds the wall time elapsed since the last update into the registers.
type realTimeClock struct {
	live    [rtcRegisterCount]uint8
	latched [rtcRegisterCount]uint8
	last    time.Time
	clock   Clock
}

func (r *realTimeClock) halted() bool {
	return r.live[rtcDaysHigh]&rtcHaltBit != 0
}

func (r *realTimeClock) days() int64 {
	return int64(r.live[rtcDaysHigh]&0x01)<<8 | int64(r.live[rtcDaysLow])
}

func (r *realTimeClock) advance() {
	now := r.clock.Now()
	if r.halted() {
		r.last = now
		return
	}

	elapsed := int64(now.Sub(r.last) / time.Second)
	if elapsed <= 0 {
		return
	}
	r.last = r.last.Add(time.Duration(elapsed) * time.Second)

	seconds := int64(r.live[rtcSeconds]) + elapsed
	minutes := int64(r.live[rtcMinutes]) + seconds/60
	hours := int64(r.live[rtcHours]) + minutes/60
	days := r.days() + hours/24

	r.live[rtcSeconds] = uint8(seconds % 60)
	r.live[rtcMinutes] = uint8(minutes % 60)
	r.live[rtcHours] = uint8(hours % 24)

	high := r.live[rtcDaysHigh] & (rtcHaltBit | rtcCarryBit)
	if days > 0x1FF {
		high |= rtcCarryBit
		days %= 0x200
	}
	r.live[rtcDaysLow] = uint8(days)
	r.live[rtcDaysHigh] = high | uint8(days>>8)&0x01
}

func (r *realTimeClock) latch() {
	r.advance()
	r.latched = r.live
}

func (r *realTimeClock) read(reg uint8) uint8 {
	return r.latched[reg]
}

func (r *realTimeClock) write(reg uint8, value uint8) {
	r.advance()
	r.live[reg] = value & rtcMasks[reg]
	if reg == rtcSeconds {
		// writing seconds resets the sub-second divider
		r.last = r.clock.Now()
	}
}

// MBC3 supports up to 2MB ROM, 32KB RAM and an optional real time clock.
//   - 0x0000-0x1FFF: RAM and RTC enable
//   - 0x2000-0x3FFF: 7 bit ROM bank, 0 maps to 1
//   - 0x4000-0x5FFF: RAM bank (0x00-0x07) or RTC register (0x08-0x0C)
//   - 0x6000-0x7FFF: writing 0x00 then 0x01 latches the clock
type MBC3 struct {
	rom       []uint8
	ram       []uint8
	romBank   uint8
	selected  uint8
	ramEnable uint8
	latchReg  uint8
	hasRTC    bool
	rtc       realTimeClock
}

// NewMBC3 creates a new MBC3 controller
func NewMBC3(romData []uint8, ramSize int, hasRTC bool, clock Clock) *MBC3 {
	if clock == nil {
		clock = systemClockFunc(time.Now)
	}
	return &MBC3{
		rom:      romData,
		ram:      make([]uint8, ramSize),
		romBank:  1,
		latchReg: 0xFF,
		hasRTC:   hasRTC,
		rtc:      realTimeClock{clock: clock, last: clock.Now()},
	}
}

func (m *MBC3) rtcSelected() (uint8, bool) {
	if m.hasRTC && m.selected >= 0x08 && m.selected <= 0x0C {
		return m.selected - 0x08, true
	}
	return 0, false
}

func (m *MBC3) Read(addr uint16) uint8 {
	switch {
	case addr < 0x4000:
		return readBanked(m.rom, 0, romBankSize, addr)
	case addr < 0x8000:
		return readBanked(m.rom, int(m.romBank), romBankSize, addr)
	case isExtRAM(addr):
		if m.ramEnable != ramEnableValue {
			return 0xFF
		}
		if reg, ok := m.rtcSelected(); ok {
			return m.rtc.read(reg)
		}
		if m.selected <= 0x07 {
			return readBanked(m.ram, int(m.selected), ramBankSize, addr)
		}
	}
	return 0xFF
}

func (m *MBC3) Write(addr uint16, value uint8) {
	switch {
	case addr < 0x2000:
		m.ramEnable = value & 0x0F
	case addr < 0x4000:
		m.romBank = value & 0x7F
		if m.romBank == 0 {
			m.romBank = 1
		}
	case addr < 0x6000:
		m.selected = value
	case addr < 0x8000:
		if m.hasRTC && m.latchReg == 0x00 && value == 0x01 {
			m.rtc.latch()
		}
		m.latchReg = value
	case isExtRAM(addr):
		if m.ramEnable != ramEnableValue {
			return
		}
		if reg, ok := m.rtcSelected(); ok {
			m.rtc.write(reg, value)
			return
		}
		if m.selected <= 0x07 {
			writeBanked(m.ram, int(m.selected), ramBankSize, addr, value)
		}
	}
}

// RAM returns the RAM contents, followed by the clock state when the
// cartridge has one.
func (m *MBC3) RAM() []byte {
	out := cloneBytes(m.ram)
	if !m.hasRTC {
		return out
	}

	m.rtc.advance()
	trailer := make([]byte, rtcSaveSize)
	for i := range rtcRegisterCount {
		binary.LittleEndian.PutUint32(trailer[i*4:], uint32(m.rtc.live[i]))
		binary.LittleEndian.PutUint32(trailer[(rtcRegisterCount+i)*4:], uint32(m.rtc.latched[i]))
	}
	binary.LittleEndian.PutUint64(trailer[rtcRegisterCount*8:], uint64(m.rtc.last.Unix()))
	return append(out, trailer...)
}

func (m *MBC3) LoadRAM(data []byte) {
	copy(m.ram, data)
	if !m.hasRTC || len(data) < len(m.ram)+rtcSaveSize {
		return
	}

	trailer := data[len(m.ram):]
	for i := range rtcRegisterCount {
		m.rtc.live[i] = uint8(binary.LittleEndian.Uint32(trailer[i*4:])) & rtcMasks[i]
		m.rtc.latched[i] = uint8(binary.LittleEndian.Uint32(trailer[(rtcRegisterCount+i)*4:])) & rtcMasks[i]
	}
	m.rtc.last = time.Unix(int64(binary.LittleEndian.Uint64(trailer[rtcRegisterCount*8:])), 0)
	// account for the time spent powered off
	m.rtc.advance()
}
