package memory

// ioReg is one byte of the 0xFF00-0xFF7F register file.
//
// Unused bits always read back as 1, RoMask bits keep their value on CPU
// writes. Registers backed by another component use ReadCb/WriteCb instead of
// (or on top of) Value.
type ioReg struct {
	Value  uint8
	Unused uint8
	RoMask uint8

	// ReadCb, if set, computes the value seen by the CPU.
	ReadCb func(val uint8) uint8
	// WriteCb, if set, is called after Value has been updated with the
	// previous value and the raw written byte.
	WriteCb func(old, val uint8)
}

func (r *ioReg) read() uint8 {
	val := r.Value
	if r.ReadCb != nil {
		val = r.ReadCb(val)
	}
	return val | r.Unused
}

func (r *ioReg) write(val uint8) {
	old := r.Value
	r.Value = old&r.RoMask | val&^r.RoMask
	if r.WriteCb != nil {
		r.WriteCb(old, val)
	}
}

// unmapped registers read 0xFF and ignore writes
var unmappedReg = ioReg{Unused: 0xFF, RoMask: 0xFF}
