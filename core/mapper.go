package core

// Mapper performs GPIO, function select and DAC transactions against a RegisterFile.
//
// Every call is an independent read-modify-write (or read-only) transaction with
// no caching between calls. The Mapper does no locking: wrap sequences that must
// not interleave with an interrupt handler in Critical.
type Mapper struct {
	regs RegisterFile
}

// NewMapper creates a mapper over the given register file
func NewMapper(regs RegisterFile) *Mapper {
	return &Mapper{regs: regs}
}

// Registers returns the underlying register file
func (m *Mapper) Registers() RegisterFile {
	return m.regs
}

// WritePin configures id as an output and drives it to level.
// The direction bit is only ever set here, never cleared.
func (m *Mapper) WritePin(id Pin, level bool) error {
	bank, bit, ok := resolvePin(id)
	if !ok {
		return pinError("write_pin", int(id), ErrInvalidIdentifier)
	}
	r := banks[bank]
	SetBits(m.regs, r.dir, 1<<bit)
	if level {
		m.regs.Store(r.set, 1<<bit)
	} else {
		m.regs.Store(r.clr, 1<<bit)
	}
	return nil
}

// ReadPin configures id as an input and returns its level.
// Any previous output configuration of the pin is lost.
func (m *Mapper) ReadPin(id Pin) (bool, error) {
	bank, bit, ok := resolvePin(id)
	if !ok {
		return false, pinError("read_pin", int(id), ErrInvalidIdentifier)
	}
	r := banks[bank]
	ClearBits(m.regs, r.dir, 1<<bit)
	return TestBit(m.regs, r.pin, bit), nil
}

// Direction reports whether id is currently configured as an output.
// It only reads IODIRn.
func (m *Mapper) Direction(id Pin) (bool, error) {
	bank, bit, ok := resolvePin(id)
	if !ok {
		return false, pinError("direction", int(id), ErrInvalidIdentifier)
	}
	return TestBit(m.regs, banks[bank].dir, bit), nil
}

// WriteGroup drives the 8 pins of a byte group from value, bit 0 to the lowest pin.
// Each bit is a separate WritePin transaction; a concurrent reader may see a
// partially updated byte. Whole-bank groups cannot be written.
func (m *Mapper) WriteGroup(g Group, value uint32) error {
	loc, ok := resolveGroup(g)
	if !ok || loc.full {
		return pinError("write_port", int(g), ErrInvalidIdentifier)
	}
	if value > ByteMax {
		return pinError("write_port", int(g), ErrValueOutOfRange)
	}
	for i := Pin(0); i < 8; i++ {
		if err := m.WritePin(loc.base+i, value&(1<<i) != 0); err != nil {
			return err
		}
	}
	return nil
}

// ReadGroup configures a group as inputs and returns its value.
// Byte groups only touch their own 8 direction bits and return 0-255;
// whole-bank groups make the full bank an input and return the raw pin register.
func (m *Mapper) ReadGroup(g Group) (uint32, error) {
	loc, ok := resolveGroup(g)
	if !ok {
		return 0, pinError("read_port", int(g), ErrInvalidIdentifier)
	}
	r := banks[loc.bank]
	if loc.full {
		m.regs.Store(r.dir, 0)
		return m.regs.Load(r.pin), nil
	}
	ClearBits(m.regs, r.dir, loc.mask)
	return (m.regs.Load(r.pin) >> loc.shift) & 0xFF, nil
}

// SelectFunction writes the 2-bit function code of a pin.
// Only P0.0-P0.31 and P1.16-P1.31 have function select fields.
func (m *Mapper) SelectFunction(id Pin, code uint8) error {
	reg, off, ok := resolveSelect(id)
	if !ok {
		return pinError("select_function", int(id), ErrInvalidIdentifier)
	}
	if code > FunctionMax {
		return pinError("select_function", int(id), ErrValueOutOfRange)
	}
	v := m.regs.Load(reg)
	v &^= 0b11 << off
	v |= uint32(code&1) << off
	v |= uint32(code>>1&1) << (off + 1)
	m.regs.Store(reg, v)
	return nil
}

// Function returns the function code currently selected for a pin
func (m *Mapper) Function(id Pin) (uint8, error) {
	reg, off, ok := resolveSelect(id)
	if !ok {
		return 0, pinError("read_function", int(id), ErrInvalidIdentifier)
	}
	return uint8(m.regs.Load(reg)>>off) & 0b11, nil
}

// DACR field layout
const (
	dacValueShift = 6
	dacValueMask  = 0x3FF << dacValueShift
	dacBias       = 1 << 16
)

// WriteAnalog sets the DAC output value (0-1023) and settling-time bias.
// Bits of DACR outside VALUE and BIAS are preserved.
func (m *Mapper) WriteAnalog(value uint32, bias bool) error {
	if value > DACMax {
		return pinError("write_dac", int(value), ErrValueOutOfRange)
	}
	v := m.regs.Load(DACR) &^ (dacValueMask | dacBias)
	v |= value << dacValueShift
	if bias {
		v |= dacBias
	}
	m.regs.Store(DACR, v)
	return nil
}
