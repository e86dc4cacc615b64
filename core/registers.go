package core

// LPC214x GPIO, pin connect block and DAC register map.
// Based on UM10139 (LPC214x user manual) Rev. 4

// Register identifies one 32-bit hardware register the core reads or writes
type Register uint8

const (
	IOPIN0  Register = iota // Port 0 pin value (read)
	IOSET0                  // Port 0 output set (write 1 to drive high)
	IODIR0                  // Port 0 direction (1 = output)
	IOCLR0                  // Port 0 output clear (write 1 to drive low)
	IOPIN1                  // Port 1 pin value
	IOSET1                  // Port 1 output set
	IODIR1                  // Port 1 direction
	IOCLR1                  // Port 1 output clear
	PINSEL0                 // Function select P0.0-P0.15
	PINSEL1                 // Function select P0.16-P0.31
	PINSEL2                 // Function select P1.16-P1.31
	DACR                    // DAC control: VALUE bits 6..15, BIAS bit 16

	numRegisters
)

var registerInfo = [numRegisters]struct {
	name string
	addr uintptr
}{
	IOPIN0:  {"IOPIN0", 0xE0028000},
	IOSET0:  {"IOSET0", 0xE0028004},
	IODIR0:  {"IODIR0", 0xE0028008},
	IOCLR0:  {"IOCLR0", 0xE002800C},
	IOPIN1:  {"IOPIN1", 0xE0028010},
	IOSET1:  {"IOSET1", 0xE0028014},
	IODIR1:  {"IODIR1", 0xE0028018},
	IOCLR1:  {"IOCLR1", 0xE002801C},
	PINSEL0: {"PINSEL0", 0xE002C000},
	PINSEL1: {"PINSEL1", 0xE002C004},
	PINSEL2: {"PINSEL2", 0xE002C014},
	DACR:    {"DACR", 0xE006C000},
}

// String returns the register's datasheet name
func (r Register) String() string {
	if r >= numRegisters {
		return "REG(" + itoa(int(r)) + ")"
	}
	return registerInfo[r].name
}

// Address returns the register's physical address
func (r Register) Address() uintptr {
	if r >= numRegisters {
		return 0
	}
	return registerInfo[r].addr
}

// Registers returns every register the core knows about, in address-map order
func Registers() []Register {
	regs := make([]Register, numRegisters)
	for i := range regs {
		regs[i] = Register(i)
	}
	return regs
}

// RegisterFile is the hardware boundary of the core.
// Targets back it with memory-mapped I/O; tests use SimRegisters.
type RegisterFile interface {
	// Load reads the current 32-bit value of a register
	Load(r Register) uint32

	// Store writes a 32-bit value to a register
	Store(r Register, v uint32)
}

// SetBits ORs mask into a register (read-modify-write)
func SetBits(rf RegisterFile, r Register, mask uint32) {
	rf.Store(r, rf.Load(r)|mask)
}

// ClearBits clears mask in a register (read-modify-write)
func ClearBits(rf RegisterFile, r Register, mask uint32) {
	rf.Store(r, rf.Load(r)&^mask)
}

// TestBit reports whether bit is set in a register
func TestBit(rf RegisterFile, r Register, bit uint8) bool {
	return rf.Load(r)&(1<<bit) != 0
}

// Bank selects one of the two GPIO ports
type Bank uint8

const (
	BankA Bank = 0 // Port 0
	BankB Bank = 1 // Port 1
)

// bankRegs groups the four port registers of a bank
type bankRegs struct {
	dir, set, clr, pin Register
}

var banks = [2]bankRegs{
	BankA: {dir: IODIR0, set: IOSET0, clr: IOCLR0, pin: IOPIN0},
	BankB: {dir: IODIR1, set: IOSET1, clr: IOCLR1, pin: IOPIN1},
}

func (b Bank) String() string {
	if b == BankA {
		return "A"
	}
	return "B"
}
