package core

import "sync"

// SimRegisters is a software RegisterFile that behaves like the LPC214x port block.
//
// Writes to IOSETn/IOCLRn set/clear the output latch, IOPINn reads the latch for
// output pins and the externally driven level for input pins, and IOCLRn reads
// back as zero. Every other register is plain storage.
type SimRegisters struct {
	mu       sync.Mutex
	raw      [numRegisters]uint32
	last     [numRegisters]uint32
	latch    [2]uint32
	external [2]uint32
	wires    map[Pin]Pin // input pin -> output pin feeding it
	stores   int
}

// NewSimRegisters creates a register file in its reset state (all zero)
func NewSimRegisters() *SimRegisters {
	return &SimRegisters{wires: make(map[Pin]Pin)}
}

func bankOf(r Register) (Bank, bool) {
	switch r {
	case IOPIN0, IOSET0, IODIR0, IOCLR0:
		return BankA, true
	case IOPIN1, IOSET1, IODIR1, IOCLR1:
		return BankB, true
	}
	return 0, false
}

// Load implements RegisterFile
func (s *SimRegisters) Load(r Register) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked(r)
}

func (s *SimRegisters) loadLocked(r Register) uint32 {
	if r >= numRegisters {
		return 0
	}
	bank, isPort := bankOf(r)
	switch {
	case !isPort:
		return s.raw[r]
	case r == banks[bank].pin:
		dir := s.raw[banks[bank].dir]
		return s.latch[bank]&dir | s.inputsLocked(bank)&^dir
	case r == banks[bank].set:
		return s.latch[bank]
	case r == banks[bank].clr:
		return 0
	default:
		return s.raw[r]
	}
}

// inputsLocked returns the level seen on a bank's pins from outside the chip
func (s *SimRegisters) inputsLocked(bank Bank) uint32 {
	v := s.external[bank]
	for in, out := range s.wires {
		inBank, inBit, _ := resolvePin(in)
		if inBank != bank {
			continue
		}
		outBank, outBit, _ := resolvePin(out)
		if s.raw[banks[outBank].dir]&(1<<outBit) == 0 {
			continue // source not driving
		}
		if s.latch[outBank]&(1<<outBit) != 0 {
			v |= 1 << inBit
		} else {
			v &^= 1 << inBit
		}
	}
	return v
}

// Store implements RegisterFile
func (s *SimRegisters) Store(r Register, v uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stores++
	if r >= numRegisters {
		return
	}
	s.last[r] = v
	bank, isPort := bankOf(r)
	switch {
	case !isPort:
		s.raw[r] = v
	case r == banks[bank].set:
		s.latch[bank] |= v
	case r == banks[bank].clr:
		s.latch[bank] &^= v
	case r == banks[bank].pin:
		s.latch[bank] = v
	default:
		s.raw[r] = v
	}
}

// Drive sets the level an external circuit applies to a pin.
// It is only visible through IOPINn while the pin is an input.
func (s *SimRegisters) Drive(id Pin, level bool) {
	bank, bit, ok := resolvePin(id)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if level {
		s.external[bank] |= 1 << bit
	} else {
		s.external[bank] &^= 1 << bit
	}
}

// Wire connects output pin out to input pin in, as a jumper on the board would.
// While out is configured as an output its latch overrides in's external level.
func (s *SimRegisters) Wire(out, in Pin) {
	if !ValidPin(out) || !ValidPin(in) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wires[in] = out
}

// LastWrite returns the last value stored to r (0 if never written)
func (s *SimRegisters) LastWrite(r Register) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r >= numRegisters {
		return 0
	}
	return s.last[r]
}

// Latch returns the output latch of a bank
func (s *SimRegisters) Latch(b Bank) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latch[b&1]
}

// Snapshot returns the value Load would return for every register
func (s *SimRegisters) Snapshot() map[Register]uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := make(map[Register]uint32, numRegisters)
	for r := Register(0); r < numRegisters; r++ {
		snap[r] = s.loadLocked(r)
	}
	return snap
}

// Stores returns the number of Store calls made so far
func (s *SimRegisters) Stores() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stores
}
