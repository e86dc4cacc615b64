package core

import "testing"

func TestSimSetClearSemantics(t *testing.T) {
	sim := NewSimRegisters()
	sim.Store(IODIR0, 0xFFFFFFFF)

	sim.Store(IOSET0, 0x0F)
	sim.Store(IOSET0, 0xF0)
	if got := sim.Load(IOPIN0); got != 0xFF {
		t.Errorf("IOPIN0 = 0x%x, expected set writes to accumulate", got)
	}
	sim.Store(IOCLR0, 0x81)
	if got := sim.Load(IOPIN0); got != 0x7E {
		t.Errorf("IOPIN0 = 0x%x, expected 0x7E", got)
	}
	if sim.Load(IOCLR0) != 0 {
		t.Error("IOCLR0 should read as zero")
	}
	if sim.LastWrite(IOCLR0) != 0x81 {
		t.Errorf("LastWrite(IOCLR0) = 0x%x", sim.LastWrite(IOCLR0))
	}
}

func TestSimInputsFollowDirection(t *testing.T) {
	sim := NewSimRegisters()
	sim.Drive(3, true)
	sim.Store(IOSET0, 1<<4)

	// All inputs: only the external level is visible
	if got := sim.Load(IOPIN0); got != 1<<3 {
		t.Errorf("IOPIN0 = 0x%x, expected 0x8", got)
	}
	// Pin 3 as output (latch low) hides the external level
	sim.Store(IODIR0, 1<<3|1<<4)
	if got := sim.Load(IOPIN0); got != 1<<4 {
		t.Errorf("IOPIN0 = 0x%x, expected 0x10", got)
	}
}

func TestSimWireNeedsDrivingOutput(t *testing.T) {
	sim := NewSimRegisters()
	sim.Wire(100, 0)
	sim.Drive(0, true)
	sim.Store(IOSET1, 0)

	// Source is an input: the external level stands
	if !TestBit(sim, IOPIN0, 0) {
		t.Error("Expected external level while the wire source is an input")
	}
	sim.Store(IODIR1, 1)
	if TestBit(sim, IOPIN0, 0) {
		t.Error("A low output should pull the wired input low")
	}
	sim.Store(IOSET1, 1)
	if !TestBit(sim, IOPIN0, 0) {
		t.Error("A high output should pull the wired input high")
	}
}

func TestSimStoresAndSnapshot(t *testing.T) {
	sim := NewSimRegisters()
	sim.Store(DACR, 42)
	sim.Store(PINSEL2, 7)
	if sim.Stores() != 2 {
		t.Errorf("Stores() = %d, expected 2", sim.Stores())
	}
	snap := sim.Snapshot()
	if snap[DACR] != 42 || snap[PINSEL2] != 7 || len(snap) != int(numRegisters) {
		t.Errorf("Snapshot = %v", snap)
	}
	if sim.Load(numRegisters) != 0 {
		t.Error("Unknown registers read as zero")
	}
}

func TestGlobalRegisterFile(t *testing.T) {
	defer SetRegisterFile(nil)

	func() {
		defer func() {
			if recover() == nil {
				t.Error("MustRegisters should panic when unset")
			}
		}()
		SetRegisterFile(nil)
		MustRegisters()
	}()

	sim := NewSimRegisters()
	SetRegisterFile(sim)
	if err := MustMapper().WritePin(1, true); err != nil {
		t.Fatal(err)
	}
	if sim.Latch(BankA) != 2 {
		t.Errorf("Latch = 0x%x, expected 0x2", sim.Latch(BankA))
	}

	fw := MustFirmware()
	if fw.Mapper().Registers() != RegisterFile(sim) {
		t.Error("MustFirmware should use the installed register file")
	}
	if err := fw.Mapper().SelectFunction(0, 1); err != nil || sim.Load(PINSEL0) != 1 {
		t.Errorf("PINSEL0 = 0x%x, %v", sim.Load(PINSEL0), err)
	}
}
