package pinio

import (
	"errors"
	"testing"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/pin"

	"lpcio/core"
)

func newTestPin(t *testing.T, id core.Pin) (*Pin, *core.SimRegisters) {
	t.Helper()
	sim := core.NewSimRegisters()
	p, err := New(core.NewMapper(sim), id)
	if err != nil {
		t.Fatal(err)
	}
	return p, sim
}

func TestNewRejectsInvalidPin(t *testing.T) {
	if _, err := New(core.NewMapper(core.NewSimRegisters()), 50); !errors.Is(err, core.ErrInvalidIdentifier) {
		t.Errorf("New(50): %v", err)
	}
}

func TestOutAndRead(t *testing.T) {
	sim := core.NewSimRegisters()
	sim.Wire(3, 103)
	m := core.NewMapper(sim)
	out, _ := New(m, 3)
	in, _ := New(m, 103)

	if err := in.In(gpio.Float, gpio.NoEdge); err != nil {
		t.Fatal(err)
	}
	for _, l := range []gpio.Level{gpio.High, gpio.Low} {
		if err := out.Out(l); err != nil {
			t.Fatal(err)
		}
		if got := in.Read(); got != l {
			t.Errorf("Read() = %v, expected %v", got, l)
		}
	}
	if out.Func() != gpio.OUT || in.Func() != gpio.IN {
		t.Errorf("Func: out=%s in=%s", out.Func(), in.Func())
	}
}

func TestInRejectsPullAndEdge(t *testing.T) {
	p, _ := newTestPin(t, 1)
	if err := p.In(gpio.PullUp, gpio.NoEdge); err == nil {
		t.Error("PullUp should be rejected")
	}
	if err := p.In(gpio.PullNoChange, gpio.RisingEdge); err == nil {
		t.Error("Edge detection should be rejected")
	}
	if p.WaitForEdge(0) {
		t.Error("WaitForEdge should time out")
	}
	if err := p.PWM(gpio.DutyHalf, 0); err == nil {
		t.Error("PWM should be rejected")
	}
}

func TestNaming(t *testing.T) {
	p, _ := newTestPin(t, 118)
	if p.Name() != "P1.18" || p.String() != "P1.18" || p.Number() != 118 {
		t.Errorf("Name=%s String=%s Number=%d", p.Name(), p.String(), p.Number())
	}
}

func TestSetFunc(t *testing.T) {
	p, sim := newTestPin(t, 5)

	if err := p.SetFunc(ALT2); err != nil {
		t.Fatal(err)
	}
	if sim.Load(core.PINSEL0) != 0x800 || p.Func() != ALT2 {
		t.Errorf("PINSEL0 = 0x%08x, Func = %s", sim.Load(core.PINSEL0), p.Func())
	}

	if err := p.SetFunc(gpio.OUT_HIGH); err != nil {
		t.Fatal(err)
	}
	if sim.Load(core.PINSEL0) != 0 || p.Func() != gpio.OUT || !core.TestBit(sim, core.IOPIN0, 5) {
		t.Errorf("After OUT_HIGH: PINSEL0 = 0x%08x, Func = %s", sim.Load(core.PINSEL0), p.Func())
	}

	if err := p.SetFunc(gpio.IN); err != nil || p.Func() != gpio.IN {
		t.Errorf("SetFunc(IN) = %v, Func = %s", err, p.Func())
	}
	if err := p.SetFunc(pin.Func("SPI0_CLK")); err == nil {
		t.Error("Unknown function should be rejected")
	}
}

func TestSupportedFuncs(t *testing.T) {
	withSelect, _ := newTestPin(t, 20)
	if n := len(withSelect.SupportedFuncs()); n != 5 {
		t.Errorf("P0.20 supports %d funcs, expected 5", n)
	}
	gpioOnly, _ := newTestPin(t, 105)
	if n := len(gpioOnly.SupportedFuncs()); n != 2 {
		t.Errorf("P1.5 supports %d funcs, expected 2", n)
	}
	if err := gpioOnly.SetFunc(ALT1); !errors.Is(err, core.ErrInvalidIdentifier) {
		t.Errorf("ALT1 on P1.5: %v", err)
	}
}

func TestRegisterAll(t *testing.T) {
	sim := core.NewSimRegisters()
	pins, err := RegisterAll(core.NewMapper(sim))
	defer UnregisterAll()
	if err != nil {
		t.Fatalf("RegisterAll failed: %v", err)
	}
	if len(pins) != 64 {
		t.Errorf("Registered %d pins", len(pins))
	}

	byName := gpioreg.ByName("P1.5")
	byAlias := gpioreg.ByName("GPIO105")
	if byName == nil || byAlias == nil {
		t.Fatal("Pin lookup failed")
	}
	if err := byAlias.Out(gpio.High); err != nil {
		t.Fatal(err)
	}
	if sim.Latch(core.BankB) != 1<<5 {
		t.Errorf("Latch = 0x%08x", sim.Latch(core.BankB))
	}
}
