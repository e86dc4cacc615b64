package script

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"lpcio/core"
	"lpcio/host/loopback"
	"lpcio/host/mcu"
)

var _ Target = (*mcu.MCU)(nil)

func TestParseStatements(t *testing.T) {
	src := `
# comment line
set P0.4 high
SET 104 low
get P1.20
port 0 = 0xB1
port 12 ?
func P0.5 = 2
func p0.5 ?
dac 512 bias
dac 0x10
expect P1.4 high
expect port 13 = 0b101
`
	s, err := ParseString("test.pin", src)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(s.Statements) != 11 {
		t.Fatalf("Expected 11 statements, got %d", len(s.Statements))
	}

	if st := s.Statements[0].Set; st == nil || st.Pin.Name != "P0.4" || !st.Level.High {
		t.Errorf("Statement 0: %+v", s.Statements[0])
	}
	if st := s.Statements[1].Set; st == nil || st.Pin.Name != "104" || st.Level.High {
		t.Errorf("Statement 1: %+v", s.Statements[1])
	}
	if st := s.Statements[3].Port; st == nil || st.Op.Value == nil || st.Op.Value.Value != "0xB1" {
		t.Errorf("Statement 3: %+v", s.Statements[3])
	}
	if st := s.Statements[4].Port; st == nil || !st.Op.Query {
		t.Errorf("Statement 4: %+v", s.Statements[4])
	}
	if st := s.Statements[7].DAC; st == nil || !st.Bias || st.Value.Value != "512" {
		t.Errorf("Statement 7: %+v", s.Statements[7])
	}
	if st := s.Statements[8].DAC; st == nil || st.Bias {
		t.Errorf("Statement 8: %+v", s.Statements[8])
	}
	if st := s.Statements[10].Expect; st == nil || st.Port == nil || st.Port.Value.Value != "0b101" {
		t.Errorf("Statement 10: %+v", s.Statements[10])
	}
	if s.Statements[2].Pos.Line != 5 {
		t.Errorf("Statement 2 at line %d, expected 5", s.Statements[2].Pos.Line)
	}
}

func TestParseErrors(t *testing.T) {
	bad := []string{
		"set P0.4",
		"set P0.4 maybe",
		"port 0 0xFF",
		"blink P0.4",
		"dac",
	}
	for _, src := range bad {
		if _, err := ParseString("bad", src); err == nil {
			t.Errorf("ParseString(%q) should fail", src)
		}
	}
}

func TestRunAgainstMapper(t *testing.T) {
	sim := core.NewSimRegisters()
	sim.Wire(4, 104)
	target := MapperTarget{core.NewMapper(sim)}

	src := `
set P0.4 high
expect P1.4 high
set P0.4 low
expect 104 low
port 1 = 0xA5
func P1.18 = 3
func P1.18 ?
dac 100 bias
`
	var out bytes.Buffer
	if err := Run(context.Background(), target, "mapper", src, &out); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if sim.Latch(core.BankA)&0xFF00 != 0xA500 {
		t.Errorf("Latch = 0x%08x", sim.Latch(core.BankA))
	}
	if sim.Load(core.DACR) != 100<<6|1<<16 {
		t.Errorf("DACR = 0x%08x", sim.Load(core.DACR))
	}
	if !strings.Contains(out.String(), "func P1.18 = 3") {
		t.Errorf("Output missing function query: %q", out.String())
	}
}

func TestRunStopsOnError(t *testing.T) {
	sim := core.NewSimRegisters()
	target := MapperTarget{core.NewMapper(sim)}

	err := Run(context.Background(), target, "err", "set P0.1 high\nport 0 = 256\nset P0.2 high\n", &bytes.Buffer{})
	if !errors.Is(err, core.ErrValueOutOfRange) {
		t.Fatalf("Expected ErrValueOutOfRange, got %v", err)
	}
	if !strings.Contains(err.Error(), "err:2:") {
		t.Errorf("Error should carry the line: %v", err)
	}
	if sim.Latch(core.BankA) != 1<<1 {
		t.Errorf("Statements after the failure ran: latch 0x%08x", sim.Latch(core.BankA))
	}

	err = Run(context.Background(), target, "err", "func P0.3 = 7", &bytes.Buffer{})
	if !errors.Is(err, core.ErrValueOutOfRange) {
		t.Errorf("func 7: %v", err)
	}
	err = Run(context.Background(), target, "err", "expect P0.9 high", &bytes.Buffer{})
	if !errors.Is(err, ErrExpectation) {
		t.Errorf("expect: %v", err)
	}
	err = Run(context.Background(), target, "err", "set P0.40 high", &bytes.Buffer{})
	if !errors.Is(err, core.ErrInvalidIdentifier) {
		t.Errorf("P0.40: %v", err)
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	target := MapperTarget{core.NewMapper(core.NewSimRegisters())}
	if err := Run(ctx, target, "c", "set P0.1 high", &bytes.Buffer{}); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestRunOverSerialClient(t *testing.T) {
	port := loopback.New()
	port.Registers().Wire(116, 0)

	m := mcu.NewMCU()
	m.SetTimeout(time.Second)
	m.ConnectPort(port)
	defer m.Close()
	if err := m.RetrieveDictionary(); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	src := "set P1.16 high\nport 0 ?\nexpect port 0 = 1\n"
	if err := Run(context.Background(), m, "serial", src, &out); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if out.String() != "port 0 = 0x01\n" {
		t.Errorf("Output %q", out.String())
	}
}
