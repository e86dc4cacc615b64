package mcu

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"lpcio/core"
	"lpcio/host/loopback"
	"lpcio/tinycompress"
)

func connectLoopback(t *testing.T) (*MCU, *loopback.Port) {
	t.Helper()
	port := loopback.New()
	m := NewMCU()
	m.SetTimeout(time.Second)
	m.ConnectPort(port)
	t.Cleanup(func() { m.Close() })

	if err := m.RetrieveDictionary(); err != nil {
		t.Fatalf("RetrieveDictionary failed: %v", err)
	}
	return m, port
}

func TestRetrieveDictionary(t *testing.T) {
	m, port := connectLoopback(t)

	if !bytes.Equal(m.GetDictionaryRaw(), port.Firmware().Dictionary().Generate()) {
		t.Error("Retrieved dictionary differs from the firmware's")
	}
	dict := m.GetDictionary()
	if dict.Config["MCU"] != "lpc2148" {
		t.Errorf("MCU = %q", dict.Config["MCU"])
	}
	if _, ok := m.commandIDs["gpio_write_dac"]; !ok {
		t.Error("gpio_write_dac not indexed")
	}

	var out bytes.Buffer
	m.PrintDictionary(&out)
	if !strings.Contains(out.String(), "gpio_read_port port=%i") {
		t.Errorf("PrintDictionary output missing commands:\n%s", out.String())
	}
}

func TestNotConnected(t *testing.T) {
	m := NewMCU()
	if err := m.RetrieveDictionary(); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Expected ErrNotConnected, got %v", err)
	}
	if err := m.WritePin(1, true); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Expected ErrNotConnected, got %v", err)
	}
}

func TestPinRoundTrip(t *testing.T) {
	m, port := connectLoopback(t)
	port.Registers().Wire(4, 104)

	for _, level := range []bool{true, false} {
		if err := m.WritePin(4, level); err != nil {
			t.Fatalf("WritePin failed: %v", err)
		}
		got, err := m.ReadPin(104)
		if err != nil {
			t.Fatalf("ReadPin failed: %v", err)
		}
		if got != level {
			t.Errorf("Read %v, expected %v", got, level)
		}
	}
}

func TestPortsFunctionsDAC(t *testing.T) {
	m, port := connectLoopback(t)
	sim := port.Registers()

	if err := m.WritePort(0, 0b10110001); err != nil {
		t.Fatal(err)
	}
	if sim.Latch(core.BankA) != 0b10110001 {
		t.Errorf("Latch = 0x%x", sim.Latch(core.BankA))
	}

	sim.Drive(131, true)
	sim.Drive(100, true)
	v, err := m.ReadPort(core.GroupFullB)
	if err != nil || v != 0x80000001 {
		t.Errorf("ReadPort(19) = 0x%08x, %v", v, err)
	}

	if err := m.SelectFunction(118, 1); err != nil {
		t.Fatal(err)
	}
	if fn, err := m.ReadFunction(118); err != nil || fn != 1 {
		t.Errorf("ReadFunction(118) = %d, %v", fn, err)
	}
	if sim.Load(core.PINSEL2) != 1<<4 {
		t.Errorf("PINSEL2 = 0x%08x", sim.Load(core.PINSEL2))
	}

	if err := m.WriteDAC(1023, true); err != nil {
		t.Fatal(err)
	}
	if reg, err := m.ReadRegister(core.DACR); err != nil || reg != 1023<<6|1<<16 {
		t.Errorf("DACR = 0x%08x, %v", reg, err)
	}
}

func TestErrorsMapToSentinels(t *testing.T) {
	m, _ := connectLoopback(t)

	err := m.WritePin(50, true)
	var pe *core.PinError
	if !errors.As(err, &pe) || pe.Op != "write_pin" || pe.ID != 50 {
		t.Errorf("WritePin(50) = %v", err)
	}
	if !errors.Is(err, core.ErrInvalidIdentifier) {
		t.Errorf("Expected ErrInvalidIdentifier, got %v", err)
	}
	if err := m.WritePort(2, 256); !errors.Is(err, core.ErrValueOutOfRange) {
		t.Errorf("WritePort(2, 256) = %v", err)
	}
	if err := m.WriteDAC(1024, false); !errors.Is(err, core.ErrValueOutOfRange) {
		t.Errorf("WriteDAC(1024) = %v", err)
	}
	if _, err := m.ReadPort(7); !errors.Is(err, core.ErrInvalidIdentifier) {
		t.Errorf("ReadPort(7) = %v", err)
	}
	if _, err := m.ReadFunction(105); !errors.Is(err, core.ErrInvalidIdentifier) {
		t.Errorf("ReadFunction(105) = %v", err)
	}
	if err := m.SendCommand("no_such_command", nil); err == nil {
		t.Error("Unknown command should fail")
	}
}

func TestShutdown(t *testing.T) {
	m, _ := connectLoopback(t)

	if err := m.EmergencyStop(); err != nil {
		t.Fatal(err)
	}
	st, err := m.GetStatus()
	if err != nil || !st.Shutdown {
		t.Fatalf("GetStatus = %+v, %v", st, err)
	}
	if err := m.WritePin(1, true); !errors.Is(err, core.ErrShutdown) {
		t.Errorf("Expected ErrShutdown, got %v", err)
	}
	if err := m.ClearShutdown(); err != nil {
		t.Fatal(err)
	}
	if err := m.WritePin(1, true); err != nil {
		t.Errorf("WritePin after clear: %v", err)
	}
}

func TestPinByName(t *testing.T) {
	m, _ := connectLoopback(t)

	tests := map[string]core.Pin{"P0.5": 5, "p1.18": 118, "P1.31": 131, "105": 105}
	for name, want := range tests {
		got, err := m.PinByName(name)
		if err != nil || got != want {
			t.Errorf("PinByName(%q) = %d, %v; expected %d", name, got, err, want)
		}
	}
	if _, err := m.PinByName("P3.1"); err == nil {
		t.Error("PinByName(P3.1) should fail")
	}
}

func TestMessageName(t *testing.T) {
	if messageName("gpio_read_pin pin=%i") != "gpio_read_pin" || messageName("get_config") != "get_config" {
		t.Error("messageName did not return the first word")
	}
}

func TestInflate(t *testing.T) {
	plain := []byte(`{"version":"x"}`)
	if got, err := inflate(plain); err != nil || !bytes.Equal(got, plain) {
		t.Errorf("Plain JSON: %q, %v", got, err)
	}
	if got, err := inflate(tinycompress.Compress(plain)); err != nil || !bytes.Equal(got, plain) {
		t.Errorf("Compressed: %q, %v", got, err)
	}
	if _, err := inflate([]byte{0x78, 0x9C, 0xFF}); err == nil {
		t.Error("Corrupt stream should fail")
	}
}
