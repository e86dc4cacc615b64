package mcu

import (
	"fmt"
	"strings"

	"lpcio/core"
)

// statusError converts a reply's result code into a *core.PinError
func statusError(op string, id int, code int32) error {
	if code == int32(core.CodeOK) {
		return nil
	}
	return &core.PinError{Op: op, ID: id, Err: core.Code(code).Err()}
}

// expectStatus checks a gpio_status reply against the op that was sent
func expectStatus(op string, wantOp uint8, id int, vals []int32) error {
	if len(vals) != 3 {
		return fmt.Errorf("%s: malformed gpio_status %v", op, vals)
	}
	if vals[0] != int32(wantOp) {
		return fmt.Errorf("%s: status for op %d", op, vals[0])
	}
	return statusError(op, id, vals[2])
}

func boolArg(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

// WritePin drives a pin high or low
func (m *MCU) WritePin(pin core.Pin, level bool) error {
	vals, err := m.request("gpio_write_pin", "gpio_status", int32(pin), boolArg(level))
	if err != nil {
		return err
	}
	return expectStatus("write_pin", core.OpWritePin, int(pin), vals)
}

// ReadPin configures a pin as input and returns its level
func (m *MCU) ReadPin(pin core.Pin) (bool, error) {
	vals, err := m.request("gpio_read_pin", "gpio_pin_state", int32(pin))
	if err != nil {
		return false, err
	}
	if len(vals) != 3 {
		return false, fmt.Errorf("read_pin: malformed gpio_pin_state %v", vals)
	}
	if err := statusError("read_pin", int(pin), vals[2]); err != nil {
		return false, err
	}
	return vals[1] != 0, nil
}

// WritePort drives the 8 pins of a byte group
func (m *MCU) WritePort(group core.Group, value uint32) error {
	vals, err := m.request("gpio_write_port", "gpio_status", int32(group), int32(value))
	if err != nil {
		return err
	}
	return expectStatus("write_port", core.OpWritePort, int(group), vals)
}

// ReadPort configures a group as inputs and returns its value
func (m *MCU) ReadPort(group core.Group) (uint32, error) {
	vals, err := m.request("gpio_read_port", "gpio_port_state", int32(group))
	if err != nil {
		return 0, err
	}
	if len(vals) != 3 {
		return 0, fmt.Errorf("read_port: malformed gpio_port_state %v", vals)
	}
	if err := statusError("read_port", int(group), vals[2]); err != nil {
		return 0, err
	}
	return uint32(vals[1]), nil
}

// SelectFunction sets a pin's 2-bit function select code
func (m *MCU) SelectFunction(pin core.Pin, fn uint8) error {
	vals, err := m.request("gpio_select_function", "gpio_status", int32(pin), int32(fn))
	if err != nil {
		return err
	}
	return expectStatus("select_function", core.OpSelectFunction, int(pin), vals)
}

// ReadFunction returns a pin's function select code
func (m *MCU) ReadFunction(pin core.Pin) (uint8, error) {
	vals, err := m.request("gpio_read_function", "gpio_function", int32(pin))
	if err != nil {
		return 0, err
	}
	if len(vals) != 3 {
		return 0, fmt.Errorf("read_function: malformed gpio_function %v", vals)
	}
	if err := statusError("read_function", int(pin), vals[2]); err != nil {
		return 0, err
	}
	return uint8(vals[1]), nil
}

// WriteDAC sets the analog output value (0-1023) and bias
func (m *MCU) WriteDAC(value uint32, bias bool) error {
	vals, err := m.request("gpio_write_dac", "gpio_status", int32(value), boolArg(bias))
	if err != nil {
		return err
	}
	return expectStatus("write_dac", core.OpWriteDAC, int(value), vals)
}

// ReadRegister returns the raw value of a register
func (m *MCU) ReadRegister(reg core.Register) (uint32, error) {
	vals, err := m.request("debug_read", "debug_result", int32(reg))
	if err != nil {
		return 0, err
	}
	if len(vals) != 2 {
		return 0, fmt.Errorf("debug_read: malformed debug_result %v", vals)
	}
	return uint32(vals[1]), nil
}

// Status is the firmware state reported by get_config
type Status struct {
	Shutdown   bool
	TraceCount int
}

// GetStatus queries the firmware state
func (m *MCU) GetStatus() (Status, error) {
	vals, err := m.request("get_config", "config")
	if err != nil {
		return Status{}, err
	}
	if len(vals) != 2 {
		return Status{}, fmt.Errorf("get_config: malformed config %v", vals)
	}
	return Status{Shutdown: vals[0] != 0, TraceCount: int(vals[1])}, nil
}

// EmergencyStop latches the firmware into shutdown
func (m *MCU) EmergencyStop() error {
	return m.SendCommand("emergency_stop", nil)
}

// ClearShutdown leaves shutdown
func (m *MCU) ClearShutdown() error {
	return m.SendCommand("clear_shutdown", nil)
}

// PinByName resolves a pin name through the dictionary's pin enumeration,
// falling back to the built-in numbering
func (m *MCU) PinByName(name string) (core.Pin, error) {
	if m.dictionary != nil {
		if pins, ok := m.dictionary.Enumerations["pin"]; ok {
			for n, id := range pins {
				if strings.EqualFold(n, name) {
					return core.Pin(id), nil
				}
			}
		}
	}
	return core.ParsePin(name)
}
