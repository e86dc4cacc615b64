package core

import (
	"lpcio/protocol"
)

// initGPIOCommands registers the GPIO, function select and DAC commands.
// Every command is answered, including rejected ones: the response carries
// the result code so the host can tell a refused request from a lost frame.
func (fw *Firmware) initGPIOCommands() {
	fw.registry.Register("gpio_write_pin", "pin=%i value=%c", fw.handleWritePin)
	fw.registry.Register("gpio_read_pin", "pin=%i", fw.handleReadPin)
	fw.registry.Register("gpio_write_port", "port=%i value=%u", fw.handleWritePort)
	fw.registry.Register("gpio_read_port", "port=%i", fw.handleReadPort)
	fw.registry.Register("gpio_select_function", "pin=%i func=%u", fw.handleSelectFunction)
	fw.registry.Register("gpio_read_function", "pin=%i", fw.handleReadFunction)
	fw.registry.Register("gpio_write_dac", "value=%u bias=%c", fw.handleWriteDAC)
	fw.registry.Register("debug_read", "reg=%c", fw.handleDebugRead)

	fw.registry.RegisterResponse("gpio_status", "op=%c pin=%i code=%c")
	fw.registry.RegisterResponse("gpio_pin_state", "pin=%i value=%c code=%c")
	fw.registry.RegisterResponse("gpio_port_state", "port=%i value=%u code=%c")
	fw.registry.RegisterResponse("gpio_function", "pin=%i func=%c code=%c")
	fw.registry.RegisterResponse("debug_result", "reg=%c val=%u")
}

// checkShutdown returns ErrShutdown while emergency_stop is latched
func (fw *Firmware) checkShutdown() error {
	if fw.IsShutdown() {
		return ErrShutdown
	}
	return nil
}

// sendStatus answers a write command and records it in the trace ring
func (fw *Firmware) sendStatus(op uint8, id int32, value uint32, err error) {
	code := CodeOf(err)
	RecordTrace(op, code, id, value)
	if err != nil {
		DebugPrintln("[GPIO] " + opName(op) + " rejected: " + err.Error())
	}
	fw.SendResponse("gpio_status", func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, uint32(op))
		protocol.EncodeVLQInt(output, id)
		protocol.EncodeVLQUint(output, uint32(code))
	})
}

// handleWritePin drives a pin
// Format: gpio_write_pin pin=%i value=%c
func (fw *Firmware) handleWritePin(data *[]byte) error {
	pin, err := protocol.DecodeVLQInt(data)
	if err != nil {
		return err
	}
	value, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}

	err = fw.checkShutdown()
	if err == nil && value > 1 {
		err = pinError("write_pin", int(pin), ErrValueOutOfRange)
	}
	if err == nil {
		err = fw.mapper.WritePin(Pin(pin), value == 1)
	}
	fw.sendStatus(OpWritePin, pin, value, err)
	return nil
}

// handleReadPin samples a pin
// Format: gpio_read_pin pin=%i
func (fw *Firmware) handleReadPin(data *[]byte) error {
	pin, err := protocol.DecodeVLQInt(data)
	if err != nil {
		return err
	}

	var level bool
	err = fw.checkShutdown()
	if err == nil {
		level, err = fw.mapper.ReadPin(Pin(pin))
	}
	var value uint32
	if level {
		value = 1
	}
	code := CodeOf(err)
	RecordTrace(OpReadPin, code, pin, value)

	fw.SendResponse("gpio_pin_state", func(output protocol.OutputBuffer) {
		protocol.EncodeVLQInt(output, pin)
		protocol.EncodeVLQUint(output, value)
		protocol.EncodeVLQUint(output, uint32(code))
	})
	return nil
}

// handleWritePort drives a byte group
// Format: gpio_write_port port=%i value=%u
func (fw *Firmware) handleWritePort(data *[]byte) error {
	port, err := protocol.DecodeVLQInt(data)
	if err != nil {
		return err
	}
	value, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}

	err = fw.checkShutdown()
	if err == nil {
		err = fw.mapper.WriteGroup(Group(port), value)
	}
	fw.sendStatus(OpWritePort, port, value, err)
	return nil
}

// handleReadPort samples a group
// Format: gpio_read_port port=%i
func (fw *Firmware) handleReadPort(data *[]byte) error {
	port, err := protocol.DecodeVLQInt(data)
	if err != nil {
		return err
	}

	var value uint32
	err = fw.checkShutdown()
	if err == nil {
		value, err = fw.mapper.ReadGroup(Group(port))
	}
	code := CodeOf(err)
	RecordTrace(OpReadPort, code, port, value)

	fw.SendResponse("gpio_port_state", func(output protocol.OutputBuffer) {
		protocol.EncodeVLQInt(output, port)
		protocol.EncodeVLQUint(output, value)
		protocol.EncodeVLQUint(output, uint32(code))
	})
	return nil
}

// handleSelectFunction writes a pin's function select field
// Format: gpio_select_function pin=%i func=%u
func (fw *Firmware) handleSelectFunction(data *[]byte) error {
	pin, err := protocol.DecodeVLQInt(data)
	if err != nil {
		return err
	}
	fn, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}

	err = fw.checkShutdown()
	if err == nil && fn > FunctionMax {
		err = pinError("select_function", int(pin), ErrValueOutOfRange)
	}
	if err == nil {
		err = fw.mapper.SelectFunction(Pin(pin), uint8(fn))
	}
	fw.sendStatus(OpSelectFunction, pin, fn, err)
	return nil
}

// handleReadFunction reports a pin's function select field.
// Reading is allowed during shutdown.
// Format: gpio_read_function pin=%i
func (fw *Firmware) handleReadFunction(data *[]byte) error {
	pin, err := protocol.DecodeVLQInt(data)
	if err != nil {
		return err
	}

	fn, err := fw.mapper.Function(Pin(pin))
	code := CodeOf(err)
	RecordTrace(OpReadFunction, code, pin, uint32(fn))

	fw.SendResponse("gpio_function", func(output protocol.OutputBuffer) {
		protocol.EncodeVLQInt(output, pin)
		protocol.EncodeVLQUint(output, uint32(fn))
		protocol.EncodeVLQUint(output, uint32(code))
	})
	return nil
}

// handleWriteDAC sets the analog output
// Format: gpio_write_dac value=%u bias=%c
func (fw *Firmware) handleWriteDAC(data *[]byte) error {
	value, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}
	bias, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}

	err = fw.checkShutdown()
	if err == nil {
		err = fw.mapper.WriteAnalog(value, bias != 0)
	}
	fw.sendStatus(OpWriteDAC, int32(value), bias, err)
	return nil
}

// handleDebugRead returns the raw value of a register
// Format: debug_read reg=%c
func (fw *Firmware) handleDebugRead(data *[]byte) error {
	reg, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}

	var val uint32
	if reg < uint32(numRegisters) {
		val = fw.mapper.Registers().Load(Register(reg))
	}
	fw.SendResponse("debug_result", func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, reg)
		protocol.EncodeVLQUint(output, val)
	})
	return nil
}
