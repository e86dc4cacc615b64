//go:build lpc2148

// Command lpc2148 is the GPIO firmware for LPC214x boards. It speaks the
// framed command protocol on UART0 at 115200 baud.
package main

import (
	"lpcio/core"
	"lpcio/protocol"
)

const (
	baudRate = 115200

	// UART0 pins and their function code
	pinTXD0   core.Pin = 0
	pinRXD0   core.Pin = 1
	funcUART0          = 1
)

var (
	fw          *core.Firmware
	inputBuffer *protocol.FifoBuffer

	msgerrors uint32
)

func main() {
	core.SetRegisterFile(mmioRegisters{})
	fw = core.MustFirmware()

	mustSelect(fw.Mapper(), pinTXD0, funcUART0)
	mustSelect(fw.Mapper(), pinRXD0, funcUART0)
	initUART0(baudRate)

	inputBuffer = protocol.NewFifoBuffer(protocol.MessageMax * 2)
	fw.Transport().SetResetCallback(func() {
		inputBuffer.Reset()
		fw.Output().Reset()
		fw.ResetState()
	})

	for {
		poll()
	}
}

// mustSelect routes a pin to a peripheral; a wrong mux leaves the board deaf
func mustSelect(m *core.Mapper, id core.Pin, code uint8) {
	if err := m.SelectFunction(id, code); err != nil {
		panic("pin mux: " + err.Error())
	}
}

// poll moves received bytes through the transport and ships the replies
func poll() {
	defer func() {
		if r := recover(); r != nil {
			msgerrors++
			inputBuffer.Reset()
			fw.Output().Reset()
		}
	}()

	for {
		b, ok := uartRead()
		if !ok {
			break
		}
		if inputBuffer.Write([]byte{b}) == 0 {
			msgerrors++
			break
		}
	}

	if inputBuffer.Available() > 0 {
		data := inputBuffer.Data()
		input := protocol.NewSliceInputBuffer(data)
		fw.Receive(input)
		if consumed := len(data) - input.Available(); consumed > 0 {
			inputBuffer.Pop(consumed)
		}
	}

	if out := fw.Output().Result(); len(out) > 0 {
		uartWrite(out)
		fw.Output().Reset()
	}
}
