// Package loopback runs the firmware in-process behind a serial.Port.
//
// Bytes written by the host are fed straight into a core.Firmware backed by
// core.SimRegisters; the firmware's replies are read back through a pipe.
// The host tool uses it for --sim and the client tests use it in place of a board.
package loopback

import (
	"io"
	"sync"

	"lpcio/core"
	"lpcio/host/serial"
	"lpcio/protocol"
)

// Port is a serial.Port connected to an in-process firmware
type Port struct {
	fw  *core.Firmware
	sim *core.SimRegisters

	mu    sync.Mutex
	input *protocol.FifoBuffer

	reader *io.PipeReader
	writer *io.PipeWriter
}

var _ serial.Port = (*Port)(nil)

// New creates a loopback port over fresh simulated registers
func New() *Port {
	return NewWithRegisters(core.NewSimRegisters())
}

// NewWithRegisters creates a loopback port over the given simulated registers
func NewWithRegisters(sim *core.SimRegisters) *Port {
	r, w := io.Pipe()
	return &Port{
		fw:     core.NewFirmware(sim),
		sim:    sim,
		input:  protocol.NewFifoBuffer(protocol.MessageMax),
		reader: r,
		writer: w,
	}
}

// Firmware returns the firmware behind the port
func (p *Port) Firmware() *core.Firmware { return p.fw }

// Registers returns the simulated register file
func (p *Port) Registers() *core.SimRegisters { return p.sim }

// Write hands host bytes to the firmware and forwards its replies
func (p *Port) Write(b []byte) (int, error) {
	p.mu.Lock()
	written := 0
	var reply []byte
	for written < len(b) {
		n := p.input.Write(b[written:])
		written += n
		p.fw.Receive(p.input)
		out := p.fw.Output()
		reply = append(reply, out.Result()...)
		out.Reset()
		if n == 0 && p.input.Free() == 0 {
			// Unparseable backlog; drop it so the link can resync
			p.input.Reset()
		}
	}
	p.mu.Unlock()

	if len(reply) > 0 {
		if _, err := p.writer.Write(reply); err != nil {
			return written, err
		}
	}
	return written, nil
}

// Read returns firmware replies
func (p *Port) Read(b []byte) (int, error) {
	return p.reader.Read(b)
}

// Flush is a no-op: nothing is buffered between host and firmware
func (p *Port) Flush() error { return nil }

// Close shuts both directions of the pipe
func (p *Port) Close() error {
	p.writer.Close()
	return p.reader.Close()
}
