// Package pinio exposes mapper pins as periph.io GPIO pins, so code written
// against periph.io/x/conn can drive the board's port pins.
package pinio

import (
	"errors"
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/pin"

	"lpcio/core"
)

// Alternate functions selected through PINSEL
const (
	ALT1 pin.Func = "ALT1"
	ALT2 pin.Func = "ALT2"
	ALT3 pin.Func = "ALT3"
)

var altFuncs = [...]pin.Func{ALT1, ALT2, ALT3}

var (
	errNoPull  = errors.New("pinio: pull resistors are not configurable")
	errNoEdge  = errors.New("pinio: edge detection not supported")
	errNoPWM   = errors.New("pinio: PWM not supported")
	errBadFunc = errors.New("pinio: unsupported function")
)

// Pin is one port pin driven through a core.Mapper.
// It implements gpio.PinIO and pin.PinFunc.
type Pin struct {
	m  *core.Mapper
	id core.Pin
}

var (
	_ gpio.PinIO  = (*Pin)(nil)
	_ pin.PinFunc = (*Pin)(nil)
)

// New returns the pin with logical id on m
func New(m *core.Mapper, id core.Pin) (*Pin, error) {
	if !core.ValidPin(id) {
		return nil, &core.PinError{Op: "pinio", ID: int(id), Err: core.ErrInvalidIdentifier}
	}
	return &Pin{m: m, id: id}, nil
}

// ID returns the logical pin id
func (p *Pin) ID() core.Pin { return p.id }

func (p *Pin) String() string { return p.id.Name() }

// Name returns the datasheet name ("P0.5")
func (p *Pin) Name() string { return p.id.Name() }

// Number returns the logical id (0-31, 100-131)
func (p *Pin) Number() int { return int(p.id) }

// Function returns the current function as a string
//
// Deprecated: Use Func.
func (p *Pin) Function() string { return string(p.Func()) }

// Halt is a no-op: pins have no background activity
func (p *Pin) Halt() error { return nil }

// In configures the pin as input. Only gpio.PullNoChange/gpio.Float and
// gpio.NoEdge are accepted.
func (p *Pin) In(pull gpio.Pull, edge gpio.Edge) error {
	if pull != gpio.PullNoChange && pull != gpio.Float {
		return errNoPull
	}
	if edge != gpio.NoEdge {
		return errNoEdge
	}
	_, err := p.m.ReadPin(p.id)
	return err
}

// Read configures the pin as input and returns its level
func (p *Pin) Read() gpio.Level {
	level, err := p.m.ReadPin(p.id)
	if err != nil {
		return gpio.Low
	}
	return gpio.Level(level)
}

// WaitForEdge always times out: edges are not detected
func (p *Pin) WaitForEdge(timeout time.Duration) bool {
	if timeout > 0 {
		time.Sleep(timeout)
	}
	return false
}

// Pull returns gpio.Float: the port has no configurable pulls
func (p *Pin) Pull() gpio.Pull { return gpio.Float }

// DefaultPull returns gpio.Float
func (p *Pin) DefaultPull() gpio.Pull { return gpio.Float }

// Out configures the pin as output and drives it
func (p *Pin) Out(l gpio.Level) error {
	return p.m.WritePin(p.id, bool(l))
}

// PWM is not supported
func (p *Pin) PWM(duty gpio.Duty, f physic.Frequency) error {
	return errNoPWM
}

// Func returns the pin's current function
func (p *Pin) Func() pin.Func {
	if core.HasFunctionSelect(p.id) {
		code, err := p.m.Function(p.id)
		if err != nil {
			return pin.FuncNone
		}
		if code != 0 {
			return altFuncs[code-1]
		}
	}

	out, err := p.m.Direction(p.id)
	if err != nil {
		return pin.FuncNone
	}
	if out {
		return gpio.OUT
	}
	return gpio.IN
}

// SupportedFuncs returns the functions SetFunc accepts
func (p *Pin) SupportedFuncs() []pin.Func {
	funcs := []pin.Func{gpio.IN, gpio.OUT}
	if core.HasFunctionSelect(p.id) {
		funcs = append(funcs, altFuncs[:]...)
	}
	return funcs
}

// SetFunc switches the pin function. GPIO functions reset the function
// select field to 0 first.
func (p *Pin) SetFunc(f pin.Func) error {
	for i, alt := range altFuncs {
		if f == alt {
			return p.m.SelectFunction(p.id, uint8(i+1))
		}
	}

	switch f {
	case gpio.IN, gpio.IN_LOW, gpio.IN_HIGH, gpio.OUT, gpio.OUT_LOW, gpio.OUT_HIGH:
	default:
		return fmt.Errorf("%w: %s on %s", errBadFunc, f, p.id.Name())
	}

	if core.HasFunctionSelect(p.id) {
		if err := p.m.SelectFunction(p.id, 0); err != nil {
			return err
		}
	}
	switch f {
	case gpio.OUT, gpio.OUT_LOW:
		return p.m.WritePin(p.id, false)
	case gpio.OUT_HIGH:
		return p.m.WritePin(p.id, true)
	default:
		_, err := p.m.ReadPin(p.id)
		return err
	}
}

// alias returns the GPIOn alias of a pin
func alias(id core.Pin) string {
	return fmt.Sprintf("GPIO%d", int(id))
}

// RegisterAll registers every pin of m in gpioreg under its datasheet name,
// with GPIOn aliases on the logical ids.
func RegisterAll(m *core.Mapper) ([]*Pin, error) {
	pins := make([]*Pin, 0, 2*core.PinsPerBank)
	for _, id := range core.AllPins() {
		p := &Pin{m: m, id: id}
		if err := gpioreg.Register(p); err != nil {
			return pins, err
		}
		if err := gpioreg.RegisterAlias(alias(id), p.Name()); err != nil {
			return pins, err
		}
		pins = append(pins, p)
	}
	return pins, nil
}

// UnregisterAll removes what RegisterAll registered
func UnregisterAll() {
	for _, id := range core.AllPins() {
		_ = gpioreg.Unregister(alias(id))
		_ = gpioreg.Unregister(id.Name())
	}
}
