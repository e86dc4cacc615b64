package script

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"lpcio/core"
)

// ErrExpectation is returned when an expect statement does not hold
var ErrExpectation = errors.New("expectation failed")

// Target is what a script drives. *mcu.MCU satisfies it over a serial link
// and MapperTarget satisfies it in-process.
type Target interface {
	WritePin(pin core.Pin, level bool) error
	ReadPin(pin core.Pin) (bool, error)
	WritePort(group core.Group, value uint32) error
	ReadPort(group core.Group) (uint32, error)
	SelectFunction(pin core.Pin, fn uint8) error
	ReadFunction(pin core.Pin) (uint8, error)
	WriteDAC(value uint32, bias bool) error
}

// PinResolver is implemented by targets that know their own pin names
type PinResolver interface {
	PinByName(name string) (core.Pin, error)
}

// MapperTarget adapts a *core.Mapper to Target
type MapperTarget struct {
	*core.Mapper
}

func (t MapperTarget) WritePort(g core.Group, v uint32) error { return t.WriteGroup(g, v) }
func (t MapperTarget) ReadPort(g core.Group) (uint32, error) { return t.ReadGroup(g) }
func (t MapperTarget) ReadFunction(p core.Pin) (uint8, error) { return t.Function(p) }
func (t MapperTarget) WriteDAC(v uint32, bias bool) error { return t.WriteAnalog(v, bias) }

// Run parses src and executes it against target, writing query results to out
func Run(ctx context.Context, target Target, name, src string, out io.Writer) error {
	s, err := ParseString(name, src)
	if err != nil {
		return err
	}
	return Exec(ctx, target, s, out)
}

// Exec executes a parsed script, stopping at the first failing statement
func Exec(ctx context.Context, target Target, s *Script, out io.Writer) error {
	r := &runner{target: target, out: out}
	for _, stmt := range s.Statements {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.exec(stmt); err != nil {
			return fmt.Errorf("%s: %w", stmt.Pos, err)
		}
	}
	return nil
}

type runner struct {
	target Target
	out    io.Writer
}

func (r *runner) exec(stmt *Statement) error {
	switch {
	case stmt.Set != nil:
		pin, err := r.pin(stmt.Set.Pin)
		if err != nil {
			return err
		}
		return r.target.WritePin(pin, stmt.Set.Level.High)

	case stmt.Get != nil:
		pin, err := r.pin(stmt.Get.Pin)
		if err != nil {
			return err
		}
		level, err := r.target.ReadPin(pin)
		if err != nil {
			return err
		}
		fmt.Fprintf(r.out, "%s = %s\n", pin, levelName(level))
		return nil

	case stmt.Port != nil:
		return r.port(stmt.Port)

	case stmt.Func != nil:
		return r.function(stmt.Func)

	case stmt.DAC != nil:
		v, err := stmt.DAC.Value.value()
		if err != nil {
			return err
		}
		return r.target.WriteDAC(v, stmt.DAC.Bias)

	case stmt.Expect != nil:
		return r.expect(stmt.Expect)
	}
	return errors.New("empty statement")
}

func (r *runner) port(p *PortStmt) error {
	g, err := p.Group.value()
	if err != nil {
		return err
	}
	group := core.Group(g)
	if p.Op.Query {
		v, err := r.target.ReadPort(group)
		if err != nil {
			return err
		}
		fmt.Fprintf(r.out, "port %d = 0x%02X\n", group, v)
		return nil
	}
	v, err := p.Op.Value.value()
	if err != nil {
		return err
	}
	return r.target.WritePort(group, v)
}

func (r *runner) function(f *FuncStmt) error {
	pin, err := r.pin(f.Pin)
	if err != nil {
		return err
	}
	if f.Op.Query {
		fn, err := r.target.ReadFunction(pin)
		if err != nil {
			return err
		}
		fmt.Fprintf(r.out, "func %s = %d\n", pin, fn)
		return nil
	}
	v, err := f.Op.Value.value()
	if err != nil {
		return err
	}
	if v > core.FunctionMax {
		return &core.PinError{Op: "select_function", ID: int(pin), Err: core.ErrValueOutOfRange}
	}
	return r.target.SelectFunction(pin, uint8(v))
}

func (r *runner) expect(e *ExpectStmt) error {
	if e.Port != nil {
		g, err := e.Port.Group.value()
		if err != nil {
			return err
		}
		want, err := e.Port.Value.value()
		if err != nil {
			return err
		}
		got, err := r.target.ReadPort(core.Group(g))
		if err != nil {
			return err
		}
		if got != want {
			return fmt.Errorf("%w: port %d = 0x%02X, expected 0x%02X", ErrExpectation, g, got, want)
		}
		return nil
	}

	pin, err := r.pin(e.Pin.Pin)
	if err != nil {
		return err
	}
	got, err := r.target.ReadPin(pin)
	if err != nil {
		return err
	}
	if got != e.Pin.Level.High {
		return fmt.Errorf("%w: %s is %s", ErrExpectation, pin, levelName(got))
	}
	return nil
}

func (r *runner) pin(ref PinRef) (core.Pin, error) {
	if res, ok := r.target.(PinResolver); ok {
		return res.PinByName(ref.Name)
	}
	return core.ParsePin(ref.Name)
}

func (n Number) value() (uint32, error) {
	v, err := strconv.ParseUint(n.Value, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("%s: bad number %q", n.Pos, n.Value)
	}
	return uint32(v), nil
}

func levelName(high bool) string {
	if high {
		return "high"
	}
	return "low"
}
