package core

import "errors"

var (
	// ErrInvalidIdentifier is returned for a pin, group or function id outside its domain
	ErrInvalidIdentifier = errors.New("invalid identifier")

	// ErrValueOutOfRange is returned for a level, byte, function code or DAC value
	// that does not fit its bit width
	ErrValueOutOfRange = errors.New("value out of range")

	// ErrShutdown is returned by firmware commands after emergency_stop
	ErrShutdown = errors.New("firmware is shut down")
)

// PinError records the operation and identifier of a rejected request
type PinError struct {
	Op  string
	ID  int
	Err error
}

func (e *PinError) Error() string {
	return e.Op + " " + itoa(e.ID) + ": " + e.Err.Error()
}

func (e *PinError) Unwrap() error { return e.Err }

func pinError(op string, id int, err error) error {
	return &PinError{Op: op, ID: id, Err: err}
}

// Code is the one-byte status carried in gpio_* responses
type Code uint8

const (
	CodeOK                Code = 0
	CodeInvalidIdentifier Code = 1
	CodeValueOutOfRange   Code = 2
	CodeShutdown          Code = 3
	CodeError             Code = 0xFF
)

// CodeOf maps an error onto its wire code, defaulting to CodeError
func CodeOf(err error) Code {
	switch {
	case err == nil:
		return CodeOK
	case errors.Is(err, ErrInvalidIdentifier):
		return CodeInvalidIdentifier
	case errors.Is(err, ErrValueOutOfRange):
		return CodeValueOutOfRange
	case errors.Is(err, ErrShutdown):
		return CodeShutdown
	default:
		return CodeError
	}
}

// Err converts a wire code back into the matching sentinel error
func (c Code) Err() error {
	switch c {
	case CodeOK:
		return nil
	case CodeInvalidIdentifier:
		return ErrInvalidIdentifier
	case CodeValueOutOfRange:
		return ErrValueOutOfRange
	case CodeShutdown:
		return ErrShutdown
	default:
		return errors.New("mcu error code " + itoa(int(c)))
	}
}
