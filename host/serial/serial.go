package serial

import (
	"errors"
	"io"
)

// Port represents a serial link to the board.
// Implementations: the native port (github.com/tarm/serial) and the
// in-process loopback used by tests and --sim.
type Port interface {
	io.ReadWriteCloser

	// Flush flushes any buffered data
	Flush() error
}

// Config holds serial port configuration
type Config struct {
	// Device path (e.g., "/dev/ttyUSB0", "COM3")
	Device string

	// Baud rate of UART0 on the board
	Baud int

	// Read timeout in milliseconds (0 = blocking)
	ReadTimeout int
}

// DefaultBaud matches the firmware's UART0 setup
const DefaultBaud = 115200

// ErrNoDevice is returned when a config has no device path
var ErrNoDevice = errors.New("no serial device configured")

// DefaultConfig returns the default configuration for a device
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        DefaultBaud,
		ReadTimeout: 100,
	}
}

// Validate checks a configuration before opening a port
func (c *Config) Validate() error {
	if c.Device == "" {
		return ErrNoDevice
	}
	if c.Baud <= 0 {
		return errors.New("baud rate must be positive")
	}
	if c.ReadTimeout < 0 {
		return errors.New("read timeout cannot be negative")
	}
	return nil
}
