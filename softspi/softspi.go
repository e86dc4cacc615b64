// Package softspi bit-bangs SPI on three port pins through a core.Mapper.
// Bus implements tinygo.org/x/drivers.SPI, so tinygo device drivers can
// talk to peripherals wired to plain GPIO pins.
package softspi

import (
	"errors"
	"sync"
	"time"

	"tinygo.org/x/drivers"

	"lpcio/core"
)

var (
	ErrInvalidMode = errors.New("softspi: invalid SPI mode")
	ErrLength      = errors.New("softspi: tx and rx buffer lengths must match")
)

// Config selects the pins and clocking of a bus
type Config struct {
	SCK core.Pin
	SDO core.Pin // MOSI
	SDI core.Pin // MISO

	Mode      uint8  // 0-3: bit 1 is CPOL, bit 0 is CPHA
	Frequency uint32 // Hz, 0 means as fast as the mapper allows
	LSBFirst  bool
}

// Bus is a software SPI master
type Bus struct {
	mu sync.Mutex
	m  *core.Mapper

	sck, sdo, sdi core.Pin
	cpol, cpha    bool
	lsbFirst      bool
	halfPeriod    time.Duration
}

var _ drivers.SPI = (*Bus)(nil)

// New configures the pins and parks the clock at its idle level
func New(m *core.Mapper, cfg Config) (*Bus, error) {
	if cfg.Mode > 3 {
		return nil, ErrInvalidMode
	}
	for _, id := range []core.Pin{cfg.SCK, cfg.SDO, cfg.SDI} {
		if !core.ValidPin(id) {
			return nil, &core.PinError{Op: "softspi", ID: int(id), Err: core.ErrInvalidIdentifier}
		}
	}

	b := &Bus{
		m:        m,
		sck:      cfg.SCK,
		sdo:      cfg.SDO,
		sdi:      cfg.SDI,
		cpol:     cfg.Mode&2 != 0,
		cpha:     cfg.Mode&1 != 0,
		lsbFirst: cfg.LSBFirst,
	}
	if cfg.Frequency > 0 {
		b.halfPeriod = time.Duration(500000000/cfg.Frequency) * time.Nanosecond
	}

	if err := m.WritePin(b.sck, b.cpol); err != nil {
		return nil, err
	}
	if err := m.WritePin(b.sdo, false); err != nil {
		return nil, err
	}
	if _, err := m.ReadPin(b.sdi); err != nil {
		return nil, err
	}
	return b, nil
}

// Transfer writes one byte and returns the byte clocked in
func (b *Bus) Transfer(w byte) (byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.transferByte(w)
}

// Tx performs a full-duplex transfer. Either slice may be nil: a nil w
// sends zeros and a nil r discards what is received.
func (b *Bus) Tx(w, r []byte) error {
	if w != nil && r != nil && len(w) != len(r) {
		return ErrLength
	}
	n := len(w)
	if w == nil {
		n = len(r)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for i := 0; i < n; i++ {
		var out byte
		if w != nil {
			out = w[i]
		}
		in, err := b.transferByte(out)
		if err != nil {
			return err
		}
		if r != nil {
			r[i] = in
		}
	}
	return nil
}

func (b *Bus) transferByte(tx byte) (byte, error) {
	var rx byte
	for i := 0; i < 8; i++ {
		bit := uint(7 - i)
		if b.lsbFirst {
			bit = uint(i)
		}

		if err := b.m.WritePin(b.sdo, tx&(1<<bit) != 0); err != nil {
			return 0, err
		}

		// CPHA=0 samples on the leading edge, CPHA=1 on the trailing edge
		if !b.cpha {
			if err := b.sample(&rx, bit); err != nil {
				return 0, err
			}
		}
		if err := b.clock(!b.cpol); err != nil {
			return 0, err
		}
		if b.cpha {
			if err := b.sample(&rx, bit); err != nil {
				return 0, err
			}
		}
		if err := b.clock(b.cpol); err != nil {
			return 0, err
		}
	}
	return rx, nil
}

func (b *Bus) sample(rx *byte, bit uint) error {
	level, err := b.m.ReadPin(b.sdi)
	if err != nil {
		return err
	}
	if level {
		*rx |= 1 << bit
	}
	return nil
}

func (b *Bus) clock(level bool) error {
	if err := b.m.WritePin(b.sck, level); err != nil {
		return err
	}
	if b.halfPeriod > 0 {
		time.Sleep(b.halfPeriod)
	}
	return nil
}
