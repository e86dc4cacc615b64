package core

import "strconv"

// Pin is a logical pin identifier.
// 0-31 address port 0 bit n, 100-131 address port 1 bit n-100.
type Pin int

// Group is a logical port-group identifier.
// 0-3 are byte slices of port 0, 12-13 the upper two bytes of port 1,
// 9 and 19 the whole of port 0 and port 1.
type Group int

const (
	BankBBase Pin = 100 // first logical id of port 1
	PinsPerBank   = 32

	GroupFullA Group = 9
	GroupFullB Group = 19

	FunctionMax = 3    // largest function select code
	DACMax      = 1023 // largest DAC value
	ByteMax     = 0xFF // largest port-group write value
)

// resolvePin maps a logical id onto its bank and bit
func resolvePin(id Pin) (Bank, uint8, bool) {
	switch {
	case id >= 0 && id <= 31:
		return BankA, uint8(id), true
	case id >= BankBBase && id <= BankBBase+31:
		return BankB, uint8(id - BankBBase), true
	default:
		return 0, 0, false
	}
}

// groupLoc is the resolved location of a port group
type groupLoc struct {
	bank  Bank
	shift uint8  // bit offset of the slice
	mask  uint32 // direction/input mask of the slice (unshifted result mask is mask>>shift)
	base  Pin    // logical id of the slice's lowest pin
	full  bool   // 32-bit whole-bank access
}

// resolveGroup maps a logical group onto its bank slice
func resolveGroup(g Group) (groupLoc, bool) {
	switch g {
	case 0, 1, 2, 3:
		shift := uint8(g) * 8
		return groupLoc{bank: BankA, shift: shift, mask: 0xFF << shift, base: Pin(shift)}, true
	case 12, 13:
		shift := uint8(g-12)*8 + 16
		return groupLoc{bank: BankB, shift: shift, mask: 0xFF << shift, base: BankBBase + Pin(shift)}, true
	case GroupFullA:
		return groupLoc{bank: BankA, mask: 0xFFFFFFFF, base: 0, full: true}, true
	case GroupFullB:
		return groupLoc{bank: BankB, mask: 0xFFFFFFFF, base: BankBBase, full: true}, true
	default:
		return groupLoc{}, false
	}
}

// resolveSelect maps a logical id onto its function select register and
// the offset of its 2-bit field
func resolveSelect(id Pin) (Register, uint8, bool) {
	switch {
	case id >= 0 && id <= 15:
		return PINSEL0, uint8(id) * 2, true
	case id >= 16 && id <= 31:
		return PINSEL1, uint8(id-16) * 2, true
	case id >= BankBBase+16 && id <= BankBBase+31:
		return PINSEL2, uint8(id-BankBBase-16) * 2, true
	default:
		return 0, 0, false
	}
}

// ValidPin reports whether id addresses a hardware bit
func ValidPin(id Pin) bool {
	_, _, ok := resolvePin(id)
	return ok
}

// ValidGroup reports whether g is a recognised port group
func ValidGroup(g Group) bool {
	_, ok := resolveGroup(g)
	return ok
}

// HasFunctionSelect reports whether id has a function select field
func HasFunctionSelect(id Pin) bool {
	_, _, ok := resolveSelect(id)
	return ok
}

// AllPins returns every valid logical pin id in ascending order
func AllPins() []Pin {
	pins := make([]Pin, 0, 2*PinsPerBank)
	for i := Pin(0); i < PinsPerBank; i++ {
		pins = append(pins, i)
	}
	for i := Pin(0); i < PinsPerBank; i++ {
		pins = append(pins, BankBBase+i)
	}
	return pins
}

// Name returns the datasheet name of a pin ("P0.5", "P1.18"), or "" if invalid
func (p Pin) Name() string {
	bank, bit, ok := resolvePin(p)
	if !ok {
		return ""
	}
	return "P" + itoa(int(bank)) + "." + itoa(int(bit))
}

func (p Pin) String() string {
	if n := p.Name(); n != "" {
		return n
	}
	return "pin(" + itoa(int(p)) + ")"
}

// ParsePin accepts a datasheet name ("P0.5", "p1.18") or a logical id ("105")
func ParsePin(s string) (Pin, error) {
	if len(s) >= 4 && (s[0] == 'P' || s[0] == 'p') && s[2] == '.' {
		var bank Pin
		switch s[1] {
		case '0':
			bank = 0
		case '1':
			bank = BankBBase
		default:
			return 0, pinError("parse", -1, ErrInvalidIdentifier)
		}
		bit, ok := parseDecimal(s[3:])
		if !ok || bit >= PinsPerBank {
			return 0, pinError("parse", -1, ErrInvalidIdentifier)
		}
		return bank + Pin(bit), nil
	}
	n, ok := parseDecimal(s)
	if !ok || !ValidPin(Pin(n)) {
		return 0, pinError("parse", n, ErrInvalidIdentifier)
	}
	return Pin(n), nil
}

// parseDecimal accepts plain digits without sign or leading zeros, so every
// pin has exactly one spelling
func parseDecimal(s string) (int, bool) {
	if s == "" || len(s) > 3 || (len(s) > 1 && s[0] == '0') {
		return 0, false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	return n, err == nil
}
