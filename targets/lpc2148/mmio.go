//go:build lpc2148

package main

import (
	"runtime/volatile"
	"unsafe"

	"lpcio/core"
)

// mmioRegisters backs core.RegisterFile with the chip's memory-mapped registers
type mmioRegisters struct{}

func reg32(addr uintptr) *volatile.Register32 {
	return (*volatile.Register32)(unsafe.Pointer(addr))
}

// Load implements core.RegisterFile
func (mmioRegisters) Load(r core.Register) uint32 {
	addr := r.Address()
	if addr == 0 {
		return 0
	}
	return reg32(addr).Get()
}

// Store implements core.RegisterFile
func (mmioRegisters) Store(r core.Register, v uint32) {
	addr := r.Address()
	if addr == 0 {
		return
	}
	reg32(addr).Set(v)
}
