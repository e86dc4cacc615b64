//go:build lpc2148

package main

// UART0 registers (UM10139 chapter 10)
const (
	u0RBR = 0xE000C000 // receive buffer (DLAB=0)
	u0THR = 0xE000C000 // transmit holding (DLAB=0)
	u0DLL = 0xE000C000 // divisor latch LSB (DLAB=1)
	u0DLM = 0xE000C004 // divisor latch MSB (DLAB=1)
	u0FCR = 0xE000C008
	u0LCR = 0xE000C00C
	u0LSR = 0xE000C014
)

const (
	lcr8N1  = 0x03
	lcrDLAB = 0x80
	fcrInit = 0x07 // enable and reset both FIFOs
	lsrRDR  = 0x01 // receive data ready
	lsrTHRE = 0x20 // transmit holding register empty
)

// Peripheral clock with the reset VPBDIV (CCLK/4)
const pclk = 60000000 / 4

// initUART0 configures 8N1 at baud. P0.0/P0.1 must already select TXD0/RXD0.
func initUART0(baud uint32) {
	div := pclk / (16 * baud)
	reg32(u0LCR).Set(lcr8N1 | lcrDLAB)
	reg32(u0DLL).Set(div & 0xFF)
	reg32(u0DLM).Set(div >> 8 & 0xFF)
	reg32(u0LCR).Set(lcr8N1)
	reg32(u0FCR).Set(fcrInit)
}

// uartRead returns the next received byte, if any
func uartRead() (byte, bool) {
	if reg32(u0LSR).Get()&lsrRDR == 0 {
		return 0, false
	}
	return byte(reg32(u0RBR).Get()), true
}

// uartWrite blocks until every byte is in the transmit FIFO
func uartWrite(data []byte) {
	lsr := reg32(u0LSR)
	thr := reg32(u0THR)
	for _, b := range data {
		for lsr.Get()&lsrTHRE == 0 {
		}
		thr.Set(uint32(b))
	}
}
