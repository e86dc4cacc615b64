package core

// Critical runs fn with interrupts disabled.
// Use it around Mapper calls that share a port with an interrupt handler; the
// Mapper's read-modify-write sequences are not atomic on their own.
func Critical(fn func()) {
	state := disableInterrupts()
	defer restoreInterrupts(state)
	fn()
}
