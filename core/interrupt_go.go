//go:build !tinygo

package core

// State is the saved interrupt mask returned by disableInterrupts.
// Off TinyGo there is nothing to mask and Critical only runs fn.
type State uintptr

func disableInterrupts() State { return 0 }

func restoreInterrupts(State) {}
