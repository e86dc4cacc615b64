//go:build tinygo

package core

import "runtime/interrupt"

// State is the saved interrupt mask returned by disableInterrupts
type State = interrupt.State

func disableInterrupts() State { return interrupt.Disable() }

func restoreInterrupts(s State) { interrupt.Restore(s) }
