//go:build !tinygo

package core

import "sync"

// State is a placeholder for interrupt state on regular Go
type State uintptr

// irqMu stands in for the interrupt mask on regular Go, where the host
// runner and callers of the emitter run on separate goroutines.
// Critical sections must not nest.
var irqMu sync.Mutex

// disableInterrupts enters the host critical section
func disableInterrupts() State {
	irqMu.Lock()
	return 0
}

// restoreInterrupts leaves the host critical section
func restoreInterrupts(state State) {
	irqMu.Unlock()
}
