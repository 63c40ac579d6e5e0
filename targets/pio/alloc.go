//go:build rp2040 || rp2350

package pio

var (
	// RP2040/RP2350 has 2 PIO blocks (PIO0, PIO1) with 4 state machines each
	allocations = [2][4]bool{} // [pioNum][smNum]
	nextPIONum  = uint8(0)
	nextSMNum   = uint8(0)
)

// allocate reserves the next free PIO state machine.
// Returns (pioNum, smNum, ok)
func allocate() (uint8, uint8, bool) {
	// Round-robin allocation across PIO blocks and state machines
	for i := 0; i < 8; i++ { // 2 PIO × 4 SM = 8 total
		pioNum := nextPIONum
		smNum := nextSMNum

		nextSMNum++
		if nextSMNum >= 4 {
			nextSMNum = 0
			nextPIONum = (nextPIONum + 1) % 2
		}

		if !allocations[pioNum][smNum] {
			allocations[pioNum][smNum] = true
			return pioNum, smNum, true
		}
	}
	return 0, 0, false
}

// AllocationStatus returns PIO allocation status for debugging
func AllocationStatus() [2][4]bool {
	return allocations
}
