//go:build rp2040 || rp2350

package main

import (
	"runtime/volatile"
	"unsafe"

	"readout/core"
)

// RP2040/RP2350 Timer peripheral memory map
const (
	timerBase     = 0x40054000
	timerTIMERAWH = timerBase + 0x08 // Raw timer high word
	timerTIMERAWL = timerBase + 0x0C // Raw timer low word
)

var (
	timerRAWH = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWH)))
	timerRAWL = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWL)))
)

// ticksPerUS scales the 1MHz hardware timer to the scheduler clock
const ticksPerUS = core.TimerFreq / 1000000

// GetHardwareUptime reads the full 64-bit RP2040 hardware timer
func GetHardwareUptime() uint64 {
	// Must read high first, then low, then high again to detect rollover
	for {
		high1 := timerRAWH.Get()
		low := timerRAWL.Get()
		high2 := timerRAWH.Get()

		if high1 == high2 {
			return (uint64(high1) << 32) | uint64(low)
		}
	}
}

// hardwareTicks returns the scheduler clock derived from the hardware
// timer. Scaling the 64-bit count keeps the 32-bit wrap consistent.
func hardwareTicks() uint32 {
	return uint32(GetHardwareUptime() * ticksPerUS)
}
