package core

import "time"

// Timer frequencies for common MCUs
const (
	TimerFreq = 12000000 // 12MHz default timer frequency
)

// TimerFromUS converts microseconds to timer ticks
func TimerFromUS(us uint32) uint32 {
	return uint32(uint64(us) * TimerFreq / 1000000)
}

// TimerToUS converts timer ticks to microseconds
func TimerToUS(ticks uint32) uint32 {
	return uint32(uint64(ticks) * 1000000 / TimerFreq)
}

// TimerFromDuration converts a duration to timer ticks.
// Durations that do not fit in the 32-bit clock are clamped to half its range
// so the result still compares correctly with TimerIsBefore.
func TimerFromDuration(d time.Duration) uint32 {
	if d <= 0 {
		return 0
	}
	ticks := uint64(d) * TimerFreq / uint64(time.Second)
	if ticks > 1<<31-1 {
		return 1<<31 - 1
	}
	return uint32(ticks)
}

// TimerIsBefore reports whether time a is before time b, treating the
// 32-bit clock as wrapping (same rule as Klipper's timer_is_before).
func TimerIsBefore(a, b uint32) bool {
	return int32(a-b) < 0
}
