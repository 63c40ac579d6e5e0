package core

// Timer represents a scheduled event
type Timer struct {
	WakeTime uint32
	Handler  func(*Timer) uint8
	Next     *Timer

	queued bool
}

// Handler results
const (
	SF_DONE       = 0
	SF_RESCHEDULE = 1
)

// Scheduler owns a clock and a list of timers sorted by WakeTime.
// Each device binding shares one Scheduler; the platform advances its
// clock (timer interrupt on the MCU, host runner on regular Go) and
// due timers run from Dispatch.
type Scheduler struct {
	timerList *Timer
	now       uint32
}

// NewScheduler creates an empty scheduler with its clock at zero
func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// Now returns the scheduler clock in timer ticks
func (s *Scheduler) Now() uint32 {
	state := disableInterrupts()
	defer restoreInterrupts(state)
	return s.now
}

// SetTime sets the scheduler clock without running timers
func (s *Scheduler) SetTime(ticks uint32) {
	state := disableInterrupts()
	s.now = ticks
	restoreInterrupts(state)
}

// AdvanceTo moves the clock to ticks and runs every timer that is due.
// It returns the number of handler invocations.
func (s *Scheduler) AdvanceTo(ticks uint32) int {
	s.SetTime(ticks)
	return s.Dispatch()
}

// ScheduleTimer adds a timer to the schedule. A timer that is already
// queued is moved to its new WakeTime.
func (s *Scheduler) ScheduleTimer(t *Timer) {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	s.insertTimer(t)
}

// CancelTimer removes a timer from the schedule if it is queued
func (s *Scheduler) CancelTimer(t *Timer) {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	s.removeTimer(t)
}

// Pending returns the number of queued timers
func (s *Scheduler) Pending() int {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	n := 0
	for t := s.timerList; t != nil; t = t.Next {
		n++
	}
	return n
}

// NextWake returns the WakeTime of the earliest queued timer
func (s *Scheduler) NextWake() (uint32, bool) {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	if s.timerList == nil {
		return 0, false
	}
	return s.timerList.WakeTime, true
}

// insertTimer inserts a timer in sorted order by WakeTime
func (s *Scheduler) insertTimer(t *Timer) {
	if t.queued {
		s.removeTimer(t)
	}
	t.queued = true

	if s.timerList == nil || TimerIsBefore(t.WakeTime, s.timerList.WakeTime) {
		t.Next = s.timerList
		s.timerList = t
		return
	}

	current := s.timerList
	for current.Next != nil && !TimerIsBefore(t.WakeTime, current.Next.WakeTime) {
		current = current.Next
	}

	t.Next = current.Next
	current.Next = t
}

// removeTimer unlinks a timer from the list
func (s *Scheduler) removeTimer(t *Timer) {
	if !t.queued {
		return
	}
	t.queued = false

	if s.timerList == t {
		s.timerList = t.Next
		t.Next = nil
		return
	}
	for current := s.timerList; current != nil; current = current.Next {
		if current.Next == t {
			current.Next = t.Next
			break
		}
	}
	t.Next = nil
}

// popDue unlinks and returns the head timer if it is due
func (s *Scheduler) popDue() *Timer {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	timer := s.timerList
	if timer == nil || TimerIsBefore(s.now, timer.WakeTime) {
		return nil
	}
	s.timerList = timer.Next
	timer.Next = nil // Clear Next pointer to avoid circular references
	timer.queued = false
	return timer
}

// Dispatch runs due timers. Handlers run outside the critical section so
// they may schedule or cancel timers (including their own) and take their
// own locks.
func (s *Scheduler) Dispatch() int {
	ran := 0
	for {
		timer := s.popDue()
		if timer == nil {
			return ran
		}
		ran++

		if timer.Handler == nil {
			continue
		}
		if timer.Handler(timer) == SF_RESCHEDULE {
			s.ScheduleTimer(timer)
		}
	}
}
