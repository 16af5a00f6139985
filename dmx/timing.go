package dmx

import "time"

// Line timings from ANSI E1.11 (DMX512-A). Transmitters must produce at least
// the Min* values; receivers must accept anything above the Rx* values.
const (
	MinBreakTime      = 92 * time.Microsecond
	MinMarkAfterBreak = 12 * time.Microsecond

	RxMinBreak          = 88 * time.Microsecond
	RxMinMarkAfterBreak = 8 * time.Microsecond

	// SlotTime is one 11-bit character at 250 kbit/s.
	SlotTime = 44 * time.Microsecond
)

// Timings used by the transmit sequencer.
const (
	// BreakTime is the typical break of a console transmitter, well over the
	// 92µs minimum.
	BreakTime = 176 * time.Microsecond
	// MarkAfterBreak sits above the 12µs minimum with margin for the pin
	// switch back to UART function.
	MarkAfterBreak = 16 * time.Microsecond
	// MarkBeforeBreak is the idle high held after the pin leaves UART mode
	// and before the break is driven. Two slot times.
	MarkBeforeBreak = 88 * time.Microsecond
)

// UniverseDuration returns the on-wire time of a universe of n slots,
// including break and mark-after-break.
func UniverseDuration(n int) time.Duration {
	return MarkBeforeBreak + BreakTime + MarkAfterBreak + time.Duration(n)*SlotTime
}

// Counter is a free-running monotonic tick source used for busy-wait timing.
// It is expected to wrap at 2^32.
type Counter interface {
	Ticks() uint32
	TicksPerMicrosecond() uint32
}

// ticksFor converts d to counter ticks, rounding up so waits are never short.
func ticksFor(c Counter, d time.Duration) uint32 {
	per := c.TicksPerMicrosecond()
	if per == 0 {
		per = 1
	}
	us := uint32((d + time.Microsecond - 1) / time.Microsecond)
	return us * per
}

// BusyWait spins until d has elapsed on c. Unsigned subtraction keeps the
// comparison correct across counter wrap.
func BusyWait(c Counter, d time.Duration) {
	n := ticksFor(c, d)
	start := c.Ticks()
	for c.Ticks()-start < n {
	}
}
