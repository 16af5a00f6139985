//go:build rp2040

package dmx

import "device/rp"

// Ticks returns the low word of the raw 64-bit timer; reading TIMERAWL does
// not latch TIMEHR.
func (usTimer) Ticks() uint32 { return rp.TIMER.TIMERAWL.Get() }
