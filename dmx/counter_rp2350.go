//go:build rp2350

package dmx

import "device/rp"

// Ticks returns the low word of TIMER0's raw counter.
func (usTimer) Ticks() uint32 { return rp.TIMER0.TIMERAWL.Get() }
