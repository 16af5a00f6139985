package dmx

import "sync/atomic"

// Stats holds counters since the last reset. Receive counters are updated
// from interrupt context.
type Stats struct {
	// Receive
	Breaks   uint32 // framing errors seen (one per universe on a healthy line)
	Packets  uint32 // buffers handed to the foreground
	Dropped  uint32 // universes discarded because the previous one was not freed
	Overruns uint32 // bytes ignored because the position was saturated
	Short    uint32 // universes cut short by a break before reaching capacity

	// Transmit
	TxUniverses uint32 // universes fully loaded into the UART
}

type counters struct {
	breaks      atomic.Uint32
	packets     atomic.Uint32
	dropped     atomic.Uint32
	overruns    atomic.Uint32
	short       atomic.Uint32
	txUniverses atomic.Uint32
}

func (c *counters) snapshot() Stats {
	return Stats{
		Breaks:      c.breaks.Load(),
		Packets:     c.packets.Load(),
		Dropped:     c.dropped.Load(),
		Overruns:    c.overruns.Load(),
		Short:       c.short.Load(),
		TxUniverses: c.txUniverses.Load(),
	}
}

func (c *counters) reset() {
	c.breaks.Store(0)
	c.packets.Store(0)
	c.dropped.Store(0)
	c.overruns.Store(0)
	c.short.Store(0)
	c.txUniverses.Store(0)
}

// Stats returns a copy of the driver counters.
func (d *Driver) Stats() Stats { return d.stats.snapshot() }

// ResetStats zeroes the driver counters.
func (d *Driver) ResetStats() { d.stats.reset() }
