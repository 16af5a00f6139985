package dmx

// RxState is the observable state of the receive machine.
type RxState uint8

const (
	// RxIdle: a break was seen and no slot has arrived since.
	RxIdle RxState = iota
	// RxFilling: some but not all slots of the universe have arrived.
	RxFilling
	// RxFull: a complete universe is waiting for the foreground.
	RxFull
	// RxWaitBreak: the position is saturated (packet freed, universe
	// dropped, or overrun) and bytes are ignored until the next break.
	RxWaitBreak
)

func (s RxState) String() string {
	switch s {
	case RxIdle:
		return "idle"
	case RxFilling:
		return "filling"
	case RxFull:
		return "full"
	case RxWaitBreak:
		return "wait-break"
	default:
		return "unknown"
	}
}

// RxState reports the receive machine state. The value is a diagnostic
// snapshot; the interrupt may move on immediately after.
func (d *Driver) RxState() RxState {
	if d.rxReady.Load() {
		return RxFull
	}
	switch pos := d.rxPos; {
	case pos == 0:
		return RxIdle
	case pos < d.cfg.RxLen:
		return RxFilling
	default:
		return RxWaitBreak
	}
}

// RxPosition returns the number of slots stored since the last break.
func (d *Driver) RxPosition() int { return d.rxPos }

// receive advances the slot machine for one interrupt. It runs in interrupt
// context and never blocks.
//
// A break always resets the position, even with an unconsumed packet in the
// buffer. Writes additionally require rxReady to be false, so a universe that
// arrives before FreePacket is dropped instead of overwriting the buffer the
// foreground is reading. A dropped universe saturates the position so that
// none of its later bytes land at the wrong slot if FreePacket happens
// mid-universe.
func (d *Driver) receive(f Flags, data byte) {
	pos := d.rxPos
	capacity := d.cfg.RxLen

	switch {
	case f.Has(FlagFramingError):
		d.stats.breaks.Add(1)
		if pos > 0 && pos < capacity {
			d.stats.short.Add(1)
		}
		pos = 0

	case f.Has(FlagRxNotEmpty):
		if pos >= capacity {
			d.stats.overruns.Add(1)
			break
		}
		if d.rxReady.Load() {
			d.stats.dropped.Add(1)
			pos = capacity
			break
		}
		d.rxBuf[pos] = data
		pos++
		if pos == capacity {
			d.rxReady.Store(true) // publish: buffer now belongs to the foreground
			d.stats.packets.Add(1)
			select {
			case d.notify <- struct{}{}:
			default:
			}
		}
	}

	d.rxPos = pos
}
