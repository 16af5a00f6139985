package dmx

import "context"

// TxState is the state of the interrupt-driven transmitter.
type TxState uint32

const (
	// TxIdle: the foreground owns the transmit buffer.
	TxIdle TxState = iota
	// TxSending: the TX interrupt is draining the buffer.
	TxSending
	// TxDone: every slot is loaded into the UART; the last one may still be
	// shifting out. WaitTx returns the state to TxIdle.
	TxDone
)

func (s TxState) String() string {
	switch s {
	case TxIdle:
		return "idle"
	case TxSending:
		return "sending"
	case TxDone:
		return "done"
	default:
		return "unknown"
	}
}

// TxState reports the transmitter state.
func (d *Driver) TxState() TxState { return TxState(d.txState.Load()) }

// TxDone returns a coalesced notification sent when an interrupt-driven
// transmission has loaded its last slot.
func (d *Driver) TxDone() <-chan struct{} { return d.txNotify }

// StartTx sends one universe and blocks until the last stop bit has left the
// UART. It monopolises the calling goroutine for the whole universe, about
// 23ms for 513 slots.
func (d *Driver) StartTx() error {
	if err := d.claimTx(); err != nil {
		return err
	}
	d.sendBreak()
	for _, b := range d.txBuf[:d.txLen] {
		for !d.p.TxReady() {
		}
		d.p.WriteData(b)
	}
	d.stats.txUniverses.Add(1)
	d.releaseTx()
	return nil
}

// StartTxAsync emits the break and mark-after-break, loads slot 0 and leaves
// the remaining slots to the TX interrupt. The transmit buffer must not be
// written until TxDone fires; call WaitTx before the next transmission.
func (d *Driver) StartTxAsync() error {
	if err := d.claimTx(); err != nil {
		return err
	}
	select {
	case <-d.txNotify:
	default:
	}
	d.sendBreak()

	// TX interrupt is masked here, so the foreground owns the first write.
	for !d.p.TxReady() {
	}
	d.p.WriteData(d.txBuf[0])
	d.txPos = 1
	d.txState.Store(uint32(TxSending)) // publish: buffer now belongs to the interrupt
	d.p.SetTxInterrupt(true)
	return nil
}

// WaitTx blocks until an interrupt-driven transmission has completed and the
// line is idle, then releases the transceiver. It returns at once when
// nothing is being sent.
func (d *Driver) WaitTx(ctx context.Context) error {
	for {
		switch d.TxState() {
		case TxIdle:
			return nil
		case TxDone:
			d.releaseTx()
			return nil
		}
		select {
		case <-d.txNotify:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// claimTx makes sure no transmission is in flight, finishing one that is
// already done but was never waited for.
func (d *Driver) claimTx() error {
	switch d.TxState() {
	case TxSending:
		return ErrTxBusy
	case TxDone:
		d.releaseTx()
	}
	return nil
}

// releaseTx waits for the shifter to empty, drops DE and returns the buffer
// to the foreground.
func (d *Driver) releaseTx() {
	for !d.p.TxIdle() {
	}
	d.p.SetDE(false)
	d.txState.Store(uint32(TxIdle))
}

// sendBreak drives break and mark-after-break on the TX pin as GPIO. A UART
// data register cannot hold the line low for longer than one character, so
// the pin is taken out of UART function for the duration.
func (d *Driver) sendBreak() {
	p := d.p
	p.SetDE(true)
	p.SetTxLevel(true)
	p.SetTxMode(PinModeOutput)
	BusyWait(d.clk, MarkBeforeBreak)
	p.SetTxLevel(false)
	BusyWait(d.clk, BreakTime)
	p.SetTxLevel(true)
	BusyWait(d.clk, MarkAfterBreak)
	p.SetTxMode(PinModeUART)
}

// transmitNext runs in interrupt context on TX-ready. It loads the next slot
// or, after the last one, masks the TX interrupt and signals TxDone.
//
// A TX-ready interrupt outside TxSending masks TXIM again. StartTxAsync
// unmasks after publishing TxSending, so an interrupt in between can finish
// a short universe first; the PL011 keeps TXIS asserted while the holding
// register is empty and would otherwise re-enter forever.
func (d *Driver) transmitNext() {
	if d.TxState() != TxSending {
		d.p.SetTxInterrupt(false)
		return
	}
	if d.txPos < d.txLen {
		d.p.WriteData(d.txBuf[d.txPos])
		d.txPos++
		return
	}
	d.p.SetTxInterrupt(false)
	d.stats.txUniverses.Add(1)
	d.txState.Store(uint32(TxDone))
	select {
	case d.txNotify <- struct{}{}:
	default:
	}
}
