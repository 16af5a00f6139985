package dmx

import "sync/atomic"

// Driver is the state of one DMX512 port. It is created once and lives for
// the lifetime of the program.
//
// Ownership of the receive buffer:
//   - While rxReady is false the interrupt writes rxBuf and advances rxPos;
//     the foreground must not read rxBuf.
//   - While rxReady is true the foreground reads rxBuf; the interrupt must not
//     write rxBuf or advance rxPos past the saturated position.
//
// rxReady goes false->true only in HandleInterrupt and true->false only in
// FreePacket. It is the sole synchronization point of the receive path.
//
// The transmit buffer is owned by the foreground except while txState is
// TxSending, when the TX interrupt reads it.
type Driver struct {
	cfg Config
	p   Peripheral
	clk Counter

	// RX
	rxPos   int // written only from interrupt context
	rxReady atomic.Bool
	rxBuf   [MaxSlots]byte
	notify  chan struct{} // coalesced packet-ready notifications

	// TX
	txLen    int
	txPos    int // written by the TX interrupt while sending
	txState  atomic.Uint32
	txBuf    [MaxSlots]byte
	txNotify chan struct{} // coalesced TxDone notifications

	stats counters
}

// NewWithPeripheral creates a driver on an explicit backend and configures
// the hardware. The interrupt line stays disabled until Enable.
func NewWithPeripheral(p Peripheral, clk Counter, cfg Config) (*Driver, error) {
	cfg, err := cfg.withDefaults()
	if err != nil {
		return nil, err
	}
	d := &Driver{
		cfg:      cfg,
		p:        p,
		clk:      clk,
		txLen:    cfg.TxLen,
		notify:   make(chan struct{}, 1),
		txNotify: make(chan struct{}, 1),
	}
	if err := p.Configure(cfg); err != nil {
		return nil, err
	}
	return d, nil
}

// Enable binds HandleInterrupt to the UART interrupt and unmasks it. Call it
// once New has returned, so the handler never sees a half-built driver.
func (d *Driver) Enable() {
	d.p.Enable(d.HandleInterrupt)
}

// Config returns the configuration the driver was created with.
func (d *Driver) Config() Config { return d.cfg }

// Peripheral returns the backend the driver runs on.
func (d *Driver) Peripheral() Peripheral { return d.p }

// HandleInterrupt is the UART interrupt entry point. Status is sampled once;
// the receive machine and, when sending, the transmit machine act on that
// snapshot.
func (d *Driver) HandleInterrupt() {
	f, data := d.p.Sample()
	d.receive(f, data)
	if f.Has(FlagTxReady) {
		d.transmitNext()
	}
}

// ---------------- Foreground receive API ----------------

// PacketAvailable reports whether a complete universe is waiting. Only the
// foreground clears the flag, so a true result stays valid until FreePacket.
func (d *Driver) PacketAvailable() bool { return d.rxReady.Load() }

// Packet returns the received universe, start code first. The slice aliases
// the driver buffer and is valid until FreePacket. It returns nil when no
// packet is available.
func (d *Driver) Packet() []byte {
	if !d.rxReady.Load() {
		return nil
	}
	return d.rxBuf[:d.cfg.RxLen:d.cfg.RxLen]
}

// RxLength returns the number of slots in a received packet.
func (d *Driver) RxLength() int { return d.cfg.RxLen }

// FreePacket hands the receive buffer back to the interrupt. Call it exactly
// once per packet after PacketAvailable returned true.
func (d *Driver) FreePacket() { d.rxReady.Store(false) }

// Readable returns a coalesced notification sent when a packet completes.
// Callers must re-check PacketAvailable after waking.
func (d *Driver) Readable() <-chan struct{} { return d.notify }

// ---------------- Foreground transmit API ----------------

// TxBuffer returns the transmit slots, start code first, sized to the
// current transmit length. Fill it before StartTx.
func (d *Driver) TxBuffer() []byte { return d.txBuf[:d.txLen:d.txLen] }

// TxBufferAvailable reports whether the foreground may write TxBuffer. It is
// false while an interrupt-driven transmission is sending.
func (d *Driver) TxBufferAvailable() bool {
	return TxState(d.txState.Load()) != TxSending
}

// SetTxLength sets the number of slots sent per universe, start code
// included, up to the configured capacity.
func (d *Driver) SetTxLength(n int) error {
	if n < 1 || n > d.cfg.TxLen {
		return ErrInvalidLength
	}
	if !d.TxBufferAvailable() {
		return ErrTxBusy
	}
	d.txLen = n
	return nil
}

// TxLength returns the number of slots sent per universe.
func (d *Driver) TxLength() int { return d.txLen }
