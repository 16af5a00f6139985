//go:build !rp2040 && !rp2350

package dmx

import "time"

// SimTicksPerMicrosecond is the resolution of the simulated counter.
const SimTicksPerMicrosecond = 8

// WireKind classifies a recorded line event.
type WireKind uint8

const (
	WireLevel WireKind = iota // TX pin driven as GPIO
	WireMode                  // TX pin function changed
	WireByte                  // UART started shifting a character
	WireDE                    // driver-enable changed
)

// WireEvent is one change on the simulated transmit side.
type WireEvent struct {
	At    uint32 // counter tick
	Kind  WireKind
	High  bool    // WireLevel, WireDE
	Mode  PinMode // WireMode
	Value byte    // WireByte
}

// Frame is one universe decoded from the wire log.
type Frame struct {
	MarkBeforeBreak time.Duration
	Break           time.Duration
	MarkAfterBreak  time.Duration
	Slots           []byte
}

type rxEvent struct {
	brk  bool
	data byte
}

// Sim is a deterministic UART line implementing Peripheral and Counter.
// Every counter read and every TX poll advances time by one tick, so busy
// waits terminate and byte timing follows from SlotTime.
//
// Receive events are delivered by calling the bound interrupt handler
// synchronously, one event per invocation, as soon as the line is enabled.
type Sim struct {
	now uint32
	cfg Config

	// RX
	rxq     []rxEvent
	handler func()
	inIRQ   bool

	// TX
	mode     PinMode
	level    bool
	de       bool
	txIRQ    bool
	holdFree uint32
	shiftEnd uint32
	lowAt    uint32
	wire     []WireEvent
	peer     *Sim
}

// NewSim returns an idle line.
func NewSim() *Sim {
	return &Sim{level: true}
}

// ---------- Counter ----------

func (s *Sim) Ticks() uint32 {
	s.now++
	return s.now
}

func (s *Sim) TicksPerMicrosecond() uint32 { return SimTicksPerMicrosecond }

// Advance moves simulated time forward by d. An idle transmitter stays idle
// however far time moves.
func (s *Sim) Advance(d time.Duration) {
	idle := reached(s.now, s.shiftEnd)
	s.now += ticksFor(s, d)
	if idle {
		s.holdFree, s.shiftEnd = s.now, s.now
	}
}

// ---------- Peripheral ----------

func (s *Sim) Configure(cfg Config) error {
	s.cfg = cfg
	s.mode = PinModeUART
	s.level = true
	s.de = false
	s.txIRQ = false
	return nil
}

func (s *Sim) Enable(handler func()) {
	s.handler = handler
	s.fire()
}

func (s *Sim) Sample() (Flags, byte) {
	var f Flags
	if reached(s.now, s.holdFree) {
		f |= FlagTxReady
	}
	if len(s.rxq) == 0 {
		return f, 0
	}
	ev := s.rxq[0]
	s.rxq = s.rxq[1:]
	f |= FlagRxNotEmpty
	if ev.brk {
		f |= FlagFramingError
	}
	return f, ev.data
}

func (s *Sim) WriteData(b byte) {
	start := s.now
	if !reached(start, s.shiftEnd) {
		start = s.shiftEnd
	}
	s.holdFree = start
	s.shiftEnd = start + ticksFor(s, SlotTime)
	s.record(WireEvent{At: start, Kind: WireByte, Value: b})
	if s.peer != nil {
		s.peer.deliver(rxEvent{data: b})
	}
}

func (s *Sim) TxReady() bool {
	s.now++
	return reached(s.now, s.holdFree)
}

func (s *Sim) TxIdle() bool {
	s.now++
	return reached(s.now, s.shiftEnd)
}

func (s *Sim) SetTxInterrupt(on bool) { s.txIRQ = on }

func (s *Sim) SetTxMode(m PinMode) {
	if m == s.mode {
		return
	}
	s.mode = m
	s.record(WireEvent{At: s.now, Kind: WireMode, Mode: m})
}

func (s *Sim) SetTxLevel(high bool) {
	if high == s.level {
		return
	}
	s.level = high
	if s.mode != PinModeOutput {
		return
	}
	s.record(WireEvent{At: s.now, Kind: WireLevel, High: high})
	if !high {
		s.lowAt = s.now
		return
	}
	if s.peer != nil && s.now-s.lowAt >= ticksFor(s, RxMinBreak) {
		s.peer.deliver(rxEvent{brk: true})
	}
}

func (s *Sim) SetDE(on bool) {
	if on == s.de {
		return
	}
	s.de = on
	s.record(WireEvent{At: s.now, Kind: WireDE, High: on})
}

// ---------- Test surface ----------

// InjectBreak delivers a framing error, as a break on the line produces.
func (s *Sim) InjectBreak() { s.deliver(rxEvent{brk: true}) }

// InjectByte delivers one received character.
func (s *Sim) InjectByte(b byte) { s.deliver(rxEvent{data: b}) }

// InjectUniverse delivers a break followed by slots.
func (s *Sim) InjectUniverse(slots ...byte) {
	s.InjectBreak()
	for _, b := range slots {
		s.InjectByte(b)
	}
}

// Pending returns the number of receive events not yet handled.
func (s *Sim) Pending() int { return len(s.rxq) }

// Link forwards everything this line transmits into rx: characters as
// received bytes, and GPIO low pulses of at least RxMinBreak as breaks.
func (s *Sim) Link(rx *Sim) { s.peer = rx }

// RunTx services TX-ready interrupts until the driver masks them.
func (s *Sim) RunTx() {
	for s.txIRQ && s.handler != nil {
		if !reached(s.now, s.holdFree) {
			s.now = s.holdFree
		}
		s.call()
	}
}

// TxMode reports the current TX pin function.
func (s *Sim) TxMode() PinMode { return s.mode }

// DE reports the driver-enable level.
func (s *Sim) DE() bool { return s.de }

// TxInterrupt reports whether the TX-ready interrupt is unmasked.
func (s *Sim) TxInterrupt() bool { return s.txIRQ }

// Wire returns a copy of the recorded transmit events.
func (s *Sim) Wire() []WireEvent { return append([]WireEvent(nil), s.wire...) }

// ResetWire discards the recorded transmit events.
func (s *Sim) ResetWire() { s.wire = s.wire[:0] }

// Frames decodes the wire log into universes. A frame starts at each low
// level driven in GPIO mode; the characters that follow are its slots.
func (s *Sim) Frames() []Frame {
	var (
		out       []Frame
		cur       *Frame
		markStart uint32
		lowStart  uint32
		breakEnd  uint32
		haveMAB   bool
	)
	for _, ev := range s.wire {
		switch ev.Kind {
		case WireMode:
			if ev.Mode == PinModeOutput {
				markStart = ev.At
			}
		case WireLevel:
			if !ev.High {
				out = append(out, Frame{MarkBeforeBreak: s.duration(ev.At - markStart)})
				cur = &out[len(out)-1]
				lowStart = ev.At
				haveMAB = false
			} else if cur != nil {
				cur.Break = s.duration(ev.At - lowStart)
				breakEnd = ev.At
			}
		case WireByte:
			if cur == nil {
				continue
			}
			if !haveMAB {
				cur.MarkAfterBreak = s.duration(ev.At - breakEnd)
				haveMAB = true
			}
			cur.Slots = append(cur.Slots, ev.Value)
		}
	}
	return out
}

// ---------- internals ----------

func (s *Sim) duration(ticks uint32) time.Duration {
	return time.Duration(ticks) * time.Microsecond / SimTicksPerMicrosecond
}

func (s *Sim) record(ev WireEvent) { s.wire = append(s.wire, ev) }

func (s *Sim) deliver(ev rxEvent) {
	s.rxq = append(s.rxq, ev)
	s.fire()
}

// fire runs the handler once per queued receive event. Nested deliveries
// (a driver transmitting from its own handler) are picked up by the outer
// loop.
func (s *Sim) fire() {
	if s.handler == nil || s.inIRQ {
		return
	}
	for len(s.rxq) > 0 {
		s.call()
	}
}

func (s *Sim) call() {
	s.inIRQ = true
	s.handler()
	s.inIRQ = false
}

// reached reports now >= t on a wrapping counter.
func reached(now, t uint32) bool { return int32(now-t) >= 0 }
