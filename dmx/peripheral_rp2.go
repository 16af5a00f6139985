// dmx/peripheral_rp2.go

//go:build rp2040 || rp2350

package dmx

import (
	"device/rp"
	"runtime/interrupt"
	"runtime/volatile"
	"unsafe"

	"machine"
)

// Pin identifies a GPIO line.
type Pin = machine.Pin

// NoPin marks an unused line.
const NoPin = machine.NoPin

// PL011 drives one RP2040/RP2350 UART for DMX512. FIFOs are disabled so every
// received character, including the zero character of a break, raises its
// own interrupt with its error bits.
type PL011 struct {
	Bus       *rp.UART0_Type
	Interrupt interrupt.Interrupt

	index int
	tx    machine.Pin
	de    machine.Pin
}

// PL011 instances. The interrupt handlers are installed at init and dispatch
// to whatever driver Enable bound to the instance.
var (
	UART0 = &PL011{Bus: rp.UART0, index: 0}
	UART1 = &PL011{Bus: rp.UART1, index: 1}

	handlers [2]func()
)

func init() {
	UART0.Interrupt = interrupt.New(rp.IRQ_UART0_IRQ, func(interrupt.Interrupt) {
		if h := handlers[0]; h != nil {
			h()
		}
	})
	UART1.Interrupt = interrupt.New(rp.IRQ_UART1_IRQ, func(interrupt.Interrupt) {
		if h := handlers[1]; h != nil {
			h()
		}
	})
}

// New creates a driver on the PL011 selected by cfg.Bus, timed by the 1 MHz
// system timer.
func New(cfg Config) (*Driver, error) {
	var p *PL011
	switch cfg.Bus {
	case 0:
		p = UART0
	case 1:
		p = UART1
	default:
		return nil, ErrUnknownBus
	}
	return NewWithPeripheral(p, Timer, cfg)
}

// Configure resets the PL011, muxes the pins, programs 250000 baud 8N2 with
// FIFOs off and unmasks the receive interrupt. The NVIC line stays disabled
// until Enable.
func (p *PL011) Configure(cfg Config) error {
	p.reset()
	p.tx = cfg.TX
	p.de = cfg.DE

	// 1) Disable while configuring.
	p.Bus.UARTCR.ClearBits(rp.UART0_UARTCR_UARTEN | rp.UART0_UARTCR_RXE | rp.UART0_UARTCR_TXE)

	// 2) Pins. TX idles high before it is handed to the UART.
	if cfg.DE != machine.NoPin {
		cfg.DE.Configure(machine.PinConfig{Mode: machine.PinOutput})
		cfg.DE.Low()
	}
	if cfg.TX != machine.NoPin {
		cfg.TX.High()
		cfg.TX.Configure(machine.PinConfig{Mode: machine.PinUART})
	}
	if cfg.RX != machine.NoPin {
		cfg.RX.Configure(machine.PinConfig{Mode: machine.PinUART})
		pullUp(cfg.RX)
	}

	// 3) Baud and format.
	p.setBaudRate(BaudRate)
	p.Bus.UARTLCR_H.Set(uint32((DataBits-5)<<rp.UART0_UARTLCR_H_WLEN_Pos) | rp.UART0_UARTLCR_H_STP2)

	// 4) Clear pending IRQs, purge the receive register and sticky errors.
	p.Bus.UARTICR.Set(0x7FF)
	for !p.Bus.UARTFR.HasBits(rp.UART0_UARTFR_RXFE) {
		_ = p.Bus.UARTDR.Get()
	}
	p.Bus.UARTRSR.Set(0)

	// 5) Enable, no flow control.
	p.Bus.UARTCR.Set(rp.UART0_UARTCR_UARTEN | rp.UART0_UARTCR_RXE | rp.UART0_UARTCR_TXE)

	// 6) Receive interrupt only; TXIM is driven by SetTxInterrupt.
	p.Bus.UARTIMSC.Set(rp.UART0_UARTIMSC_RXIM)
	return nil
}

// Enable binds handler and unmasks the NVIC line. At 250 kbit/s a character
// arrives every 44µs, so the line runs above default priority.
func (p *PL011) Enable(handler func()) {
	handlers[p.index] = handler
	p.Interrupt.SetPriority(0x40)
	p.Interrupt.Enable()
}

// Sample reads FR once and DR when a character is pending. FE and BE travel
// with the character in DR; both mean the line was low through the stop bits.
func (p *PL011) Sample() (Flags, byte) {
	fr := p.Bus.UARTFR.Get()
	var f Flags
	var data byte
	if fr&rp.UART0_UARTFR_TXFF == 0 {
		f |= FlagTxReady
	}
	if fr&rp.UART0_UARTFR_RXFE == 0 {
		dr := p.Bus.UARTDR.Get()
		f |= FlagRxNotEmpty
		if dr&(rp.UART0_UARTDR_FE|rp.UART0_UARTDR_BE) != 0 {
			f |= FlagFramingError
		}
		if dr&(rp.UART0_UARTDR_OE|rp.UART0_UARTDR_BE|rp.UART0_UARTDR_PE|rp.UART0_UARTDR_FE) != 0 {
			p.Bus.UARTRSR.Set(0)
		}
		data = byte(dr & 0xFF)
	}
	p.Bus.UARTICR.Set(rp.UART0_UARTICR_RXIC | rp.UART0_UARTICR_RTIC |
		rp.UART0_UARTICR_FEIC | rp.UART0_UARTICR_BEIC | rp.UART0_UARTICR_OEIC)
	return f, data
}

func (p *PL011) WriteData(b byte) { p.Bus.UARTDR.Set(uint32(b)) }

// TxReady reports an empty holding register (TXFF tracks it with FIFOs off).
func (p *PL011) TxReady() bool { return !p.Bus.UARTFR.HasBits(rp.UART0_UARTFR_TXFF) }

// TxIdle reports BUSY clear. PL011 raises no interrupt for it, so it is only
// polled.
func (p *PL011) TxIdle() bool {
	fr := p.Bus.UARTFR.Get()
	return fr&rp.UART0_UARTFR_BUSY == 0 && fr&rp.UART0_UARTFR_TXFE != 0
}

func (p *PL011) SetTxInterrupt(on bool) {
	if on {
		p.Bus.UARTIMSC.SetBits(rp.UART0_UARTIMSC_TXIM)
		return
	}
	p.Bus.UARTIMSC.ClearBits(rp.UART0_UARTIMSC_TXIM)
	p.Bus.UARTICR.Set(rp.UART0_UARTICR_TXIC)
}

func (p *PL011) SetTxMode(m PinMode) {
	if p.tx == machine.NoPin {
		return
	}
	switch m {
	case PinModeOutput:
		p.tx.Configure(machine.PinConfig{Mode: machine.PinOutput})
	default:
		p.tx.Configure(machine.PinConfig{Mode: machine.PinUART})
	}
}

func (p *PL011) SetTxLevel(high bool) {
	if p.tx != machine.NoPin {
		p.tx.Set(high)
	}
}

func (p *PL011) SetDE(on bool) {
	if p.de != machine.NoPin {
		p.de.Set(on)
	}
}

// setBaudRate programs the integer and fractional divisors and performs the
// LCR_H write PL011 needs to latch them.
func (p *PL011) setBaudRate(br uint32) {
	div := 8 * machine.CPUFrequency() / br

	ibrd := div >> 7
	var fbrd uint32
	switch {
	case ibrd == 0:
		ibrd = 1
		fbrd = 0
	case ibrd >= 65535:
		ibrd = 65535
		fbrd = 0
	default:
		fbrd = ((div & 0x7f) + 1) / 2
	}

	p.Bus.UARTIBRD.Set(ibrd)
	p.Bus.UARTFBRD.Set(fbrd)
	p.Bus.UARTLCR_H.Set(p.Bus.UARTLCR_H.Get())
}

// reset asserts and releases the peripheral reset.
func (p *PL011) reset() {
	var mask uint32
	switch p.Bus {
	case rp.UART0:
		mask = rp.RESETS_RESET_UART0
	case rp.UART1:
		mask = rp.RESETS_RESET_UART1
	}
	rp.RESETS.RESET.SetBits(mask)
	rp.RESETS.RESET.ClearBits(mask)
	for !rp.RESETS.RESET_DONE.HasBits(mask) {
	}
}

// pullUp enables the pad pull-up and clears the default pull-down, so an
// unterminated RX line idles at mark.
func pullUp(pin machine.Pin) {
	pad := (*volatile.Register32)(unsafe.Add(unsafe.Pointer(&rp.PADS_BANK0.GPIO0), 4*uintptr(pin)))
	pad.ClearBits(rp.PADS_BANK0_GPIO0_PDE)
	pad.SetBits(rp.PADS_BANK0_GPIO0_PUE)
}

// usTimer reads the free-running microsecond timer.
type usTimer struct{}

// Timer is the counter used by New.
var Timer Counter = usTimer{}

func (usTimer) TicksPerMicrosecond() uint32 { return 1 }

// Regs is a raw snapshot of the PL011 registers, for diagnostics.
type Regs struct {
	FR, CR, LCRH, IMSC, MIS, RIS uint32
	IBRD, FBRD                   uint32
}

func (p *PL011) Regs() Regs {
	return Regs{
		FR:   p.Bus.UARTFR.Get(),
		CR:   p.Bus.UARTCR.Get(),
		LCRH: p.Bus.UARTLCR_H.Get(),
		IMSC: p.Bus.UARTIMSC.Get(),
		MIS:  p.Bus.UARTMIS.Get(),
		RIS:  p.Bus.UARTRIS.Get(),
		IBRD: p.Bus.UARTIBRD.Get(),
		FBRD: p.Bus.UARTFBRD.Get(),
	}
}
