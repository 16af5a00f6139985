//go:build !baremetal

// Package serialdmx transmits DMX512 universes through a host serial adapter
// (FTDI-style USB-RS485 dongles) using the adapter's break support.
package serialdmx

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang/glog"
	"go.bug.st/serial"

	"github.com/jangala-dev/tinygo-dmx/dmx"
)

// ErrNoPort is returned by Open when Config.Port is empty.
var ErrNoPort = errors.New("serialdmx: serial port path is required")

// Config holds the adapter path and the transmit length.
type Config struct {
	Port  string
	TxLen int // slots including start code; zero selects dmx.MaxSlots
}

// line is the part of serial.Port the transmitter needs.
type line interface {
	Break(time.Duration) error
	Write([]byte) (int, error)
	Drain() error
	Close() error
}

// Port is a transmit-only DMX512 port on a serial adapter. It implements
// dmx.Transmitter.
//
// A Port is not safe for concurrent use. TxBuffer aliases the port's
// storage, so callers sharing a Port must hold their own lock across filling
// the buffer and StartTx.
type Port struct {
	name  string
	ln    line
	sleep func(time.Duration)

	buf      [dmx.MaxSlots]byte
	capacity int
	txLen    int
	sent     uint32
}

var _ dmx.Transmitter = (*Port)(nil)

// Open opens cfg.Port at 250000 baud 8N2.
func Open(cfg Config) (*Port, error) {
	if cfg.Port == "" {
		return nil, ErrNoPort
	}
	if cfg.TxLen == 0 {
		cfg.TxLen = dmx.MaxSlots
	}
	if cfg.TxLen < 1 || cfg.TxLen > dmx.MaxSlots {
		return nil, dmx.ErrInvalidLength
	}

	mode := &serial.Mode{
		BaudRate: dmx.BaudRate,
		DataBits: dmx.DataBits,
		Parity:   serial.NoParity,
		StopBits: serial.TwoStopBits,
	}
	sp, err := serial.Open(cfg.Port, mode)
	if err != nil {
		return nil, fmt.Errorf("serialdmx: open %s: %w", cfg.Port, err)
	}
	glog.V(1).Infof("opened %s for %d slots", cfg.Port, cfg.TxLen)
	return newPort(cfg.Port, sp, cfg.TxLen), nil
}

func newPort(name string, ln line, txLen int) *Port {
	return &Port{name: name, ln: ln, sleep: time.Sleep, capacity: txLen, txLen: txLen}
}

// TxBuffer returns the transmit slots, start code first.
func (p *Port) TxBuffer() []byte { return p.buf[:p.txLen:p.txLen] }

// SetTxLength changes how many slots StartTx sends, up to the length the
// port was opened with.
func (p *Port) SetTxLength(n int) error {
	if n < 1 || n > p.capacity {
		return dmx.ErrInvalidLength
	}
	p.txLen = n
	return nil
}

func (p *Port) TxLength() int { return p.txLen }

// StartTx sends one universe: break, mark after break, then the slots. It
// returns once the adapter has drained its output.
func (p *Port) StartTx() error {
	if err := p.ln.Break(dmx.BreakTime); err != nil {
		return fmt.Errorf("serialdmx: break: %w", err)
	}
	p.sleep(dmx.MarkAfterBreak)
	if _, err := p.ln.Write(p.buf[:p.txLen]); err != nil {
		return fmt.Errorf("serialdmx: write: %w", err)
	}
	if err := p.ln.Drain(); err != nil {
		return fmt.Errorf("serialdmx: drain: %w", err)
	}
	p.sent++
	if glog.V(3) {
		glog.Infof("%s: universe %d, %d slots", p.name, p.sent, p.txLen)
	}
	return nil
}

// Sent returns the number of universes transmitted.
func (p *Port) Sent() uint32 { return p.sent }

func (p *Port) Close() error {
	glog.V(1).Infof("closing %s", p.name)
	return p.ln.Close()
}
