//go:build rp2040 || rp2350

// dmx_relay receives universes on UART1 and retransmits them on the same
// transceiver, inverting a few channels. Single-key commands on the USB
// console switch the relay mode.
package main

import (
	"time"

	"machine"

	"github.com/jangala-dev/tinygo-dmx/dmx"
	"github.com/jangala-dev/tinygo-dmx/relay"
)

var cfg = dmx.Config{
	Bus:   1,
	TX:    machine.GPIO4,
	RX:    machine.GPIO5,
	DE:    machine.GPIO3,
	RxLen: 7,
	TxLen: 7,
}

// serialConsole adds Read to the machine console so it satisfies
// drivers.UART.
type serialConsole struct {
	machine.Serialer
}

func (s serialConsole) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) && s.Buffered() > 0 {
		b, err := s.ReadByte()
		if err != nil {
			return n, err
		}
		p[n] = b
		n++
	}
	return n, nil
}

func main() {
	time.Sleep(2 * time.Second)
	println("dmx relay starting")

	machine.LED.Configure(machine.PinConfig{Mode: machine.PinOutput})

	port, err := dmx.New(cfg)
	if err != nil {
		println("configure failed:", err.Error())
		for {
			machine.LED.Set(!machine.LED.Get())
			time.Sleep(100 * time.Millisecond)
		}
	}
	port.Enable()

	r := relay.New(port)
	r.Mode = relay.Invert
	r.Invert = []int{1, 3}

	con := &relay.Console{
		IO:    serialConsole{machine.Serial},
		Relay: r,
		Stats: port.Stats,
	}

	blink := time.NewTicker(500 * time.Millisecond)
	defer blink.Stop()

	for {
		select {
		case <-port.Readable():
		case <-blink.C:
			machine.LED.Set(!machine.LED.Get())
			con.Poll()
			continue
		}
		if _, err := r.Step(); err != nil {
			println("relay:", err.Error())
		}
	}
}
