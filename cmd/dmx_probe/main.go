//go:build rp2040 || rp2350

// dmx_probe listens on UART1 and prints what arrives once per second: the
// driver counters, the head of the last universe and the PL011 registers.
package main

import (
	"time"

	"machine"

	"github.com/jangala-dev/tinygo-dmx/dmx"
)

var cfg = dmx.Config{Bus: 1, TX: machine.NoPin, RX: machine.GPIO5, DE: machine.NoPin}

func printStats(d *dmx.Driver, label string) {
	s := d.Stats()
	r := dmx.UART1.Regs()
	println("==", label)
	println("RX:   breaks=", s.Breaks, " packets=", s.Packets, " short=", s.Short)
	println("Lost: dropped=", s.Dropped, " overruns=", s.Overruns)
	println("State:", d.RxState().String(), " pos=", d.RxPosition())
	println("Regs: FR=0x", hex(r.FR), " CR=0x", hex(r.CR), " LCRH=0x", hex(r.LCRH),
		" IMSC=0x", hex(r.IMSC), " MIS=0x", hex(r.MIS), " RIS=0x", hex(r.RIS),
		" IBRD=", r.IBRD, " FBRD=", r.FBRD)
}

func main() {
	time.Sleep(3 * time.Second)
	println("dmx probe (UART1 RX on GP5)")

	d, err := dmx.New(cfg)
	if err != nil {
		println("fatal:", err.Error())
		for {
			time.Sleep(time.Hour)
		}
	}
	machine.LED.Configure(machine.PinConfig{Mode: machine.PinOutput})
	d.Enable()

	var head [8]byte
	tick := time.NewTicker(time.Second)
	defer tick.Stop()
	for {
		select {
		case <-d.Readable():
			if d.PacketAvailable() {
				copy(head[:], d.Packet())
				d.FreePacket()
				machine.LED.Set(!machine.LED.Get())
			}
		case <-tick.C:
			printStats(d, "last second")
			println("Head:", head[0], head[1], head[2], head[3], head[4], head[5], head[6], head[7])
			d.ResetStats()
		}
	}
}

func hex(v uint32) string {
	const digits = "0123456789abcdef"
	var buf [8]byte
	i := len(buf)
	for {
		i--
		buf[i] = digits[v&0xF]
		v >>= 4
		if v == 0 || i == 0 {
			break
		}
	}
	return string(buf[i:])
}
