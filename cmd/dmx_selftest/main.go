//go:build rp2040 || rp2350

// dmx_selftest drives UART0 as a DMX transmitter into UART1 as a receiver.
// Wire GP0 (UART0 TX) to GP5 (UART1 RX).
package main

import (
	"context"
	"time"

	"machine"

	"github.com/jangala-dev/tinygo-dmx/dmx"
)

const slots = 25

var (
	txCfg = dmx.Config{Bus: 0, TX: machine.GPIO0, RX: machine.NoPin, DE: machine.GPIO2, TxLen: slots}
	rxCfg = dmx.Config{Bus: 1, TX: machine.NoPin, RX: machine.GPIO5, DE: machine.NoPin, RxLen: slots}
)

func ledBlink(times int, on time.Duration) {
	for i := 0; i < times; i++ {
		machine.LED.High()
		time.Sleep(on)
		machine.LED.Low()
		time.Sleep(on)
	}
}

// waitPacket blocks until rx holds a packet or ctx ends.
func waitPacket(ctx context.Context, rx *dmx.Driver) bool {
	for !rx.PacketAvailable() {
		select {
		case <-rx.Readable():
		case <-ctx.Done():
			return false
		}
	}
	return true
}

func fill(buf []byte, seed byte) {
	buf[0] = dmx.StartCodeDimmer
	for i := 1; i < len(buf); i++ {
		buf[i] = seed + byte(i*13)
	}
}

func equal(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func halt(msg string) {
	println(msg)
	for {
		ledBlink(1, 500*time.Millisecond)
	}
}

func main() {
	// Give the monitor time to attach.
	time.Sleep(3 * time.Second)

	println("dmx self-test starting")
	machine.LED.Configure(machine.PinConfig{Mode: machine.PinOutput})

	tx, err := dmx.New(txCfg)
	if err != nil {
		halt("TX configure failed: " + err.Error())
	}
	rx, err := dmx.New(rxCfg)
	if err != nil {
		halt("RX configure failed: " + err.Error())
	}
	tx.Enable()
	rx.Enable()

	pass, fail := 0, 0
	defer func() {
		println("")
		println("Summary")
		println("  passed =", pass)
		println("  failed =", fail)
		if fail == 0 {
			ledBlink(3, 120*time.Millisecond)
		} else {
			for {
				ledBlink(1, 600*time.Millisecond)
				time.Sleep(800 * time.Millisecond)
			}
		}
	}()

	run := func(name string, f func() string) {
		println("")
		println("[Test]", name)
		rx.FreePacket()
		rx.ResetStats()
		if msg := f(); msg == "" {
			println("  PASS")
			pass++
		} else {
			println("  FAIL:", msg)
			fail++
		}
	}

	run("blocking: one universe round trip", func() string {
		fill(tx.TxBuffer(), 1)
		if err := tx.StartTx(); err != nil {
			return "StartTx: " + err.Error()
		}
		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()
		if !waitPacket(ctx, rx) {
			return "no packet"
		}
		if !equal(rx.Packet(), tx.TxBuffer()) {
			return "mismatch"
		}
		return ""
	})

	run("async: StartTxAsync then WaitTx", func() string {
		fill(tx.TxBuffer(), 7)
		if err := tx.StartTxAsync(); err != nil {
			return "StartTxAsync: " + err.Error()
		}
		if err := tx.StartTx(); err != dmx.ErrTxBusy {
			return "second start not rejected"
		}
		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()
		if err := tx.WaitTx(ctx); err != nil {
			return "WaitTx: " + err.Error()
		}
		if !waitPacket(ctx, rx) {
			return "no packet"
		}
		if !equal(rx.Packet(), tx.TxBuffer()) {
			return "mismatch"
		}
		return ""
	})

	run("handoff: unconsumed packet is not overwritten", func() string {
		fill(tx.TxBuffer(), 20)
		_ = tx.StartTx()
		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()
		if !waitPacket(ctx, rx) {
			return "no packet"
		}
		want := append([]byte(nil), tx.TxBuffer()...)
		fill(tx.TxBuffer(), 90)
		_ = tx.StartTx()
		time.Sleep(5 * time.Millisecond)
		if !equal(rx.Packet(), want) {
			return "buffer overwritten"
		}
		if rx.Stats().Dropped != 1 {
			return "dropped = " + itoa(int(rx.Stats().Dropped))
		}
		return ""
	})

	run("short: universe shorter than receive length", func() string {
		defer tx.SetTxLength(slots)
		if err := tx.SetTxLength(slots - 5); err != nil {
			return "SetTxLength: " + err.Error()
		}
		_ = tx.StartTx()
		_ = tx.StartTx()
		time.Sleep(5 * time.Millisecond)
		if rx.PacketAvailable() {
			return "short universe delivered"
		}
		if rx.Stats().Short == 0 {
			return "short not counted"
		}
		return ""
	})

	run("refresh: 200 universes", func() string {
		const n = 200
		got := 0
		start := time.Now()
		for i := 0; i < n; i++ {
			fill(tx.TxBuffer(), byte(i))
			if err := tx.StartTx(); err != nil {
				return "StartTx: " + err.Error()
			}
			if rx.PacketAvailable() {
				got++
				rx.FreePacket()
			}
		}
		ms := int(time.Since(start) / time.Millisecond)
		if ms <= 0 {
			ms = 1
		}
		println("  received =", got, "of", n)
		println("  rate =", itoa(n*1000/ms), "universes/s")
		if got < n-1 {
			return "lost universes"
		}
		return ""
	})

	println("")
	println("All tests completed")
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
