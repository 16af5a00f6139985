package dmx

import (
	"errors"
	"testing"
)

func TestNew_Defaults(t *testing.T) {
	d, err := New(Config{RX: 1, TX: 0, DE: NoPin})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if d.RxLength() != MaxSlots || d.TxLength() != MaxSlots {
		t.Fatalf("lengths = %d/%d; want %d", d.RxLength(), d.TxLength(), MaxSlots)
	}
	if d.PacketAvailable() {
		t.Fatal("fresh driver reports a packet")
	}
	if d.RxState() != RxIdle || d.TxState() != TxIdle {
		t.Fatalf("states = %v/%v; want idle/idle", d.RxState(), d.TxState())
	}
	s := d.Peripheral().(*Sim)
	if s.TxMode() != PinModeUART || s.DE() {
		t.Fatal("TX not in UART mode or DE asserted after configure")
	}
}

func TestNew_RejectsBadConfig(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
		want error
	}{
		{"rx too long", Config{RX: 1, TX: 2, RxLen: MaxSlots + 1}, ErrInvalidLength},
		{"tx negative", Config{RX: 1, TX: 2, TxLen: -3}, ErrInvalidLength},
		{"same pin", Config{RX: 3, TX: 3}, ErrPinConflict},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := New(tc.cfg); !errors.Is(err, tc.want) {
				t.Fatalf("New = %v; want %v", err, tc.want)
			}
		})
	}
}

func TestConfigIsCopied(t *testing.T) {
	cfg := Config{RX: 1, TX: 2, RxLen: 4}
	d, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	cfg.RxLen = 9
	if d.Config().RxLen != 4 {
		t.Fatalf("driver config changed with caller copy: %+v", d.Config())
	}
	if d.Config().TxLen != MaxSlots {
		t.Fatalf("TxLen default not applied: %+v", d.Config())
	}
}

func TestResetStats(t *testing.T) {
	d, s := newTestDriver(t, Config{RxLen: 1})
	s.InjectUniverse(0)
	if d.Stats().Packets != 1 {
		t.Fatal("setup: no packet counted")
	}
	d.ResetStats()
	if st := d.Stats(); st != (Stats{}) {
		t.Fatalf("stats after reset = %+v", st)
	}
}
