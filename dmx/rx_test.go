package dmx

import (
	"bytes"
	"math/rand"
	"testing"
)

// newTestDriver returns an enabled driver on a fresh simulated line.
func newTestDriver(t *testing.T, cfg Config) (*Driver, *Sim) {
	t.Helper()
	if cfg.RX == 0 && cfg.TX == 0 {
		cfg.RX, cfg.TX, cfg.DE = 5, 4, 6
	}
	d, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	d.Enable()
	return d, d.Peripheral().(*Sim)
}

func TestScenario_SevenSlotUniverse(t *testing.T) {
	d, s := newTestDriver(t, Config{RxLen: 7})
	want := []byte{0x00, 0x10, 0x20, 0x30, 0x40, 0x50, 0x60}

	s.InjectBreak()
	for i, b := range want {
		if d.PacketAvailable() {
			t.Fatalf("ready after %d bytes; want only after %d", i, len(want))
		}
		s.InjectByte(b)
	}

	if !d.PacketAvailable() {
		t.Fatal("packet not available after 7th byte")
	}
	if got := d.Packet(); !bytes.Equal(got, want) {
		t.Fatalf("packet = % x; want % x", got, want)
	}
	if d.RxLength() != 7 {
		t.Fatalf("RxLength = %d; want 7", d.RxLength())
	}
	if st := d.Stats(); st.Packets != 1 || st.Breaks != 1 {
		t.Fatalf("stats = %+v; want 1 packet, 1 break", st)
	}
}

func TestScenario_UnconsumedPacketIsNotOverwritten(t *testing.T) {
	d, s := newTestDriver(t, Config{RxLen: 7})
	want := []byte{'A', 'B', 'C', 'D', 'E', 'F', 'G'}
	s.InjectUniverse(want...)
	if !d.PacketAvailable() {
		t.Fatal("setup: packet not available")
	}

	s.InjectBreak()
	if d.RxPosition() != 0 {
		t.Fatalf("position after break = %d; want 0", d.RxPosition())
	}
	s.InjectByte(0x99)
	s.InjectByte(0x98)

	if !d.PacketAvailable() {
		t.Fatal("ready cleared without FreePacket")
	}
	if got := d.Packet(); !bytes.Equal(got, want) {
		t.Fatalf("buffer corrupted: % x; want % x", got, want)
	}
	if st := d.Stats(); st.Dropped != 1 {
		t.Fatalf("Dropped = %d; want 1", st.Dropped)
	}
}

func TestBreakAlwaysResetsPosition(t *testing.T) {
	d, s := newTestDriver(t, Config{RxLen: 9})
	rng := rand.New(rand.NewSource(1))

	for i := 0; i < 5000; i++ {
		switch r := rng.Intn(10); {
		case r == 0:
			s.InjectBreak()
			if pos := d.RxPosition(); pos != 0 {
				t.Fatalf("step %d: position after break = %d; want 0", i, pos)
			}
		case r == 1:
			if d.PacketAvailable() {
				d.FreePacket()
			}
		default:
			s.InjectByte(byte(rng.Intn(256)))
		}
		if pos := d.RxPosition(); pos < 0 || pos > d.RxLength() {
			t.Fatalf("step %d: position %d out of range", i, pos)
		}
	}
}

func TestReadyExactlyOncePerUniverse(t *testing.T) {
	d, s := newTestDriver(t, Config{RxLen: 4})

	s.InjectBreak()
	for i := 0; i < 10; i++ {
		s.InjectByte(byte(i))
	}
	if !d.PacketAvailable() {
		t.Fatal("packet not available")
	}
	if got := d.Packet(); !bytes.Equal(got, []byte{0, 1, 2, 3}) {
		t.Fatalf("packet = % x", got)
	}
	st := d.Stats()
	if st.Packets != 1 {
		t.Fatalf("Packets = %d; want 1", st.Packets)
	}
	if st.Overruns != 6 {
		t.Fatalf("Overruns = %d; want 6", st.Overruns)
	}

	// Freed but no break yet: trailing bytes are not a new packet.
	d.FreePacket()
	s.InjectByte(0xAA)
	if d.PacketAvailable() {
		t.Fatal("packet became available without a break")
	}
	if d.RxState() != RxWaitBreak {
		t.Fatalf("state = %v; want wait-break", d.RxState())
	}
}

func TestFreePacketThenNotAvailable(t *testing.T) {
	d, s := newTestDriver(t, Config{RxLen: 2})
	s.InjectUniverse(1, 2)
	if !d.PacketAvailable() {
		t.Fatal("setup: packet not available")
	}
	d.FreePacket()
	if d.PacketAvailable() {
		t.Fatal("PacketAvailable true right after FreePacket")
	}
	if d.Packet() != nil {
		t.Fatal("Packet non-nil when not ready")
	}
}

func TestFreeMidUniverseKeepsSlotAlignment(t *testing.T) {
	d, s := newTestDriver(t, Config{RxLen: 4})
	s.InjectUniverse(1, 2, 3, 4)

	// Next universe starts while the first is still held.
	s.InjectBreak()
	s.InjectByte(0x10)
	d.FreePacket()
	s.InjectByte(0x11)
	s.InjectByte(0x12)
	s.InjectByte(0x13)
	if d.PacketAvailable() {
		t.Fatal("tail of a dropped universe produced a packet")
	}

	s.InjectUniverse(0x20, 0x21, 0x22, 0x23)
	if !d.PacketAvailable() {
		t.Fatal("packet not available after clean universe")
	}
	if got := d.Packet(); !bytes.Equal(got, []byte{0x20, 0x21, 0x22, 0x23}) {
		t.Fatalf("packet = % x", got)
	}
}

func TestShortUniverseIsDiscarded(t *testing.T) {
	d, s := newTestDriver(t, Config{RxLen: 5})
	s.InjectUniverse(9, 9)
	if d.RxState() != RxFilling {
		t.Fatalf("state = %v; want filling", d.RxState())
	}
	s.InjectUniverse(1, 2, 3, 4, 5)
	if got := d.Packet(); !bytes.Equal(got, []byte{1, 2, 3, 4, 5}) {
		t.Fatalf("packet = % x", got)
	}
	if st := d.Stats(); st.Short != 1 || st.Breaks != 2 {
		t.Fatalf("stats = %+v; want Short=1 Breaks=2", st)
	}
}

func TestRxStateTransitions(t *testing.T) {
	d, s := newTestDriver(t, Config{RxLen: 2})
	steps := []struct {
		do   func()
		want RxState
	}{
		{s.InjectBreak, RxIdle},
		{func() { s.InjectByte(1) }, RxFilling},
		{func() { s.InjectByte(2) }, RxFull},
		{s.InjectBreak, RxFull},
		{d.FreePacket, RxIdle},
		{func() { s.InjectByte(3) }, RxFilling},
	}
	for i, st := range steps {
		st.do()
		if got := d.RxState(); got != st.want {
			t.Fatalf("step %d: state = %v; want %v", i, got, st.want)
		}
	}
}

func TestReadableNotifiesOnCompletion(t *testing.T) {
	d, s := newTestDriver(t, Config{RxLen: 3})
	select {
	case <-d.Readable():
		t.Fatal("notification before any packet")
	default:
	}
	s.InjectUniverse(1, 2, 3)
	select {
	case <-d.Readable():
	default:
		t.Fatal("no notification after packet")
	}
}

func TestEventsBeforeEnableAreHeld(t *testing.T) {
	d, err := New(Config{RX: 1, TX: 0, RxLen: 2})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	s := d.Peripheral().(*Sim)
	s.InjectUniverse(7, 8)
	if s.Pending() != 3 || d.PacketAvailable() {
		t.Fatalf("events handled before Enable (pending=%d)", s.Pending())
	}
	d.Enable()
	if s.Pending() != 0 || !d.PacketAvailable() {
		t.Fatalf("events not handled after Enable (pending=%d)", s.Pending())
	}
}
