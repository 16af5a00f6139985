package relay

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jangala-dev/tinygo-dmx/dmx"
)

func newPort(t *testing.T, slots int) (*dmx.Driver, *dmx.Sim) {
	t.Helper()
	d, err := dmx.New(dmx.Config{RX: 1, TX: 2, DE: 3, RxLen: slots, TxLen: slots})
	require.NoError(t, err)
	d.Enable()
	return d, d.Peripheral().(*dmx.Sim)
}

func lastFrame(t *testing.T, s *dmx.Sim) []byte {
	t.Helper()
	frames := s.Frames()
	require.NotEmpty(t, frames)
	return frames[len(frames)-1].Slots
}

func TestStepNothingAvailable(t *testing.T) {
	d, s := newPort(t, 4)
	ok, err := New(d).Step()
	require.NoError(t, err)
	require.False(t, ok)
	require.Empty(t, s.Frames())
}

func TestStepModes(t *testing.T) {
	in := []byte{0, 10, 200, 30}
	cases := []struct {
		mode Mode
		want []byte
	}{
		{Passthrough, []byte{0, 10, 200, 30}},
		{Invert, []byte{0, 245, 200, 225}},
		{Blackout, []byte{0, 0, 0, 0}},
	}
	for _, tc := range cases {
		t.Run(tc.mode.String(), func(t *testing.T) {
			d, s := newPort(t, 4)
			r := New(d)
			r.Mode = tc.mode
			r.Invert = []int{1, 3, 9}

			s.InjectUniverse(in...)
			ok, err := r.Step()
			require.NoError(t, err)
			require.True(t, ok)
			require.False(t, d.PacketAvailable(), "packet not freed")
			require.Equal(t, tc.want, lastFrame(t, s))
			require.EqualValues(t, 1, r.Forwarded)
		})
	}
}

func TestStepHoldKeepsLastOutput(t *testing.T) {
	d, s := newPort(t, 3)
	r := New(d)

	s.InjectUniverse(0, 1, 2)
	_, err := r.Step()
	require.NoError(t, err)

	r.Mode = Hold
	s.InjectUniverse(0, 9, 9)
	_, err = r.Step()
	require.NoError(t, err)
	require.Equal(t, []byte{0, 1, 2}, lastFrame(t, s))
}

func TestStepShortOutput(t *testing.T) {
	rx, rxSim := newPort(t, 5)
	tx, txSim := newPort(t, 3)
	r := &Relay{In: rx, Out: tx}

	rxSim.InjectUniverse(0, 1, 2, 3, 4)
	_, err := r.Step()
	require.NoError(t, err)
	require.Equal(t, []byte{0, 1, 2}, lastFrame(t, txSim))
}

type failingTx struct{ buf [4]byte }

func (f *failingTx) TxBuffer() []byte { return f.buf[:] }
func (f *failingTx) StartTx() error   { return dmx.ErrTxBusy }

func TestStepPropagatesTxError(t *testing.T) {
	rx, s := newPort(t, 2)
	r := &Relay{In: rx, Out: &failingTx{}}
	s.InjectUniverse(0, 7)
	ok, err := r.Step()
	require.True(t, ok)
	require.True(t, errors.Is(err, dmx.ErrTxBusy))
	require.Zero(t, r.Forwarded)
	require.False(t, rx.PacketAvailable())
}

type fakeUART struct {
	in  bytes.Buffer
	out bytes.Buffer
}

func (u *fakeUART) Read(p []byte) (int, error)  { return u.in.Read(p) }
func (u *fakeUART) Write(p []byte) (int, error) { return u.out.Write(p) }
func (u *fakeUART) Buffered() int               { return u.in.Len() }

func TestConsole(t *testing.T) {
	d, s := newPort(t, 2)
	r := New(d)
	u := &fakeUART{}
	c := &Console{IO: u, Relay: r, Stats: d.Stats}

	require.Zero(t, c.Poll())

	u.in.WriteString("bx")
	require.Equal(t, 2, c.Poll())
	require.Equal(t, Blackout, r.Mode)
	require.Equal(t, "mode blackout\r\n", u.out.String())

	s.InjectUniverse(0, 1)
	_, err := r.Step()
	require.NoError(t, err)

	u.out.Reset()
	u.in.WriteString("s")
	c.Poll()
	line := u.out.String()
	require.True(t, strings.HasPrefix(line, "fwd=1 rx=1 brk=1"), line)
	require.True(t, strings.HasSuffix(line, "tx=1\r\n"), line)
}
