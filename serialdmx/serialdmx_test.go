package serialdmx

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jangala-dev/tinygo-dmx/dmx"
)

type fakeLine struct {
	ops      []string
	breakLen time.Duration
	written  []byte
	writeErr error
	closed   bool
}

func (l *fakeLine) Break(d time.Duration) error {
	l.ops = append(l.ops, "break")
	l.breakLen = d
	return nil
}

func (l *fakeLine) Write(p []byte) (int, error) {
	l.ops = append(l.ops, "write")
	if l.writeErr != nil {
		return 0, l.writeErr
	}
	l.written = append([]byte(nil), p...)
	return len(p), nil
}

func (l *fakeLine) Drain() error {
	l.ops = append(l.ops, "drain")
	return nil
}

func (l *fakeLine) Close() error {
	l.closed = true
	return nil
}

func newTestPort(txLen int) (*Port, *fakeLine) {
	ln := &fakeLine{}
	p := newPort("test", ln, txLen)
	p.sleep = func(d time.Duration) { ln.ops = append(ln.ops, "mab") }
	return p, ln
}

func TestStartTxSequence(t *testing.T) {
	p, ln := newTestPort(5)
	copy(p.TxBuffer(), []byte{0, 255, 128, 1, 0})

	require.NoError(t, p.StartTx())
	require.Equal(t, []string{"break", "mab", "write", "drain"}, ln.ops)
	require.GreaterOrEqual(t, ln.breakLen, dmx.MinBreakTime)
	require.Equal(t, []byte{0, 255, 128, 1, 0}, ln.written)
	require.EqualValues(t, 1, p.Sent())
}

func TestSetTxLength(t *testing.T) {
	p, ln := newTestPort(dmx.MaxSlots)
	require.ErrorIs(t, p.SetTxLength(0), dmx.ErrInvalidLength)
	require.ErrorIs(t, p.SetTxLength(dmx.MaxSlots+1), dmx.ErrInvalidLength)
	require.NoError(t, p.SetTxLength(3))
	require.Len(t, p.TxBuffer(), 3)

	require.NoError(t, p.StartTx())
	require.Len(t, ln.written, 3)
}

func TestSetTxLengthBoundedByOpenLength(t *testing.T) {
	p, _ := newTestPort(8)
	require.ErrorIs(t, p.SetTxLength(9), dmx.ErrInvalidLength)
	require.NoError(t, p.SetTxLength(4))
	require.NoError(t, p.SetTxLength(8))
	require.Len(t, p.TxBuffer(), 8)
}

func TestStartTxWriteError(t *testing.T) {
	p, ln := newTestPort(2)
	ln.writeErr = errors.New("unplugged")
	err := p.StartTx()
	require.ErrorIs(t, err, ln.writeErr)
	require.Zero(t, p.Sent())
}

func TestOpenValidation(t *testing.T) {
	_, err := Open(Config{})
	require.ErrorIs(t, err, ErrNoPort)
	_, err = Open(Config{Port: "/dev/null", TxLen: 600})
	require.ErrorIs(t, err, dmx.ErrInvalidLength)
}

func TestClose(t *testing.T) {
	p, ln := newTestPort(1)
	require.NoError(t, p.Close())
	require.True(t, ln.closed)
}
