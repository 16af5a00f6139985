package patch

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddresses(t *testing.T) {
	addrs, err := Plan{First: 1, Channels: 4, Count: 3}.Addresses()
	require.NoError(t, err)
	require.Equal(t, []int{1, 5, 9}, addrs)

	addrs, err = Plan{First: 509, Channels: 4, Count: 1}.Addresses()
	require.NoError(t, err)
	require.Equal(t, []int{509}, addrs)
}

func TestAddressesOutOfRange(t *testing.T) {
	_, err := Plan{First: 510, Channels: 4, Count: 1}.Addresses()
	require.ErrorIs(t, err, ErrOutOfRange)

	_, err = Plan{First: 0, Channels: 1, Count: 1}.Addresses()
	require.ErrorIs(t, err, ErrOutOfRange)

	_, err = Plan{First: 1, Channels: 0, Count: 1}.Addresses()
	require.ErrorIs(t, err, ErrBadPlan)
}

func TestCSVRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, []int{1, 5, 9}))
	require.Equal(t, "1;5;9;", buf.String())

	addrs, err := ReadCSV(&buf)
	require.NoError(t, err)
	require.Equal(t, []int{1, 5, 9}, addrs)

	_, err = ReadCSV(strings.NewReader("1;x;"))
	require.Error(t, err)
	_, err = ReadCSV(strings.NewReader("600;"))
	require.ErrorIs(t, err, ErrOutOfRange)
}

func TestPlace(t *testing.T) {
	u := make([]byte, 8)
	require.Equal(t, 3, Place(u, 2, 10, 20, 30))
	require.Equal(t, []byte{0, 0, 10, 20, 30, 0, 0, 0}, u)

	// Clipped at the end of the buffer.
	require.Equal(t, 2, Place(u, 6, 1, 2, 3))
	require.Equal(t, byte(2), u[7])

	require.Zero(t, Place(u, 0, 1))
	require.Zero(t, Place(u, 8, 1))
}
