// Package patch computes fixture start addresses in a DMX universe and places
// fixture values into a universe buffer.
package patch

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jangala-dev/tinygo-dmx/dmx"
	"github.com/jangala-dev/tinygo-dmx/internal/mathx"
)

var (
	ErrOutOfRange = errors.New("patch: address outside 1..512")
	ErrBadPlan    = errors.New("patch: count and channels must be positive")
)

// Plan describes Count identical fixtures of Channels slots each, laid out
// back to back from the 1-based address First.
type Plan struct {
	First    int
	Channels int
	Count    int
}

// Addresses returns the start address of each fixture. Every fixture must
// fit entirely inside slots 1..512.
func (p Plan) Addresses() ([]int, error) {
	if p.Count < 1 || p.Channels < 1 {
		return nil, ErrBadPlan
	}
	addrs := make([]int, p.Count)
	for i := range addrs {
		a := p.First + i*p.Channels
		if !mathx.InRange(a, 1, dmx.MaxChannels) || a+p.Channels-1 > dmx.MaxChannels {
			return nil, fmt.Errorf("%w: fixture %d at %d", ErrOutOfRange, i+1, a)
		}
		addrs[i] = a
	}
	return addrs, nil
}

// WriteCSV writes addrs as ';'-terminated decimal values on one line, the
// layout lighting desks import.
func WriteCSV(w io.Writer, addrs []int) error {
	bw := bufio.NewWriter(w)
	for _, a := range addrs {
		bw.WriteString(strconv.Itoa(a))
		bw.WriteByte(';')
	}
	return bw.Flush()
}

// ReadCSV parses the output of WriteCSV. Whitespace and empty fields are
// ignored.
func ReadCSV(r io.Reader) ([]int, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var addrs []int
	for _, f := range strings.Split(string(raw), ";") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		a, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("patch: bad address %q: %w", f, err)
		}
		if !mathx.InRange(a, 1, dmx.MaxChannels) {
			return nil, fmt.Errorf("%w: %d", ErrOutOfRange, a)
		}
		addrs = append(addrs, a)
	}
	return addrs, nil
}

// Place copies values into universe starting at the 1-based DMX address
// addr. universe holds the start code at index 0, so address a is
// universe[a]. Values past the end of universe are dropped. It returns the
// number of slots written.
func Place(universe []byte, addr int, values ...byte) int {
	if addr < 1 || addr >= len(universe) {
		return 0
	}
	end := mathx.Clamp(addr+len(values), addr, len(universe))
	return copy(universe[addr:end], values)
}
