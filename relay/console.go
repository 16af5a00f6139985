// relay/console.go

package relay

import (
	"strconv"

	"tinygo.org/x/drivers"

	"github.com/jangala-dev/tinygo-dmx/dmx"
)

// Console takes single-key commands from a serial line:
//
//	p  passthrough    i  invert
//	b  blackout       h  hold
//	s  print counters
//
// Poll never blocks; it only consumes bytes already buffered.
type Console struct {
	IO    drivers.UART
	Relay *Relay
	// Stats is optional; without it 's' prints only the relay counter.
	Stats func() dmx.Stats

	line []byte
}

// Poll handles every buffered command and returns how many bytes it read.
func (c *Console) Poll() int {
	var b [1]byte
	n := 0
	for c.IO.Buffered() > 0 {
		if k, err := c.IO.Read(b[:]); k == 0 || err != nil {
			break
		}
		n++
		c.handle(b[0])
	}
	return n
}

func (c *Console) handle(k byte) {
	switch k {
	case 'p':
		c.setMode(Passthrough)
	case 'i':
		c.setMode(Invert)
	case 'b':
		c.setMode(Blackout)
	case 'h':
		c.setMode(Hold)
	case 's':
		c.printStats()
	}
}

func (c *Console) setMode(m Mode) {
	c.Relay.Mode = m
	c.line = append(c.line[:0], "mode "...)
	c.line = append(c.line, m.String()...)
	c.flush()
}

func (c *Console) printStats() {
	c.line = append(c.line[:0], "fwd="...)
	c.line = strconv.AppendUint(c.line, uint64(c.Relay.Forwarded), 10)
	if c.Stats != nil {
		s := c.Stats()
		c.field(" rx=", s.Packets)
		c.field(" brk=", s.Breaks)
		c.field(" drop=", s.Dropped)
		c.field(" short=", s.Short)
		c.field(" ovr=", s.Overruns)
		c.field(" tx=", s.TxUniverses)
	}
	c.flush()
}

func (c *Console) field(name string, v uint32) {
	c.line = append(c.line, name...)
	c.line = strconv.AppendUint(c.line, uint64(v), 10)
}

func (c *Console) flush() {
	c.line = append(c.line, '\r', '\n')
	c.IO.Write(c.line)
}
