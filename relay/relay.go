// relay/relay.go

// Package relay forwards received DMX universes to a transmitter, optionally
// modifying them on the way. It runs entirely in the foreground.
package relay

import "github.com/jangala-dev/tinygo-dmx/dmx"

// Mode selects what Step writes to the output.
type Mode uint8

const (
	// Passthrough copies the received universe unchanged.
	Passthrough Mode = iota
	// Invert copies the universe and inverts the channels listed in
	// Relay.Invert.
	Invert
	// Blackout sends a null start code and all channels at zero.
	Blackout
	// Hold keeps sending the last output and ignores new input.
	Hold
)

func (m Mode) String() string {
	switch m {
	case Passthrough:
		return "passthrough"
	case Invert:
		return "invert"
	case Blackout:
		return "blackout"
	case Hold:
		return "hold"
	}
	return "unknown"
}

// Port is a DMX line that can both receive and transmit.
type Port interface {
	dmx.Receiver
	dmx.Transmitter
}

// Relay forwards universes from In to Out. In and Out may be the same port.
type Relay struct {
	In   dmx.Receiver
	Out  dmx.Transmitter
	Mode Mode
	// Invert lists 1-based channel numbers inverted in Invert mode.
	Invert []int

	Forwarded uint32
}

// New returns a passthrough relay on a single port.
func New(p Port) *Relay {
	return &Relay{In: p, Out: p}
}

// Step forwards one universe if one is available. It reports whether a
// universe was consumed. The received packet is always freed before the
// transmission starts, so the receiver can fill its buffer again while the
// output is on the wire.
func (r *Relay) Step() (bool, error) {
	if !r.In.PacketAvailable() {
		return false, nil
	}
	r.apply(r.Out.TxBuffer(), r.In.Packet())
	r.In.FreePacket()
	if err := r.Out.StartTx(); err != nil {
		return true, err
	}
	r.Forwarded++
	return true, nil
}

func (r *Relay) apply(out, in []byte) {
	switch r.Mode {
	case Hold:
		return
	case Blackout:
		clear(out)
		out[0] = dmx.StartCodeDimmer
		return
	}
	n := copy(out, in)
	clear(out[n:])
	if r.Mode != Invert {
		return
	}
	for _, ch := range r.Invert {
		if ch >= 1 && ch < len(out) {
			out[ch] = 0xFF - out[ch]
		}
	}
}
