// dmx/dmx.go

// Package dmx provides an interrupt-driven DMX512 driver on top of a UART and
// the GPIO lines around it. Reception is a small state machine run from the
// UART interrupt: a framing error (break) restarts slot counting and a full
// buffer is handed to the foreground through a single ready flag. Transmission
// drives the break and mark-after-break on the TX pin as plain GPIO, then
// pushes the slots through the UART either blocking or from the TX interrupt.
//
// The driver is split into two execution contexts. HandleInterrupt is the
// only function that may run in interrupt context; everything else is
// foreground and must be called from a single goroutine (the main loop).
package dmx

const (
	// BaudRate is the fixed DMX512 line rate.
	BaudRate = 250000
	// DataBits and StopBits give the 8N2 character framing.
	DataBits = 8
	StopBits = 2

	// MaxChannels is the largest number of channel slots in a universe.
	MaxChannels = 512
	// MaxSlots is MaxChannels plus the start code in slot 0.
	MaxSlots = MaxChannels + 1

	// StartCodeDimmer is the null start code for standard dimmer data.
	StartCodeDimmer = 0x00
)

// Transmitter is implemented by anything that can put a universe on a DMX
// line: the on-chip driver and host adapters alike.
type Transmitter interface {
	// TxBuffer returns the slots of the next universe, start code first.
	TxBuffer() []byte
	// StartTx sends the buffer and returns once it is on the wire.
	StartTx() error
}

// Receiver is the foreground polling surface of a receiving driver.
type Receiver interface {
	PacketAvailable() bool
	Packet() []byte
	FreePacket()
}
