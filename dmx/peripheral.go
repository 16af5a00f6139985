package dmx

// Flags is a snapshot of UART status taken once at interrupt entry.
type Flags uint8

const (
	// FlagFramingError is set when the received character had an invalid
	// stop bit. On DMX lines this is how a break shows up.
	FlagFramingError Flags = 1 << iota
	// FlagRxNotEmpty is set when a received character was read.
	FlagRxNotEmpty
	// FlagTxReady is set when the transmit holding register can take a byte.
	FlagTxReady
)

// Has reports whether all bits in m are set.
func (f Flags) Has(m Flags) bool { return f&m == m }

// PinMode is the function of the TX pin.
type PinMode uint8

const (
	// PinModeUART routes the pin to the UART transmitter.
	PinModeUART PinMode = iota
	// PinModeOutput makes the pin a plain push-pull GPIO output.
	PinModeOutput
)

// Peripheral is the register-level view of one UART and its pins.
//
// Sample, WriteData and SetTxInterrupt may be called from interrupt context.
// The remaining methods are foreground only.
type Peripheral interface {
	// Configure sets up the pins and the UART for 250000 baud 8N2 with the
	// receive interrupt unmasked in the peripheral. DE is left low.
	Configure(cfg Config) error
	// Enable unmasks the UART interrupt line and binds it to handler.
	Enable(handler func())

	// Sample reads the status register once and, when a character is
	// pending, the data register (which clears the pending condition).
	Sample() (Flags, byte)
	// WriteData loads one byte into the transmit holding register.
	WriteData(b byte)
	// TxReady reports whether the holding register is empty.
	TxReady() bool
	// TxIdle reports whether the last stop bit has left the shifter.
	TxIdle() bool
	// SetTxInterrupt masks or unmasks the transmit-ready interrupt.
	SetTxInterrupt(on bool)

	// SetTxMode switches the TX pin between UART function and GPIO output.
	SetTxMode(m PinMode)
	// SetTxLevel drives the TX pin when it is in PinModeOutput.
	SetTxLevel(high bool)
	// SetDE drives the transceiver driver-enable line.
	SetDE(on bool)
}
