package dmx

// Config selects the UART instance and the three GPIO lines a driver uses.
// It is copied into the driver by New and never changed afterwards.
//
// The clocks of the UART and GPIO blocks must already be running; the driver
// does not manage clock enablement.
type Config struct {
	// Bus is the UART instance index (UART0, UART1, ...).
	Bus uint8

	RX Pin // receive line, configured as pulled-up input
	TX Pin // transmit line, switched between UART function and GPIO output
	DE Pin // transceiver driver enable, held low while not transmitting; may be NoPin

	// RxLen and TxLen are the receive and transmit capacities in slots,
	// start code included. Zero selects MaxSlots.
	RxLen int
	TxLen int
}

// withDefaults fills zero capacities and validates the result.
func (c Config) withDefaults() (Config, error) {
	if c.RxLen == 0 {
		c.RxLen = MaxSlots
	}
	if c.TxLen == 0 {
		c.TxLen = MaxSlots
	}
	if c.RxLen < 1 || c.RxLen > MaxSlots || c.TxLen < 1 || c.TxLen > MaxSlots {
		return c, ErrInvalidLength
	}
	if c.RX == c.TX && c.RX != NoPin {
		return c, ErrPinConflict
	}
	return c, nil
}
