package dmx

import "errors"

var (
	// ErrInvalidLength is returned for a slot count outside 1..MaxSlots or
	// beyond the configured capacity.
	ErrInvalidLength = errors.New("dmx: invalid slot count")
	// ErrPinConflict is returned when RX and TX name the same pin.
	ErrPinConflict = errors.New("dmx: rx and tx pins conflict")
	// ErrUnknownBus is returned when the UART instance does not exist.
	ErrUnknownBus = errors.New("dmx: unknown uart bus")
	// ErrTxBusy is returned when a transmission is already in flight.
	ErrTxBusy = errors.New("dmx: transmission in progress")
)
