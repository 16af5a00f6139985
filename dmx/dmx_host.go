//go:build !rp2040 && !rp2350

package dmx

// Host build: no device or machine packages. Drivers run on a simulated line
// so the state machines can be exercised by unit tests.

// Pin identifies a GPIO line.
type Pin uint8

// NoPin marks an unused line.
const NoPin Pin = 0xff

// New creates a driver on a fresh simulated line. The simulator is reachable
// through Peripheral().(*Sim).
func New(cfg Config) (*Driver, error) {
	s := NewSim()
	return NewWithPeripheral(s, s, cfg)
}
