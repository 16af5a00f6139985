// Package mqttdmx feeds a DMX transmitter from MQTT. A universe published as
// raw slot bytes (start code first) on <prefix>dmx/<id>/universe is copied
// into the transmit buffer and sent.
package mqttdmx

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/denisbrodbeck/machineid"
	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/golang/glog"

	"github.com/jangala-dev/tinygo-dmx/dmx"
)

const (
	TopicUniverse = "universe"
	TopicBlackout = "blackout"
	TopicMeta     = "meta"
	TopicStatus   = "status"

	appID = "tinygo-dmx"
)

// Meta is published retained on the meta topic after connecting.
type Meta struct {
	ID    string `json:"id"`
	Slots int    `json:"slots"`
}

// Bridge connects one transmitter to a broker.
type Bridge struct {
	Client paho.Client
	Prefix string
	ID     string
	Out    dmx.Transmitter
	// Locker guards Out when other goroutines also transmit on it. Nil
	// selects a private mutex.
	Locker sync.Locker

	mu       sync.Mutex
	received uint32
}

func (b *Bridge) locker() sync.Locker {
	if b.Locker != nil {
		return b.Locker
	}
	return &b.mu
}

// DefaultID returns an application-scoped hash of the machine id.
func DefaultID() string {
	id, err := machineid.ProtectedID(appID)
	if err != nil {
		glog.Warningf("machine id unavailable: %v", err)
		return "default"
	}
	if len(id) > 12 {
		id = id[:12]
	}
	return id
}

// NewBridge builds a bridge from a broker URL. An empty id selects DefaultID.
// The client is not connected until Start.
func NewBridge(brokerURL, id string, out dmx.Transmitter) (*Bridge, error) {
	opts, prefix, err := ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, fmt.Errorf("mqttdmx: %w", err)
	}
	if id == "" {
		id = DefaultID()
	}
	b := &Bridge{Prefix: prefix, ID: id, Out: out}
	opts.SetWill(b.Topic(TopicStatus), "offline", 0, true)
	opts.SetOnConnectHandler(b.onConnect)
	opts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		glog.Warningf("connection lost: %v", err)
	})
	b.Client = paho.NewClient(opts)
	return b, nil
}

// Topic returns the full topic for name under this bridge.
func (b *Bridge) Topic(name string) string {
	return b.Prefix + "dmx/" + b.ID + "/" + name
}

// Start connects and waits for the first connection. Subscriptions are
// (re)made on every connect.
func (b *Bridge) Start() error {
	token := b.Client.Connect()
	token.Wait()
	return token.Error()
}

func (b *Bridge) Close() error {
	b.Client.Publish(b.Topic(TopicStatus), 0, true, "offline").Wait()
	b.Client.Disconnect(250)
	return nil
}

func (b *Bridge) onConnect(c paho.Client) {
	glog.Info("connected")
	filters := map[string]byte{
		b.Topic(TopicUniverse): 0,
		b.Topic(TopicBlackout): 0,
	}
	if glog.V(2) {
		for key := range filters {
			glog.Infof("SUB %q", key)
		}
	}
	if token := c.SubscribeMultiple(filters, b.dispatch); token.Wait() && token.Error() != nil {
		glog.Errorf("subscribe: %v", token.Error())
	}
	l := b.locker()
	l.Lock()
	slots := len(b.Out.TxBuffer())
	l.Unlock()
	meta, err := json.Marshal(Meta{ID: b.ID, Slots: slots})
	if err != nil {
		glog.Errorf("meta: %v", err)
		return
	}
	c.Publish(b.Topic(TopicMeta), 0, true, meta)
	c.Publish(b.Topic(TopicStatus), 0, true, "online")
}

func (b *Bridge) dispatch(_ paho.Client, msg paho.Message) {
	glog.V(2).Infof("RCV %q", msg.Topic())
	var err error
	switch msg.Topic() {
	case b.Topic(TopicUniverse):
		err = b.HandleUniverse(msg.Payload())
	case b.Topic(TopicBlackout):
		err = b.HandleBlackout()
	default:
		return
	}
	if err != nil {
		glog.Errorf("%s: %v", msg.Topic(), err)
	}
}

// HandleUniverse copies payload into the transmit buffer and sends it.
// Payloads longer than the buffer are truncated; slots past the payload are
// zeroed. An empty payload is rejected.
func (b *Bridge) HandleUniverse(payload []byte) error {
	if len(payload) == 0 {
		return dmx.ErrInvalidLength
	}
	l := b.locker()
	l.Lock()
	defer l.Unlock()
	buf := b.Out.TxBuffer()
	n := copy(buf, payload)
	clear(buf[n:])
	b.received++
	return b.Out.StartTx()
}

// HandleBlackout sends a universe with every channel at zero.
func (b *Bridge) HandleBlackout() error {
	l := b.locker()
	l.Lock()
	defer l.Unlock()
	clear(b.Out.TxBuffer())
	return b.Out.StartTx()
}

// Received returns the number of universes taken from the broker.
func (b *Bridge) Received() uint32 {
	l := b.locker()
	l.Lock()
	defer l.Unlock()
	return b.received
}
