//go:build !baremetal

// dmxctl is an interactive console for a DMX512 line on a host serial
// adapter. Without -port it drives a simulated line, which is useful for
// trying patches.
//
//	dmxctl -port /dev/ttyUSB0 set 1 255 128 0
//	dmxctl -port /dev/ttyUSB0 -mqtt mqtt://broker/site
package main

import (
	"flag"
	"fmt"
	"os"
	"sync"

	"github.com/abiosoft/ishell"
	"github.com/golang/glog"

	"github.com/jangala-dev/tinygo-dmx/dmx"
	"github.com/jangala-dev/tinygo-dmx/mqttdmx"
	"github.com/jangala-dev/tinygo-dmx/serialdmx"
)

// output is what the console transmits on.
type output interface {
	dmx.Transmitter
	SetTxLength(int) error
	TxLength() int
}

// ctl is the console state shared by the commands.
type ctl struct {
	mu  sync.Mutex
	out output
	sim *dmx.Sim
}

const ctlKey = "$ctl"

func ctlFrom(c *ishell.Context) *ctl {
	return c.Get(ctlKey).(*ctl)
}

var (
	portName = flag.String("port", os.Getenv("DMX_PORT"), "Serial adapter path; empty drives a simulated line.")
	slots    = flag.Int("slots", dmx.MaxSlots, "Slots per universe including start code.")
	mqttURL  = flag.String("mqtt", os.Getenv("DMX_MQTT_URL"), "Broker URL to take universes from.")
	mqttID   = flag.String("id", "", "Bridge id in MQTT topics; default derives from the machine id.")
)

func openOutput() (*ctl, func(), error) {
	if *portName == "" {
		d, err := dmx.New(dmx.Config{RX: 0, TX: 1, DE: 2, TxLen: *slots})
		if err != nil {
			return nil, nil, err
		}
		d.Enable()
		glog.Info("no port given, using a simulated line")
		return &ctl{out: d, sim: d.Peripheral().(*dmx.Sim)}, func() {}, nil
	}
	p, err := serialdmx.Open(serialdmx.Config{Port: *portName, TxLen: *slots})
	if err != nil {
		return nil, nil, err
	}
	return &ctl{out: p}, func() { p.Close() }, nil
}

func main() {
	flag.Parse()
	defer glog.Flush()

	c, closeOut, err := openOutput()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer closeOut()

	if *mqttURL != "" {
		b, err := mqttdmx.NewBridge(*mqttURL, *mqttID, c.out)
		if err != nil {
			glog.Exitf("mqtt: %v", err)
		}
		b.Locker = &c.mu
		if err := b.Start(); err != nil {
			glog.Exitf("mqtt connect: %v", err)
		}
		defer b.Close()
		glog.Infof("listening on %s", b.Topic(mqttdmx.TopicUniverse))
	}

	sh := ishell.New()
	sh.Set(ctlKey, c)
	sh.SetPrompt("dmx> ")
	for _, cmd := range commands {
		sh.AddCmd(cmd)
	}

	if flag.NArg() > 0 {
		if err := sh.Process(flag.Args()...); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}
	sh.Run()
	sh.Close()
}
