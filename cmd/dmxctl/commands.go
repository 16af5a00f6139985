//go:build !baremetal

package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/jangala-dev/tinygo-dmx/dmx"
	"github.com/jangala-dev/tinygo-dmx/internal/mathx"
	"github.com/jangala-dev/tinygo-dmx/patch"
)

var errUsage = errors.New("wrong number of arguments")

var commands = []*ishell.Cmd{
	{
		Name: "set",
		Help: "set <addr> <value>... : write slot values from a 1-based address and send",
		Func: withArgs(2, func(c *ctl, args []int) error {
			vals := make([]byte, len(args)-1)
			for i, v := range args[1:] {
				vals[i] = mathx.SlotByte(v)
			}
			patch.Place(c.out.TxBuffer(), args[0], vals...)
			return c.out.StartTx()
		}),
	},
	{
		Name: "level",
		Help: "level <addr> <percent> : set one channel as a percentage and send",
		Func: withArgs(2, func(c *ctl, args []int) error {
			patch.Place(c.out.TxBuffer(), args[0], mathx.Level(args[1]))
			return c.out.StartTx()
		}),
	},
	{
		Name: "fill",
		Help: "fill <value> : set every channel and send",
		Func: withArgs(1, func(c *ctl, args []int) error {
			buf := c.out.TxBuffer()
			for i := 1; i < len(buf); i++ {
				buf[i] = mathx.SlotByte(args[0])
			}
			return c.out.StartTx()
		}),
	},
	{
		Name: "blackout",
		Help: "all channels to zero",
		Func: withArgs(0, func(c *ctl, _ []int) error {
			clear(c.out.TxBuffer())
			return c.out.StartTx()
		}),
	},
	{
		Name: "length",
		Help: "length <slots> : slots per universe including start code",
		Func: withArgs(1, func(c *ctl, args []int) error {
			return c.out.SetTxLength(args[0])
		}),
	},
	{
		Name: "send",
		Help: "send [count] : retransmit the current universe at the full refresh rate",
		Func: withArgs(0, func(c *ctl, args []int) error {
			n := 1
			if len(args) > 0 {
				n = args[0]
			}
			period := dmx.UniverseDuration(c.out.TxLength())
			for i := 0; i < n; i++ {
				if err := c.out.StartTx(); err != nil {
					return err
				}
				if c.sim != nil {
					continue
				}
				time.Sleep(period)
			}
			return nil
		}),
	},
	{
		Name: "show",
		Help: "show [count] : print the first slots of the universe",
		Func: withArgs(0, func(c *ctl, args []int) error {
			buf := c.out.TxBuffer()
			n := min(len(buf), 17)
			if len(args) > 0 {
				n = mathx.Clamp(args[0], 1, len(buf))
			}
			var sb strings.Builder
			fmt.Fprintf(&sb, "start=%#02x", buf[0])
			for i := 1; i < n; i++ {
				fmt.Fprintf(&sb, " %d:%d", i, buf[i])
			}
			fmt.Println(sb.String())
			if c.sim != nil {
				fmt.Printf("simulated frames sent: %d\n", len(c.sim.Frames()))
				c.sim.ResetWire()
			}
			return nil
		}),
	},
	{
		Name: "patch",
		Help: "patch <first> <channels> <count> [file.csv] : print fixture addresses, optionally save them",
		Func: func(ic *ishell.Context) {
			if len(ic.Args) < 3 {
				ic.Err(errUsage)
				return
			}
			nums, err := atoiAll(ic.Args[:3])
			if err != nil {
				ic.Err(err)
				return
			}
			addrs, err := patch.Plan{First: nums[0], Channels: nums[1], Count: nums[2]}.Addresses()
			if err != nil {
				ic.Err(err)
				return
			}
			ic.Println("Addresses:", addrs)
			if len(ic.Args) < 4 {
				return
			}
			f, err := os.Create(ic.Args[3])
			if err != nil {
				ic.Err(err)
				return
			}
			defer f.Close()
			if err := patch.WriteCSV(f, addrs); err != nil {
				ic.Err(err)
				return
			}
			ic.Println("Writing to file:", ic.Args[3])
		},
	},
}

// withArgs parses integer arguments, requires at least min of them and runs
// fn with the console state locked.
func withArgs(min int, fn func(*ctl, []int) error) func(*ishell.Context) {
	return func(ic *ishell.Context) {
		if len(ic.Args) < min {
			ic.Err(errUsage)
			return
		}
		args, err := atoiAll(ic.Args)
		if err != nil {
			ic.Err(err)
			return
		}
		c := ctlFrom(ic)
		c.mu.Lock()
		defer c.mu.Unlock()
		if err := fn(c, args); err != nil {
			ic.Err(err)
		}
	}
}

func atoiAll(in []string) ([]int, error) {
	out := make([]int, len(in))
	for i, s := range in {
		v, err := strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("%q is not a number", s)
		}
		out[i] = v
	}
	return out, nil
}
