package csma

import (
	"github.com/sarchlab/wavesim/network"
	"github.com/sarchlab/wavesim/sim"
)

type deliverEvent struct {
	*sim.EventBase
	dst   *Device
	frame network.Frame
}

// Channel is a wired bus. All attached devices share its data rate and
// delay.
type Channel struct {
	name    string
	engine  sim.Engine
	rate    sim.DataRate
	delay   sim.VTimeInSec
	devices []*Device
}

// NewChannel creates a bus with the given rate and propagation delay.
func NewChannel(
	name string,
	engine sim.Engine,
	rate sim.DataRate,
	delay sim.VTimeInSec,
) *Channel {
	sim.NameMustBeValid(name)

	if rate <= 0 {
		panic("csma channel rate must be positive")
	}

	return &Channel{
		name:   name,
		engine: engine,
		rate:   rate,
		delay:  delay,
	}
}

// Name returns the name of the channel.
func (c *Channel) Name() string {
	return c.name
}

// DataRate returns the rate of the bus.
func (c *Channel) DataRate() sim.DataRate {
	return c.rate
}

// Delay returns the propagation delay of the bus.
func (c *Channel) Delay() sim.VTimeInSec {
	return c.delay
}

// Attach connects a device to the bus.
func (c *Channel) Attach(d *Device) {
	c.devices = append(c.devices, d)
}

// Devices returns the attached devices.
func (c *Channel) Devices() []*Device {
	return c.devices
}

// Transmit schedules the frame to reach every other device one delay after
// txEnd.
func (c *Channel) Transmit(sender *Device, f network.Frame, txEnd sim.VTimeInSec) {
	for _, d := range c.devices {
		if d == sender {
			continue
		}

		c.engine.Schedule(&deliverEvent{
			EventBase: sim.NewEventBase(txEnd+c.delay, c),
			dst:       d,
			frame:     f,
		})
	}
}

// Handle delivers a frame.
func (c *Channel) Handle(e sim.Event) error {
	evt := e.(*deliverEvent)
	evt.dst.Receive(evt.frame)

	return nil
}
