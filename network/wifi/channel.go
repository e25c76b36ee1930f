package wifi

import (
	"github.com/sarchlab/wavesim/network"
	"github.com/sarchlab/wavesim/sim"
)

// SpeedOfLight is the propagation speed in meters per second.
const SpeedOfLight = 299792458.0

// deliverEvent carries a frame to one receiver.
type deliverEvent struct {
	*sim.EventBase
	dst   *Device
	frame network.Frame
}

// Channel is a shared wireless medium. Every frame reaches every other
// attached device, after the frame's transmission time plus the propagation
// delay between the two nodes.
type Channel struct {
	name    string
	engine  sim.Engine
	devices []*Device
}

// NewChannel creates a channel.
func NewChannel(name string, engine sim.Engine) *Channel {
	sim.NameMustBeValid(name)

	return &Channel{
		name:   name,
		engine: engine,
	}
}

// Name returns the name of the channel.
func (c *Channel) Name() string {
	return c.name
}

// Attach connects a device to the channel.
func (c *Channel) Attach(d *Device) {
	c.devices = append(c.devices, d)
}

// Devices returns the attached devices.
func (c *Channel) Devices() []*Device {
	return c.devices
}

// PropagationDelay returns how long a signal travels between two devices.
func (c *Channel) PropagationDelay(a, b *Device) sim.VTimeInSec {
	d := a.Node().Position().DistanceTo(b.Node().Position())
	return sim.VTimeInSec(d / SpeedOfLight)
}

// Transmit schedules the arrival of a frame whose last bit leaves the sender
// at txEnd.
func (c *Channel) Transmit(sender *Device, f network.Frame, txEnd sim.VTimeInSec) {
	for _, d := range c.devices {
		if d == sender {
			continue
		}

		evt := &deliverEvent{
			EventBase: sim.NewEventBase(txEnd+c.PropagationDelay(sender, d), c),
			dst:       d,
			frame:     f,
		}
		c.engine.Schedule(evt)
	}
}

// Handle delivers a frame.
func (c *Channel) Handle(e sim.Event) error {
	evt := e.(*deliverEvent)
	evt.dst.Receive(evt.frame)

	return nil
}
