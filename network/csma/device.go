package csma

import (
	"github.com/sarchlab/wavesim/network"
)

// EthernetOverhead is the header and trailer size added to each datagram.
const EthernetOverhead = 18

// Device is a wired device on a Channel.
type Device struct {
	*network.DeviceBase

	channel *Channel
}

// NewDevice creates a device on the node and attaches it to the channel.
func NewDevice(name string, node *network.Node, channel *Channel) *Device {
	d := &Device{
		DeviceBase: network.NewDeviceBase(name, node),
		channel:    channel,
	}

	node.AddDevice(d)
	channel.Attach(d)

	return d
}

// TypeName returns CsmaNetDevice.
func (d *Device) TypeName() string {
	return "CsmaNetDevice"
}

// Send puts a frame on the bus once the previous frame has been sent.
func (d *Device) Send(f network.Frame) error {
	now := d.channel.engine.Now()
	txTime := d.channel.rate.TxTime(f.Datagram.Size() + EthernetOverhead)
	start := d.ReserveTx(now, txTime)

	d.InvokeTx(d, now, f)
	d.channel.Transmit(d, f, start+txTime)

	return nil
}

// Receive takes a frame from the bus.
func (d *Device) Receive(f network.Frame) {
	d.InvokeRx(d, d.channel.engine.Now(), f)

	if d.Accepts(f.Dst) {
		d.Node().ReceiveFrame(d, f)
	}
}
