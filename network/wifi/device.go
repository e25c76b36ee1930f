package wifi

import (
	"github.com/sarchlab/wavesim/network"
	"github.com/sarchlab/wavesim/sim"
	"go.uber.org/zap"
)

// MacOverhead is the number of bytes a frame adds around a datagram.
const MacOverhead = 36

// Device is an OCB wireless device. It needs no association before it
// sends.
type Device struct {
	*network.DeviceBase

	channel    *Channel
	phyMode    string
	rate       sim.DataRate
	txPowerDbm float64
}

// TypeName returns WifiNetDevice.
func (d *Device) TypeName() string {
	return "WifiNetDevice"
}

// PhyMode returns the mode name of the device.
func (d *Device) PhyMode() string {
	return d.phyMode
}

// DataRate returns the rate frames are sent at.
func (d *Device) DataRate() sim.DataRate {
	return d.rate
}

// TxPowerDbm returns the transmit power. It does not affect delivery.
func (d *Device) TxPowerDbm() float64 {
	return d.txPowerDbm
}

// Send puts a frame on the channel once the previous frame has been sent.
func (d *Device) Send(f network.Frame) error {
	now := d.channel.engine.Now()
	txTime := d.rate.TxTime(f.Datagram.Size() + MacOverhead)
	start := d.ReserveTx(now, txTime)

	d.InvokeTx(d, now, f)
	d.channel.Transmit(d, f, start+txTime)

	return nil
}

// Receive takes a frame from the channel.
func (d *Device) Receive(f network.Frame) {
	d.InvokeRx(d, d.channel.engine.Now(), f)

	if !d.Accepts(f.Dst) {
		return
	}

	d.Node().ReceiveFrame(d, f)
}

// Builder can build wireless devices.
type Builder struct {
	channel    *Channel
	phyMode    string
	txPowerDbm float64
	logger     *zap.Logger
}

// MakeBuilder creates a builder with default parameters.
func MakeBuilder() Builder {
	return Builder{
		phyMode:    DefaultPhyMode,
		txPowerDbm: 29,
		logger:     zap.NewNop(),
	}
}

// WithChannel sets the channel the devices attach to.
func (b Builder) WithChannel(c *Channel) Builder {
	b.channel = c
	return b
}

// WithPhyMode sets the mode name, which decides the data rate.
func (b Builder) WithPhyMode(mode string) Builder {
	b.phyMode = mode
	return b
}

// WithTxPowerDbm sets the transmit power.
func (b Builder) WithTxPowerDbm(p float64) Builder {
	b.txPowerDbm = p
	return b
}

// WithLogger sets the logger.
func (b Builder) WithLogger(l *zap.Logger) Builder {
	b.logger = l
	return b
}

// Build creates a device on the node and attaches it to the channel.
func (b Builder) Build(name string, node *network.Node) *Device {
	if b.channel == nil {
		panic("wifi device needs a channel")
	}

	rate, ok := ParsePhyMode(b.phyMode)
	if !ok {
		b.logger.Warn("unknown phy mode, using default",
			zap.String("phyMode", b.phyMode),
			zap.String("default", DefaultPhyMode))

		rate, _ = ParsePhyMode(DefaultPhyMode)
	}

	d := &Device{
		DeviceBase: network.NewDeviceBase(name, node),
		channel:    b.channel,
		phyMode:    b.phyMode,
		rate:       rate,
		txPowerDbm: b.txPowerDbm,
	}

	node.AddDevice(d)
	b.channel.Attach(d)

	return d
}
