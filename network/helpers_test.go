package network

import "github.com/sarchlab/wavesim/sim"

// recordingDevice keeps the frames it is asked to send.
type recordingDevice struct {
	*DeviceBase
	sent []Frame
}

func newRecordingDevice(name string, node *Node) *recordingDevice {
	d := &recordingDevice{DeviceBase: NewDeviceBase(name, node)}
	node.AddDevice(d)

	return d
}

func (d *recordingDevice) TypeName() string {
	return "RecordingDevice"
}

func (d *recordingDevice) Send(f Frame) error {
	d.sent = append(d.sent, f)
	d.InvokeTx(d, d.Node().Engine().Now(), f)

	return nil
}

func (d *recordingDevice) Receive(f Frame) {
	d.InvokeRx(d, d.Node().Engine().Now(), f)

	if d.Accepts(f.Dst) {
		d.Node().ReceiveFrame(d, f)
	}
}

var _ NetDevice = (*recordingDevice)(nil)

var _ sim.Hookable = (*recordingDevice)(nil)
