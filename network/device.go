package network

import (
	"fmt"

	"github.com/sarchlab/wavesim/sim"
)

// HookPosDeviceTx marks a frame starting transmission on a device.
var HookPosDeviceTx = &sim.HookPos{Name: "Device Tx"}

// HookPosDeviceRx marks a frame arriving at a device.
var HookPosDeviceRx = &sim.HookPos{Name: "Device Rx"}

// Trace source names of devices.
const (
	TraceMacTx = "MacTx"
	TraceMacRx = "MacRx"
)

// A NetDevice attaches a node to a channel.
type NetDevice interface {
	sim.Named
	sim.Hookable

	Node() *Node
	Address() Mac48Address
	TypeName() string

	// Send queues a frame for transmission.
	Send(f Frame) error

	// Receive is called by the channel when a frame arrives.
	Receive(f Frame)

	// ConnectTrace attaches a hook to the named trace source.
	ConnectTrace(source string, hook sim.Hook) error
}

// DeviceBase provides the parts every device shares: naming, addressing,
// hooks, and serializing transmissions one after another.
type DeviceBase struct {
	sim.HookableBase

	name      string
	node      *Node
	mac       Mac48Address
	busyUntil sim.VTimeInSec

	txHooks, rxHooks sim.HookableBase
}

// NewDeviceBase creates a DeviceBase owned by the given node.
func NewDeviceBase(name string, node *Node) *DeviceBase {
	sim.NameMustBeValid(name)

	return &DeviceBase{
		name: name,
		node: node,
		mac:  AllocateMac48Address(),
	}
}

// Name returns the name of the device.
func (d *DeviceBase) Name() string {
	return d.name
}

// Node returns the node that owns the device.
func (d *DeviceBase) Node() *Node {
	return d.node
}

// Address returns the link-layer address of the device.
func (d *DeviceBase) Address() Mac48Address {
	return d.mac
}

// ReserveTx returns when a transmission that asks to start now can start and
// marks the device busy for txTime after that.
func (d *DeviceBase) ReserveTx(now, txTime sim.VTimeInSec) sim.VTimeInSec {
	start := now
	if d.busyUntil > start {
		start = d.busyUntil
	}

	d.busyUntil = start + txTime

	return start
}

// ConnectTrace attaches a hook to MacTx or MacRx.
func (d *DeviceBase) ConnectTrace(source string, hook sim.Hook) error {
	switch source {
	case TraceMacTx:
		d.txHooks.AcceptHook(hook)
	case TraceMacRx:
		d.rxHooks.AcceptHook(hook)
	default:
		return fmt.Errorf("%w: %s on %s", ErrUnknownTraceSource, source, d.name)
	}

	return nil
}

// InvokeTx reports a transmission to the generic and MacTx hooks.
func (d *DeviceBase) InvokeTx(domain sim.Hookable, now sim.VTimeInSec, f Frame) {
	ctx := sim.HookCtx{
		Domain: domain,
		Now:    now,
		Pos:    HookPosDeviceTx,
		Item:   f,
	}
	d.InvokeHook(ctx)
	d.txHooks.InvokeHook(ctx)
}

// InvokeRx reports an arrival to the generic and MacRx hooks.
func (d *DeviceBase) InvokeRx(domain sim.Hookable, now sim.VTimeInSec, f Frame) {
	ctx := sim.HookCtx{
		Domain: domain,
		Now:    now,
		Pos:    HookPosDeviceRx,
		Item:   f,
	}
	d.InvokeHook(ctx)
	d.rxHooks.InvokeHook(ctx)
}

// Accepts tells if a frame addressed to dst is meant for this device.
func (d *DeviceBase) Accepts(dst Mac48Address) bool {
	return dst.IsBroadcast() || dst == d.mac
}
