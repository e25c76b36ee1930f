package network

import (
	"fmt"
	"math"
	"net/netip"

	"github.com/sarchlab/wavesim/sim"
	"go.uber.org/zap"
)

// Position is a location in meters.
type Position struct {
	X, Y, Z float64
}

// DistanceTo returns the straight-line distance between two positions.
func (p Position) DistanceTo(o Position) float64 {
	dx, dy, dz := p.X-o.X, p.Y-o.Y, p.Z-o.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// Transport takes the datagrams that a node accepts.
type Transport interface {
	Deliver(d Datagram, iface *Ipv4Interface)
}

// An Application runs on a node and exposes trace sources.
type Application interface {
	sim.Named

	TypeName() string
	ConnectTrace(source string, hook sim.Hook) error
}

// A Node is a host in the simulated network. It owns devices, IPv4
// interfaces, a transport, and applications.
type Node struct {
	id       int
	name     string
	engine   sim.Engine
	logger   *zap.Logger
	position Position

	devices   []NetDevice
	ifaces    []*Ipv4Interface
	transport Transport
	apps      []Application
}

// NewNode creates a node with the given index.
func NewNode(id int, engine sim.Engine, logger *zap.Logger) *Node {
	if logger == nil {
		logger = zap.NewNop()
	}

	name := sim.BuildNameWithIndex("", "Node", id)

	return &Node{
		id:     id,
		name:   name,
		engine: engine,
		logger: logger.With(zap.String("node", name)),
	}
}

// ID returns the index of the node.
func (n *Node) ID() int {
	return n.id
}

// Name returns the name of the node.
func (n *Node) Name() string {
	return n.name
}

// Engine returns the engine that drives the node.
func (n *Node) Engine() sim.Engine {
	return n.engine
}

// Logger returns the logger of the node.
func (n *Node) Logger() *zap.Logger {
	return n.logger
}

// Position returns where the node is.
func (n *Node) Position() Position {
	return n.position
}

// SetPosition moves the node.
func (n *Node) SetPosition(p Position) {
	n.position = p
}

// AddDevice attaches a device to the node.
func (n *Node) AddDevice(dev NetDevice) {
	n.devices = append(n.devices, dev)
}

// Devices returns the devices of the node.
func (n *Node) Devices() []NetDevice {
	return n.devices
}

// AddInterface adds an IPv4 interface to the node.
func (n *Node) AddInterface(iface *Ipv4Interface) {
	n.ifaces = append(n.ifaces, iface)
}

// Interfaces returns the IPv4 interfaces of the node.
func (n *Node) Interfaces() []*Ipv4Interface {
	return n.ifaces
}

// SetTransport sets the component that receives accepted datagrams.
func (n *Node) SetTransport(t Transport) {
	n.transport = t
}

// Transport returns the transport installed on the node.
func (n *Node) Transport() Transport {
	return n.transport
}

// AddApplication adds an application to the node.
func (n *Node) AddApplication(app Application) {
	n.apps = append(n.apps, app)
}

// Applications returns the applications of the node.
func (n *Node) Applications() []Application {
	return n.apps
}

// SendDatagram routes a datagram out of the node. An unspecified source
// address is replaced with the address of the outgoing interface.
func (n *Node) SendDatagram(d Datagram) error {
	dst := d.Dst.IP

	if dst == Ipv4Broadcast {
		return n.sendLimitedBroadcast(d)
	}

	if iface := n.interfaceWithLocal(dst); iface != nil {
		n.fillSource(&d, iface)
		n.loopback(d, iface)

		return nil
	}

	iface := n.interfaceFor(dst)
	if iface == nil {
		return fmt.Errorf("%w: %s from %s", ErrNoRoute, dst, n.name)
	}

	n.fillSource(&d, iface)

	if dst == iface.Broadcast() {
		return iface.Device.Send(Frame{
			Src:      iface.Device.Address(),
			Dst:      BroadcastMac,
			Datagram: d,
		})
	}

	mac, found := iface.neighbors.Lookup(dst)
	if !found {
		return fmt.Errorf("%w: %s has no neighbor entry on %s",
			ErrNoRoute, dst, iface.Device.Name())
	}

	return iface.Device.Send(Frame{
		Src:      iface.Device.Address(),
		Dst:      mac,
		Datagram: d,
	})
}

// sendLimitedBroadcast puts the datagram on every interface. A copy is also
// looped back so that the sender's own sockets see it.
func (n *Node) sendLimitedBroadcast(d Datagram) error {
	if len(n.ifaces) == 0 {
		return fmt.Errorf("%w: %s has no interface", ErrNoRoute, n.name)
	}

	for _, iface := range n.ifaces {
		out := d
		n.fillSource(&out, iface)

		err := iface.Device.Send(Frame{
			Src:      iface.Device.Address(),
			Dst:      BroadcastMac,
			Datagram: out,
		})
		if err != nil {
			return err
		}
	}

	looped := d
	n.fillSource(&looped, n.ifaces[0])
	n.loopback(looped, n.ifaces[0])

	return nil
}

func (n *Node) fillSource(d *Datagram, iface *Ipv4Interface) {
	if !d.Src.IP.IsValid() || d.Src.IP.IsUnspecified() {
		d.Src.IP = iface.Local()
	}
}

func (n *Node) loopback(d Datagram, iface *Ipv4Interface) {
	evt := sim.NewCallbackEvent(n.engine.Now(),
		func(sim.VTimeInSec) error {
			n.deliver(d, iface)
			return nil
		})
	n.engine.Schedule(evt)
}

// ReceiveFrame is called by a device with a frame that passed its link-layer
// filter.
func (n *Node) ReceiveFrame(dev NetDevice, f Frame) {
	iface := n.interfaceOf(dev)
	if iface == nil {
		n.logger.Debug("drop frame on unaddressed device",
			zap.String("device", dev.Name()))
		return
	}

	if !n.accepts(f.Datagram.Dst.IP, iface) {
		n.logger.Debug("drop datagram for other host",
			zap.Stringer("dst", f.Datagram.Dst.IP))
		return
	}

	n.deliver(f.Datagram, iface)
}

func (n *Node) accepts(dst netip.Addr, iface *Ipv4Interface) bool {
	return dst == Ipv4Broadcast ||
		dst == iface.Broadcast() ||
		n.interfaceWithLocal(dst) != nil
}

func (n *Node) deliver(d Datagram, iface *Ipv4Interface) {
	if n.transport == nil {
		n.logger.Debug("drop datagram, no transport installed")
		return
	}

	n.transport.Deliver(d, iface)
}

func (n *Node) interfaceWithLocal(addr netip.Addr) *Ipv4Interface {
	for _, iface := range n.ifaces {
		if iface.Local() == addr {
			return iface
		}
	}

	return nil
}

func (n *Node) interfaceFor(addr netip.Addr) *Ipv4Interface {
	for _, iface := range n.ifaces {
		if iface.OnLink(addr) {
			return iface
		}
	}

	return nil
}

func (n *Node) interfaceOf(dev NetDevice) *Ipv4Interface {
	for _, iface := range n.ifaces {
		if iface.Device == dev {
			return iface
		}
	}

	return nil
}

// NodeContainer holds nodes in creation order.
type NodeContainer struct {
	nodes []*Node
}

// NewNodeContainer creates count nodes driven by the given engine.
func NewNodeContainer(
	count int,
	engine sim.Engine,
	logger *zap.Logger,
) *NodeContainer {
	c := &NodeContainer{}
	for i := 0; i < count; i++ {
		c.nodes = append(c.nodes, NewNode(i, engine, logger))
	}

	return c
}

// Get returns the i-th node.
func (c *NodeContainer) Get(i int) *Node {
	return c.nodes[i]
}

// N returns the number of nodes.
func (c *NodeContainer) N() int {
	return len(c.nodes)
}

// Nodes returns all the nodes.
func (c *NodeContainer) Nodes() []*Node {
	return c.nodes
}
