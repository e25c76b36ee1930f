package udp

import (
	"fmt"

	"github.com/sarchlab/wavesim/network"
	"github.com/sarchlab/wavesim/sim"
	"go.uber.org/zap"
)

// First port handed out to sockets that send without binding.
const (
	EphemeralPortStart = 49153
	EphemeralPortEnd   = 65535
)

// Protocol is the UDP layer of one node. It owns the node's sockets and
// hands each arriving datagram to the sockets bound to its port.
type Protocol struct {
	node          *network.Node
	name          string
	sockets       []*Socket
	nextSocketID  int
	nextEphemeral int
	rxBufferSize  int
}

// Install adds a UDP layer to the node, or returns the one already there.
func Install(node *network.Node) *Protocol {
	if p, ok := node.Transport().(*Protocol); ok {
		return p
	}

	p := &Protocol{
		node:          node,
		name:          sim.BuildName(node.Name(), "Udp"),
		nextEphemeral: EphemeralPortStart,
		rxBufferSize:  DefaultRxBufferSize,
	}
	node.SetTransport(p)

	return p
}

// Node returns the node the layer belongs to.
func (p *Protocol) Node() *network.Node {
	return p.node
}

// WithRxBufferSize sets how many datagrams the sockets created afterwards
// queue before they drop arrivals.
func (p *Protocol) WithRxBufferSize(n int) *Protocol {
	p.rxBufferSize = n
	return p
}

// CreateSocket creates an unbound socket.
func (p *Protocol) CreateSocket() *Socket {
	name := sim.BuildNameWithIndex(p.name, "Socket", p.nextSocketID)
	p.nextSocketID++

	s := &Socket{
		proto:    p,
		name:     name,
		rxBuffer: sim.NewBuffer(sim.BuildName(name, "RxBuffer"), p.rxBufferSize),
		logger:   p.node.Logger().With(zap.String("socket", name)),
	}
	p.sockets = append(p.sockets, s)

	return s
}

// Sockets returns every socket created on the node, closed ones included.
func (p *Protocol) Sockets() []*Socket {
	return p.sockets
}

func (p *Protocol) portInUse(addr network.InetSocketAddress) bool {
	for _, s := range p.sockets {
		if s.closed || !s.bound || s.local.Port != addr.Port {
			continue
		}

		if s.local.IP.IsUnspecified() || addr.IP.IsUnspecified() ||
			s.local.IP == addr.IP {
			return true
		}
	}

	return false
}

func (p *Protocol) allocateEphemeral() (uint16, error) {
	for i := EphemeralPortStart; i <= EphemeralPortEnd; i++ {
		port := p.nextEphemeral
		p.nextEphemeral++
		if p.nextEphemeral > EphemeralPortEnd {
			p.nextEphemeral = EphemeralPortStart
		}

		addr := network.NewInetSocketAddress(network.Ipv4Any, uint16(port))
		if !p.portInUse(addr) {
			return uint16(port), nil
		}
	}

	return 0, fmt.Errorf("%w: no ephemeral port left on %s",
		ErrAddressInUse, p.node.Name())
}

// Deliver hands a datagram to every socket that matches its destination.
func (p *Protocol) Deliver(d network.Datagram, iface *network.Ipv4Interface) {
	to := network.NewInetSocketAddress(iface.Local(), d.Dst.Port)
	delivered := false

	for _, s := range p.sockets {
		if !s.matches(d.Dst, iface) {
			continue
		}

		s.enqueue(d.Packet, d.Src, to)
		delivered = true
	}

	if !delivered {
		p.node.Logger().Debug("no socket for datagram",
			zap.Stringer("dst", d.Dst))
	}
}
