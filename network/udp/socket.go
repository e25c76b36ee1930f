package udp

import (
	"fmt"

	"github.com/sarchlab/wavesim/network"
	"github.com/sarchlab/wavesim/sim"
	"go.uber.org/zap"
)

// DefaultRxBufferSize is the number of datagrams a socket queues before it
// drops arrivals.
const DefaultRxBufferSize = 4096

type rxItem struct {
	packet *network.Packet
	from   network.InetSocketAddress
	to     network.InetSocketAddress
}

// Socket is a UDP endpoint on a node.
type Socket struct {
	proto  *Protocol
	name   string
	logger *zap.Logger

	local          network.InetSocketAddress
	bound          bool
	remote         network.InetSocketAddress
	connected      bool
	allowBroadcast bool
	closed         bool

	rxBuffer     sim.Buffer
	recvCallback func(s *Socket)
}

// Name returns the name of the socket.
func (s *Socket) Name() string {
	return s.name
}

// Node returns the node the socket lives on.
func (s *Socket) Node() *network.Node {
	return s.proto.node
}

// LocalAddress returns the address the socket is bound to.
func (s *Socket) LocalAddress() network.InetSocketAddress {
	return s.local
}

// Bind binds the socket to a local address. Port 0 picks an ephemeral port.
func (s *Socket) Bind(addr network.InetSocketAddress) error {
	if s.closed {
		return ErrSocketClosed
	}

	if addr.Port == 0 {
		port, err := s.proto.allocateEphemeral()
		if err != nil {
			return err
		}

		addr.Port = port
	} else if s.proto.portInUse(addr) {
		return fmt.Errorf("%w: %s on %s", ErrAddressInUse, addr, s.proto.node.Name())
	}

	if !addr.IP.IsValid() {
		addr.IP = network.Ipv4Any
	}

	s.local = addr
	s.bound = true

	return nil
}

// Connect sets the default peer used by Send. It binds the socket to an
// ephemeral port if it is not bound yet.
func (s *Socket) Connect(remote network.InetSocketAddress) error {
	if s.closed {
		return ErrSocketClosed
	}

	if !s.bound {
		if err := s.Bind(network.NewInetSocketAddress(network.Ipv4Any, 0)); err != nil {
			return err
		}
	}

	s.remote = remote
	s.connected = true

	return nil
}

// SetAllowBroadcast allows or forbids sending to broadcast addresses.
func (s *Socket) SetAllowBroadcast(allow bool) {
	s.allowBroadcast = allow
}

// SetRecvCallback sets the function called after each arrival is queued.
func (s *Socket) SetRecvCallback(fn func(s *Socket)) {
	s.recvCallback = fn
}

// Send sends a packet to the connected peer.
func (s *Socket) Send(p *network.Packet) error {
	if s.closed {
		return ErrSocketClosed
	}

	if !s.connected {
		return ErrNotConnected
	}

	return s.SendTo(p, s.remote)
}

// SendTo sends a packet to the given address.
func (s *Socket) SendTo(p *network.Packet, to network.InetSocketAddress) error {
	if s.closed {
		return ErrSocketClosed
	}

	if !s.allowBroadcast && s.isBroadcast(to) {
		return fmt.Errorf("%w: %s", ErrBroadcastNotAllowed, to)
	}

	if !s.bound {
		if err := s.Bind(network.NewInetSocketAddress(network.Ipv4Any, 0)); err != nil {
			return err
		}
	}

	err := s.proto.node.SendDatagram(network.Datagram{
		Src:    s.local,
		Dst:    to,
		Packet: p,
	})
	if err != nil {
		s.logger.Debug("send failed", zap.Stringer("to", to), zap.Error(err))
		return err
	}

	return nil
}

func (s *Socket) isBroadcast(to network.InetSocketAddress) bool {
	if to.IP == network.Ipv4Broadcast {
		return true
	}

	for _, iface := range s.proto.node.Interfaces() {
		if iface.Broadcast() == to.IP {
			return true
		}
	}

	return false
}

// RecvFrom pops the oldest queued packet and its source. It returns nil when
// nothing is queued.
func (s *Socket) RecvFrom() (*network.Packet, network.Address) {
	p, from, _ := s.RecvMsg()
	if p == nil {
		return nil, nil
	}

	return p, from
}

// RecvMsg is like RecvFrom but also returns the address the packet was sent
// to, with the address of the receiving interface.
func (s *Socket) RecvMsg() (*network.Packet, network.Address, network.Address) {
	item := s.rxBuffer.Pop()
	if item == nil {
		return nil, nil, nil
	}

	rx := item.(rxItem)

	return rx.packet, rx.from, rx.to
}

// RxBuffer returns the queue of received packets.
func (s *Socket) RxBuffer() sim.Buffer {
	return s.rxBuffer
}

// Dropped returns the number of packets lost to a full receive buffer.
func (s *Socket) Dropped() int {
	return s.rxBuffer.Dropped()
}

// Available returns the number of queued packets.
func (s *Socket) Available() int {
	return s.rxBuffer.Size()
}

// Close releases the port. Closing twice returns ErrSocketClosed.
func (s *Socket) Close() error {
	if s.closed {
		return ErrSocketClosed
	}

	s.closed = true
	s.rxBuffer.Clear()

	return nil
}

// IsClosed tells if the socket has been closed.
func (s *Socket) IsClosed() bool {
	return s.closed
}

func (s *Socket) matches(
	dst network.InetSocketAddress,
	iface *network.Ipv4Interface,
) bool {
	if s.closed || !s.bound || s.local.Port != dst.Port {
		return false
	}

	if s.local.IP.IsUnspecified() || s.local.IP == dst.IP {
		return true
	}

	isBroadcast := dst.IP == network.Ipv4Broadcast || dst.IP == iface.Broadcast()

	return isBroadcast && s.local.IP == iface.Local()
}

func (s *Socket) enqueue(
	p *network.Packet,
	from, to network.InetSocketAddress,
) {
	if !s.rxBuffer.Push(rxItem{packet: p, from: from, to: to}) {
		s.logger.Debug("receive buffer full, dropping packet",
			zap.Uint64("uid", p.UID()),
			zap.Int("dropped", s.rxBuffer.Dropped()))
		return
	}

	if s.recvCallback != nil {
		s.recvCallback(s)
	}
}
