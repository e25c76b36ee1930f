package apps

import (
	"fmt"

	"github.com/sarchlab/wavesim/network"
	"github.com/sarchlab/wavesim/network/udp"
	"github.com/sarchlab/wavesim/sim"
	"go.uber.org/zap"
)

// HookPosRx marks a packet arriving at a sink. The hook detail is the source
// address.
var HookPosRx = &sim.HookPos{Name: "Rx"}

// HookPosRxWithAddresses marks a packet arriving at a sink. The hook detail
// is a network.AddressPair. Its destination is the address of the interface
// that received the packet with the sink port, even though the sink listens
// on 0.0.0.0. Broadcast packets report the interface address too, not
// 255.255.255.255.
var HookPosRxWithAddresses = &sim.HookPos{Name: "RxWithAddresses"}

// Trace sources of the sink.
const (
	TraceRx              = "Rx"
	TraceRxWithAddresses = "RxWithAddresses"
)

// PacketSink binds a UDP port and consumes everything sent to it.
type PacketSink struct {
	sim.HookableBase

	name   string
	node   *network.Node
	port   uint16
	socket *udp.Socket
	logger *zap.Logger

	totalRx uint64

	rxHooks     sim.HookableBase
	rxAddrHooks sim.HookableBase
}

// NewPacketSink creates a sink on the node and adds it to the node's
// applications. It does not bind until started.
func NewPacketSink(name string, node *network.Node, port uint16) *PacketSink {
	sim.NameMustBeValid(name)

	s := &PacketSink{
		name:   name,
		node:   node,
		port:   port,
		logger: node.Logger().With(zap.String("app", name)),
	}
	node.AddApplication(s)

	return s
}

// Name returns the name of the sink.
func (s *PacketSink) Name() string {
	return s.name
}

// TypeName returns PacketSink.
func (s *PacketSink) TypeName() string {
	return "PacketSink"
}

// Port returns the port the sink listens on.
func (s *PacketSink) Port() uint16 {
	return s.port
}

// TotalRx returns the number of payload bytes received.
func (s *PacketSink) TotalRx() uint64 {
	return s.totalRx
}

// Socket returns the listening socket, or nil before start.
func (s *PacketSink) Socket() *udp.Socket {
	return s.socket
}

// ConnectTrace attaches a hook to Rx or RxWithAddresses.
func (s *PacketSink) ConnectTrace(source string, hook sim.Hook) error {
	switch source {
	case TraceRx:
		s.rxHooks.AcceptHook(hook)
	case TraceRxWithAddresses:
		s.rxAddrHooks.AcceptHook(hook)
	default:
		return fmt.Errorf("%w: %s on %s",
			network.ErrUnknownTraceSource, source, s.name)
	}

	return nil
}

// StartAt schedules the sink to start at time t.
func (s *PacketSink) StartAt(t sim.VTimeInSec) {
	s.node.Engine().Schedule(sim.NewCallbackEvent(t,
		func(sim.VTimeInSec) error {
			return s.Start()
		}))
}

// Start binds the listening socket.
func (s *PacketSink) Start() error {
	if s.socket != nil {
		return nil
	}

	socket := udp.Install(s.node).CreateSocket()

	err := socket.Bind(network.NewInetSocketAddress(network.Ipv4Any, s.port))
	if err != nil {
		return fmt.Errorf("starting %s: %w", s.name, err)
	}

	socket.SetRecvCallback(s.handleRead)
	s.socket = socket

	s.logger.Debug("sink started", zap.Uint16("port", s.port))

	return nil
}

// Stop closes the listening socket.
func (s *PacketSink) Stop() error {
	if s.socket == nil || s.socket.IsClosed() {
		return nil
	}

	return s.socket.Close()
}

func (s *PacketSink) handleRead(socket *udp.Socket) {
	now := s.node.Engine().Now()

	for {
		p, from, to := socket.RecvMsg()
		if p == nil {
			return
		}

		s.totalRx += uint64(p.Size())

		ctx := sim.HookCtx{
			Domain: s,
			Now:    now,
			Pos:    HookPosRx,
			Item:   p,
			Detail: from,
		}
		s.InvokeHook(ctx)
		s.rxHooks.InvokeHook(ctx)

		ctx.Pos = HookPosRxWithAddresses
		ctx.Detail = network.AddressPair{Src: from, Dst: to}
		s.InvokeHook(ctx)
		s.rxAddrHooks.InvokeHook(ctx)
	}
}
